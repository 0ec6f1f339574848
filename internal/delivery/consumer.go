package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/summit-games/summit-indexer/internal/adapter"
	"github.com/summit-games/summit-indexer/internal/domain"
	"github.com/summit-games/summit-indexer/internal/logger"
)

// Config holds the configuration for the block consumer
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	Subject        string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	MaxDeliver     int
}

// BlockHandler applies one delivered block. It must be idempotent: the
// stream delivers at least once and a Nak re-delivers the whole block.
type BlockHandler interface {
	ProcessBlock(ctx context.Context, block *domain.Block) error
}

// Consumer defines the interface for the block delivery consumer
type Consumer interface {
	// Run starts consuming blocks until the context is cancelled
	Run(ctx context.Context) error
	// Close closes the consumer and cleans up resources
	Close()
}

type consumer struct {
	nc      adapter.NatsConn
	js      adapter.JetStream
	handler BlockHandler
	json    adapter.JSON
	config  Config
}

// NewConsumer creates a block delivery consumer on a durable JetStream
// consumer
func NewConsumer(
	cfg Config,
	natsJS adapter.NatsJetStream,
	handler BlockHandler,
	jsonAdapter adapter.JSON,
) (Consumer, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &consumer{
		nc:      nc,
		js:      js,
		handler: handler,
		json:    jsonAdapter,
		config:  cfg,
	}, nil
}

// Run starts consuming blocks
func (c *consumer) Run(ctx context.Context) error {
	logger.Info("Starting block consumer",
		zap.String("stream", c.config.StreamName),
		zap.String("consumer", c.config.ConsumerName))

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       c.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       c.config.AckWaitTimeout,
		MaxDeliver:    c.config.MaxDeliver,
		FilterSubject: c.config.Subject,
		// one unacked block at a time keeps delivery ordered end to end
		MaxAckPending: 1,
	}

	jsConsumer, err := c.js.CreateOrUpdateConsumer(ctx, c.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := jsConsumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.Info("Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	msgChan := make(chan adapter.Message, 100)
	sub, err := jsConsumer.Consume(func(msg adapter.Message) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.Info("Started consuming blocks")

	// Blocks are handled inline, never in a goroutine: reconciliation diffs
	// depend on blocks landing in delivery order.
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down block consumer")
			return ctx.Err()
		case msg := <-msgChan:
			c.handleMessage(ctx, msg)
		}
	}
}

// handleMessage applies one delivered block message
func (c *consumer) handleMessage(ctx context.Context, msg adapter.Message) {
	metadata, _ := msg.Metadata()

	var block domain.Block
	if err := c.json.Unmarshal(msg.Data(), &block); err != nil {
		logger.Error(err, zap.String("message", "Failed to unmarshal block"))
		// unparseable payloads never become parseable on redelivery
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	var numDelivered uint64
	if metadata != nil {
		numDelivered = metadata.NumDelivered
	}
	logger.Info("Received block",
		zap.Uint64("blockNumber", block.Number),
		zap.Int("events", len(block.Events)),
		zap.Uint64("deliveryCount", numDelivered),
	)

	if err := c.handler.ProcessBlock(ctx, &block); err != nil {
		logger.Error(err, zap.String("message", "Failed to process block"), zap.Uint64("blockNumber", block.Number))
		if err := msg.Nak(); err != nil {
			logger.Error(err, zap.String("message", "Failed to NAK message"))
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.Error(err, zap.String("message", "Failed to ACK message"))
	}
}

// Close closes the consumer and cleans up resources
func (c *consumer) Close() {
	if c.nc == nil {
		return
	}

	c.nc.Close()
}
