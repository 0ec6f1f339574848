package hub

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/summit-games/summit-indexer/internal/adapter"
	"github.com/summit-games/summit-indexer/internal/domain"
	"github.com/summit-games/summit-indexer/internal/logger"
)

// listenChannels is the fixed set of store notification channels the hub
// subscribes to
var listenChannels = []domain.Channel{
	domain.ChannelStateUpdates,
	domain.ChannelActivityLog,
}

// Listener owns the long-lived notification connection to the store. It
// pushes parsed notifications onto an internal channel so the broadcast
// step is decoupled from the reconnect state machine. On any connection
// error it releases the connection and retries after a fixed delay,
// indefinitely; the processing pipeline is unaffected while the listener
// is down.
type Listener struct {
	dsn           string
	reconnectWait time.Duration
	clock         adapter.Clock

	notifications chan Notification
	connected     atomic.Bool
}

// NewListener creates a store notification listener
func NewListener(dsn string, reconnectWait time.Duration, clock adapter.Clock) *Listener {
	return &Listener{
		dsn:           dsn,
		reconnectWait: reconnectWait,
		clock:         clock,
		notifications: make(chan Notification, 256),
	}
}

// Notifications returns the stream of parsed notifications
func (l *Listener) Notifications() <-chan Notification {
	return l.notifications
}

// Connected reports whether the listener currently holds a live connection
func (l *Listener) Connected() bool {
	return l.connected.Load()
}

// Run connects and listens until the context is cancelled. Constant-delay
// reconnect, no retry cap: the listener may stay disconnected for
// arbitrarily long periods and recover on its own.
func (l *Listener) Run(ctx context.Context) error {
	bo := backoff.NewConstantBackOff(l.reconnectWait)
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error(err, zap.String("message", "Notification listener disconnected, reconnecting"),
			zap.Duration("reconnect_wait", l.reconnectWait))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(bo.NextBackOff()):
		}
	}
}

// listen holds one connection: subscribe to every channel, then block on
// notifications until the connection fails or the context is cancelled
func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect notification listener: %w", err)
	}
	defer func() {
		l.connected.Store(false)
		// stop listening on all channels before releasing; the shutdown
		// context may already be cancelled so use a fresh one
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(closeCtx, "UNLISTEN *"); err != nil {
			logger.Warn("failed to unlisten before releasing", zap.Error(err))
		}
		if err := conn.Close(closeCtx); err != nil {
			logger.Warn("failed to close listener connection", zap.Error(err))
		}
	}()

	for _, channel := range listenChannels {
		if _, err := conn.Exec(ctx, "LISTEN "+string(channel)); err != nil {
			return fmt.Errorf("failed to listen on channel %s: %w", channel, err)
		}
	}

	l.connected.Store(true)
	logger.Info("Notification listener connected", zap.Int("channels", len(listenChannels)))

	for {
		raw, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("notification wait failed: %w", err)
		}

		notification, err := parseNotification(raw.Channel, raw.Payload)
		if err != nil {
			logger.Warn("dropping malformed notification", zap.Error(err), zap.String("channel", raw.Channel))
			continue
		}

		select {
		case l.notifications <- *notification:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
