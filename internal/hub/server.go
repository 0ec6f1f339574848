package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/summit-games/summit-indexer/internal/domain"
	"github.com/summit-games/summit-indexer/internal/logger"
)

// ServerConfig holds the realtime server configuration
type ServerConfig struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server serves the websocket endpoint and the health endpoint
type Server struct {
	config     ServerConfig
	hub        *Hub
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// NewServer creates a realtime server over a hub
func NewServer(cfg ServerConfig, h *Hub) *Server {
	return &Server{
		config: cfg,
		hub:    h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// subscription data is public; origin policy is left to the
			// fronting proxy
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(recovery())
	router.Use(requestLogger())
	router.Use(setupCORS())

	router.GET("/ws", s.handleWebsocket)
	router.GET("/status", s.handleStatus)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting realtime server", zap.String("address", addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down realtime server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}

// handleStatus reports listener connectivity and the client count
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected": s.hub.Listener().Connected(),
		"clients":   s.hub.Registry().Count(),
	})
}

// handleWebsocket upgrades the connection and registers the client
func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err), zap.String("client_ip", c.ClientIP()))
		return
	}

	client := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
	}
	s.hub.Registry().Add(client)
	logger.Info("Client connected", zap.String("client_id", client.id), zap.String("client_ip", c.ClientIP()))

	go s.readLoop(client)
}

// readLoop handles inbound messages for one client until its connection
// drops; only then is the client removed from the registry
func (s *Server) readLoop(client *wsClient) {
	defer func() {
		s.hub.Registry().Remove(client.id)
		if err := client.Close(); err != nil {
			logger.Debug("client close failed", zap.Error(err), zap.String("client_id", client.id))
		}
		logger.Info("Client disconnected", zap.String("client_id", client.id))
	}()

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("client read failed", zap.Error(err), zap.String("client_id", client.id))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.reply(client, serverMessage{Type: messageTypeError, Error: "malformed message"})
			continue
		}

		s.handleClientMessage(client, &msg)
	}
}

// handleClientMessage dispatches one decoded client message
func (s *Server) handleClientMessage(client *wsClient, msg *clientMessage) {
	switch msg.Type {
	case messageTypeSubscribe:
		accepted := validChannels(msg.Channels)
		if err := s.hub.Registry().Subscribe(client.id, accepted, msg.EntityIDs); err != nil {
			s.reply(client, serverMessage{Type: messageTypeError, Error: err.Error()})
			return
		}
		s.reply(client, serverMessage{Type: messageTypeSubscribed, Channels: channelNames(accepted)})

	case messageTypeUnsubscribe:
		accepted := validChannels(msg.Channels)
		if err := s.hub.Registry().Unsubscribe(client.id, accepted); err != nil {
			s.reply(client, serverMessage{Type: messageTypeError, Error: err.Error()})
			return
		}
		s.reply(client, serverMessage{Type: messageTypeUnsubscribed, Channels: channelNames(accepted)})

	case messageTypePing:
		s.reply(client, serverMessage{Type: messageTypePong})

	default:
		s.reply(client, serverMessage{Type: messageTypeError, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func (s *Server) reply(client *wsClient, msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error(err, zap.String("message", "Failed to marshal reply"))
		return
	}
	if err := client.Send(data); err != nil {
		logger.Warn("failed to reply to client", zap.Error(err), zap.String("client_id", client.id))
	}
}

func validChannels(names []string) []domain.Channel {
	channels := make([]domain.Channel, 0, len(names))
	for _, name := range names {
		if ch := domain.Channel(name); domain.IsValidChannel(ch) {
			channels = append(channels, ch)
		}
	}
	return channels
}

func channelNames(channels []domain.Channel) []string {
	names := make([]string, 0, len(channels))
	for _, ch := range channels {
		names = append(names, string(ch))
	}
	return names
}

// wsClient is one websocket transport. Broadcasts and replies may be sent
// from different goroutines, so writes are serialized.
type wsClient struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) ID() string {
	return c.id
}

func (c *wsClient) Send(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

func (c *wsClient) Close() error {
	return c.conn.Close()
}
