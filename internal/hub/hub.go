package hub

import (
	"context"

	"github.com/summit-games/summit-indexer/internal/logger"
)

// Hub couples the store notification listener to the client registry: every
// parsed notification is fanned out to the matching subscribed clients. The
// listener and the registry fail independently; a disconnected listener
// leaves clients connected and subscribed, they just see no traffic until
// it reconnects.
type Hub struct {
	listener *Listener
	registry *Registry
}

// NewHub creates a hub over a listener and a registry
func NewHub(listener *Listener, registry *Registry) *Hub {
	return &Hub{listener: listener, registry: registry}
}

// Listener returns the underlying notification listener
func (h *Hub) Listener() *Listener {
	return h.listener
}

// Registry returns the underlying client registry
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run pumps notifications into broadcasts until the context is cancelled.
// Shutdown order: the listener stops first (releasing its connection after
// an UNLISTEN), then every client transport is closed and the registry
// cleared.
func (h *Hub) Run(ctx context.Context) error {
	listenerDone := make(chan error, 1)
	go func() {
		listenerDone <- h.listener.Run(ctx)
	}()

	for {
		select {
		case notification := <-h.listener.Notifications():
			h.registry.Broadcast(notification)
		case err := <-listenerDone:
			logger.Info("Notification listener stopped, closing clients")
			h.registry.CloseAll()
			return err
		}
	}
}
