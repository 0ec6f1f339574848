package hub

import (
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/summit-games/summit-indexer/internal/domain"
	"github.com/summit-games/summit-indexer/internal/logger"
)

// Client is one connected downstream transport. Implementations must allow
// Send from concurrent goroutines.
type Client interface {
	ID() string
	Send(message []byte) error
	Close() error
}

// clientState tracks one client's subscriptions. A nil tokenFilter means
// no filtering; an empty one matches nothing.
type clientState struct {
	client      Client
	channels    map[domain.Channel]struct{}
	tokenFilter map[uint64]struct{}
}

// Registry is the concurrency-safe client map of the hub. Transport
// callbacks (connect, message, disconnect) fire on arbitrary goroutines, so
// every operation takes the registry lock.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*clientState
}

// NewRegistry creates an empty client registry
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*clientState)}
}

// Add registers a client with an empty subscription. Re-adding the same id
// resets its subscription.
func (r *Registry) Add(client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ID()] = &clientState{
		client:   client,
		channels: make(map[domain.Channel]struct{}),
	}
}

// Remove drops a client from the registry. Removing an unknown id is a
// no-op; the transport is not closed here, that is the disconnect
// callback's job.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// Subscribe adds channels to the client's subscription set. A non-nil
// tokenIDs replaces the client's token filter; nil leaves it untouched.
func (r *Registry) Subscribe(id string, channels []domain.Channel, tokenIDs []uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.clients[id]
	if !ok {
		return domain.ErrClientNotFound
	}
	for _, ch := range channels {
		if domain.IsValidChannel(ch) {
			state.channels[ch] = struct{}{}
		}
	}
	if tokenIDs != nil {
		state.tokenFilter = make(map[uint64]struct{}, len(tokenIDs))
		for _, tokenID := range tokenIDs {
			state.tokenFilter[tokenID] = struct{}{}
		}
	}
	return nil
}

// Unsubscribe removes channels from the client's subscription set
func (r *Registry) Unsubscribe(id string, channels []domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.clients[id]
	if !ok {
		return domain.ErrClientNotFound
	}
	for _, ch := range channels {
		delete(state.channels, ch)
	}
	return nil
}

// Count returns the number of registered clients
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Snapshot returns the subscribed channels per client id, sorted for
// stable inspection
func (r *Registry) Snapshot() map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]string, len(r.clients))
	for id, state := range r.clients {
		channels := make([]string, 0, len(state.channels))
		for ch := range state.channels {
			channels = append(channels, string(ch))
		}
		sort.Strings(channels)
		out[id] = channels
	}
	return out
}

// Broadcast fans one notification out to every matching client: the client
// must be subscribed to the channel, and when it carries a token filter the
// payload's token id (when present) must be in it. A failed send is logged
// and the client stays registered; only its own disconnect removes it.
func (r *Registry) Broadcast(notification Notification) {
	envelope, err := json.Marshal(serverMessage{
		Type: string(notification.Channel),
		Data: notification.Payload,
	})
	if err != nil {
		logger.Error(err, zap.String("message", "Failed to marshal broadcast envelope"))
		return
	}

	r.mu.Lock()
	targets := make([]Client, 0, len(r.clients))
	for _, state := range r.clients {
		if _, subscribed := state.channels[notification.Channel]; !subscribed {
			continue
		}
		if state.tokenFilter != nil && notification.TokenID != nil {
			if _, match := state.tokenFilter[*notification.TokenID]; !match {
				continue
			}
		}
		targets = append(targets, state.client)
	}
	r.mu.Unlock()

	for _, client := range targets {
		if err := client.Send(envelope); err != nil {
			logger.Warn("failed to send broadcast to client",
				zap.Error(err),
				zap.String("client_id", client.ID()),
				zap.String("channel", string(notification.Channel)))
		}
	}
}

// CloseAll closes every client transport and clears the registry. Used on
// shutdown after the listener has stopped.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	states := make([]*clientState, 0, len(r.clients))
	for _, state := range r.clients {
		states = append(states, state)
	}
	r.clients = make(map[string]*clientState)
	r.mu.Unlock()

	for _, state := range states {
		if err := state.client.Close(); err != nil {
			logger.Warn("failed to close client transport", zap.Error(err), zap.String("client_id", state.client.ID()))
		}
	}
}
