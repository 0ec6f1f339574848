package hub

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit-games/summit-indexer/internal/domain"
	"github.com/summit-games/summit-indexer/internal/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// fakeClient records everything sent to it
type fakeClient struct {
	id   string
	mu   sync.Mutex
	sent [][]byte
	fail bool

	closed bool
}

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) Send(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("transport broken")
	}
	c.sent = append(c.sent, message)
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

func tokenPtr(v uint64) *uint64 { return &v }

func stateNotification(tokenID uint64) Notification {
	payload := []byte(`{"token_id": 7, "current_health": 42}`)
	return Notification{Channel: domain.ChannelStateUpdates, Payload: payload, TokenID: tokenPtr(tokenID)}
}

func activityNotification(tokenID uint64) Notification {
	payload := []byte(`{"token_id": 7, "category": "combat"}`)
	return Notification{Channel: domain.ChannelActivityLog, Payload: payload, TokenID: tokenPtr(tokenID)}
}

func TestRegistryAddRemoveIdempotent(t *testing.T) {
	registry := NewRegistry()
	client := &fakeClient{id: "a"}

	registry.Add(client)
	assert.Equal(t, 1, registry.Count())

	require.NoError(t, registry.Subscribe("a", []domain.Channel{domain.ChannelActivityLog}, nil))
	assert.Equal(t, map[string][]string{"a": {"activity_log"}}, registry.Snapshot())

	// re-adding resets the subscription
	registry.Add(client)
	assert.Equal(t, map[string][]string{"a": {}}, registry.Snapshot())

	registry.Remove("a")
	registry.Remove("a") // removing a removed id is a no-op
	assert.Equal(t, 0, registry.Count())

	assert.ErrorIs(t, registry.Subscribe("a", []domain.Channel{domain.ChannelActivityLog}, nil), domain.ErrClientNotFound)
}

func TestRegistrySubscribeAccumulatesChannels(t *testing.T) {
	registry := NewRegistry()
	registry.Add(&fakeClient{id: "a"})

	require.NoError(t, registry.Subscribe("a", []domain.Channel{domain.ChannelActivityLog}, nil))
	require.NoError(t, registry.Subscribe("a", []domain.Channel{domain.ChannelStateUpdates}, nil))
	assert.Equal(t, []string{"activity_log", "state_updates"}, registry.Snapshot()["a"])

	require.NoError(t, registry.Unsubscribe("a", []domain.Channel{domain.ChannelActivityLog}))
	assert.Equal(t, []string{"state_updates"}, registry.Snapshot()["a"])

	// invalid channels are dropped silently
	require.NoError(t, registry.Subscribe("a", []domain.Channel{"bogus"}, nil))
	assert.Equal(t, []string{"state_updates"}, registry.Snapshot()["a"])
}

func TestBroadcastFiltering(t *testing.T) {
	registry := NewRegistry()

	// subscribed to activity_log only, filtered to beast 7
	filtered := &fakeClient{id: "filtered"}
	registry.Add(filtered)
	require.NoError(t, registry.Subscribe("filtered", []domain.Channel{domain.ChannelActivityLog}, []uint64{7}))

	registry.Broadcast(activityNotification(7))
	registry.Broadcast(activityNotification(9))
	registry.Broadcast(stateNotification(7))

	received := filtered.received()
	require.Len(t, received, 1)

	var envelope serverMessage
	require.NoError(t, json.Unmarshal(received[0], &envelope))
	assert.Equal(t, "activity_log", envelope.Type)
	assert.JSONEq(t, `{"token_id": 7, "category": "combat"}`, string(envelope.Data))
}

func TestBroadcastNoFilterReceivesAll(t *testing.T) {
	registry := NewRegistry()
	client := &fakeClient{id: "all"}
	registry.Add(client)
	require.NoError(t, registry.Subscribe("all", []domain.Channel{domain.ChannelActivityLog, domain.ChannelStateUpdates}, nil))

	registry.Broadcast(activityNotification(7))
	registry.Broadcast(activityNotification(9))
	registry.Broadcast(stateNotification(1))

	assert.Len(t, client.received(), 3)
}

func TestBroadcastPayloadWithoutTokenPassesFilter(t *testing.T) {
	registry := NewRegistry()
	client := &fakeClient{id: "filtered"}
	registry.Add(client)
	require.NoError(t, registry.Subscribe("filtered", []domain.Channel{domain.ChannelActivityLog}, []uint64{7}))

	// entries without a token id are delivered regardless of the filter
	registry.Broadcast(Notification{
		Channel: domain.ChannelActivityLog,
		Payload: []byte(`{"category": "rewards"}`),
	})
	assert.Len(t, client.received(), 1)
}

func TestBroadcastSendFailureKeepsClientRegistered(t *testing.T) {
	registry := NewRegistry()
	broken := &fakeClient{id: "broken", fail: true}
	healthy := &fakeClient{id: "healthy"}
	registry.Add(broken)
	registry.Add(healthy)
	require.NoError(t, registry.Subscribe("broken", []domain.Channel{domain.ChannelStateUpdates}, nil))
	require.NoError(t, registry.Subscribe("healthy", []domain.Channel{domain.ChannelStateUpdates}, nil))

	registry.Broadcast(stateNotification(7))

	assert.Len(t, healthy.received(), 1)
	assert.Equal(t, 2, registry.Count())
}

func TestCloseAllClosesAndClears(t *testing.T) {
	registry := NewRegistry()
	a := &fakeClient{id: "a"}
	b := &fakeClient{id: "b"}
	registry.Add(a)
	registry.Add(b)

	registry.CloseAll()

	assert.Equal(t, 0, registry.Count())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestParseNotification(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		payload string
		wantErr bool
		tokenID *uint64
	}{
		{
			name:    "state update with token",
			channel: "state_updates",
			payload: `{"token_id": 42, "current_health": 10}`,
			tokenID: tokenPtr(42),
		},
		{
			name:    "activity entry without token",
			channel: "activity_log",
			payload: `{"category": "rewards"}`,
		},
		{
			name:    "unknown channel",
			channel: "other",
			payload: `{}`,
			wantErr: true,
		},
		{
			name:    "empty payload",
			channel: "state_updates",
			payload: "",
			wantErr: true,
		},
		{
			name:    "unparseable payload",
			channel: "state_updates",
			payload: "not json",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notification, err := parseNotification(tt.channel, tt.payload)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.Channel(tt.channel), notification.Channel)
			assert.Equal(t, tt.tokenID, notification.TokenID)
			assert.JSONEq(t, tt.payload, string(notification.Payload))
		})
	}
}
