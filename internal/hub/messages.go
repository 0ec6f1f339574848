package hub

import (
	"encoding/json"
)

// Client to server message types
const (
	messageTypeSubscribe   = "subscribe"
	messageTypeUnsubscribe = "unsubscribe"
	messageTypePing        = "ping"
)

// Server to client message types. Broadcast envelopes use the channel name
// as their type.
const (
	messageTypeSubscribed   = "subscribed"
	messageTypeUnsubscribed = "unsubscribed"
	messageTypePong         = "pong"
	messageTypeError        = "error"
)

// clientMessage is a decoded client to server message
type clientMessage struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels,omitempty"`
	// EntityIDs, when present on a subscribe, replaces the client's token
	// id filter
	EntityIDs []uint64 `json:"entityIds,omitempty"`
}

// serverMessage is a server to client message or broadcast envelope
type serverMessage struct {
	Type     string          `json:"type"`
	Channels []string        `json:"channels,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
}
