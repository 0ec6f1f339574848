package hub

import (
	"encoding/json"
	"fmt"

	"github.com/summit-games/summit-indexer/internal/domain"
)

// Notification is one parsed change notification from the store. The
// payload is the full changed row as JSON; TokenID is extracted when the
// payload carries one so broadcast filtering does not re-parse per client.
type Notification struct {
	Channel domain.Channel
	Payload json.RawMessage
	TokenID *uint64
}

// parseNotification validates the channel and payload of a raw notification.
// A missing or unparseable payload is an error; the caller logs and drops.
func parseNotification(channel string, payload string) (*Notification, error) {
	ch := domain.Channel(channel)
	if !domain.IsValidChannel(ch) {
		return nil, fmt.Errorf("unknown notification channel %q", channel)
	}
	if payload == "" {
		return nil, fmt.Errorf("empty payload on channel %q", channel)
	}

	var head struct {
		TokenID *uint64 `json:"token_id"`
	}
	if err := json.Unmarshal([]byte(payload), &head); err != nil {
		return nil, fmt.Errorf("unparseable payload on channel %q: %w", channel, err)
	}

	return &Notification{
		Channel: ch,
		Payload: json.RawMessage(payload),
		TokenID: head.TokenID,
	}, nil
}
