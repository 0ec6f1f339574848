package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrListenerClosed is returned when the notification listener has been released
	ErrListenerClosed = errors.New("notification listener closed")

	// ErrClientNotFound is returned when a realtime client id is not registered
	ErrClientNotFound = errors.New("client not found")
)

// DecodeError reports a malformed packed value or felt array. It carries the
// event type and offending field so a bad event can be logged and skipped
// without aborting the rest of the block.
type DecodeError struct {
	EventType string
	Field     string
	Reason    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: field %q: %s", e.EventType, e.Field, e.Reason)
}

// NewDecodeError creates a DecodeError for the given event type and field
func NewDecodeError(eventType, field, reason string) *DecodeError {
	return &DecodeError{EventType: eventType, Field: field, Reason: reason}
}

// IsDecodeError reports whether err is (or wraps) a DecodeError
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
