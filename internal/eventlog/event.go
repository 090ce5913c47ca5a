// Package eventlog records resolution and cart-push events durably and fans
// them out to live subscribers (SSE) and, optionally, a NATS JetStream
// subject.
package eventlog

import (
	"encoding/json"
	"time"
)

// Event types.
const (
	TypeResolution = "resolution"
	TypeCartPush   = "cart_push"
)

// Event is one logged occurrence. Payload is event-type specific JSON.
type Event struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	User      string          `json:"user"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}
