// Package eventbus abstracts publishing observability events. The relay only
// produces; consuming is left to downstream cost/metrics services.
package eventbus

import (
	"context"
	"encoding/json"
)

// Event is the payload envelope written to a topic.
type Event struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// EventBus publishes events to a named topic.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close()
}
