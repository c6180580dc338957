// Package events defines the observability events the relay publishes.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	ChatTurnCompleted EventType = "chat.turn_completed"
)

// BaseEvent is the common envelope of every event.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBase fills the envelope for a fresh event.
func NewBase(eventType EventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   "1.0",
	}
}

// ChatTurnCompletedEvent reports the outcome and token cost of one turn.
// Short-circuited turns are not reported: they never reach the model.
type ChatTurnCompletedEvent struct {
	BaseEvent
	SessionID        string `json:"session_id"`
	Status           string `json:"status"` // "ok" or the failure kind
	Model            string `json:"model"`
	DurationMs       int64  `json:"duration_ms"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// SerializeEvent marshals an event and returns its type tag.
func SerializeEvent(event interface{}) ([]byte, EventType, error) {
	var eventType EventType

	switch e := event.(type) {
	case ChatTurnCompletedEvent:
		eventType = e.Type
	default:
		return nil, "", fmt.Errorf("unknown event type: %T", event)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, "", err
	}
	return data, eventType, nil
}
