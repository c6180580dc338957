package eventbus

import (
	"context"

	"evidenze-chat/internal/logger"
)

// LogBus is the default bus: events end up in the structured log instead of a
// broker. Deployments without Kafka lose nothing but downstream consumers.
type LogBus struct{}

func NewLogBus() *LogBus {
	return &LogBus{}
}

func (l *LogBus) Publish(ctx context.Context, topic string, event Event) error {
	logger.InfoWithFields("event published", logger.Fields{
		"topic":    topic,
		"event_id": event.ID,
		"payload":  string(event.Payload),
	})
	return nil
}

func (l *LogBus) Close() {}
