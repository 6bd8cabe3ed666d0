package core

import (
	"context"
	"encoding/json"
	"time"
)

// Event kinds published on the Bus.
const (
	EventChatMessage = "chat_message"
	EventActivity    = "activity"
	EventPlanner     = "planner"
)

type (
	// Event is a typed change notification fanned out to subscribers of a topic
	// (topics are team IDs). Payload holds the JSON encoding of the domain
	// record the event refers to.
	Event struct {
		Kind      string          `json:"kind"`
		Topic     string          `json:"topic"`
		Payload   json.RawMessage `json:"payload"`
		CreatedAt time.Time       `json:"created_at"`
	}

	// Subscription is a cancellable handle on a stream of events.
	// C is closed when the subscription ends.
	Subscription interface {
		C() <-chan Event
		Close() error
	}

	// Bus fans events out to all live subscribers of a topic. Delivery is
	// best-effort: subscribers joining after a publish do not see it, and a
	// slow subscriber may drop events.
	Bus interface {
		Publish(ctx context.Context, ev Event) error
		Subscribe(ctx context.Context, topic string) (Subscription, error)
		Close() error
	}
)

// NewEvent builds an Event, JSON-encoding the given payload record.
func NewEvent(kind, topic string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:      kind,
		Topic:     topic,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}
