package bus

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/codesage/codesage/core"
)

func publish(t *testing.T, b *MemoryBus, kind, topic string, payload interface{}) {
	t.Helper()
	ev, err := core.NewEvent(kind, topic, payload)
	if err != nil {
		t.Fatalf("NewEvent() failed: %v", err)
	}
	if err = b.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
}

func TestMemoryBus_fanOut(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	sub1, err := b.Subscribe(ctx, "team-1")
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	sub2, err := b.Subscribe(ctx, "team-1")
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	other, err := b.Subscribe(ctx, "team-2")
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	publish(t, b, core.EventChatMessage, "team-1", map[string]string{"body": "hello"})

	for i, sub := range []core.Subscription{sub1, sub2} {
		select {
		case ev := <-sub.C():
			if ev.Kind != core.EventChatMessage || ev.Topic != "team-1" {
				t.Errorf("sub %d event = %+v", i, ev)
			}
			var body map[string]string
			if err = json.Unmarshal(ev.Payload, &body); err != nil {
				t.Fatalf("unmarshalling payload: %v", err)
			}
			if body["body"] != "hello" {
				t.Errorf("sub %d payload = %v", i, body)
			}
		default:
			t.Errorf("sub %d got no event", i)
		}
	}

	select {
	case ev := <-other.C():
		t.Errorf("other topic received %+v", ev)
	default:
	}
}

func TestMemoryBus_closedSubscriptionStopsReceiving(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "team-1")
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	if err = sub.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err = sub.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}

	// channel is closed
	if _, open := <-sub.C(); open {
		t.Error("subscription channel still open")
	}

	// publishing to the topic no longer panics or delivers
	publish(t, b, core.EventActivity, "team-1", "x")
}

func TestMemoryBus_slowSubscriberDrops(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	// buffer is 16; the rest must be dropped without blocking
	for i := 0; i < 50; i++ {
		publish(t, b, core.EventPlanner, "team-1", i)
	}

	var received int
	for {
		select {
		case <-sub.C():
			received++
			continue
		default:
		}
		break
	}
	if received != 16 {
		t.Errorf("received = %d, want the 16 buffered events", received)
	}
}

func TestMemoryBus_Close(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	if err = b.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err = b.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
	if _, open := <-sub.C(); open {
		t.Error("subscription channel still open after bus close")
	}
	// closing the subscription after the bus is closed must not panic
	if err = sub.Close(); err != nil {
		t.Fatalf("sub.Close() failed: %v", err)
	}
}
