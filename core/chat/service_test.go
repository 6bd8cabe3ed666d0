package chat_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/codesage/codesage/core"
	"github.com/codesage/codesage/core/chat"
	"github.com/codesage/codesage/core/user"
	"github.com/codesage/codesage/storage/bus"
	dummydb "github.com/codesage/codesage/storage/database/dummy"
	testutil "github.com/codesage/codesage/tests"
)

func setup(t *testing.T) *chat.Service {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return chat.NewService(dummydb.NewChatRepository(db), bus.NewMemoryBus(), testutil.NopLogger{})
}

func poster() user.User {
	return user.User{ID: "u1", Name: "Awa", TeamID: "t1"}
}

func TestService_Post(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, "t1")
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	defer sub.Close()

	msg, err := svc.Post(ctx, poster(), chat.NewMessage{Body: "battery check before the match"})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}
	if msg.ID == "" || msg.TeamID != "t1" || msg.UserID != "u1" || msg.UserName != "Awa" {
		t.Errorf("Post() = %+v", msg)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("Post() did not stamp CreatedAt")
	}

	select {
	case ev := <-sub.C():
		if ev.Kind != core.EventChatMessage || ev.Topic != "t1" {
			t.Errorf("event = %+v", ev)
		}
		var got chat.Message
		if err = json.Unmarshal(ev.Payload, &got); err != nil {
			t.Fatalf("unmarshalling payload: %v", err)
		}
		if got.Body != "battery check before the match" {
			t.Errorf("payload = %+v", got)
		}
	default:
		t.Error("no chat event published")
	}
}

func TestService_History(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	usr := poster()

	var posted []chat.Message
	for i := 0; i < 5; i++ {
		msg, err := svc.Post(ctx, usr, chat.NewMessage{Body: fmt.Sprintf("msg %d", i)})
		if err != nil {
			t.Fatalf("Post() failed: %v", err)
		}
		posted = append(posted, msg)
		time.Sleep(time.Millisecond) // distinct timestamps
	}

	// zero before means "from now"; newest first
	msgs, err := svc.History(ctx, "t1", time.Time{}, 0)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("History() len = %d, want 5", len(msgs))
	}
	if msgs[0].Body != "msg 4" || msgs[4].Body != "msg 0" {
		t.Errorf("History() order: first %q, last %q", msgs[0].Body, msgs[4].Body)
	}

	// paging backwards from the middle message
	msgs, err = svc.History(ctx, "t1", posted[2].CreatedAt, 0)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("History(before msg 2) len = %d, want 2", len(msgs))
	}
	if msgs[0].Body != "msg 1" {
		t.Errorf("History(before msg 2) first = %q", msgs[0].Body)
	}

	// limit respected
	msgs, err = svc.History(ctx, "t1", time.Time{}, 2)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("History(limit 2) len = %d", len(msgs))
	}

	// other teams see nothing
	msgs, err = svc.History(ctx, "t2", time.Time{}, 0)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("History(t2) len = %d, want 0", len(msgs))
	}
}
