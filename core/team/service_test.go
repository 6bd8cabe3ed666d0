package team_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/codesage/codesage/core"
	"github.com/codesage/codesage/core/team"
	"github.com/codesage/codesage/storage/bus"
	dummydb "github.com/codesage/codesage/storage/database/dummy"
	testutil "github.com/codesage/codesage/tests"
)

func setup(t *testing.T) (*team.Service, *bus.MemoryBus) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	b := bus.NewMemoryBus()
	return team.NewService(dummydb.NewTeamRepository(db), b, testutil.NopLogger{}), b
}

func TestService_CreateAndQuery(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tm, err := svc.Create(ctx, team.NewTeam{Name: "RoboEagles", Number: 12345})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if tm.ID == "" || tm.CreatedAt.IsZero() {
		t.Errorf("Create() = %+v, missing id or timestamp", tm)
	}

	got, err := svc.GetByID(ctx, tm.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if got.Name != "RoboEagles" || got.Number != 12345 {
		t.Errorf("GetByID() = %+v", got)
	}

	if _, err = svc.GetByID(ctx, "missing"); err != team.ErrNotFound {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}

	// QueryAll orders by team number
	if _, err = svc.Create(ctx, team.NewTeam{Name: "GearHeads", Number: 99}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	teams, err := svc.QueryAll(ctx)
	if err != nil {
		t.Fatalf("QueryAll() failed: %v", err)
	}
	if len(teams) != 2 || teams[0].Number != 99 {
		t.Errorf("QueryAll() = %+v", teams)
	}
}

func TestService_ActivityFeed(t *testing.T) {
	svc, b := setup(t)
	ctx := context.Background()

	tm, err := svc.Create(ctx, team.NewTeam{Name: "RoboEagles", Number: 12345})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	sub, err := b.Subscribe(ctx, tm.ID)
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	defer sub.Close()

	if err = svc.RecordLessonCompletion(ctx, tm.ID, "u1", "Awa", "Variables"); err != nil {
		t.Fatalf("RecordLessonCompletion() failed: %v", err)
	}

	entries, err := svc.Recent(ctx, tm.ID, 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Recent() len = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Type != team.ActivityLessonCompletion || e.UserName != "Awa" || e.LessonTitle != "Variables" {
		t.Errorf("entry = %+v", e)
	}

	// the append was fanned out on the bus
	select {
	case ev := <-sub.C():
		if ev.Kind != core.EventActivity || ev.Topic != tm.ID {
			t.Errorf("event = %+v", ev)
		}
		var got team.Entry
		if err = json.Unmarshal(ev.Payload, &got); err != nil {
			t.Fatalf("unmarshalling payload: %v", err)
		}
		if got.LessonTitle != "Variables" {
			t.Errorf("payload = %+v", got)
		}
	default:
		t.Error("no activity event published")
	}
}

func TestService_Recent_limits(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tm, err := svc.Create(ctx, team.NewTeam{Name: "RoboEagles", Number: 12345})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	for i := 0; i < 60; i++ {
		_, err = svc.Append(ctx, team.Entry{
			TeamID:  tm.ID,
			Type:    team.ActivityAdminAction,
			Message: fmt.Sprintf("action %d", i),
		})
		if err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero limit falls back to the default", limit: 0, want: 50},
		{name: "negative limit falls back to the default", limit: -3, want: 50},
		{name: "oversized limit falls back to the default", limit: 500, want: 50},
		{name: "in-range limit respected", limit: 10, want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := svc.Recent(ctx, tm.ID, tt.limit)
			if err != nil {
				t.Fatalf("Recent() failed: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("Recent() len = %d, want %d", len(entries), tt.want)
			}
		})
	}
}
