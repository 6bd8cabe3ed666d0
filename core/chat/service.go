package chat

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/codesage/codesage/core"
	"github.com/codesage/codesage/core/user"
)

var ErrNotFound = errors.New("message not found")

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// History returns messages of a team posted before the given time,
		// newest first, capped at limit.
		History(ctx context.Context, teamID string, before time.Time, limit int) ([]Message, error)
	}

	Service struct {
		repo   Repository
		bus    core.Bus
		logger core.Logger
	}
)

func NewService(repo Repository, bus core.Bus, logger core.Logger) *Service {
	return &Service{repo: repo, bus: bus, logger: logger}
}

// Post persists a message and fans it out to the team's live subscribers.
// Persistence is authoritative; the fan-out is best-effort.
func (svc *Service) Post(ctx context.Context, usr user.User, nm NewMessage) (Message, error) {
	msg := Message{
		TeamID:    usr.TeamID,
		UserID:    usr.ID,
		UserName:  usr.Name,
		Body:      nm.Body,
		CreatedAt: time.Now().UTC(),
	}
	msg, err := svc.repo.CreateMessage(ctx, msg)
	if err != nil {
		return Message{}, errors.Wrap(err, "creating message")
	}

	ev, err := core.NewEvent(core.EventChatMessage, msg.TeamID, msg)
	if err == nil {
		err = svc.bus.Publish(ctx, ev)
	}
	if err != nil {
		svc.logger.Warn("publishing chat message: "+err.Error(), err)
	}
	return msg, nil
}

// History pages backwards through a team's messages. A zero before time means
// "from now".
func (svc *Service) History(ctx context.Context, teamID string, before time.Time, limit int) ([]Message, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return svc.repo.History(ctx, teamID, before, limit)
}

// Subscribe opens a live event stream for a team's chat room.
func (svc *Service) Subscribe(ctx context.Context, teamID string) (core.Subscription, error) {
	return svc.bus.Subscribe(ctx, teamID)
}
