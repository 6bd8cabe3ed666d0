package team

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/codesage/codesage/core"
)

var ErrNotFound = errors.New("team not found")

type (
	Repository interface {
		CreateTeam(ctx context.Context, t Team) (Team, error)
		GetTeamByID(ctx context.Context, id string) (Team, error)
		QueryAllTeams(ctx context.Context) ([]Team, error)
		// AppendEntry appends to the activity feed. Entries are append-only;
		// there is no update or delete.
		AppendEntry(ctx context.Context, e Entry) (Entry, error)
		RecentEntries(ctx context.Context, teamID string, limit int) ([]Entry, error)
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

func (svc *Service) Create(ctx context.Context, nt NewTeam) (Team, error) {
	return svc.repo.CreateTeam(ctx, Team{
		Name:      nt.Name,
		Number:    nt.Number,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Team, error) {
	return svc.repo.GetTeamByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Team, error) {
	return svc.repo.QueryAllTeams(ctx)
}

// Append adds an entry to the team's activity feed and notifies live
// subscribers. The bus publish is best-effort.
func (svc *Service) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e, err := svc.repo.AppendEntry(ctx, e)
	if err != nil {
		return Entry{}, errors.Wrap(err, "appending activity entry")
	}

	if ev, err := core.NewEvent(core.EventActivity, e.TeamID, e); err == nil {
		if err = svc.bus.Publish(ctx, ev); err != nil {
			svc.logger.Warn("publishing activity event: "+err.Error(), err)
		}
	}
	return e, nil
}

// RecordLessonCompletion implements progress.ActivityRecorder.
func (svc *Service) RecordLessonCompletion(ctx context.Context, teamID, userID, userName, lessonTitle string) error {
	_, err := svc.Append(ctx, Entry{
		TeamID:      teamID,
		Type:        ActivityLessonCompletion,
		UserID:      userID,
		UserName:    userName,
		LessonTitle: lessonTitle,
	})
	return err
}

// Recent returns the latest feed entries, newest first.
func (svc *Service) Recent(ctx context.Context, teamID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return svc.repo.RecentEntries(ctx, teamID, limit)
}
