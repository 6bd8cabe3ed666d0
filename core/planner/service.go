package planner

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/codesage/codesage/core"
	"github.com/codesage/codesage/core/user"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrSnippetNotFound = errors.New("snippet not found")
)

type (
	// Repository persists kanban boards and shared snippets. Implementations
	// keep positions contiguous per column; MoveTask and DeleteTask close the
	// gap left behind and make room at the destination atomically.
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTaskByID(ctx context.Context, teamID, id string) (Task, error)
		QueryBoard(ctx context.Context, teamID string) ([]Task, error)
		UpdateTask(ctx context.Context, teamID, id string, title, details *string) (Task, error)
		MoveTask(ctx context.Context, teamID, id, column string, position int) (Task, error)
		DeleteTask(ctx context.Context, teamID, id string) error

		CreateSnippet(ctx context.Context, s Snippet) (Snippet, error)
		QuerySnippets(ctx context.Context, teamID string) ([]Snippet, error)
		DeleteSnippet(ctx context.Context, teamID, id string) error
	}

	Service struct {
		repo   Repository
		bus    core.Bus
		logger core.Logger
	}

	// Board groups a team's tasks by column, each column in position order.
	Board struct {
		Todo  []Task `json:"todo"`
		Doing []Task `json:"doing"`
		Done  []Task `json:"done"`
	}
)

func NewService(repo Repository, bus core.Bus, logger core.Logger) *Service {
	return &Service{repo: repo, bus: bus, logger: logger}
}

// notify fans a planner change out to the team's live subscribers.
// Best-effort; the persisted state is authoritative.
func (svc *Service) notify(ctx context.Context, teamID string, payload interface{}) {
	ev, err := core.NewEvent(core.EventPlanner, teamID, payload)
	if err == nil {
		err = svc.bus.Publish(ctx, ev)
	}
	if err != nil {
		svc.logger.Warn("publishing planner event: "+err.Error(), err)
	}
}

func (svc *Service) CreateTask(ctx context.Context, usr user.User, nt NewTask) (Task, error) {
	now := time.Now().UTC()
	t, err := svc.repo.CreateTask(ctx, Task{
		TeamID:    usr.TeamID,
		Title:     nt.Title,
		Details:   nt.Details,
		Column:    nt.Column,
		CreatedBy: usr.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Task{}, errors.Wrap(err, "creating task")
	}
	svc.notify(ctx, t.TeamID, t)
	return t, nil
}

func (svc *Service) Board(ctx context.Context, teamID string) (Board, error) {
	tasks, err := svc.repo.QueryBoard(ctx, teamID)
	if err != nil {
		return Board{}, errors.Wrap(err, "querying board")
	}

	b := Board{Todo: []Task{}, Doing: []Task{}, Done: []Task{}}
	for _, t := range tasks {
		switch t.Column {
		case ColumnTodo:
			b.Todo = append(b.Todo, t)
		case ColumnDoing:
			b.Doing = append(b.Doing, t)
		case ColumnDone:
			b.Done = append(b.Done, t)
		}
	}
	return b, nil
}

func (svc *Service) UpdateTask(ctx context.Context, teamID, id string, ut UpdateTask) (Task, error) {
	t, err := svc.repo.UpdateTask(ctx, teamID, id, ut.Title, ut.Details)
	if err != nil {
		return Task{}, err
	}
	svc.notify(ctx, teamID, t)
	return t, nil
}

// Move repositions a card. Positions past the end of the destination column
// clamp to the bottom.
func (svc *Service) Move(ctx context.Context, teamID, id string, mt MoveTask) (Task, error) {
	t, err := svc.repo.MoveTask(ctx, teamID, id, mt.Column, mt.Position)
	if err != nil {
		return Task{}, err
	}
	svc.notify(ctx, teamID, t)
	return t, nil
}

func (svc *Service) DeleteTask(ctx context.Context, teamID, id string) error {
	if err := svc.repo.DeleteTask(ctx, teamID, id); err != nil {
		return err
	}
	svc.notify(ctx, teamID, map[string]string{"deleted_task": id})
	return nil
}

func (svc *Service) ShareSnippet(ctx context.Context, usr user.User, ns NewSnippet) (Snippet, error) {
	s, err := svc.repo.CreateSnippet(ctx, Snippet{
		TeamID:    usr.TeamID,
		Title:     ns.Title,
		Language:  ns.Language,
		Code:      ns.Code,
		CreatedBy: usr.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Snippet{}, errors.Wrap(err, "creating snippet")
	}
	svc.notify(ctx, s.TeamID, s)
	return s, nil
}

func (svc *Service) Snippets(ctx context.Context, teamID string) ([]Snippet, error) {
	return svc.repo.QuerySnippets(ctx, teamID)
}

func (svc *Service) DeleteSnippet(ctx context.Context, teamID, id string) error {
	if err := svc.repo.DeleteSnippet(ctx, teamID, id); err != nil {
		return err
	}
	svc.notify(ctx, teamID, map[string]string{"deleted_snippet": id})
	return nil
}
