package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/codesage/codesage/core/planner"
)

type plannerRepository struct {
	db *plannerTable
}

var _ planner.Repository = (*plannerRepository)(nil) // interface compliance check

func NewPlannerRepository(db *DB) planner.Repository {
	return &plannerRepository{db: db.planner}
}

// columnTasks returns the tasks of one column in position order.
// Caller holds the lock.
func (repo *plannerRepository) columnTasks(teamID, column string) []*planner.Task {
	var tasks []*planner.Task
	for _, t := range repo.db.tasks {
		if t.TeamID == teamID && t.Column == column {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Position < tasks[j].Position })
	return tasks
}

func (repo *plannerRepository) CreateTask(_ context.Context, t planner.Task) (planner.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = uuid.NewString()
	t.Position = len(repo.columnTasks(t.TeamID, t.Column))
	repo.db.tasks[t.ID] = &t
	return t, nil
}

func (repo *plannerRepository) GetTaskByID(_ context.Context, teamID, id string) (planner.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.tasks[id]; ok && t.TeamID == teamID {
		return *t, nil
	}
	return planner.Task{}, planner.ErrTaskNotFound
}

func (repo *plannerRepository) QueryBoard(_ context.Context, teamID string) ([]planner.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var tasks []planner.Task
	for _, column := range planner.Columns {
		for _, t := range repo.columnTasks(teamID, column) {
			tasks = append(tasks, *t)
		}
	}
	return tasks, nil
}

func (repo *plannerRepository) UpdateTask(_ context.Context, teamID, id string, title, details *string) (planner.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t, ok := repo.db.tasks[id]
	if !ok || t.TeamID != teamID {
		return planner.Task{}, planner.ErrTaskNotFound
	}
	if title != nil {
		t.Title = *title
	}
	if details != nil {
		t.Details = *details
	}
	t.UpdatedAt = time.Now().UTC()
	return *t, nil
}

func (repo *plannerRepository) MoveTask(_ context.Context, teamID, id, column string, position int) (planner.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t, ok := repo.db.tasks[id]
	if !ok || t.TeamID != teamID {
		return planner.Task{}, planner.ErrTaskNotFound
	}

	// close the gap in the source column
	for _, other := range repo.columnTasks(teamID, t.Column) {
		if other.ID != id && other.Position > t.Position {
			other.Position--
		}
	}

	dest := repo.columnTasks(teamID, column)
	destLen := 0
	for _, other := range dest {
		if other.ID != id {
			destLen++
		}
	}
	if position > destLen {
		position = destLen
	}
	// make room at the destination
	for _, other := range dest {
		if other.ID != id && other.Position >= position {
			other.Position++
		}
	}

	t.Column = column
	t.Position = position
	t.UpdatedAt = time.Now().UTC()
	return *t, nil
}

func (repo *plannerRepository) DeleteTask(_ context.Context, teamID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	t, ok := repo.db.tasks[id]
	if !ok || t.TeamID != teamID {
		return planner.ErrTaskNotFound
	}
	delete(repo.db.tasks, id)
	for _, other := range repo.columnTasks(teamID, t.Column) {
		if other.Position > t.Position {
			other.Position--
		}
	}
	return nil
}

func (repo *plannerRepository) CreateSnippet(_ context.Context, s planner.Snippet) (planner.Snippet, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = uuid.NewString()
	repo.db.snippets[s.ID] = &s
	return s, nil
}

func (repo *plannerRepository) QuerySnippets(_ context.Context, teamID string) ([]planner.Snippet, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var snippets []planner.Snippet
	for _, s := range repo.db.snippets {
		if s.TeamID == teamID {
			snippets = append(snippets, *s)
		}
	}
	// newest first
	sort.SliceStable(snippets, func(i, j int) bool { return snippets[i].CreatedAt.After(snippets[j].CreatedAt) })
	return snippets, nil
}

func (repo *plannerRepository) DeleteSnippet(_ context.Context, teamID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s, ok := repo.db.snippets[id]; ok && s.TeamID == teamID {
		delete(repo.db.snippets, id)
		return nil
	}
	return planner.ErrSnippetNotFound
}
