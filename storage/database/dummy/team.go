package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/codesage/codesage/core/team"
)

type teamRepository struct {
	db *teamTable
}

var _ team.Repository = (*teamRepository)(nil) // interface compliance check

func NewTeamRepository(db *DB) team.Repository {
	return &teamRepository{db: db.team}
}

func (repo *teamRepository) CreateTeam(_ context.Context, t team.Team) (team.Team, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = uuid.NewString()
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *teamRepository) GetTeamByID(_ context.Context, id string) (team.Team, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return team.Team{}, team.ErrNotFound
}

func (repo *teamRepository) QueryAllTeams(_ context.Context) ([]team.Team, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	teams := make([]team.Team, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		teams = append(teams, *t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Number < teams[j].Number })
	return teams, nil
}

func (repo *teamRepository) AppendEntry(_ context.Context, e team.Entry) (team.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e.ID = uuid.NewString()
	repo.db.entries = append(repo.db.entries, e)
	return e, nil
}

func (repo *teamRepository) RecentEntries(_ context.Context, teamID string, limit int) ([]team.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var entries []team.Entry
	for _, e := range repo.db.entries {
		if e.TeamID == teamID {
			entries = append(entries, e)
		}
	}
	// newest first
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
