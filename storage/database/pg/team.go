package pgdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/codesage/codesage/core/team"
	"github.com/codesage/codesage/storage/database"
)

type teamRepository struct {
	db *database.DB
}

var _ team.Repository = (*teamRepository)(nil) // interface compliance check

func NewTeamRepository(db *database.DB) team.Repository {
	return &teamRepository{db: db}
}

func (repo *teamRepository) CreateTeam(ctx context.Context, t team.Team) (team.Team, error) {
	t.ID = uuid.NewString()
	_, err := repo.db.Pool.Exec(ctx,
		`INSERT INTO teams (id, name, number, created_at) VALUES ($1, $2, $3, $4)`,
		t.ID, t.Name, t.Number, t.CreatedAt)
	if err != nil {
		return team.Team{}, errors.Wrap(err, "inserting team")
	}
	return t, nil
}

func (repo *teamRepository) GetTeamByID(ctx context.Context, id string) (team.Team, error) {
	var t team.Team
	err := repo.db.Pool.QueryRow(ctx,
		`SELECT id, name, number, created_at FROM teams WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Number, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return team.Team{}, team.ErrNotFound
		}
		return team.Team{}, errors.Wrap(err, "scanning team")
	}
	return t, nil
}

func (repo *teamRepository) QueryAllTeams(ctx context.Context) ([]team.Team, error) {
	rows, err := repo.db.Pool.Query(ctx,
		`SELECT id, name, number, created_at FROM teams ORDER BY number`)
	if err != nil {
		return nil, errors.Wrap(err, "querying teams")
	}
	defer rows.Close()

	var teams []team.Team
	for rows.Next() {
		var t team.Team
		if err = rows.Scan(&t.ID, &t.Name, &t.Number, &t.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning team row")
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (repo *teamRepository) AppendEntry(ctx context.Context, e team.Entry) (team.Entry, error) {
	e.ID = uuid.NewString()
	_, err := repo.db.Pool.Exec(ctx,
		`INSERT INTO activity_entries (id, team_id, type, user_id, user_name, lesson_title, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.TeamID, e.Type, nullable(e.UserID), e.UserName, e.LessonTitle, e.Message, e.CreatedAt)
	if err != nil {
		return team.Entry{}, errors.Wrap(err, "inserting activity entry")
	}
	return e, nil
}

func (repo *teamRepository) RecentEntries(ctx context.Context, teamID string, limit int) ([]team.Entry, error) {
	rows, err := repo.db.Pool.Query(ctx,
		`SELECT id, team_id, type, COALESCE(user_id, ''), user_name, lesson_title, message, created_at
		 FROM activity_entries WHERE team_id = $1 ORDER BY created_at DESC LIMIT $2`,
		teamID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying activity entries")
	}
	defer rows.Close()

	var entries []team.Entry
	for rows.Next() {
		var e team.Entry
		if err = rows.Scan(&e.ID, &e.TeamID, &e.Type, &e.UserID, &e.UserName, &e.LessonTitle, &e.Message, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning activity row")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
