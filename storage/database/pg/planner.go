package pgdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/codesage/codesage/core/planner"
	"github.com/codesage/codesage/storage/database"
)

const taskColumns = `id, team_id, title, details, "column", position, created_by, created_at, updated_at`

type plannerRepository struct {
	db *database.DB
}

var _ planner.Repository = (*plannerRepository)(nil) // interface compliance check

func NewPlannerRepository(db *database.DB) planner.Repository {
	return &plannerRepository{db: db}
}

func scanTask(row pgx.Row) (planner.Task, error) {
	var t planner.Task
	err := row.Scan(&t.ID, &t.TeamID, &t.Title, &t.Details, &t.Column, &t.Position,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return planner.Task{}, planner.ErrTaskNotFound
		}
		return planner.Task{}, errors.Wrap(err, "scanning task")
	}
	return t, nil
}

func (repo *plannerRepository) CreateTask(ctx context.Context, t planner.Task) (planner.Task, error) {
	t.ID = uuid.NewString()
	// new cards land at the bottom of their column
	row := repo.db.Pool.QueryRow(ctx,
		`INSERT INTO planner_tasks (id, team_id, title, details, "column", position, created_by, created_at, updated_at)
		 SELECT $1, $2, $3, $4, $5,
			COALESCE(MAX(position) + 1, 0), $6, $7, $8
		 FROM planner_tasks WHERE team_id = $2 AND "column" = $5
		 RETURNING `+taskColumns,
		t.ID, t.TeamID, t.Title, t.Details, t.Column, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return scanTask(row)
}

func (repo *plannerRepository) GetTaskByID(ctx context.Context, teamID, id string) (planner.Task, error) {
	row := repo.db.Pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM planner_tasks WHERE team_id = $1 AND id = $2`, teamID, id)
	return scanTask(row)
}

func (repo *plannerRepository) QueryBoard(ctx context.Context, teamID string) ([]planner.Task, error) {
	rows, err := repo.db.Pool.Query(ctx,
		`SELECT `+taskColumns+` FROM planner_tasks WHERE team_id = $1 ORDER BY "column", position`,
		teamID)
	if err != nil {
		return nil, errors.Wrap(err, "querying board")
	}
	defer rows.Close()

	var tasks []planner.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (repo *plannerRepository) UpdateTask(ctx context.Context, teamID, id string, title, details *string) (planner.Task, error) {
	row := repo.db.Pool.QueryRow(ctx,
		`UPDATE planner_tasks
		 SET title = COALESCE($3, title), details = COALESCE($4, details), updated_at = $5
		 WHERE team_id = $1 AND id = $2
		 RETURNING `+taskColumns,
		teamID, id, title, details, time.Now().UTC())
	return scanTask(row)
}

// MoveTask closes the gap in the source column and makes room at the
// destination in one transaction, keeping positions contiguous.
func (repo *plannerRepository) MoveTask(ctx context.Context, teamID, id, column string, position int) (planner.Task, error) {
	tx, err := repo.db.Pool.Begin(ctx)
	if err != nil {
		return planner.Task{}, errors.Wrap(err, "beginning move")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanTask(tx.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM planner_tasks WHERE team_id = $1 AND id = $2 FOR UPDATE`,
		teamID, id))
	if err != nil {
		return planner.Task{}, err
	}

	// clamp to the bottom of the destination column
	var count int
	if err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM planner_tasks WHERE team_id = $1 AND "column" = $2 AND id <> $3`,
		teamID, column, id).Scan(&count); err != nil {
		return planner.Task{}, errors.Wrap(err, "counting destination column")
	}
	if position > count {
		position = count
	}

	if _, err = tx.Exec(ctx,
		`UPDATE planner_tasks SET position = position - 1
		 WHERE team_id = $1 AND "column" = $2 AND position > $3`,
		teamID, cur.Column, cur.Position); err != nil {
		return planner.Task{}, errors.Wrap(err, "closing source gap")
	}
	if _, err = tx.Exec(ctx,
		`UPDATE planner_tasks SET position = position + 1
		 WHERE team_id = $1 AND "column" = $2 AND position >= $3 AND id <> $4`,
		teamID, column, position, id); err != nil {
		return planner.Task{}, errors.Wrap(err, "making destination room")
	}

	moved, err := scanTask(tx.QueryRow(ctx,
		`UPDATE planner_tasks SET "column" = $3, position = $4, updated_at = $5
		 WHERE team_id = $1 AND id = $2
		 RETURNING `+taskColumns,
		teamID, id, column, position, time.Now().UTC()))
	if err != nil {
		return planner.Task{}, err
	}
	return moved, errors.Wrap(tx.Commit(ctx), "committing move")
}

func (repo *plannerRepository) DeleteTask(ctx context.Context, teamID, id string) error {
	tx, err := repo.db.Pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "beginning delete")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanTask(tx.QueryRow(ctx,
		`DELETE FROM planner_tasks WHERE team_id = $1 AND id = $2 RETURNING `+taskColumns,
		teamID, id))
	if err != nil {
		return err
	}
	if _, err = tx.Exec(ctx,
		`UPDATE planner_tasks SET position = position - 1
		 WHERE team_id = $1 AND "column" = $2 AND position > $3`,
		teamID, cur.Column, cur.Position); err != nil {
		return errors.Wrap(err, "closing gap")
	}
	return errors.Wrap(tx.Commit(ctx), "committing delete")
}

func (repo *plannerRepository) CreateSnippet(ctx context.Context, s planner.Snippet) (planner.Snippet, error) {
	s.ID = uuid.NewString()
	_, err := repo.db.Pool.Exec(ctx,
		`INSERT INTO snippets (id, team_id, title, language, code, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.TeamID, s.Title, s.Language, s.Code, s.CreatedBy, s.CreatedAt)
	if err != nil {
		return planner.Snippet{}, errors.Wrap(err, "inserting snippet")
	}
	return s, nil
}

func (repo *plannerRepository) QuerySnippets(ctx context.Context, teamID string) ([]planner.Snippet, error) {
	rows, err := repo.db.Pool.Query(ctx,
		`SELECT id, team_id, title, language, code, created_by, created_at
		 FROM snippets WHERE team_id = $1 ORDER BY created_at DESC`,
		teamID)
	if err != nil {
		return nil, errors.Wrap(err, "querying snippets")
	}
	defer rows.Close()

	var snippets []planner.Snippet
	for rows.Next() {
		var s planner.Snippet
		if err = rows.Scan(&s.ID, &s.TeamID, &s.Title, &s.Language, &s.Code, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning snippet row")
		}
		snippets = append(snippets, s)
	}
	return snippets, rows.Err()
}

func (repo *plannerRepository) DeleteSnippet(ctx context.Context, teamID, id string) error {
	tag, err := repo.db.Pool.Exec(ctx,
		`DELETE FROM snippets WHERE team_id = $1 AND id = $2`, teamID, id)
	if err != nil {
		return errors.Wrap(err, "deleting snippet")
	}
	if tag.RowsAffected() == 0 {
		return planner.ErrSnippetNotFound
	}
	return nil
}
