package pgdb

import (
	"context"

	"github.com/pkg/errors"

	"github.com/codesage/codesage/core/progress"
	"github.com/codesage/codesage/storage/database"
)

type progressRepository struct {
	db *database.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *database.DB) progress.Repository {
	return &progressRepository{db: db}
}

func (repo *progressRepository) GetProgress(ctx context.Context, userID, tier string) (map[string]float64, error) {
	rows, err := repo.db.Pool.Query(ctx,
		`SELECT lesson_id, score FROM progress WHERE user_id = $1 AND tier = $2`,
		userID, tier)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var (
			lessonID string
			score    float64
		)
		if err = rows.Scan(&lessonID, &score); err != nil {
			return nil, errors.Wrap(err, "scanning progress row")
		}
		scores[lessonID] = score
	}
	return scores, rows.Err()
}

func (repo *progressRepository) SetProgress(ctx context.Context, rec progress.Record) error {
	// last write wins
	_, err := repo.db.Pool.Exec(ctx,
		`INSERT INTO progress (user_id, tier, lesson_id, score, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, tier, lesson_id)
		 DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`,
		rec.UserID, rec.Tier, rec.LessonID, rec.Score, rec.UpdatedAt)
	return errors.Wrap(err, "upserting progress")
}

func (repo *progressRepository) ResetProgress(ctx context.Context, userID, tier string, lessonIDs []string) error {
	var err error
	if len(lessonIDs) == 0 {
		_, err = repo.db.Pool.Exec(ctx,
			`DELETE FROM progress WHERE user_id = $1 AND tier = $2`, userID, tier)
	} else {
		_, err = repo.db.Pool.Exec(ctx,
			`DELETE FROM progress WHERE user_id = $1 AND tier = $2 AND lesson_id = ANY($3)`,
			userID, tier, lessonIDs)
	}
	return errors.Wrap(err, "deleting progress")
}
