package dummydb

import (
	"context"

	"github.com/codesage/codesage/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db.progress}
}

func (repo *progressRepository) GetProgress(_ context.Context, userID, tier string) (map[string]float64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	scores := make(map[string]float64)
	for key, rec := range repo.db.table {
		if key.userID == userID && key.tier == tier {
			scores[key.lessonID] = rec.Score
		}
	}
	return scores, nil
}

func (repo *progressRepository) SetProgress(_ context.Context, rec progress.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	// last write wins
	repo.db.table[progressKey{rec.UserID, rec.Tier, rec.LessonID}] = rec
	return nil
}

func (repo *progressRepository) ResetProgress(_ context.Context, userID, tier string, lessonIDs []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if len(lessonIDs) == 0 {
		for key := range repo.db.table {
			if key.userID == userID && key.tier == tier {
				delete(repo.db.table, key)
			}
		}
		return nil
	}
	for _, id := range lessonIDs {
		delete(repo.db.table, progressKey{userID, tier, id})
	}
	return nil
}
