package pgdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/codesage/codesage/core/chat"
	"github.com/codesage/codesage/storage/database"
)

type chatRepository struct {
	db *database.DB
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(db *database.DB) chat.Repository {
	return &chatRepository{db: db}
}

func (repo *chatRepository) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	msg.ID = uuid.NewString()
	_, err := repo.db.Pool.Exec(ctx,
		`INSERT INTO chat_messages (id, team_id, user_id, user_name, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.TeamID, msg.UserID, msg.UserName, msg.Body, msg.CreatedAt)
	if err != nil {
		return chat.Message{}, errors.Wrap(err, "inserting chat message")
	}
	return msg, nil
}

func (repo *chatRepository) History(ctx context.Context, teamID string, before time.Time, limit int) ([]chat.Message, error) {
	rows, err := repo.db.Pool.Query(ctx,
		`SELECT id, team_id, user_id, user_name, body, created_at
		 FROM chat_messages WHERE team_id = $1 AND created_at < $2
		 ORDER BY created_at DESC LIMIT $3`,
		teamID, before, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying chat history")
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err = rows.Scan(&msg.ID, &msg.TeamID, &msg.UserID, &msg.UserName, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning chat row")
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
