package chat

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/codesage/codesage/core"
)

// MaxBodyLen caps chat message bodies.
const MaxBodyLen = 2000

// Message is one team chat message. Messages are immutable once posted.
type Message struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewMessage contains information needed to post a Message.
type NewMessage struct {
	Body string `json:"body" validate:"required,max=2000"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Body = core.CleanString(nm.Body)
	return validate.Struct(nm)
}
