package team

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/codesage/codesage/core"
)

// Activity entry types
const (
	ActivityLessonCompletion = "lesson_completion"
	ActivityAdminAction      = "admin_action"
	ActivityMemberJoined     = "member_joined"
)

type (
	// Team is an FTC team registered on the platform.
	Team struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Number    int       `json:"number"`     // FTC team number
		CreatedAt time.Time `json:"created_at"` // UTC
	}

	// Entry is one record of a team's append-only activity feed.
	// Entries are never mutated after creation.
	Entry struct {
		ID          string    `json:"id"`
		TeamID      string    `json:"team_id"`
		Type        string    `json:"type"`
		UserID      string    `json:"user_id,omitempty"`
		UserName    string    `json:"user_name,omitempty"`
		LessonTitle string    `json:"lesson_title,omitempty"`
		Message     string    `json:"message,omitempty"`
		CreatedAt   time.Time `json:"created_at"` // UTC
	}
)

// NewTeam contains information needed to register a new Team.
type NewTeam struct {
	Name   string `json:"name" validate:"required"`
	Number int    `json:"number" validate:"required,min=1"`
}

func (nt *NewTeam) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	return validate.Struct(nt)
}

// InitValidators registers team-specific validators. None yet; kept for
// symmetry with the other domain packages.
func InitValidators(validate *validator.Validate, translator ut.Translator) {}
