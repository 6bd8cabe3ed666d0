package planner

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/codesage/codesage/core"
)

// Kanban columns, in board order.
const (
	ColumnTodo  = "todo"
	ColumnDoing = "doing"
	ColumnDone  = "done"
)

// Columns lists the valid kanban columns in board order.
var Columns = []string{ColumnTodo, ColumnDoing, ColumnDone}

// ValidColumn reports whether col names a kanban column.
func ValidColumn(col string) bool {
	for _, c := range Columns {
		if c == col {
			return true
		}
	}
	return false
}

type (
	// Task is one card on a team's kanban board. Position orders cards within
	// a column, 0-based and contiguous.
	Task struct {
		ID        string    `json:"id"`
		TeamID    string    `json:"team_id"`
		Title     string    `json:"title"`
		Details   string    `json:"details,omitempty"`
		Column    string    `json:"column"`
		Position  int       `json:"position"`
		CreatedBy string    `json:"created_by"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	// Snippet is a shared code sample on a team's collaboration hub.
	Snippet struct {
		ID        string    `json:"id"`
		TeamID    string    `json:"team_id"`
		Title     string    `json:"title"`
		Language  string    `json:"language"`
		Code      string    `json:"code"`
		CreatedBy string    `json:"created_by"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}
)

type (
	// NewTask contains information needed to create a Task. New cards land at
	// the bottom of their column.
	NewTask struct {
		Title   string `json:"title" validate:"required,max=200"`
		Details string `json:"details" validate:"max=5000"`
		Column  string `json:"column" validate:"required,column"`
	}

	// UpdateTask carries optional card field changes. Column and Position
	// changes go through MoveTask instead.
	UpdateTask struct {
		Title   *string `json:"title" validate:"omitempty,max=200"`
		Details *string `json:"details" validate:"omitempty,max=5000"`
	}

	// MoveTask repositions a card, possibly across columns.
	MoveTask struct {
		Column   string `json:"column" validate:"required,column"`
		Position int    `json:"position" validate:"min=0"`
	}

	// NewSnippet contains information needed to share a Snippet.
	NewSnippet struct {
		Title    string `json:"title" validate:"required,max=200"`
		Language string `json:"language" validate:"required,max=50"`
		Code     string `json:"code" validate:"required,max=50000"`
	}
)

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Column = core.CleanString(nt.Column, true)
	return validate.Struct(nt)
}

func (ut *UpdateTask) Validate(validate *validator.Validate) error {
	if ut.Title != nil {
		*ut.Title = core.CleanString(*ut.Title)
	}
	return validate.Struct(ut)
}

func (mt *MoveTask) Validate(validate *validator.Validate) error {
	mt.Column = core.CleanString(mt.Column, true)
	return validate.Struct(mt)
}

func (ns *NewSnippet) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Language = core.CleanString(ns.Language, true)
	return validate.Struct(ns)
}

// InitValidators registers the "column" tag used by the planner payloads.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation("column", func(fl validator.FieldLevel) bool {
		return ValidColumn(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, "column", "{0} must be one of: todo, doing, done")
}
