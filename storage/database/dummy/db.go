// Package dummydb provides in-memory repositories for tests and local
// development.
package dummydb

import (
	"sync"

	"github.com/codesage/codesage/core/chat"
	"github.com/codesage/codesage/core/planner"
	"github.com/codesage/codesage/core/progress"
	"github.com/codesage/codesage/core/team"
	"github.com/codesage/codesage/core/user"
)

type (
	DB struct {
		user     *userTable
		progress *progressTable
		team     *teamTable
		chat     *chatTable
		planner  *plannerTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	progressTable struct {
		sync.RWMutex
		table map[progressKey]progress.Record
	}

	progressKey struct {
		userID   string
		tier     string
		lessonID string
	}

	teamTable struct {
		sync.RWMutex
		table   map[string]*team.Team
		entries []team.Entry
	}

	chatTable struct {
		sync.RWMutex
		table []chat.Message
	}

	plannerTable struct {
		sync.RWMutex
		tasks    map[string]*planner.Task
		snippets map[string]*planner.Snippet
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		progress: &progressTable{table: make(map[progressKey]progress.Record)},
		team:     &teamTable{table: make(map[string]*team.Team)},
		chat:     &chatTable{},
		planner: &plannerTable{
			tasks:    make(map[string]*planner.Task),
			snippets: make(map[string]*planner.Snippet),
		},
	}
	return db, nil
}
