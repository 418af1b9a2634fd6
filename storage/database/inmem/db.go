package inmemdb

import (
	"sync"

	"github.com/trezcool/studyplanner/core/plan"
	"github.com/trezcool/studyplanner/core/user"
)

type (
	// DB keeps every table in memory. Data is lost when the process exits.
	DB struct {
		user *userTable
		plan *planTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User // {id: *User}
	}

	planTable struct {
		sync.RWMutex
		table map[string]plan.Plan // {userID: Plan}
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		plan: &planTable{table: make(map[string]plan.Plan)},
	}
}
