// Package dummydb provides mutex-guarded in-memory repositories used in
// tests and for local development without a running database.
package dummydb

import (
	"strconv"
	"sync"

	"github.com/elimu-project/elimu/core/activity"
	"github.com/elimu-project/elimu/core/analytics"
	"github.com/elimu-project/elimu/core/content"
	"github.com/elimu-project/elimu/core/course"
	"github.com/elimu-project/elimu/core/user"
)

type (
	DB struct {
		user      *userTable
		content   *contentTable
		course    *courseTable
		activity  *activityTable
		analytics *analyticsTables
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	contentTable struct {
		sync.RWMutex
		table map[string]*content.Content
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	// activities keep arrival order; the replay loop depends on it.
	activityTable struct {
		sync.RWMutex
		rows []*activity.OfflineActivity
	}

	analyticsTables struct {
		sync.RWMutex
		attendance  []*analytics.UserAttendance
		outcomes    []*analytics.LearningOutcome
		engagements []*analytics.ContentEngagement
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:      &userTable{table: make(map[string]*user.User)},
		content:   &contentTable{table: make(map[string]*content.Content)},
		course:    &courseTable{table: make(map[string]*course.Course)},
		activity:  &activityTable{},
		analytics: &analyticsTables{},
	}
	return db, nil
}

var (
	pkMutex sync.Mutex
	pkCount int
)

func nextID() string {
	pkMutex.Lock()
	defer pkMutex.Unlock()
	pkCount++
	return strconv.Itoa(pkCount)
}
