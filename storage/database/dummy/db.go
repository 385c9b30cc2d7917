package dummydb

import (
	"sync"

	"github.com/motaylenko/meedle/core/course"
	"github.com/motaylenko/meedle/core/group"
	"github.com/motaylenko/meedle/core/schedule"
	"github.com/motaylenko/meedle/core/user"
)

type (
	DB struct {
		user     *userTable
		group    *groupTable
		course   *courseTable
		schedule *scheduleTables
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	groupTable struct {
		sync.RWMutex
		table map[string]*group.Group
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	scheduleTables struct {
		sync.RWMutex
		templates map[string]*schedule.LessonTemplate
		overrides map[string]*schedule.LessonOverride
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		group:  &groupTable{table: make(map[string]*group.Group)},
		course: &courseTable{table: make(map[string]*course.Course)},
		schedule: &scheduleTables{
			templates: make(map[string]*schedule.LessonTemplate),
			overrides: make(map[string]*schedule.LessonOverride),
		},
	}
	return db, nil
}

// Reset drops all stored records. For tests.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.group.Lock()
	db.group.table = make(map[string]*group.Group)
	db.group.Unlock()

	db.course.Lock()
	db.course.table = make(map[string]*course.Course)
	db.course.Unlock()

	db.schedule.Lock()
	db.schedule.templates = make(map[string]*schedule.LessonTemplate)
	db.schedule.overrides = make(map[string]*schedule.LessonOverride)
	db.schedule.Unlock()
}
