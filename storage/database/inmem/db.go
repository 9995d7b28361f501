// Package inmemdb backs the repository interfaces with in-memory maps. It
// mirrors the constraint behavior of the Postgres schema (uniqueness pairs,
// cascading deletes) so API tests exercise the same error paths.
package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/curriculum"
	"github.com/trezcool/darasa/core/homework"
	"github.com/trezcool/darasa/core/lecture"
	"github.com/trezcool/darasa/core/user"
)

type DB struct {
	mu sync.RWMutex

	users       map[string]*user.User
	curriculums map[string]*curriculum.Curriculum
	enrollments map[string]*curriculum.Enrollment
	notes       map[string]*curriculum.Note
	lectures    map[string]*lecture.Lecture
	attachments map[string]*lecture.Attachment
	reads       map[string]*lecture.ReadLecture
	homeworks   map[string]*homework.Homework
	submissions map[string]*homework.Submission
}

func Open() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		curriculums: make(map[string]*curriculum.Curriculum),
		enrollments: make(map[string]*curriculum.Enrollment),
		notes:       make(map[string]*curriculum.Note),
		lectures:    make(map[string]*lecture.Lecture),
		attachments: make(map[string]*lecture.Attachment),
		reads:       make(map[string]*lecture.ReadLecture),
		homeworks:   make(map[string]*homework.Homework),
		submissions: make(map[string]*homework.Submission),
	}
}

// Reset drops all stored rows; test helper.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.users = make(map[string]*user.User)
	db.curriculums = make(map[string]*curriculum.Curriculum)
	db.enrollments = make(map[string]*curriculum.Enrollment)
	db.notes = make(map[string]*curriculum.Note)
	db.lectures = make(map[string]*lecture.Lecture)
	db.attachments = make(map[string]*lecture.Attachment)
	db.reads = make(map[string]*lecture.ReadLecture)
	db.homeworks = make(map[string]*homework.Homework)
	db.submissions = make(map[string]*homework.Submission)
}

func newID() string { return uuid.New().String() }

// teacherName resolves a teacher profile id to its account name.
// Callers hold db.mu.
func (db *DB) teacherName(teacherID string) string {
	for _, usr := range db.users {
		if usr.Teacher != nil && usr.Teacher.ID == teacherID {
			return usr.Name
		}
	}
	return ""
}

// studentName resolves a student profile id to its account name.
// Callers hold db.mu.
func (db *DB) studentName(studentID string) string {
	for _, usr := range db.users {
		if usr.Student != nil && usr.Student.ID == studentID {
			return usr.Name
		}
	}
	return ""
}
