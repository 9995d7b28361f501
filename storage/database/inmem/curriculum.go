package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/curriculum"
)

type curriculumRepository struct {
	db *DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil)

func NewCurriculumRepository(db *DB) *curriculumRepository {
	return &curriculumRepository{db: db}
}

// annotate fills the join annotations the SQL repository computes.
// Callers hold db.mu.
func (repo *curriculumRepository) annotate(cur curriculum.Curriculum) curriculum.Curriculum {
	cur.TeacherName = repo.db.teacherName(cur.TeacherID)
	cur.LectureCount = 0
	for _, lec := range repo.db.lectures {
		if lec.CurriculumID == cur.ID {
			cur.LectureCount++
		}
	}
	cur.EnrollmentCount = 0
	for _, enr := range repo.db.enrollments {
		if enr.CurriculumID == cur.ID {
			cur.EnrollmentCount++
		}
	}
	return cur
}

func (repo *curriculumRepository) CreateCurriculum(_ context.Context, cur curriculum.Curriculum) (curriculum.Curriculum, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, c := range repo.db.curriculums {
		if c.UniqueCode == cur.UniqueCode {
			return curriculum.Curriculum{}, curriculum.ErrCodeExists
		}
	}
	cur.ID = newID()
	repo.db.curriculums[cur.ID] = &cur
	return repo.annotate(cur), nil
}

func (repo *curriculumRepository) GetCurriculumByID(_ context.Context, id string) (curriculum.Curriculum, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if cur, ok := repo.db.curriculums[id]; ok {
		return repo.annotate(*cur), nil
	}
	return curriculum.Curriculum{}, curriculum.ErrNotFound
}

func (repo *curriculumRepository) GetCurriculumByCode(_ context.Context, code string) (curriculum.Curriculum, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, cur := range repo.db.curriculums {
		if cur.UniqueCode == code {
			return repo.annotate(*cur), nil
		}
	}
	return curriculum.Curriculum{}, curriculum.ErrNotFound
}

func (repo *curriculumRepository) QueryCurriculumsByTeacher(_ context.Context, teacherID string, ordering []core.DBOrdering) ([]curriculum.Curriculum, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	curs := make([]curriculum.Curriculum, 0)
	for _, cur := range repo.db.curriculums {
		if cur.TeacherID == teacherID {
			curs = append(curs, repo.annotate(*cur))
		}
	}

	less := func(i, j int) bool { return curs[i].UpdatedAt.After(curs[j].UpdatedAt) }
	if len(ordering) > 0 {
		switch ord := ordering[0]; ord.Field {
		case "title":
			less = func(i, j int) bool {
				if ord.Ascending {
					return curs[i].Title < curs[j].Title
				}
				return curs[j].Title < curs[i].Title
			}
		case "created_at":
			less = func(i, j int) bool {
				if ord.Ascending {
					return curs[i].CreatedAt.Before(curs[j].CreatedAt)
				}
				return curs[j].CreatedAt.Before(curs[i].CreatedAt)
			}
		case "updated_at":
			less = func(i, j int) bool {
				if ord.Ascending {
					return curs[i].UpdatedAt.Before(curs[j].UpdatedAt)
				}
				return curs[j].UpdatedAt.Before(curs[i].UpdatedAt)
			}
		}
	}
	sort.Slice(curs, less)
	return curs, nil
}

func (repo *curriculumRepository) QueryCurriculumsByStudent(_ context.Context, studentID string) ([]curriculum.Curriculum, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	enrs := make([]curriculum.Enrollment, 0)
	for _, enr := range repo.db.enrollments {
		if enr.StudentID == studentID {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].EnrolledAt.After(enrs[j].EnrolledAt) })

	curs := make([]curriculum.Curriculum, 0, len(enrs))
	for _, enr := range enrs {
		if cur, ok := repo.db.curriculums[enr.CurriculumID]; ok {
			curs = append(curs, repo.annotate(*cur))
		}
	}
	return curs, nil
}

func (repo *curriculumRepository) UpdateCurriculum(_ context.Context, cur curriculum.Curriculum) (curriculum.Curriculum, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.curriculums[cur.ID]
	if !ok {
		return curriculum.Curriculum{}, curriculum.ErrNotFound
	}
	orig.Title = cur.Title
	orig.Description = cur.Description
	orig.UpdatedAt = cur.UpdatedAt
	return repo.annotate(*orig), nil
}

func (repo *curriculumRepository) DeleteCurriculum(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.curriculums, id)

	// cascade like the schema does
	for eid, enr := range repo.db.enrollments {
		if enr.CurriculumID == id {
			delete(repo.db.enrollments, eid)
		}
	}
	for nid, note := range repo.db.notes {
		if note.CurriculumID == id {
			delete(repo.db.notes, nid)
		}
	}
	for lid, lec := range repo.db.lectures {
		if lec.CurriculumID == id {
			repo.db.deleteLectureLocked(lid)
		}
	}
	return nil
}

func (repo *curriculumRepository) CreateEnrollment(_ context.Context, enr curriculum.Enrollment) (curriculum.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, e := range repo.db.enrollments {
		if e.StudentID == enr.StudentID && e.CurriculumID == enr.CurriculumID {
			return curriculum.Enrollment{}, curriculum.ErrAlreadyEnrolled
		}
	}
	enr.ID = newID()
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *curriculumRepository) IsEnrolled(_ context.Context, studentID, curriculumID string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, enr := range repo.db.enrollments {
		if enr.StudentID == studentID && enr.CurriculumID == curriculumID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *curriculumRepository) CreateNote(_ context.Context, note curriculum.Note) (curriculum.Note, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	note.ID = newID()
	repo.db.notes[note.ID] = &note
	return note, nil
}

func (repo *curriculumRepository) GetNoteByID(_ context.Context, id string) (curriculum.Note, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if note, ok := repo.db.notes[id]; ok {
		return *note, nil
	}
	return curriculum.Note{}, curriculum.ErrNoteNotFound
}

func (repo *curriculumRepository) QueryActiveNotes(_ context.Context, curriculumID string, now time.Time) ([]curriculum.Note, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	notes := make([]curriculum.Note, 0)
	for _, note := range repo.db.notes {
		if note.CurriculumID == curriculumID && note.Active(now) {
			notes = append(notes, *note)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return notes, nil
}

func (repo *curriculumRepository) DeleteNote(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.notes, id)
	return nil
}
