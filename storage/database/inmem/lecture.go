package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core/lecture"
)

type lectureRepository struct {
	db *DB
}

var _ lecture.Repository = (*lectureRepository)(nil)

func NewLectureRepository(db *DB) *lectureRepository {
	return &lectureRepository{db: db}
}

// deleteLectureLocked cascades a lecture delete to its attachments, read
// marks, homeworks and submissions. Callers hold db.mu.
func (db *DB) deleteLectureLocked(id string) {
	delete(db.lectures, id)
	for aid, att := range db.attachments {
		if att.LectureID == id {
			delete(db.attachments, aid)
		}
	}
	for rid, rl := range db.reads {
		if rl.LectureID == id {
			delete(db.reads, rid)
		}
	}
	for hid, hw := range db.homeworks {
		if hw.LectureID == id {
			delete(db.homeworks, hid)
			for sid, sub := range db.submissions {
				if sub.HomeworkID == hid {
					delete(db.submissions, sid)
				}
			}
		}
	}
}

// annotate fills the ownership chain and, for a student view, the read flag
// and curriculum title. Callers hold db.mu.
func (repo *lectureRepository) annotate(lec lecture.Lecture, studentID string) lecture.Lecture {
	if cur, ok := repo.db.curriculums[lec.CurriculumID]; ok {
		lec.TeacherID = cur.TeacherID
		lec.CurriculumTitle = cur.Title
	}
	if studentID != "" {
		isRead := false
		for _, rl := range repo.db.reads {
			if rl.LectureID == lec.ID && rl.StudentID == studentID {
				isRead = true
				break
			}
		}
		lec.IsRead = &isRead
	}
	return lec
}

func (repo *lectureRepository) CreateLecture(_ context.Context, lec lecture.Lecture) (lecture.Lecture, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	lec.ID = newID()
	repo.db.lectures[lec.ID] = &lec
	return repo.annotate(lec, ""), nil
}

func (repo *lectureRepository) GetLectureByID(_ context.Context, id string) (lecture.Lecture, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if lec, ok := repo.db.lectures[id]; ok {
		return repo.annotate(*lec, ""), nil
	}
	return lecture.Lecture{}, lecture.ErrNotFound
}

func (repo *lectureRepository) QueryLectures(_ context.Context, filter lecture.Filter, studentID string) ([]lecture.Lecture, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	lecs := make([]lecture.Lecture, 0)
	for _, lec := range repo.db.lectures {
		if lec.CurriculumID != filter.CurriculumID {
			continue
		}
		if filter.WeekNumber != nil && lec.WeekNumber != *filter.WeekNumber {
			continue
		}
		lecs = append(lecs, repo.annotate(*lec, studentID))
	}
	sortLectures(lecs)
	return lecs, nil
}

func (repo *lectureRepository) QueryWeekLectures(_ context.Context, studentID string, week int) ([]lecture.Lecture, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	enrolled := make(map[string]bool)
	for _, enr := range repo.db.enrollments {
		if enr.StudentID == studentID {
			enrolled[enr.CurriculumID] = true
		}
	}

	lecs := make([]lecture.Lecture, 0)
	for _, lec := range repo.db.lectures {
		if enrolled[lec.CurriculumID] && lec.WeekNumber == week {
			lecs = append(lecs, repo.annotate(*lec, studentID))
		}
	}
	sortLectures(lecs)
	return lecs, nil
}

func (repo *lectureRepository) CreateAttachment(_ context.Context, att lecture.Attachment) (lecture.Attachment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	att.ID = newID()
	repo.db.attachments[att.ID] = &att
	return att, nil
}

func (repo *lectureRepository) GetAttachmentByID(_ context.Context, id string) (lecture.Attachment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	att, ok := repo.db.attachments[id]
	if !ok {
		return lecture.Attachment{}, lecture.ErrAttachmentNotFound
	}
	res := *att
	if lec, ok := repo.db.lectures[att.LectureID]; ok {
		res.CurriculumID = lec.CurriculumID
		if cur, ok := repo.db.curriculums[lec.CurriculumID]; ok {
			res.TeacherID = cur.TeacherID
		}
	}
	return res, nil
}

func (repo *lectureRepository) DeleteAttachment(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.attachments, id)
	return nil
}

func (repo *lectureRepository) MarkLectureRead(_ context.Context, rl lecture.ReadLecture) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// duplicate marks are a no-op
	for _, existing := range repo.db.reads {
		if existing.StudentID == rl.StudentID && existing.LectureID == rl.LectureID {
			return nil
		}
	}
	rl.ID = newID()
	repo.db.reads[rl.ID] = &rl
	return nil
}

func sortLectures(lecs []lecture.Lecture) {
	sort.Slice(lecs, func(i, j int) bool {
		if lecs[i].WeekNumber != lecs[j].WeekNumber {
			return lecs[i].WeekNumber < lecs[j].WeekNumber
		}
		return lecs[i].CreatedAt.Before(lecs[j].CreatedAt)
	})
}
