package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core/homework"
)

type homeworkRepository struct {
	db *DB
}

var _ homework.Repository = (*homeworkRepository)(nil)

func NewHomeworkRepository(db *DB) *homeworkRepository {
	return &homeworkRepository{db: db}
}

// annotate fills the ownership chain and, for a student view, that student's
// submission. Callers hold db.mu.
func (repo *homeworkRepository) annotate(hw homework.Homework, studentID string) homework.Homework {
	if lec, ok := repo.db.lectures[hw.LectureID]; ok {
		hw.CurriculumID = lec.CurriculumID
		if cur, ok := repo.db.curriculums[lec.CurriculumID]; ok {
			hw.TeacherID = cur.TeacherID
		}
	}
	if studentID != "" {
		for _, sub := range repo.db.submissions {
			if sub.HomeworkID == hw.ID && sub.StudentID == studentID {
				annotated := repo.annotateSubmission(*sub)
				hw.Submission = &annotated
				break
			}
		}
	}
	return hw
}

func (repo *homeworkRepository) annotateSubmission(sub homework.Submission) homework.Submission {
	if hw, ok := repo.db.homeworks[sub.HomeworkID]; ok {
		annotated := repo.annotate(*hw, "")
		sub.CurriculumID = annotated.CurriculumID
		sub.TeacherID = annotated.TeacherID
	}
	sub.StudentName = repo.db.studentName(sub.StudentID)
	return sub
}

func (repo *homeworkRepository) CreateHomework(_ context.Context, hw homework.Homework) (homework.Homework, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	hw.ID = newID()
	repo.db.homeworks[hw.ID] = &hw
	return repo.annotate(hw, ""), nil
}

func (repo *homeworkRepository) GetHomeworkByID(_ context.Context, id, studentID string) (homework.Homework, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if hw, ok := repo.db.homeworks[id]; ok {
		return repo.annotate(*hw, studentID), nil
	}
	return homework.Homework{}, homework.ErrNotFound
}

func (repo *homeworkRepository) QueryHomeworksByLecture(_ context.Context, lectureID, studentID string) ([]homework.Homework, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	hws := make([]homework.Homework, 0)
	for _, hw := range repo.db.homeworks {
		if hw.LectureID == lectureID {
			hws = append(hws, repo.annotate(*hw, studentID))
		}
	}
	sort.Slice(hws, func(i, j int) bool {
		di, dj := hws[i].DueDate, hws[j].DueDate
		switch {
		case di.Valid && dj.Valid:
			return di.Time.Before(dj.Time)
		case di.Valid:
			return true
		case dj.Valid:
			return false
		}
		return hws[i].CreatedAt.Before(hws[j].CreatedAt)
	})
	return hws, nil
}

func (repo *homeworkRepository) UpdateHomework(_ context.Context, hw homework.Homework) (homework.Homework, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.homeworks[hw.ID]
	if !ok {
		return homework.Homework{}, homework.ErrNotFound
	}
	orig.Title = hw.Title
	orig.Description = hw.Description
	orig.Type = hw.Type
	orig.DueDate = hw.DueDate
	orig.UpdatedAt = hw.UpdatedAt
	return repo.annotate(*orig, ""), nil
}

func (repo *homeworkRepository) DeleteHomework(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.homeworks, id)
	for sid, sub := range repo.db.submissions {
		if sub.HomeworkID == id {
			delete(repo.db.submissions, sid)
		}
	}
	return nil
}

func (repo *homeworkRepository) UpsertSubmission(_ context.Context, sub homework.Submission) (homework.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.submissions {
		if existing.StudentID == sub.StudentID && existing.HomeworkID == sub.HomeworkID {
			existing.FileURL = sub.FileURL
			existing.Content = sub.Content
			existing.SubmittedAt = sub.SubmittedAt
			existing.UpdatedAt = sub.UpdatedAt
			return repo.annotateSubmission(*existing), nil
		}
	}
	sub.ID = newID()
	repo.db.submissions[sub.ID] = &sub
	return repo.annotateSubmission(sub), nil
}

func (repo *homeworkRepository) GetSubmissionByID(_ context.Context, id string) (homework.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sub, ok := repo.db.submissions[id]; ok {
		return repo.annotateSubmission(*sub), nil
	}
	return homework.Submission{}, homework.ErrSubmissionNotFound
}

func (repo *homeworkRepository) QuerySubmissionsByHomework(_ context.Context, homeworkID string) ([]homework.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subs := make([]homework.Submission, 0)
	for _, sub := range repo.db.submissions {
		if sub.HomeworkID == homeworkID {
			subs = append(subs, repo.annotateSubmission(*sub))
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *homeworkRepository) UpdateSubmissionGrade(_ context.Context, sub homework.Submission) (homework.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.submissions[sub.ID]
	if !ok {
		return homework.Submission{}, homework.ErrSubmissionNotFound
	}
	orig.Grade = sub.Grade
	orig.Feedback = sub.Feedback
	orig.UpdatedAt = sub.UpdatedAt
	return repo.annotateSubmission(*orig), nil
}
