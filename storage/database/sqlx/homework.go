package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/homework"
)

type homeworkRepository struct {
	db *sqlx.DB
}

var _ homework.Repository = (*homeworkRepository)(nil)

func NewHomeworkRepository(db *sqlx.DB) *homeworkRepository {
	return &homeworkRepository{db: db}
}

const homeworkQuery = `
SELECT h.id, h.title, h.description, h.type, h.due_date, h.lecture_id, h.created_at, h.updated_at,
       l.curriculum_id, c.teacher_id
FROM homework h
         INNER JOIN lecture l ON l.id = h.lecture_id
         INNER JOIN curriculum c ON c.id = l.curriculum_id`

func (repo *homeworkRepository) CreateHomework(ctx context.Context, hw homework.Homework) (homework.Homework, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO homework (title, description, type, due_date, lecture_id, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING id`,
		hw.Title, hw.Description, hw.Type, hw.DueDate, hw.LectureID, hw.CreatedAt, hw.UpdatedAt,
	).Scan(&hw.ID)
	if err != nil {
		return homework.Homework{}, errors.Wrap(err, "creating homework")
	}
	return hw, nil
}

func (repo *homeworkRepository) GetHomeworkByID(ctx context.Context, id, studentID string) (homework.Homework, error) {
	var hw homework.Homework
	if err := repo.db.GetContext(ctx, &hw, homeworkQuery+` WHERE h.id = $1`, id); err != nil {
		return homework.Homework{}, notFoundOr(err, homework.ErrNotFound)
	}
	if studentID != "" {
		sub, err := repo.getStudentSubmission(ctx, hw.ID, studentID)
		if err != nil {
			return homework.Homework{}, err
		}
		hw.Submission = sub
	}
	return hw, nil
}

func (repo *homeworkRepository) QueryHomeworksByLecture(ctx context.Context, lectureID, studentID string) ([]homework.Homework, error) {
	hws := make([]homework.Homework, 0)
	q := homeworkQuery + ` WHERE h.lecture_id = $1 ORDER BY h.due_date NULLS LAST, h.created_at`
	if err := repo.db.SelectContext(ctx, &hws, q, lectureID); err != nil {
		return nil, errors.Wrap(err, "querying homeworks")
	}
	if studentID != "" {
		for i := range hws {
			sub, err := repo.getStudentSubmission(ctx, hws[i].ID, studentID)
			if err != nil {
				return nil, err
			}
			hws[i].Submission = sub
		}
	}
	return hws, nil
}

func (repo *homeworkRepository) UpdateHomework(ctx context.Context, hw homework.Homework) (homework.Homework, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE homework SET title = $1, description = $2, type = $3, due_date = $4, updated_at = $5 WHERE id = $6`,
		hw.Title, hw.Description, hw.Type, hw.DueDate, hw.UpdatedAt, hw.ID,
	)
	if err != nil {
		return homework.Homework{}, errors.Wrap(err, "updating homework")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return homework.Homework{}, homework.ErrNotFound
	}
	return hw, nil
}

func (repo *homeworkRepository) DeleteHomework(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM homework WHERE id = $1`, id)
	return errors.Wrap(err, "deleting homework")
}

const submissionQuery = `
SELECT hs.id, hs.file_url, hs.content, hs.grade, hs.feedback, hs.homework_id, hs.student_id,
       hs.submitted_at, hs.updated_at,
       l.curriculum_id, c.teacher_id, u.name AS student_name
FROM homework_submission hs
         INNER JOIN homework h ON h.id = hs.homework_id
         INNER JOIN lecture l ON l.id = h.lecture_id
         INNER JOIN curriculum c ON c.id = l.curriculum_id
         INNER JOIN student s ON s.id = hs.student_id
         INNER JOIN user_account u ON u.id = s.user_id`

func (repo *homeworkRepository) getStudentSubmission(ctx context.Context, homeworkID, studentID string) (*homework.Submission, error) {
	var sub homework.Submission
	err := repo.db.GetContext(ctx, &sub, submissionQuery+` WHERE hs.homework_id = $1 AND hs.student_id = $2`, homeworkID, studentID)
	if errors.Cause(err) == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting student submission")
	}
	return &sub, nil
}

// UpsertSubmission relies on the unique (student, homework) pair: a resubmit
// overwrites the file, content and submission time in place.
func (repo *homeworkRepository) UpsertSubmission(ctx context.Context, sub homework.Submission) (homework.Submission, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO homework_submission (file_url, content, homework_id, student_id, submitted_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6)
         ON CONFLICT (student_id, homework_id) DO UPDATE
             SET file_url     = EXCLUDED.file_url,
                 content      = EXCLUDED.content,
                 submitted_at = EXCLUDED.submitted_at,
                 updated_at   = EXCLUDED.updated_at
         RETURNING id, grade, feedback`,
		sub.FileURL, sub.Content, sub.HomeworkID, sub.StudentID, sub.SubmittedAt, sub.UpdatedAt,
	).Scan(&sub.ID, &sub.Grade, &sub.Feedback)
	if err != nil {
		return homework.Submission{}, errors.Wrap(err, "upserting submission")
	}
	return sub, nil
}

func (repo *homeworkRepository) GetSubmissionByID(ctx context.Context, id string) (homework.Submission, error) {
	var sub homework.Submission
	if err := repo.db.GetContext(ctx, &sub, submissionQuery+` WHERE hs.id = $1`, id); err != nil {
		return homework.Submission{}, notFoundOr(err, homework.ErrSubmissionNotFound)
	}
	return sub, nil
}

func (repo *homeworkRepository) QuerySubmissionsByHomework(ctx context.Context, homeworkID string) ([]homework.Submission, error) {
	subs := make([]homework.Submission, 0)
	q := submissionQuery + ` WHERE hs.homework_id = $1 ORDER BY hs.submitted_at DESC`
	if err := repo.db.SelectContext(ctx, &subs, q, homeworkID); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return subs, nil
}

func (repo *homeworkRepository) UpdateSubmissionGrade(ctx context.Context, sub homework.Submission) (homework.Submission, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE homework_submission SET grade = $1, feedback = $2, updated_at = $3 WHERE id = $4`,
		sub.Grade, sub.Feedback, sub.UpdatedAt, sub.ID,
	)
	if err != nil {
		return homework.Submission{}, errors.Wrap(err, "grading submission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return homework.Submission{}, homework.ErrSubmissionNotFound
	}
	return sub, nil
}
