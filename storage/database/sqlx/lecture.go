package sqlxrepos

import (
	"context"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/lecture"
)

type lectureRepository struct {
	db *sqlx.DB
}

var _ lecture.Repository = (*lectureRepository)(nil)

func NewLectureRepository(db *sqlx.DB) *lectureRepository {
	return &lectureRepository{db: db}
}

const lectureQuery = `
SELECT l.id, l.title, l.content, l.week_number, l.curriculum_id, l.created_at, l.updated_at,
       c.teacher_id
FROM lecture l
         INNER JOIN curriculum c ON c.id = l.curriculum_id`

// lectureStudentQuery additionally carries read flags and curriculum titles
// for student views.
const lectureStudentQuery = `
SELECT l.id, l.title, l.content, l.week_number, l.curriculum_id, l.created_at, l.updated_at,
       c.teacher_id,
       c.title                                                       AS curriculum_title,
       EXISTS(SELECT 1
              FROM read_lecture rl
              WHERE rl.lecture_id = l.id AND rl.student_id = $1)     AS is_read
FROM lecture l
         INNER JOIN curriculum c ON c.id = l.curriculum_id`

func (repo *lectureRepository) CreateLecture(ctx context.Context, lec lecture.Lecture) (lecture.Lecture, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO lecture (title, content, week_number, curriculum_id, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id`,
		lec.Title, lec.Content, lec.WeekNumber, lec.CurriculumID, lec.CreatedAt, lec.UpdatedAt,
	).Scan(&lec.ID)
	if err != nil {
		return lecture.Lecture{}, errors.Wrap(err, "creating lecture")
	}
	return lec, nil
}

func (repo *lectureRepository) GetLectureByID(ctx context.Context, id string) (lecture.Lecture, error) {
	var lec lecture.Lecture
	if err := repo.db.GetContext(ctx, &lec, lectureQuery+` WHERE l.id = $1`, id); err != nil {
		return lecture.Lecture{}, notFoundOr(err, lecture.ErrNotFound)
	}
	return lec, nil
}

func (repo *lectureRepository) QueryLectures(ctx context.Context, filter lecture.Filter, studentID string) ([]lecture.Lecture, error) {
	lecs := make([]lecture.Lecture, 0)

	q, args := lectureQuery, []interface{}{filter.CurriculumID}
	where := ` WHERE l.curriculum_id = $1`
	if studentID != "" {
		q, args = lectureStudentQuery, []interface{}{studentID, filter.CurriculumID}
		where = ` WHERE l.curriculum_id = $2`
	}
	q += where
	if filter.WeekNumber != nil {
		args = append(args, *filter.WeekNumber)
		q += ` AND l.week_number = $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY l.week_number, l.created_at`

	if err := repo.db.SelectContext(ctx, &lecs, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying lectures")
	}
	return lecs, nil
}

func (repo *lectureRepository) QueryWeekLectures(ctx context.Context, studentID string, week int) ([]lecture.Lecture, error) {
	lecs := make([]lecture.Lecture, 0)
	q := lectureStudentQuery + `
         INNER JOIN enrollment e ON e.curriculum_id = l.curriculum_id
WHERE e.student_id = $1 AND l.week_number = $2
ORDER BY l.created_at`
	if err := repo.db.SelectContext(ctx, &lecs, q, studentID, week); err != nil {
		return nil, errors.Wrap(err, "querying week lectures")
	}
	return lecs, nil
}

const attachmentQuery = `
SELECT a.id, a.title, a.file_url, a.lecture_id, a.created_at,
       l.curriculum_id, c.teacher_id
FROM attachment a
         INNER JOIN lecture l ON l.id = a.lecture_id
         INNER JOIN curriculum c ON c.id = l.curriculum_id`

func (repo *lectureRepository) CreateAttachment(ctx context.Context, att lecture.Attachment) (lecture.Attachment, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO attachment (title, file_url, lecture_id, created_at)
         VALUES ($1, $2, $3, $4)
         RETURNING id`,
		att.Title, att.FileURL, att.LectureID, att.CreatedAt,
	).Scan(&att.ID)
	if err != nil {
		return lecture.Attachment{}, errors.Wrap(err, "creating attachment")
	}
	return att, nil
}

func (repo *lectureRepository) GetAttachmentByID(ctx context.Context, id string) (lecture.Attachment, error) {
	var att lecture.Attachment
	if err := repo.db.GetContext(ctx, &att, attachmentQuery+` WHERE a.id = $1`, id); err != nil {
		return lecture.Attachment{}, notFoundOr(err, lecture.ErrAttachmentNotFound)
	}
	return att, nil
}

func (repo *lectureRepository) DeleteAttachment(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM attachment WHERE id = $1`, id)
	return errors.Wrap(err, "deleting attachment")
}

func (repo *lectureRepository) MarkLectureRead(ctx context.Context, rl lecture.ReadLecture) error {
	// duplicate marks are a no-op, not an error
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO read_lecture (student_id, lecture_id, read_at)
         VALUES ($1, $2, $3)
         ON CONFLICT (student_id, lecture_id) DO NOTHING`,
		rl.StudentID, rl.LectureID, rl.ReadAt,
	)
	return errors.Wrap(err, "marking lecture read")
}
