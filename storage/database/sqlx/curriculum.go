package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/curriculum"
)

type curriculumRepository struct {
	db *sqlx.DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil)

func NewCurriculumRepository(db *sqlx.DB) *curriculumRepository {
	return &curriculumRepository{db: db}
}

var curriculumOrderings = map[string]bool{
	"title":      true,
	"created_at": true,
	"updated_at": true,
}

const curriculumQuery = `
SELECT c.id, c.title, c.description, c.unique_code, c.teacher_id, c.created_at, c.updated_at,
       u.name                                                           AS teacher_name,
       (SELECT count(*) FROM lecture l WHERE l.curriculum_id = c.id)    AS lecture_count,
       (SELECT count(*) FROM enrollment e WHERE e.curriculum_id = c.id) AS enrollment_count
FROM curriculum c
         INNER JOIN teacher t ON t.id = c.teacher_id
         INNER JOIN user_account u ON u.id = t.user_id`

func (repo *curriculumRepository) CreateCurriculum(ctx context.Context, cur curriculum.Curriculum) (curriculum.Curriculum, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO curriculum (title, description, unique_code, teacher_id, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id`,
		cur.Title, cur.Description, cur.UniqueCode, cur.TeacherID, cur.CreatedAt, cur.UpdatedAt,
	).Scan(&cur.ID)
	if err != nil {
		return curriculum.Curriculum{}, conflictOn(err, "curriculum_unique_code", curriculum.ErrCodeExists)
	}
	return cur, nil
}

func (repo *curriculumRepository) GetCurriculumByID(ctx context.Context, id string) (curriculum.Curriculum, error) {
	var cur curriculum.Curriculum
	if err := repo.db.GetContext(ctx, &cur, curriculumQuery+` WHERE c.id = $1`, id); err != nil {
		return curriculum.Curriculum{}, notFoundOr(err, curriculum.ErrNotFound)
	}
	return cur, nil
}

func (repo *curriculumRepository) GetCurriculumByCode(ctx context.Context, code string) (curriculum.Curriculum, error) {
	var cur curriculum.Curriculum
	if err := repo.db.GetContext(ctx, &cur, curriculumQuery+` WHERE c.unique_code = $1`, code); err != nil {
		return curriculum.Curriculum{}, notFoundOr(err, curriculum.ErrNotFound)
	}
	return cur, nil
}

func (repo *curriculumRepository) QueryCurriculumsByTeacher(ctx context.Context, teacherID string, ordering []core.DBOrdering) ([]curriculum.Curriculum, error) {
	curs := make([]curriculum.Curriculum, 0)
	q := curriculumQuery + ` WHERE c.teacher_id = $1 ORDER BY ` + orderBy(ordering, curriculumOrderings, "updated_at DESC")
	if err := repo.db.SelectContext(ctx, &curs, q, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying curriculums")
	}
	return curs, nil
}

func (repo *curriculumRepository) QueryCurriculumsByStudent(ctx context.Context, studentID string) ([]curriculum.Curriculum, error) {
	curs := make([]curriculum.Curriculum, 0)
	q := curriculumQuery + `
         INNER JOIN enrollment e ON e.curriculum_id = c.id
WHERE e.student_id = $1
ORDER BY e.enrolled_at DESC`
	if err := repo.db.SelectContext(ctx, &curs, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying enrolled curriculums")
	}
	return curs, nil
}

func (repo *curriculumRepository) UpdateCurriculum(ctx context.Context, cur curriculum.Curriculum) (curriculum.Curriculum, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE curriculum SET title = $1, description = $2, updated_at = $3 WHERE id = $4`,
		cur.Title, cur.Description, cur.UpdatedAt, cur.ID,
	)
	if err != nil {
		return curriculum.Curriculum{}, errors.Wrap(err, "updating curriculum")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return curriculum.Curriculum{}, curriculum.ErrNotFound
	}
	return cur, nil
}

func (repo *curriculumRepository) DeleteCurriculum(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM curriculum WHERE id = $1`, id)
	return errors.Wrap(err, "deleting curriculum")
}

func (repo *curriculumRepository) CreateEnrollment(ctx context.Context, enr curriculum.Enrollment) (curriculum.Enrollment, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO enrollment (student_id, curriculum_id, enrolled_at)
         VALUES ($1, $2, $3)
         RETURNING id`,
		enr.StudentID, enr.CurriculumID, enr.EnrolledAt,
	).Scan(&enr.ID)
	if err != nil {
		return curriculum.Enrollment{}, conflictOn(err, "enrollment_student_id_curriculum_id", curriculum.ErrAlreadyEnrolled)
	}
	return enr, nil
}

func (repo *curriculumRepository) IsEnrolled(ctx context.Context, studentID, curriculumID string) (bool, error) {
	var enrolled bool
	err := repo.db.GetContext(ctx, &enrolled,
		`SELECT EXISTS(SELECT 1 FROM enrollment WHERE student_id = $1 AND curriculum_id = $2)`,
		studentID, curriculumID,
	)
	return enrolled, errors.Wrap(err, "checking enrollment")
}

func (repo *curriculumRepository) CreateNote(ctx context.Context, note curriculum.Note) (curriculum.Note, error) {
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO note (content, expiry_date, curriculum_id, created_at)
         VALUES ($1, $2, $3, $4)
         RETURNING id`,
		note.Content, note.ExpiryDate, note.CurriculumID, note.CreatedAt,
	).Scan(&note.ID)
	if err != nil {
		return curriculum.Note{}, errors.Wrap(err, "creating note")
	}
	return note, nil
}

func (repo *curriculumRepository) GetNoteByID(ctx context.Context, id string) (curriculum.Note, error) {
	var note curriculum.Note
	err := repo.db.GetContext(ctx, &note,
		`SELECT id, content, expiry_date, curriculum_id, created_at FROM note WHERE id = $1`, id)
	if err != nil {
		return curriculum.Note{}, notFoundOr(err, curriculum.ErrNoteNotFound)
	}
	return note, nil
}

func (repo *curriculumRepository) QueryActiveNotes(ctx context.Context, curriculumID string, now time.Time) ([]curriculum.Note, error) {
	notes := make([]curriculum.Note, 0)
	err := repo.db.SelectContext(ctx, &notes,
		`SELECT id, content, expiry_date, curriculum_id, created_at
         FROM note
         WHERE curriculum_id = $1 AND (expiry_date IS NULL OR expiry_date > $2)
         ORDER BY created_at DESC`,
		curriculumID, now,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying notes")
	}
	return notes, nil
}

func (repo *curriculumRepository) DeleteNote(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM note WHERE id = $1`, id)
	return errors.Wrap(err, "deleting note")
}
