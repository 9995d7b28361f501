package curriculum

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

type (
	Curriculum struct {
		ID          string      `json:"id" db:"id"`
		Title       string      `json:"title" db:"title"`
		Description null.String `json:"description" db:"description"`
		UniqueCode  string      `json:"unique_code" db:"unique_code"`
		TeacherID   string      `json:"teacher_id" db:"teacher_id"`
		CreatedAt   time.Time   `json:"created_at" db:"created_at"` // UTC
		UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"` // UTC

		// list/detail annotations, populated by repository joins
		TeacherName     string `json:"teacher_name,omitempty" db:"teacher_name"`
		LectureCount    int    `json:"lecture_count" db:"lecture_count"`
		EnrollmentCount int    `json:"enrollment_count" db:"enrollment_count"`
	}

	Enrollment struct {
		ID           string    `json:"id" db:"id"`
		StudentID    string    `json:"student_id" db:"student_id"`
		CurriculumID string    `json:"curriculum_id" db:"curriculum_id"`
		EnrolledAt   time.Time `json:"enrolled_at" db:"enrolled_at"` // UTC
	}

	Note struct {
		ID           string    `json:"id" db:"id"`
		Content      string    `json:"content" db:"content"`
		ExpiryDate   null.Time `json:"expiry_date" db:"expiry_date"`
		CurriculumID string    `json:"curriculum_id" db:"curriculum_id"`
		CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	}
)

// Active reports whether the note should still be surfaced at time t.
func (n Note) Active(t time.Time) bool {
	return !n.ExpiryDate.Valid || n.ExpiryDate.Time.After(t)
}

// NewCurriculum contains information needed to create a new Curriculum.
type NewCurriculum struct {
	Title       string      `json:"title" validate:"required"`
	Description null.String `json:"description"`
}

func (nc *NewCurriculum) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	return validate.Struct(nc)
}

// UpdateCurriculum defines a partial update: nil pointers leave the field
// unchanged, an explicit JSON null clears the description.
type UpdateCurriculum struct {
	Title       *string      `json:"title"`
	Description *null.String `json:"description"`
}

func (uc *UpdateCurriculum) Validate(validate *validator.Validate) error {
	if uc.Title != nil {
		title := core.CleanString(*uc.Title)
		if title == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field is required"})
		}
		uc.Title = &title
	}
	return validate.Struct(uc)
}

// Apply folds the update into cur.
func (uc UpdateCurriculum) Apply(cur Curriculum) Curriculum {
	if uc.Title != nil {
		cur.Title = *uc.Title
	}
	if uc.Description != nil {
		cur.Description = *uc.Description
	}
	cur.UpdatedAt = time.Now().UTC()
	return cur
}

// JoinCurriculum is a student's request to enroll via a join code.
type JoinCurriculum struct {
	Code string `json:"code" validate:"required"`
}

func (jc *JoinCurriculum) Validate(validate *validator.Validate) error {
	jc.Code = strings.ToUpper(core.CleanString(jc.Code))
	return validate.Struct(jc)
}

// NewNote contains information needed to post a new Note.
type NewNote struct {
	Content      string    `json:"content" validate:"required"`
	ExpiryDate   null.Time `json:"expiry_date"`
	CurriculumID string    `json:"curriculum_id" validate:"required"`
}

func (nn *NewNote) Validate(validate *validator.Validate) error {
	nn.Content = core.CleanString(nn.Content)
	return validate.Struct(nn)
}
