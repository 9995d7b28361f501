package lecture

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

type (
	Lecture struct {
		ID           string    `json:"id" db:"id"`
		Title        string    `json:"title" db:"title"`
		Content      string    `json:"content" db:"content"` // relative URL of the lecture PDF
		WeekNumber   int       `json:"week_number" db:"week_number"`
		CurriculumID string    `json:"curriculum_id" db:"curriculum_id"`
		CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
		UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC

		// owning teacher, resolved by repository joins; not serialized
		TeacherID string `json:"-" db:"teacher_id"`

		// student-view annotations
		IsRead          *bool  `json:"is_read,omitempty" db:"is_read"`
		CurriculumTitle string `json:"curriculum_title,omitempty" db:"curriculum_title"`
	}

	Attachment struct {
		ID        string    `json:"id" db:"id"`
		Title     string    `json:"title" db:"title"`
		FileURL   string    `json:"file_url" db:"file_url"`
		LectureID string    `json:"lecture_id" db:"lecture_id"`
		CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC

		TeacherID    string `json:"-" db:"teacher_id"`
		CurriculumID string `json:"-" db:"curriculum_id"`
	}

	ReadLecture struct {
		ID        string    `json:"id" db:"id"`
		StudentID string    `json:"student_id" db:"student_id"`
		LectureID string    `json:"lecture_id" db:"lecture_id"`
		ReadAt    time.Time `json:"read_at" db:"read_at"` // UTC
	}
)

// NewLecture is the multipart metadata posted alongside the lecture PDF.
type NewLecture struct {
	Title        string `form:"title" validate:"required"`
	WeekNumber   int    `form:"weekNumber"`
	CurriculumID string `form:"curriculumId" validate:"required"`
}

func (nl *NewLecture) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	if nl.WeekNumber <= 0 {
		nl.WeekNumber = 1
	}
	return validate.Struct(nl)
}

// NewAttachment is the multipart metadata posted alongside an attachment file.
type NewAttachment struct {
	Title     string `form:"title" validate:"required"`
	LectureID string `form:"lectureId" validate:"required"`
}

func (na *NewAttachment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	return validate.Struct(na)
}

// Filter narrows a lecture listing.
type Filter struct {
	CurriculumID string `query:"curriculumId" validate:"required"`
	WeekNumber   *int   `query:"weekNumber"`
}
