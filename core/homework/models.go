package homework

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Type discriminates how a homework is answered.
type Type string

const (
	TypeMCQ        Type = "MCQ"
	TypeText       Type = "TEXT"
	TypeFileUpload Type = "FILE_UPLOAD"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeMCQ, TypeText, TypeFileUpload:
		return true
	}
	return false
}

type (
	Homework struct {
		ID          string      `json:"id" db:"id"`
		Title       string      `json:"title" db:"title"`
		Description null.String `json:"description" db:"description"`
		Type        Type        `json:"type" db:"type"`
		DueDate     null.Time   `json:"due_date" db:"due_date"` // UTC
		LectureID   string      `json:"lecture_id" db:"lecture_id"`
		CreatedAt   time.Time   `json:"created_at" db:"created_at"` // UTC
		UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"` // UTC

		// ownership chain, resolved by repository joins; not serialized
		CurriculumID string `json:"-" db:"curriculum_id"`
		TeacherID    string `json:"-" db:"teacher_id"`

		// student-view annotation
		Submission *Submission `json:"submission,omitempty" db:"-"`
	}

	// Submission is a student's answer to a homework. A student holds at most
	// one per homework; resubmitting replaces it.
	Submission struct {
		ID          string      `json:"id" db:"id"`
		FileURL     string      `json:"file_url" db:"file_url"`
		Content     null.String `json:"content" db:"content"`
		Grade       null.Int    `json:"grade" db:"grade"`
		Feedback    null.String `json:"feedback" db:"feedback"`
		HomeworkID  string      `json:"homework_id" db:"homework_id"`
		StudentID   string      `json:"student_id" db:"student_id"`
		SubmittedAt time.Time   `json:"submitted_at" db:"submitted_at"` // UTC
		UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`     // UTC

		CurriculumID string `json:"-" db:"curriculum_id"`
		TeacherID    string `json:"-" db:"teacher_id"`

		// grading-view annotation
		StudentName string `json:"student_name,omitempty" db:"student_name"`
	}
)

// NewHomework contains information needed to create a new Homework.
type NewHomework struct {
	Title       string      `json:"title" validate:"required"`
	Description null.String `json:"description"`
	Type        Type        `json:"type" validate:"required,hwtype"`
	DueDate     null.Time   `json:"due_date"`
	LectureID   string      `json:"lecture_id" validate:"required"`
}

func (nh *NewHomework) Validate(validate *validator.Validate) error {
	nh.Title = core.CleanString(nh.Title)
	return validate.Struct(nh)
}

// UpdateHomework defines a partial update: nil pointers leave the field
// unchanged, an explicit JSON null clears description and due date.
type UpdateHomework struct {
	Title       *string      `json:"title"`
	Description *null.String `json:"description"`
	Type        *Type        `json:"type" validate:"omitempty,hwtype"`
	DueDate     *null.Time   `json:"due_date"`
}

func (uh *UpdateHomework) Validate(validate *validator.Validate) error {
	if uh.Title != nil {
		title := core.CleanString(*uh.Title)
		if title == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field is required"})
		}
		uh.Title = &title
	}
	return validate.Struct(uh)
}

// Apply folds the update into hw.
func (uh UpdateHomework) Apply(hw Homework) Homework {
	if uh.Title != nil {
		hw.Title = *uh.Title
	}
	if uh.Description != nil {
		hw.Description = *uh.Description
	}
	if uh.Type != nil {
		hw.Type = *uh.Type
	}
	if uh.DueDate != nil {
		hw.DueDate = *uh.DueDate
	}
	hw.UpdatedAt = time.Now().UTC()
	return hw
}

// NewSubmission is the multipart metadata posted alongside the answer PDF.
type NewSubmission struct {
	HomeworkID string      `form:"homeworkId" validate:"required"`
	Content    null.String `form:"content"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

// GradeSubmission carries a teacher's grade; a null grade clears it.
type GradeSubmission struct {
	Grade    null.Int    `json:"grade"`
	Feedback null.String `json:"feedback"`
}

func (gs *GradeSubmission) Validate(_ *validator.Validate) error {
	if gs.Grade.Valid && (gs.Grade.Int < 0 || gs.Grade.Int > 100) {
		return errInvalidGrade
	}
	return nil
}

var (
	hwTypeTag  = "hwtype"
	hwTypeText = "type must be one of MCQ, TEXT, FILE_UPLOAD"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(hwTypeTag, func(fl validator.FieldLevel) bool {
		return Type(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, hwTypeTag, hwTypeText)
}
