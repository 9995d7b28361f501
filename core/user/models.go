package user

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
)

// Role determines which portal an account operates: teachers author
// curriculums, students enroll in them. An account has exactly one role.
type Role string

const (
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

var Roles = []Role{RoleTeacher, RoleStudent}

func (r Role) IsValid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type (
	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		University   string    `json:"university"`
		Role         Role      `json:"role"`
		PasswordHash []byte    `json:"-"`
		CreatedAt    time.Time `json:"created_at"` // UTC
		UpdatedAt    time.Time `json:"updated_at"` // UTC

		Teacher *TeacherProfile `json:"teacher_profile,omitempty"`
		Student *StudentProfile `json:"student_profile,omitempty"`
	}

	TeacherProfile struct {
		ID     string      `json:"id"`
		UserID string      `json:"user_id"`
		Bio    null.String `json:"bio"`
	}

	StudentProfile struct {
		ID      string      `json:"id"`
		UserID  string      `json:"user_id"`
		Program null.String `json:"program"`
	}
)

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// TeacherID returns the TeacherProfile ID or "" for non-teachers.
func (u *User) TeacherID() string {
	if u.Teacher != nil {
		return u.Teacher.ID
	}
	return ""
}

// StudentID returns the StudentProfile ID or "" for non-students.
func (u *User) StudentID() string {
	if u.Student != nil {
		return u.Student.ID
	}
	return ""
}

// NewUser contains information needed to sign a new User up.
type NewUser struct {
	Name       string      `json:"name" validate:"required"`
	Email      string      `json:"email" validate:"required,email"`
	Password   string      `json:"password" validate:"required"`
	University string      `json:"university" validate:"required"`
	Role       Role        `json:"role" validate:"required,role"`
	Program    null.String `json:"program"` // students only
	Bio        null.String `json:"bio"`     // teachers only
}

// Validate cleans and validates the payload; email uniqueness is checked by
// Service.Register so a concurrent duplicate still surfaces as a conflict.
func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.University = core.CleanString(nu.University)
	return validate.Struct(nu)
}

var (
	roleTag  = "role"
	roleText = "role must be one of TEACHER, STUDENT"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, func(fl validator.FieldLevel) bool {
		return Role(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}
