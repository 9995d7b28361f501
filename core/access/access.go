// Package access centralizes the role/ownership rules gating every read and
// mutation of curriculum-scoped data. Handlers resolve the ownership chain of
// whatever entity they touch (lecture -> curriculum, submission -> homework ->
// lecture -> curriculum) into a Resource and ask the Authorizer once.
package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/user"
)

var ErrForbidden = errors.New("permission denied")

type Action int

const (
	// ActionRead covers reads of a curriculum and anything it contains.
	ActionRead Action = iota
	// ActionMutate covers create/update/delete on a curriculum and its
	// lectures, notes, attachments and homeworks.
	ActionMutate
	// ActionSubmit covers homework submissions.
	ActionSubmit
	// ActionGrade covers grading of homework submissions.
	ActionGrade
)

// Principal is the authenticated caller, as carried by its session claims.
type Principal struct {
	UserID    string
	Role      user.Role
	TeacherID string // set iff Role == TEACHER
	StudentID string // set iff Role == STUDENT
}

func (p Principal) IsTeacher() bool { return p.Role == user.RoleTeacher && p.TeacherID != "" }
func (p Principal) IsStudent() bool { return p.Role == user.RoleStudent && p.StudentID != "" }

// Resource locates an entity on the ownership chain: the curriculum it lives
// under and that curriculum's owning teacher.
type Resource struct {
	CurriculumID string
	TeacherID    string
}

// EnrollmentChecker reports whether a student holds an enrollment in a
// curriculum. Implemented by the curriculum repository.
type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, studentID, curriculumID string) (bool, error)
}

type Authorizer struct {
	enrollments EnrollmentChecker
}

func NewAuthorizer(enrollments EnrollmentChecker) *Authorizer {
	return &Authorizer{enrollments: enrollments}
}

// Can returns nil if prin may perform action on res, ErrForbidden otherwise.
// The caller is responsible for 404-ing missing entities before asking.
func (a *Authorizer) Can(ctx context.Context, prin Principal, action Action, res Resource) error {
	switch action {
	case ActionMutate, ActionGrade:
		if prin.IsTeacher() && prin.TeacherID == res.TeacherID {
			return nil
		}
	case ActionRead:
		if prin.IsTeacher() {
			if prin.TeacherID == res.TeacherID {
				return nil
			}
			break
		}
		if prin.IsStudent() {
			return a.requireEnrollment(ctx, prin, res)
		}
	case ActionSubmit:
		if prin.IsStudent() {
			return a.requireEnrollment(ctx, prin, res)
		}
	}
	return ErrForbidden
}

func (a *Authorizer) requireEnrollment(ctx context.Context, prin Principal, res Resource) error {
	enrolled, err := a.enrollments.IsEnrolled(ctx, prin.StudentID, res.CurriculumID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return ErrForbidden
	}
	return nil
}
