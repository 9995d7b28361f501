package curriculum

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
)

var (
	ErrNotFound        = core.NewNotFoundError("curriculum not found")
	ErrNoteNotFound    = core.NewNotFoundError("note not found")
	ErrAlreadyEnrolled = core.NewConflictError("already enrolled in this curriculum")

	// ErrCodeExists is returned by Repository.CreateCurriculum when the
	// generated join code collides; Create regenerates and retries.
	ErrCodeExists = core.NewConflictError("a curriculum with this code already exists")
)

type (
	Repository interface {
		CreateCurriculum(ctx context.Context, cur Curriculum) (Curriculum, error)
		GetCurriculumByID(ctx context.Context, id string) (Curriculum, error)
		GetCurriculumByCode(ctx context.Context, code string) (Curriculum, error)
		// QueryCurriculumsByTeacher returns a teacher's curriculums, most
		// recently updated first unless overridden by ordering.
		QueryCurriculumsByTeacher(ctx context.Context, teacherID string, ordering []core.DBOrdering) ([]Curriculum, error)
		// QueryCurriculumsByStudent returns the curriculums a student is
		// enrolled in, most recently enrolled first.
		QueryCurriculumsByStudent(ctx context.Context, studentID string) ([]Curriculum, error)
		UpdateCurriculum(ctx context.Context, cur Curriculum) (Curriculum, error)
		DeleteCurriculum(ctx context.Context, id string) error

		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		IsEnrolled(ctx context.Context, studentID, curriculumID string) (bool, error)

		CreateNote(ctx context.Context, note Note) (Note, error)
		GetNoteByID(ctx context.Context, id string) (Note, error)
		// QueryActiveNotes returns notes with no expiry or an expiry after
		// now, newest first.
		QueryActiveNotes(ctx context.Context, curriculumID string, now time.Time) ([]Note, error)
		DeleteNote(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, prin access.Principal, nc NewCurriculum) (Curriculum, error)
		Get(ctx context.Context, prin access.Principal, id string) (Curriculum, error)
		Query(ctx context.Context, prin access.Principal, teacherID string, ordering []core.DBOrdering) ([]Curriculum, error)
		Update(ctx context.Context, prin access.Principal, id string, uc UpdateCurriculum) (Curriculum, error)
		Delete(ctx context.Context, prin access.Principal, id string) error
		Join(ctx context.Context, prin access.Principal, code string) (Enrollment, error)
		CreateNote(ctx context.Context, prin access.Principal, nn NewNote) (Note, error)
		ActiveNotes(ctx context.Context, prin access.Principal, curriculumID string) ([]Note, error)
		DeleteNote(ctx context.Context, prin access.Principal, id string) error
	}

	service struct {
		repo  Repository
		authz *access.Authorizer
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, authz *access.Authorizer) *service {
	return &service{repo: repo, authz: authz}
}

func (svc *service) Create(ctx context.Context, prin access.Principal, nc NewCurriculum) (Curriculum, error) {
	if !prin.IsTeacher() {
		return Curriculum{}, access.ErrForbidden
	}

	now := time.Now().UTC()
	cur := Curriculum{
		Title:       nc.Title,
		Description: nc.Description,
		TeacherID:   prin.TeacherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// regenerate the join code until it is unique; a losing concurrent
	// insert comes back as ErrCodeExists and retries too.
	for {
		cur.UniqueCode = codeGenFunc()
		if _, err := svc.repo.GetCurriculumByCode(ctx, cur.UniqueCode); err == nil {
			continue
		} else if !core.IsNotFound(err) {
			return Curriculum{}, errors.Wrap(err, "checking join code uniqueness")
		}

		created, err := svc.repo.CreateCurriculum(ctx, cur)
		if err == nil {
			return created, nil
		}
		if errors.Cause(err) == ErrCodeExists {
			continue
		}
		return Curriculum{}, errors.Wrap(err, "creating curriculum")
	}
}

func (svc *service) Get(ctx context.Context, prin access.Principal, id string) (Curriculum, error) {
	cur, err := svc.repo.GetCurriculumByID(ctx, id)
	if err != nil {
		return Curriculum{}, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionRead, resource(cur)); err != nil {
		return Curriculum{}, err
	}
	return cur, nil
}

// Query lists curriculums visible to prin: a teacher's own, or a student's
// enrollments. teacherID narrows a teacher listing and is ignored for
// students.
func (svc *service) Query(ctx context.Context, prin access.Principal, teacherID string, ordering []core.DBOrdering) ([]Curriculum, error) {
	switch {
	case prin.IsTeacher():
		if teacherID == "" {
			teacherID = prin.TeacherID
		}
		if teacherID != prin.TeacherID {
			return nil, access.ErrForbidden
		}
		return svc.repo.QueryCurriculumsByTeacher(ctx, teacherID, ordering)
	case prin.IsStudent():
		return svc.repo.QueryCurriculumsByStudent(ctx, prin.StudentID)
	}
	return nil, access.ErrForbidden
}

func (svc *service) Update(ctx context.Context, prin access.Principal, id string, uc UpdateCurriculum) (Curriculum, error) {
	cur, err := svc.repo.GetCurriculumByID(ctx, id)
	if err != nil {
		return Curriculum{}, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionMutate, resource(cur)); err != nil {
		return Curriculum{}, err
	}
	return svc.repo.UpdateCurriculum(ctx, uc.Apply(cur))
}

func (svc *service) Delete(ctx context.Context, prin access.Principal, id string) error {
	cur, err := svc.repo.GetCurriculumByID(ctx, id)
	if err != nil {
		return err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionMutate, resource(cur)); err != nil {
		return err
	}
	// related lectures, notes, enrollments, attachments, homeworks and
	// submissions go with it via ON DELETE CASCADE
	return svc.repo.DeleteCurriculum(ctx, id)
}

func (svc *service) Join(ctx context.Context, prin access.Principal, code string) (Enrollment, error) {
	if !prin.IsStudent() {
		return Enrollment{}, access.ErrForbidden
	}

	cur, err := svc.repo.GetCurriculumByCode(ctx, code)
	if err != nil {
		return Enrollment{}, err
	}

	enrolled, err := svc.repo.IsEnrolled(ctx, prin.StudentID, cur.ID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "checking enrollment")
	}
	if enrolled {
		return Enrollment{}, ErrAlreadyEnrolled
	}

	// the unique (student, curriculum) constraint backstops concurrent
	// joins; the losing insert surfaces as ErrAlreadyEnrolled
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID:    prin.StudentID,
		CurriculumID: cur.ID,
		EnrolledAt:   time.Now().UTC(),
	})
}

func (svc *service) CreateNote(ctx context.Context, prin access.Principal, nn NewNote) (Note, error) {
	cur, err := svc.repo.GetCurriculumByID(ctx, nn.CurriculumID)
	if err != nil {
		return Note{}, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionMutate, resource(cur)); err != nil {
		return Note{}, err
	}
	return svc.repo.CreateNote(ctx, Note{
		Content:      nn.Content,
		ExpiryDate:   nn.ExpiryDate,
		CurriculumID: cur.ID,
		CreatedAt:    time.Now().UTC(),
	})
}

func (svc *service) ActiveNotes(ctx context.Context, prin access.Principal, curriculumID string) ([]Note, error) {
	cur, err := svc.repo.GetCurriculumByID(ctx, curriculumID)
	if err != nil {
		return nil, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionRead, resource(cur)); err != nil {
		return nil, err
	}
	return svc.repo.QueryActiveNotes(ctx, cur.ID, time.Now().UTC())
}

func (svc *service) DeleteNote(ctx context.Context, prin access.Principal, id string) error {
	note, err := svc.repo.GetNoteByID(ctx, id)
	if err != nil {
		return err
	}
	cur, err := svc.repo.GetCurriculumByID(ctx, note.CurriculumID)
	if err != nil {
		return err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionMutate, resource(cur)); err != nil {
		return err
	}
	return svc.repo.DeleteNote(ctx, id)
}

func resource(cur Curriculum) access.Resource {
	return access.Resource{CurriculumID: cur.ID, TeacherID: cur.TeacherID}
}
