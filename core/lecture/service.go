package lecture

import (
	"context"
	"path"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/curriculum"
)

var (
	ErrNotFound           = core.NewNotFoundError("lecture not found")
	ErrAttachmentNotFound = core.NewNotFoundError("attachment not found")

	errNotPDF = errors.New("only PDF files are accepted")

	NowFunc = time.Now // mockable
)

const pdfContentType = "application/pdf"

type (
	Repository interface {
		CreateLecture(ctx context.Context, lec Lecture) (Lecture, error)
		GetLectureByID(ctx context.Context, id string) (Lecture, error)
		// QueryLectures lists a curriculum's lectures ordered by week; a
		// non-empty studentID annotates each row with its read flag.
		QueryLectures(ctx context.Context, filter Filter, studentID string) ([]Lecture, error)
		// QueryWeekLectures lists lectures of the given week across all of a
		// student's enrollments, annotated with read flags and curriculum
		// titles.
		QueryWeekLectures(ctx context.Context, studentID string, week int) ([]Lecture, error)

		CreateAttachment(ctx context.Context, att Attachment) (Attachment, error)
		GetAttachmentByID(ctx context.Context, id string) (Attachment, error)
		DeleteAttachment(ctx context.Context, id string) error

		// MarkLectureRead records that a student opened a lecture; marking
		// an already-read lecture is a no-op.
		MarkLectureRead(ctx context.Context, rl ReadLecture) error
	}

	// CurriculumRepository is the slice of the curriculum repository this
	// service needs to resolve ownership.
	CurriculumRepository interface {
		GetCurriculumByID(ctx context.Context, id string) (curriculum.Curriculum, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, prin access.Principal, nl NewLecture, pdf []byte, contentType string) (Lecture, error)
		Query(ctx context.Context, prin access.Principal, filter Filter) ([]Lecture, error)
		MarkRead(ctx context.Context, prin access.Principal, lectureID string) error
		CurrentWeek(ctx context.Context, prin access.Principal) ([]Lecture, error)
		CreateAttachment(ctx context.Context, prin access.Principal, na NewAttachment, file []byte, filename string) (Attachment, error)
		DeleteAttachment(ctx context.Context, prin access.Principal, id string) error
	}

	service struct {
		repo     Repository
		currRepo CurriculumRepository
		files    core.FileStore
		authz    *access.Authorizer
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, currRepo CurriculumRepository, files core.FileStore, authz *access.Authorizer) *service {
	return &service{
		repo:     repo,
		currRepo: currRepo,
		files:    files,
		authz:    authz,
	}
}

// Create stores the lecture PDF, records it as the lecture content and adds a
// companion Attachment row pointing at the same file.
func (svc *service) Create(ctx context.Context, prin access.Principal, nl NewLecture, pdf []byte, contentType string) (Lecture, error) {
	cur, err := svc.currRepo.GetCurriculumByID(ctx, nl.CurriculumID)
	if err != nil {
		return Lecture{}, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionMutate, access.Resource{CurriculumID: cur.ID, TeacherID: cur.TeacherID}); err != nil {
		return Lecture{}, err
	}
	if contentType != pdfContentType {
		return Lecture{}, core.NewValidationError(errNotPDF)
	}

	fileURL, err := svc.files.Save("lectures", ".pdf", pdf)
	if err != nil {
		return Lecture{}, errors.Wrap(err, "saving lecture PDF")
	}

	now := NowFunc().UTC()
	lec, err := svc.repo.CreateLecture(ctx, Lecture{
		Title:        nl.Title,
		Content:      fileURL,
		WeekNumber:   nl.WeekNumber,
		CurriculumID: cur.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Lecture{}, errors.Wrap(err, "creating lecture")
	}

	if _, err = svc.repo.CreateAttachment(ctx, Attachment{
		Title:     nl.Title + " PDF",
		FileURL:   fileURL,
		LectureID: lec.ID,
		CreatedAt: now,
	}); err != nil {
		return Lecture{}, errors.Wrap(err, "creating companion attachment")
	}
	return lec, nil
}

func (svc *service) Query(ctx context.Context, prin access.Principal, filter Filter) ([]Lecture, error) {
	cur, err := svc.currRepo.GetCurriculumByID(ctx, filter.CurriculumID)
	if err != nil {
		return nil, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionRead, access.Resource{CurriculumID: cur.ID, TeacherID: cur.TeacherID}); err != nil {
		return nil, err
	}
	return svc.repo.QueryLectures(ctx, filter, prin.StudentID)
}

func (svc *service) MarkRead(ctx context.Context, prin access.Principal, lectureID string) error {
	lec, err := svc.repo.GetLectureByID(ctx, lectureID)
	if err != nil {
		return err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionRead, access.Resource{CurriculumID: lec.CurriculumID, TeacherID: lec.TeacherID}); err != nil {
		return err
	}
	if !prin.IsStudent() {
		return access.ErrForbidden
	}
	return svc.repo.MarkLectureRead(ctx, ReadLecture{
		StudentID: prin.StudentID,
		LectureID: lec.ID,
		ReadAt:    NowFunc().UTC(),
	})
}

// CurrentWeek surfaces this week's lectures across the student's enrollments.
func (svc *service) CurrentWeek(ctx context.Context, prin access.Principal) ([]Lecture, error) {
	if !prin.IsStudent() {
		return nil, access.ErrForbidden
	}
	return svc.repo.QueryWeekLectures(ctx, prin.StudentID, WeekOf(NowFunc()))
}

func (svc *service) CreateAttachment(ctx context.Context, prin access.Principal, na NewAttachment, file []byte, filename string) (Attachment, error) {
	lec, err := svc.repo.GetLectureByID(ctx, na.LectureID)
	if err != nil {
		return Attachment{}, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionMutate, access.Resource{CurriculumID: lec.CurriculumID, TeacherID: lec.TeacherID}); err != nil {
		return Attachment{}, err
	}

	fileURL, err := svc.files.Save("attachments", path.Ext(filename), file)
	if err != nil {
		return Attachment{}, errors.Wrap(err, "saving attachment")
	}
	return svc.repo.CreateAttachment(ctx, Attachment{
		Title:     na.Title,
		FileURL:   fileURL,
		LectureID: lec.ID,
		CreatedAt: NowFunc().UTC(),
	})
}

func (svc *service) DeleteAttachment(ctx context.Context, prin access.Principal, id string) error {
	att, err := svc.repo.GetAttachmentByID(ctx, id)
	if err != nil {
		return err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionMutate, access.Resource{CurriculumID: att.CurriculumID, TeacherID: att.TeacherID}); err != nil {
		return err
	}
	// the stored file itself is kept; serving stale URLs is harmless and
	// cleanup is an ops concern
	return svc.repo.DeleteAttachment(ctx, id)
}
