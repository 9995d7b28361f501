package homework

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/lecture"
)

var (
	ErrNotFound           = core.NewNotFoundError("homework not found")
	ErrSubmissionNotFound = core.NewNotFoundError("submission not found")

	errPastDue      = core.NewValidationError(errors.New("the due date for this homework has passed"))
	errNotPDF       = core.NewValidationError(errors.New("only PDF files are accepted"))
	errInvalidGrade = core.NewValidationError(errors.New("grade must be a number between 0 and 100"))

	NowFunc = time.Now // mockable
)

const pdfContentType = "application/pdf"

type (
	Repository interface {
		CreateHomework(ctx context.Context, hw Homework) (Homework, error)
		// GetHomeworkByID resolves the ownership chain (lecture -> curriculum
		// -> teacher); a non-empty studentID annotates the row with that
		// student's submission.
		GetHomeworkByID(ctx context.Context, id, studentID string) (Homework, error)
		// QueryHomeworksByLecture lists a lecture's homeworks by due date; a
		// non-empty studentID annotates each row with that student's
		// submission.
		QueryHomeworksByLecture(ctx context.Context, lectureID, studentID string) ([]Homework, error)
		UpdateHomework(ctx context.Context, hw Homework) (Homework, error)
		DeleteHomework(ctx context.Context, id string) error

		// UpsertSubmission inserts the submission or, if the student already
		// submitted, overwrites its file, content and submission time.
		UpsertSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		// QuerySubmissionsByHomework lists submissions newest first, with
		// student names for the grading view.
		QuerySubmissionsByHomework(ctx context.Context, homeworkID string) ([]Submission, error)
		UpdateSubmissionGrade(ctx context.Context, sub Submission) (Submission, error)
	}

	// LectureInfo is the slice of the lecture repository this service needs
	// to resolve ownership on homework creation.
	LectureInfo interface {
		GetLectureByID(ctx context.Context, id string) (lecture.Lecture, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, prin access.Principal, nh NewHomework) (Homework, error)
		Get(ctx context.Context, prin access.Principal, id string) (Homework, error)
		Query(ctx context.Context, prin access.Principal, lectureID string) ([]Homework, error)
		Update(ctx context.Context, prin access.Principal, id string, uh UpdateHomework) (Homework, error)
		Delete(ctx context.Context, prin access.Principal, id string) error
		Submit(ctx context.Context, prin access.Principal, ns NewSubmission, pdf []byte, contentType string) (Submission, error)
		Submissions(ctx context.Context, prin access.Principal, homeworkID string) ([]Submission, error)
		Grade(ctx context.Context, prin access.Principal, submissionID string, gs GradeSubmission) (Submission, error)
	}

	service struct {
		repo     Repository
		lectures LectureInfo
		files    core.FileStore
		authz    *access.Authorizer
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, lectures LectureInfo, files core.FileStore, authz *access.Authorizer) *service {
	return &service{repo: repo, lectures: lectures, files: files, authz: authz}
}

func (svc *service) Create(ctx context.Context, prin access.Principal, nh NewHomework) (Homework, error) {
	lec, err := svc.lectures.GetLectureByID(ctx, nh.LectureID)
	if err != nil {
		return Homework{}, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionMutate, access.Resource{CurriculumID: lec.CurriculumID, TeacherID: lec.TeacherID}); err != nil {
		return Homework{}, err
	}

	now := NowFunc().UTC()
	return svc.repo.CreateHomework(ctx, Homework{
		Title:       nh.Title,
		Description: nh.Description,
		Type:        nh.Type,
		DueDate:     nh.DueDate,
		LectureID:   lec.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *service) Get(ctx context.Context, prin access.Principal, id string) (Homework, error) {
	hw, err := svc.repo.GetHomeworkByID(ctx, id, prin.StudentID)
	if err != nil {
		return Homework{}, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionRead, resource(hw)); err != nil {
		return Homework{}, err
	}
	return hw, nil
}

func (svc *service) Query(ctx context.Context, prin access.Principal, lectureID string) ([]Homework, error) {
	lec, err := svc.lectures.GetLectureByID(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionRead, access.Resource{CurriculumID: lec.CurriculumID, TeacherID: lec.TeacherID}); err != nil {
		return nil, err
	}
	return svc.repo.QueryHomeworksByLecture(ctx, lec.ID, prin.StudentID)
}

func (svc *service) Update(ctx context.Context, prin access.Principal, id string, uh UpdateHomework) (Homework, error) {
	hw, err := svc.repo.GetHomeworkByID(ctx, id, "")
	if err != nil {
		return Homework{}, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionMutate, resource(hw)); err != nil {
		return Homework{}, err
	}
	return svc.repo.UpdateHomework(ctx, uh.Apply(hw))
}

func (svc *service) Delete(ctx context.Context, prin access.Principal, id string) error {
	hw, err := svc.repo.GetHomeworkByID(ctx, id, "")
	if err != nil {
		return err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionMutate, resource(hw)); err != nil {
		return err
	}
	// submissions go with it via ON DELETE CASCADE
	return svc.repo.DeleteHomework(ctx, id)
}

// Submit records a student's answer PDF. Resubmitting before the due date
// overwrites the previous file, content and submission time.
func (svc *service) Submit(ctx context.Context, prin access.Principal, ns NewSubmission, pdf []byte, contentType string) (Submission, error) {
	hw, err := svc.repo.GetHomeworkByID(ctx, ns.HomeworkID, "")
	if err != nil {
		return Submission{}, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionSubmit, resource(hw)); err != nil {
		return Submission{}, err
	}
	now := NowFunc().UTC()
	if hw.DueDate.Valid && now.After(hw.DueDate.Time) {
		return Submission{}, errPastDue
	}
	if contentType != pdfContentType {
		return Submission{}, errNotPDF
	}

	fileURL, err := svc.files.Save("submissions", ".pdf", pdf)
	if err != nil {
		return Submission{}, errors.Wrap(err, "saving submission PDF")
	}
	return svc.repo.UpsertSubmission(ctx, Submission{
		FileURL:     fileURL,
		Content:     ns.Content,
		HomeworkID:  hw.ID,
		StudentID:   prin.StudentID,
		SubmittedAt: now,
		UpdatedAt:   now,
	})
}

func (svc *service) Submissions(ctx context.Context, prin access.Principal, homeworkID string) ([]Submission, error) {
	hw, err := svc.repo.GetHomeworkByID(ctx, homeworkID, "")
	if err != nil {
		return nil, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionGrade, resource(hw)); err != nil {
		return nil, err
	}
	return svc.repo.QuerySubmissionsByHomework(ctx, hw.ID)
}

// Grade sets or clears a submission's grade and feedback; grading past the
// due date is allowed.
func (svc *service) Grade(ctx context.Context, prin access.Principal, submissionID string, gs GradeSubmission) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	if err := svc.authz.Can(ctx, prin, access.ActionGrade, access.Resource{CurriculumID: sub.CurriculumID, TeacherID: sub.TeacherID}); err != nil {
		return Submission{}, err
	}
	sub.Grade = gs.Grade
	sub.Feedback = gs.Feedback
	sub.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateSubmissionGrade(ctx, sub)
}

func resource(hw Homework) access.Resource {
	return access.Resource{CurriculumID: hw.CurriculumID, TeacherID: hw.TeacherID}
}
