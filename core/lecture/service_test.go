package lecture

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/curriculum"
	"github.com/trezcool/darasa/core/user"
)

type fakeRepo struct {
	Repository

	lectures    map[string]Lecture
	attachments []Attachment
	reads       map[string]bool // studentID:lectureID
	seq         int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		lectures: make(map[string]Lecture),
		reads:    make(map[string]bool),
	}
}

func (r *fakeRepo) CreateLecture(_ context.Context, lec Lecture) (Lecture, error) {
	r.seq++
	lec.ID = fmt.Sprintf("lec%d", r.seq)
	r.lectures[lec.ID] = lec
	return lec, nil
}

func (r *fakeRepo) GetLectureByID(_ context.Context, id string) (Lecture, error) {
	if lec, ok := r.lectures[id]; ok {
		return lec, nil
	}
	return Lecture{}, ErrNotFound
}

func (r *fakeRepo) CreateAttachment(_ context.Context, att Attachment) (Attachment, error) {
	r.seq++
	att.ID = fmt.Sprintf("att%d", r.seq)
	r.attachments = append(r.attachments, att)
	return att, nil
}

func (r *fakeRepo) MarkLectureRead(_ context.Context, rl ReadLecture) error {
	r.reads[rl.StudentID+":"+rl.LectureID] = true
	return nil
}

type fakeCurrRepo struct {
	curriculums map[string]curriculum.Curriculum
	enrollments map[string]bool
}

func (r *fakeCurrRepo) GetCurriculumByID(_ context.Context, id string) (curriculum.Curriculum, error) {
	if cur, ok := r.curriculums[id]; ok {
		return cur, nil
	}
	return curriculum.Curriculum{}, curriculum.ErrNotFound
}

func (r *fakeCurrRepo) IsEnrolled(_ context.Context, studentID, curriculumID string) (bool, error) {
	return r.enrollments[studentID+":"+curriculumID], nil
}

type fakeFiles struct {
	saved int
}

func (f *fakeFiles) Save(category, ext string, _ []byte) (string, error) {
	f.saved++
	return fmt.Sprintf("/uploads/%s/file%d%s", category, f.saved, ext), nil
}

func setup() (*fakeRepo, *fakeCurrRepo, *fakeFiles, *service) {
	repo := newFakeRepo()
	currRepo := &fakeCurrRepo{
		curriculums: map[string]curriculum.Curriculum{
			"cur1": {ID: "cur1", Title: "CS101", TeacherID: "t1"},
		},
		enrollments: make(map[string]bool),
	}
	files := &fakeFiles{}
	svc := NewService(repo, currRepo, files, access.NewAuthorizer(currRepo))
	return repo, currRepo, files, svc
}

var (
	teacher = access.Principal{UserID: "u1", Role: user.RoleTeacher, TeacherID: "t1"}
	student = access.Principal{UserID: "u2", Role: user.RoleStudent, StudentID: "s1"}
)

func TestService_Create(t *testing.T) {
	repo, _, files, svc := setup()

	nl := NewLecture{Title: "Pointers", WeekNumber: 3, CurriculumID: "cur1"}
	lec, err := svc.Create(context.Background(), teacher, nl, []byte("%PDF-"), "application/pdf")
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if lec.Content != "/uploads/lectures/file1.pdf" {
		t.Errorf("Content = %q; want stored file URL", lec.Content)
	}
	if files.saved != 1 {
		t.Errorf("saved %d files; want 1", files.saved)
	}
	// a companion attachment points at the same file
	if len(repo.attachments) != 1 {
		t.Fatalf("got %d attachments; want 1", len(repo.attachments))
	}
	att := repo.attachments[0]
	if att.Title != "Pointers PDF" || att.FileURL != lec.Content || att.LectureID != lec.ID {
		t.Errorf("companion attachment = %+v", att)
	}
}

func TestService_Create_rejectsNonPDF(t *testing.T) {
	_, _, files, svc := setup()

	nl := NewLecture{Title: "Pointers", WeekNumber: 3, CurriculumID: "cur1"}
	_, err := svc.Create(context.Background(), teacher, nl, []byte("GIF89a"), "image/gif")
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		t.Fatalf("Create() error = %v, want validation error", err)
	}
	if vErr.Error() != "only PDF files are accepted" {
		t.Errorf("error message = %q", vErr.Error())
	}
	if files.saved != 0 {
		t.Errorf("file was saved despite rejected content type")
	}
}

func TestService_Create_foreignCurriculumForbidden(t *testing.T) {
	_, _, _, svc := setup()

	other := access.Principal{UserID: "u3", Role: user.RoleTeacher, TeacherID: "t2"}
	nl := NewLecture{Title: "Pointers", WeekNumber: 3, CurriculumID: "cur1"}
	if _, err := svc.Create(context.Background(), other, nl, []byte("%PDF-"), "application/pdf"); err != access.ErrForbidden {
		t.Errorf("Create() error = %v, want %v", err, access.ErrForbidden)
	}
}

func TestService_MarkRead(t *testing.T) {
	repo, currRepo, _, svc := setup()
	repo.lectures["lec1"] = Lecture{ID: "lec1", CurriculumID: "cur1", TeacherID: "t1"}

	// not enrolled
	if err := svc.MarkRead(context.Background(), student, "lec1"); err != access.ErrForbidden {
		t.Errorf("MarkRead(not enrolled) error = %v, want %v", err, access.ErrForbidden)
	}

	currRepo.enrollments["s1:cur1"] = true
	if err := svc.MarkRead(context.Background(), student, "lec1"); err != nil {
		t.Fatalf("MarkRead(): %v", err)
	}
	if !repo.reads["s1:lec1"] {
		t.Errorf("lecture was not marked read")
	}

	// marking again is a no-op
	if err := svc.MarkRead(context.Background(), student, "lec1"); err != nil {
		t.Errorf("MarkRead(again): %v", err)
	}

	// unknown lecture
	if err := svc.MarkRead(context.Background(), student, "nope"); !core.IsNotFound(err) {
		t.Errorf("MarkRead(unknown) error = %v, want not found", err)
	}
}

func TestService_CurrentWeek_teacherForbidden(t *testing.T) {
	_, _, _, svc := setup()

	if _, err := svc.CurrentWeek(context.Background(), teacher); err != access.ErrForbidden {
		t.Errorf("CurrentWeek() error = %v, want %v", err, access.ErrForbidden)
	}
}
