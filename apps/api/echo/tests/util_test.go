package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/curriculum"
	"github.com/trezcool/darasa/core/homework"
	"github.com/trezcool/darasa/core/lecture"
	"github.com/trezcool/darasa/core/user"
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest builds a multipart/form-data request with text fields and
// one file part carrying an explicit content type.
func newUploadRequest(
	t *testing.T,
	method, path, token string,
	fields map[string]string,
	fileField, filename, contentType string,
	file []byte,
) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	if fileField != "" {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="`+filename+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := w.CreatePart(hdr)
		if err != nil {
			t.Fatalf("CreatePart(%s): %v", fileField, err)
		}
		if _, err = part.Write(file); err != nil {
			t.Fatalf("writing file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// Fixtures

func resetDB(t *testing.T) {
	t.Helper()
	db.Reset()
}

func createUser(t *testing.T, name, email string, role user.Role) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:       name,
		Email:      email,
		University: "UNIKIN",
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := usr.SetPassword("Secret123"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	switch role {
	case user.RoleTeacher:
		usr.Teacher = &user.TeacherProfile{}
	case user.RoleStudent:
		usr.Student = &user.StudentProfile{}
	}

	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

var curriculumSeq int

func createCurriculum(t *testing.T, teacher user.User, title string) curriculum.Curriculum {
	t.Helper()

	curriculumSeq++
	now := time.Now().UTC()
	cur, err := currRepo.CreateCurriculum(context.Background(), curriculum.Curriculum{
		Title:      title,
		UniqueCode: "TSTC" + strconv.Itoa(1000+curriculumSeq),
		TeacherID:  teacher.TeacherID(),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateCurriculum(): %v", err)
	}
	return cur
}

func enroll(t *testing.T, student user.User, cur curriculum.Curriculum) curriculum.Enrollment {
	t.Helper()

	enr, err := currRepo.CreateEnrollment(context.Background(), curriculum.Enrollment{
		StudentID:    student.StudentID(),
		CurriculumID: cur.ID,
		EnrolledAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateEnrollment(): %v", err)
	}
	return enr
}

func createLecture(t *testing.T, cur curriculum.Curriculum, title string, week int) lecture.Lecture {
	t.Helper()

	now := time.Now().UTC()
	lec, err := lecRepo.CreateLecture(context.Background(), lecture.Lecture{
		Title:        title,
		Content:      "/uploads/lectures/" + title + ".pdf",
		WeekNumber:   week,
		CurriculumID: cur.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateLecture(): %v", err)
	}
	return lec
}

func createHomework(t *testing.T, lec lecture.Lecture, title string, due null.Time) homework.Homework {
	t.Helper()

	now := time.Now().UTC()
	hw, err := hwRepo.CreateHomework(context.Background(), homework.Homework{
		Title:     title,
		Type:      homework.TypeFileUpload,
		DueDate:   due,
		LectureID: lec.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateHomework(): %v", err)
	}
	return hw
}

func submit(t *testing.T, student user.User, hw homework.Homework) homework.Submission {
	t.Helper()

	now := time.Now().UTC()
	sub, err := hwRepo.UpsertSubmission(context.Background(), homework.Submission{
		FileURL:     "/uploads/submissions/answer.pdf",
		HomeworkID:  hw.ID,
		StudentID:   student.StudentID(),
		SubmittedAt: now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("UpsertSubmission(): %v", err)
	}
	return sub
}

// testLogger satisfies core.Logger without shipping anything to rollbar.
type testLogger struct {
	std *log.Logger
}

var _ core.Logger = (*testLogger)(nil)

func (l *testLogger) Enable(bool) {}

func (l *testLogger) log(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l *testLogger) Debug(msg string, args ...interface{}) { l.log(msg, args) }
func (l *testLogger) Info(msg string, args ...interface{})  { l.log(msg, args) }
func (l *testLogger) Warn(msg string, args ...interface{})  { l.log(msg, args) }
func (l *testLogger) Error(msg string, args ...interface{}) { l.log(msg, args) }
func (l *testLogger) Fatal(msg string, args ...interface{}) { l.log(msg, args); l.std.Fatal(msg) }
