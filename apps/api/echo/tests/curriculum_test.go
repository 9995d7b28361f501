package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/curriculum"
	"github.com/trezcool/darasa/core/user"
)

func Test_curriculumApi_create(t *testing.T) {
	resetDB(t)

	teacher := createUser(t, "Jane Awesome", "jane@test.cd", user.RoleTeacher)
	student := createUser(t, "Hero Kid", "hero@test.cd", user.RoleStudent)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", token: getToken(t, student), wantCode: http.StatusForbidden,
			body:     marchallObj(t, map[string]string{"title": "Algorithms"}),
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "title required", token: getToken(t, teacher), body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		},
		{
			name: "created", token: getToken(t, teacher), wantCode: http.StatusCreated,
			body: marchallObj(t, map[string]string{"title": "Algorithms", "description": "Sorting and searching"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/curriculum", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusCreated {
				var cur curriculum.Curriculum
				if err := json.Unmarshal(rec.Body.Bytes(), &cur); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				assert.NotEmpty(t, cur.ID)
				assert.Len(t, cur.UniqueCode, 8)
				assert.Equal(t, teacher.TeacherID(), cur.TeacherID)
			}
		})
	}
}

func Test_curriculumApi_query(t *testing.T) {
	resetDB(t)

	teacher := createUser(t, "Jane Awesome", "jane@test.cd", user.RoleTeacher)
	other := createUser(t, "John Applied", "john@test.cd", user.RoleTeacher)
	student := createUser(t, "Hero Kid", "hero@test.cd", user.RoleStudent)

	algo := createCurriculum(t, teacher, "Algorithms")
	db2 := createCurriculum(t, teacher, "Databases")
	createCurriculum(t, other, "Compilers")
	enroll(t, student, algo)

	get := func(id string) curriculum.Curriculum {
		cur, err := currRepo.GetCurriculumByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetCurriculumByID(): %v", err)
		}
		return cur
	}

	tests := []httpTest{
		{name: "Auth required", path: "/v1/curriculum", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "teacher sees own, latest first", path: "/v1/curriculum", token: getToken(t, teacher),
			wantCode: http.StatusOK, wantData: marchallList(t, get(db2.ID), get(algo.ID)),
		},
		{
			name: "ordering by title", path: "/v1/curriculum?ordering=title", token: getToken(t, teacher),
			wantCode: http.StatusOK, wantData: marchallList(t, get(algo.ID), get(db2.ID)),
		},
		{
			name: "foreign teacherId forbidden", path: "/v1/curriculum?teacherId=" + other.TeacherID(), token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "student sees enrollments", path: "/v1/curriculum", token: getToken(t, student),
			wantCode: http.StatusOK, wantData: marchallList(t, get(algo.ID)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_curriculumApi_detail(t *testing.T) {
	resetDB(t)

	teacher := createUser(t, "Jane Awesome", "jane@test.cd", user.RoleTeacher)
	other := createUser(t, "John Applied", "john@test.cd", user.RoleTeacher)
	student := createUser(t, "Hero Kid", "hero@test.cd", user.RoleStudent)
	outsider := createUser(t, "N Dog", "ndog@test.cd", user.RoleStudent)

	algo := createCurriculum(t, teacher, "Algorithms")
	enroll(t, student, algo)

	notFound := marchallObj(t, httpErr{Error: "curriculum not found"})
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{name: "unknown id", method: http.MethodGet, path: "/v1/curriculum/lol", token: getToken(t, teacher), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "owner reads", method: http.MethodGet, path: "/v1/curriculum/" + algo.ID, token: getToken(t, teacher), wantCode: http.StatusOK},
		{name: "enrolled student reads", method: http.MethodGet, path: "/v1/curriculum/" + algo.ID, token: getToken(t, student), wantCode: http.StatusOK},
		{name: "outsider forbidden", method: http.MethodGet, path: "/v1/curriculum/" + algo.ID, token: getToken(t, outsider), wantCode: http.StatusForbidden, wantData: forbidden},
		{
			name: "foreign teacher cannot update", method: http.MethodPatch, path: "/v1/curriculum/" + algo.ID, token: getToken(t, other),
			body: marchallObj(t, map[string]string{"title": "Hijacked"}), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "owner updates", method: http.MethodPatch, path: "/v1/curriculum/" + algo.ID, token: getToken(t, teacher),
			body: marchallObj(t, map[string]string{"title": "Algorithms II"}), wantCode: http.StatusOK,
		},
		{name: "foreign teacher cannot delete", method: http.MethodDelete, path: "/v1/curriculum/" + algo.ID, token: getToken(t, other), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "owner deletes", method: http.MethodDelete, path: "/v1/curriculum/" + algo.ID, token: getToken(t, teacher), wantCode: http.StatusNoContent},
		{name: "gone after delete", method: http.MethodGet, path: "/v1/curriculum/" + algo.ID, token: getToken(t, teacher), wantCode: http.StatusNotFound, wantData: notFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "owner updates" {
				var cur curriculum.Curriculum
				if err := json.Unmarshal(rec.Body.Bytes(), &cur); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				assert.Equal(t, "Algorithms II", cur.Title)
			}
		})
	}
}

func Test_curriculumApi_join(t *testing.T) {
	resetDB(t)

	teacher := createUser(t, "Jane Awesome", "jane@test.cd", user.RoleTeacher)
	student := createUser(t, "Hero Kid", "hero@test.cd", user.RoleStudent)

	algo := createCurriculum(t, teacher, "Algorithms")

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Student required", token: getToken(t, teacher), body: marchallObj(t, map[string]string{"code": algo.UniqueCode}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "code required", token: getToken(t, student), body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"code": "this field is required"}),
		},
		{
			name: "unknown code", token: getToken(t, student), body: marchallObj(t, map[string]string{"code": "NOPE1234"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "curriculum not found"}),
		},
		{
			name: "joined", token: getToken(t, student), body: marchallObj(t, map[string]string{"code": algo.UniqueCode}),
			wantCode: http.StatusCreated,
		},
		{
			name: "already enrolled", token: getToken(t, student),
			body:     marchallObj(t, map[string]string{"code": algo.UniqueCode}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "already enrolled in this curriculum"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/curriculum/join", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusCreated {
				var enr curriculum.Enrollment
				if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				assert.Equal(t, student.StudentID(), enr.StudentID)
				assert.Equal(t, algo.ID, enr.CurriculumID)
			}
		})
	}
}

func Test_curriculumApi_notes(t *testing.T) {
	resetDB(t)

	teacher := createUser(t, "Jane Awesome", "jane@test.cd", user.RoleTeacher)
	student := createUser(t, "Hero Kid", "hero@test.cd", user.RoleStudent)

	algo := createCurriculum(t, teacher, "Algorithms")
	enroll(t, student, algo)

	// an expired note never surfaces
	if _, err := currRepo.CreateNote(context.Background(), curriculum.Note{
		Content:      "Old news",
		ExpiryDate:   null.TimeFrom(time.Now().UTC().Add(-time.Hour)),
		CurriculumID: algo.ID,
		CreatedAt:    time.Now().UTC().Add(-2 * time.Hour),
	}); err != nil {
		t.Fatalf("CreateNote(): %v", err)
	}

	teacherToken := getToken(t, teacher)

	// post a fresh note
	req, rec := newAuthRequest(http.MethodPost, "/v1/curriculum/notes", teacherToken,
		marchallObj(t, map[string]string{"content": "Midterm moved to Friday", "curriculum_id": algo.ID}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("posting note: code = %v, body = %v", rec.Code, rec.Body.String())
	}
	var note curriculum.Note
	if err := json.Unmarshal(rec.Body.Bytes(), &note); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}

	tests := []httpTest{
		{
			name: "student required to enroll first", method: http.MethodGet,
			path: "/v1/curriculum/notes?curriculumId=" + algo.ID, token: getToken(t, createUser(t, "N Dog", "ndog@test.cd", user.RoleStudent)),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "student lists active notes", method: http.MethodGet,
			path: "/v1/curriculum/notes?curriculumId=" + algo.ID, token: getToken(t, student),
			wantCode: http.StatusOK, wantData: marchallList(t, note),
		},
		{
			name: "student cannot post notes", method: http.MethodPost, path: "/v1/curriculum/notes", token: getToken(t, student),
			body:     marchallObj(t, map[string]string{"content": "lol", "curriculum_id": algo.ID}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "unknown note delete", method: http.MethodDelete, path: "/v1/curriculum/notes?id=lol", token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "note not found"}),
		},
		{name: "owner deletes note", method: http.MethodDelete, path: "/v1/curriculum/notes?id=" + note.ID, token: teacherToken, wantCode: http.StatusNoContent},
		{
			name: "list empty after delete", method: http.MethodGet,
			path: "/v1/curriculum/notes?curriculumId=" + algo.ID, token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
