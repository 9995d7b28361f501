package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
)

func Test_authApi_signup(t *testing.T) {
	resetDB(t)

	createUser(t, "Jane Awesome", "jane@test.cd", user.RoleTeacher)

	tests := []httpTest{
		{
			name:     "empty payload",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":       "this field is required",
				"email":      "this field is required",
				"password":   "this field is required",
				"university": "this field is required",
				"role":       "this field is required",
			}),
		},
		{
			name:     "invalid role",
			body:     marchallObj(t, map[string]string{"name": "J", "email": "j@test.cd", "password": "pwd", "university": "UNIKIN", "role": "ADMIN"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "role must be one of TEACHER, STUDENT"}),
		},
		{
			name:     "duplicate email",
			body:     marchallObj(t, map[string]string{"name": "Jane Again", "email": "jane@test.cd", "password": "pwd", "university": "UNIKIN", "role": "TEACHER"}),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "a user with this email already exists"}),
		},
		{
			name:     "teacher created",
			body:     marchallObj(t, map[string]string{"name": "John Applied", "email": "john@test.cd", "password": "pwd", "university": "UNIKIN", "role": "TEACHER"}),
			wantCode: http.StatusCreated,
		},
		{
			name:     "student created",
			body:     marchallObj(t, map[string]string{"name": "Hero Kid", "email": "hero@test.cd", "password": "pwd", "university": "UNILU", "role": "STUDENT"}),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/signup", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusCreated {
				var usr user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				assert.NotEmpty(t, usr.ID)
				if usr.Role == user.RoleTeacher {
					assert.NotNil(t, usr.Teacher)
					assert.Nil(t, usr.Student)
				} else {
					assert.NotNil(t, usr.Student)
					assert.Nil(t, usr.Teacher)
				}

				// a rendered welcome email went out
				if assert.NotEmpty(t, emailsvc.SentMessages) {
					msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
					assert.Equal(t, usr.Email, msg.To[0].Address)
					assert.Equal(t, "Welcome to Darasa", msg.Subject)
					assert.Contains(t, msg.TextContent, "Hi "+usr.Name)
					assert.Contains(t, msg.HTMLContent, conf.FrontendBaseURL)
					if usr.Role == user.RoleTeacher {
						assert.Contains(t, msg.TextContent, "join code with your students")
					} else {
						assert.Contains(t, msg.TextContent, "Ask your teacher")
					}
				}
			}
		})
	}
}

func Test_authApi_login(t *testing.T) {
	resetDB(t)

	teacher := createUser(t, "Jane Awesome", "jane@test.cd", user.RoleTeacher)

	tests := []httpTest{
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"email":    "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name:     "unknown email",
			body:     marchallObj(t, map[string]string{"email": "lol@test.cd", "password": "Secret123"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, map[string]string{"email": teacher.Email, "password": "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name:     "logged in",
			body:     marchallObj(t, map[string]string{"email": teacher.Email, "password": "Secret123"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "email is case-insensitive",
			body:     marchallObj(t, map[string]string{"email": "JANE@Test.CD", "password": "Secret123"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusOK {
				var res echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				assert.NotEmpty(t, res.Token)
			}
		})
	}
}

func Test_authApi_me(t *testing.T) {
	resetDB(t)

	student := createUser(t, "Hero Kid", "hero@test.cd", user.RoleStudent)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Me", token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, student)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/auth/me", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_refreshToken(t *testing.T) {
	resetDB(t)

	student := createUser(t, "Hero Kid", "hero@test.cd", user.RoleStudent)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   student.ID,
			Audience:  "Darasa",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Name:         student.Name,
		Email:        student.Email,
		Role:         string(student.Role),
		StudentID:    student.StudentID(),
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusOK {
				var res echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				assert.NotEmpty(t, res.Token)
			}
		})
	}
}
