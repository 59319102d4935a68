package handler_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lenlo121500/auth-system/internal/domain"
	"github.com/lenlo121500/auth-system/internal/transport/http/handler"
	"github.com/lenlo121500/auth-system/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuthUsecase implements the unexported authUsecaser interface via
// method matching.
type fakeAuthUsecase struct {
	signup         func(ctx context.Context, in usecase.SignupInput) (*domain.User, string, error)
	verifyEmail    func(ctx context.Context, code string) (*domain.User, error)
	login          func(ctx context.Context, email, password string) (*domain.User, string, error)
	forgotPassword func(ctx context.Context, email string) (string, error)
	resetPassword  func(ctx context.Context, rawToken, password string) error
	checkAuth      func(ctx context.Context, userID string) (*domain.User, error)
}

func (f *fakeAuthUsecase) Signup(ctx context.Context, in usecase.SignupInput) (*domain.User, string, error) {
	return f.signup(ctx, in)
}

func (f *fakeAuthUsecase) VerifyEmail(ctx context.Context, code string) (*domain.User, error) {
	return f.verifyEmail(ctx, code)
}

func (f *fakeAuthUsecase) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	return f.login(ctx, email, password)
}

func (f *fakeAuthUsecase) ForgotPassword(ctx context.Context, email string) (string, error) {
	return f.forgotPassword(ctx, email)
}

func (f *fakeAuthUsecase) ResetPassword(ctx context.Context, rawToken, password string) error {
	return f.resetPassword(ctx, rawToken, password)
}

func (f *fakeAuthUsecase) CheckAuth(ctx context.Context, userID string) (*domain.User, error) {
	return f.checkAuth(ctx, userID)
}

var testUser = &domain.User{
	ID:         "user-1",
	Name:       "Test User",
	Email:      "test@example.com",
	IsVerified: false,
	CreatedAt:  time.Now(),
}

func newTestEngine(uc *fakeAuthUsecase) *gin.Engine {
	logger := slog.New(slog.DiscardHandler)
	h := handler.NewAuthHandler(uc, logger, 7*24*time.Hour, false)

	r := gin.New()
	auth := r.Group("/api/auth")
	auth.POST("/signup", h.Signup)
	auth.POST("/verify-email", h.VerifyEmail)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.POST("/forgot-password", h.ForgotPassword)
	auth.POST("/reset-password/:token", h.ResetPassword)
	auth.GET("/check-auth", func(c *gin.Context) { c.Set("userID", testUser.ID); h.CheckAuth(c) })
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

// ---- Signup ----

func TestSignup_Success_Returns201AndSetsCookie(t *testing.T) {
	uc := &fakeAuthUsecase{
		signup: func(_ context.Context, _ usecase.SignupInput) (*domain.User, string, error) {
			return testUser, "signed.session.jwt", nil
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/signup",
		`{"name":"A","email":"a@x.com","password":"secret1"}`)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}

	cookie := sessionCookie(w)
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if cookie.Value != "signed.session.jwt" {
		t.Errorf("cookie value = %q", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie SameSite = %v, want Strict", cookie.SameSite)
	}
}

func TestSignup_NeverEchoesPassword(t *testing.T) {
	uc := &fakeAuthUsecase{
		signup: func(_ context.Context, _ usecase.SignupInput) (*domain.User, string, error) {
			u := *testUser
			u.PasswordHash = "$2a$10$somethingsecret"
			return &u, "jwt", nil
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/signup",
		`{"name":"A","email":"a@x.com","password":"secret1"}`)

	if strings.Contains(w.Body.String(), "somethingsecret") ||
		strings.Contains(w.Body.String(), "password") {
		t.Errorf("response leaks password material: %s", w.Body.String())
	}
}

func TestSignup_InvalidJSON_Returns400(t *testing.T) {
	w := doJSON(t, newTestEngine(&fakeAuthUsecase{}), http.MethodPost, "/api/auth/signup", `{bad json}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSignup_DuplicateEmail_Returns400(t *testing.T) {
	uc := &fakeAuthUsecase{
		signup: func(_ context.Context, _ usecase.SignupInput) (*domain.User, string, error) {
			return nil, "", domain.ErrEmailTaken
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/signup",
		`{"name":"A","email":"a@x.com","password":"secret1"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSignup_ValidationError_Returns400(t *testing.T) {
	uc := &fakeAuthUsecase{
		signup: func(_ context.Context, _ usecase.SignupInput) (*domain.User, string, error) {
			return nil, "", &domain.ValidationError{Msg: "password must be at least 6 characters"}
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/signup",
		`{"name":"A","email":"a@x.com","password":"short"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "at least 6 characters") {
		t.Errorf("body = %s, want validation message", w.Body.String())
	}
}

func TestSignup_InternalError_Returns500(t *testing.T) {
	uc := &fakeAuthUsecase{
		signup: func(_ context.Context, _ usecase.SignupInput) (*domain.User, string, error) {
			return nil, "", errors.New("db down")
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/signup",
		`{"name":"A","email":"a@x.com","password":"secret1"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "db down") {
		t.Error("internal error details leaked to client")
	}
}

// ---- VerifyEmail ----

func TestVerifyEmail_InvalidCode_Returns400(t *testing.T) {
	uc := &fakeAuthUsecase{
		verifyEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrCodeInvalid
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/verify-email", `{"code":"000000"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestVerifyEmail_Success_Returns200(t *testing.T) {
	uc := &fakeAuthUsecase{
		verifyEmail: func(_ context.Context, code string) (*domain.User, error) {
			if code != "123456" {
				t.Errorf("code = %q, want 123456", code)
			}
			u := *testUser
			u.IsVerified = true
			return &u, nil
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/verify-email", `{"code":"123456"}`)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"is_verified":true`) {
		t.Errorf("body = %s, want is_verified true", w.Body.String())
	}
}

// ---- Login ----

func TestLogin_FailureKinds_ShareGenericMessage(t *testing.T) {
	for _, failure := range []error{domain.ErrUserNotFound, domain.ErrInvalidCredentials} {
		uc := &fakeAuthUsecase{
			login: func(_ context.Context, _, _ string) (*domain.User, string, error) {
				return nil, "", failure
			},
		}
		w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/login",
			`{"email":"a@x.com","password":"secret1"}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%v: status = %d, want 400", failure, w.Code)
		}
		if !strings.Contains(w.Body.String(), "Invalid credentials") {
			t.Errorf("%v: body = %s, want generic message", failure, w.Body.String())
		}
	}
}

func TestLogin_NotVerified_Returns400(t *testing.T) {
	uc := &fakeAuthUsecase{
		login: func(_ context.Context, _, _ string) (*domain.User, string, error) {
			return nil, "", domain.ErrNotVerified
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/login",
		`{"email":"a@x.com","password":"secret1"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not verified") {
		t.Errorf("body = %s, want not-verified message", w.Body.String())
	}
}

func TestLogin_Success_SetsSessionCookie(t *testing.T) {
	uc := &fakeAuthUsecase{
		login: func(_ context.Context, _, _ string) (*domain.User, string, error) {
			u := *testUser
			u.IsVerified = true
			return &u, "signed.session.jwt", nil
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/login",
		`{"email":"a@x.com","password":"secret1"}`)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if cookie := sessionCookie(w); cookie == nil || cookie.Value == "" {
		t.Error("session cookie not set")
	}
}

// ---- Logout ----

func TestLogout_ClearsCookie(t *testing.T) {
	w := doJSON(t, newTestEngine(&fakeAuthUsecase{}), http.MethodPost, "/api/auth/logout", ``)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	cookie := sessionCookie(w)
	if cookie == nil {
		t.Fatal("expected expired session cookie")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Errorf("cookie = %+v, want cleared", cookie)
	}
}

// ---- ForgotPassword ----

func TestForgotPassword_UnknownEmail_StillReturns200(t *testing.T) {
	uc := &fakeAuthUsecase{
		forgotPassword: func(_ context.Context, _ string) (string, error) {
			return "", domain.ErrUserNotFound
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/forgot-password",
		`{"email":"nobody@x.com"}`)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (must not reveal account existence)", w.Code)
	}
}

func TestForgotPassword_TokenNeverInResponse(t *testing.T) {
	const rawToken = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
	uc := &fakeAuthUsecase{
		forgotPassword: func(_ context.Context, _ string) (string, error) {
			return rawToken, nil
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/forgot-password",
		`{"email":"a@x.com"}`)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), rawToken) {
		t.Error("raw reset token leaked into the HTTP response")
	}
}

// ---- ResetPassword ----

func TestResetPassword_PassesTokenFromPath(t *testing.T) {
	uc := &fakeAuthUsecase{
		resetPassword: func(_ context.Context, rawToken, password string) error {
			if rawToken != "sometoken" {
				t.Errorf("token = %q, want sometoken", rawToken)
			}
			if password != "newpass1" {
				t.Errorf("password = %q, want newpass1", password)
			}
			return nil
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/reset-password/sometoken",
		`{"password":"newpass1"}`)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestResetPassword_InvalidToken_Returns400(t *testing.T) {
	uc := &fakeAuthUsecase{
		resetPassword: func(_ context.Context, _, _ string) error {
			return domain.ErrTokenInvalid
		},
	}
	w := doJSON(t, newTestEngine(uc), http.MethodPost, "/api/auth/reset-password/bad",
		`{"password":"newpass1"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ---- CheckAuth ----

func TestCheckAuth_ReturnsUserProjection(t *testing.T) {
	uc := &fakeAuthUsecase{
		checkAuth: func(_ context.Context, userID string) (*domain.User, error) {
			if userID != testUser.ID {
				t.Errorf("userID = %q, want %q", userID, testUser.ID)
			}
			return testUser, nil
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/check-auth", nil)
	newTestEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), testUser.Email) {
		t.Errorf("body = %s, want user email", w.Body.String())
	}
}

func TestCheckAuth_DeletedUser_Returns401(t *testing.T) {
	uc := &fakeAuthUsecase{
		checkAuth: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/check-auth", nil)
	newTestEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
