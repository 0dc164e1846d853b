package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/vettrack/auth-service/internal/api/middleware"
	"github.com/vettrack/auth-service/internal/core/domain"
)

type stubAuthService struct {
	registerFn       func(ctx context.Context, name, email, password string) (*domain.User, error)
	authenticateFn   func(ctx context.Context, email, password, clientType, clientIP string) (*domain.User, string, error)
	validateFn       func(ctx context.Context, rawToken string) (*domain.User, error)
	logoutFn         func(ctx context.Context, rawToken string) error
	changePasswordFn func(ctx context.Context, user *domain.User, currentPassword, newPassword string) error
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, name, email, password)
}

func (s *stubAuthService) Authenticate(ctx context.Context, email, password, clientType, clientIP string) (*domain.User, string, error) {
	return s.authenticateFn(ctx, email, password, clientType, clientIP)
}

func (s *stubAuthService) ValidateSession(ctx context.Context, rawToken string) (*domain.User, error) {
	return s.validateFn(ctx, rawToken)
}

func (s *stubAuthService) Logout(ctx context.Context, rawToken string) error {
	return s.logoutFn(ctx, rawToken)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error {
	return s.changePasswordFn(ctx, user, currentPassword, newPassword)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonContext(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpErrorCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*domain.User, error) {
			if name != "Jane" || email != "jane@x.com" || password != "Passw0rd!" {
				t.Fatalf("unexpected args: %s %s", name, email)
			}
			return &domain.User{ID: "abc123", Name: name, Email: email, Role: domain.DefaultRole, Status: true}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := jsonContext(e, http.MethodPost, "/auth/register", `{"name":"Jane","email":"jane@x.com","password":"Passw0rd!"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "abc123" || resp["email"] != "jane@x.com" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewAuthHandler(stub)

	c, _ := jsonContext(e, http.MethodPost, "/auth/register", `{"name":"Jane","email":"jane@x.com","password":"Passw0rd!"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists to propagate, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	cases := map[string]string{
		"not json":       "not-json",
		"missing email":  `{"name":"Jane","password":"Passw0rd!"}`,
		"bad email":      `{"name":"Jane","email":"nope","password":"Passw0rd!"}`,
		"blank name":     `{"name":"   ","email":"jane@x.com","password":"Passw0rd!"}`,
		"short password": `{"name":"Jane","email":"jane@x.com","password":"short"}`,
		"long password":  `{"name":"Jane","email":"jane@x.com","password":"` + strings.Repeat("a", 73) + `"}`,
	}
	for name, body := range cases {
		c, _ := jsonContext(e, http.MethodPost, "/auth/register", body)
		err := h.Register(c)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if code := httpErrorCode(t, err); code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, code)
		}
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		authenticateFn: func(ctx context.Context, email, password, clientType, clientIP string) (*domain.User, string, error) {
			if email != "jane@x.com" || password != "Passw0rd!" {
				t.Fatalf("unexpected credentials: %s", email)
			}
			if clientType != "mobile" {
				t.Fatalf("expected client type from header, got %q", clientType)
			}
			return &domain.User{Name: "Jane", Email: email, Role: "vet"}, "raw-token-123", nil
		},
	}
	h := NewAuthHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"jane@x.com","password":"Passw0rd!"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Client-Type", "Mobile")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["session_token"] != "raw-token-123" {
		t.Fatalf("expected session token, got %v", resp["session_token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["email"] != "jane@x.com" || user["role"] != "vet" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
}

func TestAuthHandler_Login_DefaultsClientType(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		authenticateFn: func(ctx context.Context, email, password, clientType, clientIP string) (*domain.User, string, error) {
			if clientType != "unknown" {
				t.Fatalf("expected default client type, got %q", clientType)
			}
			return &domain.User{Email: email}, "token", nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := jsonContext(e, http.MethodPost, "/auth/login", `{"email":"jane@x.com","password":"Passw0rd!"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		authenticateFn: func(ctx context.Context, email, password, clientType, clientIP string) (*domain.User, string, error) {
			return nil, "", domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub)

	c, _ := jsonContext(e, http.MethodPost, "/auth/login", `{"email":"jane@x.com","password":"bad-pass1"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials to propagate, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, rawToken string) error {
			if rawToken != "tok-1" {
				t.Fatalf("unexpected token %q", rawToken)
			}
			return nil
		},
	}
	h := NewAuthHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer tok-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout_MissingHeader(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, rawToken string) error {
			t.Fatalf("should not be called")
			return nil
		},
	}
	h := NewAuthHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Logout(c)
	if code := httpErrorCode(t, err); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.UserContextKey, &domain.User{Name: "Jane", Email: "jane@x.com", Role: "vet"})

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["name"] != "Jane" || resp["role"] != "vet" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Me_NoUserInContext(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Me(c)
	if code := httpErrorCode(t, err); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	e := newEcho()
	user := &domain.User{ID: "abc123", Email: "jane@x.com"}
	stub := &stubAuthService{
		changePasswordFn: func(ctx context.Context, u *domain.User, current, next string) error {
			if u.ID != "abc123" || current != "Passw0rd!" || next != "NewPassw0rd!" {
				t.Fatalf("unexpected args: %s %s %s", u.ID, current, next)
			}
			return nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := jsonContext(e, http.MethodPost, "/auth/password/change", `{"current_password":"Passw0rd!","new_password":"NewPassw0rd!"}`)
	c.Set(middleware.UserContextKey, user)

	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_ChangePassword_ShortNewPassword(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		changePasswordFn: func(ctx context.Context, u *domain.User, current, next string) error {
			t.Fatalf("should not be called")
			return nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := jsonContext(e, http.MethodPost, "/auth/password/change", `{"current_password":"Passw0rd!","new_password":"tiny"}`)
	c.Set(middleware.UserContextKey, &domain.User{ID: "abc123"})

	err := h.ChangePassword(c)
	if code := httpErrorCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}
