package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contacthub/backend/internal/cache"
	"github.com/contacthub/backend/internal/config"
	"github.com/contacthub/backend/internal/model"
	"github.com/contacthub/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type memoryUserStore struct {
	users  map[string]*model.User
	nextID int64
}

func (s *memoryUserStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	if user, ok := s.users[username]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *memoryUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memoryUserStore) CreateUser(_ context.Context, username, email, hashedPassword, avatar string) (*model.User, error) {
	s.nextID++
	user := &model.User{
		ID:             s.nextID,
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		Avatar:         avatar,
		Role:           model.RoleUser,
	}
	s.users[username] = user
	copied := *user
	return &copied, nil
}

func (s *memoryUserStore) ConfirmEmail(_ context.Context, email string) error {
	for _, user := range s.users {
		if user.Email == email {
			user.Confirmed = true
		}
	}
	return nil
}

func (s *memoryUserStore) SetResetTicket(_ context.Context, email, ticket string, expiry time.Time) error {
	for _, user := range s.users {
		if user.Email == email {
			user.PasswordResetToken = &ticket
			user.PasswordResetTokenExpiry = &expiry
		}
	}
	return nil
}

func (s *memoryUserStore) UpdateHashedPassword(_ context.Context, email, hashedPassword string) error {
	for _, user := range s.users {
		if user.Email == email {
			user.HashedPassword = hashedPassword
			user.PasswordResetToken = nil
			user.PasswordResetTokenExpiry = nil
		}
	}
	return nil
}

type noopMailer struct{}

func (noopMailer) SendConfirmation(_, _ string)     {}
func (noopMailer) SendPasswordReset(_, _, _ string) {}

func newTestRouter(t *testing.T) (*gin.Engine, *service.TokenCodec) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.AuthConfig{
		JWTSecret:            "test-secret",
		JWTAlgorithm:         "HS256",
		AccessTokenTTL:       "3600",
		SessionCacheTTL:      "10",
		ResetTicketTTLMinute: "5",
		BcryptCost:           "4",
	}
	codec, err := service.NewTokenCodec(cfg)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	hasher, err := service.NewPasswordHasher(cfg)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	store := &memoryUserStore{users: make(map[string]*model.User)}
	authService, err := service.NewAuthService(store, cache.NewMemoryCache(), noopMailer{}, hasher, codec, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	authHandler := NewAuthHandler(authService)

	r := gin.New()
	auth := r.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/confirmed_email/:token", authHandler.ConfirmEmail)
	auth.POST("/request_email", authHandler.RequestEmail)
	auth.POST("/password_reset_request", authHandler.PasswordResetRequest)
	auth.POST("/password_reset", authHandler.PasswordReset)

	users := r.Group("/api/users")
	users.Use(AuthMiddleware(authService))
	users.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, CurrentUser(c).Response())
	})

	return r, codec
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(r, "/api/auth/register", `{"username":"al","email":"not-an-email","password":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRegisterConflictStatus(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(r, "/api/auth/register", `{"username":"alice","email":"a@x.com","password":"secret123"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = postJSON(r, "/api/auth/register", `{"username":"alice2","email":"a@x.com","password":"secret123"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

// Full journey from the API surface: register, rejected login, confirm,
// login, resolve the principal through the middleware.
func TestAuthFlow(t *testing.T) {
	r, codec := newTestRouter(t)

	w := postJSON(r, "/api/auth/register", `{"username":"alice","email":"a@x.com","password":"secret123"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var registered model.UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &registered); err != nil {
		t.Fatalf("register response: %v", err)
	}
	if registered.Confirmed {
		t.Fatal("new user must start unconfirmed")
	}

	w = postJSON(r, "/api/auth/login", `{"username":"alice","password":"secret123"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unconfirmed login: expected 401, got %d", w.Code)
	}

	emailToken, err := codec.IssueEmailToken("a@x.com")
	if err != nil {
		t.Fatalf("email token: %v", err)
	}
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/confirmed_email/"+emailToken, nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = postJSON(r, "/api/auth/login", `{"username":"alice","password":"secret123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var token model.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &token); err != nil {
		t.Fatalf("login response: %v", err)
	}
	if token.TokenType != "bearer" || token.AccessToken == "" {
		t.Fatalf("unexpected token response: %+v", token)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var me model.UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("me response: %v", err)
	}
	if me.Username != "alice" || !me.Confirmed {
		t.Fatalf("unexpected principal: %+v", me)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, header := range []string{"", "Bearer ", "Basic abc", "Bearer garbage"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestConfirmEmailBadToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/confirmed_email/garbage", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(r, "/api/auth/password_reset_request", `{"email":"ghost@x.com"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
