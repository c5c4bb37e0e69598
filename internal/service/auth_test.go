package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/contacthub/backend/internal/cache"
	"github.com/contacthub/backend/internal/config"
	"github.com/contacthub/backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (s *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[username]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user := s.byEmail(email); user != nil {
		copied := *user
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeUserStore) CreateUser(_ context.Context, username, email, hashedPassword, avatar string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	user := &model.User{
		ID:             s.nextID,
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now(),
		Avatar:         avatar,
		Confirmed:      false,
		Role:           model.RoleUser,
	}
	s.users[username] = user
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) ConfirmEmail(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user := s.byEmail(email); user != nil {
		user.Confirmed = true
	}
	return nil
}

func (s *fakeUserStore) SetResetTicket(_ context.Context, email, ticket string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user := s.byEmail(email); user != nil {
		user.PasswordResetToken = &ticket
		user.PasswordResetTokenExpiry = &expiry
	}
	return nil
}

func (s *fakeUserStore) UpdateHashedPassword(_ context.Context, email, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user := s.byEmail(email); user != nil {
		user.HashedPassword = hashedPassword
		user.PasswordResetToken = nil
		user.PasswordResetTokenExpiry = nil
	}
	return nil
}

func (s *fakeUserStore) byEmail(email string) *model.User {
	for _, user := range s.users {
		if user.Email == email {
			return user
		}
	}
	return nil
}

func (s *fakeUserStore) delete(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
}

func (s *fakeUserStore) setExpiry(username string, expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username].PasswordResetTokenExpiry = &expiry
}

type fakeMailer struct {
	mu            sync.Mutex
	confirmations []string
	resets        map[string]string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{resets: make(map[string]string)}
}

func (m *fakeMailer) SendConfirmation(email, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, email)
}

func (m *fakeMailer) SendPasswordReset(email, _, ticket string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[email] = ticket
}

func (m *fakeMailer) lastReset(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[email]
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "test-secret",
		JWTAlgorithm:         "HS256",
		AccessTokenTTL:       "3600",
		SessionCacheTTL:      "10",
		ResetTicketTTLMinute: "5",
		BcryptCost:           "4",
	}
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserStore, *fakeMailer) {
	t.Helper()
	cfg := testAuthConfig()

	codec, err := NewTokenCodec(cfg)
	require.NoError(t, err)
	hasher, err := NewPasswordHasher(cfg)
	require.NoError(t, err)

	store := newFakeUserStore()
	mailer := newFakeMailer()
	svc, err := NewAuthService(store, cache.NewMemoryCache(), mailer, hasher, codec, cfg, zap.NewNop())
	require.NoError(t, err)
	return svc, store, mailer
}

func register(t *testing.T, svc *AuthService, username, email string) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), model.RegisterRequest{
		Username: username,
		Email:    email,
		Password: "secret123",
	})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)

	user := register(t, svc, "alice", "a@x.com")
	assert.False(t, user.Confirmed)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, "secret123", user.HashedPassword)
	assert.Contains(t, user.Avatar, "gravatar.com")
	assert.Equal(t, []string{"a@x.com"}, mailer.confirmations)

	// Distinct usernames and emails both succeed.
	register(t, svc, "bob", "b@x.com")
}

func TestRegisterConflicts(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	register(t, svc, "alice", "a@x.com")

	// Same email and same username: the email conflict wins.
	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(context.Background(), model.RegisterRequest{
		Username: "alice2", Email: "a@x.com", Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(context.Background(), model.RegisterRequest{
		Username: "alice", Email: "a2@x.com", Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "alice", "a@x.com")

	// Unknown user and wrong password are indistinguishable.
	_, err := svc.Login(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Correct password on an unconfirmed account is still rejected, with its
	// own message.
	_, err = svc.Login(ctx, "alice", "secret123")
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)

	require.NoError(t, svc.store.ConfirmEmail(ctx, "a@x.com"))

	token, err := svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestCurrentPrincipal(t *testing.T) {
	svc, store, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "alice", "a@x.com")
	require.NoError(t, store.ConfirmEmail(ctx, "a@x.com"))

	token, err := svc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	user, err := svc.CurrentPrincipal(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.Confirmed)

	// Second resolve is served from the cache: deleting the user from the
	// store does not invalidate the principal within the TTL window.
	store.delete("alice")
	cached, err := svc.CurrentPrincipal(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", cached.Username)

	_, err = svc.CurrentPrincipal(ctx, "garbage-token")
	assert.ErrorIs(t, err, ErrCredentials)
}

func TestCurrentPrincipalUnknownSubject(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	token, err := svc.codec.IssueAccessToken("ghost")
	require.NoError(t, err)

	_, err = svc.CurrentPrincipal(context.Background(), token)
	assert.ErrorIs(t, err, ErrCredentials)
}

func TestConfirmEmailIdempotent(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "alice", "a@x.com")

	token, err := svc.codec.IssueEmailToken("a@x.com")
	require.NoError(t, err)

	message, err := svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "email confirmed", message)

	message, err = svc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "your email is already confirmed", message)

	_, err = svc.ConfirmEmail(ctx, "garbage-token")
	assert.ErrorIs(t, err, ErrEmailTokenInvalid)

	ghost, err := svc.codec.IssueEmailToken("ghost@x.com")
	require.NoError(t, err)
	_, err = svc.ConfirmEmail(ctx, ghost)
	assert.ErrorIs(t, err, ErrVerification)
}

func TestRequestEmailReconfirmation(t *testing.T) {
	svc, store, mailer := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "alice", "a@x.com")

	_, err := svc.RequestEmailReconfirmation(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	message, err := svc.RequestEmailReconfirmation(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "check your email for confirmation", message)
	assert.Len(t, mailer.confirmations, 2) // registration plus re-request

	require.NoError(t, store.ConfirmEmail(ctx, "a@x.com"))
	message, err = svc.RequestEmailReconfirmation(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "your email is already confirmed", message)
	assert.Len(t, mailer.confirmations, 2)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, store, mailer := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "alice", "a@x.com")
	require.NoError(t, store.ConfirmEmail(ctx, "a@x.com"))

	_, err := svc.RequestPasswordReset(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.RequestPasswordReset(ctx, "a@x.com")
	require.NoError(t, err)
	ticket := mailer.lastReset("a@x.com")
	require.NotEmpty(t, ticket)

	_, err = svc.CompletePasswordReset(ctx, model.PasswordResetRequest{
		Email: "a@x.com", Token: "wrong-ticket", NewPassword: "newsecret1",
	})
	assert.ErrorIs(t, err, ErrInvalidResetTicket)

	_, err = svc.CompletePasswordReset(ctx, model.PasswordResetRequest{
		Email: "ghost@x.com", Token: ticket, NewPassword: "newsecret1",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)

	message, err := svc.CompletePasswordReset(ctx, model.PasswordResetRequest{
		Email: "a@x.com", Token: ticket, NewPassword: "newsecret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "password changed successfully", message)

	// Ticket is retired with the hash update; replay within what would have
	// been the expiry window fails.
	_, err = svc.CompletePasswordReset(ctx, model.PasswordResetRequest{
		Email: "a@x.com", Token: ticket, NewPassword: "another-one1",
	})
	assert.ErrorIs(t, err, ErrInvalidResetTicket)

	_, err = svc.Login(ctx, "alice", "secret123")
	assert.ErrorIs(t, err, ErrUnauthorized)
	token, err := svc.Login(ctx, "alice", "newsecret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestPasswordResetExpiry(t *testing.T) {
	svc, store, mailer := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "alice", "a@x.com")

	_, err := svc.RequestPasswordReset(ctx, "a@x.com")
	require.NoError(t, err)
	ticket := mailer.lastReset("a@x.com")

	// Just before expiry the ticket is good; just after it is not, and the
	// expired attempt does not consume it.
	store.setExpiry("alice", time.Now().Add(time.Second))
	_, err = svc.CompletePasswordReset(ctx, model.PasswordResetRequest{
		Email: "a@x.com", Token: ticket, NewPassword: "newsecret1",
	})
	require.NoError(t, err)

	_, err = svc.RequestPasswordReset(ctx, "a@x.com")
	require.NoError(t, err)
	ticket = mailer.lastReset("a@x.com")
	store.setExpiry("alice", time.Now().Add(-time.Second))

	_, err = svc.CompletePasswordReset(ctx, model.PasswordResetRequest{
		Email: "a@x.com", Token: ticket, NewPassword: "newsecret2",
	})
	assert.ErrorIs(t, err, ErrResetTicketExpired)
}

func TestPasswordResetOverwrite(t *testing.T) {
	svc, _, mailer := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "alice", "a@x.com")

	_, err := svc.RequestPasswordReset(ctx, "a@x.com")
	require.NoError(t, err)
	first := mailer.lastReset("a@x.com")

	_, err = svc.RequestPasswordReset(ctx, "a@x.com")
	require.NoError(t, err)
	second := mailer.lastReset("a@x.com")
	require.NotEqual(t, first, second)

	// The superseded ticket is dead.
	_, err = svc.CompletePasswordReset(ctx, model.PasswordResetRequest{
		Email: "a@x.com", Token: first, NewPassword: "newsecret1",
	})
	assert.ErrorIs(t, err, ErrInvalidResetTicket)

	_, err = svc.CompletePasswordReset(ctx, model.PasswordResetRequest{
		Email: "a@x.com", Token: second, NewPassword: "newsecret1",
	})
	require.NoError(t, err)
}
