package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/contacthub/backend/internal/cache"
	"github.com/contacthub/backend/internal/client"
	"github.com/contacthub/backend/internal/config"
	"github.com/contacthub/backend/internal/db"
	"github.com/contacthub/backend/internal/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// UserStore is the external collaborator that owns user records. The auth
// core never sees storage error shapes beyond the no-rows and unique-violation
// checks below.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, username, email, hashedPassword, avatar string) (*model.User, error)
	ConfirmEmail(ctx context.Context, email string) error
	SetResetTicket(ctx context.Context, email, ticket string, expiry time.Time) error
	UpdateHashedPassword(ctx context.Context, email, hashedPassword string) error
}

// Mailer is the email collaborator. Both sends are fire-and-forget; delivery
// failure never reaches the caller of the endpoint that triggered it.
type Mailer interface {
	SendConfirmation(email, username string)
	SendPasswordReset(email, username, ticket string)
}

// AuthService composes the credential hasher, token codec, session cache and
// reset-ticket handling into the register/login/confirm/reset flows, and
// resolves the current principal for every protected endpoint.
type AuthService struct {
	store    UserStore
	sessions cache.SessionCache
	mailer   Mailer
	hasher   *PasswordHasher
	codec    *TokenCodec
	cacheTTL time.Duration
	resetTTL time.Duration
	logger   *zap.Logger
}

func NewAuthService(store UserStore, sessions cache.SessionCache, mailer Mailer, hasher *PasswordHasher, codec *TokenCodec, cfg config.AuthConfig, logger *zap.Logger) (*AuthService, error) {
	cacheTTLSeconds, err := strconv.Atoi(cfg.SessionCacheTTL)
	if err != nil || cacheTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid SESSION_CACHE_TTL_SECONDS: %q", cfg.SessionCacheTTL)
	}

	resetTTLMinutes, err := strconv.Atoi(cfg.ResetTicketTTLMinute)
	if err != nil || resetTTLMinutes <= 0 {
		return nil, fmt.Errorf("invalid RESET_TOKEN_TTL_MINUTES: %q", cfg.ResetTicketTTLMinute)
	}

	return &AuthService{
		store:    store,
		sessions: sessions,
		mailer:   mailer,
		hasher:   hasher,
		codec:    codec,
		cacheTTL: time.Duration(cacheTTLSeconds) * time.Second,
		resetTTL: time.Duration(resetTTLMinutes) * time.Minute,
		logger:   logger,
	}, nil
}

// Register creates an unconfirmed account and triggers the confirmation mail.
// The email conflict is checked before the username conflict, so a request
// that collides on both reports the email first.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !db.IsNoRows(err) {
		return nil, err
	}

	if _, err := s.store.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !db.IsNoRows(err) {
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, req.Username, req.Email, hashed, client.GravatarURL(req.Email))
	if err != nil {
		// The existence checks above race with concurrent registrations; the
		// unique constraints are the source of truth.
		if constraint, ok := uniqueViolation(err); ok {
			if strings.Contains(constraint, "email") {
				return nil, ErrEmailTaken
			}
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.mailer.SendConfirmation(user.Email, user.Username)
	return user, nil
}

// Login verifies credentials and issues an access token. An unknown username
// and a wrong password return the identical error so usernames cannot be
// enumerated; an unconfirmed account is rejected with its own message.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if db.IsNoRows(err) {
			return "", ErrUnauthorized
		}
		return "", err
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		return "", ErrUnauthorized
	}

	if !user.Confirmed {
		return "", ErrEmailNotConfirmed
	}

	return s.codec.IssueAccessToken(user.Username)
}

// CurrentPrincipal resolves the caller behind a bearer token. The session
// cache is tried first; a hit is trusted without re-verifying the token or
// touching the store, bounded by the cache TTL. On a miss the token is
// verified, the user loaded, and the cache populated.
func (s *AuthService) CurrentPrincipal(ctx context.Context, token string) (*model.User, error) {
	session, err := s.sessions.Lookup(ctx, token)
	if err == nil {
		return &model.User{
			ID:        session.ID,
			Username:  session.Username,
			Email:     session.Email,
			Avatar:    session.Avatar,
			Confirmed: session.Confirmed,
			Role:      session.Role,
		}, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("session cache lookup failed", zap.Error(err))
	}

	username, err := s.codec.VerifyAccessToken(token)
	if err != nil {
		return nil, ErrCredentials
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrCredentials
		}
		return nil, err
	}

	if err := s.sessions.Store(ctx, token, &cache.Session{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Avatar:    user.Avatar,
		Confirmed: user.Confirmed,
		Role:      user.Role,
	}, s.cacheTTL); err != nil {
		s.logger.Warn("session cache store failed", zap.Error(err))
	}

	return user, nil
}

// ConfirmEmail flips the confirmed flag for the address carried by the token.
// Confirming twice is not an error.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (string, error) {
	email, err := s.codec.VerifyEmailToken(token)
	if err != nil {
		return "", ErrEmailTokenInvalid
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			return "", ErrVerification
		}
		return "", err
	}

	if user.Confirmed {
		return "your email is already confirmed", nil
	}

	if err := s.store.ConfirmEmail(ctx, email); err != nil {
		return "", err
	}
	return "email confirmed", nil
}

// RequestEmailReconfirmation re-sends the confirmation mail for an
// unconfirmed account.
func (s *AuthService) RequestEmailReconfirmation(ctx context.Context, email string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	if user.Confirmed {
		return "your email is already confirmed", nil
	}

	s.mailer.SendConfirmation(user.Email, user.Username)
	return "check your email for confirmation", nil
}

// RequestPasswordReset issues a fresh single-use ticket with a short expiry
// and mails it out. A repeated request overwrites the previous ticket.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	ticket, err := newResetTicket()
	if err != nil {
		return "", err
	}

	if err := s.store.SetResetTicket(ctx, user.Email, ticket, time.Now().Add(s.resetTTL)); err != nil {
		return "", err
	}

	s.mailer.SendPasswordReset(user.Email, user.Username, ticket)
	return "check your email for password reset instructions", nil
}

// CompletePasswordReset stores a new password if the presented ticket matches
// the stored one and has not expired. The store retires the ticket together
// with the hash update, so a consumed ticket cannot be replayed.
func (s *AuthService) CompletePasswordReset(ctx context.Context, req model.PasswordResetRequest) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if db.IsNoRows(err) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	if user.PasswordResetToken == nil || *user.PasswordResetToken != req.Token {
		return "", ErrInvalidResetTicket
	}

	if user.PasswordResetTokenExpiry == nil || !user.PasswordResetTokenExpiry.After(time.Now()) {
		return "", ErrResetTicketExpired
	}

	hashed, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return "", err
	}

	if err := s.store.UpdateHashedPassword(ctx, user.Email, hashed); err != nil {
		return "", err
	}
	return "password changed successfully", nil
}

// newResetTicket draws 16 random bytes, far above the entropy floor a
// guessable reset path would need.
func newResetTicket() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
