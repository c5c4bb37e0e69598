package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/contacthub/backend/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Email-confirmation tokens share the signing secret with access tokens and
// are told apart by claim shape alone (the scope claim). They stay valid for
// their full lifetime even after use; confirmation is idempotent.
const emailTokenTTL = 7 * 24 * time.Hour

const scopeEmail = "email"

// TokenCodec signs and verifies the compact tokens used as access credentials
// and email-confirmation links. Verification fails closed: any signature or
// shape problem is ErrInvalidToken, a past exp is ErrTokenExpired.
type TokenCodec struct {
	secret    []byte
	method    jwt.SigningMethod
	accessTTL time.Duration
}

type accessClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

func NewTokenCodec(cfg config.AuthConfig) (*TokenCodec, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	var method jwt.SigningMethod
	switch cfg.JWTAlgorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM: %s", cfg.JWTAlgorithm)
	}

	ttlSeconds, err := strconv.Atoi(cfg.AccessTokenTTL)
	if err != nil || ttlSeconds <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_SECONDS: %q", cfg.AccessTokenTTL)
	}

	return &TokenCodec{
		secret:    []byte(cfg.JWTSecret),
		method:    method,
		accessTTL: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func (c *TokenCodec) AccessTokenTTL() time.Duration {
	return c.accessTTL
}

// IssueAccessToken signs a stateless bearer credential with sub=username.
func (c *TokenCodec) IssueAccessToken(username string) (string, error) {
	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	}
	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// IssueEmailToken signs a confirmation token with sub=email and a fixed
// 7-day expiry.
func (c *TokenCodec) IssueEmailToken(email string) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Scope: scopeEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(emailTokenTTL)),
		},
	}
	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// VerifyAccessToken returns the username an access token was issued for.
func (c *TokenCodec) VerifyAccessToken(token string) (string, error) {
	claims, err := c.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Scope != "" || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// VerifyEmailToken returns the email a confirmation token was issued for.
// Access tokens are rejected here; an API credential must not confirm an
// address.
func (c *TokenCodec) VerifyEmailToken(token string) (string, error) {
	claims, err := c.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Scope != scopeEmail || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (c *TokenCodec) parse(tokenStr string) (*accessClaims, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != c.method.Alg() {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
