package service

import (
	"fmt"
	"strconv"

	"github.com/contacthub/backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher wraps bcrypt. Plaintext never leaves this type: callers hold
// either the plaintext or the opaque hash, never both past a call boundary.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cfg config.AuthConfig) (*PasswordHasher, error) {
	cost := bcrypt.DefaultCost
	if cfg.BcryptCost != "" {
		parsed, err := strconv.Atoi(cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		if parsed < bcrypt.MinCost || parsed > bcrypt.MaxCost {
			return nil, fmt.Errorf("BCRYPT_COST out of range: %d", parsed)
		}
		cost = parsed
	}
	return &PasswordHasher{cost: cost}, nil
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
