// Package cache holds the short-lived session cache that maps a raw access
// token to a denormalized principal snapshot. Entries are advisory: a miss or
// a cache failure always falls back to token verification plus a store lookup.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when no entry exists for the token.
var ErrMiss = errors.New("session cache miss")

// Session is the cached principal snapshot. Staleness is bounded by the cache
// TTL, which also bounds how long a revoked role or un-confirmed flag can
// linger.
type Session struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	Confirmed bool   `json:"confirmed"`
	Role      string `json:"role"`
}

type SessionCache interface {
	Lookup(ctx context.Context, token string) (*Session, error)
	Store(ctx context.Context, token string, session *Session, ttl time.Duration) error
}
