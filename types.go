package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetSecureCookies() bool
}

// Client carries per-request caller information recorded alongside
// sessions, refresh tokens, and login attempts.
type Client struct {
	IP        string
	UserAgent string
}

// UserStore is the minimal read surface the authenticator and resolver
// need from the users repository. Absent users are (nil, nil), not errors.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// SessionStore manages server-side session records keyed by opaque token.
type SessionStore interface {
	Create(ctx context.Context, session *Session) (*Session, error)
	// GetByToken loads the session together with its user, the user's
	// system role, and all project memberships in a single read.
	GetByToken(ctx context.Context, token string) (*Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByID(ctx context.Context, userID, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Session, error)
	DeleteExpired(ctx context.Context) (int, error)
}

// RefreshTokenStore manages long-lived refresh token records. Tokens are
// stored hashed; revocation is soft (revoked_at set, row kept).
type RefreshTokenStore interface {
	Create(ctx context.Context, token *RefreshToken) (*RefreshToken, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]*RefreshToken, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// LoginAttemptStore appends to and counts the login attempt audit trail.
type LoginAttemptStore interface {
	Record(ctx context.Context, attempt *LoginAttempt) error
	CountRecentFailures(ctx context.Context, email string, since time.Time) (int, error)
	// LastFailureAt returns the timestamp of the most recent failed
	// attempt at or after since, or nil when there is none.
	LastFailureAt(ctx context.Context, email string, since time.Time) (*time.Time, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
