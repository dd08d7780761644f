package auth

import (
	"time"

	"github.com/google/uuid"
)

// Session and refresh record lifetimes. Remember-me extends both; OAuth
// logins use the fixed extended session / base refresh pair.
const (
	SessionTTL              = 24 * time.Hour
	ExtendedSessionTTL      = 7 * 24 * time.Hour
	RefreshTokenTTL         = 30 * 24 * time.Hour
	ExtendedRefreshTokenTTL = 90 * 24 * time.Hour
	OAuthSessionTTL         = ExtendedSessionTTL
	OAuthRefreshTokenTTL    = RefreshTokenTTL
)

// SessionDuration returns the session record lifetime for a login.
func SessionDuration(extended bool) time.Duration {
	if extended {
		return ExtendedSessionTTL
	}
	return SessionTTL
}

// RefreshDuration returns the refresh record lifetime for a login. This
// governs the database row, not the token signature.
func RefreshDuration(extended bool) time.Duration {
	if extended {
		return ExtendedRefreshTokenTTL
	}
	return RefreshTokenTTL
}

// NewSession builds an unsaved session record with a fresh opaque token.
func NewSession(userID uuid.UUID, client Client, ttl time.Duration) (*Session, error) {
	token, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
		ExpiresAt: now.Add(ttl),
		CreatedAt: &now,
	}, nil
}

// NewRefreshTokenRecord builds an unsaved refresh record holding the hash
// of the signed token. The raw token is never stored.
func NewRefreshTokenRecord(userID uuid.UUID, signedToken string, client Client, ttl time.Duration) (*RefreshToken, error) {
	hash, err := HashOpaqueToken(signedToken)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &RefreshToken{
		ID:        uuid.New(),
		TokenHash: hash,
		UserID:    userID,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
		ExpiresAt: now.Add(ttl),
		CreatedAt: &now,
	}, nil
}
