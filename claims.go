package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind separates access tokens from refresh tokens at the claim level.
// A refresh JWT never validates as an access token and vice versa.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenSubject is the minimal identity payload embedded in signed tokens.
type TokenSubject struct {
	UserID uuid.UUID
	Email  string
	Roles  []string
}

// JWTClaims is the signed claim set for both token kinds.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID   string    `json:"uid,omitempty"`
	Email string    `json:"email,omitempty"`
	Roles []string  `json:"roles,omitempty"`
	Kind  TokenKind `json:"kind,omitempty"`
}

// UserID returns the user ID, falling back to the subject claim.
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// UserUUID parses the user ID claim.
func (c *JWTClaims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID())
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *JWTClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// ensureTokenID assigns a jti when the claims do not carry one.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
