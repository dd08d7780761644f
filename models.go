package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. PasswordHash is nullable: a nil hash marks an
// OAuth-only account that can never log in with a password.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID        `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string           `bun:"email,notnull,unique" json:"email,omitempty"`
	Name          string           `bun:"name" json:"name,omitempty"`
	Image         string           `bun:"image" json:"image,omitempty"`
	PasswordHash  *string          `bun:"password_hash" json:"-"`
	EmailVerified bool             `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	SystemRole    *SystemRole      `bun:"rel:has-one,join:id=user_id" json:"system_role,omitempty"`
	Memberships   []*ProjectMember `bun:"rel:has-many,join:id=user_id" json:"memberships,omitempty"`
	LoggedInAt    *time.Time       `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt     *time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time       `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time       `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != nil && *u.PasswordHash != ""
}

// PublicUser is the projection returned to clients. It never carries
// credentials or role information.
type PublicUser struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	Image         string    `json:"image,omitempty"`
	EmailVerified bool      `json:"email_verified"`
}

// Public returns the client-safe projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Image:         u.Image,
		EmailVerified: u.EmailVerified,
	}
}

// SystemRole is the optional system-wide role row; at most one per user.
type SystemRole struct {
	bun.BaseModel `bun:"table:user_system_roles,alias:sysr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	Role          UserRole   `bun:"role,notnull" json:"role,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Project carries the minimum the auth core needs from the projects table:
// the name embedded into membership projections.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:prj"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// ProjectMember is one (project, user) membership row.
type ProjectMember struct {
	bun.BaseModel `bun:"table:project_members,alias:pmb"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ProjectID     uuid.UUID  `bun:"project_id,notnull,type:uuid" json:"project_id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Role          UserRole   `bun:"role,notnull" json:"role,omitempty"`
	Project       *Project   `bun:"rel:belongs-to,join:project_id=id" json:"project,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Session is a server-side login record bound to an opaque token. One row
// per device; a user may hold many concurrent sessions.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"-"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	IPAddress     string     `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent     string     `bun:"user_agent" json:"user_agent,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && now.After(s.ExpiresAt)
}

// RefreshToken is the persisted record of an issued refresh token. The raw
// signed token is never stored; TokenHash holds its bcrypt digest.
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rft"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	TokenHash     string     `bun:"token_hash,notnull" json:"-"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	IPAddress     string     `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent     string     `bun:"user_agent" json:"user_agent,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at"`
	RevokedAt     *time.Time `bun:"revoked_at,nullzero" json:"revoked_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Active reports whether the record is neither revoked nor expired.
func (t *RefreshToken) Active(now time.Time) bool {
	if t == nil || t.RevokedAt != nil {
		return false
	}
	return now.Before(t.ExpiresAt)
}

// LoginAttempt is one append-only audit row. Rows are never updated or
// deleted by this core; the throttle only counts them.
type LoginAttempt struct {
	bun.BaseModel `bun:"table:login_attempts,alias:lga"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	IPAddress     string     `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent     string     `bun:"user_agent" json:"user_agent,omitempty"`
	Success       bool       `bun:"success,notnull" json:"success"`
	FailureReason *string    `bun:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// NormalizeEmail lowers and trims an email for case-insensitive lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
