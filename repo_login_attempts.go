package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LoginAttempts is the bun-backed LoginAttemptStore. The table is append
// only: this repository exposes no update or delete.
type LoginAttempts struct {
	db *bun.DB
}

// NewLoginAttemptsRepository creates a new repository.
func NewLoginAttemptsRepository(db *bun.DB) *LoginAttempts {
	return &LoginAttempts{db: db}
}

var _ LoginAttemptStore = (*LoginAttempts)(nil)

// Record appends one attempt row.
func (r *LoginAttempts) Record(ctx context.Context, attempt *LoginAttempt) error {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if attempt.CreatedAt == nil {
		now := time.Now()
		attempt.CreatedAt = &now
	}

	_, err := r.db.NewInsert().Model(attempt).Exec(ctx)
	return err
}

// CountRecentFailures counts failed attempts for the email at or after
// since. Email comparison is case-insensitive.
func (r *LoginAttempts) CountRecentFailures(ctx context.Context, email string, since time.Time) (int, error) {
	return r.db.NewSelect().
		Model((*LoginAttempt)(nil)).
		Where("LOWER(email) = LOWER(?)", email).
		Where("success = ?", false).
		Where("created_at >= ?", since).
		Count(ctx)
}

// LastFailureAt returns when the most recent failure in the window
// happened, or nil when the window holds none.
func (r *LoginAttempts) LastFailureAt(ctx context.Context, email string, since time.Time) (*time.Time, error) {
	attempt := &LoginAttempt{}
	err := r.db.NewSelect().
		Model(attempt).
		Column("created_at").
		Where("LOWER(email) = LOWER(?)", email).
		Where("success = ?", false).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return attempt.CreatedAt, nil
}
