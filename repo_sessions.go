package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Sessions is the bun-backed SessionStore.
type Sessions struct {
	db *bun.DB
}

// NewSessionsRepository creates a new repository.
func NewSessionsRepository(db *bun.DB) *Sessions {
	return &Sessions{db: db}
}

var _ SessionStore = (*Sessions)(nil)

// Create persists a new session record.
func (r *Sessions) Create(ctx context.Context, session *Session) (*Session, error) {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	if _, err := r.db.NewInsert().Model(session).Exec(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// GetByToken loads a session with its user, the user's system role, and all
// project memberships with project names, in one read. An unknown token is
// (nil, nil), not an error.
func (r *Sessions) GetByToken(ctx context.Context, token string) (*Session, error) {
	session := &Session{}
	err := r.db.NewSelect().
		Model(session).
		Relation("User").
		Relation("User.SystemRole").
		Relation("User.Memberships").
		Relation("User.Memberships.Project").
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// DeleteByToken removes the session bound to the token. Deleting an absent
// token is a no-op.
func (r *Sessions) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	return err
}

// DeleteByID removes a specific session, scoped to its owner so one user
// can never revoke another's device.
func (r *Sessions) DeleteByID(ctx context.Context, userID, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}

// ListByUser returns all of a user's sessions, newest first.
func (r *Sessions) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	var sessions []*Session
	err := r.db.NewSelect().
		Model(&sessions).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*Session{}, nil
		}
		return nil, err
	}
	return sessions, nil
}

// DeleteExpired removes rows past their expiry. Best effort maintenance;
// every read path re-validates expires_at regardless.
func (r *Sessions) DeleteExpired(ctx context.Context) (int, error) {
	res, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("expires_at < ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
