package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens is the bun-backed RefreshTokenStore.
type RefreshTokens struct {
	db *bun.DB
}

// NewRefreshTokensRepository creates a new repository.
func NewRefreshTokensRepository(db *bun.DB) *RefreshTokens {
	return &RefreshTokens{db: db}
}

var _ RefreshTokenStore = (*RefreshTokens)(nil)

// Create persists a new refresh token record.
func (r *RefreshTokens) Create(ctx context.Context, token *RefreshToken) (*RefreshToken, error) {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	if _, err := r.db.NewInsert().Model(token).Exec(ctx); err != nil {
		return nil, err
	}
	return token, nil
}

// GetActiveByUser returns the user's non-revoked, unexpired records,
// newest first.
func (r *RefreshTokens) GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]*RefreshToken, error) {
	var tokens []*RefreshToken
	err := r.db.NewSelect().
		Model(&tokens).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Where("expires_at > ?", time.Now()).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*RefreshToken{}, nil
		}
		return nil, err
	}
	return tokens, nil
}

// Revoke soft-revokes a single record. Already revoked rows are untouched.
func (r *RefreshTokens) Revoke(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("revoked_at = ?", time.Now()).
		Where("id = ?", id).
		Where("revoked_at IS NULL").
		Exec(ctx)
	return err
}

// RevokeAllForUser soft-revokes every non-revoked record the user holds.
// Rows are kept; revoked_at is the terminal marker.
func (r *RefreshTokens) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	res, err := r.db.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("revoked_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
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
