package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository manages the single refresh-token pointer stored on each
// user row. Every mutation is one statement, so rotation is atomic per user.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Set overwrites any previous refresh token and reactivates the session.
func (r *TokenRepository) Set(ctx context.Context, userID int64, token string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $2, status = TRUE, updated_at = now() WHERE id = $1`,
		userID, token)
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("user", userID)
	}
	return nil
}

// Swap replaces current with next only if current is still the stored value.
// It reports false when another request rotated or cleared the token first.
func (r *TokenRepository) Swap(ctx context.Context, userID int64, current string, next string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $3, updated_at = now()
		 WHERE id = $1 AND refresh_token = $2`,
		userID, current, next)
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TokenRepository) Clear(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = NULL, updated_at = now() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// EndSession clears the token and marks the account logged out, provided the
// session is active and current is the stored token.
func (r *TokenRepository) EndSession(ctx context.Context, userID int64, current string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = NULL, status = FALSE, updated_at = now()
		 WHERE id = $1 AND status AND refresh_token = $2`,
		userID, current)
	if err != nil {
		return false, fmt.Errorf("end session: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
