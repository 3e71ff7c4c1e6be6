package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/collabus/transit-admin/internal/model"
)

// TokenRepo persists token rows (refresh, activation, password reset).
// Rows are append-only; invalidation only ever sets used_at. Only the
// SHA-256 hash of the client-facing value is stored in token_hash.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a token row of the given type.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, tokenHash, typ string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tokens (user_id, token_hash, type, expires_at) VALUES (?,?,?,?)",
		userID, tokenHash, typ, exp)
	return err
}

// SetRefresh installs a new refresh token for the user. Any previously
// active refresh tokens are marked used inside the same transaction, so
// at most one active refresh token per user exists after commit.
// Concurrent sign-ins race at the database level and the last committed
// transaction wins.
func (r *TokenRepo) SetRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE tokens SET used_at=NOW() WHERE user_id=? AND type=? AND used_at IS NULL",
		userID, model.TokenRefresh); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO tokens (user_id, token_hash, type, expires_at) VALUES (?,?,?,?)",
		userID, tokenHash, model.TokenRefresh, exp); err != nil {
		return err
	}
	return tx.Commit()
}

// Validate returns the owning user id when a token of the given type
// exists, was never used and has not expired. Any other outcome is
// ErrTokenInvalid.
func (r *TokenRepo) Validate(ctx context.Context, tokenHash, typ string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		usedAt    sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, used_at FROM tokens WHERE token_hash=? AND type=? LIMIT 1",
		tokenHash, typ).Scan(&userID, &expiresAt, &usedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTokenInvalid
		}
		return 0, err
	}
	if usedAt.Valid || !time.Now().UTC().Before(expiresAt) {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}

// MarkUsed invalidates a single token. Marking an already used token
// again is a no-op.
func (r *TokenRepo) MarkUsed(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tokens SET used_at=NOW() WHERE token_hash=? AND used_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser marks all of a user's active tokens as used. When typ
// is empty every type is revoked; otherwise only that type. Idempotent.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64, typ string) error {
	if typ == "" {
		_, err := r.DB.ExecContext(ctx,
			"UPDATE tokens SET used_at=NOW() WHERE user_id=? AND used_at IS NULL",
			userID)
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tokens SET used_at=NOW() WHERE user_id=? AND type=? AND used_at IS NULL",
		userID, typ)
	return err
}
