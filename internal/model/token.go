package model

import (
	"database/sql"
	"time"
)

// Token types stored in the `tokens.type` column.
const (
	TokenRefresh           = "REFRESH"
	TokenEmailVerification = "EMAIL_VERIFICATION"
	TokenPasswordReset     = "PASSWORD_RESET"
)

// Token represents a row of the `tokens` table. Rows are append-only:
// the only in-place mutation ever performed is setting UsedAt, which
// permanently invalidates the token. Only a SHA-256 hash of the client
// facing value is stored.
type Token struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	Type      string
	ExpiresAt time.Time
	UsedAt    sql.NullTime
	CreatedAt time.Time
}

// Valid reports whether the token is still usable at instant now:
// never used and not yet expired.
func (t Token) Valid(now time.Time) bool {
	return !t.UsedAt.Valid && t.ExpiresAt.After(now)
}
