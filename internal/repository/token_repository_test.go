package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabus/transit-admin/internal/model"
)

func newTokenRepo(t *testing.T) (*TokenRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTokenRepo(db), mock
}

func TestSetRefreshRotatesInOneTransaction(t *testing.T) {
	repo, mock := newTokenRepo(t)
	exp := time.Now().Add(7 * 24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tokens SET used_at=NOW\\(\\)").
		WithArgs(uint64(5), model.TokenRefresh).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tokens").
		WithArgs(uint64(5), "hash", model.TokenRefresh, exp).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectCommit()

	err := repo.SetRefresh(context.Background(), 5, "hash", exp)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRefreshRollsBackOnInsertFailure(t *testing.T) {
	repo, mock := newTokenRepo(t)
	exp := time.Now().Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tokens SET used_at=NOW\\(\\)").
		WithArgs(uint64(5), model.TokenRefresh).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tokens").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.SetRefresh(context.Background(), 5, "hash", exp)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateAcceptsFreshToken(t *testing.T) {
	repo, mock := newTokenRepo(t)

	rows := sqlmock.NewRows([]string{"user_id", "expires_at", "used_at"}).
		AddRow(7, time.Now().Add(time.Hour), nil)
	mock.ExpectQuery("SELECT user_id, expires_at, used_at FROM tokens").
		WithArgs("hash", model.TokenRefresh).
		WillReturnRows(rows)

	userID, err := repo.Validate(context.Background(), "hash", model.TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), userID)
}

func TestValidateRejectsUsedToken(t *testing.T) {
	repo, mock := newTokenRepo(t)

	rows := sqlmock.NewRows([]string{"user_id", "expires_at", "used_at"}).
		AddRow(7, time.Now().Add(time.Hour), time.Now())
	mock.ExpectQuery("SELECT user_id, expires_at, used_at FROM tokens").
		WithArgs("hash", model.TokenRefresh).
		WillReturnRows(rows)

	_, err := repo.Validate(context.Background(), "hash", model.TokenRefresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	repo, mock := newTokenRepo(t)

	rows := sqlmock.NewRows([]string{"user_id", "expires_at", "used_at"}).
		AddRow(7, time.Now().Add(-time.Minute), nil)
	mock.ExpectQuery("SELECT user_id, expires_at, used_at FROM tokens").
		WithArgs("hash", model.TokenEmailVerification).
		WillReturnRows(rows)

	_, err := repo.Validate(context.Background(), "hash", model.TokenEmailVerification)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsUnknownToken(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectQuery("SELECT user_id, expires_at, used_at FROM tokens").
		WithArgs("missing", model.TokenPasswordReset).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "used_at"}))

	_, err := repo.Validate(context.Background(), "missing", model.TokenPasswordReset)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRevokeAllForUserScopedAndUnscoped(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectExec("UPDATE tokens SET used_at=NOW\\(\\) WHERE user_id=\\? AND type=\\? AND used_at IS NULL").
		WithArgs(uint64(3), model.TokenRefresh).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.RevokeAllForUser(context.Background(), 3, model.TokenRefresh))

	mock.ExpectExec("UPDATE tokens SET used_at=NOW\\(\\) WHERE user_id=\\? AND used_at IS NULL").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	require.NoError(t, repo.RevokeAllForUser(context.Background(), 3, ""))

	assert.NoError(t, mock.ExpectationsWereMet())
}
