package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/utils"
)

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

func userRow(t *testing.T, id uint64, email, password, role string, active bool) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "is_active",
		"company_id", "created_at", "updated_at",
	}).AddRow(id, "Fulano", email, hash, role, active, nil, time.Now(), time.Now())
}

func TestCreateNormalizesEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("Fulano", "fulano@collabus.com", sqlmock.AnyArg(), model.RolePassenger).
		WillReturnResult(sqlmock.NewResult(11, 1))

	id, err := repo.Create(context.Background(), "Fulano", "  Fulano@Collabus.COM ", "senha123", model.RolePassenger, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), id)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

	_, err := repo.Create(context.Background(), "Fulano", "fulano@collabus.com", "senha123", model.RolePassenger, 4)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("ghost@collabus.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Authenticate(context.Background(), "ghost@collabus.com", "whatever")
	assert.ErrorIs(t, err, ErrUnknownEmail)
}

func TestAuthenticateInactiveBeforePassword(t *testing.T) {
	// The inactive check runs before the password check, so even a wrong
	// password on an inactive account reports the activation problem.
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("novo@collabus.com").
		WillReturnRows(userRow(t, 1, "novo@collabus.com", "senha123", model.RolePassenger, false))

	_, err := repo.Authenticate(context.Background(), "novo@collabus.com", "senha-errada")
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestAuthenticateBadPassword(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("ativo@collabus.com").
		WillReturnRows(userRow(t, 2, "ativo@collabus.com", "senha123", model.RolePassenger, true))

	_, err := repo.Authenticate(context.Background(), "ativo@collabus.com", "senha-errada")
	assert.ErrorIs(t, err, ErrBadPassword)
}

func TestAuthenticateSuccess(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("ativo@collabus.com").
		WillReturnRows(userRow(t, 2, "ativo@collabus.com", "senha123", model.RoleSupervisor, true))

	u, err := repo.Authenticate(context.Background(), "ativo@collabus.com", "senha123")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), u.ID)
	assert.Equal(t, model.RoleSupervisor, u.Role)
}

func TestPromoteAndDemote(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users SET role=\\?, company_id=\\? WHERE id=\\?").
		WithArgs(model.RoleDriver, sqlmock.AnyArg(), uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Promote(context.Background(), 4, model.RoleDriver, 2))

	mock.ExpectExec("UPDATE users SET role=\\?, company_id=NULL WHERE id=\\?").
		WithArgs(model.RolePassenger, uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Demote(context.Background(), 4))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoteUnknownUser(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users SET role=\\?, company_id=NULL WHERE id=\\?").
		WithArgs(model.RolePassenger, uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Demote(context.Background(), 99), ErrNotFound)
}

func TestListByRoleScopesByCompany(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE role=\\? AND company_id=\\?").
		WithArgs(model.RoleDriver, uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE role=\\? AND company_id=\\? ORDER BY created_at DESC").
		WithArgs(model.RoleDriver, uint64(3), 10, 0).
		WillReturnRows(userRow(t, 5, "motorista@collabus.com", "senha123", model.RoleDriver, true))

	users, total, err := repo.ListByRole(context.Background(), UserFilter{
		Role: model.RoleDriver, CompanyID: 3, Page: 1, Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, uint64(5), users[0].ID)
}
