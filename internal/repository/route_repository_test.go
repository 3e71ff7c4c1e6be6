package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabus/transit-admin/internal/model"
)

func newRouteRepo(t *testing.T) (*RouteRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRouteRepo(db), mock
}

func TestAssignDriverChecksCompany(t *testing.T) {
	repo, mock := newRouteRepo(t)

	// Driver 7 is not a MOTORISTA of company 2, so the count is zero.
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE id=\\? AND role=\\? AND company_id=\\?").
		WithArgs(uint64(7), model.RoleDriver, uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := repo.AssignDriver(context.Background(), 1, 7, 2)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAssignDriverInsertIgnore(t *testing.T) {
	repo, mock := newRouteRepo(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE id=\\? AND role=\\? AND company_id=\\?").
		WithArgs(uint64(7), model.RoleDriver, uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("INSERT IGNORE INTO route_drivers").
		WithArgs(uint64(1), uint64(7)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.AssignDriver(context.Background(), 1, 7, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignDriverUnscopedForAdmin(t *testing.T) {
	repo, mock := newRouteRepo(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE id=\\? AND role=\\?$").
		WithArgs(uint64(7), model.RoleDriver).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("INSERT IGNORE INTO route_drivers").
		WithArgs(uint64(1), uint64(7)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.AssignDriver(context.Background(), 1, 7, 0))
}

func TestRemoveDriverUnknownPair(t *testing.T) {
	repo, mock := newRouteRepo(t)

	mock.ExpectExec("DELETE FROM route_drivers").
		WithArgs(uint64(1), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.RemoveDriver(context.Background(), 1, 7), ErrNotFound)
}

func TestCreateRouteDuplicateCode(t *testing.T) {
	repo, mock := newRouteRepo(t)

	mock.ExpectExec("INSERT INTO routes").
		WillReturnError(errDuplicate1062())

	rt := model.Route{Code: "r-001", Origin: "Centro", Destination: "Rodoviária", State: "sp", City: "Campinas"}
	assert.ErrorIs(t, repo.Create(context.Background(), &rt), ErrConflict)
}
