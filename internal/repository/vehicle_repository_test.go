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
)

func errDuplicate1062() error {
	return errors.New("Error 1062 (23000): Duplicate entry")
}

func newVehicleRepo(t *testing.T) (*VehicleRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewVehicleRepo(db), mock
}

func TestCreateVehicleUppercasesPlate(t *testing.T) {
	repo, mock := newVehicleRepo(t)

	mock.ExpectExec("INSERT INTO vehicles").
		WithArgs("ABC1D23", "Marcopolo", "Paradiso", uint64(2)).
		WillReturnResult(sqlmock.NewResult(4, 1))

	v := model.Vehicle{Plate: " abc1d23 ", Brand: "Marcopolo", Model: "Paradiso", CompanyID: 2}
	require.NoError(t, repo.Create(context.Background(), &v))
	assert.Equal(t, uint64(4), v.ID)
}

func TestCreateVehicleDuplicatePlate(t *testing.T) {
	repo, mock := newVehicleRepo(t)

	mock.ExpectExec("INSERT INTO vehicles").
		WillReturnError(errDuplicate1062())

	v := model.Vehicle{Plate: "ABC1D23", Brand: "Marcopolo", Model: "Paradiso", CompanyID: 2}
	assert.ErrorIs(t, repo.Create(context.Background(), &v), ErrConflict)
}

func TestDeleteVehicleStillAssigned(t *testing.T) {
	repo, mock := newVehicleRepo(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM route_vehicles WHERE vehicle_id=\\?").
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	assert.ErrorIs(t, repo.Delete(context.Background(), 4, 2), ErrConflict)
}

func TestListVehiclesScopedToCompanyAcrossPages(t *testing.T) {
	repo, mock := newVehicleRepo(t)

	cols := []string{"id", "plate", "brand", "model", "company_id", "is_active", "created_at", "updated_at"}
	now := time.Now()

	// Page 1: both the count and the page query must carry the
	// supervisor's company id.
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM vehicles WHERE 1=1 AND company_id=\\?").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT .+ FROM vehicles WHERE 1=1 AND company_id=\\? ORDER BY created_at DESC LIMIT \\? OFFSET \\?").
		WithArgs(uint64(1), 2, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "AAA1A11", "VW", "Volksbus", 1, true, now, now).
			AddRow(2, "BBB2B22", "Marcopolo", "Paradiso", 1, true, now, now))

	page1, total, err := repo.List(context.Background(), VehicleFilter{CompanyID: 1, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page1, 2)
	for _, v := range page1 {
		assert.Equal(t, uint64(1), v.CompanyID)
	}

	// Page 2: the scope filter stays bound on later windows too.
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM vehicles WHERE 1=1 AND company_id=\\?").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT .+ FROM vehicles WHERE 1=1 AND company_id=\\? ORDER BY created_at DESC LIMIT \\? OFFSET \\?").
		WithArgs(uint64(1), 2, 2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(3, "CCC3C33", "Mercedes", "O500", 1, true, now, now))

	page2, total, err := repo.List(context.Background(), VehicleFilter{CompanyID: 1, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page2, 1)
	assert.Equal(t, uint64(1), page2[0].CompanyID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteVehicleScopedToCompany(t *testing.T) {
	repo, mock := newVehicleRepo(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM route_vehicles WHERE vehicle_id=\\?").
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// Wrong company: zero rows affected maps to not found.
	mock.ExpectExec("DELETE FROM vehicles WHERE id=\\? AND company_id=\\?").
		WithArgs(uint64(4), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 4, 9), ErrNotFound)
}
