package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/collabus/transit-admin/internal/model"
)

const vehicleColumns = "id,plate,brand,model,company_id,is_active,created_at,updated_at"

// VehicleRepo provides persistence for vehicles. All supervisor-driven
// operations carry the supervisor's company id and silently exclude
// rows of other companies (scope violations read as 404).
type VehicleRepo struct{ DB *sql.DB }

func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{DB: db} }

// Create inserts a vehicle and fills in its id. Duplicate plates map to
// ErrConflict.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO vehicles (plate, brand, model, company_id, is_active) VALUES (?,?,?,?,1)",
		strings.ToUpper(strings.TrimSpace(v.Plate)), v.Brand, v.Model, v.CompanyID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// GetByID fetches a vehicle. companyID 0 skips the scope filter
// (administrator); otherwise the row must belong to that company.
func (r *VehicleRepo) GetByID(ctx context.Context, id, companyID uint64) (model.Vehicle, error) {
	query := "SELECT " + vehicleColumns + " FROM vehicles WHERE id=?"
	args := []any{id}
	if companyID != 0 {
		query += " AND company_id=?"
		args = append(args, companyID)
	}
	var v model.Vehicle
	err := r.DB.QueryRowContext(ctx, query+" LIMIT 1", args...).
		Scan(&v.ID, &v.Plate, &v.Brand, &v.Model, &v.CompanyID, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vehicle{}, ErrNotFound
	}
	return v, err
}

// Update patches brand, model and/or active flag within the company
// scope.
func (r *VehicleRepo) Update(ctx context.Context, id, companyID uint64, brand, mdl string, isActive *bool) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if brand != "" {
		sets = append(sets, "brand=?")
		args = append(args, brand)
	}
	if mdl != "" {
		sets = append(sets, "model=?")
		args = append(args, mdl)
	}
	if isActive != nil {
		sets = append(sets, "is_active=?")
		args = append(args, *isActive)
	}
	if len(sets) == 0 {
		return nil
	}
	query := "UPDATE vehicles SET " + strings.Join(sets, ", ") + " WHERE id=?"
	args = append(args, id)
	if companyID != 0 {
		query += " AND company_id=?"
		args = append(args, companyID)
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a vehicle. A vehicle still assigned to routes cannot
// be deleted and maps to ErrConflict.
func (r *VehicleRepo) Delete(ctx context.Context, id, companyID uint64) error {
	var assigned int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM route_vehicles WHERE vehicle_id=?", id).Scan(&assigned); err != nil {
		return err
	}
	if assigned > 0 {
		return ErrConflict
	}
	query := "DELETE FROM vehicles WHERE id=?"
	args := []any{id}
	if companyID != 0 {
		query += " AND company_id=?"
		args = append(args, companyID)
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// VehicleFilter narrows List. CompanyID 0 means all companies and is
// only reachable by administrators.
type VehicleFilter struct {
	CompanyID uint64
	Search    string
	IsActive  *bool
	Page      int
	Limit     int
}

// List returns a page of vehicles plus the total count.
func (r *VehicleRepo) List(ctx context.Context, f VehicleFilter) ([]model.Vehicle, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.CompanyID != 0 {
		where = append(where, "company_id=?")
		args = append(args, f.CompanyID)
	}
	if f.IsActive != nil {
		where = append(where, "is_active=?")
		args = append(args, *f.IsActive)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(plate LIKE ? OR brand LIKE ? OR model LIKE ?)")
		pat := "%" + s + "%"
		args = append(args, pat, pat, pat)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vehicles WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+vehicleColumns+" FROM vehicles WHERE "+cond+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Vehicle, 0, f.Limit)
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.Plate, &v.Brand, &v.Model, &v.CompanyID,
			&v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

// ListAssignedToDriver returns vehicles linked to routes the driver is
// personally assigned to, via the route_vehicles and route_drivers join
// tables. Drivers never see another driver's assignments.
func (r *VehicleRepo) ListAssignedToDriver(ctx context.Context, driverID uint64, page, limit int) ([]model.Vehicle, int, error) {
	const base = `FROM vehicles v
		JOIN route_vehicles rv ON rv.vehicle_id = v.id
		JOIN route_drivers rd ON rd.route_id = rv.route_id
		WHERE rd.driver_id=?`

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT v.id) "+base, driverID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT DISTINCT v.id,v.plate,v.brand,v.model,v.company_id,v.is_active,v.created_at,v.updated_at "+
			base+" ORDER BY v.plate LIMIT ? OFFSET ?",
		driverID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Vehicle, 0, limit)
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.Plate, &v.Brand, &v.Model, &v.CompanyID,
			&v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

// CountActive counts active vehicles, optionally scoped to a company.
func (r *VehicleRepo) CountActive(ctx context.Context, companyID uint64) (int, error) {
	var n int
	var err error
	if companyID != 0 {
		err = r.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM vehicles WHERE is_active=1 AND company_id=?", companyID).Scan(&n)
	} else {
		err = r.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM vehicles WHERE is_active=1").Scan(&n)
	}
	return n, err
}
