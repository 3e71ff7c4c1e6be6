package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/collabus/transit-admin/internal/model"
)

const routeColumns = "id,code,origin,destination,state,city,is_active,created_at,updated_at"

// RouteRepo provides persistence for routes and the driver/vehicle
// assignment join tables.
type RouteRepo struct{ DB *sql.DB }

func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{DB: db} }

// Create inserts a route and fills in its id. Duplicate codes map to
// ErrConflict. Code and state are normalized to uppercase.
func (r *RouteRepo) Create(ctx context.Context, rt *model.Route) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO routes (code, origin, destination, state, city, is_active) VALUES (?,?,?,?,?,1)",
		strings.ToUpper(strings.TrimSpace(rt.Code)), rt.Origin, rt.Destination,
		strings.ToUpper(strings.TrimSpace(rt.State)), rt.City)
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
	rt.ID = uint64(id)
	return nil
}

// GetByID fetches a route by id.
func (r *RouteRepo) GetByID(ctx context.Context, id uint64) (model.Route, error) {
	var rt model.Route
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+routeColumns+" FROM routes WHERE id=? LIMIT 1", id).
		Scan(&rt.ID, &rt.Code, &rt.Origin, &rt.Destination, &rt.State, &rt.City,
			&rt.IsActive, &rt.CreatedAt, &rt.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Route{}, ErrNotFound
	}
	return rt, err
}

// Update patches origin, destination, city and/or active flag.
func (r *RouteRepo) Update(ctx context.Context, id uint64, origin, destination, city string, isActive *bool) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if origin != "" {
		sets = append(sets, "origin=?")
		args = append(args, origin)
	}
	if destination != "" {
		sets = append(sets, "destination=?")
		args = append(args, destination)
	}
	if city != "" {
		sets = append(sets, "city=?")
		args = append(args, city)
	}
	if isActive != nil {
		sets = append(sets, "is_active=?")
		args = append(args, *isActive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE routes SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a route; schedules and assignments cascade via FKs.
func (r *RouteRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM routes WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RouteFilter narrows List.
type RouteFilter struct {
	Search   string
	State    string
	City     string
	IsActive *bool
	Page     int
	Limit    int
}

// List returns a page of routes plus the total count.
func (r *RouteRepo) List(ctx context.Context, f RouteFilter) ([]model.Route, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.State != "" {
		where = append(where, "state=?")
		args = append(args, strings.ToUpper(f.State))
	}
	if f.City != "" {
		where = append(where, "city=?")
		args = append(args, f.City)
	}
	if f.IsActive != nil {
		where = append(where, "is_active=?")
		args = append(args, *f.IsActive)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(code LIKE ? OR origin LIKE ? OR destination LIKE ?)")
		pat := "%" + s + "%"
		args = append(args, pat, pat, pat)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM routes WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+routeColumns+" FROM routes WHERE "+cond+" ORDER BY code LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Route, 0, f.Limit)
	for rows.Next() {
		var rt model.Route
		if err := rows.Scan(&rt.ID, &rt.Code, &rt.Origin, &rt.Destination, &rt.State,
			&rt.City, &rt.IsActive, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, rt)
	}
	return out, total, rows.Err()
}

// AssignDriver links a driver to a route. Re-assigning an existing pair
// is a no-op. The driver row must exist with the MOTORISTA role, and
// when companyID is non-zero it must also belong to that company.
func (r *RouteRepo) AssignDriver(ctx context.Context, routeID, driverID, companyID uint64) error {
	query := "SELECT COUNT(*) FROM users WHERE id=? AND role=?"
	args := []any{driverID, model.RoleDriver}
	if companyID != 0 {
		query += " AND company_id=?"
		args = append(args, companyID)
	}
	var ok int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return err
	}
	if ok == 0 {
		return ErrForbidden
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO route_drivers (route_id, driver_id) VALUES (?,?)", routeID, driverID)
	return err
}

// RemoveDriver unlinks a driver from a route.
func (r *RouteRepo) RemoveDriver(ctx context.Context, routeID, driverID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM route_drivers WHERE route_id=? AND driver_id=?", routeID, driverID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignVehicle links a vehicle to a route, scoped like AssignDriver.
func (r *RouteRepo) AssignVehicle(ctx context.Context, routeID, vehicleID, companyID uint64) error {
	query := "SELECT COUNT(*) FROM vehicles WHERE id=?"
	args := []any{vehicleID}
	if companyID != 0 {
		query += " AND company_id=?"
		args = append(args, companyID)
	}
	var ok int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return err
	}
	if ok == 0 {
		return ErrForbidden
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO route_vehicles (route_id, vehicle_id) VALUES (?,?)", routeID, vehicleID)
	return err
}

// RemoveVehicle unlinks a vehicle from a route.
func (r *RouteRepo) RemoveVehicle(ctx context.Context, routeID, vehicleID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM route_vehicles WHERE route_id=? AND vehicle_id=?", routeID, vehicleID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActive counts active routes. Routes are not company scoped, so
// the dashboard shows the same number to administrators and supervisors.
func (r *RouteRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM routes WHERE is_active=1").Scan(&n)
	return n, err
}
