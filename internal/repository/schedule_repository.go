package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/collabus/transit-admin/internal/model"
)

const scheduleColumns = "id,route_id,route_code,departure,arrival,city,state,weekdays,created_at"

// ScheduleRepo provides persistence for timetable entries.
type ScheduleRepo struct{ DB *sql.DB }

func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{DB: db} }

// Create inserts a schedule for an existing route. The route code is
// denormalized from the routes table so a stale code in the request
// cannot drift from the route it points to.
func (r *ScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	var code string
	err := r.DB.QueryRowContext(ctx,
		"SELECT code FROM routes WHERE id=? LIMIT 1", s.RouteID).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.RouteCode = code

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO schedules (route_id, route_code, departure, arrival, city, state, weekdays) VALUES (?,?,?,?,?,?,?)",
		s.RouteID, s.RouteCode, s.Departure, s.Arrival, s.City,
		strings.ToUpper(strings.TrimSpace(s.State)), s.Weekdays)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Update patches departure, arrival and/or weekdays.
func (r *ScheduleRepo) Update(ctx context.Context, id uint64, departure, arrival, weekdays string) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if departure != "" {
		sets = append(sets, "departure=?")
		args = append(args, departure)
	}
	if arrival != "" {
		sets = append(sets, "arrival=?")
		args = append(args, arrival)
	}
	if weekdays != "" {
		sets = append(sets, "weekdays=?")
		args = append(args, weekdays)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE schedules SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a schedule.
func (r *ScheduleRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM schedules WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ScheduleFilter narrows List.
type ScheduleFilter struct {
	RouteCode string
	State     string
	City      string
	Search    string
	Page      int
	Limit     int
}

// List returns a page of schedules plus the total count.
func (r *ScheduleRepo) List(ctx context.Context, f ScheduleFilter) ([]model.Schedule, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.RouteCode != "" {
		where = append(where, "route_code=?")
		args = append(args, strings.ToUpper(f.RouteCode))
	}
	if f.State != "" {
		where = append(where, "state=?")
		args = append(args, strings.ToUpper(f.State))
	}
	if f.City != "" {
		where = append(where, "city=?")
		args = append(args, f.City)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(route_code LIKE ? OR city LIKE ?)")
		pat := "%" + s + "%"
		args = append(args, pat, pat)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schedules WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+scheduleColumns+" FROM schedules WHERE "+cond+" ORDER BY departure LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	sched, err := collectSchedules(rows, f.Limit)
	return sched, total, err
}

// ListForDriver returns schedules of routes the driver is assigned to.
// The join against route_drivers is what keeps one driver from reading
// another driver's timetable.
func (r *ScheduleRepo) ListForDriver(ctx context.Context, driverID uint64, page, limit int) ([]model.Schedule, int, error) {
	const base = `FROM schedules s
		JOIN route_drivers rd ON rd.route_id = s.route_id
		WHERE rd.driver_id=?`

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) "+base, driverID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT s.id,s.route_id,s.route_code,s.departure,s.arrival,s.city,s.state,s.weekdays,s.created_at "+
			base+" ORDER BY s.departure LIMIT ? OFFSET ?",
		driverID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	sched, err := collectSchedules(rows, limit)
	return sched, total, err
}

// ListForCompany returns schedules of routes that at least one driver
// of the company is assigned to. This is the closest thing schedules
// have to a company scope, since routes themselves are shared across
// operators.
func (r *ScheduleRepo) ListForCompany(ctx context.Context, companyID uint64, page, limit int) ([]model.Schedule, int, error) {
	const base = `FROM schedules s
		WHERE s.route_id IN (
			SELECT rd.route_id FROM route_drivers rd
			JOIN users u ON u.id = rd.driver_id
			WHERE u.company_id=?
		)`

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) "+base, companyID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+scheduleColumns+" "+base+" ORDER BY departure LIMIT ? OFFSET ?",
		companyID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	sched, err := collectSchedules(rows, limit)
	return sched, total, err
}

// Count counts all schedules.
func (r *ScheduleRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM schedules").Scan(&n)
	return n, err
}

func collectSchedules(rows *sql.Rows, capHint int) ([]model.Schedule, error) {
	out := make([]model.Schedule, 0, capHint)
	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(&s.ID, &s.RouteID, &s.RouteCode, &s.Departure, &s.Arrival,
			&s.City, &s.State, &s.Weekdays, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
