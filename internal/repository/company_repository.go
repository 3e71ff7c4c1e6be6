package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/collabus/transit-admin/internal/model"
)

// CompanyRepo provides persistence for companies.
type CompanyRepo struct{ DB *sql.DB }

func NewCompanyRepo(db *sql.DB) *CompanyRepo { return &CompanyRepo{DB: db} }

// Create inserts a company and fills in its id. Duplicate names map to
// ErrConflict.
func (r *CompanyRepo) Create(ctx context.Context, c *model.Company) error {
	res, err := r.DB.ExecContext(ctx, "INSERT INTO companies (name) VALUES (?)", c.Name)
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
	c.ID = uint64(id)
	return nil
}

// GetByID fetches a company by id.
func (r *CompanyRepo) GetByID(ctx context.Context, id uint64) (model.Company, error) {
	var c model.Company
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,created_at FROM companies WHERE id=? LIMIT 1", id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Company{}, ErrNotFound
	}
	return c, err
}

// List returns all companies ordered by name. The company set is small
// (one row per transit operator), so no pagination is applied here.
func (r *CompanyRepo) List(ctx context.Context) ([]model.Company, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id,name,created_at FROM companies ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
