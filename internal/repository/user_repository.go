package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/utils"
)

const userColumns = "id,name,email,password_hash,role,is_active,company_id,created_at,updated_at"

// UserRepo provides persistence for users and the credential check.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CompanyID, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts an inactive user and returns its id. The email is
// normalized to lowercase before hashing and inserting.
func (r *UserRepo) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, is_active) VALUES (?,?,?,?,0)",
		name, email, hash, role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Authenticate performs the credential check. The failure order is
// fixed: unknown email, then inactive account, then password mismatch.
// The three cases stay distinct so callers and logs never conflate
// them, even though unknown email and bad password both surface as 401.
func (r *UserRepo) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.User{}, ErrUnknownEmail
		}
		return model.User{}, err
	}
	if !u.IsActive {
		return model.User{}, ErrInactiveAccount
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrBadPassword
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// Activate flips is_active for the user. Used by the email activation
// endpoint after the token was validated and burned.
func (r *UserRepo) Activate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=1 WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive toggles the active flag without touching anything else.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	return err
}

// Promote assigns a role and company to a user. companyID 0 clears the
// association (administrators have no company).
func (r *UserRepo) Promote(ctx context.Context, id uint64, role string, companyID uint64) error {
	var company sql.NullInt64
	if companyID != 0 {
		company = sql.NullInt64{Int64: int64(companyID), Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, company_id=? WHERE id=?", role, company, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Demote downgrades a user to passenger and detaches them from their
// company. The row is preserved so assignment history keeps its
// referential integrity; this is the product's replacement for deleting
// drivers and supervisors.
func (r *UserRepo) Demote(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, company_id=NULL WHERE id=?", model.RolePassenger, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile patches name, email and/or password hash. Zero values
// leave the column untouched. A duplicate email maps to ErrEmailExists.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, email, passwordHash string) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if name != "" {
		sets = append(sets, "name=?")
		args = append(args, name)
	}
	if email != "" {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(email)))
	}
	if passwordHash != "" {
		sets = append(sets, "password_hash=?")
		args = append(args, passwordHash)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// Delete removes the user row. Only passenger self-deletion reaches
// this; tokens cascade via the FK.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UserFilter narrows ListByRole. CompanyID 0 means any company, which
// only administrators are allowed to ask for; supervisors always pass
// their own.
type UserFilter struct {
	Role      string
	CompanyID uint64
	Search    string
	IsActive  *bool
	Page      int
	Limit     int
}

// ListByRole returns a page of users with the given role plus the total
// row count for the pagination envelope.
func (r *UserRepo) ListByRole(ctx context.Context, f UserFilter) ([]model.User, int, error) {
	where := []string{"role=?"}
	args := []any{f.Role}
	if f.CompanyID != 0 {
		where = append(where, "company_id=?")
		args = append(args, f.CompanyID)
	}
	if f.IsActive != nil {
		where = append(where, "is_active=?")
		args = append(args, *f.IsActive)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(email LIKE ? OR name LIKE ?)")
		pat := "%" + s + "%"
		args = append(args, pat, pat)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT ? OFFSET ?",
		userColumns, cond)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]model.User, 0, f.Limit)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
			&u.IsActive, &u.CompanyID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// CountByRole counts active users with the role, optionally scoped to a
// company. Used by the dashboard.
func (r *UserRepo) CountByRole(ctx context.Context, role string, companyID uint64) (int, error) {
	var n int
	var err error
	if companyID != 0 {
		err = r.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM users WHERE role=? AND is_active=1 AND company_id=?",
			role, companyID).Scan(&n)
	} else {
		err = r.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM users WHERE role=? AND is_active=1", role).Scan(&n)
	}
	return n, err
}
