package model

import (
	"database/sql"
	"time"
)

// Role names mirror the values stored in the `users.role` column. The
// Portuguese names are kept because they are part of the product's data
// contract (seeds, exports and the web client all use them).
const (
	RoleAdministrator = "ADMINISTRADOR"
	RoleSupervisor    = "SUPERVISOR"
	RoleDriver        = "MOTORISTA"
	RolePassenger     = "PASSAGEIRO"
)

// ValidRole reports whether s is one of the four known role names.
func ValidRole(s string) bool {
	switch s {
	case RoleAdministrator, RoleSupervisor, RoleDriver, RolePassenger:
		return true
	}
	return false
}

// User represents a row of the `users` table.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name collected at sign-up.
//	Email        – unique, normalized (lowercase) email address.
//	PasswordHash – bcrypt hashed password, never serialized to clients.
//	Role         – one of the Role* constants.
//	IsActive     – false until the account is activated via email token.
//	CompanyID    – company the user belongs to; NULL for passengers and
//	               administrators.
type User struct {
	ID           uint64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CompanyID    sql.NullInt64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the sanitized view of an authenticated user carried through
// the request context and stored in the session snapshot. It never holds
// the password hash.
type Identity struct {
	UserID    uint64 `json:"userId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID uint64 `json:"companyId,omitempty"` // zero when not attached to a company
}

// IdentityOf builds an Identity from a user row.
func IdentityOf(u User) Identity {
	id := Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
	if u.CompanyID.Valid {
		id.CompanyID = uint64(u.CompanyID.Int64)
	}
	return id
}
