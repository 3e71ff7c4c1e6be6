// Package repository implements the data access layer on top of
// database/sql. This file defines sentinel errors shared across the
// repositories so handlers can translate failures into precise HTTP
// statuses without inspecting driver error strings.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when the requested row does not exist or is
// not visible to the caller's company scope. Handlers translate it into
// a 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by user creation when the email column's
// unique constraint is violated. Handlers translate it into a 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUnknownEmail and ErrBadPassword both surface as 401 to clients,
// but are kept distinct so authentication failures are never conflated
// internally (logs and tests can tell them apart).
var (
	ErrUnknownEmail = errors.New("unknown email")
	ErrBadPassword  = errors.New("bad password")
)

// ErrInactiveAccount is returned when credentials verify but the
// account has not been activated yet. Handlers translate it into a 403.
var ErrInactiveAccount = errors.New("account not active")

// ErrTokenInvalid is returned when a token row is missing, already used
// or expired. The three cases are deliberately indistinguishable to
// callers.
var ErrTokenInvalid = errors.New("token invalid")

// ErrForbidden is returned when the caller attempts an operation on a
// resource outside their company scope. Handlers translate it into a 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of
// conflicting state, such as deleting a vehicle that is still assigned
// to routes or inserting a duplicate unique value. Handlers translate
// it into a 409.
var ErrConflict = errors.New("conflict")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
