package handler // handler defines http handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/collabus/transit-admin/internal/middleware"
	"github.com/collabus/transit-admin/internal/model"
)

// fail writes the standard JSON error body used by every endpoint.
func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"statusCode": code, "statusMessage": msg})
}

// callerIdentity returns the identity the gate stored in the context.
func callerIdentity(c echo.Context) (model.Identity, bool) {
	return middleware.IdentityFrom(c)
}

// reqContext derives a bounded context for database calls from the
// request.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// parseID parses a numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// parsePage reads the page/limit query parameters, clamping them to
// sane values (page >= 1, 1 <= limit <= 100, default 10).
func parsePage(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// parseBoolQuery reads an optional boolean query parameter, returning
// nil when absent or unparseable.
func parseBoolQuery(c echo.Context, name string) *bool {
	switch c.QueryParam(name) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

// pagination is the envelope block returned by every list endpoint.
type pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// totalPages computes ceil(total/limit).
func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// listEnvelope wraps a result page in the {data, pagination} shape.
func listEnvelope(data any, page, limit, total int) echo.Map {
	return echo.Map{
		"data": data,
		"pagination": pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages(total, limit),
		},
	}
}

// userView is the user shape sent to clients; it never carries the
// password hash.
type userView struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CompanyID uint64    `json:"companyId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewOf(u model.User) userView {
	v := userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	if u.CompanyID.Valid {
		v.CompanyID = uint64(u.CompanyID.Int64)
	}
	return v
}

func viewsOf(users []model.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewOf(u))
	}
	return out
}
