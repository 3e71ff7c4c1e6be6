package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/collabus/transit-admin/internal/model"
)

func callWithRole(role string, allowed ...string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set(CtxRole, role)
		c.Set(CtxIdentity, model.Identity{UserID: 1, Role: role})
	}
	h := RequireRole(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = h(c)
	return rec
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	rec := callWithRole(model.RoleSupervisor, model.RoleSupervisor, model.RoleAdministrator)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleDeniesOtherRole(t *testing.T) {
	rec := callWithRole(model.RolePassenger, model.RoleSupervisor)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acesso negado")
}

func TestRequireRoleDeniesMissingRole(t *testing.T) {
	// Deny by default: no role in context means forbidden, not allowed.
	rec := callWithRole("", model.RoleSupervisor)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
