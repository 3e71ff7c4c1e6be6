package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/repository"
)

// Supervisor management mirrors driver management but is administrator
// only and not company scoped: an admin can promote a passenger into
// any company.

// ListSupervisors handles GET /api/supervisors.
func (h *StaffHandler) ListSupervisors(c echo.Context) error {
	page, limit := parsePage(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	users, total, err := h.Users.ListByRole(ctx, repository.UserFilter{
		Role:     model.RoleSupervisor,
		Search:   c.QueryParam("search"),
		IsActive: parseBoolQuery(c, "isActive"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, listEnvelope(viewsOf(users), page, limit, total))
}

// AvailableSupervisors handles GET /api/supervisors/available: active
// passengers eligible for promotion.
func (h *StaffHandler) AvailableSupervisors(c echo.Context) error {
	page, limit := parsePage(c)
	active := true

	ctx, cancel := reqContext(c)
	defer cancel()

	users, total, err := h.Users.ListByRole(ctx, repository.UserFilter{
		Role:     model.RolePassenger,
		Search:   c.QueryParam("search"),
		IsActive: &active,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, listEnvelope(viewsOf(users), page, limit, total))
}

type promoteSupervisorReq struct {
	Email     string `json:"email" validate:"required,email"`
	CompanyID uint64 `json:"companyId" validate:"required"`
}

// CreateSupervisor handles POST /api/supervisors: promotes an active
// passenger to supervisor of the given company.
func (h *StaffHandler) CreateSupervisor(c echo.Context) error {
	var req promoteSupervisorReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Email e empresa são obrigatórios")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, err := h.Companies.GetByID(ctx, req.CompanyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Empresa não encontrada")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Usuário não encontrado")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	if !u.IsActive {
		return fail(c, http.StatusBadRequest, "Usuário ainda não ativou a conta")
	}
	if u.Role != model.RolePassenger {
		return fail(c, http.StatusConflict, "Usuário já possui outro papel no sistema")
	}
	if err := h.Users.Promote(ctx, u.ID, model.RoleSupervisor, req.CompanyID); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	u, _ = h.Users.GetByID(ctx, u.ID)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "user": viewOf(u)})
}

// PatchSupervisor handles PATCH /api/supervisors/:id: toggles the
// active flag.
func (h *StaffHandler) PatchSupervisor(c echo.Context) error {
	supID, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	var req patchStaffReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return fail(c, http.StatusBadRequest, "isActive é obrigatório")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, ok := h.supervisorByID(c, ctx, supID)
	if !ok {
		return nil
	}
	if err := h.Users.SetActive(ctx, u.ID, *req.IsActive); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	u, _ = h.Users.GetByID(ctx, u.ID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewOf(u)})
}

// DeleteSupervisor handles DELETE /api/supervisors/:id: demotes the
// account back to passenger and revokes its refresh tokens.
func (h *StaffHandler) DeleteSupervisor(c echo.Context) error {
	supID, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, ok := h.supervisorByID(c, ctx, supID)
	if !ok {
		return nil
	}
	if err := h.Users.Demote(ctx, u.ID); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	if err := h.Tokens.RevokeAllForUser(ctx, u.ID, model.TokenRefresh); err != nil {
		h.Log.Warn("token revocation failed during demotion",
			zap.Uint64("user_id", u.ID), zap.Error(err))
	}

	u, _ = h.Users.GetByID(ctx, u.ID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewOf(u)})
}

// supervisorByID loads a user and checks the supervisor role. On false
// the HTTP response has already been written.
func (h *StaffHandler) supervisorByID(c echo.Context, ctx context.Context, supID uint64) (model.User, bool) {
	u, err := h.Users.GetByID(ctx, supID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = fail(c, http.StatusNotFound, "Supervisor não encontrado")
		} else {
			_ = fail(c, http.StatusInternalServerError, "Erro interno do servidor")
		}
		return model.User{}, false
	}
	if u.Role != model.RoleSupervisor {
		_ = fail(c, http.StatusBadRequest, "Usuário não é um supervisor")
		return model.User{}, false
	}
	return u, true
}
