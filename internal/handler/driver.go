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

// StaffHandler groups the endpoints supervisors and administrators use
// to manage drivers and supervisors. All driver operations are company
// scoped: the supervisor's own company id from the identity snapshot is
// threaded into every query.
type StaffHandler struct {
	Users     *repository.UserRepo
	Tokens    *repository.TokenRepo
	Companies *repository.CompanyRepo
	Log       *zap.Logger
}

func NewStaffHandler(u *repository.UserRepo, t *repository.TokenRepo, co *repository.CompanyRepo, log *zap.Logger) *StaffHandler {
	if u == nil || t == nil || co == nil {
		panic("nil repository passed to NewStaffHandler")
	}
	return &StaffHandler{Users: u, Tokens: t, Companies: co, Log: log}
}

// supervisorCompany resolves the caller's company. When the second
// return is false the error response has already been written.
func supervisorCompany(c echo.Context) (uint64, bool) {
	id, ok := callerIdentity(c)
	if !ok {
		_ = fail(c, http.StatusUnauthorized, "Não autenticado")
		return 0, false
	}
	if id.CompanyID == 0 {
		_ = fail(c, http.StatusBadRequest, "Supervisor não está vinculado a nenhuma empresa")
		return 0, false
	}
	return id.CompanyID, true
}

// ListDrivers handles GET /api/drivers: the supervisor's company
// drivers, paginated.
func (h *StaffHandler) ListDrivers(c echo.Context) error {
	companyID, ok := supervisorCompany(c)
	if !ok {
		return nil
	}
	page, limit := parsePage(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	users, total, err := h.Users.ListByRole(ctx, repository.UserFilter{
		Role:      model.RoleDriver,
		CompanyID: companyID,
		Search:    c.QueryParam("search"),
		IsActive:  parseBoolQuery(c, "isActive"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, listEnvelope(viewsOf(users), page, limit, total))
}

// AvailableDrivers handles GET /api/drivers/available: active
// passengers eligible for promotion to driver.
func (h *StaffHandler) AvailableDrivers(c echo.Context) error {
	if _, ok := supervisorCompany(c); !ok {
		return nil
	}
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

type promoteDriverReq struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateDriver handles POST /api/drivers: promotes an existing active
// passenger to driver inside the supervisor's company.
func (h *StaffHandler) CreateDriver(c echo.Context) error {
	companyID, ok := supervisorCompany(c)
	if !ok {
		return nil
	}
	var req promoteDriverReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Email é obrigatório")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

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
	if err := h.Users.Promote(ctx, u.ID, model.RoleDriver, companyID); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	u, _ = h.Users.GetByID(ctx, u.ID)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "user": viewOf(u)})
}

type patchStaffReq struct {
	IsActive *bool `json:"isActive"`
}

// PatchDriver handles PATCH /api/drivers/:id: toggles the active flag
// of a driver within the supervisor's company.
func (h *StaffHandler) PatchDriver(c echo.Context) error {
	companyID, ok := supervisorCompany(c)
	if !ok {
		return nil
	}
	driverID, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	var req patchStaffReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return fail(c, http.StatusBadRequest, "isActive é obrigatório")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, ok := h.driverInCompany(c, ctx, driverID, companyID)
	if !ok {
		return nil
	}
	if err := h.Users.SetActive(ctx, u.ID, *req.IsActive); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	u, _ = h.Users.GetByID(ctx, u.ID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewOf(u)})
}

// DeleteDriver handles DELETE /api/drivers/:id. Drivers are never hard
// deleted: the account is demoted back to passenger so assignment
// history keeps its references, and refresh tokens are revoked so the
// old role cannot be replayed.
func (h *StaffHandler) DeleteDriver(c echo.Context) error {
	companyID, ok := supervisorCompany(c)
	if !ok {
		return nil
	}
	driverID, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, ok := h.driverInCompany(c, ctx, driverID, companyID)
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

// driverInCompany loads a user and checks they are a driver of the
// given company. On false the HTTP response has already been written.
func (h *StaffHandler) driverInCompany(c echo.Context, ctx context.Context, driverID, companyID uint64) (model.User, bool) {
	u, err := h.Users.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = fail(c, http.StatusNotFound, "Motorista não encontrado")
		} else {
			_ = fail(c, http.StatusInternalServerError, "Erro interno do servidor")
		}
		return model.User{}, false
	}
	if u.Role != model.RoleDriver {
		_ = fail(c, http.StatusBadRequest, "Usuário não é um motorista")
		return model.User{}, false
	}
	if !u.CompanyID.Valid || uint64(u.CompanyID.Int64) != companyID {
		_ = fail(c, http.StatusForbidden, "Você não pode gerenciar motoristas de outra empresa")
		return model.User{}, false
	}
	return u, true
}
