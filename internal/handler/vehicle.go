package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/repository"
)

// FleetHandler groups the fleet endpoints: vehicles, routes, schedules
// and the assignment sub-resources that link them. Administrators see
// everything; supervisors see only their company; drivers see only
// what is assigned to them.
type FleetHandler struct {
	Vehicles  *repository.VehicleRepo
	Routes    *repository.RouteRepo
	Schedules *repository.ScheduleRepo
	Log       *zap.Logger
}

func NewFleetHandler(v *repository.VehicleRepo, rt *repository.RouteRepo, s *repository.ScheduleRepo, log *zap.Logger) *FleetHandler {
	if v == nil || rt == nil || s == nil {
		panic("nil repository passed to NewFleetHandler")
	}
	return &FleetHandler{Vehicles: v, Routes: rt, Schedules: s, Log: log}
}

// scopeCompany maps the caller onto a company filter: administrators
// and the service identity get 0 (unscoped), supervisors get their own
// company and must be bound to one. When the second return is false
// the error response has already been written.
func scopeCompany(c echo.Context) (uint64, bool) {
	id, ok := callerIdentity(c)
	if !ok {
		_ = fail(c, http.StatusUnauthorized, "Não autenticado")
		return 0, false
	}
	if id.Role == model.RoleAdministrator {
		return 0, true
	}
	if id.CompanyID == 0 {
		_ = fail(c, http.StatusBadRequest, "Supervisor não está vinculado a nenhuma empresa")
		return 0, false
	}
	return id.CompanyID, true
}

// ----- vehicles -----

type createVehicleReq struct {
	Plate     string `json:"plate" validate:"required"`
	Brand     string `json:"brand" validate:"required"`
	Model     string `json:"model" validate:"required"`
	CompanyID uint64 `json:"companyId"`
}

// CreateVehicle handles POST /api/vehicles. Supervisors create vehicles
// in their own company; administrators must name the target company.
func (h *FleetHandler) CreateVehicle(c echo.Context) error {
	companyID, ok := scopeCompany(c)
	if !ok {
		return nil
	}
	var req createVehicleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Placa, marca e modelo são obrigatórios")
	}
	if companyID == 0 {
		if req.CompanyID == 0 {
			return fail(c, http.StatusBadRequest, "companyId é obrigatório")
		}
		companyID = req.CompanyID
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	v := model.Vehicle{
		Plate:     req.Plate,
		Brand:     req.Brand,
		Model:     req.Model,
		CompanyID: companyID,
		IsActive:  true,
	}
	if err := h.Vehicles.Create(ctx, &v); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Já existe um veículo com essa placa")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "vehicle": v})
}

// ListVehicles handles GET /api/vehicles, company scoped for
// supervisors. Administrators may narrow to one company via the
// companyId query parameter.
func (h *FleetHandler) ListVehicles(c echo.Context) error {
	companyID, ok := scopeCompany(c)
	if !ok {
		return nil
	}
	if companyID == 0 {
		if v, err := strconv.ParseUint(c.QueryParam("companyId"), 10, 64); err == nil {
			companyID = v
		}
	}
	page, limit := parsePage(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	vehicles, total, err := h.Vehicles.List(ctx, repository.VehicleFilter{
		CompanyID: companyID,
		Search:    c.QueryParam("search"),
		IsActive:  parseBoolQuery(c, "isActive"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, listEnvelope(vehicles, page, limit, total))
}

// GetVehicle handles GET /api/vehicles/:id.
func (h *FleetHandler) GetVehicle(c echo.Context) error {
	companyID, ok := scopeCompany(c)
	if !ok {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	v, err := h.Vehicles.GetByID(ctx, id, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Veículo não encontrado")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, echo.Map{"vehicle": v})
}

type updateVehicleReq struct {
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	IsActive *bool  `json:"isActive"`
}

// UpdateVehicle handles PATCH /api/vehicles/:id. The plate and the
// owning company are immutable.
func (h *FleetHandler) UpdateVehicle(c echo.Context) error {
	companyID, ok := scopeCompany(c)
	if !ok {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	var req updateVehicleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if req.Brand == "" && req.Model == "" && req.IsActive == nil {
		return fail(c, http.StatusBadRequest, "Nenhum campo para atualizar")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Vehicles.Update(ctx, id, companyID, req.Brand, req.Model, req.IsActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Veículo não encontrado")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	v, _ := h.Vehicles.GetByID(ctx, id, companyID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "vehicle": v})
}

// DeleteVehicle handles DELETE /api/vehicles/:id. Vehicles still
// assigned to a route cannot be removed.
func (h *FleetHandler) DeleteVehicle(c echo.Context) error {
	companyID, ok := scopeCompany(c)
	if !ok {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Vehicles.Delete(ctx, id, companyID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fail(c, http.StatusNotFound, "Veículo não encontrado")
		case errors.Is(err, repository.ErrConflict):
			return fail(c, http.StatusConflict, "Veículo está vinculado a uma rota")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MyVehicles handles GET /api/vehicles/my-assignments: the vehicles
// reachable through the caller's route assignments. Driver only.
func (h *FleetHandler) MyVehicles(c echo.Context) error {
	id, ok := callerIdentity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Não autenticado")
	}
	page, limit := parsePage(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	vehicles, total, err := h.Vehicles.ListAssignedToDriver(ctx, id.UserID, page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, listEnvelope(vehicles, page, limit, total))
}
