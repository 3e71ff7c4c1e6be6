package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/repository"
)

// ----- routes -----

type createRouteReq struct {
	Code        string `json:"code" validate:"required"`
	Origin      string `json:"origin" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	State       string `json:"state" validate:"required,len=2"`
	City        string `json:"city" validate:"required"`
}

// CreateRoute handles POST /api/routes. The route code must be unique
// across the whole catalogue.
func (h *FleetHandler) CreateRoute(c echo.Context) error {
	var req createRouteReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Código, origem, destino, estado e cidade são obrigatórios")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	rt := model.Route{
		Code:        req.Code,
		Origin:      req.Origin,
		Destination: req.Destination,
		State:       req.State,
		City:        req.City,
		IsActive:    true,
	}
	if err := h.Routes.Create(ctx, &rt); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Já existe uma rota com esse código")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "route": rt})
}

// ListRoutes handles GET /api/routes. Every authenticated role may
// browse the route catalogue.
func (h *FleetHandler) ListRoutes(c echo.Context) error {
	page, limit := parsePage(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	routes, total, err := h.Routes.List(ctx, repository.RouteFilter{
		Search:   c.QueryParam("search"),
		State:    c.QueryParam("state"),
		City:     c.QueryParam("city"),
		IsActive: parseBoolQuery(c, "isActive"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, listEnvelope(routes, page, limit, total))
}

// GetRoute handles GET /api/routes/:id.
func (h *FleetHandler) GetRoute(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	rt, err := h.Routes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Rota não encontrada")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, echo.Map{"route": rt})
}

type updateRouteReq struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	City        string `json:"city"`
	IsActive    *bool  `json:"isActive"`
}

// UpdateRoute handles PATCH /api/routes/:id. Code and state are
// immutable once created.
func (h *FleetHandler) UpdateRoute(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	var req updateRouteReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if req.Origin == "" && req.Destination == "" && req.City == "" && req.IsActive == nil {
		return fail(c, http.StatusBadRequest, "Nenhum campo para atualizar")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Routes.Update(ctx, id, req.Origin, req.Destination, req.City, req.IsActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Rota não encontrada")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	rt, _ := h.Routes.GetByID(ctx, id)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "route": rt})
}

// DeleteRoute handles DELETE /api/routes/:id. Cascades wipe the
// assignment rows and schedules of the route.
func (h *FleetHandler) DeleteRoute(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Routes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Rota não encontrada")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ----- assignment sub-resources -----

type assignDriverReq struct {
	DriverID uint64 `json:"driverId" validate:"required"`
}
type assignVehicleReq struct {
	VehicleID uint64 `json:"vehicleId" validate:"required"`
}

// AssignDriver handles POST /api/routes/:id/drivers. The repository
// verifies the target is a driver of the caller's company; assigning
// twice is a no-op.
func (h *FleetHandler) AssignDriver(c echo.Context) error {
	companyID, ok := scopeCompany(c)
	if !ok {
		return nil
	}
	routeID, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	var req assignDriverReq
	if err := c.Bind(&req); err != nil || req.DriverID == 0 {
		return fail(c, http.StatusBadRequest, "driverId é obrigatório")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Routes.AssignDriver(ctx, routeID, req.DriverID, companyID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fail(c, http.StatusNotFound, "Rota não encontrada")
		case errors.Is(err, repository.ErrForbidden):
			return fail(c, http.StatusForbidden, "Motorista não pertence à sua empresa")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}

// RemoveDriver handles DELETE /api/routes/:id/drivers/:driverId.
func (h *FleetHandler) RemoveDriver(c echo.Context) error {
	if _, ok := scopeCompany(c); !ok {
		return nil
	}
	routeID, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	driverID, err := parseID(c, "driverId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Routes.RemoveDriver(ctx, routeID, driverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Vínculo não encontrado")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// AssignVehicle handles POST /api/routes/:id/vehicles. The repository
// verifies the vehicle belongs to the caller's company.
func (h *FleetHandler) AssignVehicle(c echo.Context) error {
	companyID, ok := scopeCompany(c)
	if !ok {
		return nil
	}
	routeID, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	var req assignVehicleReq
	if err := c.Bind(&req); err != nil || req.VehicleID == 0 {
		return fail(c, http.StatusBadRequest, "vehicleId é obrigatório")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Routes.AssignVehicle(ctx, routeID, req.VehicleID, companyID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fail(c, http.StatusNotFound, "Rota não encontrada")
		case errors.Is(err, repository.ErrForbidden):
			return fail(c, http.StatusForbidden, "Veículo não pertence à sua empresa")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}

// RemoveVehicle handles DELETE /api/routes/:id/vehicles/:vehicleId.
func (h *FleetHandler) RemoveVehicle(c echo.Context) error {
	if _, ok := scopeCompany(c); !ok {
		return nil
	}
	routeID, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	vehicleID, err := parseID(c, "vehicleId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Routes.RemoveVehicle(ctx, routeID, vehicleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Vínculo não encontrado")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
