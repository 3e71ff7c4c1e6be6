package handler

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/repository"
)

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ----- schedules -----

type createScheduleReq struct {
	RouteID   uint64 `json:"routeId" validate:"required"`
	Departure string `json:"departure" validate:"required"`
	Arrival   string `json:"arrival" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required,len=2"`
	Weekdays  string `json:"weekdays" validate:"required"`
}

// CreateSchedule handles POST /api/schedules. The route code is
// denormalized by the repository from the route itself, so a stale code
// in the request cannot drift.
func (h *FleetHandler) CreateSchedule(c echo.Context) error {
	var req createScheduleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Rota, horários, cidade, estado e dias são obrigatórios")
	}
	if !clockRe.MatchString(req.Departure) || !clockRe.MatchString(req.Arrival) {
		return fail(c, http.StatusBadRequest, "Horário deve estar no formato HH:MM")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	s := model.Schedule{
		RouteID:   req.RouteID,
		Departure: req.Departure,
		Arrival:   req.Arrival,
		City:      req.City,
		State:     req.State,
		Weekdays:  req.Weekdays,
	}
	if err := h.Schedules.Create(ctx, &s); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Rota não encontrada")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "schedule": s})
}

// ListSchedules handles GET /api/schedules: the public timetable, open
// to every authenticated role.
func (h *FleetHandler) ListSchedules(c echo.Context) error {
	page, limit := parsePage(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	schedules, total, err := h.Schedules.List(ctx, repository.ScheduleFilter{
		RouteCode: c.QueryParam("routeCode"),
		State:     c.QueryParam("state"),
		City:      c.QueryParam("city"),
		Search:    c.QueryParam("search"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, listEnvelope(schedules, page, limit, total))
}

type updateScheduleReq struct {
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Weekdays  string `json:"weekdays"`
}

// UpdateSchedule handles PATCH /api/schedules/:id.
func (h *FleetHandler) UpdateSchedule(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	var req updateScheduleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if req.Departure == "" && req.Arrival == "" && req.Weekdays == "" {
		return fail(c, http.StatusBadRequest, "Nenhum campo para atualizar")
	}
	if (req.Departure != "" && !clockRe.MatchString(req.Departure)) ||
		(req.Arrival != "" && !clockRe.MatchString(req.Arrival)) {
		return fail(c, http.StatusBadRequest, "Horário deve estar no formato HH:MM")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Schedules.Update(ctx, id, req.Departure, req.Arrival, req.Weekdays); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Horário não encontrado")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeleteSchedule handles DELETE /api/schedules/:id.
func (h *FleetHandler) DeleteSchedule(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Schedules.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Horário não encontrado")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MySchedules handles GET /api/schedules/my-assignments: the timetable
// entries of routes the caller drives. Driver only.
func (h *FleetHandler) MySchedules(c echo.Context) error {
	id, ok := callerIdentity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Não autenticado")
	}
	page, limit := parsePage(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	schedules, total, err := h.Schedules.ListForDriver(ctx, id.UserID, page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, listEnvelope(schedules, page, limit, total))
}

// CompanySchedules handles GET /api/schedules/by-company: timetable
// entries of routes served by the supervisor's company drivers.
func (h *FleetHandler) CompanySchedules(c echo.Context) error {
	id, ok := callerIdentity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Não autenticado")
	}
	if id.CompanyID == 0 {
		return fail(c, http.StatusBadRequest, "Supervisor não está vinculado a nenhuma empresa")
	}
	page, limit := parsePage(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	schedules, total, err := h.Schedules.ListForCompany(ctx, id.CompanyID, page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, listEnvelope(schedules, page, limit, total))
}
