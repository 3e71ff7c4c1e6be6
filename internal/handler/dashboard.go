package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/repository"
)

// DashboardHandler aggregates the counters shown on the admin and
// supervisor landing pages.
type DashboardHandler struct {
	Users     *repository.UserRepo
	Vehicles  *repository.VehicleRepo
	Routes    *repository.RouteRepo
	Schedules *repository.ScheduleRepo
	Log       *zap.Logger
}

func NewDashboardHandler(u *repository.UserRepo, v *repository.VehicleRepo, rt *repository.RouteRepo, s *repository.ScheduleRepo, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{Users: u, Vehicles: v, Routes: rt, Schedules: s, Log: log}
}

type dashboardStats struct {
	Drivers     int `json:"drivers"`
	Supervisors int `json:"supervisors"`
	Passengers  int `json:"passengers"`
	Vehicles    int `json:"vehicles"`
	Routes      int `json:"routes"`
	Schedules   int `json:"schedules"`
}

// Stats handles GET /api/dashboard/stats. Administrators see global
// counters; supervisors see their company's slice of the fleet.
func (h *DashboardHandler) Stats(c echo.Context) error {
	id, ok := callerIdentity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Não autenticado")
	}
	companyID := uint64(0)
	if id.Role == model.RoleSupervisor {
		if id.CompanyID == 0 {
			return fail(c, http.StatusBadRequest, "Supervisor não está vinculado a nenhuma empresa")
		}
		companyID = id.CompanyID
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	var stats dashboardStats
	var err error

	if stats.Drivers, err = h.Users.CountByRole(ctx, model.RoleDriver, companyID); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	if stats.Vehicles, err = h.Vehicles.CountActive(ctx, companyID); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	// Supervisors, passengers, routes and schedules are not company
	// scoped; only administrators get them.
	if companyID == 0 {
		if stats.Supervisors, err = h.Users.CountByRole(ctx, model.RoleSupervisor, 0); err != nil {
			return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
		}
		if stats.Passengers, err = h.Users.CountByRole(ctx, model.RolePassenger, 0); err != nil {
			return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
		}
		if stats.Routes, err = h.Routes.CountActive(ctx); err != nil {
			return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
		}
		if stats.Schedules, err = h.Schedules.Count(ctx); err != nil {
			return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"stats": stats})
}
