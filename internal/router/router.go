// Package router wires handlers, middleware and the authorization
// policy onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/collabus/transit-admin/internal/config"
	"github.com/collabus/transit-admin/internal/handler"
	"github.com/collabus/transit-admin/internal/middleware"
	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/repository"
	"github.com/collabus/transit-admin/internal/session"
)

// Deps carries everything route registration needs. The router owns the
// authorization policy: handlers assume the gate and role checks have
// already run.
type Deps struct {
	Cfg      config.Config
	RLCfg    config.RateLimitConfig
	Redis    *redis.Client
	Sessions session.Store
	Users    *repository.UserRepo

	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Staff     *handler.StaffHandler
	Fleet     *handler.FleetHandler
	Company   *handler.CompanyHandler
	Dashboard *handler.DashboardHandler
	Health    *handler.HealthHandler
	ClientLog *handler.ClientLogHandler
}

// Register wires every route of the application onto the Echo instance.
func Register(e *echo.Echo, d Deps) {
	// Credential endpoints get the token-bucket limiter; everything else
	// is left alone. The limiter is a no-op when Redis is absent.
	limited := middleware.RateLimit(d.RLCfg, d.Redis)

	// Liveness probe for load balancers.
	e.GET("/health", d.Health.Check)

	// Frontend error reports. Public and always 204.
	e.POST("/api/client-logs", d.ClientLog.Ingest)

	// Authentication endpoints that work without an identity.
	auth := e.Group("/api/auth")
	auth.POST("/sign-in", d.Auth.SignIn, limited)
	auth.POST("/sign-out", d.Auth.SignOut)
	auth.POST("/refresh", d.Auth.Refresh)

	// Account lifecycle: sign-up, activation (browser link from the
	// activation email, answers HTML), password recovery.
	user := e.Group("/api/user")
	user.POST("/sign-up", d.User.SignUp, limited)
	user.POST("", d.User.SignUp, limited)
	user.GET("/activate", d.User.Activate)
	user.POST("/forgot-password", d.User.ForgotPassword, limited)
	user.POST("/reset-password", d.User.ResetPassword)

	// Everything below requires an identity: session cookie, access
	// token or the static service token.
	gate := middleware.Authenticate(d.Cfg.JWTSecret, d.Cfg.APIToken, d.Sessions, d.Users)

	api := e.Group("/api", gate)
	api.GET("/auth/me", d.Auth.Me)
	api.PATCH("/user/:userId", d.User.Update)
	api.DELETE("/user/:userId/delete", d.User.Delete, middleware.RequireRole(model.RolePassenger))
	api.DELETE("/user/:userId", d.User.Delete, middleware.RequireRole(model.RolePassenger))

	// Driver management is supervisor territory, scoped to the
	// supervisor's own company inside the handlers.
	drivers := api.Group("/drivers", middleware.RequireRole(model.RoleSupervisor))
	drivers.GET("", d.Staff.ListDrivers)
	drivers.GET("/available", d.Staff.AvailableDrivers)
	drivers.POST("", d.Staff.CreateDriver)
	drivers.PATCH("/:id", d.Staff.PatchDriver)
	drivers.DELETE("/:id", d.Staff.DeleteDriver)

	// Supervisor management is administrator only.
	supervisors := api.Group("/supervisors", middleware.RequireRole(model.RoleAdministrator))
	supervisors.GET("", d.Staff.ListSupervisors)
	supervisors.GET("/available", d.Staff.AvailableSupervisors)
	supervisors.POST("", d.Staff.CreateSupervisor)
	supervisors.PATCH("/:id", d.Staff.PatchSupervisor)
	supervisors.DELETE("/:id", d.Staff.DeleteSupervisor)

	// Vehicles: supervisors manage their fleet, administrators see all.
	// Drivers only get the vehicles assigned to their routes.
	api.GET("/vehicles/my-assignments", d.Fleet.MyVehicles, middleware.RequireRole(model.RoleDriver))
	vehicles := api.Group("/vehicles", middleware.RequireRole(model.RoleSupervisor, model.RoleAdministrator))
	vehicles.POST("", d.Fleet.CreateVehicle)
	vehicles.GET("", d.Fleet.ListVehicles)
	vehicles.GET("/:id", d.Fleet.GetVehicle)
	vehicles.PATCH("/:id", d.Fleet.UpdateVehicle)
	vehicles.DELETE("/:id", d.Fleet.DeleteVehicle)

	// Routes: the catalogue is readable by every authenticated role;
	// mutation and assignment belong to supervisors and administrators.
	staff := middleware.RequireRole(model.RoleSupervisor, model.RoleAdministrator)
	api.GET("/routes", d.Fleet.ListRoutes)
	api.GET("/routes/:id", d.Fleet.GetRoute)
	api.POST("/routes", d.Fleet.CreateRoute, staff)
	api.PATCH("/routes/:id", d.Fleet.UpdateRoute, staff)
	api.DELETE("/routes/:id", d.Fleet.DeleteRoute, staff)
	api.POST("/routes/:id/drivers", d.Fleet.AssignDriver, staff)
	api.DELETE("/routes/:id/drivers/:driverId", d.Fleet.RemoveDriver, staff)
	api.POST("/routes/:id/vehicles", d.Fleet.AssignVehicle, staff)
	api.DELETE("/routes/:id/vehicles/:vehicleId", d.Fleet.RemoveVehicle, staff)

	// Schedules: the timetable is readable by every authenticated role.
	api.GET("/schedules", d.Fleet.ListSchedules)
	api.GET("/schedules/my-assignments", d.Fleet.MySchedules, middleware.RequireRole(model.RoleDriver))
	api.GET("/schedules/by-company", d.Fleet.CompanySchedules, middleware.RequireRole(model.RoleSupervisor))
	api.POST("/schedules", d.Fleet.CreateSchedule, staff)
	api.PATCH("/schedules/:id", d.Fleet.UpdateSchedule, staff)
	api.DELETE("/schedules/:id", d.Fleet.DeleteSchedule, staff)

	// Companies: catalogue for administrators, plus the supervisor's
	// own record.
	api.GET("/companies/my-company", d.Company.MyCompany, middleware.RequireRole(model.RoleSupervisor))
	api.POST("/companies", d.Company.Create, middleware.RequireRole(model.RoleAdministrator))
	api.GET("/companies", d.Company.List, middleware.RequireRole(model.RoleAdministrator))

	// Dashboard counters.
	api.GET("/dashboard/stats", d.Dashboard.Stats, middleware.RequireRole(model.RoleAdministrator, model.RoleSupervisor))
}
