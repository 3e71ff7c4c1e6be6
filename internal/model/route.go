package model

import "time"

// Route represents a row of the `routes` table. Code is the public
// line identifier (e.g. "R-001") and is unique. State and city locate
// the line for search and filtering.
type Route struct {
	ID          uint64    `json:"id"`
	Code        string    `json:"code"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	State       string    `json:"state"`
	City        string    `json:"city"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RouteDriver links a driver to a route (`route_drivers` join table).
// A driver may only read schedules and vehicles reachable through rows
// of this table.
type RouteDriver struct {
	RouteID  uint64 `json:"routeId"`
	DriverID uint64 `json:"driverId"`
}

// RouteVehicle links a vehicle to a route (`route_vehicles` join table).
type RouteVehicle struct {
	RouteID   uint64 `json:"routeId"`
	VehicleID uint64 `json:"vehicleId"`
}
