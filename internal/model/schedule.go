package model

import "time"

// Schedule represents a row of the `schedules` table: one timetable
// entry of a route. Departure and arrival are clock times stored as
// "HH:MM" strings, weekdays is a comma separated list such as
// "MON,TUE,WED". RouteCode is denormalized from the route to keep list
// queries cheap, matching how clients filter timetables.
type Schedule struct {
	ID        uint64    `json:"id"`
	RouteID   uint64    `json:"routeId"`
	RouteCode string    `json:"routeCode"`
	Departure string    `json:"departure"`
	Arrival   string    `json:"arrival"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Weekdays  string    `json:"weekdays"`
	CreatedAt time.Time `json:"createdAt"`
}
