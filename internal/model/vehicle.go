package model

import "time"

// Vehicle represents a row of the `vehicles` table. The plate is unique
// across all companies.
type Vehicle struct {
	ID        uint64    `json:"id"`
	Plate     string    `json:"plate"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	CompanyID uint64    `json:"companyId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
