package model

import "time"

// Company represents a row of the `companies` table. Companies scope
// what supervisors and drivers can see: every query issued on behalf of
// a supervisor is filtered by their company id.
type Company struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
