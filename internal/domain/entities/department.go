package entities

import (
	"time"
)

// Department represents a livechat department. A department references at
// most one business hour; the nullable BusinessHourID column is what
// enforces that invariant.
type Department struct {
	ID                          string    `json:"id" db:"id"`
	Name                        string    `json:"name" db:"name"`
	Enabled                     bool      `json:"enabled" db:"enabled"`
	Archived                    bool      `json:"archived" db:"archived"`
	BusinessHourID              *string   `json:"business_hour_id" db:"business_hour_id"`
	FallbackForwardDepartmentID *string   `json:"fallback_forward_department_id" db:"fallback_forward_department_id"`
	CreatedAt                   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt                   time.Time `json:"updated_at" db:"updated_at"`
}
