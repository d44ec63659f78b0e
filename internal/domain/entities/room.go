package entities

import (
	"time"
)

// Room is the omnichannel conversation room an inquiry belongs to
type Room struct {
	ID           string         `json:"id" db:"id"`
	DepartmentID string         `json:"department_id" db:"department_id"`
	Open         bool           `json:"open" db:"open"`
	VisitorToken string         `json:"visitor_token" db:"visitor_token"`
	ServedBy     *SelectedAgent `json:"served_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}
