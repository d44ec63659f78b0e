package entities

import (
	"time"
)

// InquiryStatus represents the routing state of an inquiry. Transitions are
// strictly forward (queued -> ready -> taken) except for an explicit return
// to the queue, which resets the inquiry to queued.
type InquiryStatus string

const (
	InquiryStatusQueued InquiryStatus = "queued"
	InquiryStatusReady  InquiryStatus = "ready"
	InquiryStatusTaken  InquiryStatus = "taken"
	InquiryStatusOpen   InquiryStatus = "open"
)

// Visitor is the subset of visitor data carried on an inquiry
type Visitor struct {
	ID           string `json:"id" db:"visitor_id"`
	Username     string `json:"username" db:"visitor_username"`
	Token        string `json:"token" db:"visitor_token"`
	Status       string `json:"status" db:"visitor_status"`
	DepartmentID string `json:"department_id,omitempty"`
}

// Inquiry is a pending, not-yet-assigned visitor conversation awaiting an
// agent. One inquiry exists per room id. PriorityWeight sorts ascending
// (lower weight is more urgent); EstimatedWaitingTime is the SLA due time
// in minutes.
type Inquiry struct {
	ID                   string         `json:"id" db:"id"`
	RoomID               string         `json:"room_id" db:"room_id"`
	Name                 string         `json:"name" db:"name"`
	Message              string         `json:"message" db:"message"`
	Status               InquiryStatus  `json:"status" db:"status"`
	DepartmentID         string         `json:"department_id" db:"department_id"`
	Visitor              Visitor        `json:"visitor"`
	DefaultAgent         *SelectedAgent `json:"default_agent,omitempty"`
	PriorityWeight       int            `json:"priority_weight" db:"priority_weight"`
	EstimatedWaitingTime int            `json:"estimated_waiting_time" db:"estimated_waiting_time"`
	TS                   time.Time      `json:"ts" db:"ts"`
	QueuedAt             *time.Time     `json:"queued_at,omitempty" db:"queued_at"`
	TakenAt              *time.Time     `json:"taken_at,omitempty" db:"taken_at"`
}

// QueuedInquiry is one entry of a department's sorted waiting queue.
// Position is the 1-based rank under the queue's sort mechanism.
type QueuedInquiry struct {
	Inquiry
	Position int `json:"position" db:"position"`
}

// QueueSortMechanism selects the waiting queue's total order
type QueueSortMechanism string

const (
	// QueueSortTimestamp is first-come-first-served
	QueueSortTimestamp QueueSortMechanism = "timestamp"

	// QueueSortPriority orders by priority weight, then SLA estimated
	// waiting time, ties broken by timestamp ascending
	QueueSortPriority QueueSortMechanism = "priority"
)
