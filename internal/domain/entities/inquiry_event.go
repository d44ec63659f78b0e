package entities

import (
	"time"
)

// InquiryEventType identifies the kind of inquiry event
type InquiryEventType string

const (
	// InquiryEventPosition notifies a waiting visitor of their queue rank
	InquiryEventPosition InquiryEventType = "position"

	// InquiryEventReady signals an inquiry reached ready status and awaits
	// a routing pass
	InquiryEventReady InquiryEventType = "ready"

	// InquiryEventQueued signals an inquiry entered the waiting queue
	InquiryEventQueued InquiryEventType = "queued"

	// InquiryEventTaken signals an inquiry was taken by an agent
	InquiryEventTaken InquiryEventType = "taken"
)

// InquiryEvent is the payload pushed on the notification channel to the
// owning visitor/agent session
type InquiryEvent struct {
	ID                   string           `json:"id"`
	Type                 InquiryEventType `json:"type"`
	InquiryID            string           `json:"inquiry_id"`
	RoomID               string           `json:"room_id"`
	DepartmentID         string           `json:"department_id"`
	Position             int              `json:"position,omitempty"`
	EstimatedWaitingTime int              `json:"estimated_waiting_time,omitempty"`
	OccurredAt           time.Time        `json:"occurred_at"`
}
