package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
)

// SortedQueueParams selects a department's waiting queue slice. When
// InquiryID is set only that inquiry's row (with its rank) is returned.
type SortedQueueParams struct {
	InquiryID    string
	DepartmentID string
	SortBy       entities.QueueSortMechanism
}

// InquiryRepository defines the interface for inquiry data operations
type InquiryRepository interface {
	// Create creates a new inquiry
	Create(ctx context.Context, inquiry *entities.Inquiry) error

	// GetByID retrieves an inquiry by ID
	GetByID(ctx context.Context, id string) (*entities.Inquiry, error)

	// GetByRoomID retrieves the inquiry of a room
	GetByRoomID(ctx context.Context, roomID string) (*entities.Inquiry, error)

	// SetDepartmentByID reassigns an inquiry to a department and returns
	// the updated record
	SetDepartmentByID(ctx context.Context, id, departmentID string) (*entities.Inquiry, error)

	// QueueByID moves an inquiry to queued status, stamping queuedAt
	QueueByID(ctx context.Context, id string, queuedAt time.Time) error

	// TakeByID moves an inquiry to taken status, stamping takenAt
	TakeByID(ctx context.Context, id string, takenAt time.Time) error

	// ReadyByID moves an inquiry back to ready status
	ReadyByID(ctx context.Context, id string) error

	// GetCurrentSortedQueue returns a department's queued inquiries with
	// their 1-based position under the given sort mechanism
	GetCurrentSortedQueue(ctx context.Context, params SortedQueueParams) ([]*entities.QueuedInquiry, error)

	// RemoveByRoomID deletes the inquiry of a room (room closure)
	RemoveByRoomID(ctx context.Context, roomID string) error
}
