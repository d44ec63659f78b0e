package repositories

import (
	"context"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
)

// RoomRepository defines the interface for room data operations
type RoomRepository interface {
	// GetByID retrieves a room by ID
	GetByID(ctx context.Context, id string) (*entities.Room, error)

	// SetDepartmentByRoomID moves a room to another department
	SetDepartmentByRoomID(ctx context.Context, roomID, departmentID string) error
}

// VisitorRepository defines the interface for visitor data operations
type VisitorRepository interface {
	// GetByToken retrieves a visitor by their session token
	GetByToken(ctx context.Context, token string) (*entities.Visitor, error)

	// SetDepartmentByToken moves a visitor to another department
	SetDepartmentByToken(ctx context.Context, token, departmentID string) error
}
