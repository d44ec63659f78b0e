package repositories

import (
	"context"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
)

// BusinessHourRepository defines the interface for business hour data operations
type BusinessHourRepository interface {
	// Create creates a new business hour with its work-hour windows
	Create(ctx context.Context, businessHour *entities.BusinessHour) error

	// GetByID retrieves a business hour by ID, windows included
	GetByID(ctx context.Context, id string) (*entities.BusinessHour, error)

	// Update replaces a business hour record and its windows
	Update(ctx context.Context, businessHour *entities.BusinessHour) error

	// FindOneDefault retrieves the single-type default business hour
	FindOneDefault(ctx context.Context) (*entities.BusinessHour, error)

	// FindActiveByDay retrieves active business hours that have a window
	// on the given UTC weekday
	FindActiveByDay(ctx context.Context, day string) ([]*entities.BusinessHour, error)

	// FindActiveToOpen retrieves active business hours with a window whose
	// UTC start matches the given day and "HH:mm" hour
	FindActiveToOpen(ctx context.Context, day, hour string) ([]*entities.BusinessHour, error)

	// FindActiveToClose retrieves active business hours with a window whose
	// UTC end matches the given day and "HH:mm" hour
	FindActiveToClose(ctx context.Context, day, hour string) ([]*entities.BusinessHour, error)

	// FindActive retrieves all active business hours
	FindActive(ctx context.Context) ([]*entities.BusinessHour, error)

	// SetOpenByIDs marks the given business hours open or closed
	SetOpenByIDs(ctx context.Context, ids []string, open bool) error

	// Disable deactivates (and closes) a business hour
	Disable(ctx context.Context, id string) error
}
