package services

import (
	"context"
	"time"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
)

// Behavior type names selected by the business hour type setting
const (
	BehaviorSingle   = "single"
	BehaviorMultiple = "multiple"
)

// BusinessHourBehavior is the strategy behind the business hour manager.
// The single variant only manages the global default business hour; the
// multiple variant additionally reacts to department topology changes.
// Lifecycle methods are invoked by collaborators after their own mutations
// (the membership row is already gone when OnRemoveAgentFromDepartment
// runs).
type BusinessHourBehavior interface {
	// Name returns the behavior type name
	Name() string

	// OnStartBusinessHours resets every agent's open-set baseline and opens
	// the business hours that must currently be open
	OnStartBusinessHours(ctx context.Context) error

	// OpenBusinessHoursByDayAndHour opens active business hours whose UTC
	// window starts at the given day and "HH:mm" hour
	OpenBusinessHoursByDayAndHour(ctx context.Context, day, hour string) error

	// CloseBusinessHoursByDayAndHour closes active business hours whose UTC
	// window ends at the given day and "HH:mm" hour
	CloseBusinessHoursByDayAndHour(ctx context.Context, day, hour string) error

	// AfterSaveBusinessHours reconciles department links and open state
	// after an admin edit
	AfterSaveBusinessHours(ctx context.Context, businessHour *entities.BusinessHour, departmentsToApply []string) error

	// OnAddAgentToDepartment reacts to an agent joining a department
	OnAddAgentToDepartment(ctx context.Context, departmentID, agentID string) error

	// OnRemoveAgentFromDepartment reacts to an agent leaving a department
	OnRemoveAgentFromDepartment(ctx context.Context, departmentID, agentID string) error

	// OnDepartmentDisabled reacts to a department being disabled
	OnDepartmentDisabled(ctx context.Context, department *entities.Department) error

	// OnDepartmentArchived reacts to a department being archived
	OnDepartmentArchived(ctx context.Context, department *entities.Department) error

	// OnRemoveDepartment reacts to a department being removed
	OnRemoveDepartment(ctx context.Context, department *entities.Department) error

	// OnNewAgentCreated applies the default business hour to a fresh agent
	// when it is currently open
	OnNewAgentCreated(ctx context.Context, agentID string) error

	// AllowAgentChangeServiceStatus gates a manual go-available action on
	// the agent being within an open business hour
	AllowAgentChangeServiceStatus(ctx context.Context, agentID string) (bool, error)

	// OnDisableBusinessHours tears down all projections when the feature
	// flag goes off
	OnDisableBusinessHours(ctx context.Context) error
}

// FilterBusinessHoursThatMustBeOpened returns the subset of business hours
// whose configured windows contain the given instant, each evaluated in its
// own timezone. Pure; re-run on every save, lifecycle event and tick.
func FilterBusinessHoursThatMustBeOpened(businessHours []*entities.BusinessHour, now time.Time) []*entities.BusinessHour {
	var mustBeOpen []*entities.BusinessHour
	for _, bh := range businessHours {
		if !bh.Active {
			continue
		}
		if bh.IsOpenAt(now) {
			mustBeOpen = append(mustBeOpen, bh)
		}
	}
	return mustBeOpen
}
