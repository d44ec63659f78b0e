package services

import (
	"context"
	"time"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/observability"
)

// SingleBusinessHourBehavior manages only the global default business hour.
// Department topology events are no-ops: with a single schedule there is
// nothing to restructure.
type SingleBusinessHourBehavior struct {
	businessHourOpener
	availability *AgentAvailabilityService
	now          func() time.Time
}

// NewSingleBusinessHourBehavior creates the single-schedule behavior
func NewSingleBusinessHourBehavior(
	businessHourRepo repositories.BusinessHourRepository,
	availability *AgentAvailabilityService,
	metrics *observability.Metrics,
) *SingleBusinessHourBehavior {
	return &SingleBusinessHourBehavior{
		businessHourOpener: businessHourOpener{
			businessHourRepo: businessHourRepo,
			availability:     availability,
			metrics:          metrics,
		},
		availability: availability,
		now:          time.Now,
	}
}

// Name returns the behavior type name
func (b *SingleBusinessHourBehavior) Name() string {
	return BehaviorSingle
}

// OnStartBusinessHours resets the agent baseline and reopens the default
// business hour when its window contains the current instant
func (b *SingleBusinessHourBehavior) OnStartBusinessHours(ctx context.Context) error {
	if err := b.availability.ResetAllAgents(ctx); err != nil {
		return err
	}

	defaultBH, err := b.findDefault(ctx)
	if err != nil {
		return err
	}

	mustBeOpen := FilterBusinessHoursThatMustBeOpened([]*entities.BusinessHour{defaultBH}, b.now())
	return b.openBusinessHours(ctx, mustBeOpen)
}

// OpenBusinessHoursByDayAndHour opens the default business hour when one of
// its windows starts at the given UTC day and hour
func (b *SingleBusinessHourBehavior) OpenBusinessHoursByDayAndHour(ctx context.Context, day, hour string) error {
	records, err := b.businessHourRepo.FindActiveToOpen(ctx, day, hour)
	if err != nil {
		return err
	}
	mustBeOpen := FilterBusinessHoursThatMustBeOpened(onlyDefault(records), b.now())
	return b.openBusinessHours(ctx, mustBeOpen)
}

// CloseBusinessHoursByDayAndHour closes the default business hour when one
// of its windows ends at the given UTC day and hour
func (b *SingleBusinessHourBehavior) CloseBusinessHoursByDayAndHour(ctx context.Context, day, hour string) error {
	records, err := b.businessHourRepo.FindActiveToClose(ctx, day, hour)
	if err != nil {
		return err
	}
	return b.closeBusinessHours(ctx, onlyDefault(records))
}

// AfterSaveBusinessHours re-evaluates the saved record's open state. The
// single variant ignores department links.
func (b *SingleBusinessHourBehavior) AfterSaveBusinessHours(ctx context.Context, businessHour *entities.BusinessHour, _ []string) error {
	if businessHour.Active && businessHour.IsOpenAt(b.now()) {
		return b.openBusinessHours(ctx, []*entities.BusinessHour{businessHour})
	}
	return b.closeBusinessHours(ctx, []*entities.BusinessHour{businessHour})
}

// OnAddAgentToDepartment is a no-op for the single variant
func (b *SingleBusinessHourBehavior) OnAddAgentToDepartment(ctx context.Context, departmentID, agentID string) error {
	return nil
}

// OnRemoveAgentFromDepartment is a no-op for the single variant
func (b *SingleBusinessHourBehavior) OnRemoveAgentFromDepartment(ctx context.Context, departmentID, agentID string) error {
	return nil
}

// OnDepartmentDisabled is a no-op for the single variant
func (b *SingleBusinessHourBehavior) OnDepartmentDisabled(ctx context.Context, department *entities.Department) error {
	return nil
}

// OnDepartmentArchived is a no-op for the single variant
func (b *SingleBusinessHourBehavior) OnDepartmentArchived(ctx context.Context, department *entities.Department) error {
	return nil
}

// OnRemoveDepartment is a no-op for the single variant
func (b *SingleBusinessHourBehavior) OnRemoveDepartment(ctx context.Context, department *entities.Department) error {
	return nil
}

// OnNewAgentCreated applies the default business hour to the agent when it
// is currently open
func (b *SingleBusinessHourBehavior) OnNewAgentCreated(ctx context.Context, agentID string) error {
	defaultBH, err := b.findDefault(ctx)
	if err != nil {
		return err
	}
	if !defaultBH.Open {
		return nil
	}
	if err := b.availability.AddBusinessHourToAgents(ctx, []string{agentID}, defaultBH.ID); err != nil {
		return err
	}
	return b.availability.RefreshLivechatStatuses(ctx)
}

// AllowAgentChangeServiceStatus gates manual go-available on a non-empty
// open set
func (b *SingleBusinessHourBehavior) AllowAgentChangeServiceStatus(ctx context.Context, agentID string) (bool, error) {
	return b.availability.IsAgentWithinBusinessHours(ctx, agentID)
}

// OnDisableBusinessHours closes every active record and strips all agent
// projections
func (b *SingleBusinessHourBehavior) OnDisableBusinessHours(ctx context.Context) error {
	return b.disableAll(ctx)
}

func onlyDefault(records []*entities.BusinessHour) []*entities.BusinessHour {
	var defaults []*entities.BusinessHour
	for _, bh := range records {
		if bh.IsDefault() {
			defaults = append(defaults, bh)
		}
	}
	return defaults
}
