package services

import (
	"context"
	"time"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/omnichannel-engine/pkg/errors"
)

// MultipleBusinessHourBehavior manages per-department business hours next
// to the global default, cascading through department topology changes:
// unlink on disable/archive/remove, disable a business hour losing its last
// department, and restore the default for agents falling out of scope.
type MultipleBusinessHourBehavior struct {
	businessHourOpener
	departmentRepo repositories.DepartmentRepository
	availability   *AgentAvailabilityService
	now            func() time.Time
}

// NewMultipleBusinessHourBehavior creates the per-department behavior
func NewMultipleBusinessHourBehavior(
	businessHourRepo repositories.BusinessHourRepository,
	departmentRepo repositories.DepartmentRepository,
	availability *AgentAvailabilityService,
	metrics *observability.Metrics,
) *MultipleBusinessHourBehavior {
	return &MultipleBusinessHourBehavior{
		businessHourOpener: businessHourOpener{
			businessHourRepo: businessHourRepo,
			availability:     availability,
			metrics:          metrics,
		},
		departmentRepo: departmentRepo,
		availability:   availability,
		now:            time.Now,
	}
}

// Name returns the behavior type name
func (b *MultipleBusinessHourBehavior) Name() string {
	return BehaviorMultiple
}

// OnStartBusinessHours resets the agent baseline, then opens every active
// business hour whose window contains the current instant
func (b *MultipleBusinessHourBehavior) OnStartBusinessHours(ctx context.Context) error {
	if err := b.availability.ResetAllAgents(ctx); err != nil {
		return err
	}

	day := b.now().UTC().Weekday().String()
	records, err := b.businessHourRepo.FindActiveByDay(ctx, day)
	if err != nil {
		return err
	}

	mustBeOpen := FilterBusinessHoursThatMustBeOpened(records, b.now())
	return b.openBusinessHours(ctx, mustBeOpen)
}

// OpenBusinessHoursByDayAndHour opens active business hours whose UTC
// window starts at the given day and hour
func (b *MultipleBusinessHourBehavior) OpenBusinessHoursByDayAndHour(ctx context.Context, day, hour string) error {
	records, err := b.businessHourRepo.FindActiveToOpen(ctx, day, hour)
	if err != nil {
		return err
	}
	mustBeOpen := FilterBusinessHoursThatMustBeOpened(records, b.now())
	return b.openBusinessHours(ctx, mustBeOpen)
}

// CloseBusinessHoursByDayAndHour closes active business hours whose UTC
// window ends at the given day and hour
func (b *MultipleBusinessHourBehavior) CloseBusinessHoursByDayAndHour(ctx context.Context, day, hour string) error {
	records, err := b.businessHourRepo.FindActiveToClose(ctx, day, hour)
	if err != nil {
		return err
	}
	return b.closeBusinessHours(ctx, records)
}

// AfterSaveBusinessHours reconciles the record's department links against
// departmentsToApply: unlinked departments lose the record from their
// agents (the default takes over where applicable), new departments gain
// the link, and the record's open state is re-evaluated.
func (b *MultipleBusinessHourBehavior) AfterSaveBusinessHours(ctx context.Context, businessHour *entities.BusinessHour, departmentsToApply []string) error {
	if businessHour.IsDefault() {
		// Department links never apply to the default record.
		return b.reevaluateOpenState(ctx, businessHour)
	}

	current, err := b.departmentRepo.FindDepartmentIDsByBusinessHourID(ctx, businessHour.ID)
	if err != nil {
		return err
	}

	removed := difference(current, departmentsToApply)
	added := difference(departmentsToApply, current)

	if len(removed) > 0 {
		agentIDs, err := b.departmentRepo.FindAgentIDsByDepartmentIDs(ctx, removed)
		if err != nil {
			return err
		}
		if err := b.departmentRepo.RemoveBusinessHourByIDs(ctx, removed, businessHour.ID); err != nil {
			return err
		}
		if err := b.availability.RemoveBusinessHourFromAgents(ctx, agentIDs, businessHour.ID); err != nil {
			return err
		}
		if err := b.restoreDefaultForUncoveredAgents(ctx); err != nil {
			return err
		}
	}

	if len(added) > 0 {
		if err := b.departmentRepo.AssignBusinessHour(ctx, added, businessHour.ID); err != nil {
			return err
		}
	}

	return b.reevaluateOpenState(ctx, businessHour)
}

// OnAddAgentToDepartment strips the default business hour from the agent,
// then attaches the department's own one when it exists and is open. The
// default is removed even for departments without a business hour; the next
// default open pass re-covers such agents.
func (b *MultipleBusinessHourBehavior) OnAddAgentToDepartment(ctx context.Context, departmentID, agentID string) error {
	department, err := b.departmentRepo.GetByID(ctx, departmentID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	defaultBH, err := b.findDefault(ctx)
	if err != nil {
		return err
	}
	if err := b.availability.RemoveBusinessHourFromAgents(ctx, []string{agentID}, defaultBH.ID); err != nil {
		return err
	}

	if department.BusinessHourID == nil {
		return b.availability.RefreshLivechatStatuses(ctx)
	}

	businessHour, err := b.businessHourRepo.GetByID(ctx, *department.BusinessHourID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewInternalError("department references a missing business hour", err)
		}
		return err
	}
	if businessHour.Open {
		if err := b.availability.AddBusinessHourToAgents(ctx, []string{agentID}, businessHour.ID); err != nil {
			return err
		}
	}

	return b.availability.RefreshLivechatStatuses(ctx)
}

// OnRemoveAgentFromDepartment detaches the agent from the left department's
// business hour when no other of their departments shares it, and restores
// the default when they have no departments left
func (b *MultipleBusinessHourBehavior) OnRemoveAgentFromDepartment(ctx context.Context, departmentID, agentID string) error {
	department, err := b.departmentRepo.GetByID(ctx, departmentID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	if department.BusinessHourID != nil {
		// Membership is already removed; a zero count means no remaining
		// department of this agent shares the business hour.
		shared, err := b.departmentRepo.CountByAgentIDAndBusinessHourID(ctx, agentID, *department.BusinessHourID)
		if err != nil {
			return err
		}
		if shared == 0 {
			if err := b.availability.RemoveBusinessHourFromAgents(ctx, []string{agentID}, *department.BusinessHourID); err != nil {
				return err
			}
		}
	}

	remaining, err := b.departmentRepo.CountDepartmentsByAgentID(ctx, agentID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		defaultBH, err := b.findDefault(ctx)
		if err != nil {
			return err
		}
		if defaultBH.Open {
			if err := b.availability.AddBusinessHourToAgents(ctx, []string{agentID}, defaultBH.ID); err != nil {
				return err
			}
		}
	}

	// A department left without agents cannot keep a business hour open.
	remainingAgents, err := b.departmentRepo.FindAgentIDsByDepartmentIDs(ctx, []string{department.ID})
	if err != nil {
		return err
	}
	if len(remainingAgents) == 0 && department.BusinessHourID != nil {
		return b.onDepartmentUnlinked(ctx, department)
	}

	return b.availability.RefreshLivechatStatuses(ctx)
}

// OnDepartmentDisabled unlinks the department's business hour, disabling it
// entirely when this was its last department
func (b *MultipleBusinessHourBehavior) OnDepartmentDisabled(ctx context.Context, department *entities.Department) error {
	return b.onDepartmentUnlinked(ctx, department)
}

// OnDepartmentArchived behaves like a disable for business hour purposes
func (b *MultipleBusinessHourBehavior) OnDepartmentArchived(ctx context.Context, department *entities.Department) error {
	return b.onDepartmentUnlinked(ctx, department)
}

// OnRemoveDepartment behaves like a disable for business hour purposes
func (b *MultipleBusinessHourBehavior) OnRemoveDepartment(ctx context.Context, department *entities.Department) error {
	return b.onDepartmentUnlinked(ctx, department)
}

// OnNewAgentCreated applies the default business hour to the fresh,
// department-less agent when it is currently open
func (b *MultipleBusinessHourBehavior) OnNewAgentCreated(ctx context.Context, agentID string) error {
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
func (b *MultipleBusinessHourBehavior) AllowAgentChangeServiceStatus(ctx context.Context, agentID string) (bool, error) {
	return b.availability.IsAgentWithinBusinessHours(ctx, agentID)
}

// OnDisableBusinessHours closes every active record and strips all agent
// projections
func (b *MultipleBusinessHourBehavior) OnDisableBusinessHours(ctx context.Context) error {
	return b.disableAll(ctx)
}

func (b *MultipleBusinessHourBehavior) onDepartmentUnlinked(ctx context.Context, department *entities.Department) error {
	if department == nil || department.BusinessHourID == nil {
		return nil
	}

	businessHour, err := b.businessHourRepo.GetByID(ctx, *department.BusinessHourID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewInternalError("department references a missing business hour", err)
		}
		return err
	}

	if err := b.departmentRepo.RemoveBusinessHourByIDs(ctx, []string{department.ID}, businessHour.ID); err != nil {
		return err
	}

	defaultBH, err := b.findDefault(ctx)
	if err != nil {
		return err
	}

	// Drop both projections wholesale; the reopen pass below rebuilds them
	// from the remaining links, so the unlinked department's agents lose
	// the record even when other departments keep it alive.
	if err := b.availability.CloseBusinessHours(ctx, []string{businessHour.ID, defaultBH.ID}); err != nil {
		return err
	}

	others, err := b.departmentRepo.CountByBusinessHourIDExcluding(ctx, businessHour.ID, department.ID)
	if err != nil {
		return err
	}
	if others == 0 {
		observability.LoggerFromContext(ctx).Info().
			Str("business_hour_id", businessHour.ID).
			Str("department_id", department.ID).
			Msg("Disabling business hour after losing its last department")
		if err := b.businessHourRepo.Disable(ctx, businessHour.ID); err != nil {
			return err
		}
		businessHour.Active = false
		observability.RecordBusinessHoursClosed(ctx, b.metrics, 1)
	}

	mustBeOpen := FilterBusinessHoursThatMustBeOpened([]*entities.BusinessHour{businessHour, defaultBH}, b.now())
	if err := b.openBusinessHours(ctx, mustBeOpen); err != nil {
		return err
	}
	return b.availability.RefreshLivechatStatuses(ctx)
}

// restoreDefaultForUncoveredAgents re-applies the default business hour,
// when it must currently be open, to every agent no longer covered by a
// department business hour. The insert is a whole-set union so repeated
// application is harmless.
func (b *MultipleBusinessHourBehavior) restoreDefaultForUncoveredAgents(ctx context.Context) error {
	defaultBH, err := b.findDefault(ctx)
	if err != nil {
		return err
	}
	if !defaultBH.Active || !defaultBH.IsOpenAt(b.now()) {
		return b.availability.RefreshLivechatStatuses(ctx)
	}
	return b.openBusinessHours(ctx, []*entities.BusinessHour{defaultBH})
}

func (b *MultipleBusinessHourBehavior) reevaluateOpenState(ctx context.Context, businessHour *entities.BusinessHour) error {
	if businessHour.Active && businessHour.IsOpenAt(b.now()) {
		return b.openBusinessHours(ctx, []*entities.BusinessHour{businessHour})
	}
	return b.closeBusinessHours(ctx, []*entities.BusinessHour{businessHour})
}

// difference returns the elements of a that are not in b
func difference(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, v := range b {
		seen[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := seen[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
