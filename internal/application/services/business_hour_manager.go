package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/providers"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/omnichannel-engine/pkg/errors"
)

// tickKey identifies one distinct scheduled trigger: open or close at a
// UTC day and "HH:mm" time
type tickKey struct {
	open bool
	day  string
	time string
}

// BusinessHourManager holds the active behavior strategy and owns the
// mapping from required tick times to scheduler job ids. Lifecycle events
// from collaborators go through the manager so topology changes can
// reschedule ticks after the behavior has reacted.
type BusinessHourManager struct {
	mu               sync.Mutex
	behaviors        map[string]BusinessHourBehavior
	behavior         BusinessHourBehavior
	scheduler        providers.Scheduler
	businessHourRepo repositories.BusinessHourRepository
	jobs             map[tickKey]providers.JobID
	started          bool
}

// NewBusinessHourManager creates a manager over the given behaviors. The
// initial active behavior is selected by behaviorType.
func NewBusinessHourManager(
	scheduler providers.Scheduler,
	businessHourRepo repositories.BusinessHourRepository,
	behaviorType string,
	behaviors ...BusinessHourBehavior,
) (*BusinessHourManager, error) {
	m := &BusinessHourManager{
		behaviors:        make(map[string]BusinessHourBehavior, len(behaviors)),
		scheduler:        scheduler,
		businessHourRepo: businessHourRepo,
		jobs:             make(map[tickKey]providers.JobID),
	}
	for _, b := range behaviors {
		m.behaviors[b.Name()] = b
	}

	behavior, ok := m.behaviors[behaviorType]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown business hour behavior: %s", behaviorType))
	}
	m.behavior = behavior
	return m, nil
}

// Behavior returns the active behavior
func (m *BusinessHourManager) Behavior() BusinessHourBehavior {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.behavior
}

// StartManager opens the business hours that must currently be open and
// schedules the tick set. Idempotent.
func (m *BusinessHourManager) StartManager(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(ctx)
}

// StopManager cancels every scheduled tick. Idempotent.
func (m *BusinessHourManager) StopManager(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked(ctx)
	return nil
}

// RestartCronJobsIfNecessary diffs the required tick set against the
// scheduled one and only touches the delta
func (m *BusinessHourManager) RestartCronJobsIfNecessary(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	return m.reconcileTicksLocked(ctx)
}

// SwitchBehavior tears down the active behavior's ticks and starts the new
// behavior, preserving the manager's started state
func (m *BusinessHourManager) SwitchBehavior(ctx context.Context, behaviorType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := m.behaviors[behaviorType]
	if !ok {
		return apperrors.NewValidationError(fmt.Sprintf("unknown business hour behavior: %s", behaviorType))
	}
	if next == m.behavior {
		return nil
	}

	wasStarted := m.started
	m.stopLocked(ctx)
	m.behavior = next
	observability.LoggerFromContext(ctx).Info().
		Str("behavior", behaviorType).
		Msg("Switched business hour behavior")

	if wasStarted {
		return m.startLocked(ctx)
	}
	return nil
}

// OnDisableBusinessHours tears down projections and stops ticking; invoked
// when the feature flag goes off
func (m *BusinessHourManager) OnDisableBusinessHours(ctx context.Context) error {
	if err := m.Behavior().OnDisableBusinessHours(ctx); err != nil {
		return err
	}
	return m.StopManager(ctx)
}

// AfterSaveBusinessHours runs the behavior's save reaction and reschedules
// ticks for any changed window times
func (m *BusinessHourManager) AfterSaveBusinessHours(ctx context.Context, businessHour *entities.BusinessHour, departmentsToApply []string) error {
	if err := m.Behavior().AfterSaveBusinessHours(ctx, businessHour, departmentsToApply); err != nil {
		return err
	}
	return m.RestartCronJobsIfNecessary(ctx)
}

// OnAddAgentToDepartment forwards the event to the active behavior
func (m *BusinessHourManager) OnAddAgentToDepartment(ctx context.Context, departmentID, agentID string) error {
	return m.Behavior().OnAddAgentToDepartment(ctx, departmentID, agentID)
}

// OnRemoveAgentFromDepartment forwards the event and reschedules ticks: the
// cascade may have disabled a business hour
func (m *BusinessHourManager) OnRemoveAgentFromDepartment(ctx context.Context, departmentID, agentID string) error {
	if err := m.Behavior().OnRemoveAgentFromDepartment(ctx, departmentID, agentID); err != nil {
		return err
	}
	return m.RestartCronJobsIfNecessary(ctx)
}

// OnDepartmentDisabled forwards the event and reschedules ticks
func (m *BusinessHourManager) OnDepartmentDisabled(ctx context.Context, department *entities.Department) error {
	if err := m.Behavior().OnDepartmentDisabled(ctx, department); err != nil {
		return err
	}
	return m.RestartCronJobsIfNecessary(ctx)
}

// OnDepartmentArchived forwards the event and reschedules ticks
func (m *BusinessHourManager) OnDepartmentArchived(ctx context.Context, department *entities.Department) error {
	if err := m.Behavior().OnDepartmentArchived(ctx, department); err != nil {
		return err
	}
	return m.RestartCronJobsIfNecessary(ctx)
}

// OnRemoveDepartment forwards the event and reschedules ticks
func (m *BusinessHourManager) OnRemoveDepartment(ctx context.Context, department *entities.Department) error {
	if err := m.Behavior().OnRemoveDepartment(ctx, department); err != nil {
		return err
	}
	return m.RestartCronJobsIfNecessary(ctx)
}

// OnNewAgentCreated forwards the event to the active behavior
func (m *BusinessHourManager) OnNewAgentCreated(ctx context.Context, agentID string) error {
	return m.Behavior().OnNewAgentCreated(ctx, agentID)
}

// AllowAgentChangeServiceStatus forwards the gate to the active behavior
func (m *BusinessHourManager) AllowAgentChangeServiceStatus(ctx context.Context, agentID string) (bool, error) {
	return m.Behavior().AllowAgentChangeServiceStatus(ctx, agentID)
}

// RegisterSettingsWatchers wires the manager to the enable flag and the
// behavior type setting. Watch callbacks fire once at registration, so the
// manager reaches the configured state immediately.
func (m *BusinessHourManager) RegisterSettingsWatchers(settings providers.Settings) {
	settings.Watch(providers.SettingBusinessHourType, func(value any) {
		behaviorType, ok := value.(string)
		if !ok || behaviorType == "" {
			return
		}
		ctx := context.Background()
		if err := m.SwitchBehavior(ctx, behaviorType); err != nil {
			observability.GetLogger().Error().Err(err).Msg("Failed to switch business hour behavior")
		}
	})

	settings.Watch(providers.SettingBusinessHoursEnabled, func(value any) {
		enabled, ok := value.(bool)
		if !ok {
			return
		}
		ctx := context.Background()
		if enabled {
			if err := m.StartManager(ctx); err != nil {
				observability.GetLogger().Error().Err(err).Msg("Failed to start business hour manager")
			}
			return
		}
		if err := m.OnDisableBusinessHours(ctx); err != nil {
			observability.GetLogger().Error().Err(err).Msg("Failed to disable business hours")
		}
	})
}

func (m *BusinessHourManager) startLocked(ctx context.Context) error {
	if m.started {
		return nil
	}
	if err := m.behavior.OnStartBusinessHours(ctx); err != nil {
		return err
	}
	if err := m.reconcileTicksLocked(ctx); err != nil {
		return err
	}
	m.started = true
	observability.LoggerFromContext(ctx).Info().
		Str("behavior", m.behavior.Name()).
		Int("ticks", len(m.jobs)).
		Msg("Business hour manager started")
	return nil
}

func (m *BusinessHourManager) stopLocked(ctx context.Context) {
	if !m.started {
		return
	}
	for key, id := range m.jobs {
		m.scheduler.Remove(id)
		delete(m.jobs, key)
	}
	m.started = false
	observability.LoggerFromContext(ctx).Info().Msg("Business hour manager stopped")
}

// reconcileTicksLocked schedules one trigger per distinct open and close
// time across all active records, removing triggers no window needs anymore
func (m *BusinessHourManager) reconcileTicksLocked(ctx context.Context) error {
	required, err := m.requiredTicks(ctx)
	if err != nil {
		return err
	}

	for key, id := range m.jobs {
		if _, ok := required[key]; !ok {
			m.scheduler.Remove(id)
			delete(m.jobs, key)
		}
	}

	for key := range required {
		if _, ok := m.jobs[key]; ok {
			continue
		}
		key := key
		var fn func()
		if key.open {
			fn = func() { m.runTick(key, true) }
		} else {
			fn = func() { m.runTick(key, false) }
		}
		id, err := m.scheduler.Schedule(providers.TickSpec{Day: key.day, Time: key.time}, fn)
		if err != nil {
			return err
		}
		m.jobs[key] = id
	}
	return nil
}

func (m *BusinessHourManager) requiredTicks(ctx context.Context) (map[tickKey]struct{}, error) {
	records, err := m.businessHourRepo.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	required := make(map[tickKey]struct{})
	for _, bh := range records {
		for _, w := range bh.WorkHours {
			required[tickKey{open: true, day: w.StartUTCDay, time: w.StartUTCTime}] = struct{}{}
			required[tickKey{open: false, day: w.EndUTCDay, time: w.EndUTCTime}] = struct{}{}
		}
	}
	return required, nil
}

func (m *BusinessHourManager) runTick(key tickKey, open bool) {
	ctx := context.Background()
	behavior := m.Behavior()

	var err error
	if open {
		err = behavior.OpenBusinessHoursByDayAndHour(ctx, key.day, key.time)
	} else {
		err = behavior.CloseBusinessHoursByDayAndHour(ctx, key.day, key.time)
	}
	if err != nil {
		observability.GetLogger().Error().
			Err(err).
			Bool("open", open).
			Str("day", key.day).
			Str("time", key.time).
			Msg("Business hour tick failed")
	}
}
