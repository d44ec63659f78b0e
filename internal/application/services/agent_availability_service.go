package services

import (
	"context"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/observability"
)

// AgentAvailabilityService maintains the per-agent open-business-hour
// projection. The projection is a cache over {department business hour,
// default business hour, currently-open set}: every mutation goes through
// whole-set add/remove on the repository, and the livechat status is
// recomputed from the resulting sets, never from a loaded copy.
type AgentAvailabilityService struct {
	agentRepo      repositories.AgentRepository
	departmentRepo repositories.DepartmentRepository
}

// NewAgentAvailabilityService creates a new agent availability service
func NewAgentAvailabilityService(agentRepo repositories.AgentRepository, departmentRepo repositories.DepartmentRepository) *AgentAvailabilityService {
	return &AgentAvailabilityService{
		agentRepo:      agentRepo,
		departmentRepo: departmentRepo,
	}
}

// OpenBusinessHour adds the business hour to the open set of every agent it
// applies to and recomputes livechat statuses. Department-type records
// apply to the members of their linked departments; the default record
// applies to agents whose departments carry no business hour of their own
// (department-less agents included).
func (s *AgentAvailabilityService) OpenBusinessHour(ctx context.Context, businessHour *entities.BusinessHour) error {
	agentIDs, err := s.applicableAgentIDs(ctx, businessHour)
	if err != nil {
		return err
	}
	if len(agentIDs) == 0 {
		observability.LoggerFromContext(ctx).Debug().
			Str("business_hour_id", businessHour.ID).
			Msg("No agents applicable to business hour")
		return nil
	}

	if err := s.agentRepo.AddBusinessHourByAgentIDs(ctx, agentIDs, businessHour.ID); err != nil {
		return err
	}
	return s.agentRepo.UpdateLivechatStatusBasedOnBusinessHours(ctx)
}

// CloseBusinessHours removes the given business hours from every agent's
// open set; agents whose set becomes empty are forced to not-available.
func (s *AgentAvailabilityService) CloseBusinessHours(ctx context.Context, businessHourIDs []string) error {
	if len(businessHourIDs) == 0 {
		return nil
	}
	if err := s.agentRepo.CloseBusinessHoursByBusinessHourIDs(ctx, businessHourIDs); err != nil {
		return err
	}
	return s.agentRepo.UpdateLivechatStatusBasedOnBusinessHours(ctx)
}

// AddBusinessHourToAgents union-inserts a business hour into the given
// agents' open sets
func (s *AgentAvailabilityService) AddBusinessHourToAgents(ctx context.Context, agentIDs []string, businessHourID string) error {
	if len(agentIDs) == 0 {
		return nil
	}
	return s.agentRepo.AddBusinessHourByAgentIDs(ctx, agentIDs, businessHourID)
}

// RemoveBusinessHourFromAgents removes a business hour from the given
// agents' open sets
func (s *AgentAvailabilityService) RemoveBusinessHourFromAgents(ctx context.Context, agentIDs []string, businessHourID string) error {
	if len(agentIDs) == 0 {
		return nil
	}
	return s.agentRepo.RemoveBusinessHourByAgentIDs(ctx, agentIDs, businessHourID)
}

// ResetAllAgents empties every agent's open set and recomputes statuses.
// Used as the baseline before the start-of-day re-open pass.
func (s *AgentAvailabilityService) ResetAllAgents(ctx context.Context) error {
	if err := s.agentRepo.RemoveBusinessHoursFromAllAgents(ctx); err != nil {
		return err
	}
	return s.agentRepo.UpdateLivechatStatusBasedOnBusinessHours(ctx)
}

// RefreshLivechatStatuses recomputes every agent's livechat status from the
// current open sets
func (s *AgentAvailabilityService) RefreshLivechatStatuses(ctx context.Context) error {
	return s.agentRepo.UpdateLivechatStatusBasedOnBusinessHours(ctx)
}

// IsAgentWithinBusinessHours reports whether the agent's open set is
// non-empty
func (s *AgentAvailabilityService) IsAgentWithinBusinessHours(ctx context.Context, agentID string) (bool, error) {
	return s.agentRepo.IsAgentWithinBusinessHours(ctx, agentID)
}

func (s *AgentAvailabilityService) applicableAgentIDs(ctx context.Context, businessHour *entities.BusinessHour) ([]string, error) {
	if businessHour.IsDefault() {
		return s.departmentRepo.FindAgentIDsOutsideDepartmentBusinessHours(ctx)
	}

	departmentIDs, err := s.departmentRepo.FindDepartmentIDsByBusinessHourID(ctx, businessHour.ID)
	if err != nil {
		return nil, err
	}
	if len(departmentIDs) == 0 {
		return nil, nil
	}
	return s.departmentRepo.FindAgentIDsByDepartmentIDs(ctx, departmentIDs)
}
