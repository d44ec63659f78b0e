package services

import (
	"context"
	"time"

	"github.com/zatekoja/omnichannel-engine/internal/application/hooks"
	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/providers"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/omnichannel-engine/pkg/errors"
)

const (
	hookIDFallbackDepartment = "routing.fallback-department"
	hookIDQueueAdmission     = "routing.queue-admission"
)

// RoutingService runs the before-route hook chain for every incoming
// inquiry: fallback department redirection first, then queue admission with
// position dispatch. A hook failure aborts the remaining chain; the inquiry
// stays in its last persisted state.
type RoutingService struct {
	registry       *hooks.Registry
	inquiryRepo    repositories.InquiryRepository
	departmentRepo repositories.DepartmentRepository
	agentRepo      repositories.AgentRepository
	roomRepo       repositories.RoomRepository
	visitorRepo    repositories.VisitorRepository
	queue          *InquiryQueueService
	settings       providers.Settings
	metrics        *observability.Metrics
}

// NewRoutingService creates the routing service and registers its hooks on
// the before-route chain
func NewRoutingService(
	registry *hooks.Registry,
	inquiryRepo repositories.InquiryRepository,
	departmentRepo repositories.DepartmentRepository,
	agentRepo repositories.AgentRepository,
	roomRepo repositories.RoomRepository,
	visitorRepo repositories.VisitorRepository,
	queue *InquiryQueueService,
	settings providers.Settings,
	metrics *observability.Metrics,
) *RoutingService {
	s := &RoutingService{
		registry:       registry,
		inquiryRepo:    inquiryRepo,
		departmentRepo: departmentRepo,
		agentRepo:      agentRepo,
		roomRepo:       roomRepo,
		visitorRepo:    visitorRepo,
		queue:          queue,
		settings:       settings,
		metrics:        metrics,
	}

	registry.Register(hooks.HookBeforeRouteChat, hookIDFallbackDepartment, hooks.PriorityHigh, s.applyDepartmentFallback)
	registry.Register(hooks.HookBeforeRouteChat, hookIDQueueAdmission, hooks.PriorityMedium, s.admitToQueue)
	return s
}

// Route runs the inquiry through the before-route chain and returns the
// possibly reassigned inquiry
func (s *RoutingService) Route(ctx context.Context, inquiry *entities.Inquiry) (*entities.Inquiry, error) {
	ctx, span := observability.StartSpan(ctx, "RoutingService.Route")
	defer span.End()
	start := time.Now()

	department := ""
	if inquiry != nil {
		department = inquiry.DepartmentID
	}

	result, err := s.registry.Run(ctx, hooks.HookBeforeRouteChat, inquiry)
	observability.RecordRoutingMetric(ctx, s.metrics, department, time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		return result, err
	}
	return result, nil
}

// applyDepartmentFallback redirects the inquiry, its room and its visitor
// to the department's fallback when no agent of the original department is
// online. One hop per routing pass; a fallback pointing back at the
// department itself is ignored.
func (s *RoutingService) applyDepartmentFallback(ctx context.Context, inquiry *entities.Inquiry) (*entities.Inquiry, error) {
	if inquiry == nil || inquiry.DepartmentID == "" {
		return inquiry, nil
	}

	department, err := s.departmentRepo.GetByID(ctx, inquiry.DepartmentID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return inquiry, nil
		}
		return inquiry, err
	}
	if department.FallbackForwardDepartmentID == nil {
		return inquiry, nil
	}
	fallbackID := *department.FallbackForwardDepartmentID
	if fallbackID == department.ID {
		observability.LoggerFromContext(ctx).Warn().
			Str("department_id", department.ID).
			Msg("Department fallback references itself, ignoring")
		return inquiry, nil
	}

	online, err := s.agentRepo.CountOnlineByDepartment(ctx, department.ID)
	if err != nil {
		return inquiry, err
	}
	if online > 0 {
		return inquiry, nil
	}

	observability.LoggerFromContext(ctx).Info().
		Str("inquiry_id", inquiry.ID).
		Str("from_department", department.ID).
		Str("to_department", fallbackID).
		Msg("Redirecting inquiry to fallback department")

	if err := s.visitorRepo.SetDepartmentByToken(ctx, inquiry.Visitor.Token, fallbackID); err != nil {
		return inquiry, err
	}
	updated, err := s.inquiryRepo.SetDepartmentByID(ctx, inquiry.ID, fallbackID)
	if err != nil {
		return inquiry, err
	}
	if err := s.roomRepo.SetDepartmentByRoomID(ctx, inquiry.RoomID, fallbackID); err != nil {
		return updated, err
	}

	observability.RecordInquiryRedirected(ctx, s.metrics, department.ID, fallbackID)
	return updated, nil
}

// admitToQueue enqueues a ready inquiry and, when statistics dispatch is
// enabled, pushes its queue position. Skips when the waiting queue is off,
// the inquiry is absent or not ready, or a pre-assigned agent may bypass
// the queue.
func (s *RoutingService) admitToQueue(ctx context.Context, inquiry *entities.Inquiry) (*entities.Inquiry, error) {
	if !s.settings.GetBool(providers.SettingWaitingQueue) {
		return inquiry, nil
	}
	if inquiry == nil || inquiry.Status != entities.InquiryStatusReady {
		return inquiry, nil
	}

	bypass, err := s.agentBypassesQueue(ctx, inquiry)
	if err != nil {
		return inquiry, err
	}
	if bypass {
		return inquiry, nil
	}

	if err := s.queue.SaveQueueInquiry(ctx, inquiry); err != nil {
		return inquiry, err
	}

	queued, err := s.inquiryRepo.GetByID(ctx, inquiry.ID)
	if err != nil {
		return inquiry, err
	}

	if err := s.queue.DispatchInquiryPosition(ctx, queued); err != nil {
		return queued, err
	}
	return queued, nil
}

// agentBypassesQueue reports whether the inquiry's pre-assigned agent may
// skip the waiting queue. Bot agents bypass; a missing agent record does
// not.
func (s *RoutingService) agentBypassesQueue(ctx context.Context, inquiry *entities.Inquiry) (bool, error) {
	if inquiry.DefaultAgent == nil {
		return false, nil
	}
	agent, err := s.agentRepo.GetByID(ctx, inquiry.DefaultAgent.AgentID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return agent.HasRole(entities.RoleBot), nil
}
