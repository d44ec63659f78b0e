package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/providers"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/omnichannel-engine/pkg/errors"
)

// InquiryQueueService manages the per-department waiting queue: admission,
// sorted reads, position notification, and the take/return transitions.
type InquiryQueueService struct {
	inquiryRepo repositories.InquiryRepository
	settings    providers.Settings
	eventBus    providers.EventBus
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewInquiryQueueService creates a new inquiry queue service
func NewInquiryQueueService(
	inquiryRepo repositories.InquiryRepository,
	settings providers.Settings,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
) *InquiryQueueService {
	return &InquiryQueueService{
		inquiryRepo: inquiryRepo,
		settings:    settings,
		eventBus:    eventBus,
		metrics:     metrics,
		now:         time.Now,
	}
}

// SaveQueueInquiry admits an inquiry into the waiting queue. Admission
// happens only when waiting-queue routing is enabled and the inquiry is in
// exactly ready status; anything else is a skip, not an error.
func (s *InquiryQueueService) SaveQueueInquiry(ctx context.Context, inquiry *entities.Inquiry) error {
	if inquiry == nil {
		return nil
	}
	if !s.settings.GetBool(providers.SettingWaitingQueue) {
		observability.LoggerFromContext(ctx).Debug().
			Str("inquiry_id", inquiry.ID).
			Msg("Waiting queue disabled, skipping admission")
		return nil
	}
	if inquiry.Status != entities.InquiryStatusReady {
		observability.LoggerFromContext(ctx).Debug().
			Str("inquiry_id", inquiry.ID).
			Str("status", string(inquiry.Status)).
			Msg("Inquiry not in ready status, skipping admission")
		return nil
	}

	queuedAt := s.now()
	if err := s.inquiryRepo.QueueByID(ctx, inquiry.ID, queuedAt); err != nil {
		return err
	}
	observability.RecordInquiryQueued(ctx, s.metrics, inquiry.DepartmentID)

	return s.publishEvent(ctx, inquiry, entities.InquiryEventQueued, 0)
}

// GetCurrentSortedQueue returns a department's queue in the configured
// total order with 1-based positions. When params.SortBy is unset the
// mechanism comes from the sort setting, falling back to timestamp order.
func (s *InquiryQueueService) GetCurrentSortedQueue(ctx context.Context, params repositories.SortedQueueParams) ([]*entities.QueuedInquiry, error) {
	if params.SortBy == "" {
		params.SortBy = s.sortMechanism()
	}
	return s.inquiryRepo.GetCurrentSortedQueue(ctx, params)
}

// DispatchInquiryPosition computes the inquiry's queue rank and pushes a
// position event on its room channel. Only performed when statistics
// dispatch is enabled; an inquiry no longer in the queue is a no-op.
func (s *InquiryQueueService) DispatchInquiryPosition(ctx context.Context, inquiry *entities.Inquiry) error {
	if inquiry == nil {
		return nil
	}
	if !s.settings.GetBool(providers.SettingDispatchQueueStatistics) {
		return nil
	}

	queue, err := s.inquiryRepo.GetCurrentSortedQueue(ctx, repositories.SortedQueueParams{
		InquiryID:    inquiry.ID,
		DepartmentID: inquiry.DepartmentID,
		SortBy:       s.sortMechanism(),
	})
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		return nil
	}

	return s.publishEvent(ctx, inquiry, entities.InquiryEventPosition, queue[0].Position)
}

// TakeInquiry moves a queued or ready inquiry to taken, stamping takenAt
func (s *InquiryQueueService) TakeInquiry(ctx context.Context, inquiryID string) (*entities.Inquiry, error) {
	inquiry, err := s.inquiryRepo.GetByID(ctx, inquiryID)
	if err != nil {
		return nil, err
	}
	if inquiry.Status == entities.InquiryStatusTaken {
		return nil, apperrors.NewConflictError(fmt.Sprintf("inquiry %s is already taken", inquiryID))
	}

	takenAt := s.now()
	if err := s.inquiryRepo.TakeByID(ctx, inquiryID, takenAt); err != nil {
		return nil, err
	}
	inquiry.Status = entities.InquiryStatusTaken
	inquiry.TakenAt = &takenAt

	if err := s.publishEvent(ctx, inquiry, entities.InquiryEventTaken, 0); err != nil {
		return nil, err
	}
	return inquiry, nil
}

// ReturnInquiryToQueue puts a taken inquiry back into queued status
func (s *InquiryQueueService) ReturnInquiryToQueue(ctx context.Context, inquiryID string) error {
	inquiry, err := s.inquiryRepo.GetByID(ctx, inquiryID)
	if err != nil {
		return err
	}

	if err := s.inquiryRepo.QueueByID(ctx, inquiryID, s.now()); err != nil {
		return err
	}
	return s.publishEvent(ctx, inquiry, entities.InquiryEventQueued, 0)
}

func (s *InquiryQueueService) sortMechanism() entities.QueueSortMechanism {
	if s.settings.GetString(providers.SettingQueueSortMechanism) == string(entities.QueueSortPriority) {
		return entities.QueueSortPriority
	}
	return entities.QueueSortTimestamp
}

func (s *InquiryQueueService) publishEvent(ctx context.Context, inquiry *entities.Inquiry, eventType entities.InquiryEventType, position int) error {
	event := &entities.InquiryEvent{
		ID:                   uuid.NewString(),
		Type:                 eventType,
		InquiryID:            inquiry.ID,
		RoomID:               inquiry.RoomID,
		DepartmentID:         inquiry.DepartmentID,
		Position:             position,
		EstimatedWaitingTime: inquiry.EstimatedWaitingTime,
		OccurredAt:           s.now(),
	}
	return s.eventBus.Publish(ctx, providers.GetRoomChannel(inquiry.RoomID), event)
}
