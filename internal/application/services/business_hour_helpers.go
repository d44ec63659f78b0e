package services

import (
	"context"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/omnichannel-engine/pkg/errors"
)

// businessHourOpener carries the open/close plumbing shared by both
// behavior variants: flip the persisted open flag, then project the change
// onto the applicable agents.
type businessHourOpener struct {
	businessHourRepo repositories.BusinessHourRepository
	availability     *AgentAvailabilityService
	metrics          *observability.Metrics
}

func (o *businessHourOpener) openBusinessHours(ctx context.Context, records []*entities.BusinessHour) error {
	if len(records) == 0 {
		return nil
	}
	if err := o.businessHourRepo.SetOpenByIDs(ctx, businessHourIDs(records), true); err != nil {
		return err
	}
	// Sequential on purpose: overlapping whole-set writes to the same
	// agents must not interleave within one pass.
	for _, bh := range records {
		if err := o.availability.OpenBusinessHour(ctx, bh); err != nil {
			return err
		}
	}
	observability.RecordBusinessHoursOpened(ctx, o.metrics, len(records))
	return nil
}

func (o *businessHourOpener) closeBusinessHours(ctx context.Context, records []*entities.BusinessHour) error {
	if len(records) == 0 {
		return nil
	}
	ids := businessHourIDs(records)
	if err := o.businessHourRepo.SetOpenByIDs(ctx, ids, false); err != nil {
		return err
	}
	if err := o.availability.CloseBusinessHours(ctx, ids); err != nil {
		return err
	}
	observability.RecordBusinessHoursClosed(ctx, o.metrics, len(records))
	return nil
}

// findDefault loads the default business hour. Its absence is a data
// inconsistency, not a soft miss.
func (o *businessHourOpener) findDefault(ctx context.Context) (*entities.BusinessHour, error) {
	defaultBH, err := o.businessHourRepo.FindOneDefault(ctx)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewInternalError("default business hour is missing", err)
		}
		return nil, err
	}
	return defaultBH, nil
}

// disableAll closes every active record and strips all agent projections
func (o *businessHourOpener) disableAll(ctx context.Context) error {
	active, err := o.businessHourRepo.FindActive(ctx)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		if err := o.businessHourRepo.SetOpenByIDs(ctx, businessHourIDs(active), false); err != nil {
			return err
		}
		observability.RecordBusinessHoursClosed(ctx, o.metrics, len(active))
	}
	return o.availability.ResetAllAgents(ctx)
}

func businessHourIDs(records []*entities.BusinessHour) []string {
	ids := make([]string, 0, len(records))
	for _, bh := range records {
		ids = append(ids, bh.ID)
	}
	return ids
}
