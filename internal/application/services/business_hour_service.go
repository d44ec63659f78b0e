package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/omnichannel-engine/pkg/errors"
)

var validDays = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// BusinessHourService persists business hour records. Saving validates the
// windows, computes their UTC projections and hands the record to the
// active behavior so open state and department links stay consistent.
type BusinessHourService struct {
	businessHourRepo repositories.BusinessHourRepository
	manager          *BusinessHourManager
	now              func() time.Time
}

// NewBusinessHourService creates a new business hour service
func NewBusinessHourService(businessHourRepo repositories.BusinessHourRepository, manager *BusinessHourManager) *BusinessHourService {
	return &BusinessHourService{
		businessHourRepo: businessHourRepo,
		manager:          manager,
		now:              time.Now,
	}
}

// Save validates and persists a business hour together with its department
// links, then lets the active behavior reconcile open state and reschedules
// ticks. A record with an empty ID is created; otherwise updated.
func (s *BusinessHourService) Save(ctx context.Context, businessHour *entities.BusinessHour, departmentsToApply []string) error {
	if err := s.validate(ctx, businessHour); err != nil {
		return err
	}
	projectWorkHoursToUTC(businessHour, s.now())

	creating := businessHour.ID == ""
	if creating {
		businessHour.ID = uuid.NewString()
		businessHour.CreatedAt = s.now()
	}
	businessHour.UpdatedAt = s.now()

	var err error
	if creating {
		err = s.businessHourRepo.Create(ctx, businessHour)
	} else {
		err = s.businessHourRepo.Update(ctx, businessHour)
	}
	if err != nil {
		return err
	}

	return s.manager.AfterSaveBusinessHours(ctx, businessHour, departmentsToApply)
}

// CreateDefaultBusinessHourIfNotExists seeds the global default record at
// startup: a 24h Monday-Sunday UTC schedule, active and initially closed.
func (s *BusinessHourService) CreateDefaultBusinessHourIfNotExists(ctx context.Context) error {
	_, err := s.businessHourRepo.FindOneDefault(ctx)
	if err == nil {
		return nil
	}
	if !apperrors.IsNotFound(err) {
		return err
	}

	defaultBH := &entities.BusinessHour{
		ID:       uuid.NewString(),
		Name:     "Default",
		Type:     entities.BusinessHourTypeSingle,
		Active:   true,
		Timezone: "UTC",
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		defaultBH.WorkHours = append(defaultBH.WorkHours, entities.WorkHourWindow{
			Day:   day.String(),
			Start: "00:00",
			End:   "23:59",
		})
	}
	projectWorkHoursToUTC(defaultBH, s.now())
	defaultBH.CreatedAt = s.now()
	defaultBH.UpdatedAt = s.now()

	observability.LoggerFromContext(ctx).Info().Msg("Creating default business hour")
	return s.businessHourRepo.Create(ctx, defaultBH)
}

func (s *BusinessHourService) validate(ctx context.Context, businessHour *entities.BusinessHour) error {
	switch businessHour.Type {
	case entities.BusinessHourTypeSingle, entities.BusinessHourTypeDepartment:
	default:
		return apperrors.NewValidationError(fmt.Sprintf("invalid business hour type: %s", businessHour.Type))
	}

	if businessHour.Type == entities.BusinessHourTypeSingle {
		existing, err := s.businessHourRepo.FindOneDefault(ctx)
		if err != nil && !apperrors.IsNotFound(err) {
			return err
		}
		if err == nil && existing.ID != businessHour.ID {
			return apperrors.NewConflictError("a default business hour already exists")
		}
	}

	if _, err := time.LoadLocation(businessHour.Timezone); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("unknown timezone: %s", businessHour.Timezone))
	}

	for _, w := range businessHour.WorkHours {
		if _, ok := validDays[w.Day]; !ok {
			return apperrors.NewValidationError(fmt.Sprintf("invalid day of week: %s", w.Day))
		}
		if _, err := time.Parse("15:04", w.Start); err != nil {
			return apperrors.NewValidationError(fmt.Sprintf("invalid start time: %s", w.Start))
		}
		if _, err := time.Parse("15:04", w.End); err != nil {
			return apperrors.NewValidationError(fmt.Sprintf("invalid end time: %s", w.End))
		}
		if w.Start >= w.End {
			return apperrors.NewValidationError(fmt.Sprintf("window start %s must precede end %s", w.Start, w.End))
		}
	}
	return nil
}

// projectWorkHoursToUTC fills each window's UTC day and time fields. The
// projection anchors on the current week so the offset reflects the
// timezone's rules in effect now; records are re-projected on every save.
func projectWorkHoursToUTC(businessHour *entities.BusinessHour, now time.Time) {
	loc, err := time.LoadLocation(businessHour.Timezone)
	if err != nil {
		loc = time.UTC
	}

	for i := range businessHour.WorkHours {
		w := &businessHour.WorkHours[i]
		startUTC := localWindowInstant(now, loc, validDays[w.Day], w.Start).UTC()
		endUTC := localWindowInstant(now, loc, validDays[w.Day], w.End).UTC()

		w.StartUTCDay = startUTC.Weekday().String()
		w.StartUTCTime = startUTC.Format("15:04")
		w.EndUTCDay = endUTC.Weekday().String()
		w.EndUTCTime = endUTC.Format("15:04")
	}
}

// localWindowInstant builds the instant of this week's occurrence of the
// given weekday at "HH:mm" in loc
func localWindowInstant(now time.Time, loc *time.Location, day time.Weekday, hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		t = time.Time{}
	}

	local := now.In(loc)
	dayOffset := int(day) - int(local.Weekday())
	return time.Date(local.Year(), local.Month(), local.Day()+dayOffset, t.Hour(), t.Minute(), 0, 0, loc)
}
