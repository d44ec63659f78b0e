package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zatekoja/omnichannel-engine/internal/domain/providers"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/omnichannel-engine/pkg/errors"
)

var cronDayNames = map[string]string{
	"sunday":    "SUN",
	"monday":    "MON",
	"tuesday":   "TUE",
	"wednesday": "WED",
	"thursday":  "THU",
	"friday":    "FRI",
	"saturday":  "SAT",
}

// CronScheduler implements the Scheduler interface on top of robfig/cron.
// All triggers evaluate in UTC; callers are expected to hand in UTC-projected
// day and time values.
type CronScheduler struct {
	cron *cron.Cron
}

// NewCronScheduler creates a started cron scheduler running in UTC
func NewCronScheduler() *CronScheduler {
	c := cron.New(cron.WithLocation(time.UTC))
	c.Start()
	return &CronScheduler{cron: c}
}

// Schedule registers fn to run weekly at the given UTC day and time
func (s *CronScheduler) Schedule(spec providers.TickSpec, fn func()) (providers.JobID, error) {
	expr, err := cronExpression(spec)
	if err != nil {
		return 0, err
	}

	entryID, err := s.cron.AddFunc(expr, fn)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("invalid tick spec %s %s: %v", spec.Day, spec.Time, err))
	}

	observability.ComponentLogger("scheduler").Debug().
		Str("day", spec.Day).
		Str("time", spec.Time).
		Int("job_id", int(entryID)).
		Msg("Scheduled weekly trigger")

	return providers.JobID(entryID), nil
}

// Remove cancels a scheduled trigger
func (s *CronScheduler) Remove(id providers.JobID) {
	s.cron.Remove(cron.EntryID(id))
}

// Stop cancels all triggers and stops the scheduler
func (s *CronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// cronExpression converts a weekly tick spec into a five-field cron
// expression ("m h * * dow").
func cronExpression(spec providers.TickSpec) (string, error) {
	day, ok := cronDayNames[strings.ToLower(spec.Day)]
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown day of week: %s", spec.Day))
	}

	t, err := time.Parse("15:04", spec.Time)
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid time of day: %s", spec.Time))
	}

	return fmt.Sprintf("%d %d * * %s", t.Minute(), t.Hour(), day), nil
}
