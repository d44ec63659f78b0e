package entities

import (
	"time"
)

// BusinessHourType represents the scope of a business hour record
type BusinessHourType string

const (
	// BusinessHourTypeSingle is the global default business hour. Exactly
	// one single-type record exists at any time.
	BusinessHourTypeSingle BusinessHourType = "single"

	// BusinessHourTypeDepartment is a business hour linked to one or more
	// departments.
	BusinessHourTypeDepartment BusinessHourType = "department"
)

// WorkHourWindow is one day-of-week work window. Start and End are "HH:mm"
// strings in the business hour's timezone. The UTC projections are computed
// when the record is saved and drive both the tick queries and cron
// scheduling, so the scheduler never needs timezone math.
type WorkHourWindow struct {
	Day          string `json:"day" db:"day"`
	Start        string `json:"start" db:"start_time"`
	End          string `json:"end" db:"end_time"`
	StartUTCDay  string `json:"start_utc_day" db:"start_utc_day"`
	StartUTCTime string `json:"start_utc_time" db:"start_utc_time"`
	EndUTCDay    string `json:"end_utc_day" db:"end_utc_day"`
	EndUTCTime   string `json:"end_utc_time" db:"end_utc_time"`
}

// BusinessHour represents a schedulable window set during which agents in
// scope are considered available
type BusinessHour struct {
	ID        string           `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	Type      BusinessHourType `json:"type" db:"type"`
	Active    bool             `json:"active" db:"active"`
	Open      bool             `json:"open" db:"open"`
	Timezone  string           `json:"timezone" db:"timezone"`
	WorkHours []WorkHourWindow `json:"work_hours"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// IsDefault reports whether this is the global default business hour
func (b *BusinessHour) IsDefault() bool {
	return b.Type == BusinessHourTypeSingle
}

// IsOpenAt reports whether t falls inside any of the record's windows,
// evaluated in the record's timezone. An unknown timezone falls back to UTC.
// Pure function of (WorkHours, Timezone, t); it is re-evaluated on every
// pass and never cached.
func (b *BusinessHour) IsOpenAt(t time.Time) bool {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	day := local.Weekday().String()
	now := local.Format("15:04")
	for _, w := range b.WorkHours {
		if w.Day != day {
			continue
		}
		// "HH:mm" compares correctly as a string
		if w.Start <= now && now < w.End {
			return true
		}
	}
	return false
}
