package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBusinessHour_IsOpenAt(t *testing.T) {
	mondayWindow := WorkHourWindow{Day: "Monday", Start: "09:00", End: "17:00"}

	tests := []struct {
		name     string
		bh       BusinessHour
		instant  time.Time
		wantOpen bool
	}{
		{
			name:     "inside window UTC",
			bh:       BusinessHour{Timezone: "UTC", WorkHours: []WorkHourWindow{mondayWindow}},
			instant:  time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC), // Monday
			wantOpen: true,
		},
		{
			name:     "after window UTC",
			bh:       BusinessHour{Timezone: "UTC", WorkHours: []WorkHourWindow{mondayWindow}},
			instant:  time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC),
			wantOpen: false,
		},
		{
			name:     "window start is inclusive",
			bh:       BusinessHour{Timezone: "UTC", WorkHours: []WorkHourWindow{mondayWindow}},
			instant:  time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC),
			wantOpen: true,
		},
		{
			name:     "window end is exclusive",
			bh:       BusinessHour{Timezone: "UTC", WorkHours: []WorkHourWindow{mondayWindow}},
			instant:  time.Date(2026, 8, 24, 17, 0, 0, 0, time.UTC),
			wantOpen: false,
		},
		{
			name:     "wrong day",
			bh:       BusinessHour{Timezone: "UTC", WorkHours: []WorkHourWindow{mondayWindow}},
			instant:  time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC), // Tuesday
			wantOpen: false,
		},
		{
			name: "timezone shifts the window",
			// 22:00 UTC Monday is already Tuesday 10:00 in Auckland (NZST,
			// UTC+12 in August), so a Monday window there is closed.
			bh:       BusinessHour{Timezone: "Pacific/Auckland", WorkHours: []WorkHourWindow{mondayWindow}},
			instant:  time.Date(2026, 8, 24, 22, 0, 0, 0, time.UTC),
			wantOpen: false,
		},
		{
			name:     "unknown timezone falls back to UTC",
			bh:       BusinessHour{Timezone: "Not/AZone", WorkHours: []WorkHourWindow{mondayWindow}},
			instant:  time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
			wantOpen: true,
		},
		{
			name:     "no windows",
			bh:       BusinessHour{Timezone: "UTC"},
			instant:  time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
			wantOpen: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantOpen, tt.bh.IsOpenAt(tt.instant))
		})
	}
}

func TestBusinessHour_IsOpenAt_Deterministic(t *testing.T) {
	bh := BusinessHour{
		Timezone:  "America/Sao_Paulo",
		WorkHours: []WorkHourWindow{{Day: "Wednesday", Start: "08:30", End: "18:30"}},
	}
	instant := time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC)

	first := bh.IsOpenAt(instant)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, bh.IsOpenAt(instant))
	}
}

func TestBusinessHour_IsDefault(t *testing.T) {
	assert.True(t, (&BusinessHour{Type: BusinessHourTypeSingle}).IsDefault())
	assert.False(t, (&BusinessHour{Type: BusinessHourTypeDepartment}).IsDefault())
}
