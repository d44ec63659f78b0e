package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	apperrors "github.com/zatekoja/omnichannel-engine/pkg/errors"
)

func newBusinessHourServiceFixture() (*BusinessHourService, *MockBusinessHourRepository, *stubBehavior) {
	businessHourRepo := new(MockBusinessHourRepository)
	behavior := &stubBehavior{name: BehaviorSingle}
	manager, _ := NewBusinessHourManager(newFakeScheduler(), businessHourRepo, BehaviorSingle, behavior)
	service := NewBusinessHourService(businessHourRepo, manager)
	// 2026-08-24 10:00 UTC is a Monday.
	service.now = func() time.Time { return time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC) }
	return service, businessHourRepo, behavior
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	var appErr *apperrors.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
}

func TestBusinessHourService_Save(t *testing.T) {
	t.Run("creates a record with generated id and UTC projection", func(t *testing.T) {
		service, businessHourRepo, _ := newBusinessHourServiceFixture()

		bh := &entities.BusinessHour{
			Name:     "Support hours",
			Type:     entities.BusinessHourTypeDepartment,
			Active:   true,
			Timezone: "UTC",
			WorkHours: []entities.WorkHourWindow{
				{Day: "Monday", Start: "09:00", End: "17:00"},
			},
		}
		businessHourRepo.On("Create", mock.Anything, bh).Return(nil)

		err := service.Save(context.Background(), bh, nil)

		assert.NoError(t, err)
		assert.NotEmpty(t, bh.ID)
		assert.Equal(t, "Monday", bh.WorkHours[0].StartUTCDay)
		assert.Equal(t, "09:00", bh.WorkHours[0].StartUTCTime)
		assert.Equal(t, "Monday", bh.WorkHours[0].EndUTCDay)
		assert.Equal(t, "17:00", bh.WorkHours[0].EndUTCTime)
		businessHourRepo.AssertExpectations(t)
	})

	t.Run("updates a record that already has an id", func(t *testing.T) {
		service, businessHourRepo, _ := newBusinessHourServiceFixture()

		bh := defaultBusinessHour(false)
		bh.WorkHours = []entities.WorkHourWindow{{Day: "Monday", Start: "09:00", End: "17:00"}}
		businessHourRepo.On("FindOneDefault", mock.Anything).Return(defaultBusinessHour(false), nil)
		businessHourRepo.On("Update", mock.Anything, bh).Return(nil)

		err := service.Save(context.Background(), bh, nil)

		assert.NoError(t, err)
		businessHourRepo.AssertExpectations(t)
	})

	t.Run("projects timezone windows into UTC", func(t *testing.T) {
		service, businessHourRepo, _ := newBusinessHourServiceFixture()

		// Auckland is UTC+12 in late August, so a Monday morning window
		// starts on Sunday evening UTC.
		bh := &entities.BusinessHour{
			Type:     entities.BusinessHourTypeDepartment,
			Active:   true,
			Timezone: "Pacific/Auckland",
			WorkHours: []entities.WorkHourWindow{
				{Day: "Monday", Start: "09:00", End: "17:00"},
			},
		}
		businessHourRepo.On("Create", mock.Anything, bh).Return(nil)

		err := service.Save(context.Background(), bh, nil)

		assert.NoError(t, err)
		assert.Equal(t, "Sunday", bh.WorkHours[0].StartUTCDay)
		assert.Equal(t, "21:00", bh.WorkHours[0].StartUTCTime)
		assert.Equal(t, "Monday", bh.WorkHours[0].EndUTCDay)
		assert.Equal(t, "05:00", bh.WorkHours[0].EndUTCTime)
	})

	t.Run("runs the behavior save reaction", func(t *testing.T) {
		service, businessHourRepo, _ := newBusinessHourServiceFixture()

		bh := &entities.BusinessHour{
			Type:      entities.BusinessHourTypeDepartment,
			Timezone:  "UTC",
			WorkHours: []entities.WorkHourWindow{{Day: "Monday", Start: "09:00", End: "17:00"}},
		}
		var saved *entities.BusinessHour
		businessHourRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*entities.BusinessHour)
		}).Return(nil)

		err := service.Save(context.Background(), bh, []string{"dep-1"})

		assert.NoError(t, err)
		assert.Same(t, bh, saved)
	})

	t.Run("rejects an unknown type", func(t *testing.T) {
		service, businessHourRepo, _ := newBusinessHourServiceFixture()

		err := service.Save(context.Background(), &entities.BusinessHour{Type: "weekly", Timezone: "UTC"}, nil)

		assertValidationError(t, err)
		businessHourRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects a second default record", func(t *testing.T) {
		service, businessHourRepo, _ := newBusinessHourServiceFixture()

		businessHourRepo.On("FindOneDefault", mock.Anything).Return(defaultBusinessHour(false), nil)

		err := service.Save(context.Background(), &entities.BusinessHour{
			ID:       "bh-other",
			Type:     entities.BusinessHourTypeSingle,
			Timezone: "UTC",
		}, nil)

		var appErr *apperrors.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
	})

	t.Run("rejects an unknown timezone", func(t *testing.T) {
		service, _, _ := newBusinessHourServiceFixture()

		err := service.Save(context.Background(), &entities.BusinessHour{
			Type:     entities.BusinessHourTypeDepartment,
			Timezone: "Mars/Olympus",
		}, nil)

		assertValidationError(t, err)
	})

	t.Run("rejects bad window fields", func(t *testing.T) {
		cases := []struct {
			name   string
			window entities.WorkHourWindow
		}{
			{"invalid day", entities.WorkHourWindow{Day: "Funday", Start: "09:00", End: "17:00"}},
			{"invalid start time", entities.WorkHourWindow{Day: "Monday", Start: "25:00", End: "17:00"}},
			{"invalid end time", entities.WorkHourWindow{Day: "Monday", Start: "09:00", End: "17:60"}},
			{"start after end", entities.WorkHourWindow{Day: "Monday", Start: "17:00", End: "09:00"}},
			{"start equals end", entities.WorkHourWindow{Day: "Monday", Start: "09:00", End: "09:00"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				service, _, _ := newBusinessHourServiceFixture()

				err := service.Save(context.Background(), &entities.BusinessHour{
					Type:      entities.BusinessHourTypeDepartment,
					Timezone:  "UTC",
					WorkHours: []entities.WorkHourWindow{tc.window},
				}, nil)

				assertValidationError(t, err)
			})
		}
	})
}

func TestBusinessHourService_CreateDefaultBusinessHourIfNotExists(t *testing.T) {
	t.Run("does nothing when the default exists", func(t *testing.T) {
		service, businessHourRepo, _ := newBusinessHourServiceFixture()

		businessHourRepo.On("FindOneDefault", mock.Anything).Return(defaultBusinessHour(false), nil)

		err := service.CreateDefaultBusinessHourIfNotExists(context.Background())

		assert.NoError(t, err)
		businessHourRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("creates a full-week UTC default", func(t *testing.T) {
		service, businessHourRepo, _ := newBusinessHourServiceFixture()

		businessHourRepo.On("FindOneDefault", mock.Anything).Return(nil, apperrors.NewNotFoundError("business hour not found"))
		businessHourRepo.On("Create", mock.Anything, mock.MatchedBy(func(bh *entities.BusinessHour) bool {
			return bh.ID != "" &&
				bh.Type == entities.BusinessHourTypeSingle &&
				bh.Active &&
				bh.Timezone == "UTC" &&
				len(bh.WorkHours) == 7
		})).Run(func(args mock.Arguments) {
			bh := args.Get(1).(*entities.BusinessHour)
			for _, w := range bh.WorkHours {
				assert.Equal(t, "00:00", w.Start)
				assert.Equal(t, "23:59", w.End)
				assert.Equal(t, w.Day, w.StartUTCDay)
				assert.Equal(t, w.Start, w.StartUTCTime)
				assert.Equal(t, w.Day, w.EndUTCDay)
				assert.Equal(t, w.End, w.EndUTCTime)
			}
		}).Return(nil)

		err := service.CreateDefaultBusinessHourIfNotExists(context.Background())

		assert.NoError(t, err)
		businessHourRepo.AssertExpectations(t)
	})

	t.Run("propagates lookup failures", func(t *testing.T) {
		service, businessHourRepo, _ := newBusinessHourServiceFixture()

		businessHourRepo.On("FindOneDefault", mock.Anything).Return(nil, apperrors.NewInternalError("query failed", nil))

		err := service.CreateDefaultBusinessHourIfNotExists(context.Background())

		assert.Error(t, err)
		businessHourRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
