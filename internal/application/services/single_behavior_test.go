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

func newSingleBehaviorFixture() (*SingleBusinessHourBehavior, *MockBusinessHourRepository, *MockAgentRepository, *MockDepartmentRepository) {
	businessHourRepo := new(MockBusinessHourRepository)
	agentRepo := new(MockAgentRepository)
	departmentRepo := new(MockDepartmentRepository)
	availability := NewAgentAvailabilityService(agentRepo, departmentRepo)
	behavior := NewSingleBusinessHourBehavior(businessHourRepo, availability, nil)
	// 2026-08-24 10:00 UTC is a Monday.
	behavior.now = func() time.Time { return time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC) }
	return behavior, businessHourRepo, agentRepo, departmentRepo
}

func defaultBusinessHour(open bool) *entities.BusinessHour {
	return &entities.BusinessHour{
		ID:        "bh-default",
		Type:      entities.BusinessHourTypeSingle,
		Active:    true,
		Open:      open,
		Timezone:  "UTC",
		WorkHours: []entities.WorkHourWindow{mondayWindow("09:00", "17:00")},
	}
}

func TestSingleBehavior_OnStartBusinessHours(t *testing.T) {
	t.Run("opens the default when inside its window", func(t *testing.T) {
		behavior, businessHourRepo, agentRepo, departmentRepo := newSingleBehaviorFixture()

		agentRepo.On("RemoveBusinessHoursFromAllAgents", mock.Anything).Return(nil)
		agentRepo.On("UpdateLivechatStatusBasedOnBusinessHours", mock.Anything).Return(nil)
		businessHourRepo.On("FindOneDefault", mock.Anything).Return(defaultBusinessHour(false), nil)
		businessHourRepo.On("SetOpenByIDs", mock.Anything, []string{"bh-default"}, true).Return(nil)
		departmentRepo.On("FindAgentIDsOutsideDepartmentBusinessHours", mock.Anything).Return([]string{"agent-1"}, nil)
		agentRepo.On("AddBusinessHourByAgentIDs", mock.Anything, []string{"agent-1"}, "bh-default").Return(nil)

		err := behavior.OnStartBusinessHours(context.Background())

		assert.NoError(t, err)
		businessHourRepo.AssertExpectations(t)
		agentRepo.AssertExpectations(t)
	})

	t.Run("leaves the default closed outside its window", func(t *testing.T) {
		behavior, businessHourRepo, agentRepo, _ := newSingleBehaviorFixture()
		behavior.now = func() time.Time { return time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC) }

		agentRepo.On("RemoveBusinessHoursFromAllAgents", mock.Anything).Return(nil)
		agentRepo.On("UpdateLivechatStatusBasedOnBusinessHours", mock.Anything).Return(nil)
		businessHourRepo.On("FindOneDefault", mock.Anything).Return(defaultBusinessHour(false), nil)

		err := behavior.OnStartBusinessHours(context.Background())

		assert.NoError(t, err)
		businessHourRepo.AssertNotCalled(t, "SetOpenByIDs", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing default business hour is an internal error", func(t *testing.T) {
		behavior, businessHourRepo, agentRepo, _ := newSingleBehaviorFixture()

		agentRepo.On("RemoveBusinessHoursFromAllAgents", mock.Anything).Return(nil)
		agentRepo.On("UpdateLivechatStatusBasedOnBusinessHours", mock.Anything).Return(nil)
		businessHourRepo.On("FindOneDefault", mock.Anything).Return(nil, apperrors.NewNotFoundError("no default business hour"))

		err := behavior.OnStartBusinessHours(context.Background())

		assert.Error(t, err)
		var appErr *apperrors.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrorTypeInternal, appErr.Type)
	})
}

func TestSingleBehavior_OpenBusinessHoursByDayAndHour(t *testing.T) {
	t.Run("ignores department-type records", func(t *testing.T) {
		behavior, businessHourRepo, _, _ := newSingleBehaviorFixture()

		departmentRecord := &entities.BusinessHour{
			ID:        "bh-dep",
			Type:      entities.BusinessHourTypeDepartment,
			Active:    true,
			Timezone:  "UTC",
			WorkHours: []entities.WorkHourWindow{mondayWindow("09:00", "17:00")},
		}
		businessHourRepo.On("FindActiveToOpen", mock.Anything, "Monday", "09:00").Return([]*entities.BusinessHour{departmentRecord}, nil)

		err := behavior.OpenBusinessHoursByDayAndHour(context.Background(), "Monday", "09:00")

		assert.NoError(t, err)
		businessHourRepo.AssertNotCalled(t, "SetOpenByIDs", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("re-evaluates the window before opening", func(t *testing.T) {
		behavior, businessHourRepo, _, _ := newSingleBehaviorFixture()
		// The tick fires, but by evaluation time the window has passed.
		behavior.now = func() time.Time { return time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC) }

		businessHourRepo.On("FindActiveToOpen", mock.Anything, "Monday", "09:00").Return([]*entities.BusinessHour{defaultBusinessHour(false)}, nil)

		err := behavior.OpenBusinessHoursByDayAndHour(context.Background(), "Monday", "09:00")

		assert.NoError(t, err)
		businessHourRepo.AssertNotCalled(t, "SetOpenByIDs", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSingleBehavior_CloseBusinessHoursByDayAndHour(t *testing.T) {
	behavior, businessHourRepo, agentRepo, _ := newSingleBehaviorFixture()

	businessHourRepo.On("FindActiveToClose", mock.Anything, "Monday", "17:00").Return([]*entities.BusinessHour{defaultBusinessHour(true)}, nil)
	businessHourRepo.On("SetOpenByIDs", mock.Anything, []string{"bh-default"}, false).Return(nil)
	agentRepo.On("CloseBusinessHoursByBusinessHourIDs", mock.Anything, []string{"bh-default"}).Return(nil)
	agentRepo.On("UpdateLivechatStatusBasedOnBusinessHours", mock.Anything).Return(nil)

	err := behavior.CloseBusinessHoursByDayAndHour(context.Background(), "Monday", "17:00")

	assert.NoError(t, err)
	businessHourRepo.AssertExpectations(t)
	agentRepo.AssertExpectations(t)
}

func TestSingleBehavior_DepartmentEventsAreNoOps(t *testing.T) {
	behavior, businessHourRepo, agentRepo, departmentRepo := newSingleBehaviorFixture()
	ctx := context.Background()
	department := &entities.Department{ID: "dep-1"}

	assert.NoError(t, behavior.OnAddAgentToDepartment(ctx, "dep-1", "agent-1"))
	assert.NoError(t, behavior.OnRemoveAgentFromDepartment(ctx, "dep-1", "agent-1"))
	assert.NoError(t, behavior.OnDepartmentDisabled(ctx, department))
	assert.NoError(t, behavior.OnDepartmentArchived(ctx, department))
	assert.NoError(t, behavior.OnRemoveDepartment(ctx, department))

	businessHourRepo.AssertNotCalled(t, "FindOneDefault", mock.Anything)
	agentRepo.AssertNotCalled(t, "UpdateLivechatStatusBasedOnBusinessHours", mock.Anything)
	departmentRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestSingleBehavior_OnNewAgentCreated(t *testing.T) {
	t.Run("applies open default to the new agent", func(t *testing.T) {
		behavior, businessHourRepo, agentRepo, _ := newSingleBehaviorFixture()

		businessHourRepo.On("FindOneDefault", mock.Anything).Return(defaultBusinessHour(true), nil)
		agentRepo.On("AddBusinessHourByAgentIDs", mock.Anything, []string{"agent-new"}, "bh-default").Return(nil)
		agentRepo.On("UpdateLivechatStatusBasedOnBusinessHours", mock.Anything).Return(nil)

		err := behavior.OnNewAgentCreated(context.Background(), "agent-new")

		assert.NoError(t, err)
		agentRepo.AssertExpectations(t)
	})

	t.Run("closed default is not applied", func(t *testing.T) {
		behavior, businessHourRepo, agentRepo, _ := newSingleBehaviorFixture()

		businessHourRepo.On("FindOneDefault", mock.Anything).Return(defaultBusinessHour(false), nil)

		err := behavior.OnNewAgentCreated(context.Background(), "agent-new")

		assert.NoError(t, err)
		agentRepo.AssertNotCalled(t, "AddBusinessHourByAgentIDs", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSingleBehavior_OnDisableBusinessHours(t *testing.T) {
	behavior, businessHourRepo, agentRepo, _ := newSingleBehaviorFixture()

	businessHourRepo.On("FindActive", mock.Anything).Return([]*entities.BusinessHour{defaultBusinessHour(true)}, nil)
	businessHourRepo.On("SetOpenByIDs", mock.Anything, []string{"bh-default"}, false).Return(nil)
	agentRepo.On("RemoveBusinessHoursFromAllAgents", mock.Anything).Return(nil)
	agentRepo.On("UpdateLivechatStatusBasedOnBusinessHours", mock.Anything).Return(nil)

	err := behavior.OnDisableBusinessHours(context.Background())

	assert.NoError(t, err)
	businessHourRepo.AssertExpectations(t)
	agentRepo.AssertExpectations(t)
}
