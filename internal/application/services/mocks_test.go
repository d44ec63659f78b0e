package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/providers"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
)

// MockBusinessHourRepository mocks repositories.BusinessHourRepository
type MockBusinessHourRepository struct {
	mock.Mock
}

func (m *MockBusinessHourRepository) Create(ctx context.Context, businessHour *entities.BusinessHour) error {
	args := m.Called(ctx, businessHour)
	return args.Error(0)
}

func (m *MockBusinessHourRepository) GetByID(ctx context.Context, id string) (*entities.BusinessHour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BusinessHour), args.Error(1)
}

func (m *MockBusinessHourRepository) Update(ctx context.Context, businessHour *entities.BusinessHour) error {
	args := m.Called(ctx, businessHour)
	return args.Error(0)
}

func (m *MockBusinessHourRepository) FindOneDefault(ctx context.Context) (*entities.BusinessHour, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BusinessHour), args.Error(1)
}

func (m *MockBusinessHourRepository) FindActiveByDay(ctx context.Context, day string) ([]*entities.BusinessHour, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BusinessHour), args.Error(1)
}

func (m *MockBusinessHourRepository) FindActiveToOpen(ctx context.Context, day, hour string) ([]*entities.BusinessHour, error) {
	args := m.Called(ctx, day, hour)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BusinessHour), args.Error(1)
}

func (m *MockBusinessHourRepository) FindActiveToClose(ctx context.Context, day, hour string) ([]*entities.BusinessHour, error) {
	args := m.Called(ctx, day, hour)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BusinessHour), args.Error(1)
}

func (m *MockBusinessHourRepository) FindActive(ctx context.Context) ([]*entities.BusinessHour, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BusinessHour), args.Error(1)
}

func (m *MockBusinessHourRepository) SetOpenByIDs(ctx context.Context, ids []string, open bool) error {
	args := m.Called(ctx, ids, open)
	return args.Error(0)
}

func (m *MockBusinessHourRepository) Disable(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDepartmentRepository mocks repositories.DepartmentRepository
type MockDepartmentRepository struct {
	mock.Mock
}

func (m *MockDepartmentRepository) GetByID(ctx context.Context, id string) (*entities.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Department), args.Error(1)
}

func (m *MockDepartmentRepository) FindEnabledByBusinessHourID(ctx context.Context, businessHourID string) ([]*entities.Department, error) {
	args := m.Called(ctx, businessHourID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Department), args.Error(1)
}

func (m *MockDepartmentRepository) CountByBusinessHourIDExcluding(ctx context.Context, businessHourID, excludeDepartmentID string) (int, error) {
	args := m.Called(ctx, businessHourID, excludeDepartmentID)
	return args.Int(0), args.Error(1)
}

func (m *MockDepartmentRepository) AssignBusinessHour(ctx context.Context, departmentIDs []string, businessHourID string) error {
	args := m.Called(ctx, departmentIDs, businessHourID)
	return args.Error(0)
}

func (m *MockDepartmentRepository) RemoveBusinessHourByIDs(ctx context.Context, departmentIDs []string, businessHourID string) error {
	args := m.Called(ctx, departmentIDs, businessHourID)
	return args.Error(0)
}

func (m *MockDepartmentRepository) FindDepartmentIDsByBusinessHourID(ctx context.Context, businessHourID string) ([]string, error) {
	args := m.Called(ctx, businessHourID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDepartmentRepository) FindAgentIDsByDepartmentIDs(ctx context.Context, departmentIDs []string) ([]string, error) {
	args := m.Called(ctx, departmentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDepartmentRepository) CountDepartmentsByAgentID(ctx context.Context, agentID string) (int, error) {
	args := m.Called(ctx, agentID)
	return args.Int(0), args.Error(1)
}

func (m *MockDepartmentRepository) CountByAgentIDAndBusinessHourID(ctx context.Context, agentID, businessHourID string) (int, error) {
	args := m.Called(ctx, agentID, businessHourID)
	return args.Int(0), args.Error(1)
}

func (m *MockDepartmentRepository) FindAgentIDsOutsideDepartmentBusinessHours(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDepartmentRepository) AddAgent(ctx context.Context, departmentID, agentID string) error {
	args := m.Called(ctx, departmentID, agentID)
	return args.Error(0)
}

func (m *MockDepartmentRepository) RemoveAgent(ctx context.Context, departmentID, agentID string) error {
	args := m.Called(ctx, departmentID, agentID)
	return args.Error(0)
}

// MockAgentRepository mocks repositories.AgentRepository
type MockAgentRepository struct {
	mock.Mock
}

func (m *MockAgentRepository) GetByID(ctx context.Context, id string) (*entities.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Agent), args.Error(1)
}

func (m *MockAgentRepository) FindAllAgentIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAgentRepository) AddBusinessHourByAgentIDs(ctx context.Context, agentIDs []string, businessHourID string) error {
	args := m.Called(ctx, agentIDs, businessHourID)
	return args.Error(0)
}

func (m *MockAgentRepository) RemoveBusinessHourByAgentIDs(ctx context.Context, agentIDs []string, businessHourID string) error {
	args := m.Called(ctx, agentIDs, businessHourID)
	return args.Error(0)
}

func (m *MockAgentRepository) CloseBusinessHoursByBusinessHourIDs(ctx context.Context, businessHourIDs []string) error {
	args := m.Called(ctx, businessHourIDs)
	return args.Error(0)
}

func (m *MockAgentRepository) RemoveBusinessHoursFromAllAgents(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAgentRepository) UpdateLivechatStatusBasedOnBusinessHours(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAgentRepository) IsAgentWithinBusinessHours(ctx context.Context, agentID string) (bool, error) {
	args := m.Called(ctx, agentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAgentRepository) SetLivechatStatus(ctx context.Context, agentID string, status entities.LivechatStatus) error {
	args := m.Called(ctx, agentID, status)
	return args.Error(0)
}

func (m *MockAgentRepository) CountOnlineByDepartment(ctx context.Context, departmentID string) (int, error) {
	args := m.Called(ctx, departmentID)
	return args.Int(0), args.Error(1)
}

// MockInquiryRepository mocks repositories.InquiryRepository
type MockInquiryRepository struct {
	mock.Mock
}

func (m *MockInquiryRepository) Create(ctx context.Context, inquiry *entities.Inquiry) error {
	args := m.Called(ctx, inquiry)
	return args.Error(0)
}

func (m *MockInquiryRepository) GetByID(ctx context.Context, id string) (*entities.Inquiry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Inquiry), args.Error(1)
}

func (m *MockInquiryRepository) GetByRoomID(ctx context.Context, roomID string) (*entities.Inquiry, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Inquiry), args.Error(1)
}

func (m *MockInquiryRepository) SetDepartmentByID(ctx context.Context, id, departmentID string) (*entities.Inquiry, error) {
	args := m.Called(ctx, id, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Inquiry), args.Error(1)
}

func (m *MockInquiryRepository) QueueByID(ctx context.Context, id string, queuedAt time.Time) error {
	args := m.Called(ctx, id, queuedAt)
	return args.Error(0)
}

func (m *MockInquiryRepository) TakeByID(ctx context.Context, id string, takenAt time.Time) error {
	args := m.Called(ctx, id, takenAt)
	return args.Error(0)
}

func (m *MockInquiryRepository) ReadyByID(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInquiryRepository) GetCurrentSortedQueue(ctx context.Context, params repositories.SortedQueueParams) ([]*entities.QueuedInquiry, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.QueuedInquiry), args.Error(1)
}

func (m *MockInquiryRepository) RemoveByRoomID(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// MockRoomRepository mocks repositories.RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) GetByID(ctx context.Context, id string) (*entities.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Room), args.Error(1)
}

func (m *MockRoomRepository) SetDepartmentByRoomID(ctx context.Context, roomID, departmentID string) error {
	args := m.Called(ctx, roomID, departmentID)
	return args.Error(0)
}

// MockVisitorRepository mocks repositories.VisitorRepository
type MockVisitorRepository struct {
	mock.Mock
}

func (m *MockVisitorRepository) GetByToken(ctx context.Context, token string) (*entities.Visitor, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Visitor), args.Error(1)
}

func (m *MockVisitorRepository) SetDepartmentByToken(ctx context.Context, token, departmentID string) error {
	args := m.Called(ctx, token, departmentID)
	return args.Error(0)
}

// fakeSettings is an in-memory Settings provider for tests
type fakeSettings struct {
	mu     sync.RWMutex
	values map[string]any
}

func newFakeSettings(values map[string]any) *fakeSettings {
	if values == nil {
		values = make(map[string]any)
	}
	return &fakeSettings{values: values}
}

func (s *fakeSettings) GetBool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, _ := s.values[key].(bool)
	return v
}

func (s *fakeSettings) GetString(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, _ := s.values[key].(string)
	return v
}

func (s *fakeSettings) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *fakeSettings) Watch(key string, fn func(value any)) {
	s.mu.RLock()
	current := s.values[key]
	s.mu.RUnlock()
	fn(current)
}

// fakeEventBus records published events
type fakeEventBus struct {
	mu        sync.Mutex
	published []publishedEvent
	failWith  error
}

type publishedEvent struct {
	channel string
	event   *entities.InquiryEvent
}

func (b *fakeEventBus) Publish(ctx context.Context, channel string, event *entities.InquiryEvent) error {
	if b.failWith != nil {
		return b.failWith
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, publishedEvent{channel: channel, event: event})
	return nil
}

func (b *fakeEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.InquiryEvent, error) {
	ch := make(chan *entities.InquiryEvent)
	close(ch)
	return ch, nil
}

func (b *fakeEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return nil
}

func (b *fakeEventBus) Close() error {
	return nil
}

func (b *fakeEventBus) events() []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]publishedEvent, len(b.published))
	copy(out, b.published)
	return out
}

// fakeScheduler records scheduled specs and removals
type fakeScheduler struct {
	mu       sync.Mutex
	nextID   providers.JobID
	jobs     map[providers.JobID]providers.TickSpec
	removed  []providers.JobID
	stopped  bool
	failWith error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{jobs: make(map[providers.JobID]providers.TickSpec)}
}

func (s *fakeScheduler) Schedule(spec providers.TickSpec, fn func()) (providers.JobID, error) {
	if s.failWith != nil {
		return 0, s.failWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.jobs[s.nextID] = spec
	return s.nextID, nil
}

func (s *fakeScheduler) Remove(id providers.JobID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	s.removed = append(s.removed, id)
}

func (s *fakeScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func (s *fakeScheduler) scheduledSpecs() []providers.TickSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	specs := make([]providers.TickSpec, 0, len(s.jobs))
	for _, spec := range s.jobs {
		specs = append(specs, spec)
	}
	return specs
}
