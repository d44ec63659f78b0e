package settings

import (
	"sync"

	"github.com/zatekoja/omnichannel-engine/internal/domain/providers"
	"github.com/zatekoja/omnichannel-engine/pkg/config"
)

// MemoryStore is an in-process implementation of the Settings provider.
// Watchers run synchronously in the caller's goroutine; a watcher that
// needs to do real work should hand it off itself.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string]any
	watchers map[string][]func(value any)
}

// NewMemoryStore creates an empty settings store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:   make(map[string]any),
		watchers: make(map[string][]func(value any)),
	}
}

// NewMemoryStoreFromConfig creates a settings store seeded with the
// boot-time livechat defaults
func NewMemoryStoreFromConfig(cfg config.LivechatConfig) *MemoryStore {
	store := NewMemoryStore()
	store.values[providers.SettingBusinessHoursEnabled] = cfg.BusinessHoursEnabled
	store.values[providers.SettingBusinessHourType] = cfg.BusinessHourType
	store.values[providers.SettingWaitingQueue] = cfg.WaitingQueueEnabled
	store.values[providers.SettingQueueSortMechanism] = cfg.QueueSortMechanism
	store.values[providers.SettingDispatchQueueStatistics] = cfg.DispatchQueueStatistics
	return store
}

// GetBool returns the boolean value of a key (false when unset)
func (s *MemoryStore) GetBool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.values[key].(bool); ok {
		return v
	}
	return false
}

// GetString returns the string value of a key ("" when unset)
func (s *MemoryStore) GetString(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.values[key].(string); ok {
		return v
	}
	return ""
}

// Set stores a value and notifies watchers of the key
func (s *MemoryStore) Set(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	watchers := make([]func(value any), len(s.watchers[key]))
	copy(watchers, s.watchers[key])
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(value)
	}
}

// Watch registers a callback for changes of a key. The callback fires once
// immediately with the current value so watchers never start from an
// unobserved state.
func (s *MemoryStore) Watch(key string, fn func(value any)) {
	s.mu.Lock()
	s.watchers[key] = append(s.watchers[key], fn)
	current := s.values[key]
	s.mu.Unlock()

	fn(current)
}
