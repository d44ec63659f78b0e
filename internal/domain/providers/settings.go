package providers

// Settings keys consumed by the engine
const (
	// SettingWaitingQueue gates waiting-queue routing
	SettingWaitingQueue = "waiting_queue_enabled"

	// SettingBusinessHoursEnabled gates the business hour manager
	SettingBusinessHoursEnabled = "business_hours_enabled"

	// SettingBusinessHourType selects the behavior strategy ("single" or
	// "multiple")
	SettingBusinessHourType = "business_hour_type"

	// SettingQueueSortMechanism selects the queue ordering ("timestamp" or
	// "priority")
	SettingQueueSortMechanism = "queue_sort_mechanism"

	// SettingDispatchQueueStatistics gates queue-position computation and
	// dispatch
	SettingDispatchQueueStatistics = "dispatch_queue_statistics_enabled"
)

// Settings is a typed key-value store with change notification. Values are
// resolved once per operation, not re-read mid-operation.
type Settings interface {
	// GetBool returns the boolean value of a key (false when unset)
	GetBool(key string) bool

	// GetString returns the string value of a key ("" when unset)
	GetString(key string) string

	// Set stores a value and notifies watchers of the key
	Set(key string, value any)

	// Watch registers a callback for changes of a key. The callback also
	// fires once at registration with the current value.
	Watch(key string, fn func(value any))
}
