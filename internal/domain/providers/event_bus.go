package providers

import (
	"context"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
)

// EventBus is the outbound notification channel: inquiry events are pushed
// to the owning visitor/agent session through it. Delivery failures
// propagate to the caller; the engine performs no retry.
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.InquiryEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.InquiryEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event scopes
const (
	// EventChannelInquiryUpdates is the channel for all inquiry updates
	EventChannelInquiryUpdates = "inquiry:updates"

	// EventChannelRoomPrefix is the prefix for room-specific channels
	EventChannelRoomPrefix = "room:"

	// EventChannelDepartmentPrefix is the prefix for department channels
	EventChannelDepartmentPrefix = "department:"
)

// GetRoomChannel returns the channel name for a specific room
func GetRoomChannel(roomID string) string {
	return EventChannelRoomPrefix + roomID
}

// GetDepartmentChannel returns the channel name for a specific department
func GetDepartmentChannel(departmentID string) string {
	return EventChannelDepartmentPrefix + departmentID
}
