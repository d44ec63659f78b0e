package repositories

import (
	"context"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
)

// AgentRepository defines the interface for agent data operations. The
// open-business-hour set is always mutated by whole-set add/remove keyed by
// agent id and business hour id, never by read-modify-write on a loaded
// copy, so interleaved ticks and lifecycle events stay consistent.
type AgentRepository interface {
	// GetByID retrieves an agent by ID
	GetByID(ctx context.Context, id string) (*entities.Agent, error)

	// FindAllAgentIDs retrieves ids of every livechat agent
	FindAllAgentIDs(ctx context.Context) ([]string, error)

	// AddBusinessHourByAgentIDs union-inserts a business hour into each
	// given agent's open set
	AddBusinessHourByAgentIDs(ctx context.Context, agentIDs []string, businessHourID string) error

	// RemoveBusinessHourByAgentIDs removes a business hour from each given
	// agent's open set
	RemoveBusinessHourByAgentIDs(ctx context.Context, agentIDs []string, businessHourID string) error

	// CloseBusinessHoursByBusinessHourIDs removes the given business hours
	// from every agent's open set
	CloseBusinessHoursByBusinessHourIDs(ctx context.Context, businessHourIDs []string) error

	// RemoveBusinessHoursFromAllAgents empties every agent's open set
	RemoveBusinessHoursFromAllAgents(ctx context.Context) error

	// UpdateLivechatStatusBasedOnBusinessHours forces not-available on
	// agents with an empty open set and restores available on online agents
	// with a non-empty one
	UpdateLivechatStatusBasedOnBusinessHours(ctx context.Context) error

	// IsAgentWithinBusinessHours reports whether the agent's open set is
	// non-empty
	IsAgentWithinBusinessHours(ctx context.Context, agentID string) (bool, error)

	// SetLivechatStatus sets an agent's livechat status
	SetLivechatStatus(ctx context.Context, agentID string, status entities.LivechatStatus) error

	// CountOnlineByDepartment counts online, available agents that are
	// members of the given department
	CountOnlineByDepartment(ctx context.Context, departmentID string) (int, error)
}
