package entities

import (
	"slices"
	"time"
)

// AgentStatus is the agent's connection status
type AgentStatus string

const (
	AgentStatusOnline  AgentStatus = "online"
	AgentStatusOffline AgentStatus = "offline"
)

// LivechatStatus is the agent's livechat service status
type LivechatStatus string

const (
	LivechatStatusAvailable    LivechatStatus = "available"
	LivechatStatusNotAvailable LivechatStatus = "not-available"
)

const (
	RoleLivechatAgent = "livechat-agent"
	RoleBot           = "bot"
)

// Agent is a user holding the livechat-agent role. OpenBusinessHours is the
// availability projection: the set of currently-open business hour ids that
// apply to this agent. It is a cache over the source records and must always
// be re-derivable from them.
type Agent struct {
	ID                string         `json:"id" db:"id"`
	Username          string         `json:"username" db:"username"`
	Roles             []string       `json:"roles"`
	Status            AgentStatus    `json:"status" db:"status"`
	StatusLivechat    LivechatStatus `json:"status_livechat" db:"status_livechat"`
	OpenBusinessHours []string       `json:"open_business_hours"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// HasRole reports whether the agent holds the given role
func (a *Agent) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// SelectedAgent identifies an agent pre-assigned to an inquiry
type SelectedAgent struct {
	AgentID  string `json:"agent_id" db:"default_agent_id"`
	Username string `json:"username" db:"default_agent_username"`
}
