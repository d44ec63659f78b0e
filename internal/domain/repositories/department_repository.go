package repositories

import (
	"context"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
)

// DepartmentRepository defines the interface for department data operations,
// including the department-agent membership join
type DepartmentRepository interface {
	// GetByID retrieves a department by ID
	GetByID(ctx context.Context, id string) (*entities.Department, error)

	// FindEnabledByBusinessHourID retrieves enabled departments linked to a
	// business hour
	FindEnabledByBusinessHourID(ctx context.Context, businessHourID string) ([]*entities.Department, error)

	// CountByBusinessHourIDExcluding counts departments linked to a business
	// hour, excluding the given department
	CountByBusinessHourIDExcluding(ctx context.Context, businessHourID, excludeDepartmentID string) (int, error)

	// AssignBusinessHour links a business hour to the given departments
	AssignBusinessHour(ctx context.Context, departmentIDs []string, businessHourID string) error

	// RemoveBusinessHourByIDs unlinks a business hour from the given departments
	RemoveBusinessHourByIDs(ctx context.Context, departmentIDs []string, businessHourID string) error

	// FindDepartmentIDsByBusinessHourID retrieves ids of departments linked
	// to a business hour
	FindDepartmentIDsByBusinessHourID(ctx context.Context, businessHourID string) ([]string, error)

	// FindAgentIDsByDepartmentIDs retrieves ids of agents that are members
	// of any of the given departments
	FindAgentIDsByDepartmentIDs(ctx context.Context, departmentIDs []string) ([]string, error)

	// CountDepartmentsByAgentID counts the departments an agent belongs to
	CountDepartmentsByAgentID(ctx context.Context, agentID string) (int, error)

	// CountByAgentIDAndBusinessHourID counts the agent's departments that
	// are linked to the given business hour
	CountByAgentIDAndBusinessHourID(ctx context.Context, agentID, businessHourID string) (int, error)

	// FindAgentIDsOutsideDepartmentBusinessHours retrieves ids of agents to
	// whom the default business hour applies: agents with no department, or
	// whose departments carry no business hour of their own
	FindAgentIDsOutsideDepartmentBusinessHours(ctx context.Context) ([]string, error)

	// AddAgent adds an agent to a department
	AddAgent(ctx context.Context, departmentID, agentID string) error

	// RemoveAgent removes an agent from a department
	RemoveAgent(ctx context.Context, departmentID, agentID string) error
}
