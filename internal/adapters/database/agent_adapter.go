package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/omnichannel-engine/pkg/errors"
)

// AgentAdapter implements the AgentRepository interface. The agent's open
// business hour set lives in the agent_business_hours join table; every
// mutation targets join rows directly so concurrent ticks and lifecycle
// events never clobber each other's writes.
type AgentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAgentAdapter creates a new agent adapter
func NewAgentAdapter(client *postgres.Client) repositories.AgentRepository {
	return &AgentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves an agent by ID
func (a *AgentAdapter) GetByID(ctx context.Context, id string) (*entities.Agent, error) {
	query, args, err := a.db.Select(
		"id", "username", "roles", "status", "status_livechat", "created_at", "updated_at",
	).
		From("agents").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	agent := &entities.Agent{}
	var roles pq.StringArray
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&agent.ID,
		&agent.Username,
		&roles,
		&agent.Status,
		&agent.StatusLivechat,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("agent with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get agent", err)
	}
	agent.Roles = roles

	openQuery, openArgs, err := a.db.Select("business_hour_id").
		From("agent_business_hours").
		Where(goqu.Ex{"agent_id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, openQuery, openArgs...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query agent business hours", err)
	}
	defer rows.Close()

	for rows.Next() {
		var businessHourID string
		if err := rows.Scan(&businessHourID); err != nil {
			return nil, apperrors.NewInternalError("failed to scan business hour id", err)
		}
		agent.OpenBusinessHours = append(agent.OpenBusinessHours, businessHourID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate business hour ids", err)
	}
	return agent, nil
}

// FindAllAgentIDs retrieves ids of every livechat agent
func (a *AgentAdapter) FindAllAgentIDs(ctx context.Context) ([]string, error) {
	query, args, err := a.db.Select("id").From("agents").ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query agents", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan agent id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate agent ids", err)
	}
	return ids, nil
}

// AddBusinessHourByAgentIDs union-inserts a business hour into each agent's open set
func (a *AgentAdapter) AddBusinessHourByAgentIDs(ctx context.Context, agentIDs []string, businessHourID string) error {
	if len(agentIDs) == 0 {
		return nil
	}

	records := make([]any, 0, len(agentIDs))
	for _, agentID := range agentIDs {
		records = append(records, goqu.Record{
			"agent_id":         agentID,
			"business_hour_id": businessHourID,
		})
	}

	query, args, err := a.db.Insert("agent_business_hours").
		Rows(records...).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to add business hour to agents", err)
	}
	return nil
}

// RemoveBusinessHourByAgentIDs removes a business hour from each agent's open set
func (a *AgentAdapter) RemoveBusinessHourByAgentIDs(ctx context.Context, agentIDs []string, businessHourID string) error {
	if len(agentIDs) == 0 {
		return nil
	}
	query, args, err := a.db.Delete("agent_business_hours").
		Where(goqu.Ex{"agent_id": agentIDs, "business_hour_id": businessHourID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to remove business hour from agents", err)
	}
	return nil
}

// CloseBusinessHoursByBusinessHourIDs removes the given business hours from
// every agent's open set and forces not-available on agents left with an
// empty set
func (a *AgentAdapter) CloseBusinessHoursByBusinessHourIDs(ctx context.Context, businessHourIDs []string) error {
	if len(businessHourIDs) == 0 {
		return nil
	}
	query, args, err := a.db.Delete("agent_business_hours").
		Where(goqu.Ex{"business_hour_id": businessHourIDs}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to close business hours for agents", err)
	}
	return a.UpdateLivechatStatusBasedOnBusinessHours(ctx)
}

// RemoveBusinessHoursFromAllAgents empties every agent's open set
func (a *AgentAdapter) RemoveBusinessHoursFromAllAgents(ctx context.Context) error {
	query, _, err := a.db.Delete("agent_business_hours").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query); err != nil {
		return apperrors.NewInternalError("failed to remove business hours from all agents", err)
	}
	return nil
}

// UpdateLivechatStatusBasedOnBusinessHours derives the livechat status from
// the open set: not-available when the set is empty, available when an
// online agent has at least one open business hour
func (a *AgentAdapter) UpdateLivechatStatusBasedOnBusinessHours(ctx context.Context) error {
	// Two targeted updates instead of one round trip per agent.
	closeQuery := `
		UPDATE agents SET status_livechat = $1, updated_at = $2
		WHERE status_livechat = $3
		AND NOT EXISTS (
			SELECT 1 FROM agent_business_hours abh WHERE abh.agent_id = agents.id
		)
	`
	now := time.Now()
	if _, err := a.client.DB().ExecContext(ctx, closeQuery,
		entities.LivechatStatusNotAvailable, now, entities.LivechatStatusAvailable,
	); err != nil {
		return apperrors.NewInternalError("failed to close livechat status of agents", err)
	}

	openQuery := `
		UPDATE agents SET status_livechat = $1, updated_at = $2
		WHERE status_livechat = $3
		AND status = $4
		AND EXISTS (
			SELECT 1 FROM agent_business_hours abh WHERE abh.agent_id = agents.id
		)
	`
	if _, err := a.client.DB().ExecContext(ctx, openQuery,
		entities.LivechatStatusAvailable, now, entities.LivechatStatusNotAvailable, entities.AgentStatusOnline,
	); err != nil {
		return apperrors.NewInternalError("failed to open livechat status of agents", err)
	}
	return nil
}

// IsAgentWithinBusinessHours reports whether the agent's open set is non-empty
func (a *AgentAdapter) IsAgentWithinBusinessHours(ctx context.Context, agentID string) (bool, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("agent_business_hours").
		Where(goqu.Ex{"agent_id": agentID}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, apperrors.NewInternalError("failed to count agent business hours", err)
	}
	return count > 0, nil
}

// SetLivechatStatus sets an agent's livechat status
func (a *AgentAdapter) SetLivechatStatus(ctx context.Context, agentID string, status entities.LivechatStatus) error {
	query, args, err := a.db.Update("agents").
		Set(goqu.Record{"status_livechat": status, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": agentID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to set livechat status", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("agent with id %s not found", agentID))
	}
	return nil
}

// CountOnlineByDepartment counts online, available agents in the department
func (a *AgentAdapter) CountOnlineByDepartment(ctx context.Context, departmentID string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From(goqu.T("agents").As("a")).
		Join(
			goqu.T("department_agents").As("da"),
			goqu.On(goqu.Ex{"da.agent_id": goqu.I("a.id")}),
		).
		Where(goqu.Ex{
			"da.department_id":  departmentID,
			"a.status":          entities.AgentStatusOnline,
			"a.status_livechat": entities.LivechatStatusAvailable,
		}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count online agents", err)
	}
	return count, nil
}
