package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/domain/repositories"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/omnichannel-engine/pkg/errors"
)

// DepartmentAdapter implements the DepartmentRepository interface
type DepartmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDepartmentAdapter creates a new department adapter
func NewDepartmentAdapter(client *postgres.Client) repositories.DepartmentRepository {
	return &DepartmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var departmentColumns = []any{
	"id", "name", "enabled", "archived", "business_hour_id",
	"fallback_forward_department_id", "created_at", "updated_at",
}

// GetByID retrieves a department by ID
func (a *DepartmentAdapter) GetByID(ctx context.Context, id string) (*entities.Department, error) {
	query, args, err := a.db.Select(departmentColumns...).
		From("departments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	department, err := a.scanDepartment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("department with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get department", err)
	}
	return department, nil
}

// FindEnabledByBusinessHourID retrieves enabled departments linked to a business hour
func (a *DepartmentAdapter) FindEnabledByBusinessHourID(ctx context.Context, businessHourID string) ([]*entities.Department, error) {
	query, args, err := a.db.Select(departmentColumns...).
		From("departments").
		Where(goqu.Ex{"business_hour_id": businessHourID, "enabled": true, "archived": false}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query departments", err)
	}
	defer rows.Close()

	var departments []*entities.Department
	for rows.Next() {
		department, err := a.scanDepartment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan department", err)
		}
		departments = append(departments, department)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate departments", err)
	}
	return departments, nil
}

// CountByBusinessHourIDExcluding counts departments linked to a business
// hour, excluding the given department
func (a *DepartmentAdapter) CountByBusinessHourIDExcluding(ctx context.Context, businessHourID, excludeDepartmentID string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("departments").
		Where(
			goqu.Ex{"business_hour_id": businessHourID},
			goqu.C("id").Neq(excludeDepartmentID),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count departments", err)
	}
	return count, nil
}

// AssignBusinessHour links a business hour to the given departments
func (a *DepartmentAdapter) AssignBusinessHour(ctx context.Context, departmentIDs []string, businessHourID string) error {
	if len(departmentIDs) == 0 {
		return nil
	}
	query, args, err := a.db.Update("departments").
		Set(goqu.Record{"business_hour_id": businessHourID, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": departmentIDs}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to assign business hour", err)
	}
	return nil
}

// RemoveBusinessHourByIDs unlinks a business hour from the given departments
func (a *DepartmentAdapter) RemoveBusinessHourByIDs(ctx context.Context, departmentIDs []string, businessHourID string) error {
	if len(departmentIDs) == 0 {
		return nil
	}
	query, args, err := a.db.Update("departments").
		Set(goqu.Record{"business_hour_id": nil, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": departmentIDs, "business_hour_id": businessHourID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to remove business hour from departments", err)
	}
	return nil
}

// FindDepartmentIDsByBusinessHourID retrieves ids of departments linked to a business hour
func (a *DepartmentAdapter) FindDepartmentIDsByBusinessHourID(ctx context.Context, businessHourID string) ([]string, error) {
	query, args, err := a.db.Select("id").
		From("departments").
		Where(goqu.Ex{"business_hour_id": businessHourID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryIDs(ctx, query, args)
}

// FindAgentIDsByDepartmentIDs retrieves ids of agents in any of the given departments
func (a *DepartmentAdapter) FindAgentIDsByDepartmentIDs(ctx context.Context, departmentIDs []string) ([]string, error) {
	if len(departmentIDs) == 0 {
		return nil, nil
	}
	query, args, err := a.db.Select(goqu.DISTINCT("agent_id")).
		From("department_agents").
		Where(goqu.Ex{"department_id": departmentIDs}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryIDs(ctx, query, args)
}

// CountDepartmentsByAgentID counts the departments an agent belongs to
func (a *DepartmentAdapter) CountDepartmentsByAgentID(ctx context.Context, agentID string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("department_agents").
		Where(goqu.Ex{"agent_id": agentID}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count agent departments", err)
	}
	return count, nil
}

// CountByAgentIDAndBusinessHourID counts the agent's departments linked to
// the given business hour
func (a *DepartmentAdapter) CountByAgentIDAndBusinessHourID(ctx context.Context, agentID, businessHourID string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From(goqu.T("department_agents").As("da")).
		Join(
			goqu.T("departments").As("d"),
			goqu.On(goqu.Ex{"d.id": goqu.I("da.department_id")}),
		).
		Where(goqu.Ex{
			"da.agent_id":        agentID,
			"d.business_hour_id": businessHourID,
		}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count departments by agent and business hour", err)
	}
	return count, nil
}

// FindAgentIDsOutsideDepartmentBusinessHours retrieves ids of agents the
// default business hour applies to: agents with no department, or whose
// departments have no business hour of their own
func (a *DepartmentAdapter) FindAgentIDsOutsideDepartmentBusinessHours(ctx context.Context) ([]string, error) {
	withBusinessHour := a.db.Select(goqu.DISTINCT("da.agent_id")).
		From(goqu.T("department_agents").As("da")).
		Join(
			goqu.T("departments").As("d"),
			goqu.On(goqu.Ex{"d.id": goqu.I("da.department_id")}),
		).
		Where(goqu.I("d.business_hour_id").IsNotNull())

	query, args, err := a.db.Select("id").
		From("agents").
		Where(goqu.C("id").NotIn(withBusinessHour)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryIDs(ctx, query, args)
}

// AddAgent adds an agent to a department
func (a *DepartmentAdapter) AddAgent(ctx context.Context, departmentID, agentID string) error {
	query, args, err := a.db.Insert("department_agents").
		Rows(goqu.Record{"department_id": departmentID, "agent_id": agentID}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to add agent to department", err)
	}
	return nil
}

// RemoveAgent removes an agent from a department
func (a *DepartmentAdapter) RemoveAgent(ctx context.Context, departmentID, agentID string) error {
	query, args, err := a.db.Delete("department_agents").
		Where(goqu.Ex{"department_id": departmentID, "agent_id": agentID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to remove agent from department", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (a *DepartmentAdapter) scanDepartment(row rowScanner) (*entities.Department, error) {
	department := &entities.Department{}
	var businessHourID, fallbackDepartmentID sql.NullString

	err := row.Scan(
		&department.ID,
		&department.Name,
		&department.Enabled,
		&department.Archived,
		&businessHourID,
		&fallbackDepartmentID,
		&department.CreatedAt,
		&department.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if businessHourID.Valid {
		department.BusinessHourID = &businessHourID.String
	}
	if fallbackDepartmentID.Valid {
		department.FallbackForwardDepartmentID = &fallbackDepartmentID.String
	}
	return department, nil
}

func (a *DepartmentAdapter) queryIDs(ctx context.Context, query string, args []any) ([]string, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate ids", err)
	}
	return ids, nil
}
