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

// InquiryAdapter implements the InquiryRepository interface
type InquiryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewInquiryAdapter creates a new inquiry adapter
func NewInquiryAdapter(client *postgres.Client) repositories.InquiryRepository {
	return &InquiryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var inquiryColumns = []any{
	"id", "room_id", "name", "message", "status", "department_id",
	"visitor_id", "visitor_username", "visitor_token", "visitor_status",
	"default_agent_id", "default_agent_username",
	"priority_weight", "estimated_waiting_time", "ts", "queued_at", "taken_at",
}

// Create creates a new inquiry
func (a *InquiryAdapter) Create(ctx context.Context, inquiry *entities.Inquiry) error {
	record := goqu.Record{
		"id":                     inquiry.ID,
		"room_id":                inquiry.RoomID,
		"name":                   inquiry.Name,
		"message":                inquiry.Message,
		"status":                 inquiry.Status,
		"department_id":          inquiry.DepartmentID,
		"visitor_id":             inquiry.Visitor.ID,
		"visitor_username":       inquiry.Visitor.Username,
		"visitor_token":          inquiry.Visitor.Token,
		"visitor_status":         inquiry.Visitor.Status,
		"priority_weight":        inquiry.PriorityWeight,
		"estimated_waiting_time": inquiry.EstimatedWaitingTime,
		"ts":                     inquiry.TS,
		"queued_at":              inquiry.QueuedAt,
		"taken_at":               inquiry.TakenAt,
	}
	if inquiry.DefaultAgent != nil {
		record["default_agent_id"] = inquiry.DefaultAgent.AgentID
		record["default_agent_username"] = inquiry.DefaultAgent.Username
	}

	query, args, err := a.db.Insert("inquiries").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create inquiry", err)
	}
	return nil
}

// GetByID retrieves an inquiry by ID
func (a *InquiryAdapter) GetByID(ctx context.Context, id string) (*entities.Inquiry, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("inquiry with id %s not found", id))
}

// GetByRoomID retrieves the inquiry of a room
func (a *InquiryAdapter) GetByRoomID(ctx context.Context, roomID string) (*entities.Inquiry, error) {
	return a.getOne(ctx, goqu.Ex{"room_id": roomID}, fmt.Sprintf("inquiry for room %s not found", roomID))
}

// SetDepartmentByID reassigns an inquiry to a department
func (a *InquiryAdapter) SetDepartmentByID(ctx context.Context, id, departmentID string) (*entities.Inquiry, error) {
	query, args, err := a.db.Update("inquiries").
		Set(goqu.Record{"department_id": departmentID}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to set inquiry department", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("inquiry with id %s not found", id))
	}
	return a.GetByID(ctx, id)
}

// QueueByID moves an inquiry to queued status
func (a *InquiryAdapter) QueueByID(ctx context.Context, id string, queuedAt time.Time) error {
	return a.setStatus(ctx, id, goqu.Record{
		"status":    entities.InquiryStatusQueued,
		"queued_at": queuedAt,
		"taken_at":  nil,
	})
}

// TakeByID moves an inquiry to taken status
func (a *InquiryAdapter) TakeByID(ctx context.Context, id string, takenAt time.Time) error {
	return a.setStatus(ctx, id, goqu.Record{
		"status":   entities.InquiryStatusTaken,
		"taken_at": takenAt,
	})
}

// ReadyByID moves an inquiry back to ready status
func (a *InquiryAdapter) ReadyByID(ctx context.Context, id string) error {
	return a.setStatus(ctx, id, goqu.Record{
		"status":    entities.InquiryStatusReady,
		"queued_at": nil,
		"taken_at":  nil,
	})
}

// GetCurrentSortedQueue returns the department's queued inquiries with their
// 1-based rank. Ranks are computed over the whole department queue before
// the optional single-inquiry filter, so a position request sees its true
// rank.
func (a *InquiryAdapter) GetCurrentSortedQueue(ctx context.Context, params repositories.SortedQueueParams) ([]*entities.QueuedInquiry, error) {
	orderBy := "ts ASC"
	if params.SortBy == entities.QueueSortPriority {
		orderBy = "priority_weight ASC, estimated_waiting_time ASC, ts ASC"
	}

	query := fmt.Sprintf(`
		SELECT * FROM (
			SELECT id, room_id, name, message, status, department_id,
				visitor_id, visitor_username, visitor_token, visitor_status,
				default_agent_id, default_agent_username,
				priority_weight, estimated_waiting_time, ts, queued_at, taken_at,
				ROW_NUMBER() OVER (ORDER BY %s) AS position
			FROM inquiries
			WHERE status = $1 AND department_id = $2
		) queue
	`, orderBy)

	args := []any{entities.InquiryStatusQueued, params.DepartmentID}
	if params.InquiryID != "" {
		query += " WHERE queue.id = $3"
		args = append(args, params.InquiryID)
	} else {
		query += " ORDER BY queue.position"
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query sorted queue", err)
	}
	defer rows.Close()

	var queue []*entities.QueuedInquiry
	for rows.Next() {
		entry := &entities.QueuedInquiry{}
		var defaultAgentID, defaultAgentUsername sql.NullString
		var queuedAt, takenAt sql.NullTime
		if err := rows.Scan(
			&entry.ID,
			&entry.RoomID,
			&entry.Name,
			&entry.Message,
			&entry.Status,
			&entry.DepartmentID,
			&entry.Visitor.ID,
			&entry.Visitor.Username,
			&entry.Visitor.Token,
			&entry.Visitor.Status,
			&defaultAgentID,
			&defaultAgentUsername,
			&entry.PriorityWeight,
			&entry.EstimatedWaitingTime,
			&entry.TS,
			&queuedAt,
			&takenAt,
			&entry.Position,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan queued inquiry", err)
		}
		applyNullableInquiryFields(&entry.Inquiry, defaultAgentID, defaultAgentUsername, queuedAt, takenAt)
		queue = append(queue, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate sorted queue", err)
	}
	return queue, nil
}

// RemoveByRoomID deletes the inquiry of a room
func (a *InquiryAdapter) RemoveByRoomID(ctx context.Context, roomID string) error {
	query, args, err := a.db.Delete("inquiries").
		Where(goqu.Ex{"room_id": roomID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to remove inquiry", err)
	}
	return nil
}

func (a *InquiryAdapter) getOne(ctx context.Context, filter goqu.Ex, notFoundMsg string) (*entities.Inquiry, error) {
	query, args, err := a.db.Select(inquiryColumns...).
		From("inquiries").
		Where(filter).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	inquiry := &entities.Inquiry{}
	var defaultAgentID, defaultAgentUsername sql.NullString
	var queuedAt, takenAt sql.NullTime

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&inquiry.ID,
		&inquiry.RoomID,
		&inquiry.Name,
		&inquiry.Message,
		&inquiry.Status,
		&inquiry.DepartmentID,
		&inquiry.Visitor.ID,
		&inquiry.Visitor.Username,
		&inquiry.Visitor.Token,
		&inquiry.Visitor.Status,
		&defaultAgentID,
		&defaultAgentUsername,
		&inquiry.PriorityWeight,
		&inquiry.EstimatedWaitingTime,
		&inquiry.TS,
		&queuedAt,
		&takenAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get inquiry", err)
	}

	applyNullableInquiryFields(inquiry, defaultAgentID, defaultAgentUsername, queuedAt, takenAt)
	return inquiry, nil
}

func (a *InquiryAdapter) setStatus(ctx context.Context, id string, record goqu.Record) error {
	query, args, err := a.db.Update("inquiries").
		Set(record).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update inquiry status", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("inquiry with id %s not found", id))
	}
	return nil
}

func applyNullableInquiryFields(inquiry *entities.Inquiry, agentID, agentUsername sql.NullString, queuedAt, takenAt sql.NullTime) {
	if agentID.Valid {
		inquiry.DefaultAgent = &entities.SelectedAgent{
			AgentID:  agentID.String,
			Username: agentUsername.String,
		}
	}
	if queuedAt.Valid {
		t := queuedAt.Time
		inquiry.QueuedAt = &t
	}
	if takenAt.Valid {
		t := takenAt.Time
		inquiry.TakenAt = &t
	}
}
