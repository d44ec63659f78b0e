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

// RoomAdapter implements the RoomRepository interface
type RoomAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRoomAdapter creates a new room adapter
func NewRoomAdapter(client *postgres.Client) repositories.RoomRepository {
	return &RoomAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a room by ID
func (a *RoomAdapter) GetByID(ctx context.Context, id string) (*entities.Room, error) {
	query, args, err := a.db.Select(
		"id", "department_id", "open", "visitor_token",
		"served_by_id", "served_by_username", "created_at", "updated_at",
	).
		From("rooms").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	room := &entities.Room{}
	var servedByID, servedByUsername sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&room.ID,
		&room.DepartmentID,
		&room.Open,
		&room.VisitorToken,
		&servedByID,
		&servedByUsername,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("room with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get room", err)
	}

	if servedByID.Valid {
		room.ServedBy = &entities.SelectedAgent{
			AgentID:  servedByID.String,
			Username: servedByUsername.String,
		}
	}
	return room, nil
}

// SetDepartmentByRoomID moves a room to another department
func (a *RoomAdapter) SetDepartmentByRoomID(ctx context.Context, roomID, departmentID string) error {
	query, args, err := a.db.Update("rooms").
		Set(goqu.Record{"department_id": departmentID, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": roomID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to set room department", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("room with id %s not found", roomID))
	}
	return nil
}

// VisitorAdapter implements the VisitorRepository interface
type VisitorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewVisitorAdapter creates a new visitor adapter
func NewVisitorAdapter(client *postgres.Client) repositories.VisitorRepository {
	return &VisitorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByToken retrieves a visitor by their session token
func (a *VisitorAdapter) GetByToken(ctx context.Context, token string) (*entities.Visitor, error) {
	query, args, err := a.db.Select("id", "username", "token", "status", "department_id").
		From("visitors").
		Where(goqu.Ex{"token": token}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	visitor := &entities.Visitor{}
	var departmentID sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&visitor.ID,
		&visitor.Username,
		&visitor.Token,
		&visitor.Status,
		&departmentID,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("visitor not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get visitor", err)
	}
	visitor.DepartmentID = departmentID.String
	return visitor, nil
}

// SetDepartmentByToken moves a visitor to another department
func (a *VisitorAdapter) SetDepartmentByToken(ctx context.Context, token, departmentID string) error {
	query, args, err := a.db.Update("visitors").
		Set(goqu.Record{"department_id": departmentID}).
		Where(goqu.Ex{"token": token}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to set visitor department", err)
	}
	return nil
}
