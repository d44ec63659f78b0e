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

// BusinessHourAdapter implements the BusinessHourRepository interface
type BusinessHourAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBusinessHourAdapter creates a new business hour adapter
func NewBusinessHourAdapter(client *postgres.Client) repositories.BusinessHourRepository {
	return &BusinessHourAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var businessHourColumns = []any{
	"id", "name", "type", "active", "open", "timezone", "created_at", "updated_at",
}

// Create creates a new business hour with its work-hour windows
func (a *BusinessHourAdapter) Create(ctx context.Context, businessHour *entities.BusinessHour) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	record := goqu.Record{
		"id":         businessHour.ID,
		"name":       businessHour.Name,
		"type":       businessHour.Type,
		"active":     businessHour.Active,
		"open":       businessHour.Open,
		"timezone":   businessHour.Timezone,
		"created_at": businessHour.CreatedAt,
		"updated_at": businessHour.UpdatedAt,
	}

	query, args, err := a.db.Insert("business_hours").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create business hour", err)
	}

	if err := a.insertWorkHours(ctx, tx, businessHour.ID, businessHour.WorkHours); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit business hour", err)
	}
	return nil
}

// GetByID retrieves a business hour by ID, windows included
func (a *BusinessHourAdapter) GetByID(ctx context.Context, id string) (*entities.BusinessHour, error) {
	query, args, err := a.db.Select(businessHourColumns...).
		From("business_hours").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	businessHour := &entities.BusinessHour{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&businessHour.ID,
		&businessHour.Name,
		&businessHour.Type,
		&businessHour.Active,
		&businessHour.Open,
		&businessHour.Timezone,
		&businessHour.CreatedAt,
		&businessHour.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("business hour with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get business hour", err)
	}

	if err := a.attachWorkHours(ctx, []*entities.BusinessHour{businessHour}); err != nil {
		return nil, err
	}
	return businessHour, nil
}

// Update replaces a business hour record and its windows
func (a *BusinessHourAdapter) Update(ctx context.Context, businessHour *entities.BusinessHour) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	businessHour.UpdatedAt = time.Now()

	record := goqu.Record{
		"name":       businessHour.Name,
		"type":       businessHour.Type,
		"active":     businessHour.Active,
		"open":       businessHour.Open,
		"timezone":   businessHour.Timezone,
		"updated_at": businessHour.UpdatedAt,
	}

	query, args, err := a.db.Update("business_hours").
		Set(record).
		Where(goqu.Ex{"id": businessHour.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update business hour", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("business hour with id %s not found", businessHour.ID))
	}

	deleteQuery, deleteArgs, err := a.db.Delete("business_hour_work_hours").
		Where(goqu.Ex{"business_hour_id": businessHour.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return apperrors.NewInternalError("failed to replace work hours", err)
	}

	if err := a.insertWorkHours(ctx, tx, businessHour.ID, businessHour.WorkHours); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit business hour", err)
	}
	return nil
}

// FindOneDefault retrieves the single-type default business hour
func (a *BusinessHourAdapter) FindOneDefault(ctx context.Context) (*entities.BusinessHour, error) {
	query, args, err := a.db.Select(businessHourColumns...).
		From("business_hours").
		Where(goqu.Ex{"type": entities.BusinessHourTypeSingle}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	businessHour := &entities.BusinessHour{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&businessHour.ID,
		&businessHour.Name,
		&businessHour.Type,
		&businessHour.Active,
		&businessHour.Open,
		&businessHour.Timezone,
		&businessHour.CreatedAt,
		&businessHour.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("default business hour not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get default business hour", err)
	}

	if err := a.attachWorkHours(ctx, []*entities.BusinessHour{businessHour}); err != nil {
		return nil, err
	}
	return businessHour, nil
}

// FindActiveByDay retrieves active business hours with a window on the given UTC weekday
func (a *BusinessHourAdapter) FindActiveByDay(ctx context.Context, day string) ([]*entities.BusinessHour, error) {
	return a.findActiveByWindow(ctx, goqu.Ex{"start_utc_day": day})
}

// FindActiveToOpen retrieves active business hours whose UTC window start matches day+hour
func (a *BusinessHourAdapter) FindActiveToOpen(ctx context.Context, day, hour string) ([]*entities.BusinessHour, error) {
	return a.findActiveByWindow(ctx, goqu.Ex{"start_utc_day": day, "start_utc_time": hour})
}

// FindActiveToClose retrieves active business hours whose UTC window end matches day+hour
func (a *BusinessHourAdapter) FindActiveToClose(ctx context.Context, day, hour string) ([]*entities.BusinessHour, error) {
	return a.findActiveByWindow(ctx, goqu.Ex{"end_utc_day": day, "end_utc_time": hour})
}

// FindActive retrieves all active business hours
func (a *BusinessHourAdapter) FindActive(ctx context.Context) ([]*entities.BusinessHour, error) {
	query, args, err := a.db.Select(businessHourColumns...).
		From("business_hours").
		Where(goqu.Ex{"active": true}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryBusinessHours(ctx, query, args)
}

// SetOpenByIDs marks the given business hours open or closed
func (a *BusinessHourAdapter) SetOpenByIDs(ctx context.Context, ids []string, open bool) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := a.db.Update("business_hours").
		Set(goqu.Record{"open": open, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to set business hours open state", err)
	}
	return nil
}

// Disable deactivates and closes a business hour
func (a *BusinessHourAdapter) Disable(ctx context.Context, id string) error {
	query, args, err := a.db.Update("business_hours").
		Set(goqu.Record{"active": false, "open": false, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to disable business hour", err)
	}
	return nil
}

func (a *BusinessHourAdapter) findActiveByWindow(ctx context.Context, windowFilter goqu.Ex) ([]*entities.BusinessHour, error) {
	windowQuery := a.db.Select("business_hour_id").
		From("business_hour_work_hours").
		Where(windowFilter)

	query, args, err := a.db.Select(businessHourColumns...).
		From("business_hours").
		Where(
			goqu.Ex{"active": true},
			goqu.C("id").In(windowQuery),
		).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryBusinessHours(ctx, query, args)
}

func (a *BusinessHourAdapter) queryBusinessHours(ctx context.Context, query string, args []any) ([]*entities.BusinessHour, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query business hours", err)
	}
	defer rows.Close()

	var businessHours []*entities.BusinessHour
	for rows.Next() {
		businessHour := &entities.BusinessHour{}
		if err := rows.Scan(
			&businessHour.ID,
			&businessHour.Name,
			&businessHour.Type,
			&businessHour.Active,
			&businessHour.Open,
			&businessHour.Timezone,
			&businessHour.CreatedAt,
			&businessHour.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan business hour", err)
		}
		businessHours = append(businessHours, businessHour)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate business hours", err)
	}

	if err := a.attachWorkHours(ctx, businessHours); err != nil {
		return nil, err
	}
	return businessHours, nil
}

func (a *BusinessHourAdapter) attachWorkHours(ctx context.Context, businessHours []*entities.BusinessHour) error {
	if len(businessHours) == 0 {
		return nil
	}

	ids := make([]string, 0, len(businessHours))
	for _, businessHour := range businessHours {
		ids = append(ids, businessHour.ID)
	}

	query, args, err := a.db.Select(
		"business_hour_id", "day", "start_time", "end_time",
		"start_utc_day", "start_utc_time", "end_utc_day", "end_utc_time",
	).
		From("business_hour_work_hours").
		Where(goqu.Ex{"business_hour_id": ids}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to query work hours", err)
	}
	defer rows.Close()

	windows := make(map[string][]entities.WorkHourWindow)
	for rows.Next() {
		var businessHourID string
		var window entities.WorkHourWindow
		if err := rows.Scan(
			&businessHourID,
			&window.Day,
			&window.Start,
			&window.End,
			&window.StartUTCDay,
			&window.StartUTCTime,
			&window.EndUTCDay,
			&window.EndUTCTime,
		); err != nil {
			return apperrors.NewInternalError("failed to scan work hour", err)
		}
		windows[businessHourID] = append(windows[businessHourID], window)
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("failed to iterate work hours", err)
	}

	for _, businessHour := range businessHours {
		businessHour.WorkHours = windows[businessHour.ID]
	}
	return nil
}

func (a *BusinessHourAdapter) insertWorkHours(ctx context.Context, tx *sql.Tx, businessHourID string, workHours []entities.WorkHourWindow) error {
	if len(workHours) == 0 {
		return nil
	}

	records := make([]any, 0, len(workHours))
	for _, window := range workHours {
		records = append(records, goqu.Record{
			"business_hour_id": businessHourID,
			"day":              window.Day,
			"start_time":       window.Start,
			"end_time":         window.End,
			"start_utc_day":    window.StartUTCDay,
			"start_utc_time":   window.StartUTCTime,
			"end_utc_day":      window.EndUTCDay,
			"end_utc_time":     window.EndUTCTime,
		})
	}

	query, args, err := a.db.Insert("business_hour_work_hours").Rows(records...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert work hours", err)
	}
	return nil
}
