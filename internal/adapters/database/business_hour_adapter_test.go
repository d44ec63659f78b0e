package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/omnichannel-engine/pkg/errors"
)

func setupMockClient(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return postgres.NewClientFromDB(mockDB), mock
}

func businessHourRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "type", "active", "open", "timezone", "created_at", "updated_at",
	})
}

func workHourRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"business_hour_id", "day", "start_time", "end_time",
		"start_utc_day", "start_utc_time", "end_utc_day", "end_utc_time",
	})
}

func TestBusinessHourAdapter_GetByID(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	t.Run("returns the record with its windows", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewBusinessHourAdapter(client)

		mock.ExpectQuery(`SELECT .+ FROM "business_hours" WHERE`).
			WillReturnRows(businessHourRows().
				AddRow("bh-1", "Support hours", "department", true, false, "UTC", now, now))
		mock.ExpectQuery(`SELECT .+ FROM "business_hour_work_hours" WHERE`).
			WillReturnRows(workHourRows().
				AddRow("bh-1", "Monday", "09:00", "17:00", "Monday", "09:00", "Monday", "17:00"))

		businessHour, err := adapter.GetByID(context.Background(), "bh-1")

		require.NoError(t, err)
		assert.Equal(t, "bh-1", businessHour.ID)
		assert.Equal(t, entities.BusinessHourTypeDepartment, businessHour.Type)
		require.Len(t, businessHour.WorkHours, 1)
		assert.Equal(t, "Monday", businessHour.WorkHours[0].Day)
		assert.Equal(t, "09:00", businessHour.WorkHours[0].StartUTCTime)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for a missing id", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewBusinessHourAdapter(client)

		mock.ExpectQuery(`SELECT .+ FROM "business_hours" WHERE`).
			WillReturnError(sql.ErrNoRows)

		_, err := adapter.GetByID(context.Background(), "bh-gone")

		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestBusinessHourAdapter_FindOneDefault(t *testing.T) {
	t.Run("returns not found when no single-type record exists", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewBusinessHourAdapter(client)

		mock.ExpectQuery(`SELECT .+ FROM "business_hours" WHERE`).
			WillReturnError(sql.ErrNoRows)

		_, err := adapter.FindOneDefault(context.Background())

		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestBusinessHourAdapter_FindActive(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	client, mock := setupMockClient(t)
	adapter := NewBusinessHourAdapter(client)

	mock.ExpectQuery(`SELECT .+ FROM "business_hours" WHERE`).
		WillReturnRows(businessHourRows().
			AddRow("bh-1", "Default", "single", true, true, "UTC", now, now).
			AddRow("bh-2", "Support hours", "department", true, false, "UTC", now, now))
	// Windows land on their own parent record.
	mock.ExpectQuery(`SELECT .+ FROM "business_hour_work_hours" WHERE`).
		WillReturnRows(workHourRows().
			AddRow("bh-2", "Monday", "09:00", "17:00", "Monday", "09:00", "Monday", "17:00").
			AddRow("bh-1", "Sunday", "00:00", "23:59", "Sunday", "00:00", "Sunday", "23:59"))

	records, err := adapter.FindActive(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Sunday", records[0].WorkHours[0].Day)
	assert.Equal(t, "Monday", records[1].WorkHours[0].Day)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBusinessHourAdapter_Create(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewBusinessHourAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "business_hours"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "business_hour_work_hours"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := adapter.Create(context.Background(), &entities.BusinessHour{
		ID:       "bh-1",
		Name:     "Support hours",
		Type:     entities.BusinessHourTypeDepartment,
		Active:   true,
		Timezone: "UTC",
		WorkHours: []entities.WorkHourWindow{
			{Day: "Monday", Start: "09:00", End: "17:00", StartUTCDay: "Monday", StartUTCTime: "09:00", EndUTCDay: "Monday", EndUTCTime: "17:00"},
		},
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBusinessHourAdapter_Update(t *testing.T) {
	t.Run("replaces the windows in one transaction", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewBusinessHourAdapter(client)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "business_hours" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "business_hour_work_hours"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "business_hour_work_hours"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := adapter.Update(context.Background(), &entities.BusinessHour{
			ID:       "bh-1",
			Type:     entities.BusinessHourTypeDepartment,
			Timezone: "UTC",
			WorkHours: []entities.WorkHourWindow{
				{Day: "Tuesday", Start: "08:00", End: "16:00", StartUTCDay: "Tuesday", StartUTCTime: "08:00", EndUTCDay: "Tuesday", EndUTCTime: "16:00"},
			},
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the record is missing", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewBusinessHourAdapter(client)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "business_hours" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := adapter.Update(context.Background(), &entities.BusinessHour{ID: "bh-gone", Timezone: "UTC"})

		assert.True(t, apperrors.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBusinessHourAdapter_SetOpenByIDs(t *testing.T) {
	t.Run("updates the open flag", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewBusinessHourAdapter(client)

		mock.ExpectExec(`UPDATE "business_hours" SET`).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := adapter.SetOpenByIDs(context.Background(), []string{"bh-1", "bh-2"}, true)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty id list touches nothing", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewBusinessHourAdapter(client)

		err := adapter.SetOpenByIDs(context.Background(), nil, true)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBusinessHourAdapter_Disable(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewBusinessHourAdapter(client)

	mock.ExpectExec(`UPDATE "business_hours" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Disable(context.Background(), "bh-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
