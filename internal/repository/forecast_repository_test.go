package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cineops/showtime-api/internal/models"
)

func newForecastRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestForecastRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newForecastRepoMock(t)
	defer cleanup()
	repo := NewForecastRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO forecasts")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	forecast := models.Forecast{
		Name:                   "autumn-week",
		DateRangeStart:         time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DateRangeEnd:           time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		OptimizationParameters: types.JSONText(`{"revenue_goal":1.0,"occupancy_goal":0.7}`),
	}
	require.NoError(t, repo.Create(context.Background(), &forecast))

	assert.NotEmpty(t, forecast.ID)
	assert.Equal(t, models.ForecastStatusGenerating, forecast.Status)
	assert.False(t, forecast.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForecastRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newForecastRepoMock(t)
	defer cleanup()
	repo := NewForecastRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "name", "description", "date_range_start", "date_range_end", "status",
		"optimization_parameters", "total_schedules_generated", "created_by", "created_at", "updated_at",
	}).AddRow("forecast-1", "autumn-week", "", time.Now(), time.Now(), "completed",
		[]byte(`{}`), 42, "scheduler", time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("FROM forecasts WHERE id = $1")).
		WithArgs("forecast-1").
		WillReturnRows(rows)

	forecast, err := repo.FindByID(context.Background(), "forecast-1")
	require.NoError(t, err)
	assert.Equal(t, models.ForecastStatusCompleted, forecast.Status)
	assert.Equal(t, 42, forecast.TotalSchedulesGenerated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForecastRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newForecastRepoMock(t)
	defer cleanup()
	repo := NewForecastRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE forecasts SET status = $2, total_schedules_generated = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("forecast-1", models.ForecastStatusCompleted, 14, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "forecast-1", models.ForecastStatusCompleted, 14))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForecastRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newForecastRepoMock(t)
	defer cleanup()
	repo := NewForecastRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM prediction_data WHERE forecast_id = $1")).
		WithArgs("forecast-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE forecast_id = $1")).
		WithArgs("forecast-1").
		WillReturnResult(sqlmock.NewResult(0, 14))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forecasts WHERE id = $1")).
		WithArgs("forecast-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "forecast-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForecastRepositoryDeleteRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newForecastRepoMock(t)
	defer cleanup()
	repo := NewForecastRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM prediction_data WHERE forecast_id = $1")).
		WithArgs("forecast-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE forecast_id = $1")).
		WithArgs("forecast-1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "forecast-1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
