package checkpricealerts

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"

	"agrimandi-workers/internal/common/config"
	"agrimandi-workers/internal/common/database"
	"agrimandi-workers/internal/common/logger"
	"agrimandi-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *database.RedisClient) {
	mr := miniredis.RunT(t)
	client, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	assert.NoError(t, err)
	return mr, client
}

var thresholdColumns = []string{"id", "user_id", "crop", "threshold", "direction", "active", "created_at"}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Execute_TriggersOnCrossedThresholds(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id, crop, threshold, direction").
		WillReturnRows(sqlmock.NewRows(thresholdColumns).
			AddRow("a-1", "farmer-1", "Wheat", 2100.0, "above", true, now).
			AddRow("a-2", "farmer-1", "Onion", 1500.0, "below", true, now).
			AddRow("a-3", "farmer-2", "Wheat", 3000.0, "above", true, now))

	mr, redis := newTestRedis(t)
	mr.Set(models.LatestPriceKey("Wheat"), "2250.00")
	mr.Set(models.LatestPriceKey("Onion"), "1400.00")

	handler := NewHandler(LoadConfig(), db, redis, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{})

	assert.NoError(t, err)
	assert.Equal(t, 3, output.Checked)
	assert.Len(t, output.Triggered, 2)

	assert.Equal(t, "a-1", output.Triggered[0].AlertID)
	assert.Equal(t, 2250.0, output.Triggered[0].Price)
	assert.Equal(t, "a-2", output.Triggered[1].AlertID)
	assert.Equal(t, models.AlertBelow, output.Triggered[1].Direction)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_UserFilterAppliesWhereClause(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("AND user_id = \\$1").
		WithArgs("farmer-9").
		WillReturnRows(sqlmock.NewRows(thresholdColumns))

	_, redis := newTestRedis(t)
	handler := NewHandler(LoadConfig(), db, redis, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{UserID: "farmer-9"})

	assert.NoError(t, err)
	assert.Equal(t, 0, output.Checked)
	assert.Empty(t, output.Triggered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MissingLatestPriceIsSkipped(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id, crop, threshold, direction").
		WillReturnRows(sqlmock.NewRows(thresholdColumns).
			AddRow("a-1", "farmer-1", "Soybean", 4000.0, "above", true, now))

	_, redis := newTestRedis(t) // no prices cached

	handler := NewHandler(LoadConfig(), db, redis, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{})

	assert.NoError(t, err)
	assert.Equal(t, 0, output.Checked)
	assert.Equal(t, 1, output.Skipped)
	assert.Empty(t, output.Triggered)
}

func TestHandler_Execute_InvalidRowSkippedNotFatal(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id, crop, threshold, direction").
		WillReturnRows(sqlmock.NewRows(thresholdColumns).
			AddRow("bad-1", "farmer-1", "Wheat", 2100.0, "sideways", true, now).
			AddRow("ok-1", "farmer-1", "Wheat", 2100.0, "above", true, now))

	mr, redis := newTestRedis(t)
	mr.Set(models.LatestPriceKey("Wheat"), "2250.00")

	handler := NewHandler(LoadConfig(), db, redis, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{})

	assert.NoError(t, err)
	assert.Equal(t, 1, output.Skipped)
	assert.Len(t, output.Triggered, 1)
	assert.Equal(t, "ok-1", output.Triggered[0].AlertID)
}

func TestHandler_Execute_DatabaseErrorIsRetryable(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, user_id, crop").
		WillReturnError(assert.AnError)

	_, redis := newTestRedis(t)
	handler := NewHandler(LoadConfig(), db, redis, logger.NewTestLogger(t))

	_, err = handler.Execute(context.Background(), &Input{})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrAlertCheckFailed)
}

func TestHandler_Execute_NotTriggeredWhenInsideBand(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id, crop, threshold, direction").
		WillReturnRows(sqlmock.NewRows(thresholdColumns).
			AddRow("a-1", "farmer-1", "Wheat", 2500.0, "above", true, now).
			AddRow("a-2", "farmer-1", "Wheat", 2000.0, "below", true, now))

	mr, redis := newTestRedis(t)
	mr.Set(models.LatestPriceKey("Wheat"), "2250.00")

	handler := NewHandler(LoadConfig(), db, redis, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{})

	assert.NoError(t, err)
	assert.Equal(t, 2, output.Checked)
	assert.Empty(t, output.Triggered)
}
