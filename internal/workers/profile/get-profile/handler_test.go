package getprofile

import (
	"context"
	"encoding/json"
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

var profileColumns = []string{
	"username", "encoded_password", "display_name", "village", "district",
	"phone", "email", "preferred_crop", "created_at", "updated_at",
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Execute_CacheHitSkipsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	// no query expectations: a cache hit must not touch postgres

	mr, redis := newTestRedis(t)
	cached, _ := json.Marshal(models.FarmerProfile{
		Username:    "ramesh",
		DisplayName: "Ramesh Kumar",
		District:    "Nashik",
	})
	mr.Set(models.ProfileCacheKey("ramesh"), string(cached))

	handler := NewHandler(LoadConfig(), db, redis, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Username: "Ramesh"})

	assert.NoError(t, err)
	assert.True(t, output.FromCache)
	assert.Equal(t, "Ramesh Kumar", output.Profile.DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheMissReadsDatabaseAndRefreshesCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT username, encoded_password, display_name").
		WithArgs("ramesh").
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("ramesh", models.EncodePassword("secret123"), "Ramesh Kumar", "Nandgaon", "Nashik",
				"+919876543210", "ramesh@example.com", "Onion", now, now))

	mr, redis := newTestRedis(t)

	handler := NewHandler(LoadConfig(), db, redis, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Username: "ramesh"})

	assert.NoError(t, err)
	assert.False(t, output.FromCache)
	assert.Equal(t, "Onion", output.Profile.PreferredCrop)

	assert.True(t, mr.Exists(models.ProfileCacheKey("ramesh")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT username, encoded_password, display_name").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(profileColumns))

	_, redis := newTestRedis(t)
	handler := NewHandler(LoadConfig(), db, redis, logger.NewTestLogger(t))

	_, err = handler.Execute(context.Background(), &Input{Username: "ghost"})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestHandler_Execute_EmptyUsername(t *testing.T) {
	handler := NewHandler(LoadConfig(), nil, nil, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{Username: "  "})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestHandler_Execute_DatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT username, encoded_password, display_name").
		WillReturnError(assert.AnError)

	_, redis := newTestRedis(t)
	handler := NewHandler(LoadConfig(), db, redis, logger.NewTestLogger(t))

	_, err = handler.Execute(context.Background(), &Input{Username: "ramesh"})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrProfileQueryFailed)
}

func TestHandler_Execute_CorruptCacheFallsThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT username, encoded_password, display_name").
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("ramesh", "", "Ramesh Kumar", "", "", "", "", "", now, now))

	mr, redis := newTestRedis(t)
	mr.Set(models.ProfileCacheKey("ramesh"), "{not json")

	handler := NewHandler(LoadConfig(), db, redis, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Username: "ramesh"})

	assert.NoError(t, err)
	assert.False(t, output.FromCache)
	assert.Equal(t, "Ramesh Kumar", output.Profile.DisplayName)
}
