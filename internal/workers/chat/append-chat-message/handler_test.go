package appendchatmessage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

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

func turn(role, content string) models.ChatMessage {
	return models.ChatMessage{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Execute_AppendsBothTurns(t *testing.T) {
	mr, redis := newTestRedis(t)
	handler := NewHandler(LoadConfig(), redis, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		UserID: "farmer-1",
		Messages: []models.ChatMessage{
			turn("user", "What is the wheat price?"),
			turn("assistant", "Wheat is trading around ₹2,200/quintal."),
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, output.Appended)
	assert.Equal(t, int64(2), output.Length)
	assert.True(t, output.Logged)

	entries, lrErr := mr.List(models.ChatHistoryKey("farmer-1"))
	assert.NoError(t, lrErr)
	assert.Len(t, entries, 2)

	var first models.ChatMessage
	assert.NoError(t, json.Unmarshal([]byte(entries[0]), &first))
	assert.Equal(t, "user", first.Role)

	ttl := mr.TTL(models.ChatHistoryKey("farmer-1"))
	assert.Equal(t, 7*24*time.Hour, ttl)
}

func TestHandler_Execute_SkipsInvalidMessages(t *testing.T) {
	_, redis := newTestRedis(t)
	handler := NewHandler(LoadConfig(), redis, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		UserID: "farmer-1",
		Messages: []models.ChatMessage{
			turn("system", "not a conversation role"),
			turn("user", ""),
			turn("assistant", "Only this one survives."),
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, output.Appended)
}

func TestHandler_Execute_EmptyBatchIsNoop(t *testing.T) {
	mr, redis := newTestRedis(t)
	handler := NewHandler(LoadConfig(), redis, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{UserID: "farmer-1"})

	assert.NoError(t, err)
	assert.Equal(t, 0, output.Appended)
	assert.False(t, output.Logged)
	assert.False(t, mr.Exists(models.ChatHistoryKey("farmer-1")))
}

func TestHandler_Execute_MissingUserID(t *testing.T) {
	_, redis := newTestRedis(t)
	handler := NewHandler(LoadConfig(), redis, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{
		Messages: []models.ChatMessage{turn("user", "hello")},
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrChatLogInvalid)
}

func TestHandler_Execute_RedisDownCompletesUnlogged(t *testing.T) {
	mr, redis := newTestRedis(t)
	mr.Close()
	handler := NewHandler(LoadConfig(), redis, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		UserID:   "farmer-1",
		Messages: []models.ChatMessage{turn("user", "hello")},
	})

	assert.NoError(t, err)
	assert.False(t, output.Logged)
	assert.Equal(t, 0, output.Appended)
}

func TestHandler_Execute_TrimsToMaxLen(t *testing.T) {
	mr, redis := newTestRedis(t)
	cfg := LoadConfig()
	cfg.MaxLen = 4
	handler := NewHandler(cfg, redis, logger.NewTestLogger(t))

	for i := 0; i < 3; i++ {
		_, err := handler.Execute(context.Background(), &Input{
			UserID: "farmer-1",
			Messages: []models.ChatMessage{
				turn("user", "question"),
				turn("assistant", "answer"),
			},
		})
		assert.NoError(t, err)
	}

	entries, err := mr.List(models.ChatHistoryKey("farmer-1"))
	assert.NoError(t, err)
	assert.Len(t, entries, 4)
}
