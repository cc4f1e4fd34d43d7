package getcropadvice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"

	"agrimandi-workers/internal/advisor"
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

func newTestHandler(t *testing.T, serverURL string, redis *database.RedisClient) *Handler {
	remote := advisor.NewRemoteClient(advisor.RemoteConfig{
		APIURL:     serverURL,
		APIKey:     "test-key",
		APIVersion: "2023-06-01",
		Model:      "test-model",
		MaxTokens:  256,
		Timeout:    2 * time.Second,
	})
	facade := advisor.NewFacade(advisor.DefaultCatalog(), remote, 10, logger.NewTestLogger(t))
	return NewHandler(LoadConfig(), facade, redis, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_RemoteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"Wheat looks strong this week. 🌾"}]}`))
	}))
	defer server.Close()

	_, redis := newTestRedis(t)
	handler := newTestHandler(t, server.URL, redis)

	output, err := handler.Execute(context.Background(), &Input{
		Question:     "wheat price batao",
		SelectedCrop: "Rice",
		UserID:       "farmer-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Wheat looks strong this week. 🌾", output.Reply)
	assert.Equal(t, "Wheat", output.Crop)
	assert.False(t, output.Fallback)
}

func TestHandler_Execute_FallbackOnRemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, redis := newTestRedis(t)
	handler := newTestHandler(t, server.URL, redis)

	output, err := handler.Execute(context.Background(), &Input{
		Question:     "kab beche onion",
		SelectedCrop: "Potato",
		UserID:       "farmer-1",
	})

	assert.NoError(t, err)
	assert.True(t, output.Fallback)
	assert.Equal(t, "sell", output.Intent)
	assert.Equal(t, "Onion", output.Crop)
	assert.Contains(t, output.Reply, "Onion")
}

func TestHandler_Execute_AppendsBothTurnsToChatLog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"Hold for two weeks."}]}`))
	}))
	defer server.Close()

	mr, redis := newTestRedis(t)
	handler := newTestHandler(t, server.URL, redis)

	_, err := handler.Execute(context.Background(), &Input{
		Question:     "wheat kab beche",
		SelectedCrop: "Wheat",
		UserID:       "farmer-7",
	})
	assert.NoError(t, err)

	items, err := mr.List(models.ChatHistoryKey("farmer-7"))
	assert.NoError(t, err)
	assert.Len(t, items, 2)

	var first, second models.ChatMessage
	assert.NoError(t, json.Unmarshal([]byte(items[0]), &first))
	assert.NoError(t, json.Unmarshal([]byte(items[1]), &second))
	assert.Equal(t, "user", first.Role)
	assert.Equal(t, "wheat kab beche", first.Content)
	assert.Equal(t, "assistant", second.Role)
	assert.Equal(t, "Hold for two weeks.", second.Content)
}

func TestHandler_Execute_ChatLogWrittenOnFallbackToo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	mr, redis := newTestRedis(t)
	handler := newTestHandler(t, server.URL, redis)

	output, err := handler.Execute(context.Background(), &Input{
		Question:     "msp kya hai",
		SelectedCrop: "Wheat",
		UserID:       "farmer-2",
	})
	assert.NoError(t, err)
	assert.True(t, output.Fallback)

	items, err := mr.List(models.ChatHistoryKey("farmer-2"))
	assert.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestHandler_Execute_RedisDownIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"All good."}]}`))
	}))
	defer server.Close()

	mr, redis := newTestRedis(t)
	mr.Close() // simulate redis outage

	handler := newTestHandler(t, server.URL, redis)

	output, err := handler.Execute(context.Background(), &Input{
		Question:     "wheat price",
		SelectedCrop: "Wheat",
		UserID:       "farmer-3",
	})

	assert.NoError(t, err)
	assert.Equal(t, "All good.", output.Reply)
}

func TestHandler_Execute_VoiceGetsSpeakableReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"Sell at **₹2200/quintal**"}]}`))
	}))
	defer server.Close()

	_, redis := newTestRedis(t)
	handler := newTestHandler(t, server.URL, redis)

	output, err := handler.Execute(context.Background(), &Input{
		Question:     "wheat price",
		SelectedCrop: "Wheat",
		Voice:        true,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Sell at rupees 2200 per quintal", output.SpeakableReply)
}

func TestHandler_Execute_HistoryPassedUpstream(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer server.Close()

	mr, redis := newTestRedis(t)
	handler := newTestHandler(t, server.URL, redis)

	prior, _ := json.Marshal(models.ChatMessage{Role: "user", Content: "pehla sawaal"})
	mr.Lpush(models.ChatHistoryKey("farmer-9"), string(prior))

	_, err := handler.Execute(context.Background(), &Input{
		Question:     "wheat price",
		SelectedCrop: "Wheat",
		UserID:       "farmer-9",
	})
	assert.NoError(t, err)

	messages, ok := body["messages"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, messages, 2) // prior turn + new question
}
