// Package appendchatmessage appends conversation turns to a farmer's
// redis-backed chat log. The log is advisory: a redis outage completes
// the job with logged=false instead of failing it.
package appendchatmessage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"agrimandi-workers/internal/common/database"
	cerrors "agrimandi-workers/internal/common/errors"
	"agrimandi-workers/internal/common/logger"
	"agrimandi-workers/internal/common/metrics"
	"agrimandi-workers/internal/models"
)

const (
	TaskType = "append-chat-message"
)

var (
	ErrChatLogInvalid = errors.New("CHAT_LOG_INVALID")
)

type Handler struct {
	config *Config
	redis  *database.RedisClient
	logger logger.Logger
}

func NewHandler(config *Config, redis *database.RedisClient, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		redis:  redis,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "CHAT_LOG_INVALID", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrChatLogInvalid)
	}

	entries := make([]interface{}, 0, len(input.Messages))
	appended := 0
	for _, msg := range input.Messages {
		if msg.Content == "" || (msg.Role != "user" && msg.Role != "assistant") {
			continue
		}
		if msg.Timestamp.IsZero() {
			msg.Timestamp = time.Now().UTC()
		}
		raw, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		entries = append(entries, string(raw))
		appended++
	}

	output := &Output{Appended: appended}
	if appended == 0 {
		return output, nil
	}

	key := models.ChatHistoryKey(input.UserID)
	if err := h.redis.RPush(ctx, key, entries...); err != nil {
		h.logger.Warn("chat log write failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
		output.Appended = 0
		return output, nil
	}
	output.Logged = true

	// Trim and TTL maintenance ride along with the append.
	if err := h.redis.LTrim(ctx, key, -h.config.MaxLen, -1); err != nil {
		h.logger.Warn("chat log trim failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
	}
	if err := h.redis.Expire(ctx, key, h.config.ChatTTL); err != nil {
		h.logger.Warn("chat log expire failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
	}

	if length, err := h.redis.LLen(ctx, key); err == nil {
		output.Length = length
	}

	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	code := cerrors.ErrorCode(errorCode)
	cerrors.NewErrorHandler(h.logger).HandleJobError(context.Background(), client, job, &cerrors.StandardError{
		Code:      code,
		Message:   errorMessage,
		Retryable: cerrors.IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
