// Package getchathistory reads the most recent turns of a farmer's
// conversation log. A redis outage returns an empty history rather than
// failing the job.
package getchathistory

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
	TaskType = "get-chat-history"
)

var (
	ErrChatHistoryInvalid = errors.New("CHAT_HISTORY_INVALID")
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
		h.failJob(client, job, "CHAT_HISTORY_INVALID", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrChatHistoryInvalid)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = h.config.Limit
	}

	output := &Output{Messages: []models.ChatMessage{}}
	key := models.ChatHistoryKey(input.UserID)

	entries, err := h.redis.LRange(ctx, key, -limit, -1)
	if err != nil {
		h.logger.Warn("chat history unavailable", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
		return output, nil
	}

	for _, raw := range entries {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			// Corrupt entries are dropped, the surviving turns still render.
			continue
		}
		output.Messages = append(output.Messages, msg)
	}
	output.Count = len(output.Messages)

	if total, err := h.redis.LLen(ctx, key); err == nil {
		output.Total = total
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
