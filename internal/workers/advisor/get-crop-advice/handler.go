package getcropadvice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"agrimandi-workers/internal/advisor"
	"agrimandi-workers/internal/common/database"
	cerrors "agrimandi-workers/internal/common/errors"
	"agrimandi-workers/internal/common/logger"
	"agrimandi-workers/internal/common/metrics"
	"agrimandi-workers/internal/models"
)

const (
	TaskType = "get-crop-advice"
)

// Handler runs the advice facade as a job worker. The advice path never
// fails the job: remote trouble routes to the local fallback and the
// conversation log is best-effort.
type Handler struct {
	config *Config
	facade *advisor.Facade
	redis  *database.RedisClient
	logger logger.Logger
}

func NewHandler(config *Config, facade *advisor.Facade, redis *database.RedisClient, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		facade: facade,
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
		h.failJob(client, job, "ADVICE_LLM_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	history := h.loadHistory(ctx, input.UserID)

	result := h.facade.GetAdvice(ctx, input.Question, input.SelectedCrop, history)

	if result.Fallback {
		metrics.AdviceFallbacks.WithLabelValues(result.Reason).Inc()
		metrics.AdviceIntents.WithLabelValues(string(result.Intent)).Inc()
	}
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())

	h.appendTurns(ctx, input.UserID, input.Question, result.Reply)

	output := &Output{
		Reply:          result.Reply,
		Crop:           result.Crop,
		Intent:         string(result.Intent),
		Fallback:       result.Fallback,
		FallbackReason: result.Reason,
	}
	if input.Voice {
		output.SpeakableReply = advisor.SpeakableText(result.Reply)
	}
	return output, nil
}

// loadHistory reads the trailing conversation window. Read failure means
// empty history, never a job failure.
func (h *Handler) loadHistory(ctx context.Context, userID string) []advisor.Message {
	if userID == "" || h.redis == nil {
		return nil
	}

	raw, err := h.redis.LRange(ctx, models.ChatHistoryKey(userID), int64(-h.config.HistoryMax), -1)
	if err != nil {
		h.logger.Warn("chat history read failed, continuing without history", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil
	}

	history := make([]advisor.Message, 0, len(raw))
	for _, item := range raw {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		history = append(history, advisor.Message{Role: msg.Role, Content: msg.Content})
	}
	return history
}

// appendTurns logs both sides of the exchange. Write failure is logged
// and ignored.
func (h *Handler) appendTurns(ctx context.Context, userID, question, reply string) {
	if userID == "" || h.redis == nil {
		return
	}

	key := models.ChatHistoryKey(userID)
	now := time.Now().UTC()

	userMsg, _ := json.Marshal(models.ChatMessage{Role: "user", Content: question, Timestamp: now})
	assistantMsg, _ := json.Marshal(models.ChatMessage{Role: "assistant", Content: reply, Timestamp: now})

	if err := h.redis.RPush(ctx, key, string(userMsg), string(assistantMsg)); err != nil {
		h.logger.Warn("chat history write failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return
	}
	_ = h.redis.Expire(ctx, key, h.config.ChatTTL)
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
