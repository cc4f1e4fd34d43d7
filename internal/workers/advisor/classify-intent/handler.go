// Package classifyintent exposes the local intent classifier as a
// standalone task so BPMN flows can route on the intent (analytics,
// alert shortcuts) without a remote model call.
package classifyintent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"agrimandi-workers/internal/advisor"
	cerrors "agrimandi-workers/internal/common/errors"
	"agrimandi-workers/internal/common/logger"
	"agrimandi-workers/internal/common/metrics"
)

const (
	TaskType = "classify-intent"
)

type Handler struct {
	config  *Config
	catalog *advisor.Catalog
	logger  logger.Logger
}

func NewHandler(config *Config, catalog *advisor.Catalog, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		catalog: catalog,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		h.failJob(client, job, "CLASSIFICATION_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	normalized := advisor.Normalize(input.Question)
	intent := advisor.Classify(normalized)
	cropCtx := h.catalog.ResolveCropContext(input.Question, input.SelectedCrop)

	scores := make(map[string]int)
	for i, s := range advisor.Scores(normalized) {
		scores[string(i)] = s
	}

	metrics.AdviceIntents.WithLabelValues(string(intent)).Inc()

	return &Output{
		Intent:     string(intent),
		Scores:     scores,
		Crop:       cropCtx.Crop,
		Matches:    cropCtx.Matches,
		Normalized: normalized,
	}, nil
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
