// Package checkpricealerts sweeps user price thresholds against the
// latest cached mandi prices and emits the alerts that crossed.
package checkpricealerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"agrimandi-workers/internal/common/database"
	cerrors "agrimandi-workers/internal/common/errors"
	"agrimandi-workers/internal/common/logger"
	"agrimandi-workers/internal/common/metrics"
	"agrimandi-workers/internal/common/validation"
	"agrimandi-workers/internal/models"
)

const (
	TaskType = "check-price-alerts"
)

var (
	ErrAlertCheckFailed      = errors.New("ALERT_CHECK_FAILED")
	ErrAlertValidationFailed = errors.New("ALERT_VALIDATION_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *database.RedisClient
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redis *database.RedisClient, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
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
		errorCode := "ALERT_CHECK_FAILED"
		if errors.Is(err, ErrAlertValidationFailed) {
			errorCode = "ALERT_VALIDATION_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	thresholds, err := h.loadThresholds(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlertCheckFailed, err)
	}

	output := &Output{Triggered: []models.TriggeredAlert{}}
	now := time.Now().UTC()

	for _, th := range thresholds {
		if !h.validThreshold(th) {
			output.Skipped++
			continue
		}

		price, ok := h.latestPrice(ctx, th.Crop)
		if !ok {
			output.Skipped++
			continue
		}
		output.Checked++

		crossed := (th.Direction == models.AlertAbove && price >= th.Threshold) ||
			(th.Direction == models.AlertBelow && price <= th.Threshold)
		if !crossed {
			continue
		}

		metrics.AlertsTriggered.WithLabelValues(th.Crop, string(th.Direction)).Inc()
		output.Triggered = append(output.Triggered, models.TriggeredAlert{
			AlertID:     th.ID,
			UserID:      th.UserID,
			Crop:        th.Crop,
			Threshold:   th.Threshold,
			Direction:   th.Direction,
			Price:       price,
			TriggeredAt: now,
		})
	}

	return output, nil
}

func (h *Handler) loadThresholds(ctx context.Context, userID string) ([]models.AlertThreshold, error) {
	query := `SELECT id, user_id, crop, threshold, direction, active, created_at
		FROM alert_thresholds WHERE active = true`
	args := []interface{}{}
	if userID != "" {
		query += ` AND user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at`

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AlertThreshold
	for rows.Next() {
		var th models.AlertThreshold
		if err := rows.Scan(&th.ID, &th.UserID, &th.Crop, &th.Threshold, &th.Direction, &th.Active, &th.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, th)
	}
	return out, rows.Err()
}

// validThreshold schema-checks a row; a bad row is logged and skipped so
// one corrupt threshold cannot stall the whole sweep.
func (h *Handler) validThreshold(th models.AlertThreshold) bool {
	doc := map[string]interface{}{
		"userId":    th.UserID,
		"crop":      th.Crop,
		"threshold": th.Threshold,
		"direction": string(th.Direction),
	}

	result, err := validation.ValidateAgainstSchema(doc, thresholdSchema)
	if err != nil || !result.Valid {
		fields := map[string]interface{}{"alertId": th.ID}
		if err != nil {
			fields["error"] = err.Error()
		} else {
			fields["errors"] = result.GetErrorMessages()
		}
		h.logger.Warn("skipping invalid alert threshold", fields)
		return false
	}
	return true
}

// latestPrice reads the crop's cached latest price. A miss or a redis
// outage skips the threshold rather than failing the sweep.
func (h *Handler) latestPrice(ctx context.Context, crop string) (float64, bool) {
	if h.redis == nil {
		return 0, false
	}

	raw, err := h.redis.Get(ctx, models.LatestPriceKey(crop))
	if err != nil {
		h.logger.Warn("latest price unavailable", map[string]interface{}{
			"crop":  crop,
			"error": err.Error(),
		})
		return 0, false
	}

	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return price, true
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
