// Package getprofile reads a farmer profile, preferring the redis cache
// and falling back to postgres.
package getprofile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
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
	TaskType = "get-profile"
)

var (
	ErrProfileNotFound    = errors.New("PROFILE_NOT_FOUND")
	ErrProfileQueryFailed = errors.New("PROFILE_QUERY_FAILED")
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
		errorCode := "PROFILE_QUERY_FAILED"
		if errors.Is(err, ErrProfileNotFound) {
			errorCode = "PROFILE_NOT_FOUND"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrProfileNotFound)
	}

	if profile, ok := h.fromCache(ctx, username); ok {
		return &Output{Profile: *profile, FromCache: true}, nil
	}

	profile, err := h.fromDatabase(ctx, username)
	if err != nil {
		return nil, err
	}

	h.refreshCache(ctx, profile)
	return &Output{Profile: *profile}, nil
}

// fromCache is best-effort; a miss or outage falls through to postgres.
func (h *Handler) fromCache(ctx context.Context, username string) (*models.FarmerProfile, bool) {
	if h.redis == nil {
		return nil, false
	}

	raw, err := h.redis.Get(ctx, models.ProfileCacheKey(username))
	if err != nil {
		return nil, false
	}

	var profile models.FarmerProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

func (h *Handler) fromDatabase(ctx context.Context, username string) (*models.FarmerProfile, error) {
	query := `SELECT username, encoded_password, display_name, village, district, phone, email, preferred_crop, created_at, updated_at
		FROM farmer_profiles WHERE username = $1`

	var p models.FarmerProfile
	err := h.db.QueryRowContext(ctx, query, username).Scan(
		&p.Username, &p.EncodedPassword, &p.DisplayName, &p.Village, &p.District,
		&p.Phone, &p.Email, &p.PreferredCrop, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileQueryFailed, err)
	}
	return &p, nil
}

func (h *Handler) refreshCache(ctx context.Context, p *models.FarmerProfile) {
	if h.redis == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, models.ProfileCacheKey(p.Username), string(raw), h.config.CacheTTL); err != nil {
		h.logger.Warn("profile cache write failed", map[string]interface{}{
			"username": p.Username,
			"error":    err.Error(),
		})
	}
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
