// Package upsertprofile creates or updates a farmer profile in postgres
// and refreshes the redis cache entry.
package upsertprofile

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
	"agrimandi-workers/internal/common/validation"
	"agrimandi-workers/internal/models"
)

const (
	TaskType = "upsert-profile"
)

var (
	ErrProfileSaveFailed       = errors.New("PROFILE_SAVE_FAILED")
	ErrProfileValidationFailed = errors.New("PROFILE_VALIDATION_FAILED")
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
		errorCode := "PROFILE_SAVE_FAILED"
		if errors.Is(err, ErrProfileValidationFailed) {
			errorCode = "PROFILE_VALIDATION_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validate(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	profile := models.FarmerProfile{
		Username:      strings.ToLower(strings.TrimSpace(input.Username)),
		DisplayName:   input.DisplayName,
		Village:       input.Village,
		District:      input.District,
		Phone:         input.Phone,
		Email:         input.Email,
		PreferredCrop: input.PreferredCrop,
		UpdatedAt:     now,
	}
	if input.Password != "" {
		profile.EncodedPassword = models.EncodePassword(input.Password)
	}

	created, err := h.upsert(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileSaveFailed, err)
	}

	output := &Output{Username: profile.Username, Created: created}
	output.Cached = h.cacheProfile(ctx, profile)
	return output, nil
}

func (h *Handler) validate(input *Input) error {
	doc := map[string]interface{}{
		"username":    input.Username,
		"displayName": input.DisplayName,
	}
	result, err := validation.ValidateAgainstSchema(doc, profileSchema)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProfileValidationFailed, err)
	}
	if !result.Valid {
		return fmt.Errorf("%w: %s", ErrProfileValidationFailed, strings.Join(result.GetErrorMessages(), "; "))
	}

	if input.Email != "" && !validation.ValidateEmail(input.Email) {
		return fmt.Errorf("%w: invalid email format", ErrProfileValidationFailed)
	}
	if input.Phone != "" && !validation.ValidatePhone(input.Phone) {
		return fmt.Errorf("%w: invalid phone format", ErrProfileValidationFailed)
	}
	return nil
}

// upsert writes the profile and reports whether a new row was created.
// COALESCE/NULLIF keeps existing values when an update omits a field.
func (h *Handler) upsert(ctx context.Context, p models.FarmerProfile) (bool, error) {
	query := `INSERT INTO farmer_profiles
			(username, encoded_password, display_name, village, district, phone, email, preferred_crop, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (username) DO UPDATE SET
			encoded_password = COALESCE(NULLIF(EXCLUDED.encoded_password, ''), farmer_profiles.encoded_password),
			display_name     = EXCLUDED.display_name,
			village          = COALESCE(NULLIF(EXCLUDED.village, ''), farmer_profiles.village),
			district         = COALESCE(NULLIF(EXCLUDED.district, ''), farmer_profiles.district),
			phone            = COALESCE(NULLIF(EXCLUDED.phone, ''), farmer_profiles.phone),
			email            = COALESCE(NULLIF(EXCLUDED.email, ''), farmer_profiles.email),
			preferred_crop   = COALESCE(NULLIF(EXCLUDED.preferred_crop, ''), farmer_profiles.preferred_crop),
			updated_at       = EXCLUDED.updated_at
		RETURNING (xmax = 0)`

	var created bool
	err := h.db.QueryRowContext(ctx, query,
		p.Username, p.EncodedPassword, p.DisplayName, p.Village, p.District,
		p.Phone, p.Email, p.PreferredCrop, p.UpdatedAt,
	).Scan(&created)
	return created, err
}

// cacheProfile is best-effort; a redis outage never fails the save.
func (h *Handler) cacheProfile(ctx context.Context, p models.FarmerProfile) bool {
	if h.redis == nil {
		return false
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return false
	}
	if err := h.redis.Set(ctx, models.ProfileCacheKey(p.Username), string(raw), h.config.CacheTTL); err != nil {
		h.logger.Warn("profile cache write failed", map[string]interface{}{
			"username": p.Username,
			"error":    err.Error(),
		})
		return false
	}
	return true
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
