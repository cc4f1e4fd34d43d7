// Package forecastprices extends a crop's simulated price series a few
// days forward: linear trend from the cached series plus bounded seeded
// noise, with confidence decaying per day. This is a simulation for the
// dashboard panel, not a statistical forecast.
package forecastprices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
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
	TaskType = "forecast-prices"
)

var (
	ErrForecastFailed = errors.New("FORECAST_FAILED")
)

type Handler struct {
	config  *Config
	catalog *advisor.Catalog
	redis   *database.RedisClient
	logger  logger.Logger
}

func NewHandler(config *Config, catalog *advisor.Catalog, redis *database.RedisClient, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		catalog: catalog,
		redis:   redis,
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
		h.failJob(client, job, "FORECAST_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Crop == "" {
		return nil, fmt.Errorf("%w: crop is required", ErrForecastFailed)
	}

	days := input.Days
	if days <= 0 {
		days = h.config.ForecastDays
	}
	seed := input.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	meta := h.catalog.Meta(input.Crop)

	// Cached series read is best-effort: without it the forecast starts
	// flat from the base price.
	series, fromCache := h.loadSeries(ctx, input.Crop)

	start, trend := trendFromSeries(series, meta)
	forecast := Forecast(input.Crop, meta, start, trend, days, seed, time.Now().UTC())

	return &Output{
		Crop:      input.Crop,
		Forecast:  forecast,
		FromCache: fromCache,
	}, nil
}

func (h *Handler) loadSeries(ctx context.Context, crop string) ([]models.PricePoint, bool) {
	if h.redis == nil {
		return nil, false
	}

	raw, err := h.redis.Get(ctx, models.PriceSeriesKey(crop))
	if err != nil {
		h.logger.Warn("price series cache read failed, forecasting from base price", map[string]interface{}{
			"crop":  crop,
			"error": err.Error(),
		})
		return nil, false
	}

	var series []models.PricePoint
	if err := json.Unmarshal([]byte(raw), &series); err != nil || len(series) == 0 {
		return nil, false
	}
	return series, true
}

// trendFromSeries derives the starting price and average daily change.
func trendFromSeries(series []models.PricePoint, meta advisor.CropMeta) (start, trend float64) {
	if len(series) < 2 {
		return meta.BasePrice, 0
	}

	first := series[0].Price
	last := series[len(series)-1].Price
	return last, (last - first) / float64(len(series)-1)
}

// Forecast extends the trend with bounded seeded noise. Confidence
// starts at 0.9 and decays each day out.
func Forecast(crop string, meta advisor.CropMeta, start, trend float64, days int, seed int64, from time.Time) []models.ForecastPoint {
	rng := rand.New(rand.NewSource(seed))
	from = from.Truncate(24 * time.Hour)

	out := make([]models.ForecastPoint, 0, days)
	price := start

	for i := 1; i <= days; i++ {
		noise := (rng.Float64()*2 - 1) * meta.Volatility * 0.2 * price
		price = price + trend + noise

		if min := meta.BasePrice * 0.5; price < min {
			price = min
		}
		if max := meta.BasePrice * 2; price > max {
			price = max
		}

		confidence := 0.9 - 0.1*float64(i-1)
		if confidence < 0.3 {
			confidence = 0.3
		}

		out = append(out, models.ForecastPoint{
			Crop:       crop,
			Date:       from.AddDate(0, 0, i),
			Price:      float64(int(price*100)) / 100,
			Confidence: float64(int(confidence*100)) / 100,
		})
	}

	return out
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
