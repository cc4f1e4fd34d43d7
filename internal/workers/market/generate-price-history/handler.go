// Package generatepricehistory produces the simulated daily mandi price
// series for a crop: a seeded random walk around the crop's base price,
// scaled by its volatility. The series is bulk-indexed into
// elasticsearch for chart queries and cached in redis for the alert
// sweep.
package generatepricehistory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
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
	TaskType = "generate-price-history"
)

var (
	ErrPriceGenerationFailed = errors.New("PRICE_GENERATION_FAILED")
)

type Handler struct {
	config  *Config
	catalog *advisor.Catalog
	es      *database.ElasticsearchClient
	redis   *database.RedisClient
	logger  logger.Logger
}

func NewHandler(config *Config, catalog *advisor.Catalog, es *database.ElasticsearchClient, redis *database.RedisClient, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		catalog: catalog,
		es:      es,
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
		h.failJob(client, job, "PRICE_GENERATION_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Crop == "" {
		return nil, fmt.Errorf("%w: crop is required", ErrPriceGenerationFailed)
	}

	days := input.Days
	if days <= 0 {
		days = h.config.HistoryDays
	}
	seed := input.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	meta := h.catalog.Meta(input.Crop)
	points := GenerateSeries(input.Crop, meta, days, seed, time.Now().UTC())
	latest := points[len(points)-1].Price

	output := &Output{
		Crop:        input.Crop,
		Points:      points,
		LatestPrice: latest,
	}

	if h.es != nil {
		if err := h.indexSeries(ctx, points); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPriceGenerationFailed, err)
		}
		output.Indexed = true
	}

	// Redis is a cache here; elasticsearch stays the source of truth, so
	// a write failure is logged and the job still completes.
	output.Cached = h.cacheSeries(ctx, input.Crop, points, latest)

	return output, nil
}

// GenerateSeries builds the seeded random walk. Identical inputs always
// produce the identical series.
func GenerateSeries(crop string, meta advisor.CropMeta, days int, seed int64, end time.Time) []models.PricePoint {
	rng := rand.New(rand.NewSource(seed))
	end = end.Truncate(24 * time.Hour)

	points := make([]models.PricePoint, 0, days)
	price := meta.BasePrice

	for i := days - 1; i >= 0; i-- {
		// Bounded daily move plus a gentle pull back toward base so the
		// walk cannot drift off to silly values.
		move := (rng.Float64()*2 - 1) * meta.Volatility * 0.3
		reversion := (meta.BasePrice - price) / meta.BasePrice * 0.1
		price = price * (1 + move + reversion)

		if min := meta.BasePrice * 0.5; price < min {
			price = min
		}
		if max := meta.BasePrice * 2; price > max {
			price = max
		}

		points = append(points, models.PricePoint{
			Crop:      crop,
			Date:      end.AddDate(0, 0, -i),
			Price:     float64(int(price*100)) / 100,
			Simulated: true,
		})
	}

	return points
}

func (h *Handler) indexSeries(ctx context.Context, points []models.PricePoint) error {
	var b strings.Builder
	for _, p := range points {
		action := fmt.Sprintf(`{"index":{"_id":"%s-%s"}}`, strings.ToLower(p.Crop), p.Date.Format("2006-01-02"))
		doc, err := json.Marshal(p)
		if err != nil {
			return err
		}
		b.WriteString(action)
		b.WriteByte('\n')
		b.Write(doc)
		b.WriteByte('\n')
	}

	return h.es.Bulk(ctx, h.config.PriceIndex, b.String())
}

func (h *Handler) cacheSeries(ctx context.Context, crop string, points []models.PricePoint, latest float64) bool {
	if h.redis == nil {
		return false
	}

	data, err := json.Marshal(points)
	if err != nil {
		return false
	}

	if err := h.redis.Set(ctx, models.PriceSeriesKey(crop), string(data), h.config.CacheTTL); err != nil {
		h.logger.Warn("price series cache write failed", map[string]interface{}{
			"crop":  crop,
			"error": err.Error(),
		})
		return false
	}
	if err := h.redis.Set(ctx, models.LatestPriceKey(crop), fmt.Sprintf("%.2f", latest), h.config.CacheTTL); err != nil {
		h.logger.Warn("latest price cache write failed", map[string]interface{}{
			"crop":  crop,
			"error": err.Error(),
		})
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
