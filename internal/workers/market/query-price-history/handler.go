// Package querypricehistory serves the chart panel: a date-range query
// over the mandi price index.
package querypricehistory

import (
	"context"
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
	TaskType = "query-price-history"
)

var (
	ErrPriceQueryFailed   = errors.New("PRICE_QUERY_FAILED")
	ErrPriceQueryTimeout  = errors.New("PRICE_QUERY_TIMEOUT")
	ErrPriceIndexNotFound = errors.New("PRICE_INDEX_NOT_FOUND")
)

type Handler struct {
	config *Config
	es     *database.ElasticsearchClient
	logger logger.Logger
}

func NewHandler(config *Config, es *database.ElasticsearchClient, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		es:     es,
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
		errorCode := "PRICE_QUERY_FAILED"
		if errors.Is(err, ErrPriceQueryTimeout) {
			errorCode = "PRICE_QUERY_TIMEOUT"
		} else if errors.Is(err, ErrPriceIndexNotFound) {
			errorCode = "PRICE_INDEX_NOT_FOUND"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Crop == "" {
		return nil, fmt.Errorf("%w: crop is required", ErrPriceQueryFailed)
	}

	from := input.From
	if from == "" {
		from = time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02")
	}
	to := input.To
	if to == "" {
		to = time.Now().UTC().Format("2006-01-02")
	}

	query := fmt.Sprintf(`{
		"size": %d,
		"sort": [{"date": {"order": "asc"}}],
		"query": {
			"bool": {
				"filter": [
					{"term": {"crop.keyword": %q}},
					{"range": {"date": {"gte": %q, "lte": %q}}}
				]
			}
		}
	}`, h.config.MaxPoints, input.Crop, from, to)

	body, err := h.es.Search(ctx, h.config.PriceIndex, query)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrPriceQueryTimeout
		}
		if strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %s", ErrPriceIndexNotFound, h.config.PriceIndex)
		}
		return nil, fmt.Errorf("%w: %v", ErrPriceQueryFailed, err)
	}

	var searchResponse struct {
		Hits struct {
			Hits []struct {
				Source models.PricePoint `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(body, &searchResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrPriceQueryFailed, err)
	}

	points := make([]models.PricePoint, 0, len(searchResponse.Hits.Hits))
	for _, hit := range searchResponse.Hits.Hits {
		points = append(points, hit.Source)
	}

	return &Output{
		Crop:   input.Crop,
		Points: points,
		Count:  len(points),
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
