package querypricehistory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"agrimandi-workers/internal/common/config"
	"agrimandi-workers/internal/common/database"
	"agrimandi-workers/internal/common/logger"
)

func newTestES(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *database.ElasticsearchClient) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	client, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
	assert.NoError(t, err)
	return server, client
}

func searchResponse(prices ...float64) string {
	type hit struct {
		Source map[string]interface{} `json:"_source"`
	}
	hits := make([]hit, 0, len(prices))
	for i, p := range prices {
		hits = append(hits, hit{Source: map[string]interface{}{
			"crop":      "Wheat",
			"price":     p,
			"simulated": true,
			"date":      "2026-08-0" + string(rune('1'+i)) + "T00:00:00Z",
		}})
	}
	body, _ := json.Marshal(map[string]interface{}{
		"hits": map[string]interface{}{"hits": hits},
	})
	return string(body)
}

func TestHandler_Execute_ReturnsOrderedPoints(t *testing.T) {
	var gotQuery string
	server, es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotQuery = string(body)
		w.Write([]byte(searchResponse(2180.5, 2205, 2220)))
	})
	defer server.Close()

	handler := NewHandler(LoadConfig(), es, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Crop: "Wheat",
		From: "2026-08-01",
		To:   "2026-08-03",
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, output.Count)
	assert.Equal(t, 2180.5, output.Points[0].Price)
	assert.Equal(t, 2220.0, output.Points[2].Price)

	assert.Contains(t, gotQuery, `"Wheat"`)
	assert.Contains(t, gotQuery, `"gte": "2026-08-01"`)
	assert.Contains(t, gotQuery, `"lte": "2026-08-03"`)
}

func TestHandler_Execute_EmptyResult(t *testing.T) {
	server, es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits":{"hits":[]}}`))
	})
	defer server.Close()

	handler := NewHandler(LoadConfig(), es, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Crop: "Mustard"})

	assert.NoError(t, err)
	assert.Equal(t, 0, output.Count)
	assert.Empty(t, output.Points)
}

func TestHandler_Execute_IndexNotFound(t *testing.T) {
	server, es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	handler := NewHandler(LoadConfig(), es, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{Crop: "Wheat"})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceIndexNotFound)
}

func TestHandler_Execute_ServerError(t *testing.T) {
	server, es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	handler := NewHandler(LoadConfig(), es, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{Crop: "Wheat"})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceQueryFailed)
}

func TestHandler_Execute_MissingCrop(t *testing.T) {
	handler := NewHandler(LoadConfig(), nil, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{})

	assert.Error(t, err)
}
