package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	commonhttp "agrimandi-workers/internal/common/http"
)

var (
	ErrRemoteTimeout = errors.New("ADVICE_LLM_TIMEOUT")
	ErrRemoteFailed  = errors.New("ADVICE_LLM_FAILED")
)

// Message is one turn of the advice conversation.
type Message struct {
	Role    string `json:"role"` // user | assistant
	Content string `json:"content"`
}

// RemoteConfig holds settings for the hosted messages endpoint.
type RemoteConfig struct {
	APIURL     string
	APIKey     string
	APIVersion string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	MaxRetries int
}

// RemoteClient calls the hosted language-model messages API. Every
// failure mode maps to a sentinel so the facade can route to the local
// fallback.
type RemoteClient struct {
	config RemoteConfig
	client *commonhttp.Client
}

func NewRemoteClient(config RemoteConfig) *RemoteClient {
	// No client-level timeout; the per-call context bounds the request.
	return &RemoteClient{
		config: config,
		client: commonhttp.NewClient(0),
	}
}

// Complete sends the system prompt and conversation to the messages
// endpoint and returns the trimmed concatenation of its text blocks.
func (r *RemoteClient) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	requestBody := map[string]interface{}{
		"model":      r.config.Model,
		"max_tokens": r.config.MaxTokens,
		"system":     system,
		"messages":   messages,
	}
	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrRemoteTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", r.config.APIURL, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrRemoteFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", r.config.APIKey)
		req.Header.Set("anthropic-version", r.config.APIVersion)

		resp, lastErr = r.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return "", ErrRemoteTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrRemoteTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrRemoteFailed, lastErr)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: no successful response after retries", ErrRemoteFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrRemoteFailed, err)
	}

	var parts []string
	for _, block := range apiResponse.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}

	return strings.TrimSpace(strings.Join(parts, "")), nil
}
