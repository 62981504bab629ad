package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type HTTPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a failed call.
	// Zero means a single attempt.
	MaxRetries int
}

// HTTPClient calls the GenAI service's structured extraction endpoint.
type HTTPClient struct {
	config *HTTPConfig
	client *http.Client
	logger Logger
}

func NewHTTPClient(config *HTTPConfig, log Logger) *HTTPClient {
	return &HTTPClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: log,
	}
}

type extractRequest struct {
	Task         string          `json:"task"`
	Instructions string          `json:"instructions"`
	Schema       json.RawMessage `json:"schema"`
	Input        string          `json:"input"`
}

type extractResponse struct {
	Result map[string]interface{} `json:"result"`
}

func (c *HTTPClient) ExtractStructured(ctx context.Context, task Task, input string) (map[string]interface{}, error) {
	body, err := json.Marshal(extractRequest{
		Task:         task.Name,
		Instructions: task.Instructions,
		Schema:       json.RawMessage(task.SchemaJSON),
		Input:        input,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/ai/extract", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		resp, lastErr = c.client.Do(req)
		if ctx.Err() != nil || errors.Is(lastErr, context.DeadlineExceeded) || errors.Is(lastErr, context.Canceled) {
			if resp != nil {
				resp.Body.Close()
			}
			return nil, ErrTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no attempt made (max retries %d)", ErrUnavailable, c.config.MaxRetries)
	}
	defer resp.Body.Close()

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrUnusable, err)
	}

	c.logger.Debug("oracle extraction completed", map[string]interface{}{
		"task":      task.Name,
		"hasResult": out.Result != nil,
	})
	return out.Result, nil
}
