package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Debug(msg string, fields map[string]interface{}) { l.t.Logf("DEBUG: %s %v", msg, fields) }
func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }

func createTestConfig(baseURL string) *HTTPConfig {
	return &HTTPConfig{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Timeout:    2 * time.Second,
	}
}

// ==========================
// HTTP Client Tests
// ==========================

func TestHTTPClient_ExtractStructured_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/extract", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req extractRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, TaskMatch, req.Task)
		assert.Equal(t, "blue", req.Input)
		assert.Contains(t, string(req.Schema), "confidence")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"match":"Widget Blue","confidence":"high"}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(createTestConfig(server.URL), &TestLogger{t: t})
	result, err := client.ExtractStructured(context.Background(), MatchTask, "blue")

	require.NoError(t, err)
	assert.Equal(t, "Widget Blue", result["match"])
}

func TestHTTPClient_ExtractStructured_NullResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":null}`))
	}))
	defer server.Close()

	client := NewHTTPClient(createTestConfig(server.URL), &TestLogger{t: t})
	result, err := client.ExtractStructured(context.Background(), SingleProductTask, "hello")

	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestHTTPClient_ExtractStructured_SingleAttemptByDefault(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(createTestConfig(server.URL), &TestLogger{t: t})
	_, err := client.ExtractStructured(context.Background(), DateTask, "after 2024-01-01")

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHTTPClient_ExtractStructured_OptInRetryRecovers(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"result":{"text":"ok"}}`))
	}))
	defer server.Close()

	config := createTestConfig(server.URL)
	config.MaxRetries = 1
	client := NewHTTPClient(config, &TestLogger{t: t})
	result, err := client.ExtractStructured(context.Background(), PhraseTask, "facts")

	require.NoError(t, err)
	assert.Equal(t, "ok", result["text"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestHTTPClient_ExtractStructured_NegativeRetriesIsUnavailable(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	config := createTestConfig(server.URL)
	config.MaxRetries = -1
	client := NewHTTPClient(config, &TestLogger{t: t})

	var err error
	require.NotPanics(t, func() {
		_, err = client.ExtractStructured(context.Background(), MatchTask, "blue")
	})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestHTTPClient_ExtractStructured_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := NewHTTPClient(createTestConfig(server.URL), &TestLogger{t: t})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ExtractStructured(ctx, DateTask, "after yesterday")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHTTPClient_ExtractStructured_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`print("not json")`))
	}))
	defer server.Close()

	client := NewHTTPClient(createTestConfig(server.URL), &TestLogger{t: t})
	_, err := client.ExtractStructured(context.Background(), DateTask, "x")
	assert.ErrorIs(t, err, ErrUnusable)
}

// ==========================
// Gemini Answer Decoding
// ==========================

func TestDecodeResult(t *testing.T) {
	out, err := decodeResult("```json\n{\"subject\": \"Widget\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Widget", out["subject"])

	out, err = decodeResult(" null ")
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = decodeResult("__import__('os')")
	assert.ErrorIs(t, err, ErrUnusable)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", "", time.Second, &TestLogger{t: t})
	assert.Error(t, err)
}
