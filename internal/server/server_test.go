package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "catalog-assistant/internal/common/errors"
	"catalog-assistant/internal/common/logger"
	"catalog-assistant/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeResponder struct {
	mu       sync.Mutex
	sessions []string
	queries  []string
	resets   []string
	err      error
}

func (f *fakeResponder) Handle(_ context.Context, sessionID, utterance string) (models.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, sessionID)
	f.queries = append(f.queries, utterance)
	if f.err != nil {
		return models.ChatResponse{}, f.err
	}
	return models.ChatResponse{
		SessionID: sessionID,
		Response:  "Hello! How can I help you today?",
		Intent:    "chitchat",
	}, nil
}

func (f *fakeResponder) Reset(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, sessionID)
	return f.err
}

func newTestServer(t *testing.T, responder Responder, checks map[string]HealthCheck) http.Handler {
	return New(responder, Options{RequestTimeout: time.Second, Checks: checks}, logger.NewTestLogger(t)).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChat_Success(t *testing.T) {
	responder := &fakeResponder{}
	h := newTestServer(t, responder, nil)

	rec := do(t, h, http.MethodPost, "/chat", `{"sessionId":"s-1","query":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Equal(t, "Hello! How can I help you today?", resp.Response)
	assert.False(t, resp.AwaitingClarification)
	assert.Equal(t, []string{"hello"}, responder.queries)
}

func TestChat_GeneratesSessionID(t *testing.T) {
	responder := &fakeResponder{}
	h := newTestServer(t, responder, nil)

	rec := do(t, h, http.MethodPost, "/chat", `{"query":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.SessionID)
	assert.NoError(t, err)
	assert.Equal(t, []string{resp.SessionID}, responder.sessions)
}

func TestChat_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `query=hi`},
		{"missing query", `{"sessionId":"s-1"}`},
		{"empty query", `{"query":""}`},
		{"wrong type", `{"query":["hi"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responder := &fakeResponder{}
			h := newTestServer(t, responder, nil)

			rec := do(t, h, http.MethodPost, "/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), string(apperrors.ErrCodeInvalidRequest))
			assert.Empty(t, responder.queries)
		})
	}
}

func TestChat_StoreFailure(t *testing.T) {
	responder := &fakeResponder{err: apperrors.NewSessionStoreError("s-1", errors.New("redis down"))}
	h := newTestServer(t, responder, nil)

	rec := do(t, h, http.MethodPost, "/chat", `{"sessionId":"s-1","query":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(apperrors.ErrCodeSessionStoreFailed), body["code"])
	assert.Equal(t, true, body["retryable"])
}

func TestResetSession(t *testing.T) {
	responder := &fakeResponder{}
	h := newTestServer(t, responder, nil)

	rec := do(t, h, http.MethodDelete, "/sessions/abc", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"abc"}, responder.resets)
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("all healthy", func(t *testing.T) {
		h := newTestServer(t, &fakeResponder{}, map[string]HealthCheck{"postgres": ok, "redis": ok})
		rec := do(t, h, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"healthy","checks":{"postgres":"healthy","redis":"healthy"}}`, rec.Body.String())
	})

	t.Run("one down", func(t *testing.T) {
		h := newTestServer(t, &fakeResponder{}, map[string]HealthCheck{"postgres": ok, "redis": down})
		rec := do(t, h, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"healthy","redis":"unhealthy"}}`, rec.Body.String())
	})
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeResponder{}, nil)
	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	srv := New(&fakeResponder{}, Options{RequestTimeout: time.Second}, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
