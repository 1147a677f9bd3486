package jobqueue

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchday/internal/platform/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedPublish struct {
	path    string
	headers http.Header
	body    string
}

func newPublishServer(t *testing.T, status int) (*httptest.Server, *capturedPublish) {
	t.Helper()

	captured := &capturedPublish{}
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured.path = r.URL.Path
		captured.headers = r.Header.Clone()
		captured.body = string(body)
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTestPublisher(baseURL string) *QStashPublisher {
	return NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          baseURL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://matchday.example.com",
		Retries:          2,
		InternalJobToken: "job-secret",
		Timeout:          2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestQStashPublisher_Enqueue(t *testing.T) {
	srv, captured := newPublishServer(t, http.StatusOK)
	publisher := newTestPublisher(srv.URL)

	err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/refresh-base", map[string]any{"force": false}, 10*time.Minute, "refresh-base:2025-W1-SatMon:42")
	require.NoError(t, err)

	assert.Equal(t, "/v2/publish/https://matchday.example.com/v1/internal/jobs/refresh-base", captured.path)
	assert.Equal(t, "Bearer qstash-token", captured.headers.Get("Authorization"))
	assert.Equal(t, "POST", captured.headers.Get("Upstash-Method"))
	assert.Equal(t, "2", captured.headers.Get("Upstash-Retries"))
	assert.Equal(t, "600s", captured.headers.Get("Upstash-Delay"))
	assert.Equal(t, "refresh-base:2025-W1-SatMon:42", captured.headers.Get("Upstash-Deduplication-Id"))
	assert.Equal(t, "job-secret", captured.headers.Get("Upstash-Forward-X-Internal-Job-Token"))
	assert.JSONEq(t, `{"force":false}`, captured.body)
}

func TestQStashPublisher_Enqueue_NilPayloadAndNoDelay(t *testing.T) {
	srv, captured := newPublishServer(t, http.StatusCreated)
	publisher := newTestPublisher(srv.URL)

	err := publisher.Enqueue(context.Background(), "v1/internal/jobs/refresh-live", nil, 0, "")
	require.NoError(t, err)

	assert.Equal(t, "/v2/publish/https://matchday.example.com/v1/internal/jobs/refresh-live", captured.path)
	assert.Empty(t, captured.headers.Get("Upstash-Delay"))
	assert.Empty(t, captured.headers.Get("Upstash-Deduplication-Id"))
	assert.JSONEq(t, `{}`, captured.body)
}

func TestQStashPublisher_Enqueue_EmptyPath(t *testing.T) {
	publisher := newTestPublisher("https://qstash.example.com")

	err := publisher.Enqueue(context.Background(), "  ", nil, 0, "")
	require.Error(t, err)
}

func TestQStashPublisher_Enqueue_RejectedStatus(t *testing.T) {
	srv, _ := newPublishServer(t, http.StatusUnprocessableEntity)
	publisher := newTestPublisher(srv.URL)

	err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/refresh-base", nil, 0, "")
	require.Error(t, err)
	assert.False(t, isQStashCircuitFailure(err), "a 4xx rejection must not trip the circuit")
}

func TestQStashPublisher_Enqueue_RetryableStatusTripsCircuit(t *testing.T) {
	srv, _ := newPublishServer(t, http.StatusServiceUnavailable)

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       srv.URL,
		Token:         "qstash-token",
		TargetBaseURL: "https://matchday.example.com",
		Timeout:       2 * time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for i := 0; i < 2; i++ {
		err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/refresh-base", nil, 0, "")
		require.Error(t, err)
		assert.True(t, isQStashCircuitFailure(err))
	}

	err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/refresh-base", nil, 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporarily unavailable")
}

func TestNormalizeDelay(t *testing.T) {
	assert.Equal(t, "0s", normalizeDelay(0))
	assert.Equal(t, "0s", normalizeDelay(-time.Second))
	assert.Equal(t, "90s", normalizeDelay(90*time.Second))
	assert.Equal(t, "600s", normalizeDelay(10*time.Minute))
}

func TestValidateHTTPBaseURL(t *testing.T) {
	got, err := validateHTTPBaseURL("https://qstash.upstash.io/")
	require.NoError(t, err)
	assert.Equal(t, "https://qstash.upstash.io", got)

	_, err = validateHTTPBaseURL("")
	require.Error(t, err)

	_, err = validateHTTPBaseURL("ftp://qstash.upstash.io")
	require.Error(t, err)
}
