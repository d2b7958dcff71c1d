package jobqueue

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQStashPublisher_EnqueueSetsUpstashHeaders(t *testing.T) {
	var (
		gotPath    string
		gotHeaders http.Header
		gotBody    string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          server.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://waivers.example.com",
		Retries:          3,
		InternalJobToken: "job-token",
	}, logging.NewNop())

	err := publisher.Enqueue(t.Context(), "v1/internal/jobs/process-waivers", map[string]any{"league_id": "idn-liga-1-2025"}, 90*time.Second, "process-waivers-idn-liga-1-2025-20261021T030000Z")
	require.NoError(t, err)

	assert.Equal(t, "/v2/publish/https://waivers.example.com/v1/internal/jobs/process-waivers", gotPath)
	assert.Equal(t, "Bearer qstash-token", gotHeaders.Get("Authorization"))
	assert.Equal(t, "90s", gotHeaders.Get("Upstash-Delay"))
	assert.Equal(t, "3", gotHeaders.Get("Upstash-Retries"))
	assert.Equal(t, "process-waivers-idn-liga-1-2025-20261021T030000Z", gotHeaders.Get("Upstash-Deduplication-Id"))
	assert.Equal(t, "job-token", gotHeaders.Get("Upstash-Forward-X-Internal-Job-Token"))
	assert.JSONEq(t, `{"league_id":"idn-liga-1-2025"}`, gotBody)
}

func TestQStashPublisher_ImmediateJobHasNoDelayHeader(t *testing.T) {
	var delayHeader atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delayHeader.Store(r.Header.Get("Upstash-Delay"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{BaseURL: server.URL, TargetBaseURL: "https://waivers.example.com"}, logging.NewNop())
	require.NoError(t, publisher.Enqueue(t.Context(), "/jobs", nil, -time.Minute, ""))
	assert.Equal(t, "", delayHeader.Load())
}

func TestQStashPublisher_TransientFailuresOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:        server.URL,
		TargetBaseURL:  "https://waivers.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Minute, HalfOpenMaxReq: 1},
	}, logging.NewNop())

	for range 2 {
		err := publisher.Enqueue(t.Context(), "/jobs", nil, 0, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errQStashTransient))
	}

	err := publisher.Enqueue(t.Context(), "/jobs", nil, 0, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, int32(2), calls.Load())
}

func TestQStashPublisher_ClientErrorsDoNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad destination"))
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:        server.URL,
		TargetBaseURL:  "https://waivers.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute, HalfOpenMaxReq: 1},
	}, logging.NewNop())

	for range 3 {
		err := publisher.Enqueue(t.Context(), "/jobs", nil, 0, "")
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "status=400"))
	}
	assert.Equal(t, resilience.CircuitStateClosed, publisher.breaker.State())
}

func TestQStashPublisher_RejectsInvalidTarget(t *testing.T) {
	publisher := NewQStashPublisher(QStashPublisherConfig{BaseURL: "https://qstash.upstash.io", TargetBaseURL: "ftp://waivers"}, logging.NewNop())
	err := publisher.Enqueue(t.Context(), "/jobs", nil, 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QSTASH_TARGET_BASE_URL")
}

func TestNormalizeDelay(t *testing.T) {
	assert.Equal(t, "0s", normalizeDelay(0))
	assert.Equal(t, "0s", normalizeDelay(-time.Hour))
	assert.Equal(t, "2s", normalizeDelay(1600*time.Millisecond))
	assert.Equal(t, "2s", normalizeDelay(1200*time.Millisecond))
	assert.Equal(t, "1s", normalizeDelay(time.Millisecond))
	assert.Equal(t, "1s", normalizeDelay(time.Second))
	assert.Equal(t, "3600s", normalizeDelay(time.Hour))
}
