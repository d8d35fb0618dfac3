package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshotAggregates(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/practice", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/practice", http.StatusOK, 40*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveSourceLoad("quiz", 12, 10*time.Millisecond, nil)
	m.ObserveSourceLoad("math", 0, 30*time.Millisecond, errors.New("status 404"))
	m.ObserveSourceLoad("math", 7, 20*time.Millisecond, nil)
	m.ObserveAnalysis(ChartQuiz, AnalysisOutcomeSuccess)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 30, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 1e-9)
	assert.Equal(t, uint64(3), snap.SourceLoads)
	assert.InDelta(t, 20, snap.AverageSourceLoadMs, 0.001)
	assert.Equal(t, uint64(1), snap.AnalysisRequests)

	require.Len(t, snap.Sources, 2)
	mathStatus := snap.Sources[0]
	assert.Equal(t, "math", mathStatus.Source)
	assert.Equal(t, uint64(2), mathStatus.Loads)
	assert.Equal(t, uint64(1), mathStatus.Failures)
	assert.Equal(t, 7, mathStatus.Rows)
	assert.Empty(t, mathStatus.LastErr)
	assert.NotNil(t, mathStatus.LastLoad)
	assert.Equal(t, "quiz", snap.Sources[1].Source)
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveSourceLoad("video", 3, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `source_rows{source="video"} 3`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveAnalysis(ChartMath, AnalysisOutcomeBusy)
	m.ObserveSourceLoad("quiz", 1, time.Millisecond, nil)
	assert.Empty(t, m.Snapshot().Sources)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
