package telemetry

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())
	m.RecordRun(nil, 100*time.Millisecond)
	m.RecordRun(nil, 200*time.Millisecond)
	m.RecordRun(errors.New("boom"), time.Second)

	assert.InDelta(t, 2, testutil.ToFloat64(m.DashboardRuns.WithLabelValues(OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DashboardRuns.WithLabelValues(OutcomeError)), 0)
}

func TestRecordSourceCall(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())
	m.RecordSourceCall("adzuna", "primary", 20, nil, 50*time.Millisecond)
	m.RecordSourceCall("adzuna", "popular", 0, errors.New("timeout"), time.Second)

	assert.InDelta(t, 1, testutil.ToFloat64(m.SourceRequests.WithLabelValues("adzuna", "primary", OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SourceRequests.WithLabelValues("adzuna", "popular", OutcomeError)), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.ListingsFetched), "failed calls do not observe a listing count")
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())
	m.RecordHTTP("/api/dashboard", http.StatusOK, 10*time.Millisecond)
	m.SupersededCancels.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `jobdash_http_requests_total{route="/api/dashboard",status="200"} 1`)
	assert.Contains(t, string(body), "jobdash_superseded_runs_total 1")
}

func TestNewDefaultMetrics(t *testing.T) {
	t.Parallel()

	m := NewDefaultMetrics()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
