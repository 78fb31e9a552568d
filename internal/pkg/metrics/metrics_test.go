package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New("campusblog", reg, reg)
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestMetrics(t)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/posts/1", "/posts/2", "/missing"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/posts/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestTrackSummary(t *testing.T) {
	m := newTestMetrics(t)

	done := m.TrackSummary()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummaryJobsRunning))
	done(OutcomeStored)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.SummaryJobsRunning))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummaryJobsTotal.WithLabelValues(OutcomeStored)))

	m.RecordSummaryOutcome(OutcomeRejected)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummaryJobsTotal.WithLabelValues(OutcomeRejected)))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.TrackSummary()(OutcomeFailed)
	m.RecordSummaryOutcome(OutcomeDiscard)
	m.RecordContentOperation("post", "create")
}

func TestHandlerServesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestMetrics(t)
	m.RecordContentOperation("post", "create")

	r := gin.New()
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `campusblog_content_operations_total{operation="create",resource="post"} 1`)
}
