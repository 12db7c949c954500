package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Operation("assign", nil)
	m.Operation("assign", errors.New("boom"))
	m.Placed("assign", 3)
	m.Placed("assign", 0)
	m.SyncJob("update", "done")

	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("assign", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("assign", "error")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.placed.WithLabelValues("assign")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "reread_sync_jobs_total")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.Operation("reset", nil)
		m.Placed("reset", 1)
		m.Removed("reset", 1)
		m.SyncJob("delete", "dead")
	})
}
