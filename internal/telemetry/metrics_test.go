package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveHTTP("/api/ponds", http.MethodGet, 200, 10*time.Millisecond)
	m.ObserveHTTP("/api/ponds", http.MethodGet, 200, 20*time.Millisecond)
	m.ObserveBackendCall("list_ponds", 0)
	m.NotComputable("harvest", "total_revenue")
	m.ObserveWebhook("ignored")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/ponds", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendCalls.WithLabelValues("list_ponds", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notComputable.WithLabelValues("harvest", "total_revenue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhooks.WithLabelValues("ignored")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.NotComputable("sampling", "fish_per_kg")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fishfarm_derived_not_computable_total{field="fish_per_kg",form="sampling"} 1`)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("", "GET", 200, time.Second)
	m.ObserveBackendCall("x", 500)
	m.NotComputable("a", "b")
	m.ObserveWebhook("handled")
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}
