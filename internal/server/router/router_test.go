package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fishfarm/internal/domain/models"
	"github.com/mamadbah2/fishfarm/internal/server/handlers"
	"github.com/mamadbah2/fishfarm/internal/service/entries"
	"github.com/mamadbah2/fishfarm/internal/telemetry"
)

type pondsOnly struct {
	entries.Backend
}

func (pondsOnly) ListPonds(context.Context) ([]models.Pond, error) {
	return []models.Pond{{ID: 1, Name: "North"}}, nil
}

func newTestEngine(t *testing.T, metrics *telemetry.Metrics) http.Handler {
	t.Helper()
	svc := entries.NewService(pondsOnly{}, nil, nil)
	return New(Handlers{Entries: handlers.NewEntriesHandler(svc, nil)}, metrics, nil)
}

func TestHealthz(t *testing.T) {
	r := newTestEngine(t, telemetry.New())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	r := newTestEngine(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestMetricsRecordRoutes(t *testing.T) {
	metrics := telemetry.New()
	r := newTestEngine(t, metrics)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ponds", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `fishfarm_http_requests_total{method="GET",route="/api/ponds",status="200"} 1`))

	count, err := testutil.GatherAndCount(metrics.Registry(), "fishfarm_http_requests_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)
}

func TestOptionalRoutesAbsent(t *testing.T) {
	r := newTestEngine(t, nil)

	for _, path := range []string{"/webhook", "/api/ponds/1/report"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}
