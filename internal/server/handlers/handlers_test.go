package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fishfarm/internal/calc"
	"github.com/mamadbah2/fishfarm/internal/domain/models"
	"github.com/mamadbah2/fishfarm/internal/service/entries"
	"github.com/mamadbah2/fishfarm/internal/service/reporting"
	"github.com/mamadbah2/fishfarm/pkg/clients/farmapi"
)

type stubBackend struct {
	harvest   *models.HarvestRequest
	mortality *models.MortalityRequest
	deleted   int
	failWith  error
}

func (b *stubBackend) ListPonds(context.Context) ([]models.Pond, error) {
	return []models.Pond{{ID: 1, Name: "North", IsActive: true}}, b.failWith
}

func (b *stubBackend) ListSpecies(context.Context) ([]models.Species, error) {
	return []models.Species{{ID: 1, Name: "Tilapia"}}, b.failWith
}

func (b *stubBackend) CreateStocking(_ context.Context, req models.StockingRequest) (*models.Stocking, error) {
	return &models.Stocking{StockingID: 7, Pond: req.Pond}, b.failWith
}

func (b *stubBackend) UpdateStocking(_ context.Context, id int, req models.StockingRequest) (*models.Stocking, error) {
	return &models.Stocking{StockingID: id, Pond: req.Pond}, b.failWith
}

func (b *stubBackend) DeleteStocking(_ context.Context, id int) error {
	b.deleted = id
	return b.failWith
}

func (b *stubBackend) CreateFishSampling(context.Context, models.FishSamplingRequest) (*models.FishSampling, error) {
	return &models.FishSampling{ID: 2}, b.failWith
}

func (b *stubBackend) CreateHarvest(_ context.Context, req models.HarvestRequest) (*models.Harvest, error) {
	b.harvest = &req
	return &models.Harvest{ID: 3}, b.failWith
}

func (b *stubBackend) CreateFeed(context.Context, models.FeedRequest) (*models.Feed, error) {
	return &models.Feed{ID: 4}, b.failWith
}

func (b *stubBackend) CreateMortality(_ context.Context, req models.MortalityRequest) (*models.Mortality, error) {
	b.mortality = &req
	return &models.Mortality{ID: 5, Pond: req.Pond, Count: req.Count}, b.failWith
}

func (b *stubBackend) ListFishSamplings(context.Context) ([]models.FishSampling, error) {
	return []models.FishSampling{{ID: 1, Pond: 1, Date: "2024-04-28", AverageWeightKg: calc.Of(0.2)}}, b.failWith
}

func (b *stubBackend) CalculateAssets(context.Context, int) (*models.AssetCalculationResult, error) {
	return &models.AssetCalculationResult{PondName: "North"}, b.failWith
}

func (b *stubBackend) Transfer(context.Context, models.TransferRequest) (*models.TransferResult, error) {
	return &models.TransferResult{Message: "Transfer recorded", EntryID: 12}, b.failWith
}

type stubReports struct {
	start, end time.Time
	limit      int
	err        error
}

func (s *stubReports) GeneratePondReport(_ context.Context, pondID int, start, end time.Time) (*models.PondReport, string, error) {
	s.start, s.end = start, end
	if s.err != nil {
		return nil, "", s.err
	}
	return &models.PondReport{PondID: pondID, PondName: "North", FCRRating: "Good"}, "Pond North", nil
}

func (s *stubReports) ListPondReports(_ context.Context, _ int, limit int) ([]models.PondReport, error) {
	s.limit = limit
	return nil, s.err
}

func newEntriesEngine(backend *stubBackend) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := entries.NewService(backend, nil, nil)
	h := NewEntriesHandler(svc, nil)

	r := gin.New()
	r.GET("/api/ponds", h.ListPonds)
	r.POST("/api/preview/stocking", h.PreviewStocking)
	r.POST("/api/preview/feeding", h.PreviewFeeding)
	r.POST("/api/preview/mortality", h.PreviewMortality)
	r.POST("/api/preview/invoice-line", h.PreviewInvoiceLine)
	r.POST("/api/mortality", h.CreateMortality)
	r.POST("/api/stocking", h.CreateStocking)
	r.DELETE("/api/stocking/:id", h.DeleteStocking)
	r.POST("/api/harvests", h.CreateHarvest)
	r.POST("/api/accounts/transfer", h.Transfer)
	r.POST("/api/asset-calculator/calculate", h.CalculateAssets)
	return r
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPreviewStocking(t *testing.T) {
	r := newEntriesEngine(&stubBackend{})

	rec := perform(r, http.MethodPost, "/api/preview/stocking", `{"pcs":"1000","total_weight_kg":"50"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.InDelta(t, 50.0, body["initial_avg_g"], 1e-9)
	assert.InDelta(t, 20.0, body["line_pcs_per_kg"], 1e-9)
}

func TestPreviewNotComputableIsNull(t *testing.T) {
	r := newEntriesEngine(&stubBackend{})

	rec := perform(r, http.MethodPost, "/api/preview/stocking", `{"pcs":"0","total_weight_kg":""}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Nil(t, body["initial_avg_g"])
	assert.Nil(t, body["line_pcs_per_kg"])
}

func TestPreviewFeedingFromPackets(t *testing.T) {
	r := newEntriesEngine(&stubBackend{})

	rec := perform(r, http.MethodPost, "/api/preview/feeding", `{"packets":2,"cost_per_packet":"1500"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.InDelta(t, 50.0, body["amount_kg"], 1e-9)
	assert.InDelta(t, 3000.0, body["total_cost"], 1e-9)
	assert.Nil(t, body["feeding_rate_percent"])
}

func TestCreateStockingValidation(t *testing.T) {
	r := newEntriesEngine(&stubBackend{})

	rec := perform(r, http.MethodPost, "/api/stocking", `{"pond":"","species":"1","pcs":"abc","total_weight_kg":"5"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "is required", fields["pond"])
	assert.Contains(t, fields, "pcs")
}

func TestCreateStocking(t *testing.T) {
	r := newEntriesEngine(&stubBackend{})

	rec := perform(r, http.MethodPost, "/api/stocking", `{"pond":"1","species":"1","date":"2024-05-01","pcs":"1000","total_weight_kg":"50"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 7, decodeBody(t, rec)["stocking_id"])
}

func TestCreateHarvestOmitsRevenueWithoutPrice(t *testing.T) {
	backend := &stubBackend{}
	r := newEntriesEngine(backend)

	rec := perform(r, http.MethodPost, "/api/harvests", `{"pond":1,"date":"2024-05-01","total_weight_kg":"120","total_count":"400","total_revenue":"999"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, backend.harvest)
	assert.Nil(t, backend.harvest.TotalRevenue)
	require.NotNil(t, backend.harvest.AvgWeightG)
	assert.Equal(t, "300", backend.harvest.AvgWeightG.String())
}

func TestDeleteStocking(t *testing.T) {
	backend := &stubBackend{}
	r := newEntriesEngine(backend)

	rec := perform(r, http.MethodDelete, "/api/stocking/9", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 9, backend.deleted)

	rec = perform(r, http.MethodDelete, "/api/stocking/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackendErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthorized", &farmapi.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid token."}, http.StatusUnauthorized},
		{"not found", &farmapi.APIError{StatusCode: http.StatusNotFound, Message: "Not found."}, http.StatusNotFound},
		{"field errors", &farmapi.APIError{StatusCode: http.StatusBadRequest, Message: "pond: invalid", Fields: map[string]string{"pond": "invalid"}}, http.StatusBadRequest},
		{"server error", &farmapi.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}, http.StatusBadGateway},
		{"transport", errors.New("dial tcp: connection refused"), http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newEntriesEngine(&stubBackend{failWith: tc.err})
			rec := perform(r, http.MethodGet, "/api/ponds", "")
			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestTransferAndAssets(t *testing.T) {
	r := newEntriesEngine(&stubBackend{})

	rec := perform(r, http.MethodPost, "/api/accounts/transfer", `{"from_account":"1","to_account":"1","amount":"50"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = perform(r, http.MethodPost, "/api/accounts/transfer", `{"from_account":"1","to_account":"2","amount":"50"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = perform(r, http.MethodPost, "/api/asset-calculator/calculate", `{"pond_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "North", decodeBody(t, rec)["pond_name"])

	rec = perform(r, http.MethodPost, "/api/asset-calculator/calculate", `{"pond_id":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func newReportsEngine(svc *stubReports, now time.Time) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewReportsHandler(svc, nil)
	h.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/api/ponds/:id/report", h.PondReport)
	r.GET("/api/ponds/:id/reports", h.ListSnapshots)
	return r
}

func TestPondReportWindow(t *testing.T) {
	svc := &stubReports{}
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	r := newReportsEngine(svc, now)

	rec := perform(r, http.MethodGet, "/api/ponds/1/report?start=2024-06-01&end=2024-06-15", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-06-01", svc.start.Format(dateLayout))
	assert.Equal(t, "2024-06-15", svc.end.Format(dateLayout))
	assert.Equal(t, "Pond North", decodeBody(t, rec)["text"])

	rec = perform(r, http.MethodGet, "/api/ponds/1/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-05-31", svc.start.Format(dateLayout))

	rec = perform(r, http.MethodGet, "/api/ponds/1/report?start=2024-07-01&end=2024-06-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = perform(r, http.MethodGet, "/api/ponds/1/report?start=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPondReportErrors(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	rec := perform(newReportsEngine(&stubReports{err: reporting.ErrPondNotFound}, now), http.MethodGet, "/api/ponds/5/report", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = perform(newReportsEngine(&stubReports{err: reporting.ErrSnapshotsDisabled}, now), http.MethodGet, "/api/ponds/5/reports", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListSnapshots(t *testing.T) {
	svc := &stubReports{}
	r := newReportsEngine(svc, time.Now())

	rec := perform(r, http.MethodGet, "/api/ponds/1/reports?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.limit)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = perform(r, http.MethodGet, "/api/ponds/1/reports?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewMortalityUsesLatestSampling(t *testing.T) {
	r := newEntriesEngine(&stubBackend{})

	rec := perform(r, http.MethodPost, "/api/preview/mortality", `{"pond":1,"count":"50"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "sampling", body["avg_weight_source"])
	assert.InDelta(t, 10.0, body["biomass_lost_kg"], 1e-9)

	rec = perform(r, http.MethodPost, "/api/preview/mortality", `{"pond":1,"count":"50","lot_total_weight_kg":"30","lot_fish_count":"100"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "lot", body["avg_weight_source"])
	assert.InDelta(t, 15.0, body["biomass_lost_kg"], 1e-9)
}

func TestCreateMortality(t *testing.T) {
	backend := &stubBackend{}
	r := newEntriesEngine(backend)

	rec := perform(r, http.MethodPost, "/api/mortality", `{"pond":"1","count":"50","cause":"disease"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, backend.mortality)
	assert.Equal(t, "10", backend.mortality.TotalWeightKg.String())

	rec = perform(r, http.MethodPost, "/api/mortality", `{"pond":"1","count":"-1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["fields"], "count")
}

func TestPreviewInvoiceLine(t *testing.T) {
	r := newEntriesEngine(&stubBackend{})

	rec := perform(r, http.MethodPost, "/api/preview/invoice-line", `{"fish_count":1200,"total_weight":"150","rate":"180"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.InDelta(t, 8.0, body["line_number"], 1e-9)
	assert.InDelta(t, 27000.0, body["amount"], 1e-9)

	rec = perform(r, http.MethodPost, "/api/preview/invoice-line", `{"fish_count":1200,"line_number":"0"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeBody(t, rec)["total_weight"])
}
