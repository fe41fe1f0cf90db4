package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPreviewStocking(t *testing.T) {
	out, err := run(t, "preview", "stocking", "--pcs", "1000", "--weight", "2.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Initial avg weight (g): 2.500")
	assert.Contains(t, out, "Pieces per kg:          400.00")
}

func TestPreviewSamplingNotComputable(t *testing.T) {
	out, err := run(t, "preview", "sampling", "--sample-size", "0", "--weight", "2.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Avg weight (g):   N/A")
	assert.Contains(t, out, "Fish per kg:      N/A")
}

func TestPreviewHarvestWithoutPrice(t *testing.T) {
	out, err := run(t, "preview", "harvest", "--weight", "150.5", "--count", "500")
	require.NoError(t, err)
	assert.Contains(t, out, "Avg weight (g): 301.00")
	assert.Contains(t, out, "Total revenue:  N/A")

	out, err = run(t, "preview", "harvest", "--weight", "150.5", "--count", "500", "--price", "8.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Total revenue:  1279.25")
}

func TestPreviewFeedingAndFcr(t *testing.T) {
	out, err := run(t, "preview", "feeding", "--packets", "4", "--cost-per-packet", "1000", "--biomass", "2000")
	require.NoError(t, err)
	assert.Contains(t, out, "Amount (kg):      100.00")
	assert.Contains(t, out, "Total cost:       4000.00")
	assert.Contains(t, out, "Feeding rate (%): 5.00")

	out, err = run(t, "preview", "fcr", "--feed", "150", "--harvested", "100")
	require.NoError(t, err)
	assert.Equal(t, "FCR: 1.50 (Good)\n", out)

	out, err = run(t, "preview", "fcr", "--feed", "150", "--harvested", "0")
	require.NoError(t, err)
	assert.Equal(t, "FCR: N/A (N/A)\n", out)
}

func TestPreviewPond(t *testing.T) {
	out, err := run(t, "preview", "pond", "--fish", "2000", "--avg-g", "250")
	require.NoError(t, err)
	assert.Contains(t, out, "Biomass (kg): 500.00")
	assert.Contains(t, out, "Volume (m3):  N/A")
}

func backendEnv(t *testing.T, handler http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("FARM_API_BASE_URL", srv.URL)
	t.Setenv("FARM_AUTH_URL", srv.URL)
	t.Setenv("FARM_API_TOKEN", "test-token")
	t.Setenv("WHATSAPP_TOKEN", "")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "")
	t.Setenv("META_VERIFY_TOKEN", "")
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestReportCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ponds/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":1,"name":"North","is_active":true}]`))
	})
	mux.HandleFunc("/feeds/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"pond":1,"date":"2024-05-10","amount_kg":"150.00"}]`))
	})
	mux.HandleFunc("/harvests/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"pond":1,"date":"2024-05-20","total_weight_kg":"100.00","total_count":400}]`))
	})
	mux.HandleFunc("/fish-sampling/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	envFile := backendEnv(t, mux)

	out, err := run(t, "--env-file", envFile, "report", "--pond", "1", "--start", "2024-05-01", "--end", "2024-05-31")
	require.NoError(t, err)
	assert.Contains(t, out, "North (pond 1)")
	assert.Contains(t, out, "FCR: 1.50 (Good)")
}

func TestReportCommandValidation(t *testing.T) {
	_, err := run(t, "report")
	assert.ErrorContains(t, err, "--pond is required")

	_, err = run(t, "report", "--pond", "1", "--start", "2024-06-01", "--end", "2024-05-01")
	assert.ErrorContains(t, err, "--start must not be after --end")
}

func TestStocksCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/customer-stocks/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"customer_stock_id":3,"fish_count":1200,"current_stock":"80.5","unit_cost":"2.25","unit":"kg"}],"next":null}`))
	})
	envFile := backendEnv(t, mux)

	out, err := run(t, "--env-file", envFile, "stocks")
	require.NoError(t, err)
	assert.Contains(t, out, "CURRENT STOCK")
	assert.Contains(t, out, "80.50 kg")
}

func TestPreviewMortality(t *testing.T) {
	out, err := run(t, "preview", "mortality", "--count", "40", "--lot-weight", "300", "--lot-count", "1200")
	require.NoError(t, err)
	assert.Contains(t, out, "Avg weight (kg):   0.250 (lot)")
	assert.Contains(t, out, "Biomass lost (kg): 10.000")

	out, err = run(t, "preview", "mortality", "--count", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "Avg weight (kg):   N/A (N/A)")
	assert.Contains(t, out, "Biomass lost (kg): N/A")
}

func TestPreviewInvoiceLine(t *testing.T) {
	out, err := run(t, "preview", "invoice-line", "--count", "1200", "--line", "8", "--rate", "180")
	require.NoError(t, err)
	assert.Contains(t, out, "Weight (kg):  150.000")
	assert.Contains(t, out, "Amount:       27000.00")

	out, err = run(t, "preview", "invoice-line", "--count", "1200", "--weight", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Line number:  N/A")
}
