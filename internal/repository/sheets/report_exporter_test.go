package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fishfarm/internal/calc"
	"github.com/mamadbah2/fishfarm/internal/domain/models"
)

type memorySheet struct {
	tabs    []string
	rows    [][]interface{}
	readErr error
}

func (m *memorySheet) EnsureTab(_ context.Context, title string) error {
	for _, t := range m.tabs {
		if t == title {
			return nil
		}
	}
	m.tabs = append(m.tabs, title)
	return nil
}

func (m *memorySheet) AppendRows(_ context.Context, _ string, rows [][]interface{}) error {
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *memorySheet) ReadRange(context.Context, string) ([][]interface{}, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	if len(m.rows) == 0 {
		return nil, nil
	}
	return m.rows[:1], nil
}

func sampleReport() models.PondReport {
	r := models.PondReport{
		PondID:      2,
		PondName:    "East",
		PeriodStart: time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
		FeedKg:      150,
		HarvestedKg: 100,
	}
	r.SetFCR(calc.Of(1.5))
	return r
}

func TestReportRow(t *testing.T) {
	row := ReportRow(sampleReport())

	require.Len(t, row, len(reportHeader))
	assert.Equal(t, "2024-04-29", row[0])
	assert.Equal(t, "150.00", row[4])
	assert.Equal(t, "1.50", row[9])
	assert.Equal(t, calc.RatingGood, row[10])
	assert.Equal(t, calc.NotApplicable, row[11])
}

func TestExportWritesHeaderOnce(t *testing.T) {
	sheet := &memorySheet{}
	exporter := NewReportExporter(sheet)

	require.NoError(t, exporter.ExportPondReports(context.Background(), []models.PondReport{sampleReport()}))
	require.NoError(t, exporter.ExportPondReports(context.Background(), []models.PondReport{sampleReport()}))

	require.Len(t, sheet.rows, 3)
	assert.Equal(t, reportHeader, sheet.rows[0])
	assert.Equal(t, []string{reportTab}, sheet.tabs)
}

func TestExportReadFailure(t *testing.T) {
	exporter := NewReportExporter(&memorySheet{readErr: errors.New("quota")})
	err := exporter.ExportPondReports(context.Background(), []models.PondReport{sampleReport()})
	assert.ErrorContains(t, err, "check report header")
}
