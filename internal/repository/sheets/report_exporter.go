package sheets

import (
	"context"
	"fmt"

	"github.com/mamadbah2/fishfarm/internal/calc"
	"github.com/mamadbah2/fishfarm/internal/domain/models"
)

const (
	reportTab         = "PondReports"
	reportSheetRange  = reportTab + "!A:M"
	reportHeaderRange = reportTab + "!A1:M1"
	dateLayout        = "2006-01-02"
)

var reportHeader = []interface{}{
	"Period start", "Period end", "Pond ID", "Pond", "Feed (kg)", "Feed cost",
	"Harvested (kg)", "Harvested (pcs)", "Revenue", "FCR", "FCR rating",
	"Avg weight (g)", "Fish/kg",
}

// ReportExporter appends pond reports to the report spreadsheet, one row per pond.
type ReportExporter struct {
	repo Repository
}

// NewReportExporter wraps a sheet repository.
func NewReportExporter(repo Repository) *ReportExporter {
	return &ReportExporter{repo: repo}
}

// ExportPondReports writes the header on first use and then the report rows.
func (e *ReportExporter) ExportPondReports(ctx context.Context, reports []models.PondReport) error {
	if len(reports) == 0 {
		return nil
	}

	if err := e.repo.EnsureTab(ctx, reportTab); err != nil {
		return fmt.Errorf("prepare report sheet: %w", err)
	}

	existing, err := e.repo.ReadRange(ctx, reportHeaderRange)
	if err != nil {
		return fmt.Errorf("check report header: %w", err)
	}

	rows := make([][]interface{}, 0, len(reports)+1)
	if len(existing) == 0 {
		rows = append(rows, reportHeader)
	}
	for _, report := range reports {
		rows = append(rows, ReportRow(report))
	}

	if err := e.repo.AppendRows(ctx, reportSheetRange, rows); err != nil {
		return fmt.Errorf("export pond reports: %w", err)
	}
	return nil
}

// ReportRow flattens a report into sheet cells. Missing figures are written as N/A.
func ReportRow(r models.PondReport) []interface{} {
	return []interface{}{
		r.PeriodStart.Format(dateLayout),
		r.PeriodEnd.Format(dateLayout),
		r.PondID,
		r.PondName,
		round(r.FeedKg, 2),
		round(r.FeedCost, 2),
		round(r.HarvestedKg, 2),
		r.HarvestedCount,
		round(r.Revenue, 2),
		optionalCell(r.FCR, 2),
		r.FCRRating,
		optionalCell(r.LatestAvgWeight, 2),
		optionalCell(r.LatestFishPerKg, 1),
	}
}

func optionalCell(v *float64, places int) interface{} {
	if v == nil {
		return calc.NotApplicable
	}
	return round(*v, places)
}

func round(v float64, places int) string {
	return calc.Of(v).Format(places)
}
