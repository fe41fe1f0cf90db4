package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fishfarm/internal/calc"
	"github.com/mamadbah2/fishfarm/internal/domain/models"
)

const dateLayout = "2006-01-02"

var (
	// ErrPondNotFound is returned when the requested pond is not known to the backend.
	ErrPondNotFound = errors.New("pond not found")
	// ErrSnapshotsDisabled is returned when report snapshots are requested without a store.
	ErrSnapshotsDisabled = errors.New("report snapshots are not configured")
)

// Backend is the read side of the fish-farming API used for reports.
type Backend interface {
	ListPonds(ctx context.Context) ([]models.Pond, error)
	ListFeeds(ctx context.Context) ([]models.Feed, error)
	ListHarvests(ctx context.Context) ([]models.Harvest, error)
	ListFishSamplings(ctx context.Context) ([]models.FishSampling, error)
}

// Store persists report snapshots.
type Store interface {
	SavePondReport(ctx context.Context, report models.PondReport) error
	ListPondReports(ctx context.Context, pondID int, limit int) ([]models.PondReport, error)
}

// Exporter publishes reports outside the service.
type Exporter interface {
	ExportPondReports(ctx context.Context, reports []models.PondReport) error
}

// Service aggregates feeding, harvest and sampling records into pond
// performance reports.
type Service struct {
	backend  Backend
	store    Store
	exporter Exporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new reporting service instance. store and exporter are optional.
func NewService(backend Backend, store Store, exporter Exporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend:  backend,
		store:    store,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// records holds one fetch of the backend collections.
type records struct {
	feeds     []models.Feed
	harvests  []models.Harvest
	samplings []models.FishSampling
}

func (s *Service) loadRecords(ctx context.Context) (records, error) {
	var rec records
	var err error

	if rec.feeds, err = s.backend.ListFeeds(ctx); err != nil {
		return rec, fmt.Errorf("load feeds: %w", err)
	}
	if rec.harvests, err = s.backend.ListHarvests(ctx); err != nil {
		return rec, fmt.Errorf("load harvests: %w", err)
	}
	if rec.samplings, err = s.backend.ListFishSamplings(ctx); err != nil {
		return rec, fmt.Errorf("load fish samplings: %w", err)
	}
	return rec, nil
}

// GeneratePondReport aggregates one pond over [start, end] (whole days) and
// returns the report with a readable summary.
func (s *Service) GeneratePondReport(ctx context.Context, pondID int, start, end time.Time) (*models.PondReport, string, error) {
	if end.Before(start) {
		return nil, "", fmt.Errorf("report period ends before it starts")
	}

	ponds, err := s.backend.ListPonds(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load ponds: %w", err)
	}

	var pond *models.Pond
	for i := range ponds {
		if ponds[i].Key() == pondID {
			pond = &ponds[i]
			break
		}
	}
	if pond == nil {
		return nil, "", fmt.Errorf("pond %d: %w", pondID, ErrPondNotFound)
	}

	rec, err := s.loadRecords(ctx)
	if err != nil {
		return nil, "", err
	}

	report := s.buildReport(*pond, rec, start, end)
	return &report, FormatReport(report), nil
}

// GenerateWeeklyReport reports every pond that is active or had records since
// Monday of the week containing now. Each report is persisted and exported;
// those failures are logged and do not fail the report.
func (s *Service) GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error) {
	start := weekStart(now)

	ponds, err := s.backend.ListPonds(ctx)
	if err != nil {
		return "", fmt.Errorf("load ponds: %w", err)
	}
	rec, err := s.loadRecords(ctx)
	if err != nil {
		return "", err
	}

	sort.Slice(ponds, func(i, j int) bool { return ponds[i].Key() < ponds[j].Key() })

	reports := make([]models.PondReport, 0, len(ponds))
	for _, pond := range ponds {
		report := s.buildReport(pond, rec, start, now)
		if !pond.IsActive && report.FeedEntries == 0 && report.HarvestEntries == 0 {
			continue
		}
		reports = append(reports, report)
	}

	s.persist(ctx, reports)

	var b strings.Builder
	fmt.Fprintf(&b, "Weekly pond report (%s - %s)", start.Format(dateLayout), now.Format(dateLayout))
	if len(reports) == 0 {
		b.WriteString("\nNo pond activity recorded this week.")
		return b.String(), nil
	}
	for _, report := range reports {
		b.WriteString("\n\n")
		b.WriteString(FormatReport(report))
	}

	s.logger.Info("weekly report generated", zap.Int("ponds", len(reports)), zap.Time("start", start))
	return b.String(), nil
}

// ListPondReports returns stored snapshots for a pond, newest first.
func (s *Service) ListPondReports(ctx context.Context, pondID int, limit int) ([]models.PondReport, error) {
	if s.store == nil {
		return nil, ErrSnapshotsDisabled
	}
	reports, err := s.store.ListPondReports(ctx, pondID, limit)
	if err != nil {
		return nil, fmt.Errorf("list pond reports: %w", err)
	}
	return reports, nil
}

func (s *Service) persist(ctx context.Context, reports []models.PondReport) {
	if s.store != nil {
		for _, report := range reports {
			if err := s.store.SavePondReport(ctx, report); err != nil {
				s.logger.Error("failed to save pond report", zap.Int("pond", report.PondID), zap.Error(err))
			}
		}
	}

	if s.exporter != nil && len(reports) > 0 {
		if err := s.exporter.ExportPondReports(ctx, reports); err != nil {
			s.logger.Error("failed to export pond reports", zap.Int("ponds", len(reports)), zap.Error(err))
		}
	}
}

func (s *Service) buildReport(pond models.Pond, rec records, start, end time.Time) models.PondReport {
	pondID := pond.Key()
	from, to := day(start), day(end)

	report := models.PondReport{
		PondID:      pondID,
		PondName:    pond.Name,
		PeriodStart: from,
		PeriodEnd:   to,
		CreatedAt:   s.now().UTC(),
	}

	for _, feed := range rec.feeds {
		if feed.Pond != pondID || !s.inPeriod("feed", feed.Date, from, to) {
			continue
		}
		report.FeedEntries++
		report.FeedKg += feed.AmountKg.Or(0)
		report.FeedCost += feed.TotalCost.Or(0)
	}

	for _, harvest := range rec.harvests {
		if harvest.Pond != pondID || !s.inPeriod("harvest", harvest.Date, from, to) {
			continue
		}
		report.HarvestEntries++
		report.HarvestedKg += harvest.TotalWeightKg.Or(0)
		report.HarvestedCount += harvest.TotalCount

		revenue := harvest.TotalRevenue
		if !revenue.Computable() {
			revenue = calc.HarvestRevenue(harvest.TotalWeightKg, harvest.PricePerKg)
		}
		report.Revenue += revenue.Or(0)
	}

	report.SetFCR(calc.FeedConversionRatio(calc.Of(report.FeedKg), calc.Of(report.HarvestedKg)))

	if latest, ok := s.latestSampling(rec.samplings, pondID, to); ok {
		size := calc.OfInt(latest.SampleSize)
		avgG := latest.AverageWeightG
		if !avgG.Computable() {
			avgG = calc.AverageWeightGrams(latest.TotalWeightKg, size)
		}
		fishPerKg := latest.FishPerKg
		if !fishPerKg.Computable() {
			fishPerKg = calc.PiecesPerKilogram(size, latest.TotalWeightKg)
		}
		report.SetLatestSample(avgG, fishPerKg)
	}

	return report
}

// latestSampling picks the most recent sampling of the pond on or before to.
func (s *Service) latestSampling(samplings []models.FishSampling, pondID int, to time.Time) (models.FishSampling, bool) {
	var latest models.FishSampling
	var latestDate time.Time
	found := false

	for _, sampling := range samplings {
		if sampling.Pond != pondID {
			continue
		}
		d, err := parseDate(sampling.Date)
		if err != nil {
			s.logger.Debug("skip sampling with invalid date", zap.String("value", sampling.Date), zap.Error(err))
			continue
		}
		if d.After(to) {
			continue
		}
		if !found || !d.Before(latestDate) {
			latest, latestDate, found = sampling, d, true
		}
	}
	return latest, found
}

func (s *Service) inPeriod(kind, value string, from, to time.Time) bool {
	d, err := parseDate(value)
	if err != nil {
		s.logger.Debug("skip record with invalid date", zap.String("kind", kind), zap.String("value", value), zap.Error(err))
		return false
	}
	return !d.Before(from) && !d.After(to)
}

// FormatReport renders a report for chat and CLI output.
func FormatReport(r models.PondReport) string {
	fcr := calc.NotApplicable
	if r.FCR != nil {
		fcr = calc.Of(*r.FCR).Format(2)
	}

	lines := []string{
		fmt.Sprintf("%s (pond %d), %s to %s", r.PondName, r.PondID, r.PeriodStart.Format(dateLayout), r.PeriodEnd.Format(dateLayout)),
		fmt.Sprintf("Feed: %.2f kg over %d entries, cost %.2f", r.FeedKg, r.FeedEntries, r.FeedCost),
		fmt.Sprintf("Harvest: %.2f kg, %d pcs over %d entries, revenue %.2f", r.HarvestedKg, r.HarvestedCount, r.HarvestEntries, r.Revenue),
		fmt.Sprintf("FCR: %s (%s)", fcr, r.FCRRating),
	}

	if r.LatestAvgWeight != nil || r.LatestFishPerKg != nil {
		lines = append(lines, fmt.Sprintf("Latest sample: %s g avg, %s fish/kg",
			optionalFormat(r.LatestAvgWeight, 2), optionalFormat(r.LatestFishPerKg, 1)))
	}

	return strings.Join(lines, "\n")
}

func optionalFormat(v *float64, places int) string {
	if v == nil {
		return calc.NotApplicable
	}
	return calc.Of(*v).Format(places)
}

// weekStart returns Monday 00:00 of the week containing t, in t's location.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// day maps t to midnight UTC of its calendar date so it compares with parsed record dates.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDate(value string) (time.Time, error) {
	str := strings.TrimSpace(value)
	if str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(str) > 10 {
		str = str[:10]
	}
	return time.Parse(dateLayout, str)
}
