package entries

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/fishfarm/internal/cache"
	"github.com/mamadbah2/fishfarm/internal/calc"
	"github.com/mamadbah2/fishfarm/internal/domain/models"
)

// Decimal places the backend stores for derived columns.
const (
	placesAvgWeightStocking = 3
	placesAvgWeightHarvest  = 2
	placesPerKg             = 2
	placesMoney             = 2
	placesPercent           = 2
	placesWeightKg          = 3
)

// Where a mortality average weight came from.
const (
	AvgSourceLot      = "lot"
	AvgSourceSampling = "sampling"
)

// Backend is the subset of the fish-farming API the entry forms need.
type Backend interface {
	ListPonds(ctx context.Context) ([]models.Pond, error)
	ListSpecies(ctx context.Context) ([]models.Species, error)

	CreateStocking(ctx context.Context, req models.StockingRequest) (*models.Stocking, error)
	UpdateStocking(ctx context.Context, id int, req models.StockingRequest) (*models.Stocking, error)
	DeleteStocking(ctx context.Context, id int) error
	CreateFishSampling(ctx context.Context, req models.FishSamplingRequest) (*models.FishSampling, error)
	CreateHarvest(ctx context.Context, req models.HarvestRequest) (*models.Harvest, error)
	CreateFeed(ctx context.Context, req models.FeedRequest) (*models.Feed, error)
	CreateMortality(ctx context.Context, req models.MortalityRequest) (*models.Mortality, error)
	ListFishSamplings(ctx context.Context) ([]models.FishSampling, error)

	CalculateAssets(ctx context.Context, pondID int) (*models.AssetCalculationResult, error)
	Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error)
}

// Recorder counts derived fields left empty on submitted forms.
type Recorder interface {
	NotComputable(form, field string)
}

// Option customises a Service.
type Option func(*Service)

// WithRecorder installs a not-computable recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides the clock used to default empty dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service parses entry forms, previews their derived metrics and submits
// them to the backend. Derived values are always recomputed from the primary
// fields; values supplied by a caller are never forwarded.
type Service struct {
	backend  Backend
	cache    *cache.ReferenceCache
	recorder Recorder
	now      func() time.Time
	logger   *zap.Logger
}

// NewService wires the entry service. refCache may be nil.
func NewService(backend Backend, refCache *cache.ReferenceCache, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		backend: backend,
		cache:   refCache,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StockingPreview holds the derived stocking fields.
type StockingPreview struct {
	InitialAvgG  calc.Value `json:"initial_avg_g"`
	LinePcsPerKg calc.Value `json:"line_pcs_per_kg"`
}

// SamplingPreview holds the derived sampling fields.
type SamplingPreview struct {
	AverageWeightKg calc.Value `json:"average_weight_kg"`
	AverageWeightG  calc.Value `json:"average_weight_g"`
	FishPerKg       calc.Value `json:"fish_per_kg"`
	ConditionFactor calc.Value `json:"condition_factor"`
}

// HarvestPreview holds the derived harvest fields.
type HarvestPreview struct {
	AvgWeightG   calc.Value `json:"avg_weight_g"`
	TotalRevenue calc.Value `json:"total_revenue"`
}

// FeedingPreview holds the derived feeding fields.
type FeedingPreview struct {
	AmountKg           calc.Value `json:"amount_kg"`
	Packets            calc.Value `json:"packets"`
	TotalCost          calc.Value `json:"total_cost"`
	FeedingRatePercent calc.Value `json:"feeding_rate_percent"`
}

// MortalityPreview holds the derived mortality fields. AvgWeightSource is
// empty when no average weight could be established.
type MortalityPreview struct {
	AvgWeightKg     calc.Value `json:"avg_weight_kg"`
	AvgWeightG      calc.Value `json:"avg_weight_g"`
	BiomassLostKg   calc.Value `json:"biomass_lost_kg"`
	AvgWeightSource string     `json:"avg_weight_source"`
}

// InvoiceLinePreview is a completed invoice fish line and its amount.
type InvoiceLinePreview struct {
	calc.LineTriple
	Amount calc.Value `json:"amount"`
}

// PreviewStocking derives average weight and pieces per kg.
func (s *Service) PreviewStocking(in StockingInput) StockingPreview {
	pcs := calc.ParseCount(string(in.Pcs))
	weight := calc.ParseNumber(string(in.TotalWeightKg))

	return StockingPreview{
		InitialAvgG:  calc.AverageWeightGrams(weight, pcs),
		LinePcsPerKg: calc.PiecesPerKilogram(pcs, weight),
	}
}

// PreviewSampling derives average weight, fish per kg and condition factor.
func (s *Service) PreviewSampling(in SamplingInput) SamplingPreview {
	size := calc.ParseCount(string(in.SampleSize))
	weight := calc.ParseNumber(string(in.TotalWeightKg))
	avgG := calc.AverageWeightGrams(weight, size)

	return SamplingPreview{
		AverageWeightKg: calc.AverageWeightKg(weight, size),
		AverageWeightG:  avgG,
		FishPerKg:       calc.PiecesPerKilogram(size, weight),
		ConditionFactor: calc.ConditionFactorProxy(avgG),
	}
}

// PreviewHarvest derives average weight and revenue.
func (s *Service) PreviewHarvest(in HarvestInput) HarvestPreview {
	weight := calc.ParseNumber(string(in.TotalWeightKg))
	count := calc.ParseCount(string(in.TotalCount))
	price := calc.ParseNumber(string(in.PricePerKg))

	return HarvestPreview{
		AvgWeightG:   calc.AverageWeightGrams(weight, count),
		TotalRevenue: calc.HarvestRevenue(weight, price),
	}
}

// PreviewFeeding derives the feed amount, cost and feeding rate.
func (s *Service) PreviewFeeding(in FeedingInput) FeedingPreview {
	packetSize := calc.Of(calc.DefaultPacketSizeKg)

	amount := calc.ParseNumber(string(in.AmountKg))
	packets := calc.ParseNumber(string(in.Packets))
	switch {
	case amount.Computable():
		packets = calc.PacketsFromKg(amount, packetSize)
	case packets.Computable():
		amount = calc.KgFromPackets(packets, packetSize)
	}

	cost := calc.ParseNumber(string(in.CostPerPacket))
	biomass := calc.ParseNumber(string(in.BiomassAtFeedingKg))

	return FeedingPreview{
		AmountKg:           amount,
		Packets:            packets,
		TotalCost:          calc.FeedCost(amount, cost, packetSize),
		FeedingRatePercent: calc.FeedingRatePercent(amount, biomass),
	}
}

// PreviewMortality derives the dead fish average weight and biomass lost. The
// lot average wins over the sampled average.
func (s *Service) PreviewMortality(in MortalityInput) MortalityPreview {
	count := calc.ParseCount(string(in.Count))

	var preview MortalityPreview
	lotAvg := calc.AverageWeightKg(calc.ParseNumber(string(in.LotTotalWeightKg)), calc.ParseCount(string(in.LotFishCount)))
	sampled := calc.ParseNumber(string(in.SampledAvgWeightKg))
	switch {
	case lotAvg.Computable():
		preview.AvgWeightKg, preview.AvgWeightSource = lotAvg, AvgSourceLot
	case sampled.Or(0) > 0:
		preview.AvgWeightKg, preview.AvgWeightSource = sampled, AvgSourceSampling
	default:
		preview.AvgWeightKg = calc.NotComputable
	}

	preview.AvgWeightG = calc.AverageWeightGrams(preview.AvgWeightKg, calc.OfInt(1))
	preview.BiomassLostKg = calc.BiomassLostKg(count, preview.AvgWeightKg)
	return preview
}

// PreviewInvoiceLine completes the count, line number and weight triple and
// prices the line by weight. A missing rate leaves the amount not computable.
func (s *Service) PreviewInvoiceLine(in InvoiceLineInput) InvoiceLinePreview {
	triple := calc.CompleteLineTriple(calc.LineTriple{
		FishCount:     calc.ParseCount(string(in.FishCount)),
		LineNumber:    calc.ParseNumber(string(in.LineNumber)),
		TotalWeightKg: calc.ParseNumber(string(in.TotalWeight)),
	})
	return InvoiceLinePreview{
		LineTriple: triple,
		Amount:     calc.HarvestRevenue(triple.TotalWeightKg, calc.ParseNumber(string(in.Rate))),
	}
}

// ResolveMortality fills SampledAvgWeightKg from the pond's latest sampling
// when the form has neither lot figures nor a sampled average. Lookup
// failures leave the input unchanged.
func (s *Service) ResolveMortality(ctx context.Context, in MortalityInput) MortalityInput {
	if s.PreviewMortality(in).AvgWeightSource != "" {
		return in
	}
	pond, ok := calc.ParseCount(string(in.Pond)).Int()
	if !ok || pond <= 0 {
		return in
	}

	samplings, err := s.backend.ListFishSamplings(ctx)
	if err != nil {
		s.logger.Warn("latest sampling lookup failed", zap.Int("pond", pond), zap.Error(err))
		return in
	}
	if avg := latestSampledAvgKg(samplings, pond); avg.Computable() {
		in.SampledAvgWeightKg = Text(avg.Format(placesWeightKg))
	}
	return in
}

// latestSampledAvgKg returns the average weight of the most recent sampling
// of a pond, derived from its totals when the backend left it empty.
func latestSampledAvgKg(samplings []models.FishSampling, pond int) calc.Value {
	var latest *models.FishSampling
	for i := range samplings {
		sm := &samplings[i]
		if sm.Pond != pond {
			continue
		}
		if latest == nil || sm.Date > latest.Date || (sm.Date == latest.Date && sm.ID > latest.ID) {
			latest = sm
		}
	}
	if latest == nil {
		return calc.NotComputable
	}
	if latest.AverageWeightKg.Or(0) > 0 {
		return latest.AverageWeightKg
	}
	return calc.AverageWeightKg(latest.TotalWeightKg, calc.OfInt(latest.SampleSize))
}

// BuildStocking validates the form and returns the backend payload.
func (s *Service) BuildStocking(in StockingInput) (models.StockingRequest, error) {
	p := newParser(s.now)
	req := models.StockingRequest{
		Pond:          p.id("pond", in.Pond),
		Species:       p.id("species", in.Species),
		Date:          p.date("date", in.Date),
		Pcs:           p.count("pcs", in.Pcs),
		TotalWeightKg: p.amount("total_weight_kg", in.TotalWeightKg, true),
		Notes:         in.Notes.trimmed(),
	}
	if err := p.errs.err(); err != nil {
		return models.StockingRequest{}, err
	}

	preview := s.PreviewStocking(in)
	req.InitialAvgG = s.derived("stocking", "initial_avg_g", preview.InitialAvgG, placesAvgWeightStocking)
	req.LinePcsPerKg = s.derived("stocking", "line_pcs_per_kg", preview.LinePcsPerKg, placesPerKg)
	return req, nil
}

// BuildSampling validates the form and returns the backend payload.
func (s *Service) BuildSampling(in SamplingInput) (models.FishSamplingRequest, error) {
	p := newParser(s.now)
	req := models.FishSamplingRequest{
		Pond:            p.id("pond", in.Pond),
		Date:            p.date("date", in.Date),
		SampleSize:      p.count("sample_size", in.SampleSize),
		TotalWeightKg:   p.amount("total_weight_kg", in.TotalWeightKg, false),
		CustomerStockID: p.optionalInt("customer_stock_id", in.CustomerStockID),
		CountBefore:     p.optionalInt("count_before", in.CountBefore),
		Notes:           in.Notes.trimmed(),
	}
	if req.CustomerStockID != nil && *req.CustomerStockID == 0 {
		p.errs.add("customer_stock_id", "must be a valid id")
	}
	if err := p.errs.err(); err != nil {
		return models.FishSamplingRequest{}, err
	}

	preview := s.PreviewSampling(in)
	req.LineNumber = s.derived("sampling", "line_number", preview.FishPerKg, placesPerKg)
	return req, nil
}

// BuildHarvest validates the form and returns the backend payload.
func (s *Service) BuildHarvest(in HarvestInput) (models.HarvestRequest, error) {
	p := newParser(s.now)
	req := models.HarvestRequest{
		Pond:          p.id("pond", in.Pond),
		Date:          p.date("date", in.Date),
		TotalWeightKg: p.amount("total_weight_kg", in.TotalWeightKg, false),
		TotalCount:    p.count("total_count", in.TotalCount),
		PricePerKg:    p.optionalAmount("price_per_kg", in.PricePerKg, true),
		Notes:         in.Notes.trimmed(),
	}
	if err := p.errs.err(); err != nil {
		return models.HarvestRequest{}, err
	}

	preview := s.PreviewHarvest(in)
	req.AvgWeightG = s.derived("harvest", "avg_weight_g", preview.AvgWeightG, placesAvgWeightHarvest)
	if req.PricePerKg != nil {
		req.TotalRevenue = s.derived("harvest", "total_revenue", preview.TotalRevenue, placesMoney)
	}
	return req, nil
}

// BuildFeeding validates the form and returns the backend payload.
func (s *Service) BuildFeeding(in FeedingInput) (models.FeedRequest, error) {
	p := newParser(s.now)
	req := models.FeedRequest{
		Pond:               p.id("pond", in.Pond),
		FeedType:           p.id("feed_type", in.FeedType),
		Date:               p.date("date", in.Date),
		CostPerPacket:      p.optionalAmount("cost_per_packet", in.CostPerPacket, true),
		BiomassAtFeedingKg: p.optionalAmount("biomass_at_feeding_kg", in.BiomassAtFeedingKg, false),
		Notes:              in.Notes.trimmed(),
	}

	amount := p.optionalAmount("amount_kg", in.AmountKg, false)
	p.optionalAmount("packets", in.Packets, false)
	if in.AmountKg.trimmed() == "" && in.Packets.trimmed() == "" {
		p.errs.add("amount_kg", "is required when packets is empty")
	}
	if err := p.errs.err(); err != nil {
		return models.FeedRequest{}, err
	}

	preview := s.PreviewFeeding(in)
	if amount != nil {
		req.AmountKg = *amount
	} else if d := preview.AmountKg.Decimal(3); d != nil {
		req.AmountKg = *d
	}
	if req.CostPerPacket != nil {
		req.TotalCost = s.derived("feeding", "total_cost", preview.TotalCost, placesMoney)
	}
	if req.BiomassAtFeedingKg != nil {
		req.FeedingRatePercent = s.derived("feeding", "feeding_rate_percent", preview.FeedingRatePercent, placesPercent)
	}
	return req, nil
}

// BuildMortality validates the form and returns the backend payload.
func (s *Service) BuildMortality(in MortalityInput) (models.MortalityRequest, error) {
	p := newParser(s.now)
	req := models.MortalityRequest{
		Pond:            p.id("pond", in.Pond),
		Date:            p.date("date", in.Date),
		Count:           p.count("count", in.Count),
		CustomerStockID: p.optionalInt("customer_stock_id", in.CustomerStockID),
		Cause:           in.Cause.trimmed(),
		Notes:           in.Notes.trimmed(),
	}
	if req.CustomerStockID != nil && *req.CustomerStockID == 0 {
		p.errs.add("customer_stock_id", "must be a valid id")
	}
	p.optionalAmount("lot_total_weight_kg", in.LotTotalWeightKg, true)
	p.optionalInt("lot_fish_count", in.LotFishCount)
	p.optionalAmount("sampled_avg_weight_kg", in.SampledAvgWeightKg, true)
	if err := p.errs.err(); err != nil {
		return models.MortalityRequest{}, err
	}

	preview := s.PreviewMortality(in)
	req.AvgWeightKg = s.derived("mortality", "avg_weight_kg", preview.AvgWeightKg, placesWeightKg)
	req.AvgWeightG = s.derived("mortality", "avg_weight_g", preview.AvgWeightG, placesAvgWeightHarvest)
	req.TotalWeightKg = s.derived("mortality", "total_weight_kg", preview.BiomassLostKg, placesWeightKg)
	return req, nil
}

// BuildTransfer validates a fund transfer.
func (s *Service) BuildTransfer(in TransferInput) (models.TransferRequest, error) {
	p := newParser(s.now)
	req := models.TransferRequest{
		Date:        p.date("date", in.Date),
		FromAccount: p.id("from_account", in.FromAccount),
		ToAccount:   p.id("to_account", in.ToAccount),
		Amount:      p.amount("amount", in.Amount, false),
		Memo:        in.Memo.trimmed(),
	}
	if req.FromAccount != 0 && req.FromAccount == req.ToAccount {
		p.errs.add("to_account", "must differ from from_account")
	}
	if err := p.errs.err(); err != nil {
		return models.TransferRequest{}, err
	}
	return req, nil
}

// SubmitStocking validates and records a stocking.
func (s *Service) SubmitStocking(ctx context.Context, in StockingInput) (*models.Stocking, error) {
	req, err := s.BuildStocking(in)
	if err != nil {
		return nil, err
	}

	stocking, err := s.backend.CreateStocking(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create stocking: %w", err)
	}

	s.logger.Info("stocking recorded",
		zap.Int("pond", req.Pond),
		zap.Int("species", req.Species),
		zap.Int("pcs", req.Pcs),
		zap.String("total_weight_kg", req.TotalWeightKg.String()),
	)
	return stocking, nil
}

// UpdateStocking validates and replaces an existing stocking.
func (s *Service) UpdateStocking(ctx context.Context, id int, in StockingInput) (*models.Stocking, error) {
	if id <= 0 {
		return nil, FieldErrors{"id": "must be a valid id"}
	}
	req, err := s.BuildStocking(in)
	if err != nil {
		return nil, err
	}

	stocking, err := s.backend.UpdateStocking(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update stocking %d: %w", id, err)
	}

	s.logger.Info("stocking updated", zap.Int("stocking_id", id), zap.Int("pond", req.Pond))
	return stocking, nil
}

// DeleteStocking removes a stocking.
func (s *Service) DeleteStocking(ctx context.Context, id int) error {
	if id <= 0 {
		return FieldErrors{"id": "must be a valid id"}
	}
	if err := s.backend.DeleteStocking(ctx, id); err != nil {
		return fmt.Errorf("delete stocking %d: %w", id, err)
	}
	s.logger.Info("stocking deleted", zap.Int("stocking_id", id))
	return nil
}

// SubmitSampling validates and records a fish sampling.
func (s *Service) SubmitSampling(ctx context.Context, in SamplingInput) (*models.FishSampling, error) {
	req, err := s.BuildSampling(in)
	if err != nil {
		return nil, err
	}

	sampling, err := s.backend.CreateFishSampling(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create fish sampling: %w", err)
	}

	s.logger.Info("fish sampling recorded",
		zap.Int("pond", req.Pond),
		zap.Int("sample_size", req.SampleSize),
		zap.String("total_weight_kg", req.TotalWeightKg.String()),
	)
	return sampling, nil
}

// SubmitHarvest validates and records a harvest.
func (s *Service) SubmitHarvest(ctx context.Context, in HarvestInput) (*models.Harvest, error) {
	req, err := s.BuildHarvest(in)
	if err != nil {
		return nil, err
	}

	harvest, err := s.backend.CreateHarvest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create harvest: %w", err)
	}

	s.logger.Info("harvest recorded",
		zap.Int("pond", req.Pond),
		zap.Int("total_count", req.TotalCount),
		zap.String("total_weight_kg", req.TotalWeightKg.String()),
	)
	return harvest, nil
}

// SubmitFeeding validates and records a feeding.
func (s *Service) SubmitFeeding(ctx context.Context, in FeedingInput) (*models.Feed, error) {
	req, err := s.BuildFeeding(in)
	if err != nil {
		return nil, err
	}

	feed, err := s.backend.CreateFeed(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create feed: %w", err)
	}

	s.logger.Info("feeding recorded",
		zap.Int("pond", req.Pond),
		zap.Int("feed_type", req.FeedType),
		zap.String("amount_kg", req.AmountKg.String()),
	)
	return feed, nil
}

// SubmitMortality validates and records a mortality event, falling back to
// the latest sampling for the average weight.
func (s *Service) SubmitMortality(ctx context.Context, in MortalityInput) (*models.Mortality, error) {
	req, err := s.BuildMortality(s.ResolveMortality(ctx, in))
	if err != nil {
		return nil, err
	}

	mortality, err := s.backend.CreateMortality(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create mortality: %w", err)
	}

	fields := []zap.Field{zap.Int("pond", req.Pond), zap.Int("count", req.Count)}
	if req.TotalWeightKg != nil {
		fields = append(fields, zap.String("total_weight_kg", req.TotalWeightKg.String()))
	}
	s.logger.Info("mortality recorded", fields...)
	return mortality, nil
}

// SubmitTransfer validates and posts a fund transfer.
func (s *Service) SubmitTransfer(ctx context.Context, in TransferInput) (*models.TransferResult, error) {
	req, err := s.BuildTransfer(in)
	if err != nil {
		return nil, err
	}

	result, err := s.backend.Transfer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("transfer funds: %w", err)
	}

	s.logger.Info("funds transferred",
		zap.Int("from_account", req.FromAccount),
		zap.Int("to_account", req.ToAccount),
		zap.String("amount", req.Amount.String()),
	)
	return result, nil
}

// CalculateAssets returns the backend valuation of a pond unchanged.
func (s *Service) CalculateAssets(ctx context.Context, pondID int) (*models.AssetCalculationResult, error) {
	if pondID <= 0 {
		return nil, FieldErrors{"pond_id": "must be a valid id"}
	}
	result, err := s.backend.CalculateAssets(ctx, pondID)
	if err != nil {
		return nil, fmt.Errorf("calculate assets for pond %d: %w", pondID, err)
	}
	return result, nil
}

// ListPonds returns the ponds, from cache when possible.
func (s *Service) ListPonds(ctx context.Context) ([]models.Pond, error) {
	var ponds []models.Pond
	if s.cache.GetJSON(ctx, cache.PondsKey, &ponds) {
		return ponds, nil
	}

	ponds, err := s.backend.ListPonds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ponds: %w", err)
	}
	s.cache.SetJSON(ctx, cache.PondsKey, ponds)
	return ponds, nil
}

// ListSpecies returns the species, from cache when possible.
func (s *Service) ListSpecies(ctx context.Context) ([]models.Species, error) {
	var species []models.Species
	if s.cache.GetJSON(ctx, cache.SpeciesKey, &species) {
		return species, nil
	}

	species, err := s.backend.ListSpecies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list species: %w", err)
	}
	s.cache.SetJSON(ctx, cache.SpeciesKey, species)
	return species, nil
}

// derived rounds a derived value for submission. Not computable values are
// counted and left out of the payload.
func (s *Service) derived(form, field string, v calc.Value, places int32) *decimal.Decimal {
	d := v.Decimal(places)
	if d == nil && s.recorder != nil {
		s.recorder.NotComputable(form, field)
	}
	return d
}
