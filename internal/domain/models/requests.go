package models

import "github.com/shopspring/decimal"

// Request payloads sent to the backend. Derived fields are pointers so that a
// value that could not be computed is left out of the JSON body instead of
// being sent as 0.

// StockingRequest creates or updates a stocking.
type StockingRequest struct {
	Pond          int              `json:"pond"`
	Species       int              `json:"species"`
	Date          string           `json:"date"`
	Pcs           int              `json:"pcs"`
	TotalWeightKg decimal.Decimal  `json:"total_weight_kg"`
	LinePcsPerKg  *decimal.Decimal `json:"line_pcs_per_kg,omitempty"`
	InitialAvgG   *decimal.Decimal `json:"initial_avg_g,omitempty"`
	Notes         string           `json:"notes"`
}

// FishSamplingRequest records a growth sampling.
type FishSamplingRequest struct {
	Pond            int              `json:"pond"`
	Date            string           `json:"date"`
	SampleSize      int              `json:"sample_size"`
	TotalWeightKg   decimal.Decimal  `json:"total_weight_kg"`
	LineNumber      *decimal.Decimal `json:"line_number,omitempty"`
	CustomerStockID *int             `json:"customer_stock_id,omitempty"`
	CountBefore     *int             `json:"count_before,omitempty"`
	Notes           string           `json:"notes"`
}

// HarvestRequest records a harvest.
type HarvestRequest struct {
	Pond          int              `json:"pond"`
	Date          string           `json:"date"`
	TotalWeightKg decimal.Decimal  `json:"total_weight_kg"`
	TotalCount    int              `json:"total_count"`
	AvgWeightG    *decimal.Decimal `json:"avg_weight_g,omitempty"`
	PricePerKg    *decimal.Decimal `json:"price_per_kg,omitempty"`
	TotalRevenue  *decimal.Decimal `json:"total_revenue,omitempty"`
	Notes         string           `json:"notes"`
}

// MortalityRequest records dead fish. Weights are left out when no average
// weight could be established for the lot.
type MortalityRequest struct {
	Pond            int              `json:"pond"`
	Date            string           `json:"date"`
	Count           int              `json:"count"`
	AvgWeightKg     *decimal.Decimal `json:"avg_weight_kg,omitempty"`
	AvgWeightG      *decimal.Decimal `json:"avg_weight_g,omitempty"`
	TotalWeightKg   *decimal.Decimal `json:"total_weight_kg,omitempty"`
	CustomerStockID *int             `json:"customer_stock_id,omitempty"`
	Cause           string           `json:"cause"`
	Notes           string           `json:"notes"`
}

// FeedRequest records a feeding.
type FeedRequest struct {
	Pond               int              `json:"pond"`
	FeedType           int              `json:"feed_type"`
	Date               string           `json:"date"`
	AmountKg           decimal.Decimal  `json:"amount_kg"`
	CostPerPacket      *decimal.Decimal `json:"cost_per_packet,omitempty"`
	TotalCost          *decimal.Decimal `json:"total_cost,omitempty"`
	BiomassAtFeedingKg *decimal.Decimal `json:"biomass_at_feeding_kg,omitempty"`
	FeedingRatePercent *decimal.Decimal `json:"feeding_rate_percent,omitempty"`
	Notes              string           `json:"notes"`
}

// TransferRequest moves funds between two chart-of-accounts entries.
type TransferRequest struct {
	Date        string          `json:"date"`
	FromAccount int             `json:"from_account"`
	ToAccount   int             `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
	Memo        string          `json:"memo"`
}

// TransferResult is the backend acknowledgement of a transfer.
type TransferResult struct {
	Message string `json:"message"`
	EntryID int    `json:"entry_id,omitempty"`
}

// LoginRequest exchanges credentials for an API token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the API token.
type LoginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}
