package entries

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Text is a raw form field. It decodes from a JSON string or number so the
// console can post either.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*t = Text(n.String())
	return nil
}

func (t Text) trimmed() string { return strings.TrimSpace(string(t)) }

// StockingInput is the stocking form as entered.
type StockingInput struct {
	Pond          Text `json:"pond"`
	Species       Text `json:"species"`
	Date          Text `json:"date"`
	Pcs           Text `json:"pcs"`
	TotalWeightKg Text `json:"total_weight_kg"`
	Notes         Text `json:"notes"`
}

// SamplingInput is the fish sampling form as entered.
type SamplingInput struct {
	Pond            Text `json:"pond"`
	Date            Text `json:"date"`
	SampleSize      Text `json:"sample_size"`
	TotalWeightKg   Text `json:"total_weight_kg"`
	CustomerStockID Text `json:"customer_stock_id"`
	CountBefore     Text `json:"count_before"`
	Notes           Text `json:"notes"`
}

// HarvestInput is the harvest form as entered.
type HarvestInput struct {
	Pond          Text `json:"pond"`
	Date          Text `json:"date"`
	TotalWeightKg Text `json:"total_weight_kg"`
	TotalCount    Text `json:"total_count"`
	PricePerKg    Text `json:"price_per_kg"`
	Notes         Text `json:"notes"`
}

// FeedingInput is the feeding form as entered. Either AmountKg or Packets
// must be filled; packets are converted at the standard packet size.
type FeedingInput struct {
	Pond               Text `json:"pond"`
	FeedType           Text `json:"feed_type"`
	Date               Text `json:"date"`
	AmountKg           Text `json:"amount_kg"`
	Packets            Text `json:"packets"`
	CostPerPacket      Text `json:"cost_per_packet"`
	BiomassAtFeedingKg Text `json:"biomass_at_feeding_kg"`
	Notes              Text `json:"notes"`
}

// MortalityInput is the mortality form as entered. The lot figures come from
// the selected customer stock; SampledAvgWeightKg is the latest sampling
// average and is only used when the lot figures give no average.
type MortalityInput struct {
	Pond               Text `json:"pond"`
	Date               Text `json:"date"`
	Count              Text `json:"count"`
	CustomerStockID    Text `json:"customer_stock_id"`
	LotTotalWeightKg   Text `json:"lot_total_weight_kg"`
	LotFishCount       Text `json:"lot_fish_count"`
	SampledAvgWeightKg Text `json:"sampled_avg_weight_kg"`
	Cause              Text `json:"cause"`
	Notes              Text `json:"notes"`
}

// InvoiceLineInput is a fish line on a sales invoice. Any two of count, line
// number and total weight determine the third.
type InvoiceLineInput struct {
	FishCount   Text `json:"fish_count"`
	LineNumber  Text `json:"line_number"`
	TotalWeight Text `json:"total_weight"`
	Rate        Text `json:"rate"`
}

// TransferInput is a fund transfer between two accounts.
type TransferInput struct {
	Date        Text `json:"date"`
	FromAccount Text `json:"from_account"`
	ToAccount   Text `json:"to_account"`
	Amount      Text `json:"amount"`
	Memo        Text `json:"memo"`
}

// parser accumulates field errors while converting form text.
type parser struct {
	errs FieldErrors
	now  func() time.Time
}

func newParser(now func() time.Time) *parser {
	return &parser{errs: FieldErrors{}, now: now}
}

// id parses a required reference to a backend record.
func (p *parser) id(field string, raw Text) int {
	s := raw.trimmed()
	if s == "" {
		p.errs.add(field, "is required")
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		p.errs.add(field, "must be a valid id")
		return 0
	}
	return n
}

// count parses a required whole number greater than zero.
func (p *parser) count(field string, raw Text) int {
	s := raw.trimmed()
	if s == "" {
		p.errs.add(field, "is required")
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.errs.add(field, "must be a whole number")
		return 0
	}
	if n <= 0 {
		p.errs.add(field, "must be greater than 0")
		return 0
	}
	return n
}

// optionalInt parses an optional non-negative whole number.
func (p *parser) optionalInt(field string, raw Text) *int {
	s := raw.trimmed()
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		p.errs.add(field, "must be a non-negative whole number")
		return nil
	}
	return &n
}

// amount parses a required decimal. allowZero decides whether 0 is accepted.
func (p *parser) amount(field string, raw Text, allowZero bool) decimal.Decimal {
	if raw.trimmed() == "" {
		p.errs.add(field, "is required")
		return decimal.Zero
	}
	d := p.optionalAmount(field, raw, allowZero)
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// optionalAmount parses an optional decimal; empty text yields nil.
func (p *parser) optionalAmount(field string, raw Text, allowZero bool) *decimal.Decimal {
	s := raw.trimmed()
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		p.errs.add(field, "must be a number")
		return nil
	}
	switch {
	case d.IsNegative():
		p.errs.add(field, "must not be negative")
		return nil
	case !allowZero && d.IsZero():
		p.errs.add(field, "must be greater than 0")
		return nil
	}
	return &d
}

// date parses a YYYY-MM-DD date, defaulting to today when empty.
func (p *parser) date(field string, raw Text) string {
	s := raw.trimmed()
	if s == "" {
		return p.now().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		p.errs.add(field, "must be a date in YYYY-MM-DD format")
		return ""
	}
	return s
}
