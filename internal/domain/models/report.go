package models

import (
	"time"

	"github.com/mamadbah2/fishfarm/internal/calc"
)

// PondReport aggregates one pond's feeding and harvest performance over a
// period. Snapshots are stored in MongoDB and exported to the report sheet.
type PondReport struct {
	PondID          int       `bson:"pond_id" json:"pond_id"`
	PondName        string    `bson:"pond_name" json:"pond_name"`
	PeriodStart     time.Time `bson:"period_start" json:"period_start"`
	PeriodEnd       time.Time `bson:"period_end" json:"period_end"`
	FeedKg          float64   `bson:"feed_kg" json:"feed_kg"`
	FeedCost        float64   `bson:"feed_cost" json:"feed_cost"`
	HarvestedKg     float64   `bson:"harvested_kg" json:"harvested_kg"`
	HarvestedCount  int       `bson:"harvested_count" json:"harvested_count"`
	Revenue         float64   `bson:"revenue" json:"revenue"`
	FCR             *float64  `bson:"fcr,omitempty" json:"fcr"`
	FCRRating       string    `bson:"fcr_rating" json:"fcr_rating"`
	LatestAvgWeight *float64  `bson:"latest_avg_weight_g,omitempty" json:"latest_avg_weight_g"`
	LatestFishPerKg *float64  `bson:"latest_fish_per_kg,omitempty" json:"latest_fish_per_kg"`
	FeedEntries     int       `bson:"feed_entries" json:"feed_entries"`
	HarvestEntries  int       `bson:"harvest_entries" json:"harvest_entries"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

// SetFCR stores the ratio and its rating; a not-computable ratio is left empty.
func (r *PondReport) SetFCR(fcr calc.Value) {
	r.FCRRating = calc.RateFCR(fcr)
	r.FCR = optional(fcr)
}

// SetLatestSample records the most recent sampling figures.
func (r *PondReport) SetLatestSample(avgWeightG, fishPerKg calc.Value) {
	r.LatestAvgWeight = optional(avgWeightG)
	r.LatestFishPerKg = optional(fishPerKg)
}

func optional(v calc.Value) *float64 {
	f, ok := v.Float64()
	if !ok {
		return nil
	}
	return &f
}
