package models

import "github.com/mamadbah2/fishfarm/internal/calc"

// Pond is a physical aquaculture unit as returned by the backend.
type Pond struct {
	ID          int        `json:"id"`
	PondID      int        `json:"pond_id,omitempty"`
	Name        string     `json:"name"`
	AreaDecimal calc.Value `json:"area_decimal"`
	DepthFt     calc.Value `json:"depth_ft"`
	VolumeM3    calc.Value `json:"volume_m3"`
	Location    string     `json:"location"`
	IsActive    bool       `json:"is_active"`
}

// Key returns the pond identifier regardless of which field the backend filled.
func (p Pond) Key() int {
	if p.ID != 0 {
		return p.ID
	}
	return p.PondID
}

// Species is a farmed fish species.
type Species struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	ScientificName string `json:"scientific_name"`
}

// CustomerStock is a customer-owned fish lot kept in a pond.
type CustomerStock struct {
	CustomerStockID int        `json:"customer_stock_id"`
	FishCount       int        `json:"fish_count"`
	CurrentStock    calc.Value `json:"current_stock"`
	UnitCost        calc.Value `json:"unit_cost"`
	Unit            string     `json:"unit"`
}

// Stocking is a persisted stocking event.
type Stocking struct {
	StockingID    int        `json:"stocking_id"`
	Pond          int        `json:"pond"`
	Species       int        `json:"species"`
	Date          string     `json:"date"`
	Pcs           int        `json:"pcs"`
	LinePcsPerKg  calc.Value `json:"line_pcs_per_kg"`
	InitialAvgG   calc.Value `json:"initial_avg_g"`
	TotalWeightKg calc.Value `json:"total_weight_kg"`
	Notes         string     `json:"notes"`
	PondName      string     `json:"pond_name"`
	SpeciesName   string     `json:"species_name"`
}

// FishSampling is a persisted growth sampling.
type FishSampling struct {
	ID              int        `json:"id"`
	Pond            int        `json:"pond"`
	Date            string     `json:"date"`
	SampleSize      int        `json:"sample_size"`
	TotalWeightKg   calc.Value `json:"total_weight_kg"`
	AverageWeightKg calc.Value `json:"average_weight_kg"`
	AverageWeightG  calc.Value `json:"average_weight_g"`
	FishPerKg       calc.Value `json:"fish_per_kg"`
	ConditionFactor calc.Value `json:"condition_factor"`
	Notes           string     `json:"notes"`
	PondName        string     `json:"pond_name"`
}

// Harvest is a persisted harvest.
type Harvest struct {
	ID            int        `json:"id"`
	Pond          int        `json:"pond"`
	Date          string     `json:"date"`
	TotalWeightKg calc.Value `json:"total_weight_kg"`
	TotalCount    int        `json:"total_count"`
	AvgWeightG    calc.Value `json:"avg_weight_g"`
	PricePerKg    calc.Value `json:"price_per_kg"`
	TotalRevenue  calc.Value `json:"total_revenue"`
	Notes         string     `json:"notes"`
	PondName      string     `json:"pond_name"`
}

// Mortality is a persisted mortality event.
type Mortality struct {
	ID            int        `json:"id"`
	Pond          int        `json:"pond"`
	Date          string     `json:"date"`
	Count         int        `json:"count"`
	AvgWeightG    calc.Value `json:"avg_weight_g"`
	TotalWeightKg calc.Value `json:"total_weight_kg"`
	Cause         string     `json:"cause"`
	Notes         string     `json:"notes"`
	PondName      string     `json:"pond_name"`
}

// Feed is a persisted feeding.
type Feed struct {
	ID                 int        `json:"id"`
	Pond               int        `json:"pond"`
	FeedType           int        `json:"feed_type"`
	Date               string     `json:"date"`
	AmountKg           calc.Value `json:"amount_kg"`
	CostPerPacket      calc.Value `json:"cost_per_packet"`
	TotalCost          calc.Value `json:"total_cost"`
	BiomassAtFeedingKg calc.Value `json:"biomass_at_feeding_kg"`
	FeedingRatePercent calc.Value `json:"feeding_rate_percent"`
	Notes              string     `json:"notes"`
	PondName           string     `json:"pond_name"`
	FeedTypeName       string     `json:"feed_type_name"`
}

// AssetCalculationResult is the server-computed pond valuation. It is only
// rendered, never recomputed locally.
type AssetCalculationResult struct {
	PondName               string     `json:"pond_name"`
	PondAreaDecimal        calc.Value `json:"pond_area_decimal"`
	PondAreaSqm            calc.Value `json:"pond_area_sqm"`
	FishBiomassValue       calc.Value `json:"fish_biomass_value"`
	FeedInventoryValue     calc.Value `json:"feed_inventory_value"`
	MedicineInventoryValue calc.Value `json:"medicine_inventory_value"`
	EquipmentValue         calc.Value `json:"equipment_value"`
	TotalAssets            calc.Value `json:"total_assets"`
	Breakdown              struct {
		FishBiomass   calc.Value `json:"fish_biomass"`
		FeedStock     calc.Value `json:"feed_stock"`
		MedicineStock calc.Value `json:"medicine_stock"`
		Equipment     calc.Value `json:"equipment"`
	} `json:"breakdown"`
	Recommendations []string `json:"recommendations"`
	Warnings        []string `json:"warnings"`
}

// FcrQuery filters the backend FCR analysis.
type FcrQuery struct {
	Pond      int
	Species   int
	StartDate string
	EndDate   string
}

// FcrAnalysis is the backend's per pond/species FCR breakdown.
type FcrAnalysis struct {
	Summary struct {
		TotalFeedKg       calc.Value `json:"total_feed_kg"`
		TotalWeightGainKg calc.Value `json:"total_weight_gain_kg"`
		OverallFCR        calc.Value `json:"overall_fcr"`
		FCRStatus         string     `json:"fcr_status"`
	} `json:"summary"`
	Rows []struct {
		PondID            int        `json:"pond_id"`
		PondName          string     `json:"pond_name"`
		SpeciesID         int        `json:"species_id"`
		SpeciesName       string     `json:"species_name"`
		TotalFeedKg       calc.Value `json:"total_feed_kg"`
		TotalWeightGainKg calc.Value `json:"total_weight_gain_kg"`
		FCR               calc.Value `json:"fcr"`
		FCRStatus         string     `json:"fcr_status"`
	} `json:"fcr_data"`
}
