package calc

import "math"

const (
	gramsPerKg = 1000.0

	// DefaultPacketSizeKg is the weight of one feed packet.
	DefaultPacketSizeKg = 25.0

	sqmPerDecimal = 40.46
	metersPerFoot = 0.3048
)

// AverageWeightGrams is the mean weight per fish in grams for a weighed batch.
// Used for stocking (pieces) and sampling (sample size) alike.
func AverageWeightGrams(totalWeightKg, pieceCount Value) Value {
	if !pieceCount.positive() || !totalWeightKg.positive() {
		return NotComputable
	}
	return Of(totalWeightKg.v * gramsPerKg / pieceCount.v)
}

// AverageWeightKg is AverageWeightGrams expressed in kilograms.
func AverageWeightKg(totalWeightKg, pieceCount Value) Value {
	if !pieceCount.positive() || !totalWeightKg.positive() {
		return NotComputable
	}
	return Of(totalWeightKg.v / pieceCount.v)
}

// PiecesPerKilogram is the line number of a batch: fish count per kg.
func PiecesPerKilogram(pieceCount, totalWeightKg Value) Value {
	if !totalWeightKg.positive() || !pieceCount.positive() {
		return NotComputable
	}
	return Of(pieceCount.v / totalWeightKg.v)
}

// WeightFromLineNumber is the lot weight implied by a fish count and a line
// number (pieces per kg).
func WeightFromLineNumber(fishCount, lineNumber Value) Value {
	if !fishCount.positive() || !lineNumber.positive() {
		return NotComputable
	}
	return Of(fishCount.v / lineNumber.v)
}

// CountFromLineNumber is the whole number of fish in a lot of the given weight
// at the given line number.
func CountFromLineNumber(lineNumber, totalWeightKg Value) Value {
	if !lineNumber.positive() || !totalWeightKg.positive() {
		return NotComputable
	}
	return Of(math.Round(lineNumber.v * totalWeightKg.v))
}

// LineTriple is an invoice fish line: count, line number and weight.
type LineTriple struct {
	FishCount     Value `json:"fish_count"`
	LineNumber    Value `json:"line_number"`
	TotalWeightKg Value `json:"total_weight"`
}

// CompleteLineTriple fills the one missing member of t from the other two.
// A member counts as present only when it is positive. With fewer than two
// present, or all three, t is returned unchanged.
func CompleteLineTriple(t LineTriple) LineTriple {
	hasCount, hasLine, hasWeight := t.FishCount.positive(), t.LineNumber.positive(), t.TotalWeightKg.positive()
	switch {
	case hasCount && hasLine && !hasWeight:
		t.TotalWeightKg = WeightFromLineNumber(t.FishCount, t.LineNumber)
	case hasCount && hasWeight && !hasLine:
		t.LineNumber = PiecesPerKilogram(t.FishCount, t.TotalWeightKg)
	case hasLine && hasWeight && !hasCount:
		t.FishCount = CountFromLineNumber(t.LineNumber, t.TotalWeightKg)
	}
	return t
}

// BiomassLostKg is the weight of dead fish: count times average weight in kg.
func BiomassLostKg(deadCount, averageWeightKg Value) Value {
	if !deadCount.positive() || !averageWeightKg.positive() {
		return NotComputable
	}
	return Of(deadCount.v * averageWeightKg.v)
}

// ConditionFactorProxy is the weight-only condition figure recorded with a
// sampling. It is the average weight in grams.
func ConditionFactorProxy(averageWeightGrams Value) Value {
	return averageWeightGrams
}

// HarvestRevenue is weight times price. A missing price is not computable so
// no zero-value sale is implied.
func HarvestRevenue(totalWeightKg, pricePerKg Value) Value {
	if !totalWeightKg.nonNegative() || !pricePerKg.nonNegative() {
		return NotComputable
	}
	return Of(totalWeightKg.v * pricePerKg.v)
}

// FeedConversionRatio is total feed divided by total harvested weight.
func FeedConversionRatio(totalFeedKg, totalHarvestedKg Value) Value {
	if !totalHarvestedKg.positive() || !totalFeedKg.nonNegative() {
		return NotComputable
	}
	return Of(totalFeedKg.v / totalHarvestedKg.v)
}

// BiomassKg estimates standing stock from a fish count and average weight.
func BiomassKg(fishCount, averageWeightGrams Value) Value {
	if !fishCount.positive() || !averageWeightGrams.positive() {
		return NotComputable
	}
	return Of(fishCount.v * averageWeightGrams.v / gramsPerKg)
}

// FeedingRatePercent is the feed amount as a percentage of biomass.
func FeedingRatePercent(feedKg, biomassKg Value) Value {
	if !biomassKg.positive() || !feedKg.nonNegative() {
		return NotComputable
	}
	return Of(feedKg.v / biomassKg.v * 100)
}

// FeedCost prices a feed amount from the per-packet cost. A non-positive
// packet size falls back to DefaultPacketSizeKg.
func FeedCost(feedKg, costPerPacket, packetSizeKg Value) Value {
	if !feedKg.nonNegative() || !costPerPacket.nonNegative() {
		return NotComputable
	}
	return Of(feedKg.v / packetSize(packetSizeKg) * costPerPacket.v)
}

// PacketsFromKg converts a feed weight to packets.
func PacketsFromKg(kg, packetSizeKg Value) Value {
	if !kg.nonNegative() {
		return NotComputable
	}
	return Of(kg.v / packetSize(packetSizeKg))
}

// KgFromPackets converts a packet count to feed weight.
func KgFromPackets(packets, packetSizeKg Value) Value {
	if !packets.nonNegative() {
		return NotComputable
	}
	return Of(packets.v * packetSize(packetSizeKg))
}

// PondVolumeM3 converts pond area in decimals and depth in feet to cubic meters.
func PondVolumeM3(areaDecimal, depthFt Value) Value {
	if !areaDecimal.nonNegative() || !depthFt.nonNegative() {
		return NotComputable
	}
	return Of(areaDecimal.v * sqmPerDecimal * depthFt.v * metersPerFoot)
}

func packetSize(v Value) float64 {
	if v.positive() {
		return v.v
	}
	return DefaultPacketSizeKg
}

// FCR rating labels.
const (
	RatingExcellent = "Excellent"
	RatingGood      = "Good"
	RatingAverage   = "Average"
	RatingPoor      = "Poor"
)

// RateFCR classifies a feed conversion ratio. Lower is better.
func RateFCR(fcr Value) string {
	switch {
	case !fcr.ok:
		return NotApplicable
	case fcr.v < 1.5:
		return RatingExcellent
	case fcr.v < 2.0:
		return RatingGood
	case fcr.v < 2.5:
		return RatingAverage
	default:
		return RatingPoor
	}
}
