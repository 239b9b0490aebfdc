package alerts

import (
	"math"

	"ffuniverse/internal/universalis"
)

// Triggered is the result of an alert crossing its threshold. Consumed by
// notification sinks, never persisted.
type Triggered struct {
	AlertID     string
	ItemName    string
	Price       int    // the cheapest listing price that crossed the threshold
	Direction   string // "under" or "over"
	TargetPrice int    // the threshold that was crossed
	Location    string // the market location actually queried
}

// Evaluate checks one alert against a market snapshot. requiresHQ restricts
// the comparison to high-quality listings; items with a separate HQ market
// produce false alerts when evaluated against the wrong tier. Returns nil
// when the alert is inactive, no evaluable listing exists, or the cheapest
// listing sits inside the thresholds.
func Evaluate(alert *Alert, snapshot *universalis.MarketSnapshot, requiresHQ bool, location string) *Triggered {
	if !alert.Active {
		return nil
	}

	minPrice := 0
	if alert.MinPrice != nil {
		minPrice = *alert.MinPrice
	}
	maxPrice := math.MaxInt
	if alert.MaxPrice != nil {
		maxPrice = *alert.MaxPrice
	}

	lowest := -1
	for _, l := range snapshot.Listings {
		if requiresHQ && !l.HQ {
			continue
		}
		if lowest < 0 || l.PricePerUnit < lowest {
			lowest = l.PricePerUnit
		}
	}
	if lowest < 0 {
		return nil
	}

	switch {
	case lowest < minPrice:
		return &Triggered{
			AlertID:     alert.UUID,
			ItemName:    alert.ItemName,
			Price:       lowest,
			Direction:   "under",
			TargetPrice: minPrice,
			Location:    location,
		}
	case lowest > maxPrice:
		return &Triggered{
			AlertID:     alert.UUID,
			ItemName:    alert.ItemName,
			Price:       lowest,
			Direction:   "over",
			TargetPrice: maxPrice,
			Location:    location,
		}
	}
	return nil
}
