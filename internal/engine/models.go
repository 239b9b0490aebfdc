package engine

// ArbitrageResult represents a profitable cross-world buy opportunity:
// the item is listed cheaper on another world than on the reference world.
type ArbitrageResult struct {
	ItemID           int
	ItemName         string
	ReferenceWorld   string
	ReferencePrice   int
	LowestWorld      string
	LowestPrice      int
	LowestDataCenter string
	PotentialProfit  int     // reference price minus lowest price
	ProfitPercentage float64 // potential profit / lowest price * 100
	SaleVelocity     float64 // reference-DC regular sale velocity
	HQOnly           bool    // true when only HQ listings were considered
}
