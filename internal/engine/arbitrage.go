package engine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"ffuniverse/internal/logger"
	"ffuniverse/internal/universalis"
	"ffuniverse/internal/xivapi"
)

const (
	// DefaultMargin is the price multiplier a candidate must undercut for the
	// gap to count as an opportunity (0.9 = at least 10% cheaper elsewhere).
	// Filters out noise from near-identical prices.
	DefaultMargin = 0.9
	// DefaultConcurrency caps simultaneous data-center fetches.
	DefaultConcurrency = 8
	// DefaultHotVelocity is the sale-velocity threshold for IsHotItem.
	DefaultHotVelocity = 5.0
)

// MarketSource fetches current listings for one item at one location.
type MarketSource interface {
	FetchMarketSnapshot(ctx context.Context, itemID int, location string) (*universalis.MarketSnapshot, error)
}

// ItemSource fetches item metadata.
type ItemSource interface {
	FetchItem(ctx context.Context, itemID int) (*xivapi.Item, error)
}

// Scanner finds the cheapest cross-world listing for an item and reports an
// opportunity when the gap to the reference world clears the margin.
type Scanner struct {
	Market      MarketSource
	Items       ItemSource
	DataCenters map[string][]string // DC name -> world names; includes the aggregate bucket
	Margin      float64
	Concurrency int
	Language    string
}

// NewScanner creates a Scanner with default margin and concurrency.
func NewScanner(market MarketSource, items ItemSource, dataCenters map[string][]string) *Scanner {
	return &Scanner{
		Market:      market,
		Items:       items,
		DataCenters: dataCenters,
		Margin:      DefaultMargin,
		Concurrency: DefaultConcurrency,
		Language:    "en",
	}
}

// candidate is a world's cheapest listing for the scanned item.
type candidate struct {
	price int
	world string
	dc    string
}

// FindArbitrage computes the lowest listing price for an item across all
// worlds of the reference data center (and, when allDataCenters is set,
// every other known data center) and compares it against the reference
// world's own cheapest listing. Returns nil when no reference price exists
// or the best gap stays inside the margin.
func (s *Scanner) FindArbitrage(ctx context.Context, itemID int, referenceWorld, dataCenter string, allDataCenters bool) (*ArbitrageResult, error) {
	// No single reference price exists for the aggregate location.
	if referenceWorld == "" || referenceWorld == universalis.LocationAll {
		return nil, nil
	}

	requiresHQ := false
	itemName := ""
	if item, err := s.Items.FetchItem(ctx, itemID); err != nil {
		logger.Warn("Arbitrage", fmt.Sprintf("Item lookup failed for %d: %v", itemID, err))
	} else {
		requiresHQ = item.CanBeHQ
		itemName = item.Name(s.Language)
	}

	snapshot, err := s.Market.FetchMarketSnapshot(ctx, itemID, dataCenter)
	if err != nil {
		return nil, err
	}

	worldFloors := lowestByWorld(snapshot.Listings, requiresHQ)
	refPrice, ok := worldFloors[referenceWorld]
	if !ok {
		return nil, nil
	}

	best := candidate{price: refPrice, world: referenceWorld, dc: dataCenter}
	for world, price := range worldFloors {
		if world == referenceWorld {
			continue
		}
		if price < best.price {
			best = candidate{price: price, world: world, dc: dataCenter}
		}
	}

	if allDataCenters {
		if c, ok := s.scanOtherDataCenters(ctx, itemID, dataCenter, requiresHQ); ok && c.price < best.price {
			best = c
		}
	}

	margin := s.Margin
	if margin <= 0 {
		margin = DefaultMargin
	}
	if float64(best.price) >= float64(refPrice)*margin {
		return nil, nil
	}

	profit := refPrice - best.price
	return &ArbitrageResult{
		ItemID:           itemID,
		ItemName:         itemName,
		ReferenceWorld:   referenceWorld,
		ReferencePrice:   refPrice,
		LowestWorld:      best.world,
		LowestPrice:      best.price,
		LowestDataCenter: best.dc,
		PotentialProfit:  profit,
		ProfitPercentage: float64(profit) / float64(best.price) * 100,
		SaleVelocity:     snapshot.RegularSaleVelocity,
		HQOnly:           requiresHQ,
	}, nil
}

// scanOtherDataCenters fans out one snapshot fetch per other data center
// under a bounded concurrency limit and reduces to the single cheapest
// candidate. A failed fetch contributes no candidate. The reduction is a
// running minimum, so completion order does not matter.
func (s *Scanner) scanOtherDataCenters(ctx context.Context, itemID int, excludeDC string, requiresHQ bool) (candidate, bool) {
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var mu sync.Mutex
	best := candidate{}
	found := false

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for dc := range s.DataCenters {
		if dc == excludeDC || dc == universalis.LocationAll {
			continue
		}
		dc := dc
		g.Go(func() error {
			snap, err := s.Market.FetchMarketSnapshot(gctx, itemID, dc)
			if err != nil {
				logger.Warn("Arbitrage", fmt.Sprintf("Fetch failed for %s: %v", dc, err))
				return nil
			}
			for world, price := range lowestByWorld(snap.Listings, requiresHQ) {
				mu.Lock()
				if !found || price < best.price {
					best = candidate{price: price, world: world, dc: dc}
					found = true
				}
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return best, found
}

// lowestByWorld partitions listings by source world and keeps each world's
// minimum unit price, restricted to HQ listings when hqOnly is set.
func lowestByWorld(listings []universalis.Listing, hqOnly bool) map[string]int {
	floors := make(map[string]int)
	for _, l := range listings {
		if hqOnly && !l.HQ {
			continue
		}
		if l.WorldName == "" {
			continue
		}
		if cur, ok := floors[l.WorldName]; !ok || l.PricePerUnit < cur {
			floors[l.WorldName] = l.PricePerUnit
		}
	}
	return floors
}

// IsHotItem reports whether an item sells fast enough to be worth flagging.
func IsHotItem(snapshot *universalis.MarketSnapshot, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultHotVelocity
	}
	return snapshot.RegularSaleVelocity >= threshold
}
