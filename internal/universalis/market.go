package universalis

import (
	"context"
	"fmt"
	"net/url"
)

// LocationAll is the aggregate pseudo-location covering every world and
// data center. Alerts scoped to it are checked against the whole market.
const LocationAll = "All"

// Listing mirrors a single sell order in a Universalis market response.
type Listing struct {
	PricePerUnit   int    `json:"pricePerUnit"`
	Quantity       int    `json:"quantity"`
	HQ             bool   `json:"hq"`
	WorldName      string `json:"worldName"`
	LastReviewTime int64  `json:"lastReviewTime"` // epoch seconds, 0 when unknown
}

// Total is the listing's full price (unit price times quantity).
func (l Listing) Total() int { return l.PricePerUnit * l.Quantity }

// MarketSnapshot is the current market board state for one item at one
// location: listings in upstream order plus aggregate statistics.
type MarketSnapshot struct {
	ItemID    int       `json:"itemID"`
	WorldName string    `json:"worldName,omitempty"`
	DCName    string    `json:"dcName,omitempty"`
	Listings  []Listing `json:"listings"`

	AveragePrice   float64 `json:"averagePrice"`
	AveragePriceNQ float64 `json:"averagePriceNQ"`
	AveragePriceHQ float64 `json:"averagePriceHQ"`

	RegularSaleVelocity float64 `json:"regularSaleVelocity"`
	NQSaleVelocity      float64 `json:"nqSaleVelocity"`
	HQSaleVelocity      float64 `json:"hqSaleVelocity"`
}

// FetchMarketSnapshot fetches current listings for one item at one location.
// location is a world name, a data-center name, or LocationAll.
func (c *Client) FetchMarketSnapshot(ctx context.Context, itemID int, location string) (*MarketSnapshot, error) {
	return c.snapshots.fetch(ctx, c, itemID, location)
}

func (c *Client) fetchMarketSnapshot(ctx context.Context, itemID int, location string) (*MarketSnapshot, error) {
	u := fmt.Sprintf("%s/%s/%d", c.baseURL, url.PathEscape(location), itemID)
	var snap MarketSnapshot
	if err := c.GetJSON(ctx, u, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SaleEntry is one historical sale record.
type SaleEntry struct {
	PricePerUnit int    `json:"pricePerUnit"`
	Quantity     int    `json:"quantity"`
	HQ           bool   `json:"hq"`
	WorldName    string `json:"worldName"`
	Timestamp    int64  `json:"timestamp"` // epoch seconds
}

type historyResponse struct {
	Entries []SaleEntry `json:"entries"`
}

// FetchPriceHistory fetches historical sales for one item at one location,
// limited to the last windowDays days (0 means no time bound).
func (c *Client) FetchPriceHistory(ctx context.Context, itemID int, location string, windowDays int) ([]SaleEntry, error) {
	u := fmt.Sprintf("%s/history/%s/%d?entriesToReturn=3600", c.baseURL, url.PathEscape(location), itemID)
	if windowDays > 0 {
		// statsWithin/entriesWithin are milliseconds.
		within := int64(windowDays) * 24 * 60 * 60 * 1000
		u += fmt.Sprintf("&statsWithin=%d&entriesWithin=%d", within, within)
	}
	var resp historyResponse
	if err := c.GetJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}
