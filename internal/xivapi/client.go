package xivapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const baseURL = "https://xivapi.com"

const userAgent = "ffuniverse/1.0 (github.com)"

// FetchError describes a failed XIVAPI request. Callers treat it as
// "metadata unavailable" and skip whatever needed it.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("xivapi %d: %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("xivapi: %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Item is the game-data metadata for one item.
type Item struct {
	ID          int    `json:"ID"`
	NameEN      string `json:"Name_en"`
	NameDE      string `json:"Name_de"`
	NameFR      string `json:"Name_fr"`
	NameJA      string `json:"Name_ja"`
	Description string `json:"Description_en"`
	CanBeHQ     bool   `json:"-"`
}

// Name returns the item name in the given language, falling back to English.
func (i *Item) Name(lang string) string {
	var name string
	switch lang {
	case "de":
		name = i.NameDE
	case "fr":
		name = i.NameFR
	case "ja":
		name = i.NameJA
	default:
		name = i.NameEN
	}
	if name == "" {
		name = i.NameEN
	}
	if name == "" {
		name = "Unknown Item"
	}
	return name
}

// itemResponse covers the XIVAPI fields we consume. CanBeHq arrives as 0/1.
type itemResponse struct {
	Item
	CanBeHq int `json:"CanBeHq"`
}

// ItemStore is a persistent L2 cache for item metadata.
type ItemStore interface {
	GetItem(itemID int) (*Item, bool)
	SetItem(item *Item)
}

// Client fetches item metadata with two cache levels in front of the API:
// an in-memory sync.Map (L1) and an optional persistent store (L2).
type Client struct {
	http      *http.Client
	baseURL   string
	itemCache sync.Map // int -> *Item
	itemStore ItemStore
}

// NewClient creates an XIVAPI client with the given persistent cache store
// (may be nil).
func NewClient(store ItemStore) *Client {
	return &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		baseURL:   baseURL,
		itemStore: store,
	}
}

// FetchItem returns metadata for one item, consulting L1, then L2, then the
// API. Results from lower levels are promoted upward.
func (c *Client) FetchItem(ctx context.Context, itemID int) (*Item, error) {
	if v, ok := c.itemCache.Load(itemID); ok {
		return v.(*Item), nil
	}
	if c.itemStore != nil {
		if item, ok := c.itemStore.GetItem(itemID); ok {
			c.itemCache.Store(itemID, item)
			return item, nil
		}
	}

	url := fmt.Sprintf("%s/Item/%d", c.baseURL, itemID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	var ir itemResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	item := ir.Item
	item.ID = itemID
	item.CanBeHQ = ir.CanBeHq != 0

	c.itemCache.Store(itemID, &item)
	if c.itemStore != nil {
		c.itemStore.SetItem(&item)
	}
	return &item, nil
}
