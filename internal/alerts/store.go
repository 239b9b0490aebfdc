package alerts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Alert is a persisted user intent: notify when an item's cheapest listing
// crosses a price threshold. The JSON shape matches the historical alerts
// file, including entries written before UUIDs existed.
type Alert struct {
	UUID       string `json:"uuid,omitempty"`
	ItemName   string `json:"item_name"`
	MinPrice   *int   `json:"min_price,omitempty"`
	MaxPrice   *int   `json:"max_price,omitempty"`
	World      string `json:"world,omitempty"`
	DataCenter string `json:"data_center,omitempty"`
	CreatedAt  string `json:"created_at"`
	Active     bool   `json:"active"`
}

// Location resolves the market location this alert is checked against:
// world if set, else data center, else the aggregate location.
func (a *Alert) Location(all string) string {
	if a.World != "" {
		return a.World
	}
	if a.DataCenter != "" {
		return a.DataCenter
	}
	return all
}

// Store maps item IDs (as strings, matching the JSON file keys) to that
// item's alerts in insertion order. Alert UUIDs are unique store-wide.
type Store map[string][]Alert

// ItemIDs returns the store's item keys in a stable order.
func (s Store) ItemIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Load reads the alert store from path. A missing file yields an empty
// store; malformed content yields a PersistenceError.
func Load(path string) (Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	if store == nil {
		store = Store{}
	}
	return store, nil
}

// Save atomically persists the full store to path (temp file + rename).
// On failure the in-memory store is untouched.
func Save(path string, store Store) error {
	data, err := json.MarshalIndent(store, "", "    ")
	if err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".alerts-*.json")
	if err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// CreateParams carries raw alert-creation input. Prices arrive as strings
// straight from input fields; empty means absent.
type CreateParams struct {
	ItemID     int
	ItemName   string
	MinPrice   string
	MaxPrice   string
	World      string
	DataCenter string
}

func parsePrice(field, raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &ValidationError{Field: field, Reason: "not a whole number"}
	}
	if n < 0 {
		return nil, &ValidationError{Field: field, Reason: "must not be negative"}
	}
	return &n, nil
}

// Create validates params, generates a fresh identifier, and appends the new
// alert to the item's bucket. At least one threshold must be present; both
// must parse as non-negative integers; min must not exceed max. World takes
// precedence over data center ("All" counts as no world).
func Create(store Store, p CreateParams) (*Alert, error) {
	minPrice, err := parsePrice("min_price", p.MinPrice)
	if err != nil {
		return nil, err
	}
	maxPrice, err := parsePrice("max_price", p.MaxPrice)
	if err != nil {
		return nil, err
	}
	if minPrice == nil && maxPrice == nil {
		return nil, &ValidationError{Field: "min_price/max_price", Reason: "at least one threshold is required"}
	}
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		return nil, &ValidationError{Field: "min_price", Reason: "must not exceed max_price"}
	}

	alert := Alert{
		UUID:      uuid.NewString(),
		ItemName:  p.ItemName,
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		CreatedAt: time.Now().Format("2006-01-02 15:04:05"),
		Active:    true,
	}
	if p.World != "" && p.World != "All" {
		alert.World = p.World
	} else if p.DataCenter != "" {
		alert.DataCenter = p.DataCenter
	}

	key := strconv.Itoa(p.ItemID)
	store[key] = append(store[key], alert)
	return &alert, nil
}

// ListForItem returns the alerts for one item, or an empty slice.
func ListForItem(store Store, itemID int) []Alert {
	return store[strconv.Itoa(itemID)]
}

// ItemAlert pairs an alert with the item it watches.
type ItemAlert struct {
	ItemID string
	Alert  Alert
}

// ListAll flattens the store: insertion order within each bucket, buckets in
// the store's stable key order.
func ListAll(store Store) []ItemAlert {
	var out []ItemAlert
	for _, id := range store.ItemIDs() {
		for _, a := range store[id] {
			out = append(out, ItemAlert{ItemID: id, Alert: a})
		}
	}
	return out
}

// DeleteByID removes the alert with the given identifier from whichever
// bucket holds it, dropping the bucket if it empties. Returns whether an
// alert was removed.
func DeleteByID(store Store, id string) bool {
	if id == "" {
		return false
	}
	for key, bucket := range store {
		for i, a := range bucket {
			if a.UUID == id {
				store[key] = append(bucket[:i:i], bucket[i+1:]...)
				if len(store[key]) == 0 {
					delete(store, key)
				}
				return true
			}
		}
	}
	return false
}

// DeleteByItemAndIndex removes an alert by position within one item's
// bucket. Kept for alerts persisted before identifiers existed; returns
// false when the index is out of range.
func DeleteByItemAndIndex(store Store, itemID int, index int) bool {
	key := strconv.Itoa(itemID)
	bucket, ok := store[key]
	if !ok || index < 0 || index >= len(bucket) {
		return false
	}
	store[key] = append(bucket[:index:index], bucket[index+1:]...)
	if len(store[key]) == 0 {
		delete(store, key)
	}
	return true
}
