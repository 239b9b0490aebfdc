package db

import (
	"time"

	"ffuniverse/internal/xivapi"
)

// itemCacheTTL bounds how long cached item metadata is trusted. Item names
// and the HQ capability are effectively static, so this is generous.
const itemCacheTTL = 30 * 24 * time.Hour

// GetItem retrieves cached item metadata. Returns false if absent or stale.
// Implements xivapi.ItemStore.
func (d *DB) GetItem(itemID int) (*xivapi.Item, bool) {
	var item xivapi.Item
	var canBeHQ int
	var cachedAt string
	err := d.sql.QueryRow(`
		SELECT item_id, name_en, name_de, name_fr, name_ja, description, can_be_hq, cached_at
		  FROM items
		 WHERE item_id = ?
	`, itemID).Scan(
		&item.ID,
		&item.NameEN,
		&item.NameDE,
		&item.NameFR,
		&item.NameJA,
		&item.Description,
		&canBeHQ,
		&cachedAt,
	)
	if err != nil {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, cachedAt)
	if err != nil || time.Since(t) > itemCacheTTL {
		return nil, false
	}
	item.CanBeHQ = canBeHQ != 0
	return &item, true
}

// SetItem stores item metadata in the cache. Implements xivapi.ItemStore.
func (d *DB) SetItem(item *xivapi.Item) {
	canBeHQ := 0
	if item.CanBeHQ {
		canBeHQ = 1
	}
	d.sql.Exec(`
		INSERT INTO items (item_id, name_en, name_de, name_fr, name_ja, description, can_be_hq, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			name_en = excluded.name_en,
			name_de = excluded.name_de,
			name_fr = excluded.name_fr,
			name_ja = excluded.name_ja,
			description = excluded.description,
			can_be_hq = excluded.can_be_hq,
			cached_at = excluded.cached_at
	`,
		item.ID,
		item.NameEN,
		item.NameDE,
		item.NameFR,
		item.NameJA,
		item.Description,
		canBeHQ,
		time.Now().UTC().Format(time.RFC3339),
	)
}
