package universalis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// snapshotTTL is how long a fetched snapshot stays fresh. Universalis
// aggregates are only recomputed every few minutes upstream, so re-fetching
// sooner returns identical data.
const snapshotTTL = 60 * time.Second

type snapshotKey struct {
	ItemID   int
	Location string
}

type snapshotEntry struct {
	snap    *MarketSnapshot
	fetched time.Time
}

// snapshotCache is a thread-safe TTL cache for market snapshots. A
// singleflight.Group coalesces concurrent fetches of the same item+location
// so the arbitrage fan-out and the monitor loop never duplicate requests.
type snapshotCache struct {
	mu      sync.RWMutex
	entries map[snapshotKey]*snapshotEntry
	group   singleflight.Group
}

func newSnapshotCache() *snapshotCache {
	return &snapshotCache{entries: make(map[snapshotKey]*snapshotEntry)}
}

func (sc *snapshotCache) get(key snapshotKey) (*MarketSnapshot, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	e, ok := sc.entries[key]
	if !ok || time.Since(e.fetched) > snapshotTTL {
		return nil, false
	}
	return e.snap, true
}

func (sc *snapshotCache) put(key snapshotKey, snap *MarketSnapshot) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.entries[key] = &snapshotEntry{snap: snap, fetched: time.Now()}
}

func (sc *snapshotCache) fetch(ctx context.Context, c *Client, itemID int, location string) (*MarketSnapshot, error) {
	key := snapshotKey{itemID, location}
	if snap, ok := sc.get(key); ok {
		return snap, nil
	}

	sfKey := fmt.Sprintf("%d:%s", itemID, location)
	result, err, _ := sc.group.Do(sfKey, func() (interface{}, error) {
		if snap, ok := sc.get(key); ok {
			return snap, nil
		}
		snap, err := c.fetchMarketSnapshot(ctx, itemID, location)
		if err != nil {
			return nil, err
		}
		sc.put(key, snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*MarketSnapshot), nil
}
