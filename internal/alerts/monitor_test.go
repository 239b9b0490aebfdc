package alerts

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"ffuniverse/internal/notify"
	"ffuniverse/internal/universalis"
	"ffuniverse/internal/xivapi"
)

type fakeMarket struct {
	mu        sync.Mutex
	snapshots map[int]*universalis.MarketSnapshot
	failFor   map[int]bool
	calls     int
}

func (f *fakeMarket) FetchMarketSnapshot(ctx context.Context, itemID int, location string) (*universalis.MarketSnapshot, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failFor[itemID] {
		return nil, &universalis.FetchError{URL: "test", StatusCode: 500}
	}
	snap, ok := f.snapshots[itemID]
	if !ok {
		return nil, &universalis.FetchError{URL: "test", StatusCode: 404}
	}
	return snap, nil
}

type fakeItems struct {
	hq  map[int]bool
	err error
}

func (f *fakeItems) FetchItem(ctx context.Context, itemID int) (*xivapi.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &xivapi.Item{ID: itemID, NameEN: "Item " + strconv.Itoa(itemID), CanBeHQ: f.hq[itemID]}, nil
}

type captureSink struct {
	mu       sync.Mutex
	name     string
	err      error
	messages []string
}

func (c *captureSink) Name() string { return c.name }

func (c *captureSink) Send(title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, title+": "+message)
	return nil
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func writeStore(t *testing.T, alertsByItem map[int][]Alert) string {
	t.Helper()
	store := Store{}
	for id, list := range alertsByItem {
		store[strconv.Itoa(id)] = list
	}
	path := filepath.Join(t.TempDir(), "alerts.json")
	if err := Save(path, store); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return path
}

func TestMonitor_TriggersAndDispatches(t *testing.T) {
	path := writeStore(t, map[int][]Alert{
		5114: {{UUID: "a1", ItemName: "Dark Matter", MinPrice: intPtr(1000), Active: true}},
	})
	market := &fakeMarket{snapshots: map[int]*universalis.MarketSnapshot{
		5114: snapshotWithPrices(500),
	}}
	sink := &captureSink{name: "capture"}

	m := NewMonitor(MonitorConfig{StorePath: path, Interval: time.Hour}, market, &fakeItems{}, []notify.Sink{sink}, nil)
	m.runCycle(context.Background())

	if sink.count() != 1 {
		t.Fatalf("notifications = %d, want 1", sink.count())
	}
}

func TestMonitor_SkipsInactiveAlerts(t *testing.T) {
	path := writeStore(t, map[int][]Alert{
		5114: {{UUID: "a1", ItemName: "Dark Matter", MinPrice: intPtr(1000), Active: false}},
	})
	market := &fakeMarket{snapshots: map[int]*universalis.MarketSnapshot{
		5114: snapshotWithPrices(500),
	}}
	sink := &captureSink{name: "capture"}

	m := NewMonitor(MonitorConfig{StorePath: path, Interval: time.Hour}, market, &fakeItems{}, []notify.Sink{sink}, nil)
	m.runCycle(context.Background())

	if sink.count() != 0 {
		t.Fatalf("notifications = %d, want 0", sink.count())
	}
	if market.calls != 0 {
		t.Errorf("market calls = %d, want 0 (inactive alerts are not fetched)", market.calls)
	}
}

func TestMonitor_PartialFailureIsolation(t *testing.T) {
	path := writeStore(t, map[int][]Alert{
		1: {{UUID: "a1", ItemName: "Broken", MinPrice: intPtr(1000), Active: true}},
		2: {{UUID: "a2", ItemName: "Working", MinPrice: intPtr(1000), Active: true}},
	})
	market := &fakeMarket{
		snapshots: map[int]*universalis.MarketSnapshot{2: snapshotWithPrices(500)},
		failFor:   map[int]bool{1: true},
	}
	sink := &captureSink{name: "capture"}

	m := NewMonitor(MonitorConfig{StorePath: path, Interval: time.Hour}, market, &fakeItems{}, []notify.Sink{sink}, nil)
	m.runCycle(context.Background())

	if sink.count() != 1 {
		t.Fatalf("notifications = %d, want 1 (failure must not abort the cycle)", sink.count())
	}
}

func TestMonitor_SinkFailureDoesNotBlockOthers(t *testing.T) {
	path := writeStore(t, map[int][]Alert{
		5114: {{UUID: "a1", ItemName: "Dark Matter", MinPrice: intPtr(1000), Active: true}},
	})
	market := &fakeMarket{snapshots: map[int]*universalis.MarketSnapshot{
		5114: snapshotWithPrices(500),
	}}
	broken := &captureSink{name: "broken", err: errors.New("boom")}
	working := &captureSink{name: "working"}

	m := NewMonitor(MonitorConfig{StorePath: path, Interval: time.Hour}, market, &fakeItems{}, []notify.Sink{broken, working}, nil)
	m.runCycle(context.Background())

	if working.count() != 1 {
		t.Fatalf("working sink notifications = %d, want 1", working.count())
	}
}

func TestMonitor_HQItemUsesHQFloor(t *testing.T) {
	path := writeStore(t, map[int][]Alert{
		5114: {{UUID: "a1", ItemName: "Craftable", MinPrice: intPtr(80), Active: true}},
	})
	// NQ floor 50 would trigger; HQ floor 100 must not.
	market := &fakeMarket{snapshots: map[int]*universalis.MarketSnapshot{
		5114: {Listings: []universalis.Listing{
			{PricePerUnit: 50, HQ: false, WorldName: "Jenova"},
			{PricePerUnit: 100, HQ: true, WorldName: "Jenova"},
		}},
	}}
	sink := &captureSink{name: "capture"}

	m := NewMonitor(MonitorConfig{StorePath: path, Interval: time.Hour}, market, &fakeItems{hq: map[int]bool{5114: true}}, []notify.Sink{sink}, nil)
	m.runCycle(context.Background())

	if sink.count() != 0 {
		t.Fatalf("notifications = %d, want 0 (HQ floor is inside bounds)", sink.count())
	}
}

func TestMonitor_StopIsFastAndIdempotent(t *testing.T) {
	path := writeStore(t, map[int][]Alert{})
	market := &fakeMarket{snapshots: map[int]*universalis.MarketSnapshot{}}

	m := NewMonitor(MonitorConfig{StorePath: path, Interval: time.Hour}, market, &fakeItems{}, nil, nil)
	m.Start()
	m.Start() // second Start must be a no-op

	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Stop()
		m.Stop() // second Stop must be a no-op
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return within 2s despite 1h interval")
	}
}

func TestMonitor_RecordsHistory(t *testing.T) {
	path := writeStore(t, map[int][]Alert{
		5114: {{UUID: "a1", ItemName: "Dark Matter", MinPrice: intPtr(1000), Active: true}},
	})
	market := &fakeMarket{snapshots: map[int]*universalis.MarketSnapshot{
		5114: snapshotWithPrices(500),
	}}
	rec := &captureRecorder{}

	m := NewMonitor(MonitorConfig{StorePath: path, Interval: time.Hour}, market, &fakeItems{}, []notify.Sink{&captureSink{name: "capture"}}, rec)
	m.runCycle(context.Background())

	if len(rec.entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(rec.entries))
	}
	e := rec.entries[0]
	if e.t.AlertID != "a1" || e.t.Price != 500 || e.t.Direction != "under" {
		t.Errorf("recorded %+v", e.t)
	}
	if len(e.sent) != 1 || e.sent[0] != "capture" {
		t.Errorf("sent = %v, want [capture]", e.sent)
	}
}

type captureRecorder struct {
	entries []recordedEntry
}

type recordedEntry struct {
	t      *Triggered
	sent   []string
	failed map[string]string
}

func (c *captureRecorder) RecordTriggered(t *Triggered, sent []string, failed map[string]string) {
	c.entries = append(c.entries, recordedEntry{t, sent, failed})
}
