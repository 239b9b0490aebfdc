package alerts

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"ffuniverse/internal/logger"
	"ffuniverse/internal/notify"
	"ffuniverse/internal/universalis"
	"ffuniverse/internal/xivapi"
)

// MarketSource fetches current listings for one item at one location.
type MarketSource interface {
	FetchMarketSnapshot(ctx context.Context, itemID int, location string) (*universalis.MarketSnapshot, error)
}

// ItemSource fetches item metadata (for the HQ-capability flag).
type ItemSource interface {
	FetchItem(ctx context.Context, itemID int) (*xivapi.Item, error)
}

// HistoryRecorder receives a record of every dispatched notification.
// Optional; the SQLite alert history implements it.
type HistoryRecorder interface {
	RecordTriggered(t *Triggered, sent []string, failed map[string]string)
}

// MonitorConfig holds the monitor loop's knobs.
type MonitorConfig struct {
	StorePath string
	Interval  time.Duration // sleep between cycles
	Timeout   time.Duration // per-fetch timeout
}

// Monitor periodically re-checks every persisted alert against live market
// data and dispatches triggered alerts to the configured sinks. One
// long-lived goroutine; Start and Stop are idempotent and safe to call from
// the UI side.
type Monitor struct {
	cfg     MonitorConfig
	market  MarketSource
	items   ItemSource
	sinks   []notify.Sink
	history HistoryRecorder

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewMonitor creates a monitor. history may be nil.
func NewMonitor(cfg MonitorConfig, market MarketSource, items ItemSource, sinks []notify.Sink, history HistoryRecorder) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 600 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Monitor{
		cfg:     cfg,
		market:  market,
		items:   items,
		sinks:   sinks,
		history: history,
	}
}

// Start launches the background loop. Calling Start on a running monitor is
// a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true
	go m.run(ctx)
	logger.Info("Monitor", fmt.Sprintf("Started, checking every %s", m.cfg.Interval))
}

// Stop cancels the loop and waits for it to exit. The in-flight fetch may
// complete but its result is discarded; no further notifications are
// dispatched after Stop returns. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	cancel()
	<-done
	logger.Info("Monitor", "Stopped")
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	for {
		m.runCycle(ctx)
		if ctx.Err() != nil {
			return
		}
		// Interruptible sleep: cancellation wakes this immediately instead
		// of waiting out the interval.
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.Interval):
		}
	}
}

// runCycle loads the store fresh and evaluates every active alert. A failed
// fetch skips that alert only; the cycle always completes unless cancelled.
func (m *Monitor) runCycle(ctx context.Context) {
	store, err := Load(m.cfg.StorePath)
	if err != nil {
		logger.Warn("Monitor", fmt.Sprintf("Could not load alerts: %v", err))
		return
	}

	var triggered []*Triggered
	for _, ia := range ListAll(store) {
		if ctx.Err() != nil {
			return
		}
		if !ia.Alert.Active {
			continue
		}
		itemID, err := strconv.Atoi(ia.ItemID)
		if err != nil {
			logger.Warn("Monitor", fmt.Sprintf("Skipping alert with bad item key %q", ia.ItemID))
			continue
		}
		if t := m.checkAlert(ctx, itemID, ia.Alert); t != nil {
			triggered = append(triggered, t)
		}
	}

	if ctx.Err() != nil {
		return
	}
	for _, t := range triggered {
		m.dispatch(t)
	}
}

func (m *Monitor) checkAlert(ctx context.Context, itemID int, alert Alert) *Triggered {
	fetchCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	location := alert.Location(universalis.LocationAll)
	snapshot, err := m.market.FetchMarketSnapshot(fetchCtx, itemID, location)
	if err != nil {
		logger.Warn("Monitor", fmt.Sprintf("Fetch failed for item %d at %s: %v", itemID, location, err))
		return nil
	}

	requiresHQ := false
	if item, err := m.items.FetchItem(fetchCtx, itemID); err != nil {
		logger.Warn("Monitor", fmt.Sprintf("Item lookup failed for %d: %v", itemID, err))
	} else {
		requiresHQ = item.CanBeHQ
	}

	return Evaluate(&alert, snapshot, requiresHQ, location)
}

func (m *Monitor) dispatch(t *Triggered) {
	title := "Price Alert: " + t.ItemName
	message := fmt.Sprintf("%s is %s %s gil at %s (current lowest: %s gil)",
		t.ItemName, t.Direction, formatGil(t.TargetPrice), t.Location, formatGil(t.Price))

	sent, failed := notify.Dispatch(m.sinks, title, message)
	for name, reason := range failed {
		logger.Warn("Monitor", fmt.Sprintf("Sink %s failed: %s", name, reason))
	}
	if len(sent) > 0 {
		logger.Success("Monitor", fmt.Sprintf("Alert sent for %s via %v", t.ItemName, sent))
	}
	if m.history != nil {
		m.history.RecordTriggered(t, sent, failed)
	}
}

// formatGil renders a price with thousands separators.
func formatGil(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
