// Package monitor is the deadline scanner for spec §4.8: a ticker
// polls for expired nominations and expired lots, and dispatches
// settlement/auto-nomination work to one serial worker per draft so
// a single slow draft can never starve or reorder another's timers.
// It is grounded on the source's bidengine dispatcher/per-key worker
// split (internal/bidengine/engine.go, worker.go), generalized from
// per-auction bid routing to per-draft timeout routing.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/draftforge/fastauction/internal/domain"
	"github.com/draftforge/fastauction/internal/metrics"
	"github.com/draftforge/fastauction/internal/store"
)

// Engine is the interface monitor drives; auctionsvc.Service satisfies
// it without either package importing the other's unrelated surface.
type Engine interface {
	AutoNominate(ctx context.Context, draftID int64) (*domain.AuctionLot, error)
	SettleLot(ctx context.Context, draftID, lotID int64) error
}

// Monitor periodically scans for expired nominations and lots and
// dispatches each to a per-draft worker.
type Monitor struct {
	drafts store.DraftStore
	lots   store.LotStore
	engine Engine
	logger *slog.Logger

	interval time.Duration

	mu      sync.Mutex
	workers map[int64]*worker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures optional Monitor behavior.
type Option func(*Monitor)

// WithInterval overrides the default 2s scan interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

func New(drafts store.DraftStore, lots store.LotStore, engine Engine, logger *slog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		drafts:   drafts,
		lots:     lots,
		engine:   engine,
		logger:   logger,
		interval: 2 * time.Second,
		workers:  make(map[int64]*worker),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins the scan loop goroutine.
func (m *Monitor) Start() {
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.wg.Add(1)
	go m.run()
	m.logger.Info("deadline_monitor_started", slog.Duration("interval", m.interval))
}

// Stop halts scanning and drains every per-draft worker.
func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	for _, w := range m.workers {
		w.stop()
	}
	m.mu.Unlock()

	m.logger.Info("deadline_monitor_stopped")
}

func (m *Monitor) run() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.scan()
		}
	}
}

func (m *Monitor) scan() {
	start := time.Now()
	defer func() {
		metrics.MonitorTickDuration.Observe(time.Since(start).Seconds())
	}()

	now := time.Now()

	draftIDs, err := m.drafts.ListExpiredNominations(m.ctx, now)
	if err != nil {
		m.logger.Error("list_expired_nominations_failed", slog.String("error", err.Error()))
	}
	for _, draftID := range draftIDs {
		m.dispatch(draftID, task{kind: taskAutoNominate, draftID: draftID})
	}

	expired, err := m.lots.ListExpiredActive(m.ctx, now)
	if err != nil {
		m.logger.Error("list_expired_active_failed", slog.String("error", err.Error()))
	}
	for _, e := range expired {
		m.dispatch(e.DraftID, task{kind: taskSettle, draftID: e.DraftID, lotID: e.LotID})
	}

	var depth int
	m.mu.Lock()
	for _, w := range m.workers {
		depth += len(w.queue)
	}
	m.mu.Unlock()
	metrics.MonitorQueueDepth.Set(float64(depth))
}

// Stats is the debug-endpoint shape for the monitor's current
// per-draft worker state (see internal/handler/debug.go).
type Stats struct {
	ActiveDrafts int   `json:"active_drafts"`
	QueueDepth   int   `json:"queue_depth"`
}

func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var depth int
	for _, w := range m.workers {
		depth += len(w.queue)
	}
	return Stats{ActiveDrafts: len(m.workers), QueueDepth: depth}
}

func (m *Monitor) dispatch(draftID int64, t task) {
	m.mu.Lock()
	w, ok := m.workers[draftID]
	if !ok {
		w = newWorker(draftID, m.engine, m.logger)
		m.workers[draftID] = w
		w.start()
	}
	m.mu.Unlock()

	w.submit(t)
}
