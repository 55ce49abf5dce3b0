package monitor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/draftforge/fastauction/internal/metrics"
)

type taskKind int

const (
	taskAutoNominate taskKind = iota
	taskSettle
)

type task struct {
	kind    taskKind
	draftID int64
	lotID   int64
}

// worker serializes deadline-driven work for a single draft. Settlement
// and auto-nomination both take the DRAFT lock internally, so
// serializing here is purely to avoid a thundering herd of advisory
// lock waiters against the same draft, not a correctness requirement.
type worker struct {
	draftID int64
	engine  Engine
	logger  *slog.Logger

	queue  chan task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newWorker(draftID int64, engine Engine, logger *slog.Logger) *worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &worker{
		draftID: draftID,
		engine:  engine,
		logger:  logger,
		queue:   make(chan task, 32),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (w *worker) start() {
	w.wg.Add(1)
	go w.run()
}

func (w *worker) stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *worker) submit(t task) {
	select {
	case w.queue <- t:
	default:
		w.logger.Warn("monitor_worker_queue_full", slog.Int64("draft_id", w.draftID))
	}
}

func (w *worker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

func (w *worker) process(t task) {
	switch t.kind {
	case taskAutoNominate:
		if _, err := w.engine.AutoNominate(w.ctx, t.draftID); err != nil {
			w.logger.Error("auto_nominate_failed",
				slog.Int64("draft_id", t.draftID),
				slog.String("error", err.Error()))
		}
	case taskSettle:
		if err := w.engine.SettleLot(w.ctx, t.draftID, t.lotID); err != nil {
			w.logger.Error("settle_lot_failed",
				slog.Int64("draft_id", t.draftID),
				slog.Int64("lot_id", t.lotID),
				slog.String("error", err.Error()))
			metrics.MonitorCASConflictsTotal.Inc()
		}
	}
}
