// Package eventbus is the in-process publish/subscribe fabric the
// auction service uses to fan out domain events after commit. It
// generalizes the source's per-auction SSE broker (internal/realtime)
// to be keyed by draft instead of by a single auction id, since a
// fast-auction draft runs many lots in sequence over its lifetime.
package eventbus

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/draftforge/fastauction/internal/domain"
	"github.com/draftforge/fastauction/internal/metrics"
)

// Subscriber is a single consumer's mailbox, typically backing one SSE
// connection for one draft.
type Subscriber struct {
	ID       string
	UserID   int64
	Messages chan []byte
	Done     chan struct{}
}

// Bus fans out domain events to subscribers of the draft they belong
// to. Delivery is at-most-once and best-effort: a slow subscriber drops
// messages rather than blocking the publisher (spec §9, "event
// emission inside mocks" re-architected as a simple publish interface).
type Bus struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[int64]map[*Subscriber]struct{}

	events chan domain.Event
	done   chan struct{}

	throttle *outbidThrottle
}

func New(logger *slog.Logger) *Bus {
	return &Bus{
		logger:      logger,
		subscribers: make(map[int64]map[*Subscriber]struct{}),
		events:      make(chan domain.Event, 1000),
		done:        make(chan struct{}),
		throttle:    newOutbidThrottle(),
	}
}

// Start begins the dispatch loop. Call once during startup.
func (b *Bus) Start() {
	go b.dispatchLoop()
	b.logger.Info("eventbus_started")
}

// Stop gracefully shuts down the dispatch loop.
func (b *Bus) Stop() {
	close(b.done)
	b.logger.Info("eventbus_stopped")
}

func (b *Bus) Subscribe(draftID int64, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[draftID] == nil {
		b.subscribers[draftID] = make(map[*Subscriber]struct{})
	}
	b.subscribers[draftID][sub] = struct{}{}
	metrics.EventBusSubscribersActive.Inc()

	b.logger.Debug("eventbus_subscriber_added",
		slog.Int64("draft_id", draftID),
		slog.String("subscriber_id", sub.ID),
	)
}

func (b *Bus) Unsubscribe(draftID int64, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subscribers[draftID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.subscribers, draftID)
		}
	}
	metrics.EventBusSubscribersActive.Dec()

	b.logger.Debug("eventbus_subscriber_removed",
		slog.Int64("draft_id", draftID),
		slog.String("subscriber_id", sub.ID),
	)
}

// Publish queues event for asynchronous fan-out. Call only after the
// transaction that produced it has committed (spec §5: "event
// publishing happens after commit").
func (b *Bus) Publish(event domain.Event) {
	select {
	case b.events <- event:
	default:
		b.logger.Warn("eventbus_event_dropped_queue_full",
			slog.Int64("draft_id", event.EventDraftID()),
			slog.String("event_type", event.EventType()),
		)
	}
}

// PublishOutbid is Publish for OutbidEvent, subject to the
// process-local, best-effort per-(roster,lot) throttle described in
// spec §4.3 and §9.
func (b *Bus) PublishOutbid(event domain.OutbidEvent) {
	if !b.throttle.allow(event.RosterID, event.LotID) {
		metrics.OutbidNoticesThrottledTotal.Inc()
		return
	}
	b.Publish(event)
}

func (b *Bus) dispatchLoop() {
	for {
		select {
		case <-b.done:
			return
		case event := <-b.events:
			b.dispatch(event)
		}
	}
}

func (b *Bus) dispatch(event domain.Event) {
	draftID := event.EventDraftID()

	b.mu.RLock()
	subs := b.subscribers[draftID]
	count := len(subs)
	b.mu.RUnlock()

	if count == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("eventbus_event_marshal_error", slog.String("error", err.Error()))
		return
	}

	message := formatSSE(event.EventType(), data)

	b.mu.RLock()
	for sub := range b.subscribers[draftID] {
		select {
		case sub.Messages <- message:
		default:
		}
	}
	b.mu.RUnlock()

	metrics.EventBusMessagesSent.WithLabelValues(event.EventType()).Inc()
	metrics.EventBusSubscribersPerDraft.Observe(float64(count))

	b.logger.Debug("eventbus_event_dispatched",
		slog.Int64("draft_id", draftID),
		slog.String("event_type", event.EventType()),
		slog.Int("subscribers", count),
	)
}

func formatSSE(eventType string, data []byte) []byte {
	result := make([]byte, 0, len(eventType)+len(data)+20)
	result = append(result, "event: "...)
	result = append(result, eventType...)
	result = append(result, '\n')
	result = append(result, "data: "...)
	result = append(result, data...)
	result = append(result, '\n', '\n')
	return result
}

// Stats is the debug-endpoint shape for the bus's current fan-out
// state (see internal/handler/debug.go).
type Stats struct {
	TotalSubscribers int             `json:"total_subscribers"`
	Drafts           []DraftSubCount `json:"drafts"`
}

type DraftSubCount struct {
	DraftID     int64 `json:"draft_id"`
	Subscribers int   `json:"subscribers"`
}

func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	drafts := make([]DraftSubCount, 0, len(b.subscribers))
	for draftID, subs := range b.subscribers {
		total += len(subs)
		drafts = append(drafts, DraftSubCount{DraftID: draftID, Subscribers: len(subs)})
	}

	return Stats{TotalSubscribers: total, Drafts: drafts}
}
