package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/draftforge/fastauction/internal/eventbus"
	"github.com/draftforge/fastauction/internal/middleware"
)

// StreamHandler serves the Server-Sent Events feed of draft events
// (spec §6: nominations, bids, outbid notices, nominator changes,
// draft completion).
type StreamHandler struct {
	bus        *eventbus.Bus
	logger     *slog.Logger
	keepalive  time.Duration
}

func NewStreamHandler(bus *eventbus.Bus, logger *slog.Logger, keepalive time.Duration) *StreamHandler {
	return &StreamHandler{
		bus:       bus,
		logger:    logger,
		keepalive: keepalive,
	}
}

// StreamDraft handles GET /api/drafts/{draftId}/stream.
func (h *StreamHandler) StreamDraft(w http.ResponseWriter, r *http.Request) {
	draftIDStr := chi.URLParam(r, "draftId")
	draftID, err := strconv.ParseInt(draftIDStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := &eventbus.Subscriber{
		ID:       uuid.New().String(),
		UserID:   middleware.GetUserID(r.Context()),
		Messages: make(chan []byte, 100),
		Done:     make(chan struct{}),
	}

	h.bus.Subscribe(draftID, sub)
	defer h.bus.Unsubscribe(draftID, sub)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	h.logger.Info("sse_connection_opened",
		slog.String("subscriber_id", sub.ID),
		slog.Int64("draft_id", draftID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	w.Write([]byte("event: connected\ndata: {\"draft_id\":" + draftIDStr + "}\n\n"))
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("sse_connection_closed",
				slog.String("subscriber_id", sub.ID),
				slog.Int64("draft_id", draftID),
			)
			return

		case msg := <-sub.Messages:
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case <-keepalive.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
