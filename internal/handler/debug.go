package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/draftforge/fastauction/internal/eventbus"
	"github.com/draftforge/fastauction/internal/monitor"
)

// DebugHandler exposes process introspection for the auction engine and
// its event fan-out, generalized from the teacher's BidEngineStats/
// SSEStats pair to the auctionsvc/monitor/eventbus split this engine
// uses (spec §6a). It carries no seed/clear-seed endpoints: this
// engine's fixtures are league/roster data owned by an external
// collaborator, not vehicle/auction CRUD this service can reseed.
type DebugHandler struct {
	monitor *monitor.Monitor
	bus     *eventbus.Bus
	logger  *slog.Logger
}

func NewDebugHandler(mon *monitor.Monitor, bus *eventbus.Bus, logger *slog.Logger) *DebugHandler {
	return &DebugHandler{
		monitor: mon,
		bus:     bus,
		logger:  logger,
	}
}

// MonitorStats returns the deadline monitor's current worker state.
func (h *DebugHandler) MonitorStats(w http.ResponseWriter, r *http.Request) {
	stats := h.monitor.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// EventBusStats returns the event bus's current subscriber fan-out.
func (h *DebugHandler) EventBusStats(w http.ResponseWriter, r *http.Request) {
	stats := h.bus.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// AllStats returns combined debug information.
func (h *DebugHandler) AllStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"monitor":   h.monitor.Stats(),
		"eventbus":  h.bus.Stats(),
	})
}
