package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/draftforge/fastauction/internal/auctionsvc"
	"github.com/draftforge/fastauction/internal/middleware"
)

// AuctionHandler exposes the fast auction engine's operations (spec
// §6) over HTTP: nominate, bid, advance/force-advance the nominator,
// and read the current state.
type AuctionHandler struct {
	svc      *auctionsvc.Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewAuctionHandler(svc *auctionsvc.Service, logger *slog.Logger) *AuctionHandler {
	return &AuctionHandler{
		svc:      svc,
		logger:   logger,
		validate: validator.New(),
	}
}

type nominateRequest struct {
	PlayerID       int64   `json:"playerId" validate:"required"`
	IdempotencyKey *string `json:"idempotencyKey,omitempty"`
}

type setMaxBidRequest struct {
	MaxBid         json.Number `json:"maxBid" validate:"required"`
	IdempotencyKey *string     `json:"idempotencyKey,omitempty"`
}

// Nominate handles POST /api/drafts/{draftId}/nominate.
func (h *AuctionHandler) Nominate(w http.ResponseWriter, r *http.Request) {
	draftID, err := pathInt64(r, "draftId")
	if err != nil {
		h.jsonError(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	var req nominateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.jsonError(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	userID := middleware.GetUserID(r.Context())
	lot, err := h.svc.Nominate(r.Context(), draftID, userID, req.PlayerID, req.IdempotencyKey)
	if err != nil {
		h.handleAppError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusCreated, lot)
}

// SetMaxBid handles POST /api/drafts/{draftId}/lots/{lotId}/bid.
func (h *AuctionHandler) SetMaxBid(w http.ResponseWriter, r *http.Request) {
	draftID, err := pathInt64(r, "draftId")
	if err != nil {
		h.jsonError(w, "invalid draft id", http.StatusBadRequest)
		return
	}
	lotID, err := pathInt64(r, "lotId")
	if err != nil {
		h.jsonError(w, "invalid lot id", http.StatusBadRequest)
		return
	}

	var req setMaxBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.jsonError(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	maxBid, err := decimal.NewFromString(req.MaxBid.String())
	if err != nil {
		h.jsonError(w, "maxBid must be numeric", http.StatusBadRequest)
		return
	}

	userID := middleware.GetUserID(r.Context())
	result, err := h.svc.SetMaxBid(r.Context(), draftID, userID, lotID, maxBid, req.IdempotencyKey)
	if err != nil {
		h.handleAppError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, result)
}

// Advance handles POST /api/drafts/{draftId}/advance.
func (h *AuctionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	draftID, err := pathInt64(r, "draftId")
	if err != nil {
		h.jsonError(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	nominator, err := h.svc.AdvanceNominator(r.Context(), draftID, nil)
	if err != nil {
		h.handleAppError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, nominator)
}

// ForceAdvance handles POST /api/drafts/{draftId}/force-advance.
func (h *AuctionHandler) ForceAdvance(w http.ResponseWriter, r *http.Request) {
	draftID, err := pathInt64(r, "draftId")
	if err != nil {
		h.jsonError(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	nominator, err := h.svc.ForceAdvanceNominator(r.Context(), draftID)
	if err != nil {
		h.handleAppError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, nominator)
}

// GetState handles GET /api/drafts/{draftId}/state.
func (h *AuctionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	draftID, err := pathInt64(r, "draftId")
	if err != nil {
		h.jsonError(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	state, err := h.svc.GetState(r.Context(), draftID)
	if err != nil {
		h.handleAppError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, state)
}

// GetNominator handles GET /api/drafts/{draftId}/nominator.
func (h *AuctionHandler) GetNominator(w http.ResponseWriter, r *http.Request) {
	draftID, err := pathInt64(r, "draftId")
	if err != nil {
		h.jsonError(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	nominator, err := h.svc.GetCurrentNominator(r.Context(), draftID)
	if err != nil {
		h.handleAppError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, nominator)
}

func pathInt64(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}

func (h *AuctionHandler) handleAppError(w http.ResponseWriter, err error) {
	var appErr *auctionsvc.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Kind {
		case auctionsvc.KindNotFound:
			status = http.StatusNotFound
		case auctionsvc.KindValidation:
			status = http.StatusBadRequest
		case auctionsvc.KindForbidden:
			status = http.StatusForbidden
		case auctionsvc.KindConflict:
			status = http.StatusConflict
		case auctionsvc.KindFatal:
			h.logger.Error("auctionsvc fatal error", slog.String("error", err.Error()))
		}
		h.jsonError(w, appErr.Message, status)
		return
	}

	h.logger.Error("unexpected handler error", slog.String("error", err.Error()))
	h.jsonError(w, "internal error", http.StatusInternalServerError)
}

func (h *AuctionHandler) jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func (h *AuctionHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
