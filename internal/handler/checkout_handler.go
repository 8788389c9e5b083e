package handler

import (
	"net/http"
	"strings"

	"marketplace/internal/middleware"
	"marketplace/internal/model"
	"marketplace/internal/service"

	"github.com/rs/zerolog"
)

// IdempotencyKeyHeader lets a client retry a checkout safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// CheckoutHandler handles cart pricing and order placement HTTP requests.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// Quote handles POST /api/public/checkout/quote requests.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req model.QuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	quote, err := h.service.Quote(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, quote)
}

// Simulate handles POST /api/public/checkout/simulate requests. The payment
// is recorded as paid without contacting a provider.
func (h *CheckoutHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if len(key) > 255 {
		writeError(w, r, model.NewValidationError("Idempotency-Key must be at most 255 characters"), h.logger)
		return
	}

	result, err := h.service.PlaceOrder(r.Context(), middleware.IdentityFromContext(r.Context()), &req, key)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}
