package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/model"
	"marketplace/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

func orderFilter(r *http.Request) (model.OrderFilter, error) {
	limit, offset, err := page(r)
	if err != nil {
		return model.OrderFilter{}, err
	}
	return model.OrderFilter{Limit: limit, Offset: offset, Status: r.URL.Query().Get("status")}, nil
}

// ListForClient handles GET /api/client/orders requests.
func (h *OrderHandler) ListForClient(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, r, model.ErrUnauthenticated, h.logger)
		return
	}

	filter, err := orderFilter(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	orders, err := h.service.ListForClient(r.Context(), identity.UserID, filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, orders)
}

// GetForClient handles GET /api/client/orders/{id} requests.
func (h *OrderHandler) GetForClient(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, r, model.ErrUnauthenticated, h.logger)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.GetForClient(r.Context(), identity.UserID, id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, order)
}

// ListForVendor handles GET /api/vendor/orders requests.
func (h *OrderHandler) ListForVendor(w http.ResponseWriter, r *http.Request) {
	vendorID, _, err := vendorIdentity(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	filter, err := orderFilter(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	orders, err := h.service.ListForVendor(r.Context(), vendorID, filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, orders)
}

// UpdateStatus handles PATCH /api/vendor/orders/{id}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	vendorID, userID, err := vendorIdentity(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.StatusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), vendorID, userID, id, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, order)
}
