package handlers

import (
	"net/http"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/admin"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/apperror"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/orders"
	"github.com/clashroyalito29-netizen/MenuRestaurante/pkg/response"

	"go.uber.org/zap"
)

// AdminListOrders returns orders newest first, filtered by ?status and capped
// by the configured display limit.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	filter, ok := admin.ParseFilter(r.URL.Query().Get("status"))
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status filter")
		return
	}

	list, err := h.Dashboard.ListOrders(r.Context())
	if err != nil {
		h.logger().Warn("admin orders fetch failed", zap.Error(err))
		list = nil
	}
	sorted := admin.SortOrders(list)
	response.Success(w, admin.Limit(admin.FilterByStatus(sorted, filter), h.Config.AdminOrdersDisplayLimit))
}

func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := readPathUUID(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var body StatusUpdateRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	status, ok := orders.ParseStatus(body.Status)
	if !ok {
		h.writeError(w, r, apperror.Validation("status must be one of PENDING, PREPARING, DELIVERED"))
		return
	}

	order, err := h.Orders.Advance(r.Context(), orderID, status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger().Info("order status updated", zap.String("orderId", orderID.String()), zap.String("status", string(status)))
	response.Success(w, order)
}

func (h *Handler) AdminOrderHistory(w http.ResponseWriter, r *http.Request) {
	orderID, err := readPathUUID(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}
	if h.History == nil {
		response.Success(w, []orders.HistoryEntry{})
		return
	}

	entries, err := h.History.ListStatusHistory(r.Context(), orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []orders.HistoryEntry{}
	}
	response.Success(w, entries)
}
