package handlers

import (
	"net/http"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/apperror"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/cart"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/menu"
	"github.com/clashroyalito29-netizen/MenuRestaurante/pkg/response"

	"go.uber.org/zap"
)

// PublicTable reports whether the table may order right now. A closed table
// answers 403 so the client can route to its waiting view.
func (h *Handler) PublicTable(w http.ResponseWriter, r *http.Request) {
	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}
	if err := h.checkTableToken(r, tableID); err != nil {
		h.writeError(w, r, err)
		return
	}

	table, err := h.Tables.Check(r.Context(), tableID)
	if err != nil {
		if appErr, ok := apperror.As(err); ok && appErr.Code == apperror.ErrOrderRejected {
			response.ErrorWithDetails(w, http.StatusForbidden, string(appErr.Code), appErr.Message, map[string]any{
				"reason": appErr.Reason(),
				"table":  table,
			})
			return
		}
		h.writeError(w, r, err)
		return
	}
	response.Success(w, table)
}

func (h *Handler) PublicTableMenu(w http.ResponseWriter, r *http.Request) {
	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}
	if err := h.checkTableToken(r, tableID); err != nil {
		h.writeError(w, r, err)
		return
	}

	table, err := h.Tables.Check(r.Context(), tableID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, TableMenuResponse{
		Table:   table,
		Catalog: menu.Load(r.Context(), h.Menu, h.logger()),
	})
}

// PublicCreateOrder submits the client's cart for the table. The table state
// is read fresh; nothing is retried.
func (h *Handler) PublicCreateOrder(w http.ResponseWriter, r *http.Request) {
	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}
	if err := h.checkTableToken(r, tableID); err != nil {
		h.writeError(w, r, err)
		return
	}

	var body CartRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	c, err := cart.FromLines(body.Items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.verifyLines(r.Context(), c.Lines); err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.Orders.Submit(r.Context(), tableID, c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger().Info("order submitted",
		zap.String("orderId", order.ID.String()),
		zap.Int64("tableId", order.TableID),
		zap.Int("lines", len(order.Items)),
	)
	response.SuccessStatus(w, http.StatusCreated, order)
}
