package handlers

import (
	"net/http"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/admin"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/tables"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/utils"
	"github.com/clashroyalito29-netizen/MenuRestaurante/pkg/response"

	"go.uber.org/zap"
)

// AdminListTables returns every table ascending by number. A failed read
// yields an empty list.
func (h *Handler) AdminListTables(w http.ResponseWriter, r *http.Request) {
	list, err := h.Dashboard.ListTables(r.Context())
	if err != nil {
		h.logger().Warn("admin tables fetch failed", zap.Error(err))
		list = nil
	}
	response.Success(w, admin.SortTables(list))
}

func (h *Handler) AdminToggleTable(w http.ResponseWriter, r *http.Request) {
	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}

	table, err := h.Tables.Toggle(r.Context(), tableID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if h.Events != nil {
		evt := tables.NewStateChangedEvent(table, h.now())
		if err := h.Events.Publish(r.Context(), tables.EventTableStateChanged, evt); err != nil {
			h.logger().Warn("table event publish failed", zap.Int64("tableId", tableID), zap.Error(err))
		}
	}
	h.logger().Info("table toggled", zap.Int64("tableId", tableID), zap.String("state", string(table.State)))
	response.Success(w, table)
}

// AdminTableLink returns the URL printed on the table's QR code.
func (h *Handler) AdminTableLink(w http.ResponseWriter, r *http.Request) {
	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}

	table, err := h.Tables.Lookup(r.Context(), tableID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, TableLinkResponse{
		TableID: table.ID,
		Number:  table.Number,
		URL:     utils.TableLink(h.Config.PublicBaseURL, table.ID, h.Config.TableLinkSecret),
	})
}
