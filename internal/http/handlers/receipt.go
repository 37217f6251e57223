package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/apperror"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/cart"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/orders"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/utils"
	"github.com/clashroyalito29-netizen/MenuRestaurante/pkg/response"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

type receiptLine struct {
	Quantity int
	Name     string
	Subtotal string
}

type receiptData struct {
	OrderID     string
	TableLabel  string
	PlacedAt    string
	Status      string
	Lines       []receiptLine
	TotalAmount string
}

func (h *Handler) AdminOrderReceiptPDF(w http.ResponseWriter, r *http.Request) {
	orderID, err := readPathUUID(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	order, err := h.Orders.Store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			err = apperror.LookupNotFound("Order not found", err)
		}
		h.writeError(w, r, err)
		return
	}

	buf, err := renderReceiptPDF(h.buildReceiptData(order))
	if err != nil {
		h.logger().Error("render receipt", zap.String("orderId", orderID.String()), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate receipt")
		return
	}

	filename := fmt.Sprintf("receipt_%s.pdf", sanitizeFilename(order.ID.String()))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) buildReceiptData(o orders.Order) receiptData {
	units := h.Config.CurrencyMinorUnits
	currency := h.Config.Currency

	label := fmt.Sprintf("Table #%d", o.TableID)
	if o.TableNumber != nil {
		label = fmt.Sprintf("Table %d", *o.TableNumber)
	}

	lines := make([]receiptLine, 0, len(o.Items))
	for _, l := range o.Items {
		lines = append(lines, receiptLine{
			Quantity: l.Quantity,
			Name:     l.Name,
			Subtotal: currency + " " + cart.Format(l.Subtotal(), units),
		})
	}

	return receiptData{
		OrderID:     o.ID.String(),
		TableLabel:  label,
		PlacedAt:    utils.FormatInTimezone(o.CreatedAt, h.Config.Timezone, "2006-01-02 15:04"),
		Status:      string(o.Status),
		Lines:       lines,
		TotalAmount: currency + " " + cart.Format(o.Total, units),
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeFilename(value string) string {
	clean := unsafeFilenameChars.ReplaceAllString(value, "_")
	return strings.Trim(clean, "_")
}

func renderReceiptPDF(data receiptData) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, tr(data.TableLabel), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Order %s", data.OrderID), "", 1, "C", false, 0, "")
	if data.PlacedAt != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Placed: %s", data.PlacedAt), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Status: %s", data.Status), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Items", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range data.Lines {
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("%dx %s", line.Quantity, line.Name)), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Subtotal: %s", line.Subtotal), "", 1, "L", false, 0, "")
		pdf.Ln(1)
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s", data.TotalAmount), "B", 1, "L", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
