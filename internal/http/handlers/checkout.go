package handlers

import (
	"errors"
	"net/http"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/apperror"
	"github.com/clashroyalito29-netizen/MenuRestaurante/pkg/response"

	"go.uber.org/zap"
)

// Checkout opens a hosted payment session for the posted cart lines. Every
// failure is reported as a generic 500; the caller may retry manually.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var body CheckoutRequest
	if err := decodeJSON(r, &body); err != nil {
		h.checkoutFailed(w, apperror.PaymentSession("Invalid checkout request", err))
		return
	}
	if body.TableID <= 0 {
		h.checkoutFailed(w, apperror.PaymentSession("Invalid checkout request", errors.New("tableId is required")))
		return
	}

	if err := h.verifyLines(r.Context(), body.Items); err != nil {
		h.checkoutFailed(w, err)
		return
	}

	id, err := h.Payments.CreateSession(r.Context(), body.Items, body.TableID)
	if err != nil {
		h.checkoutFailed(w, err)
		return
	}
	response.JSON(w, http.StatusOK, CheckoutResponse{ID: id})
}

func (h *Handler) checkoutFailed(w http.ResponseWriter, err error) {
	h.logger().Error("checkout session failed", zap.Error(err))
	response.Error(w, http.StatusInternalServerError, string(apperror.ErrPaymentSessionError), "Failed to create payment preference")
}
