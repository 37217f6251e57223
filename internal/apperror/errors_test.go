package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorCodesAndStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    *Error
		code   ErrorCode
		status int
	}{
		{name: "order rejected", err: OrderRejected(ReasonEmptyCart, "Cart is empty"), code: ErrOrderRejected, status: http.StatusConflict},
		{name: "payment session", err: PaymentSession("Failed to create checkout", errors.New("dial tcp")), code: ErrPaymentSessionError, status: http.StatusInternalServerError},
		{name: "lookup", err: LookupNotFound("Table not found", nil), code: ErrLookupNotFound, status: http.StatusNotFound},
		{name: "validation", err: Validation("bad"), code: ErrValidation, status: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Fatalf("expected %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, tc.err.StatusCode)
			}
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("checkout: %w", PaymentSession("Failed to create checkout", cause))

	got, ok := As(wrapped)
	if !ok {
		t.Fatalf("expected apperror in chain")
	}
	if got.Code != ErrPaymentSessionError {
		t.Fatalf("expected %s, got %s", ErrPaymentSessionError, got.Code)
	}
	if !errors.Is(wrapped, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if !Is(wrapped, ErrPaymentSessionError) || Is(wrapped, ErrOrderRejected) {
		t.Fatalf("unexpected Is result")
	}
}

func TestReason(t *testing.T) {
	if got := OrderRejected(ReasonTableNotOpen, "closed").Reason(); got != ReasonTableNotOpen {
		t.Fatalf("expected %s, got %s", ReasonTableNotOpen, got)
	}
	if got := LookupNotFound("missing", nil).Reason(); got != "" {
		t.Fatalf("expected empty reason, got %s", got)
	}
}
