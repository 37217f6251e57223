package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/apperror"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/cart"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/menu"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/utils"
	"github.com/clashroyalito29-netizen/MenuRestaurante/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

var errMissingParam = errors.New("missing param")

func readPathString(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	out, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	if out <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return out, nil
}

func readPathUUID(r *http.Request, key string) (uuid.UUID, error) {
	value := readPathString(r, key)
	if value == "" {
		return uuid.Nil, errMissingParam
	}
	return uuid.Parse(value)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// writeError maps typed application errors to their envelope. Anything else
// is logged and reported as a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperror.As(err); ok {
		var details map[string]any
		if reason := appErr.Reason(); reason != "" {
			details = map[string]any{"reason": reason}
		}
		if appErr.StatusCode >= http.StatusInternalServerError {
			h.logger().Error("request failed", zap.String("path", r.URL.Path), zap.String("code", string(appErr.Code)), zap.Error(err))
		}
		response.ErrorWithDetails(w, appErr.StatusCode, string(appErr.Code), appErr.Message, details)
		return
	}
	h.logger().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
}

// checkTableToken enforces signed table links when a link secret is
// configured. A bad token reads as an unknown table.
func (h *Handler) checkTableToken(r *http.Request, tableID int64) error {
	secret := h.Config.TableLinkSecret
	if secret == "" {
		return nil
	}
	if utils.VerifyTableToken(secret, strings.TrimSpace(r.URL.Query().Get("t")), tableID) {
		return nil
	}
	return apperror.LookupNotFound(fmt.Sprintf("Table %d not found", tableID), nil)
}

// verifyLines rejects lines whose item is not on the menu or cannot be ordered
// right now. The unit price snapshotted in the cart is kept as sent.
func (h *Handler) verifyLines(ctx context.Context, lines []cart.Line) error {
	if h.Menu == nil || len(lines) == 0 {
		return nil
	}
	available, err := menu.AvailableByID(ctx, h.Menu)
	if err != nil {
		return fmt.Errorf("load menu items: %w", err)
	}
	for i, line := range lines {
		if _, ok := available[line.ItemID]; !ok {
			return apperror.Validation(fmt.Sprintf("items[%d].itemId %d is not available", i, line.ItemID))
		}
	}
	return nil
}
