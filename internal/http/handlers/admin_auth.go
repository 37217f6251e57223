package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/auth"
	"github.com/clashroyalito29-netizen/MenuRestaurante/pkg/response"

	"go.uber.org/zap"
)

// AdminLogin exchanges the shared staff password for a bearer token.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" {
		username = "staff"
	}

	if err := auth.CheckStaffPassword(h.Config.StaffPasswordHash, body.Password); err != nil {
		h.logger().Info("staff login rejected", zap.String("username", username))
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
		return
	}

	ttl := time.Duration(h.Config.JWTExpirySeconds) * time.Second
	token, expiresAt, err := auth.IssueAccessToken(h.Config.JWTSecret, username, auth.RoleStaff, ttl, h.now())
	if err != nil {
		h.logger().Error("issue staff token", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token")
		return
	}
	response.Success(w, LoginResponse{AccessToken: token, ExpiresAt: expiresAt, Role: string(auth.RoleStaff)})
}
