package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/auth"
	"github.com/clashroyalito29-netizen/MenuRestaurante/pkg/response"
)

type contextKey string

const staffContextKey contextKey = "staff"

// AuthContext is the verified staff session attached to admin requests.
type AuthContext struct {
	Subject   string
	Role      auth.UserRole
	ExpiresAt time.Time
}

var (
	ErrTokenMissing = errors.New("authorization token required")
	ErrNotStaff     = errors.New("staff access required")
)

func WithAuthContext(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, staffContextKey, ac)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	ac, ok := ctx.Value(staffContextKey).(*AuthContext)
	return ac, ok && ac != nil
}

// AuthenticateStaff resolves the staff session from the Authorization header,
// falling back to the token query parameter browsers use for websockets.
func AuthenticateStaff(r *http.Request, jwtSecret string) (*AuthContext, error) {
	token := auth.ParseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
		if bearer := auth.ParseBearerToken(token); bearer != "" {
			token = bearer
		}
	}
	if token == "" {
		return nil, ErrTokenMissing
	}

	claims, err := auth.VerifyAccessToken(token, jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.Role != auth.RoleStaff {
		return nil, ErrNotStaff
	}

	ac := &AuthContext{Subject: claims.Subject, Role: claims.Role}
	if claims.ExpiresAt != nil {
		ac.ExpiresAt = claims.ExpiresAt.Time
	}
	return ac, nil
}

// StaffAuth rejects admin requests without a valid staff token.
func StaffAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, err := AuthenticateStaff(r, jwtSecret)
			switch {
			case errors.Is(err, ErrNotStaff):
				response.Error(w, http.StatusForbidden, "FORBIDDEN", "Staff access required")
				return
			case err != nil:
				response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), ac)))
		})
	}
}
