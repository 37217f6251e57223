package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/auth"
)

func TestStaffAuth(t *testing.T) {
	valid, _, _ := auth.IssueAccessToken("secret", "cocina", auth.RoleStaff, time.Hour, time.Now())
	other, _, _ := auth.IssueAccessToken("secret", "guest", auth.UserRole("CUSTOMER"), time.Hour, time.Now())

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "invalid", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + other, status: http.StatusForbidden},
		{name: "staff", header: "Bearer " + valid, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var subject string
			h := StaffAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ac, ok := GetAuthContext(r.Context()); ok {
					subject = ac.Subject
				}
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/admin/tables", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if tc.status == http.StatusOK && subject != "cocina" {
				t.Fatalf("expected auth context subject, got %q", subject)
			}
		})
	}
}

func TestAuthenticateStaffQueryToken(t *testing.T) {
	token, expiresAt, _ := auth.IssueAccessToken("secret", "salon", auth.RoleStaff, time.Hour, time.Now())

	req := httptest.NewRequest(http.MethodGet, "/ws/admin?token="+token, nil)
	ac, err := AuthenticateStaff(req, "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ac.Subject != "salon" || ac.ExpiresAt.Unix() != expiresAt.Unix() {
		t.Fatalf("unexpected auth context %+v", ac)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws/admin", nil)
	if _, err := AuthenticateStaff(req, "secret"); err != ErrTokenMissing {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}
