package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
		status int
		userID string
	}{
		{"no cookie", nil, http.StatusUnauthorized, ""},
		{"empty cookie", &http.Cookie{Name: "sid", Value: ""}, http.StatusUnauthorized, ""},
		{"blank cookie", &http.Cookie{Name: "sid", Value: "   "}, http.StatusUnauthorized, ""},
		{"other cookie", &http.Cookie{Name: "userId", Value: "u1"}, http.StatusUnauthorized, ""},
		{"valid", &http.Cookie{Name: "sid", Value: "u1"}, http.StatusOK, "u1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/search", http.NoBody)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rr := httptest.NewRecorder()
			SessionMiddleware("sid")(next).ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Errorf("status = %d, want %d", rr.Code, tc.status)
			}
			if got != tc.userID {
				t.Errorf("userID = %q, want %q", got, tc.userID)
			}
		})
	}
}

func TestSessionMiddleware_DefaultCookieName(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest("GET", "/search", http.NoBody)
	req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: "u1"})
	rr := httptest.NewRecorder()
	SessionMiddleware("")(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", http.NoBody)
	if _, ok := UserIDFromContext(req.Context()); ok {
		t.Error("expected no user id")
	}
}
