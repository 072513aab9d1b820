package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ShopFront/internal/session"
)

func handlerCapturing(id *string, ok *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*id, *ok = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareMintsSessionOnFirstRequest(t *testing.T) {
	m := session.NewManager("secret", time.Hour)

	var id string
	var ok bool
	h := m.Middleware(handlerCapturing(&id, &ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !ok || id == "" {
		t.Fatalf("no session id on context: ok=%v id=%q", ok, id)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != session.CookieName {
		t.Fatalf("expected one session cookie, got %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("session cookie must be http-only")
	}
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	m := session.NewManager("secret", time.Hour)

	var first, second string
	var ok bool
	h := m.Middleware(handlerCapturing(&first, &ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := rec.Result().Cookies()[0]

	h = m.Middleware(handlerCapturing(&second, &ok))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if second != first {
		t.Fatalf("session id changed across requests: %q vs %q", first, second)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("valid cookie must not be re-issued")
	}
}

func TestMiddlewareRejectsTamperedCookie(t *testing.T) {
	m := session.NewManager("secret", time.Hour)
	other := session.NewManager("other-secret", time.Hour)

	var id string
	var ok bool

	// Token signed with a different secret.
	rec := httptest.NewRecorder()
	other.Middleware(handlerCapturing(&id, &ok)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	foreign := rec.Result().Cookies()[0]
	foreignID := id

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(foreign)

	rec = httptest.NewRecorder()
	m.Middleware(handlerCapturing(&id, &ok)).ServeHTTP(rec, req)

	if !ok || id == foreignID {
		t.Fatalf("tampered cookie must mint a fresh session: ok=%v id=%q", ok, id)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Fatal("fresh session cookie must be set")
	}
}
