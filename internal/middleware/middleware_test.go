package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/terramo-esg/terramo/internal/session"
)

var testSecret = []byte("middleware-test")

func claimsHandler(t *testing.T, got **session.Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := ClaimsFromContext(r.Context()); ok {
			*got = c
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestWithAuthAttachesVerifiedClaims(t *testing.T) {
	tok, err := session.Sign(testSecret, session.Claims{UserID: "u1", ClientID: "c1", Role: session.RoleClientAdmin}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	var got *session.Claims
	h := WithAuth(testSecret)(RequireAuth(claimsHandler(t, &got)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got == nil || got.UserID != "u1" || got.ClientID != "c1" {
		t.Fatalf("claims = %+v", got)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	forged, _ := session.Sign([]byte("other"), session.Claims{UserID: "u1"}, time.Hour, time.Now())
	expired, _ := session.Sign(testSecret, session.Claims{UserID: "u1"}, time.Minute, time.Now().Add(-time.Hour))
	for name, header := range map[string]string{
		"missing": "",
		"forged":  "Bearer " + forged,
		"expired": "Bearer " + expired,
		"scheme":  "Token abc",
	} {
		t.Run(name, func(t *testing.T) {
			var got *session.Claims
			h := WithAuth(testSecret)(RequireAuth(claimsHandler(t, &got)))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized || got != nil {
				t.Fatalf("status = %d claims = %+v", rec.Code, got)
			}
		})
	}
}

func TestLocaleNegotiation(t *testing.T) {
	var locale string
	h := Locale("de")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
	}))
	cases := []struct {
		target, accept, want string
	}{
		{"/", "fr-FR, en-GB;q=0.8, de;q=0.5", "en"},
		{"/?lang=en", "de", "en"},
		{"/", "fr", "de"},
		{"/", "", "de"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.target, nil)
		req.Header.Set("Accept-Language", c.accept)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if locale != c.want || rec.Header().Get("Content-Language") != c.want {
			t.Fatalf("%s %q: locale = %q, want %q", c.target, c.accept, locale, c.want)
		}
	}

	if got := LocaleFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()); got != DefaultLocale {
		t.Fatalf("no middleware: %q", got)
	}
	Locale("xx")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if locale != DefaultLocale {
		t.Fatalf("unsupported fallback kept: %q", locale)
	}
}

func TestCORSAnyOrigin(t *testing.T) {
	called := false
	h := CORS(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/esg/questions/", nil))
	if rec.Code != http.StatusNoContent || called {
		t.Fatalf("preflight status = %d called = %v", rec.Code, called)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" || rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatalf("headers = %v", rec.Header())
	}
}

func TestCORSAllowList(t *testing.T) {
	called := 0
	h := CORS([]string{" https://esg.example.com/ ", ""})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called++ }))

	send := func(method, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/esg/questions/", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := send(http.MethodOptions, "https://esg.example.com")
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://esg.example.com" {
		t.Fatalf("listed preflight: %d %v", rec.Code, rec.Header())
	}
	if rec = send(http.MethodOptions, "https://evil.example"); rec.Code != http.StatusForbidden {
		t.Fatalf("unlisted preflight: %d", rec.Code)
	}
	rec = send(http.MethodGet, "https://evil.example")
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unlisted origin granted: %v", rec.Header())
	}
	send(http.MethodGet, "")
	if called != 2 {
		t.Fatalf("handler calls = %d, want 2", called)
	}
}

func TestChainOrderAndHeaders(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), RequestLogger(zap.New(core)), NoStore, SecureHeaders)

	req := httptest.NewRequest(http.MethodPost, "/api/x", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Cache-Control") == "" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("headers = %v", rec.Header())
	}
	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["path"] != "/api/x" || fields["request_id"] != "req-1" {
		t.Fatalf("logged fields = %v", fields)
	}
}

func TestSecureHeadersHSTSOnlyOverTLS(t *testing.T) {
	h := SecureHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://esg.test/api/", nil))
	if rec.Header().Get("Strict-Transport-Security") != "" || rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("plain headers = %v", rec.Header())
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "https://esg.test/api/", nil))
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatalf("tls headers = %v", rec.Header())
	}
}
