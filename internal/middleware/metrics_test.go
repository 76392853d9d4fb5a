package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// =============================================================================
// Metrics Auth Middleware Tests
// =============================================================================

func serveMetrics(mw *MetricsAuthMiddleware, setAuth func(r *http.Request)) *httptest.ResponseRecorder {
	wrapped := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metrics data"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	if setAuth != nil {
		setAuth(req)
	}
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	return rec
}

func TestMetricsAuthMiddleware_AllowsValidCredentials(t *testing.T) {
	rec := serveMetrics(NewMetricsAuthMiddleware("admin", "secret123"), func(r *http.Request) {
		r.SetBasicAuth("admin", "secret123")
	})

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "metrics data" {
		t.Errorf("expected body 'metrics data', got %q", rec.Body.String())
	}
}

func TestMetricsAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		setAuth func(r *http.Request)
	}{
		{"no credentials", nil},
		{"wrong username", func(r *http.Request) { r.SetBasicAuth("root", "secret123") }},
		{"wrong password", func(r *http.Request) { r.SetBasicAuth("admin", "secret") }},
		{"empty credentials", func(r *http.Request) { r.SetBasicAuth("", "") }},
		{"bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret123") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveMetrics(NewMetricsAuthMiddleware("admin", "secret123"), tt.setAuth)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rec.Code)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="atlas-metrics"` {
				t.Errorf("unexpected WWW-Authenticate header: %q", got)
			}
			if rec.Body.String() == "metrics data" {
				t.Error("metrics must not be served without valid credentials")
			}
		})
	}
}

func TestMetricsAuthMiddleware_DisabledWhenNoCredentials(t *testing.T) {
	mw := NewMetricsAuthMiddleware("", "")
	if mw.Enabled() {
		t.Fatal("expected auth to be disabled")
	}

	rec := serveMetrics(mw, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}
