package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// =============================================================================
// Request Logging Middleware Tests
// =============================================================================

func serveLogged(t *testing.T, status int, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	wrapped := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	return buf.String(), rec
}

func TestRequestLoggingMiddleware_LogsRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/process-voice", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("User-Agent", "atlas-mobile/1.2")

	logOutput, _ := serveLogged(t, http.StatusOK, req)

	for _, want := range []string{"POST", "/api/process-voice", "status=200", "duration_ms", "192.168.1.1", "atlas-mobile/1.2", "bytes=11", "request_id="} {
		if !strings.Contains(logOutput, want) {
			t.Errorf("log should contain %q, got: %s", want, logOutput)
		}
	}
}

func TestRequestLoggingMiddleware_ServerErrorsAreWarnings(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/process-voice", nil)

	logOutput, _ := serveLogged(t, http.StatusInternalServerError, req)

	if !strings.Contains(logOutput, "level=WARN") {
		t.Errorf("5xx should log at WARN, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_SetsRequestID(t *testing.T) {
	_, rec := serveLogged(t, http.StatusOK, httptest.NewRequest(http.MethodGet, "/health", nil))

	id := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected generated UUID request ID, got %q", id)
	}
}

func TestRequestLoggingMiddleware_ReusesClientRequestID(t *testing.T) {
	clientID := "0b8e6a3c-9d2f-4c11-8e5a-7f1d2c3b4a59"
	req := httptest.NewRequest(http.MethodPost, "/api/process-voice", nil)
	req.Header.Set(RequestIDHeader, clientID)

	logOutput, rec := serveLogged(t, http.StatusOK, req)

	if got := rec.Header().Get(RequestIDHeader); got != clientID {
		t.Errorf("expected request ID %q, got %q", clientID, got)
	}
	if !strings.Contains(logOutput, clientID) {
		t.Errorf("log should contain client request ID, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_RejectsMalformedRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/process-voice", nil)
	req.Header.Set(RequestIDHeader, "bad\nid")

	_, rec := serveLogged(t, http.StatusOK, req)

	if got := rec.Header().Get(RequestIDHeader); got == "bad\nid" {
		t.Error("malformed request ID should be replaced")
	}
}

func TestRequestLoggingMiddleware_RedactsSensitiveQueryParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/process-voice?transcript=zone+three+railing&api_key=abc123&source=mobile", nil)

	logOutput, _ := serveLogged(t, http.StatusOK, req)

	if strings.Contains(logOutput, "zone+three+railing") || strings.Contains(logOutput, "abc123") {
		t.Errorf("log should not contain sensitive values, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, "source=mobile") {
		t.Errorf("log should keep non-sensitive params, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		logOutput, rec := serveLogged(t, http.StatusOK, httptest.NewRequest(http.MethodGet, path, nil))
		if logOutput != "" {
			t.Errorf("%s should not be logged, got: %s", path, logOutput)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("%s should still be served, got %d", path, rec.Code)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "10.0.0.5:4242", nil, "10.0.0.5"},
		{"remote addr without port", "10.0.0.5", nil, "10.0.0.5"},
		{"forwarded for", "10.0.0.5:4242", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"real ip", "10.0.0.5:4242", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "198.51.100.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
