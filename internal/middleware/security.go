package middleware

import (
	"net/http"
)

// apiHeaders are set on every response. The service only returns JSON, so
// nothing may be framed, embedded, cached or sniffed.
var apiHeaders = [][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"},
	{"Cache-Control", "no-store"},
}

// hstsHeader pins HTTPS for one year.
var hstsHeader = [2]string{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"}

// SecurityHeadersMiddleware adds HTTP security headers to all responses.
type SecurityHeadersMiddleware struct {
	headers [][2]string
}

// NewSecurityHeadersMiddleware creates a new security headers middleware.
// HSTS is only sent when isSecure is true (production behind TLS).
func NewSecurityHeadersMiddleware(isSecure bool) *SecurityHeadersMiddleware {
	headers := append([][2]string(nil), apiHeaders...)
	if isSecure {
		headers = append(headers, hstsHeader)
	}
	return &SecurityHeadersMiddleware{headers: headers}
}

// Handler returns middleware that sets security headers on all responses.
func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range m.headers {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}
