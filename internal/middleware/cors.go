package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods = "GET,HEAD,PUT,PATCH,POST,DELETE"
	corsMaxAge       = "600"
)

// CORSMiddleware lets browser clients on other origins call the API.
// With the wildcard origin every origin is allowed, without credentials.
type CORSMiddleware struct {
	allowAll bool
	origins  map[string]bool
}

// NewCORSMiddleware creates a CORS middleware for the given origins.
// An empty list or a "*" entry allows any origin.
func NewCORSMiddleware(allowedOrigins []string) *CORSMiddleware {
	m := &CORSMiddleware{origins: make(map[string]bool)}
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		switch o {
		case "":
			continue
		case "*":
			m.allowAll = true
		default:
			m.origins[strings.TrimSuffix(o, "/")] = true
		}
	}
	if len(m.origins) == 0 {
		m.allowAll = true
	}
	return m
}

// Handler returns middleware that sets CORS headers and answers preflight requests.
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		h := w.Header()

		allowed := m.allowAll || m.origins[origin]
		switch {
		case m.allowAll:
			h.Set("Access-Control-Allow-Origin", "*")
		case allowed && origin != "":
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}

		isPreflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
		if !isPreflight {
			next.ServeHTTP(w, r)
			return
		}

		if allowed {
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
				h.Add("Vary", "Access-Control-Request-Headers")
			}
			h.Set("Access-Control-Max-Age", corsMaxAge)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
