package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnmatchedRoute labels requests that fell through to the catch-all handler,
// so scanners probing random paths cannot grow label cardinality.
const UnmatchedRoute = "unmatched"

// Instrument wraps a route handler with request count, latency and in-flight
// metrics. route is the registered path, never the raw request path.
func Instrument(route string, next http.Handler) http.Handler {
	labels := prometheus.Labels{"path": route}

	return promhttp.InstrumentHandlerInFlight(HTTPRequestsInFlight,
		promhttp.InstrumentHandlerDuration(HTTPRequestDuration.MustCurryWith(labels),
			promhttp.InstrumentHandlerCounter(HTTPRequestsTotal.MustCurryWith(labels), next),
		),
	)
}
