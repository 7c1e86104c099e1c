package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/provenly/backend/pkg/metrics"
)

// Metrics records latency and outcome per routed operation. The route pattern
// is read after the handler runs so parameterized paths collapse to one label.
func Metrics(m *metrics.LedgerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)

			operation := r.Method + " " + r.URL.Path
			if ctx := chi.RouteContext(r.Context()); ctx != nil {
				if pattern := ctx.RoutePattern(); pattern != "" {
					operation = r.Method + " " + pattern
				}
			}

			m.ObserveOperation(operation, time.Since(start))
			m.IncOutcome(operation, outcomeLabel(rec.status))
		})
	}
}

func outcomeLabel(status int) string {
	switch {
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return "success"
	}
}
