package middleware

import (
	"net/http"
	"sync/atomic"
)

// MetricsCollector counts requests and error responses across the server's
// lifetime. Counts are surfaced by the stats endpoint.
type MetricsCollector struct {
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// Counts returns the totals so far.
func (mc *MetricsCollector) Counts() (requests, errors int64) {
	return mc.requestCount.Load(), mc.errorCount.Load()
}

// Middleware returns middleware that counts requests and 4xx/5xx responses.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requestCount.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 400 {
			mc.errorCount.Add(1)
		}
	})
}
