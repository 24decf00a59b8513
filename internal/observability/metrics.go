// Package observability provides Prometheus metrics and gin middleware
// for monitoring foodtracker.
package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// LookupsTotal counts ingredient lookups by outcome (success, validation, network, parse, not_found).
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodtracker_lookups_total",
			Help: "Ingredient lookups",
		},
		[]string{"outcome"},
	)

	// LookupDuration records end-to-end lookup duration in seconds.
	LookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodtracker_lookup_duration_seconds",
			Help:    "Ingredient lookup duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	// TransportRequestsTotal counts calls to the recipe API by stage (search, get) and status (ok, error).
	TransportRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodtracker_transport_requests_total",
			Help: "Recipe API requests",
		},
		[]string{"stage", "status"},
	)

	// RequestsTotal counts HTTP requests by method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodtracker_http_requests_total",
			Help: "HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		LookupsTotal,
		LookupDuration,
		TransportRequestsTotal,
		RequestsTotal,
	)
}

// ObserveLookup records one finished lookup.
func ObserveLookup(outcome string, started time.Time) {
	LookupsTotal.WithLabelValues(outcome).Inc()
	LookupDuration.Observe(time.Since(started).Seconds())
}

// ObserveTransport records one recipe API call.
func ObserveTransport(stage string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	TransportRequestsTotal.WithLabelValues(stage, status).Inc()
}

// GinMiddleware records request counts by matched route and status class.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status()/100) + "xx"
		RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}
