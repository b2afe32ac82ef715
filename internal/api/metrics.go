package api

import (
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qlinear_http_requests_total",
		Help: "Total number of API requests",
	}, []string{"route"})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qlinear_http_request_duration_seconds",
		Help:    "Latency of API requests",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"route"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qlinear_http_errors_total",
		Help: "Total number of error responses by error type",
	}, []string{"type"})

	predictedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qlinear_predicted_rows_total",
		Help: "Total number of rows predicted",
	}, []string{"model"})

	clippedElements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qlinear_quantize_clipped_elements_total",
		Help: "Elements saturated to the int8 range by /v1/quantize",
	})

	lastScale = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qlinear_quantize_last_scale",
		Help: "Scale used by the most recent /v1/quantize request",
	})
)

// observe records request count and latency for a route.
func observe(route string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			start := time.Now()
			err := next(c)
			requestsTotal.WithLabelValues(route).Inc()
			requestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func handleMetrics(c *echo.Context) error {
	promhttp.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}
