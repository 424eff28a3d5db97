package middleware

import (
	"context"
	"strconv"
	"time"

	awspkg "github.com/felixojiambo/customer-order-system/pkg/aws"

	"github.com/gin-gonic/gin"
)

const metricsRecordTimeout = 5 * time.Second

// RequestMetrics records request count, latency and error counters per route.
// Dimensions use the registered route template rather than the raw URL path,
// so /orders/42 and /orders/43 land in the same series.
func RequestMetrics(metricsClient *awspkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsClient == nil || !metricsClient.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		dims := requestDimensions(serviceName, c.Request.Method, c.FullPath(), status)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), metricsRecordTimeout)
			defer cancel()

			_ = metricsClient.RecordCount(ctx, awspkg.MetricHTTPRequests, dims)
			_ = metricsClient.RecordLatency(ctx, awspkg.MetricHTTPLatency, elapsed, dims)

			switch {
			case status >= 500:
				_ = metricsClient.RecordCount(ctx, awspkg.MetricHTTPErrors, dims)
				_ = metricsClient.RecordCount(ctx, awspkg.MetricHTTP5xx, dims)
			case status >= 400:
				_ = metricsClient.RecordCount(ctx, awspkg.MetricHTTPErrors, dims)
				_ = metricsClient.RecordCount(ctx, awspkg.MetricHTTP4xx, dims)
			}
		}()
	}
}

func requestDimensions(service, method, route string, status int) map[string]string {
	if route == "" {
		// Request did not match a registered route (404s, bad methods).
		route = "unmatched"
	}
	return map[string]string{
		"Service": service,
		"Method":  method,
		"Route":   route,
		"Status":  statusClass(status),
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
