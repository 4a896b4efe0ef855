package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}

// LoginMetrics counts login attempts by provider and outcome
type LoginMetrics struct {
	attempts metric.Int64Counter
}

// NewLoginMetrics registers the login instruments on meter
func NewLoginMetrics(meter metric.Meter) (*LoginMetrics, error) {
	attempts, err := meter.Int64Counter(
		"auth.login.attempts",
		metric.WithDescription("Completed OAuth login callbacks by provider and outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login attempts counter: %w", err)
	}

	return &LoginMetrics{attempts: attempts}, nil
}

// RecordAttempt adds one attempt. Outcome is "success" or a failure label.
func (m *LoginMetrics) RecordAttempt(ctx context.Context, provider, outcome string) {
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}
