package orchestrator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/guardd/internal/orchestrator"

// Metrics holds guardrail execution metrics.
type Metrics struct {
	meter      metric.Meter
	logger     *zap.Logger
	checks     metric.Int64Counter
	detections metric.Int64Counter
}

// NewMetrics creates orchestrator metrics instruments.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}

	var err error
	m.checks, err = m.meter.Int64Counter(
		"guardd.guardrail.checks_total",
		metric.WithDescription("Guardrail executions labeled by guardrail id, operation (validate, transform), and outcome (ok, error)."),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		m.logger.Warn("failed to create checks counter", zap.Error(err))
	}

	m.detections, err = m.meter.Int64Counter(
		"guardd.guardrail.detections_total",
		metric.WithDescription("Violations and entities detected, labeled by guardrail id."),
		metric.WithUnit("{detection}"),
	)
	if err != nil {
		m.logger.Warn("failed to create detections counter", zap.Error(err))
	}

	return m
}

// RecordCheck counts one guardrail execution.
func (m *Metrics) RecordCheck(ctx context.Context, id, operation, outcome string) {
	if m.checks == nil {
		return
	}
	m.checks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("guardrail", id),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

// RecordDetections counts detections for one guardrail execution.
func (m *Metrics) RecordDetections(ctx context.Context, id string, n int) {
	if m.detections == nil || n == 0 {
		return
	}
	m.detections.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("guardrail", id),
	))
}
