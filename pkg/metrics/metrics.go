package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics 业务指标集合
type Metrics struct {
	IntakeSubmissions metric.Int64Counter
	DispatchOutcomes  metric.Int64Counter
	SMSSendDuration   metric.Float64Histogram
}

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// New 在给定 meter 上创建指标
func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.IntakeSubmissions, err = meter.Int64Counter(
		"intake_submissions_total",
		metric.WithDescription("Intake submissions by outcome"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, err
	}

	m.DispatchOutcomes, err = meter.Int64Counter(
		"dispatch_outcomes_total",
		metric.WithDescription("Dispatch results by final request status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.SMSSendDuration, err = meter.Float64Histogram(
		"sms_send_duration_seconds",
		metric.WithDescription("Time spent sending SMS in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Default 挂在全局 MeterProvider 上，未初始化 OTel 时为 noop
func Default() *Metrics {
	defaultOnce.Do(func() {
		m, err := New(otel.Meter("dignity-dialogue"))
		if err != nil {
			m = nil
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordSubmission outcome: accepted, invalid, unverified, failed
func (m *Metrics) RecordSubmission(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.IntakeSubmissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordDispatch status: sent, failed, rejected, skipped
func (m *Metrics) RecordDispatch(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.DispatchOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *Metrics) RecordSMSSend(ctx context.Context, provider, result string, seconds float64) {
	if m == nil {
		return
	}
	m.SMSSendDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("result", result),
	))
}
