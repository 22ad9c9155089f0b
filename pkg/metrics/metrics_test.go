package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecordDispatch(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(provider.Meter("test"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx := context.Background()
	m.RecordDispatch(ctx, "sent")
	m.RecordDispatch(ctx, "sent")
	m.RecordDispatch(ctx, "rejected")
	m.RecordSubmission(ctx, "accepted")
	m.RecordSMSSend(ctx, "stub", "ok", 0.01)

	got := collect(t, reader)

	sum, ok := got["dispatch_outcomes_total"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum for dispatch_outcomes_total")
	}
	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("status"))
		counts[v.AsString()] = dp.Value
	}
	if counts["sent"] != 2 || counts["rejected"] != 1 {
		t.Fatalf("unexpected dispatch counts %v", counts)
	}

	if _, ok := got["intake_submissions_total"]; !ok {
		t.Fatalf("expected intake_submissions_total to be exported")
	}
	if _, ok := got["sms_send_duration_seconds"]; !ok {
		t.Fatalf("expected sms_send_duration_seconds to be exported")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordDispatch(context.Background(), "sent")
	m.RecordSubmission(context.Background(), "accepted")
	m.RecordSMSSend(context.Background(), "stub", "ok", 1)
}
