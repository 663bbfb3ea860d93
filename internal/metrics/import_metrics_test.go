package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewImportMetrics(t *testing.T) {
	metrics := newImportMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newImportMetricsWithRegisterer should not return nil")
	}
	if metrics.ordersImported == nil {
		t.Error("ordersImported counter should not be nil")
	}
	if metrics.ordersSkipped == nil {
		t.Error("ordersSkipped counter should not be nil")
	}
	if metrics.ordersFailed == nil {
		t.Error("ordersFailed counter should not be nil")
	}
	if metrics.ordersOnHold == nil {
		t.Error("ordersOnHold counter should not be nil")
	}
	if metrics.reservations == nil {
		t.Error("reservations counter should not be nil")
	}
	if metrics.batchDuration == nil {
		t.Error("batchDuration histogram should not be nil")
	}
	if metrics.orderDuration == nil {
		t.Error("orderDuration histogram vec should not be nil")
	}
	if metrics.activeBatches == nil {
		t.Error("activeBatches gauge should not be nil")
	}
}

func TestNewImportMetrics_ReregisterReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newImportMetricsWithRegisterer(reg)
	second := newImportMetricsWithRegisterer(reg)

	first.RecordOrderImported()
	second.RecordOrderImported()

	metric := &dto.Metric{}
	if err := first.ordersImported.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected shared counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordOrderOutcomes(t *testing.T) {
	metrics := newImportMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordOrderImported()
	metrics.RecordOrderImported()
	metrics.RecordOrderSkipped()
	metrics.RecordOrderFailed()
	metrics.RecordOrderOnHold()

	cases := []struct {
		name    string
		counter prometheus.Counter
		want    float64
	}{
		{name: "imported", counter: metrics.ordersImported, want: 2.0},
		{name: "skipped", counter: metrics.ordersSkipped, want: 1.0},
		{name: "failed", counter: metrics.ordersFailed, want: 1.0},
		{name: "on hold", counter: metrics.ordersOnHold, want: 1.0},
	}

	for _, tc := range cases {
		metric := &dto.Metric{}
		if err := tc.counter.Write(metric); err != nil {
			t.Fatalf("failed to write %s metric: %v", tc.name, err)
		}
		if metric.Counter.GetValue() != tc.want {
			t.Errorf("%s counter = %f, want %f", tc.name, metric.Counter.GetValue(), tc.want)
		}
	}
}

func TestRecordReservations(t *testing.T) {
	metrics := newImportMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordReservations(3)
	metrics.RecordReservations(2)

	metric := &dto.Metric{}
	if err := metrics.reservations.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 5.0 {
		t.Errorf("expected counter value 5.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordBatchDuration(t *testing.T) {
	metrics := newImportMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordBatchDuration(100 * time.Millisecond)
	metrics.RecordBatchDuration(500 * time.Millisecond)

	metric := &dto.Metric{}
	if err := metrics.batchDuration.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("expected 2 samples, got %d", metric.Histogram.GetSampleCount())
	}

	sum := metric.Histogram.GetSampleSum()
	if sum < 0.55 || sum > 0.65 {
		t.Errorf("expected sum around 0.6, got %f", sum)
	}
}

func TestBatchLifecycle(t *testing.T) {
	metrics := newImportMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordBatchStarted()
	metrics.RecordBatchStarted()
	metrics.RecordBatchFinished()

	gaugeMetric := &dto.Metric{}
	if err := metrics.activeBatches.Write(gaugeMetric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}

	if gaugeMetric.Gauge.GetValue() != 1.0 {
		t.Errorf("expected 1.0 active batch, got %f", gaugeMetric.Gauge.GetValue())
	}
}

func TestRecordOrderDuration(t *testing.T) {
	metrics := newImportMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordOrderDuration("imported", 50*time.Millisecond)
	metrics.RecordOrderDuration("failed", 25*time.Millisecond)

	observer := metrics.orderDuration.WithLabelValues("imported")
	metric := &dto.Metric{}
	if err := observer.(prometheus.Histogram).Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("expected 1 sample for imported, got %d", metric.Histogram.GetSampleCount())
	}
}
