package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics содержит метрики конвейера импорта заказов.
type ImportMetrics struct {
	// Счётчики исходов обработки заказов
	ordersImported prometheus.Counter
	ordersSkipped  prometheus.Counter
	ordersFailed   prometheus.Counter
	ordersOnHold   prometheus.Counter

	// Счётчики резервов и событий
	reservations prometheus.Counter
	outboxEvents prometheus.Counter

	// Гистограммы времени выполнения
	batchDuration prometheus.Histogram
	orderDuration *prometheus.HistogramVec

	// Gauge для активных пакетов
	activeBatches prometheus.Gauge
}

// NewImportMetrics создаёт новый экземпляр метрик импорта.
func NewImportMetrics() *ImportMetrics {
	return newImportMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newImportMetricsWithRegisterer(registerer prometheus.Registerer) *ImportMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ImportMetrics{
		ordersImported: registerCounter(registerer, prometheus.CounterOpts{
			Name: "chsync_orders_imported_total",
			Help: "Total number of channel orders imported",
		}),
		ordersSkipped: registerCounter(registerer, prometheus.CounterOpts{
			Name: "chsync_orders_skipped_total",
			Help: "Total number of channel orders skipped as duplicates or unusable",
		}),
		ordersFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "chsync_orders_failed_total",
			Help: "Total number of channel orders that failed to import",
		}),
		ordersOnHold: registerCounter(registerer, prometheus.CounterOpts{
			Name: "chsync_orders_on_hold_total",
			Help: "Total number of imported orders placed on hold",
		}),
		reservations: registerCounter(registerer, prometheus.CounterOpts{
			Name: "chsync_reservations_total",
			Help: "Total number of inventory reservations applied",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "chsync_outbox_events_total",
			Help: "Total number of outbox events published",
		}),
		batchDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "chsync_import_batch_duration_seconds",
			Help:    "Duration of order import batches in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		orderDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "chsync_import_order_duration_seconds",
			Help:    "Duration of single order processing in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"outcome"}),
		activeBatches: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "chsync_active_import_batches",
			Help: "Number of currently running import batches",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderImported увеличивает счётчик импортированных заказов.
func (m *ImportMetrics) RecordOrderImported() {
	m.ordersImported.Inc()
}

// RecordOrderSkipped увеличивает счётчик пропущенных заказов.
func (m *ImportMetrics) RecordOrderSkipped() {
	m.ordersSkipped.Inc()
}

// RecordOrderFailed увеличивает счётчик заказов с ошибкой импорта.
func (m *ImportMetrics) RecordOrderFailed() {
	m.ordersFailed.Inc()
}

// RecordOrderOnHold увеличивает счётчик заказов, поставленных на HOLD.
func (m *ImportMetrics) RecordOrderOnHold() {
	m.ordersOnHold.Inc()
}

// RecordReservations увеличивает счётчик применённых резервов.
func (m *ImportMetrics) RecordReservations(n int) {
	m.reservations.Add(float64(n))
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *ImportMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

// RecordBatchStarted увеличивает количество активных пакетов.
func (m *ImportMetrics) RecordBatchStarted() {
	m.activeBatches.Inc()
}

// RecordBatchFinished уменьшает количество активных пакетов.
func (m *ImportMetrics) RecordBatchFinished() {
	m.activeBatches.Dec()
}

// RecordBatchDuration записывает время обработки пакета.
func (m *ImportMetrics) RecordBatchDuration(duration time.Duration) {
	m.batchDuration.Observe(duration.Seconds())
}

// RecordOrderDuration записывает время обработки одного заказа.
func (m *ImportMetrics) RecordOrderDuration(outcome string, duration time.Duration) {
	m.orderDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
