package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/chsync/internal/health"
	"github.com/vladislavdragonenkov/chsync/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/chsync/internal/service/outbox"
	"github.com/vladislavdragonenkov/chsync/internal/service/retention"
	"github.com/vladislavdragonenkov/chsync/internal/version"
)

// Run запускает сервис синхронизации и блокируется до отмены ctx.
// Поднимаются: HTTP-сервер метрик и health-проверок, consumer сырых
// заказов (если настроен Kafka), outbox worker и очистка завершённых
// задач синхронизации.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	producer, consumer, err := initKafka(cfg.Kafka, deps.Importer, logger)
	if err != nil {
		return err
	}

	// HTTP Health checks
	healthHandler := healthcheck.NewHandler(version.String())
	if deps.Store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.Store.Ping(checkCtx)
		}))
	}

	metricsSrv := startMetricsServer(cfg.Service.MetricsAddr, logger, healthHandler)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup

	outboxWorker := newOutboxWorker(cfg, deps, producer, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		outboxWorker.Run(workerCtx)
	}()

	cleanupWorker := retention.NewCleanupWorker(
		deps.SyncJobs,
		retention.WithInterval(cfg.Retention.Interval),
		retention.WithWindow(cfg.Retention.Window),
		retention.WithBatchSize(cfg.Retention.BatchSize),
		retention.WithLogger(logger.WithField("component", "retention-worker")),
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanupWorker.Run(workerCtx)
	}()

	if consumer != nil {
		if err := consumer.Start(workerCtx); err != nil {
			cancelWorkers()
			wg.Wait()
			shutdownHTTP(metricsSrv, cfg.Service.ShutdownTimeout, logger)
			closeKafka(producer, consumer, logger)
			return err
		}
	}

	logger.Info("сервис синхронизации запущен")
	<-ctx.Done()
	logger.Info("получен сигнал остановки, завершаем работу")

	cancelWorkers()
	wg.Wait()

	closeKafka(producer, consumer, logger)
	shutdownHTTP(metricsSrv, cfg.Service.ShutdownTimeout, logger)

	return ctx.Err()
}

// newOutboxWorker собирает outbox worker. При наличии Kafka события
// публикуются в топик заказов, непоправимые — в DLQ; без Kafka worker
// работает с логирующим publisher, чтобы очередь не копилась молча.
func newOutboxWorker(cfg Config, deps *Dependencies, producer *kafka.Producer, logger *log.Entry) *outbox.Worker {
	options := []outbox.Option{
		outbox.WithPollInterval(cfg.Outbox.PollInterval),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithMaxAttempts(cfg.Outbox.MaxAttempts),
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
	}

	var publisher = outbox.NewLogPublisher(logger.WithField("component", "outbox-log-publisher"))
	if producer != nil {
		publisher = kafka.NewOutboxPublisher(producer, cfg.Kafka.OrderEventsTopic)
		options = append(options, outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, cfg.Kafka.DLQTopic)))
	}

	return outbox.NewWorker(deps.Outbox, publisher, options...)
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()
	return srv
}

// shutdownHTTP корректно останавливает HTTP-сервер метрик.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("metrics server shutdown failed")
	}
}
