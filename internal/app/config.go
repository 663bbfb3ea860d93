package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Подхватываем .env, если он есть; отсутствие файла не ошибка.
	_ = godotenv.Load()
}

// Config — настройки сервиса, читаемые из окружения.
type Config struct {
	Service   ServiceConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	Kafka     KafkaConfig
	Cache     CacheConfig
	Import    ImportConfig
	Outbox    OutboxConfig
	Retention RetentionConfig
}

// ServiceConfig — HTTP-сервер метрик и health-проверок.
type ServiceConfig struct {
	MetricsAddr     string        `envconfig:"CHSYNC_METRICS_ADDR" default:":9090"`
	ShutdownTimeout time.Duration `envconfig:"CHSYNC_SHUTDOWN_TIMEOUT" default:"5s"`
}

// StorageConfig выбирает реализацию хранилища.
type StorageConfig struct {
	// Type: memory либо postgres.
	Type string `envconfig:"CHSYNC_STORAGE_TYPE" default:"memory"`
}

// PostgresConfig — подключение к PostgreSQL.
type PostgresConfig struct {
	Host     string `envconfig:"CHSYNC_POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"CHSYNC_POSTGRES_PORT" default:"5432"`
	Name     string `envconfig:"CHSYNC_POSTGRES_DB" default:"chsync"`
	User     string `envconfig:"CHSYNC_POSTGRES_USER" default:"chsync"`
	Password string `envconfig:"CHSYNC_POSTGRES_PASSWORD" default:""`
	SSLMode  string `envconfig:"CHSYNC_POSTGRES_SSLMODE" default:"disable"`
	Migrate  bool   `envconfig:"CHSYNC_POSTGRES_MIGRATE" default:"true"`
}

// DSN возвращает строку подключения к PostgreSQL.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode)
}

// KafkaConfig — брокер и топики. Пустой Brokers отключает Kafka.
type KafkaConfig struct {
	Brokers          string `envconfig:"CHSYNC_KAFKA_BROKERS" default:""`
	GroupID          string `envconfig:"CHSYNC_KAFKA_GROUP_ID" default:"chsync-importer"`
	RawOrdersTopic   string `envconfig:"CHSYNC_KAFKA_RAW_ORDERS_TOPIC" default:"chsync.orders.raw"`
	OrderEventsTopic string `envconfig:"CHSYNC_KAFKA_ORDER_EVENTS_TOPIC" default:"chsync.order.events"`
	DLQTopic         string `envconfig:"CHSYNC_KAFKA_DLQ_TOPIC" default:"chsync.dlq"`
	ConsumerRetries  int    `envconfig:"CHSYNC_KAFKA_CONSUMER_RETRIES" default:"3"`
}

// Enabled сообщает, настроен ли Kafka.
func (k *KafkaConfig) Enabled() bool {
	return strings.TrimSpace(k.Brokers) != ""
}

// BrokerList возвращает брокеры списком.
func (k *KafkaConfig) BrokerList() []string {
	parts := strings.Split(k.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			brokers = append(brokers, part)
		}
	}
	return brokers
}

// CacheConfig — кэш каталога.
type CacheConfig struct {
	// Type: memory либо redis.
	Type string        `envconfig:"CHSYNC_CACHE_TYPE" default:"memory"`
	TTL  time.Duration `envconfig:"CHSYNC_CACHE_TTL" default:"5m"`

	RedisAddr     string `envconfig:"CHSYNC_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"CHSYNC_REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"CHSYNC_REDIS_DB" default:"0"`
}

// ImportConfig — параметры конвейера импорта.
type ImportConfig struct {
	// WarehouseID и WarehouseName закрепляют склад импорта;
	// пустые значения означают склад по умолчанию.
	WarehouseID   string `envconfig:"CHSYNC_IMPORT_WAREHOUSE_ID" default:""`
	WarehouseName string `envconfig:"CHSYNC_IMPORT_WAREHOUSE_NAME" default:""`
	// DefaultWarehouse создаётся в memory-хранилище при старте.
	DefaultWarehouse string `envconfig:"CHSYNC_IMPORT_DEFAULT_WAREHOUSE" default:"main"`
}

// OutboxConfig — параметры outbox worker.
type OutboxConfig struct {
	PollInterval time.Duration `envconfig:"CHSYNC_OUTBOX_POLL_INTERVAL" default:"1s"`
	BatchSize    int           `envconfig:"CHSYNC_OUTBOX_BATCH_SIZE" default:"100"`
	MaxAttempts  int           `envconfig:"CHSYNC_OUTBOX_MAX_ATTEMPTS" default:"3"`
}

// RetentionConfig — очистка завершённых задач синхронизации.
type RetentionConfig struct {
	Interval  time.Duration `envconfig:"CHSYNC_RETENTION_INTERVAL" default:"1h"`
	Window    time.Duration `envconfig:"CHSYNC_RETENTION_WINDOW" default:"720h"`
	BatchSize int           `envconfig:"CHSYNC_RETENTION_BATCH_SIZE" default:"500"`
}

// Load читает конфигурацию из переменных окружения.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
