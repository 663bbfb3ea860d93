package domain

import "time"

// SyncJobType описывает вид фоновой синхронизации с каналом.
type SyncJobType string

const (
	// SyncJobPullOrders — импорт заказов из канала.
	SyncJobPullOrders SyncJobType = "PULL_ORDERS"
	// SyncJobPullProducts — импорт каталога из канала.
	SyncJobPullProducts SyncJobType = "PULL_PRODUCTS"
	// SyncJobPushInventory — выгрузка остатков в канал.
	SyncJobPushInventory SyncJobType = "PUSH_INVENTORY"
)

// Valid проверяет корректность вида задачи.
func (t SyncJobType) Valid() bool {
	switch t {
	case SyncJobPullOrders, SyncJobPullProducts, SyncJobPushInventory:
		return true
	default:
		return false
	}
}

// SyncJobStatus описывает состояние задачи синхронизации.
type SyncJobStatus string

const (
	SyncJobQueued  SyncJobStatus = "QUEUED"
	SyncJobRunning SyncJobStatus = "RUNNING"
	SyncJobSuccess SyncJobStatus = "SUCCESS"
	SyncJobFailed  SyncJobStatus = "FAILED"
)

// Valid проверяет корректность статуса задачи.
func (s SyncJobStatus) Valid() bool {
	switch s {
	case SyncJobQueued, SyncJobRunning, SyncJobSuccess, SyncJobFailed:
		return true
	default:
		return false
	}
}

// Finished сообщает, достигла ли задача терминального состояния.
func (s SyncJobStatus) Finished() bool {
	return s == SyncJobSuccess || s == SyncJobFailed
}

// LogLevel — уровень записи в журнале синхронизации.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelError LogLevel = "ERROR"
)

// Valid проверяет корректность уровня.
func (l LogLevel) Valid() bool {
	return l == LogLevelInfo || l == LogLevelError
}

// SyncJob — одна фоновая задача синхронизации с каналом.
type SyncJob struct {
	ID               string
	ChannelID        string
	ChannelAccountID string
	Type             SyncJobType
	Status           SyncJobStatus
	// ItemsTotal/ItemsOK/ItemsFailed — итоговые счётчики пакета.
	ItemsTotal  int
	ItemsOK     int
	ItemsFailed int
	StartedAt   time.Time
	// FinishedAt нулевое, пока задача не завершена.
	FinishedAt time.Time
}

// SyncLog — запись журнала задачи синхронизации.
type SyncLog struct {
	ID      string
	JobID   string
	Level   LogLevel
	Message string
	// RawPayload — исходное сообщение канала для разбора инцидентов.
	// Заполняется для ERROR-записей.
	RawPayload []byte
	CreatedAt  time.Time
}

// ImportSummary — итог обработки пакета заказов.
type ImportSummary struct {
	Success  bool
	Imported int
	Skipped  int
	Errors   int
	JobID    string
}
