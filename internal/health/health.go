// Package health отдаёт состояние сервиса по HTTP: сводный /healthz,
// liveness и readiness для оркестратора.
package health

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status — состояние компонента или сервиса в целом.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Check — результат одной проверки.
type Check struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Response — тело ответа /healthz. Status становится unhealthy,
// как только хотя бы одна проверка провалилась.
type Response struct {
	Status        Status           `json:"status"`
	Version       string           `json:"version,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Checks        map[string]Check `json:"checks,omitempty"`
}

// Checker выполняет проверку одного компонента.
type Checker interface {
	Check() Check
}

// Handler собирает зарегистрированные проверки и отвечает на
// /healthz и /readyz. Регистрация потокобезопасна: consumer и
// worker могут добавлять проверки после старта HTTP-сервера.
type Handler struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	version  string
	started  time.Time
}

// NewHandler возвращает обработчик health-проверок.
// version попадает в тело ответа как есть.
func NewHandler(version string) *Handler {
	return &Handler{
		checkers: make(map[string]Checker),
		version:  version,
		started:  time.Now(),
	}
}

// RegisterChecker добавляет проверку под именем name.
// Повторная регистрация с тем же именем заменяет предыдущую.
func (h *Handler) RegisterChecker(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// snapshot копирует карту проверок, чтобы не держать блокировку
// на время самих проверок.
func (h *Handler) snapshot() map[string]Checker {
	h.mu.RLock()
	defer h.mu.RUnlock()

	checkers := make(map[string]Checker, len(h.checkers))
	for name, c := range h.checkers {
		checkers[name] = c
	}
	return checkers
}

// runChecks прогоняет проверки в детерминированном порядке
// и возвращает их результаты вместе со сводным статусом.
func (h *Handler) runChecks() (map[string]Check, Status) {
	checkers := h.snapshot()

	names := make([]string, 0, len(checkers))
	for name := range checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]Check, len(checkers))
	overall := StatusHealthy
	for _, name := range names {
		check := checkers[name].Check()
		checks[name] = check
		if check.Status != StatusHealthy {
			overall = StatusUnhealthy
		}
	}
	return checks, overall
}

// ServeHTTP отвечает на /healthz: 200 при здоровых проверках,
// 503 при любой проваленной, тело в обоих случаях JSON.
func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	checks, overall := h.runChecks()

	code := http.StatusOK
	if overall != StatusHealthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{
		Status:        overall,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Checks:        checks,
	})
}

// ReadinessHandler отвечает на /readyz коротким текстом:
// сервис готов, только если все проверки прошли.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	if _, overall := h.runChecks(); overall != StatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// LivenessHandler отвечает на /livez. Процесс жив, раз дошёл сюда,
// поэтому всегда 200.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// simpleChecker оборачивает функцию в Checker и замеряет её время.
type simpleChecker struct {
	name string
	fn   func() error
}

// NewSimpleChecker возвращает проверку на основе функции:
// nil означает здоровый компонент, ошибка попадает в ответ.
func NewSimpleChecker(name string, fn func() error) Checker {
	return &simpleChecker{name: name, fn: fn}
}

func (c *simpleChecker) Check() Check {
	start := time.Now()
	err := c.fn()

	check := Check{
		Name:      c.name,
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		check.Status = StatusUnhealthy
		check.Error = err.Error()
	}
	return check
}
