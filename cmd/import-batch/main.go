// Команда import-batch прогоняет файл сырых заказов через конвейер
// импорта без Kafka. Используется для ручных выгрузок и отладки
// адаптеров: заказы читаются из файла, результат печатается сводкой.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/chsync/internal/app"
	"github.com/vladislavdragonenkov/chsync/internal/domain"
	"github.com/vladislavdragonenkov/chsync/internal/service/importer"
)

const defaultRunTimeout = 5 * time.Minute

type config struct {
	filePath  string
	adapter   string
	channelID string
	accountID string
	timeout   time.Duration
	output    string
}

type runReport struct {
	JobID    string    `json:"job_id"`
	Success  bool      `json:"success"`
	Total    int       `json:"total"`
	Imported int       `json:"imported"`
	Skipped  int       `json:"skipped"`
	Errors   int       `json:"errors"`
	RanAt    time.Time `json:"ran_at"`
	Duration string    `json:"duration"`
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := parseConfig()
	if err != nil {
		fail("%v", err)
	}

	summary, total, err := run(cfg)
	if err != nil {
		fail("import failed: %v", err)
	}

	if !summary.Success {
		fail("job %s finished with %d error(s): imported=%d skipped=%d total=%d",
			summary.JobID, summary.Errors, summary.Imported, summary.Skipped, total)
	}
}

func parseConfig() (config, error) {
	var cfg config
	var timeoutValue string

	flag.StringVar(&cfg.filePath, "file", "", "path to raw orders file (JSON array or one JSON object per line)")
	flag.StringVar(&cfg.adapter, "adapter", "shopify", "channel adapter: shopify | woo")
	flag.StringVar(&cfg.channelID, "channel-id", "", "channel id (defaults to adapter name)")
	flag.StringVar(&cfg.accountID, "account-id", "", "channel account id")
	flag.StringVar(&timeoutValue, "timeout", defaultRunTimeout.String(), "total run timeout")
	flag.StringVar(&cfg.output, "output", "", "optional JSON report output file path")
	flag.Parse()

	if strings.TrimSpace(cfg.filePath) == "" {
		return config{}, fmt.Errorf("-file is required")
	}
	if strings.TrimSpace(cfg.adapter) == "" {
		return config{}, fmt.Errorf("-adapter is required")
	}
	if cfg.channelID == "" {
		cfg.channelID = cfg.adapter
	}

	timeout, err := time.ParseDuration(timeoutValue)
	if err != nil || timeout <= 0 {
		return config{}, fmt.Errorf("invalid -timeout value: %s", timeoutValue)
	}
	cfg.timeout = timeout

	return cfg, nil
}

func run(cfg config) (domain.ImportSummary, int, error) {
	file, err := os.Open(cfg.filePath)
	if err != nil {
		return domain.ImportSummary{}, 0, fmt.Errorf("open payload file: %w", err)
	}
	defer file.Close()

	payloads, err := readPayloads(file)
	if err != nil {
		return domain.ImportSummary{}, 0, fmt.Errorf("read payloads from %s: %w", cfg.filePath, err)
	}
	if len(payloads) == 0 {
		return domain.ImportSummary{}, 0, fmt.Errorf("file %s contains no orders", cfg.filePath)
	}

	appCfg, err := app.Load()
	if err != nil {
		return domain.ImportSummary{}, 0, fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	deps, err := app.NewDependencies(ctx, appCfg, log.WithField("component", "import-batch"))
	if err != nil {
		return domain.ImportSummary{}, 0, err
	}
	defer deps.Close()

	startedAt := time.Now()
	summary, err := deps.Importer.ImportBatch(ctx, importer.Batch{
		ChannelID:        cfg.channelID,
		ChannelAccountID: cfg.accountID,
		Adapter:          cfg.adapter,
		JobType:          domain.SyncJobPullOrders,
		Payloads:         payloads,
	})
	if err != nil {
		return domain.ImportSummary{}, len(payloads), err
	}

	printSummary(summary, len(payloads), time.Since(startedAt))

	if cfg.output != "" {
		if err := writeJSONReport(cfg.output, buildReport(summary, len(payloads), startedAt, time.Since(startedAt))); err != nil {
			return summary, len(payloads), fmt.Errorf("write report: %w", err)
		}
	}

	return summary, len(payloads), nil
}

// readPayloads принимает либо JSON-массив заказов, либо NDJSON:
// по одному JSON-объекту на строку, пустые строки пропускаются.
func readPayloads(r io.Reader) ([]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var payloads []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &payloads); err != nil {
			return nil, fmt.Errorf("decode json array: %w", err)
		}
		return payloads, nil
	}

	var payloads []json.RawMessage
	scanner := bufio.NewScanner(strings.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			return nil, fmt.Errorf("line %d is not valid json", lineNo)
		}
		payloads = append(payloads, json.RawMessage(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return payloads, nil
}

func buildReport(summary domain.ImportSummary, total int, startedAt time.Time, took time.Duration) runReport {
	return runReport{
		JobID:    summary.JobID,
		Success:  summary.Success,
		Total:    total,
		Imported: summary.Imported,
		Skipped:  summary.Skipped,
		Errors:   summary.Errors,
		RanAt:    startedAt.UTC(),
		Duration: took.String(),
	}
}

func printSummary(summary domain.ImportSummary, total int, took time.Duration) {
	log.WithFields(log.Fields{
		"job_id":   summary.JobID,
		"success":  summary.Success,
		"total":    total,
		"imported": summary.Imported,
		"skipped":  summary.Skipped,
		"errors":   summary.Errors,
		"took":     took.Round(time.Millisecond).String(),
	}).Info("import batch finished")
}

func writeJSONReport(path string, result runReport) error {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(encoded, '\n'), 0o644)
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
