package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/chsync/internal/domain"
)

func withImportCLIArgs(t *testing.T, args []string, fn func()) {
	t.Helper()

	oldArgs := os.Args
	oldCommandLine := flag.CommandLine

	os.Args = append([]string{"import-batch"}, args...)
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	defer func() {
		os.Args = oldArgs
		flag.CommandLine = oldCommandLine
	}()

	fn()
}

func TestReadPayloads_JSONArray(t *testing.T) {
	payloads, err := readPayloads(strings.NewReader(`[{"id":1},{"id":2}]`))
	if err != nil {
		t.Fatalf("read payloads: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(payloads))
	}
}

func TestReadPayloads_NDJSON(t *testing.T) {
	input := "{\"id\":1}\n\n  {\"id\":2}  \n{\"id\":3}\n"
	payloads, err := readPayloads(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read payloads: %v", err)
	}
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(payloads))
	}
	var decoded struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(payloads[1], &decoded); err != nil || decoded.ID != 2 {
		t.Fatalf("unexpected second payload: %s", payloads[1])
	}
}

func TestReadPayloads_Empty(t *testing.T) {
	payloads, err := readPayloads(strings.NewReader("  \n \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payloads) != 0 {
		t.Fatalf("expected no payloads, got %d", len(payloads))
	}
}

func TestReadPayloads_InvalidLine(t *testing.T) {
	if _, err := readPayloads(strings.NewReader("{\"id\":1}\nnot-json\n")); err == nil {
		t.Fatal("expected error for invalid line")
	}
}

func TestReadPayloads_InvalidArray(t *testing.T) {
	if _, err := readPayloads(strings.NewReader(`[{"id":1},`)); err == nil {
		t.Fatal("expected error for broken array")
	}
}

func TestParseConfig(t *testing.T) {
	withImportCLIArgs(t, []string{"-file=orders.json", "-adapter=woo", "-account-id=acc-7"}, func() {
		cfg, err := parseConfig()
		if err != nil {
			t.Fatalf("parse config: %v", err)
		}
		if cfg.adapter != "woo" {
			t.Errorf("adapter: got %q", cfg.adapter)
		}
		if cfg.channelID != "woo" {
			t.Errorf("channel id must default to adapter, got %q", cfg.channelID)
		}
		if cfg.accountID != "acc-7" {
			t.Errorf("account id: got %q", cfg.accountID)
		}
		if cfg.timeout != defaultRunTimeout {
			t.Errorf("timeout: got %v", cfg.timeout)
		}
	})
}

func TestParseConfig_MissingFile(t *testing.T) {
	withImportCLIArgs(t, []string{"-adapter=shopify"}, func() {
		if _, err := parseConfig(); err == nil {
			t.Fatal("expected error for missing -file")
		}
	})
}

func TestParseConfig_InvalidTimeout(t *testing.T) {
	withImportCLIArgs(t, []string{"-file=orders.json", "-timeout=never"}, func() {
		if _, err := parseConfig(); err == nil {
			t.Fatal("expected error for invalid timeout")
		}
	})
}

func TestWriteJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	report := buildReport(summaryForTest(), 3, time.Now(), 120*time.Millisecond)
	if err := writeJSONReport(path, report); err != nil {
		t.Fatalf("write report: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var decoded runReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.JobID != "job-9" || decoded.Imported != 2 || decoded.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", decoded)
	}
}

func TestRun_MemoryStorage(t *testing.T) {
	t.Setenv("CHSYNC_STORAGE_TYPE", "memory")
	t.Setenv("CHSYNC_CACHE_TYPE", "memory")

	path := filepath.Join(t.TempDir(), "orders.ndjson")
	payload := `{"id":1001,"email":"buyer@example.com","financial_status":"paid","total_price":"39.98","line_items":[{"sku":"TEE-BLK-M","title":"Tee","quantity":2,"price":"19.99"}]}`
	if err := os.WriteFile(path, []byte(payload+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, total, err := run(config{
		filePath:  path,
		adapter:   "shopify",
		channelID: "shopify",
		timeout:   30 * time.Second,
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("total: got %d", total)
	}
	if !summary.Success || summary.Imported != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRun_MissingFile(t *testing.T) {
	if _, _, err := run(config{filePath: filepath.Join(t.TempDir(), "absent.json"), adapter: "shopify", timeout: time.Second}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func summaryForTest() domain.ImportSummary {
	return domain.ImportSummary{
		JobID:    "job-9",
		Success:  true,
		Imported: 2,
		Skipped:  1,
	}
}
