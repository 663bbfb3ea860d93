// Утилита управления схемой БД: migrate [flags] up|down|status.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/chsync/internal/storage/postgres"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	steps := fs.Int("steps", 0, "сколько миграций применить или откатить (0: все для up, одна для down)")
	dsn := fs.String("dsn", "", "PostgreSQL DSN; по умолчанию берётся из CHSYNC_POSTGRES_DSN")
	timeout := fs.Duration("timeout", 30*time.Second, "общий таймаут на выполнение")
	if err := fs.Parse(args); err != nil {
		return err
	}

	command := "up"
	if fs.NArg() > 0 {
		command = strings.ToLower(fs.Arg(0))
	}
	if command != "up" && command != "down" && command != "status" {
		return fmt.Errorf("неизвестная команда %q, ожидается up, down или status", command)
	}

	connString := strings.TrimSpace(*dsn)
	if connString == "" {
		connString = strings.TrimSpace(os.Getenv("CHSYNC_POSTGRES_DSN"))
	}
	if connString == "" {
		return fmt.Errorf("нужен -dsn или переменная CHSYNC_POSTGRES_DSN")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := postgres.Open(ctx, connString)
	if err != nil {
		return fmt.Errorf("подключение к postgres: %w", err)
	}
	defer store.Close()

	switch command {
	case "up":
		if err := store.MigrateUp(ctx, *steps); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		if err := store.MigrateDown(ctx, *steps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	}

	version, applied, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("статус миграций: %w", err)
	}
	_, _ = fmt.Fprintf(out, "%s: version=%d applied=%d\n", command, version, applied)
	return nil
}
