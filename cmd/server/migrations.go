package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/task-api/internal/platform/postgres"
	"github.com/phrazzld/task-api/internal/platform/sqlite"
	"github.com/pressly/goose/v3"
)

// Supported migrate subcommands.
const (
	migrateUp      = "up"
	migrateDown    = "down"
	migrateStatus  = "status"
	migrateVersion = "version"
	migrateReset   = "reset"
)

var migrateCommands = []string{migrateUp, migrateDown, migrateStatus, migrateVersion, migrateReset}

// newMigrationProvider picks the embedded migration set for driver.
func newMigrationProvider(driver string, db *sql.DB) (*goose.Provider, error) {
	switch driver {
	case driverPostgres:
		return postgres.NewMigrationProvider(db)
	case driverSQLite:
		return sqlite.NewMigrationProvider(db)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// runMigrations executes command against db and writes a human readable
// report to out.
func runMigrations(
	ctx context.Context,
	driver string,
	db *sql.DB,
	command string,
	out io.Writer,
	logger *slog.Logger,
) error {
	provider, err := newMigrationProvider(driver, db)
	if err != nil {
		return err
	}

	logger = logger.With("component", "migrations", "command", command)
	start := time.Now()
	logger.Info("Starting migration operation")

	switch command {
	case migrateUp:
		results, err := provider.Up(ctx)
		printResults(out, results)
		if err != nil {
			return fmt.Errorf("migrate up failed: %w", err)
		}
	case migrateDown:
		result, err := provider.Down(ctx)
		if result != nil {
			printResults(out, []*goose.MigrationResult{result})
		}
		if err != nil {
			return fmt.Errorf("migrate down failed: %w", err)
		}
	case migrateReset:
		results, err := provider.DownTo(ctx, 0)
		printResults(out, results)
		if err != nil {
			return fmt.Errorf("migrate reset failed: %w", err)
		}
	case migrateStatus:
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrate status failed: %w", err)
		}
		for _, s := range statuses {
			applied := "pending"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(out, "%-8d %-40s %s\n", s.Source.Version, s.Source.Path, applied)
		}
	case migrateVersion:
		version, err := provider.GetDBVersion(ctx)
		if err != nil {
			return fmt.Errorf("migrate version failed: %w", err)
		}
		fmt.Fprintf(out, "version %d\n", version)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}

	logger.Info("Migration operation completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func printResults(out io.Writer, results []*goose.MigrationResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, "no migrations to run")
		return
	}
	for _, r := range results {
		status := "OK"
		if r.Error != nil {
			status = "FAILED"
		}
		fmt.Fprintf(out, "%-4s %-8d %-40s %s (%s)\n",
			r.Direction, r.Source.Version, r.Source.Path, status, r.Duration.Round(time.Millisecond))
	}
}
