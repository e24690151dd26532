package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/examsbot/core/logger"
)

const (
	migrateComponent = "db.migrate"
	previewLimit     = 6
	readyTimeout     = 30 * time.Second
)

// RunMigrations applies all pending up migrations from cfg.MigrationsDir.
func RunMigrations(cfg Config) error {
	ctx := context.Background()
	if err := WaitForPostgres(ctx, cfg.DSN(), readyTimeout); err != nil {
		logger.Error(ctx, migrateComponent, "db.not_ready", slog.String("err", err.Error()))
		return fmt.Errorf("database not ready: %w", err)
	}

	dir, err := migrationsDir(cfg)
	if err != nil {
		return err
	}
	files := listMigrationFiles(dir)
	logger.Debug(ctx, migrateComponent, "migrate.resolve",
		append([]slog.Attr{slog.String("path", dir)}, previewAttrs(files)...)...,
	)

	m, err := migrate.New("file://"+filepath.ToSlash(dir), cfg.URL())
	if err != nil {
		logger.Error(ctx, migrateComponent, "migrate.init", slog.String("err", err.Error()))
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := logger.RoundMS(time.Since(start))

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.Error(ctx, migrateComponent, "migrate.apply",
			slog.String("err", upErr.Error()),
			slog.Duration("duration", took),
		)
		return fmt.Errorf("migration execution failed: %w", upErr)
	}

	to := from
	if upErr == nil {
		to, _, _ = m.Version()
	}
	applied := selectApplied(files, uint64(from), uint64(to))
	if len(applied) > 0 {
		logger.Debug(ctx, migrateComponent, "migrate.applied", previewAttrs(applied)...)
	}
	logger.Info(ctx, migrateComponent, "migrate.summary",
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

func migrationsDir(cfg Config) (string, error) {
	dir := cfg.MigrationsDir
	if dir == "" {
		dir = defaultMigrationsDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	return abs, nil
}

func previewAttrs(names []string) []slog.Attr {
	attrs := []slog.Attr{slog.Int("files_total", len(names))}
	if len(names) == 0 {
		return attrs
	}
	shown := names[:min(len(names), previewLimit)]
	attrs = append(attrs, slog.String("files_preview", strings.Join(shown, ", ")))
	if len(shown) < len(names) {
		attrs = append(attrs, slog.Bool("files_truncated", true))
	}
	return attrs
}

// listMigrationFiles returns the sorted *.up.sql names in dir; an unreadable dir yields nil.
func listMigrationFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func parseVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

// selectApplied returns the files with a version in (from, to].
func selectApplied(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
