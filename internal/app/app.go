// Package app assembles the examsbot runtime from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/examsbot/core/bootstrap"
	corecmd "github.com/m3rciful/examsbot/core/cmd"
	"github.com/m3rciful/examsbot/core/logger"
	tg "github.com/m3rciful/examsbot/core/telegram"
	"github.com/m3rciful/examsbot/core/telegram/state"
	"github.com/m3rciful/examsbot/internal/bot"
	"github.com/m3rciful/examsbot/internal/catalog"
	"github.com/m3rciful/examsbot/internal/config"
	"github.com/m3rciful/examsbot/internal/journal"
	"github.com/m3rciful/examsbot/internal/navigation"
)

// App holds the wired components of a running bot.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	registry *tg.Registry
	handler  *bot.Handler
}

// LoadConfig adapts config.Load to the runner.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	return config.Load(path)
}

// Bootstrap initializes logging and storage, then builds the app.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	return New(cfg, res.DB), nil
}

// New wires the catalog, navigation and Telegram handler. db may be nil.
func New(cfg *config.Config, db *sqlx.DB) *App {
	reader := catalog.NewReader(cfg.Catalog.Root)
	nav := navigation.NewController(reader, state.NewMemoryManager(), navigation.Labels{
		OpenCatalog: cfg.Catalog.Labels.OpenCatalog,
		BackToMain:  cfg.Catalog.Labels.BackToMain,
		BackToYears: cfg.Catalog.Labels.BackToYears,
	})

	handler := bot.New(nav, newJournal(cfg.Stats.Backend, db), cfg.Telegram.AdminID)
	reg := tg.NewRegistry()
	handler.Register(reg)

	return &App{cfg: cfg, db: db, registry: reg, handler: handler}
}

func newJournal(backend string, db *sqlx.DB) journal.Journal {
	switch {
	case backend == config.StatsPostgres && db != nil:
		return journal.NewPostgres(db)
	case backend == config.StatsMemory:
		return journal.NewMemory()
	}
	return journal.Nop{}
}

// TelegramRunOptions describes how the core runtime should run this bot.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      a.handler.Routes(a.registry),
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ tg.Runtime) error {
	reader := catalog.NewReader(a.cfg.Catalog.Root)
	years, err := reader.ListYears(ctx)
	if err != nil {
		// The bot still starts; listings stay empty until the directory appears.
		logger.Warn(ctx, "catalog", "catalog.unavailable",
			slog.String("root", reader.Root()),
			slog.String("err", err.Error()),
		)
		return nil
	}
	logger.Info(ctx, "catalog", "catalog.ready",
		slog.String("root", reader.Root()),
		slog.Int("years", len(years)),
	)
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("app: close database: %w", err)
	}
	logger.Info(ctx, "db", "db.closed")
	return nil
}
