package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/examsbot/core/config"
	coredatabase "github.com/m3rciful/examsbot/core/database"
	"github.com/m3rciful/examsbot/core/logger"
)

var errNilConfig = errors.New("bootstrap: nil config provided")

// Options describe the infrastructure to bring up before the bot starts.
// The function fields replace the real steps in tests.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result holds what Run brought up. DB is nil when the database is disabled.
type Result struct {
	DB *sqlx.DB
}

func (o Options) withDefaults() Options {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
	return o
}

// Run initializes logging and then, if enabled, opens the database and migrates it.
// A migration failure closes the connection before returning.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errNilConfig
	}
	opts = opts.withDefaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, stageErr("logger init", err)
	}

	ctx := context.Background()
	if !opts.Database.Enabled {
		logger.Info(ctx, "db", "db.skip", slog.String("reason", "disabled"))
		return &Result{}, nil
	}

	db, err := opts.Connect(opts.Database)
	if err != nil {
		return nil, stageErr("database connect", err)
	}
	if err := opts.Migrate(opts.Database); err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.Warn(ctx, "db", "db.close.fail", slog.String("err", cerr.Error()))
		}
		return nil, stageErr("migrations", err)
	}
	return &Result{DB: db}, nil
}

func stageErr(stage string, err error) error {
	return fmt.Errorf("bootstrap: %s failed: %w", stage, err)
}
