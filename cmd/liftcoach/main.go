package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/myrjola/liftcoach/internal/coach"
	"github.com/myrjola/liftcoach/internal/envstruct"
	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/flightrecorder"
	"github.com/myrjola/liftcoach/internal/logging"
	"github.com/myrjola/liftcoach/internal/mcpserver"
	"github.com/myrjola/liftcoach/internal/sqlite"
	"github.com/myrjola/liftcoach/internal/training"
)

// version is set at build time with -ldflags "-X main.version=...".
//
//nolint:gochecknoglobals // build-time variable.
var version = "dev"

type config struct {
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"LIFTCOACH_SQLITE_URL" envDefault:"./liftcoach.sqlite3"`
	// CatalogPath optionally replaces the built-in exercise catalog with a YAML file.
	CatalogPath string `env:"LIFTCOACH_CATALOG_PATH" envDefault:""`
	// TuningPath optionally replaces the built-in volume targets, budgets, and prescription tables.
	TuningPath string `env:"LIFTCOACH_TUNING_PATH" envDefault:""`
	// LogLevel is one of debug, info, warn, or error.
	LogLevel string `env:"LIFTCOACH_LOG_LEVEL" envDefault:"info"`
	// ShuffleSeed makes exercise selection reproducible. Zero shuffles randomly.
	ShuffleSeed uint64 `env:"LIFTCOACH_SHUFFLE_SEED" envDefault:"0"`
	// TracesDirectory enables the flight recorder. Traces of slow tool calls are written there.
	TracesDirectory string `env:"LIFTCOACH_TRACES_DIR" envDefault:""`
	// SlowCallThreshold is how long a tool call may take before its trace is captured.
	SlowCallThreshold time.Duration `env:"LIFTCOACH_SLOW_CALL_THRESHOLD" envDefault:"2s"`
	// ExportDirectory is where export_user_data writes the lifters' databases. Empty disables exports.
	ExportDirectory string `env:"LIFTCOACH_EXPORT_DIR" envDefault:"./exports"`
}

// run serves MCP over stdin and stdout until stdin closes or ctx is cancelled. Logs go to stderr because stdout
// carries the protocol.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
		level  slog.LevelVar
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	logger := logging.NewLogger(stderr, &level)

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	var parsed slog.Level
	if parsed, err = logging.ParseLevel(cfg.LogLevel); err != nil {
		return errors.Wrap(err, "parse log level")
	}
	level.Set(parsed)

	catalog, tuning, err := loadTables(cfg)
	if err != nil {
		return err
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "loaded coaching tables",
		slog.Int("exercises", catalog.Len()),
		slog.String("catalog_path", cfg.CatalogPath),
		slog.String("tuning_path", cfg.TuningPath))

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	shuffler := coach.NewRandomShuffler()
	if cfg.ShuffleSeed != 0 {
		shuffler = coach.NewSeededShuffler(cfg.ShuffleSeed)
	}
	generator := coach.NewGenerator(catalog, tuning, shuffler, logger)
	var svcOpts []training.ServiceOption
	if cfg.ExportDirectory != "" {
		svcOpts = append(svcOpts, training.WithExportDirectory(cfg.ExportDirectory))
	}
	svc := training.NewService(db, generator, logger, svcOpts...)

	var opts []mcpserver.Option
	if cfg.TracesDirectory != "" {
		var recorder *flightrecorder.Service
		if recorder, err = flightrecorder.New(flightrecorder.Config{
			Logger:          logger,
			TracesDirectory: cfg.TracesDirectory,
			MinAge:          0,
			MaxBytes:        0,
			Cooldown:        0,
			Now:             nil,
		}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(ctx)
		opts = append(opts, mcpserver.WithSlowCallCapture(cfg.SlowCallThreshold, recorder))
	}

	stdio := server.NewStdioServer(mcpserver.New(svc, version, logger, opts...))
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	logger.LogAttrs(ctx, slog.LevelInfo, "serving mcp on stdio", slog.String("version", version))
	if err = stdio.Listen(ctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "serve stdio")
	}
	return nil
}

// loadTables returns the built-in catalog and tuning unless the config points to replacements.
func loadTables(cfg config) (*coach.Catalog, *coach.Tuning, error) {
	var (
		catalog = coach.DefaultCatalog()
		tuning  = coach.DefaultTuning()
		err     error
	)
	if cfg.CatalogPath != "" {
		if catalog, err = coach.LoadCatalogFile(cfg.CatalogPath); err != nil {
			return nil, nil, errors.Wrap(err, "load catalog", slog.String("path", cfg.CatalogPath))
		}
	}
	if cfg.TuningPath != "" {
		if tuning, err = coach.LoadTuningFile(cfg.TuningPath); err != nil {
			return nil, nil, errors.Wrap(err, "load tuning", slog.String("path", cfg.TuningPath))
		}
	}
	return catalog, tuning, nil
}

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.LookupEnv); err != nil {
		logger := logging.NewLogger(os.Stderr, slog.LevelError)
		logger.LogAttrs(ctx, slog.LevelError, "failure running liftcoach", errors.SlogError(err))
		os.Exit(1)
	}
}
