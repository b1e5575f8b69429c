package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/compendium/internal/api"
	"github.com/erazemk/compendium/internal/auth"
	"github.com/erazemk/compendium/internal/config"
	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/export"
	"github.com/erazemk/compendium/internal/logging"
	"github.com/erazemk/compendium/internal/metrics"
	"github.com/erazemk/compendium/internal/notify"
	"github.com/erazemk/compendium/internal/review"
	"github.com/erazemk/compendium/internal/store"
)

func main() {
	fs := flag.NewFlagSet("compendium", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "compendium.yaml", "")
	fs.StringVar(&configPath, "c", "compendium.yaml", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var dsn string
	fs.StringVar(&dsn, "dsn", "", "")
	fs.StringVar(&dsn, "d", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	var verbose bool
	fs.BoolVar(&verbose, "verbose", false, "")
	fs.BoolVar(&verbose, "v", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: compendium [flags]

Flags:
  -c, -config <path>      YAML config file (default: compendium.yaml, optional)
  -a, -addr <host:port>   listen address (overrides server.addr)
  -d, -dsn <dsn>          database path or URL (overrides database.dsn)
  -l, -log <path>         log file path (overrides log.file)
  -v, -verbose            log at debug level (overrides log.level)
  -h, -help               show this help and exit

Environment:
  COMPENDIUM_ADMIN_SECRET        admin secret (at least 12 characters)
  COMPENDIUM_DATABASE_DRIVER     sqlite or postgres
  COMPENDIUM_DATABASE_DSN        database path or URL
  COMPENDIUM_RESEND_API_KEY      enables email notices through Resend
  COMPENDIUM_EXPORT_ACCESS_KEY   object storage access key
  COMPENDIUM_EXPORT_SECRET_KEY   object storage secret key
  COMPENDIUM_LOG_LEVEL           debug, info, warn or error
  COMPENDIUM_LOG_FORMAT          text or json
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(os.LookupEnv)
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	if logPath != "" {
		cfg.Log.File = logPath
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if cfg.Admin.Secret == "" {
		suggestion, _ := generateSecret(24)
		fmt.Fprintf(os.Stderr, "error: no admin secret configured\n\nSet one in %s (admin.secret) or the environment, for example:\n  COMPENDIUM_ADMIN_SECRET='%s'\n", configPath, suggestion)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Open database.
	database, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "driver", cfg.Database.Driver)
	slog.Debug("logging configured", "level", cfg.Log.Level, "format", cfg.Log.Format)

	jwtSecret, err := store.SessionSigningKey(context.Background(), database)
	if err != nil {
		slog.Error("failed to load session signing key", "error", err)
		os.Exit(1)
	}

	gate, err := auth.NewGate(cfg.Admin.Secret)
	if err != nil {
		slog.Error("failed to set up admin gate", "error", err)
		os.Exit(1)
	}

	var transport notify.Transport = notify.LogTransport{}
	if cfg.Notify.ResendAPIKey != "" {
		transport = notify.NewResendTransport(cfg.Notify.ResendAPIKey)
	} else {
		slog.Warn("no email API key configured, notices will only be logged")
	}
	notifier := notify.New(cfg.Notify.Token, cfg.Notify.From, cfg.Notify.To, transport)

	svc := api.Services{
		DB:             database,
		JWTSecret:      jwtSecret,
		Gate:           gate,
		Manager:        review.NewManager(store.Catalog{DB: database}, store.Suggestions{DB: database}),
		Notifier:       notifier,
		Metrics:        metrics.New(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	if cfg.ExportEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		exporter, err := export.New(ctx, cfg.ExportConfig())
		cancel()
		if err != nil {
			slog.Error("failed to set up catalog export", "error", err)
			os.Exit(1)
		}
		svc.Exporter = exporter
		slog.Info("catalog export enabled", "endpoint", cfg.Export.Endpoint, "bucket", cfg.Export.Bucket)
	}

	handler := api.LoggingMiddleware(api.NewRouter(svc))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// generateSecret creates a random admin secret of the given length.
func generateSecret(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
