package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/saturnines/catalog-sync/pkg/auth"
	"github.com/saturnines/catalog-sync/pkg/config"
	"github.com/saturnines/catalog-sync/pkg/core"
	"github.com/saturnines/catalog-sync/pkg/marketplace"
	"github.com/saturnines/catalog-sync/pkg/metrics"
	"github.com/saturnines/catalog-sync/pkg/sink"
	"github.com/saturnines/catalog-sync/pkg/transport/rest"
)

const (
	exitOK     = 0
	exitFailed = 1
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

// run is the whole process minus os.Exit; it returns the exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("catalog-sync", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "catalog-sync.yaml", "path to the YAML configuration")
	envPath := flags.String("env", ".env", "optional dotenv file loaded before the configuration")
	if err := flags.Parse(args); err != nil {
		return exitFailed
	}

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "catalog-sync: load %s: %v\n", *envPath, err)
		return exitFailed
	}

	cfg, err := config.NewDefaultLoader().Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "catalog-sync: %v\n", err)
		return exitFailed
	}

	logger := newLogger(cfg.Log, stderr)
	slog.SetDefault(logger)

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, m, logger)
		defer srv.Close()
	}

	db, err := sink.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		return exitFailed
	}
	defer db.Close()

	dialect, err := sink.DialectFor(cfg.Database.Driver)
	if err != nil {
		logger.Error("unsupported database", "error", err)
		return exitFailed
	}
	catalogSink, err := sink.New(db, dialect, cfg.Database.Table, logger)
	if err != nil {
		logger.Error("invalid sink configuration", "error", err)
		return exitFailed
	}
	if cfg.Database.CreateTable {
		if err := catalogSink.EnsureTable(ctx); err != nil {
			logger.Error("cannot create catalog table", "error", err)
			return exitFailed
		}
	}

	doer := rest.NewHTTPClient(cfg.API.Timeout, rest.WithRateLimit(cfg.API.RequestsPerSecond, cfg.API.Burst))

	tokens, err := auth.NewClientCredentials(cfg.API.TokenURL, cfg.API.ClientID, cfg.API.ClientSecret, cfg.API.GrantType, doer)
	if err != nil {
		logger.Error("invalid credentials configuration", "error", err)
		return exitFailed
	}

	connect := func(token auth.Token) core.Marketplace {
		return marketplace.NewClient(cfg.API.BaseURL, token.Handler(), doer, m, logger)
	}

	orchestrator := core.NewOrchestrator(cfg, tokens, connect, catalogSink,
		core.WithLogger(logger),
		core.WithMetrics(m),
	)

	report := orchestrator.Run(ctx)
	if report.Failed() {
		return exitFailed
	}
	return exitOK
}

// newLogger builds the process logger from the log section.
func newLogger(cfg config.Log, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "catalog-sync")
}

func serveMetrics(addr string, m *metrics.Metrics, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}
