// Command parley serves the LLM session gateway over HTTP.
//
// Usage:
//
//	OPENAI_API_KEY=sk-... GEMINI_API_KEY=gk-... parley [flags]
//
// Flags:
//
//	-addr string       Listen address (overrides PARLEY_ADDR)
//	-log-level string  Log level: debug, info, warn, error (overrides PARLEY_LOG_LEVEL)
//	-env-file string   Path to a .env file (default: .env, ignored when missing)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fwojciec/parley"
	parleyhttp "github.com/fwojciec/parley/http"
	"github.com/fwojciec/parley/memory"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr     = flag.String("addr", "", "Listen address (overrides PARLEY_ADDR)")
		logLevel = flag.String("log-level", "", "Log level: debug, info, warn, error")
		envFile  = flag.String("env-file", ".env", "Path to a .env file")
	)
	flag.Parse()

	if err := loadEnvFile(*envFile); err != nil {
		return err
	}

	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.addr = *addr
	}
	if *logLevel != "" {
		if cfg.logLevel, err = parseLevel(*logLevel); err != nil {
			return err
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.logLevel,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(cfg.traceExporter)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown", "err", err)
		}
	}()

	providers, err := buildProviders(ctx, cfg)
	if err != nil {
		return err
	}
	for m := range providers {
		logger.Info("provider registered", "model", m)
	}

	store := memory.New()
	if cfg.idleTimeout > 0 {
		go expireIdle(ctx, store, cfg.idleTimeout, janitorInterval(cfg.idleTimeout), logger.With("component", "janitor"))
	}

	opts := []parley.ManagerOption{
		parley.WithProviderTimeout(cfg.providerTimeout),
		parley.WithLogger(logger.With("component", "manager")),
	}
	if cfg.systemPrompt != "" {
		opts = append(opts, parley.WithSystemPrompt(cfg.systemPrompt))
	}
	manager := parley.NewManager(store, providers, opts...)

	srv := parleyhttp.NewServer(manager,
		parleyhttp.WithLogger(logger.With("component", "http")),
		parleyhttp.WithAllowedOrigins(cfg.allowedOrigins...),
	)
	return srv.ListenAndServe(ctx, cfg.addr, shutdownTimeout)
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
