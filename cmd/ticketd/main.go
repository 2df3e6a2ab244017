// Command ticketd serves the ticketing REST API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/ticketd-io/ticketd/internal/api"
	"github.com/ticketd-io/ticketd/internal/config"
	"github.com/ticketd-io/ticketd/internal/logbuf"
	"github.com/ticketd-io/ticketd/internal/ticket"
)

func main() {
	cfg := config.Load()

	addr := flag.String("addr", cfg.Addr, "Listen address")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path (empty for in-memory store)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	logLevel := cfg.Level(slog.LevelInfo)
	if *verbose {
		logLevel = slog.LevelDebug
	}

	// Terminal gets pretty output, everything else JSON; both tee into the
	// ring buffer served at /v1/logs.
	var inner slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		inner = tint.NewHandler(os.Stderr, &tint.Options{Level: logLevel})
	} else {
		inner = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	logBuf := logbuf.New(2000)
	logger := slog.New(logbuf.NewHandler(inner, logBuf))
	slog.SetDefault(logger)

	var store ticket.Store
	if *dbPath != "" {
		s, err := ticket.NewSQLiteStore(*dbPath)
		if err != nil {
			logger.Error("failed to open ticket store", "path", *dbPath, "error", err)
			os.Exit(1)
		}
		defer s.DB().Close()
		store = s
		logger.Info("using sqlite ticket store", "path", *dbPath)
	} else {
		store = ticket.NewMemoryStore()
		logger.Info("using in-memory ticket store")
	}

	if cfg.APIKey == "" {
		logger.Warn("API_KEY is not set; all ticket requests will be rejected with 500")
	}

	srv := api.NewServer(store, api.Config{Addr: *addr, Key: cfg.APIKey}, logger, logBuf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ticketd stopped")
}
