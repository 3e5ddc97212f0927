package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tannerhall/mathdex/internal/api"
	"github.com/tannerhall/mathdex/internal/config"
	"github.com/tannerhall/mathdex/internal/index"
	"github.com/tannerhall/mathdex/internal/vault"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the indexer and the vault watcher feeding it.
	idx := index.NewIndexer(log)
	watcher, err := vault.New(cfg.VaultDir, idx, log, cfg.WatchDebounce, cfg.MaxFileBytes)
	if err != nil {
		log.Error("watcher init failed", "error", err)
		os.Exit(1)
	}
	if err := watcher.Start(ctx, cfg.ScanConcurrency); err != nil {
		log.Error("vault scan failed", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP server.
	srv := api.NewServer(idx, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()
		watcher.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting mathdex", "port", cfg.Port, "vault", cfg.VaultDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
