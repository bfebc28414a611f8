package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"simplib/pkg/api"
	"simplib/pkg/app"
	"simplib/pkg/config"
	"simplib/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.Println("Starting library service...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.NewJSON(os.Stdout)

	a, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.BackupEnabled {
		if err := startBackups(ctx, a); err != nil {
			log.Fatalf("Failed to start backups: %v", err)
		}
	}

	srv := newServer(a)
	go func() {
		log.Printf("Library service starting on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down library service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

func newServer(a *app.App) *http.Server {
	h := api.NewHandler(a.Controller, a.Thresholds(), a.Log, a.Health)
	return &http.Server{
		Addr:              a.Config.HTTPAddr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func startBackups(ctx context.Context, a *app.App) error {
	r, err := a.Rotator(ctx)
	if err != nil {
		return err
	}
	if r == nil {
		log.Printf("Backups disabled: %s store keeps no local files", a.Config.StoreDriver)
		return nil
	}
	log.Printf("Snapshotting into %s every %s, keeping %d", a.Config.BackupDir, a.Config.BackupInterval, a.Config.BackupKeep)
	go r.Run(ctx)
	return nil
}
