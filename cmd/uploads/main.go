package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pet-adoption-api/internal/platform/config"
	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/uploads"
)

func main() {
	configPath := flag.String("config", os.Getenv("ADOPT_CONFIG"), "ruta a config.yaml (opcional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "uploads: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    "uploads",
	})
	defer logger.Sync(log)

	if err := os.MkdirAll(filepath.Dir(cfg.Uploads.IndexPath), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	index, err := uploads.OpenIndex(cfg.Uploads.IndexPath)
	if err != nil {
		return err
	}
	defer index.Close()

	svc, err := uploads.NewService(uploads.Config{
		Dir:       cfg.Uploads.Dir,
		PublicURL: cfg.Uploads.PublicURL,
		MaxBytes:  cfg.Uploads.MaxBytes,
	}, index, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Uploads.Addr,
		Handler:           uploads.NewRouter(svc, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting upload server", map[string]any{"addr": cfg.Uploads.Addr, "dir": cfg.Uploads.Dir})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down upload server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
