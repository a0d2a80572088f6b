package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"pet-adoption-api/internal/adapters/auth/jwtauth"
	"pet-adoption-api/internal/adapters/cache/rediscache"
	"pet-adoption-api/internal/adapters/notify/logmail"
	"pet-adoption-api/internal/adapters/notify/ses"
	"pet-adoption-api/internal/adapters/payments/httpgateway"
	"pet-adoption-api/internal/adapters/payments/sandbox"
	pg "pet-adoption-api/internal/adapters/storage/postgres"
	"pet-adoption-api/internal/platform/config"
	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/ports/notify"
	"pet-adoption-api/internal/ports/payments"
	"pet-adoption-api/internal/router"
)

// @title Pet Adoption API
// @version 1.0
// @description Marketplace de adopción: mascotas, recomendaciones, solicitudes, rescues, cupones y promociones.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", os.Getenv("ADOPT_CONFIG"), "ruta a config.yaml (opcional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
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
		App:    cfg.App.Name,
	})
	defer logger.Sync(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = pg.Open(ctx, cfg.Database.DSN, pg.PoolConfig{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		applied, err := pg.Migrate(ctx, db)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if len(applied) > 0 {
			log.Info("migrations applied", map[string]any{"migrations": applied})
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = rediscache.NewClient(ctx, rediscache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			// El cache es opcional: sin Redis se recomienda directo desde el store.
			log.Warn("redis unavailable, recommendation pool cache disabled", map[string]any{"error": err})
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	var tokens *jwtauth.Manager
	if cfg.Auth.JWTSecret != "" {
		tokens, err = jwtauth.New(jwtauth.Config{
			Secret: cfg.Auth.JWTSecret,
			Issuer: cfg.Auth.Issuer,
			TTL:    cfg.Auth.TokenTTL,
		})
		if err != nil {
			return err
		}
	}

	mailer, err := newMailer(ctx, cfg, log)
	if err != nil {
		return err
	}
	gateway, err := newGateway(cfg, log)
	if err != nil {
		return err
	}

	opts := router.Options{
		Config:  cfg,
		Logger:  log,
		DB:      db,
		Redis:   rdb,
		Mailer:  mailer,
		Gateway: gateway,
	}
	if tokens != nil {
		opts.Tokens, opts.Verifier = tokens, tokens
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router.NewRouter(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":     cfg.HTTP.Addr,
			"env":      cfg.App.Environment,
			"postgres": db != nil,
			"redis":    rdb != nil,
			"dev_auth": cfg.HTTP.DevAuth,
		})
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

	log.Info("shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newMailer(ctx context.Context, cfg *config.Config, log logger.Logger) (notify.Mailer, error) {
	if cfg.Mail.SESRegion == "" {
		return logmail.New(log), nil
	}
	m, err := ses.New(ctx, cfg.Mail.SESRegion, cfg.Mail.From)
	if err != nil {
		return nil, fmt.Errorf("ses mailer: %w", err)
	}
	return m, nil
}

func newGateway(cfg *config.Config, log logger.Logger) (payments.Gateway, error) {
	if cfg.Payments.BaseURL == "" {
		log.Warn("payments.base_url not set, using sandbox gateway", nil)
		return sandbox.New(), nil
	}
	return httpgateway.New(httpgateway.Config{
		BaseURL: cfg.Payments.BaseURL,
		APIKey:  cfg.Payments.APIKey,
		Timeout: cfg.Payments.Timeout,
	})
}
