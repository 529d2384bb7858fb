package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/hms-api/internal/app"
	"github.com/jwalitptl/hms-api/internal/config"
	"github.com/jwalitptl/hms-api/internal/email"
	"github.com/jwalitptl/hms-api/internal/handler/health"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/repository/memory"
	"github.com/jwalitptl/hms-api/internal/repository/postgres"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/messaging"
	"github.com/jwalitptl/hms-api/pkg/messaging/redis"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var useMemory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, l, useMemory)
		},
	}
	cmd.Flags().BoolVar(&useMemory, "memory", false, "use the in-memory store instead of PostgreSQL (seeded, data is lost on exit)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, l *logger.Logger, useMemory bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	var (
		store  *repository.Store
		pinger health.Pinger
	)
	if useMemory {
		store = memory.NewStore()
		log.Warn().Msg("Using in-memory store; data will not survive a restart")
	} else {
		db, err := postgres.NewDB(ctx, cfg.PostgresConfig())
		if err != nil {
			return err
		}
		defer db.Close()
		store = postgres.NewStore(db)
		pinger = db
	}

	var broker messaging.Broker
	if cfg.Redis.Enabled {
		b, err := redis.NewRedisBroker(ctx, cfg.RedisBrokerConfig(), l.Zerolog())
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer b.Close()
		broker = b
	}

	var mailer email.Service
	if cfg.SMTP.Enabled {
		mailer = email.NewSMTPService(cfg.EmailConfig())
	}

	a, err := app.New(cfg, app.Deps{
		Store:  store,
		DB:     pinger,
		Broker: broker,
		Email:  mailer,
		Log:    l,
	})
	if err != nil {
		return err
	}

	if useMemory {
		if err := seed(ctx, store, a.Services.Hasher); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           a.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exited properly")
	return nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	return postgres.NewDB(ctx, cfg.PostgresConfig())
}
