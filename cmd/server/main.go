package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Wasion-it/fork-controle-material/internal/config"
	"github.com/Wasion-it/fork-controle-material/internal/infra"
	"github.com/Wasion-it/fork-controle-material/internal/repository"
	"github.com/Wasion-it/fork-controle-material/internal/router"
	"github.com/Wasion-it/fork-controle-material/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// The directory client fails fast behind a circuit breaker so an
	// unreachable domain controller degrades logins to local accounts
	// instead of stalling them.
	ldapCB := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      30 * time.Second,
	})
	ldapClient := infra.NewLDAPClient(cfg, ldapCB)

	// Worker pool + periodic sweep for low-stock email alerts. Workers are
	// wired here (composition root) so the pool has full access to the
	// mail infrastructure.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !cfg.AlertsDisabled {
		mailer := infra.NewMailer(cfg)
		handlers := &worker.Handlers{
			Alert: worker.NewAlertWorker(mailer, cfg.AlertEmail),
		}
		worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)

		dispatcher := worker.NewDispatcher(rdb)
		materialRepo := repository.NewMaterialRepository(db)
		worker.StartLowStockSweep(ctx, materialRepo, dispatcher,
			time.Duration(cfg.SweepMinutes)*time.Minute)
	}

	r := router.New(cfg, db, rdb, ldapClient)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("inventory backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
