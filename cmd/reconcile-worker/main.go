package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-booking/internal/app"
	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Init("clinic-reconcile-worker", cfg.Env)
	log.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.WorkerInterval).
		Msg("reconcile worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancelOpen := context.WithTimeout(rootCtx, 10*time.Second)
	backend, err := app.Open(openCtx, cfg)
	cancelOpen()
	if err != nil {
		log.Fatal().Err(err).Msg("booking backend error")
	}
	defer backend.Close()

	svc := backend.NewService()

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping reconcile worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	report, err := svc.Reconcile(runCtx)
	if err != nil {
		log.Error().Err(err).Msg("reconcile run error")
		return
	}
	log.Info().
		Dur("took", time.Since(start)).
		Bool("changed", report.Changed()).
		Int("conflicts", report.Conflicts).
		Msg("reconcile run complete")
}
