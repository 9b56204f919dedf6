package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-booking/internal/app"
	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(openFromConfig)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) {
			log.Error().Err(err).Msg("clinicctl")
		}
		stop()
		os.Exit(1)
	}
}

func openFromConfig(ctx context.Context) (*booking.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	// status lines go to stdout, logs stay out of the way on stderr
	log.Logger = logging.New(os.Stderr, "clinicctl", cfg.Env).Level(logLevel(cfg.Env))

	backend, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return backend.NewService(), backend.Close, nil
}
