package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hackgods/clinic-booking/internal/api"
	"github.com/hackgods/clinic-booking/internal/app"
	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/clinicinfo"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/logging"
	"github.com/hackgods/clinic-booking/internal/metrics"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Init("clinic-api", cfg.Env)
	log.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("version", version).
		Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancelOpen := context.WithTimeout(rootCtx, 10*time.Second)
	backend, err := app.Open(openCtx, cfg)
	cancelOpen()
	if err != nil {
		log.Fatal().Err(err).Msg("booking backend error")
	}
	defer backend.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("clinic", reg)

	svc := backend.NewService(booking.WithMetrics(m))

	var limiter *api.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = api.NewRateLimiter(api.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimitRPS),
			Burst: cfg.RateLimitBurst,
		})
		log.Info().Float64("rps", cfg.RateLimitRPS).Int("burst", cfg.RateLimitBurst).Msg("rate limiting enabled")
	}

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.RouterConfig{
			Service:     svc,
			Directory:   clinicinfo.DefaultDirectory(),
			Checks:      backend.Checks,
			Metrics:     m,
			Gatherer:    reg,
			RateLimit:   limiter,
			Idempotency: api.NewIdempotencyCache(cfg.IdempotencyTTL),
			Env:         cfg.Env,
			Version:     version,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	<-rootCtx.Done()

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
