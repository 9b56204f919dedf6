package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-booking/internal/logging"
)

func main() {
	logging.Init("clinic-simulate", getEnv("APP_ENV", "dev"))

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	log.Info().
		Str("api", cfg.APIBaseURL).
		Int("workers", cfg.Workers).
		Int("rounds", cfg.Rounds).
		Str("provider", cfg.Provider).
		Msg("simulator starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := NewSimulator(cfg, &http.Client{Timeout: 10 * time.Second})
	sim.Run(ctx)
	sim.PrintReport(os.Stdout)
}

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL: getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Workers:    getInt("SIM_WORKERS", 10),
		Rounds:     getInt("SIM_ROUNDS", 20),
		Provider:   getEnv("SIM_PROVIDER", "Dr. Sarah Smith"),
		StartDate:  getEnv("SIM_START_DATE", time.Now().AddDate(0, 0, 30).Format("2006-01-02")),
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 1 {
		return fmt.Errorf("SIM_WORKERS must be > 1 for a race")
	}
	if cfg.Rounds <= 0 {
		return fmt.Errorf("SIM_ROUNDS must be > 0")
	}
	if _, err := time.Parse("2006-01-02", cfg.StartDate); err != nil {
		return fmt.Errorf("SIM_START_DATE: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
