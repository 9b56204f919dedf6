package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-booking/internal/app"
	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/clinicinfo"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/logging"
	"github.com/hackgods/clinic-booking/internal/slot"
)

var reasons = []string{
	"Annual physical",
	"Follow-up visit",
	"Blood test results",
	"Vaccination",
	"Chest pain consultation",
	"Child wellness check",
	"Blood pressure review",
	"Persistent cough",
}

type plan struct {
	Count     int
	Days      int
	Start     time.Time
	Providers []string
	Times     []string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	logging.Init("clinic-seed", cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backend, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("booking backend error")
	}
	defer backend.Close()

	var providers []string
	for _, doc := range clinicinfo.DefaultDirectory().Doctors {
		providers = append(providers, slot.NormalizeProvider(doc.Name))
	}

	p := plan{
		Count:     getInt("SEED_COUNT", 25),
		Days:      getInt("SEED_DAYS", 14),
		Start:     time.Now().AddDate(0, 0, 1),
		Providers: providers,
		Times:     cfg.DailySlots,
	}

	log.Info().Int("count", p.Count).Int("days", p.Days).Str("store", cfg.StoreBackend).Msg("seed starting")

	booked, err := seed(ctx, backend.NewService(), gofakeit.New(0), p)
	if err != nil {
		log.Fatal().Err(err).Int("booked", booked).Msg("seed failed")
	}

	log.Info().Int("booked", booked).Msg("seed complete")
}

// seed books up to p.Count random slots. Slots already taken are skipped,
// so the result can be short of p.Count when the calendar is nearly full.
func seed(ctx context.Context, svc *booking.Service, faker *gofakeit.Faker, p plan) (int, error) {
	if p.Days <= 0 || len(p.Providers) == 0 || len(p.Times) == 0 {
		return 0, fmt.Errorf("nothing to seed: days=%d providers=%d times=%d", p.Days, len(p.Providers), len(p.Times))
	}

	booked := 0
	for attempt := 0; booked < p.Count && attempt < p.Count*10; attempt++ {
		date := p.Start.AddDate(0, 0, faker.Number(0, p.Days-1)).Format("2006-01-02")
		provider := faker.RandomString(p.Providers)
		clock := faker.RandomString(p.Times)

		slotID := slot.FormatID(date, provider, clock)
		_, err := svc.Book(ctx, slotID, faker.Name(), faker.RandomString(reasons))
		switch {
		case err == nil:
			booked++
		case errors.Is(err, booking.ErrSlotUnavailable):
			continue
		default:
			return booked, fmt.Errorf("book %s: %w", slotID, err)
		}

		if booked%10 == 0 {
			log.Info().Int("booked", booked).Int("target", p.Count).Msg("seeding")
		}
	}

	return booked, nil
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
