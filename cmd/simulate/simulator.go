package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog/log"
)

type SimConfig struct {
	APIBaseURL string
	Workers    int
	Rounds     int
	Provider   string
	StartDate  string
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Busy      int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch status {
	case http.StatusOK, http.StatusCreated:
		atomic.AddInt64(&om.Success, 1)
	case http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	case http.StatusServiceUnavailable:
		atomic.AddInt64(&om.Busy, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95, max time.Duration) {
	om.mu.Lock()
	latencies := append([]time.Duration(nil), om.Latencies...)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	max = latencies[len(latencies)-1]
	return avg, p50, p95, max
}

// Integrity counts what the race did to the store. A round should end with
// exactly one surviving booking; more than one success means two patients
// were told they hold the same slot, and a success whose code no longer
// resolves is a booking lost to an overwritten save.
type Integrity struct {
	Rounds       int64
	Confirmed    int64
	Lost         int64
	DoubleBooked int64
}

type Simulator struct {
	config    SimConfig
	client    *http.Client
	faker     *gofakeit.Faker
	fakerMu   sync.Mutex
	Booking   OperationMetrics
	Lookup    OperationMetrics
	Integrity Integrity
}

func NewSimulator(cfg SimConfig, client *http.Client) *Simulator {
	return &Simulator{
		config: cfg,
		client: client,
		faker:  gofakeit.New(0),
	}
}

type bookingResponse struct {
	Booking *struct {
		Confirmation string `json:"confirmation"`
		SlotKey      string `json:"slot_key"`
	} `json:"booking"`
	Message string `json:"message"`
}

type availabilityResponse struct {
	Slots []struct {
		SlotID string `json:"slot_id"`
	} `json:"slots"`
}

// Run plays one race per round: every worker tries to book the first open
// slot of the round's date at the same moment.
func (s *Simulator) Run(ctx context.Context) {
	start, _ := time.Parse("2006-01-02", s.config.StartDate)

	for round := 0; round < s.config.Rounds; round++ {
		if ctx.Err() != nil {
			return
		}

		date := start.AddDate(0, 0, round).Format("2006-01-02")
		slotID, err := s.firstOpenSlot(ctx, date)
		if err != nil {
			log.Warn().Err(err).Str("date", date).Msg("no slot to race for")
			continue
		}

		codes := s.race(ctx, slotID)
		s.checkIntegrity(ctx, codes)
	}

	log.Info().Msg("simulation complete")
}

func (s *Simulator) firstOpenSlot(ctx context.Context, date string) (string, error) {
	q := url.Values{"date": {date}, "provider": {s.config.Provider}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/availability?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var avail availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&avail); err != nil {
		return "", fmt.Errorf("decode availability: %w", err)
	}
	if len(avail.Slots) == 0 {
		return "", fmt.Errorf("date %s is fully booked", date)
	}
	return avail.Slots[0].SlotID, nil
}

func (s *Simulator) race(ctx context.Context, slotID string) []string {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes []string
		gate  = make(chan struct{})
	)

	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			if code, ok := s.book(ctx, slotID); ok {
				mu.Lock()
				codes = append(codes, code)
				mu.Unlock()
			}
		}()
	}

	close(gate)
	wg.Wait()
	return codes
}

func (s *Simulator) book(ctx context.Context, slotID string) (string, bool) {
	s.fakerMu.Lock()
	patient := s.faker.Name()
	s.fakerMu.Unlock()

	body, _ := json.Marshal(map[string]string{
		"slot_id": slotID,
		"patient": patient,
		"reason":  "load test",
	})

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/bookings", bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		s.Booking.Record(latency, 0)
		return "", false
	}
	defer resp.Body.Close()

	s.Booking.Record(latency, resp.StatusCode)
	if resp.StatusCode != http.StatusCreated {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", false
	}

	var out bookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Booking == nil {
		return "", false
	}
	return out.Booking.Confirmation, true
}

func (s *Simulator) checkIntegrity(ctx context.Context, codes []string) {
	atomic.AddInt64(&s.Integrity.Rounds, 1)
	if len(codes) > 1 {
		atomic.AddInt64(&s.Integrity.DoubleBooked, int64(len(codes)-1))
	}

	for _, code := range codes {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/bookings/"+url.PathEscape(code), nil)
		if err != nil {
			continue
		}
		resp, err := s.client.Do(req)
		if err != nil {
			s.Lookup.Record(time.Since(start), 0)
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		s.Lookup.Record(time.Since(start), resp.StatusCode)
		switch resp.StatusCode {
		case http.StatusOK:
			atomic.AddInt64(&s.Integrity.Confirmed, 1)
		case http.StatusNotFound:
			atomic.AddInt64(&s.Integrity.Lost, 1)
		}
	}
}

func (s *Simulator) PrintReport(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, "SIMULATION REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "Workers: %d\n", s.config.Workers)
	fmt.Fprintf(w, "Rounds: %d\n", s.Integrity.Rounds)
	fmt.Fprintln(w)

	printOperationReport(w, "Booking", &s.Booking)
	printOperationReport(w, "Lookup", &s.Lookup)

	fmt.Fprintln(w, "Integrity:")
	fmt.Fprintf(w, "  Confirmed bookings: %d\n", s.Integrity.Confirmed)
	fmt.Fprintf(w, "  Double bookings: %d\n", s.Integrity.DoubleBooked)
	fmt.Fprintf(w, "  Lost bookings: %d\n", s.Integrity.Lost)
}

func printOperationReport(w io.Writer, name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }
	avg, p50, p95, max := om.Stats()

	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "  Total: %d\n", total)
	fmt.Fprintf(w, "  Success: %d (%.1f%%)\n", om.Success, pct(om.Success))
	if om.Conflict > 0 {
		fmt.Fprintf(w, "  Conflicts: %d (%.1f%%)\n", om.Conflict, pct(om.Conflict))
	}
	if om.Busy > 0 {
		fmt.Fprintf(w, "  Busy: %d (%.1f%%)\n", om.Busy, pct(om.Busy))
	}
	if om.Error > 0 {
		fmt.Fprintf(w, "  Errors: %d (%.1f%%)\n", om.Error, pct(om.Error))
	}
	fmt.Fprintf(w, "  Latency: avg=%s p50=%s p95=%s max=%s\n",
		avg.Round(time.Microsecond), p50.Round(time.Microsecond),
		p95.Round(time.Microsecond), max.Round(time.Microsecond))
	fmt.Fprintln(w)
}
