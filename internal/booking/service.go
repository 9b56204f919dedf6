package booking

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-booking/internal/lock"
	"github.com/hackgods/clinic-booking/internal/metrics"
	"github.com/hackgods/clinic-booking/internal/slot"
	"github.com/hackgods/clinic-booking/internal/store"
)

var (
	ErrInvalidSlotID   = slot.ErrInvalidID
	ErrSlotUnavailable = errors.New("slot is no longer available")
	ErrBookingNotFound = errors.New("appointment not found")
	ErrStoreBusy       = errors.New("booking store is busy, please retry")
	ErrCodeExhausted   = errors.New("could not allocate a unique confirmation code")
)

// storeLockKey names the critical section around a load-mutate-save cycle.
// The whole state is rewritten, so the lock covers the whole store.
const storeLockKey = "booking_store"

const maxCodeAttempts = 5

// EventRecorder persists booking events. Failures are logged only.
type EventRecorder interface {
	InsertEvent(ctx context.Context, ev Event) error
}

type Option func(*Service)

func WithEvents(rec EventRecorder) Option {
	return func(s *Service) { s.events = rec }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithDailySlots replaces the availability template. Times must be HH:MM.
func WithDailySlots(times []string) Option {
	return func(s *Service) { s.dailySlots = append([]string(nil), times...) }
}

func withCodeGenerator(gen func() string) Option {
	return func(s *Service) { s.newCode = gen }
}

// Service implements availability, booking, cancellation and rescheduling
// over a Store. Every mutation loads the whole state, changes it and saves
// it back inside the locker's critical section.
type Service struct {
	store      store.Store
	locker     lock.Locker
	events     EventRecorder
	metrics    *metrics.Metrics
	log        zerolog.Logger
	dailySlots []string
	newCode    func() string
}

func NewService(st store.Store, locker lock.Locker, opts ...Option) *Service {
	if locker == nil {
		locker = lock.Noop{}
	}

	s := &Service{
		store:      st,
		locker:     locker,
		log:        log.With().Str("component", "booking").Logger(),
		dailySlots: DefaultDailySlots,
		newCode:    NewConfirmationCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewConfirmationCode returns APT- followed by 8 uppercase hex characters.
func NewConfirmationCode() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "APT-" + strings.ToUpper(hex[:8])
}

// CheckAvailability lists the template slots for date and provider that
// are not booked yet.
func (s *Service) CheckAvailability(ctx context.Context, date, provider string) ([]OpenSlot, error) {
	start := time.Now()
	slots, err := s.checkAvailability(ctx, date, provider)
	s.observe("check_availability", start, err)
	return slots, err
}

func (s *Service) checkAvailability(ctx context.Context, date, provider string) ([]OpenSlot, error) {
	date = strings.TrimSpace(date)
	if err := slot.ValidateDate(date); err != nil {
		return nil, err
	}

	providerKey := slot.NormalizeProvider(provider)
	if providerKey == "" {
		providerKey = DefaultProvider
	}

	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	open := make([]OpenSlot, 0, len(s.dailySlots))
	for _, clock := range s.dailySlots {
		if _, taken := st.BookedSlots[slot.Key(date, providerKey, clock)]; taken {
			continue
		}
		open = append(open, OpenSlot{
			SlotID: slot.FormatID(date, providerKey, clock),
			Time:   clock,
		})
	}
	return open, nil
}

// Book reserves the slot named by slotID and returns the new booking.
func (s *Service) Book(ctx context.Context, slotID, patient, reason string) (*Booking, error) {
	start := time.Now()
	b, err := s.book(ctx, slotID, patient, reason)
	s.observe("book", start, err)
	return b, err
}

func (s *Service) book(ctx context.Context, slotID, patient, reason string) (*Booking, error) {
	id, err := slot.ParseID(slotID)
	if err != nil {
		return nil, err
	}
	key := id.Key()

	var created *Booking

	err = s.mutate(ctx, func(st *store.State) error {
		if _, taken := st.BookedSlots[key]; taken {
			return ErrSlotUnavailable
		}

		code, err := s.allocateCode(st)
		if err != nil {
			return err
		}

		rec := store.Record{
			Patient: patient,
			Reason:  reason,
			SlotID:  slotID,
			SlotKey: key,
			Doctor:  id.Label(),
			Date:    id.Date,
			Time:    id.Time,
		}
		st.BookedSlots[key] = code
		st.Bookings[code] = rec

		created = fromRecord(code, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("confirmation", created.Confirmation).
		Str("slot_key", created.SlotKey).
		Msg("booking created")
	s.logEvent(ctx, created.Confirmation, EventBookingCreated, map[string]any{
		"slot_id":  created.SlotID,
		"slot_key": created.SlotKey,
		"patient":  created.Patient,
	})

	return created, nil
}

// Cancel deletes the booking and frees its slot.
func (s *Service) Cancel(ctx context.Context, confirmation string) (*Booking, error) {
	start := time.Now()
	b, err := s.cancel(ctx, confirmation)
	s.observe("cancel", start, err)
	return b, err
}

func (s *Service) cancel(ctx context.Context, confirmation string) (*Booking, error) {
	confirmation = strings.TrimSpace(confirmation)

	var cancelled *Booking

	err := s.mutate(ctx, func(st *store.State) error {
		rec, ok := st.Bookings[confirmation]
		if !ok {
			return ErrBookingNotFound
		}

		delete(st.Bookings, confirmation)
		delete(st.BookedSlots, rec.SlotKey)

		cancelled = fromRecord(confirmation, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("confirmation", confirmation).
		Str("slot_key", cancelled.SlotKey).
		Msg("booking cancelled")
	s.logEvent(ctx, confirmation, EventBookingCancelled, map[string]any{
		"slot_key": cancelled.SlotKey,
	})

	return cancelled, nil
}

// Reschedule moves the booking to newSlotID. The confirmation code stays
// the same and moving onto the booking's own slot succeeds.
func (s *Service) Reschedule(ctx context.Context, confirmation, newSlotID string) (*Booking, error) {
	start := time.Now()
	b, err := s.reschedule(ctx, confirmation, newSlotID)
	s.observe("reschedule", start, err)
	return b, err
}

func (s *Service) reschedule(ctx context.Context, confirmation, newSlotID string) (*Booking, error) {
	confirmation = strings.TrimSpace(confirmation)

	var (
		updated *Booking
		oldKey  string
	)

	err := s.mutate(ctx, func(st *store.State) error {
		rec, ok := st.Bookings[confirmation]
		if !ok {
			return ErrBookingNotFound
		}

		id, err := slot.ParseID(newSlotID)
		if err != nil {
			return err
		}
		newKey := id.Key()

		if holder, taken := st.BookedSlots[newKey]; taken && holder != confirmation {
			return ErrSlotUnavailable
		}

		oldKey = rec.SlotKey
		delete(st.BookedSlots, oldKey)
		st.BookedSlots[newKey] = confirmation

		rec.SlotID = newSlotID
		rec.SlotKey = newKey
		rec.Doctor = id.Label()
		rec.Date = id.Date
		rec.Time = id.Time
		st.Bookings[confirmation] = rec

		updated = fromRecord(confirmation, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("confirmation", confirmation).
		Str("old_slot_key", oldKey).
		Str("slot_key", updated.SlotKey).
		Msg("booking rescheduled")
	s.logEvent(ctx, confirmation, EventBookingRescheduled, map[string]any{
		"old_slot_key": oldKey,
		"slot_id":      updated.SlotID,
		"slot_key":     updated.SlotKey,
	})

	return updated, nil
}

// Get returns the booking registered under confirmation.
func (s *Service) Get(ctx context.Context, confirmation string) (*Booking, error) {
	start := time.Now()

	st, err := s.store.Load(ctx)
	if err == nil {
		confirmation = strings.TrimSpace(confirmation)
		if rec, ok := st.Bookings[confirmation]; ok {
			s.observe("get", start, nil)
			return fromRecord(confirmation, rec), nil
		}
		err = ErrBookingNotFound
	}

	s.observe("get", start, err)
	return nil, err
}

// errUnchanged lets a mutation skip the save without failing.
var errUnchanged = errors.New("state unchanged")

// mutate runs one load-mutate-save cycle. Nothing is saved when fn fails.
func (s *Service) mutate(ctx context.Context, fn func(st *store.State) error) error {
	err := s.locker.WithLock(ctx, storeLockKey, func(ctx context.Context) error {
		st, err := s.store.Load(ctx)
		if err != nil {
			return err
		}
		if err := fn(st); err != nil {
			if errors.Is(err, errUnchanged) {
				return nil
			}
			return err
		}
		return s.store.Save(ctx, st)
	})
	if errors.Is(err, lock.ErrNotAcquired) {
		return ErrStoreBusy
	}
	return err
}

func (s *Service) allocateCode(st *store.State) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := s.newCode()
		if _, exists := st.Bookings[code]; !exists {
			return code, nil
		}
		s.log.Warn().Str("confirmation", code).Msg("confirmation code collision, regenerating")
	}
	return "", ErrCodeExhausted
}

func (s *Service) observe(operation string, start time.Time, err error) {
	s.metrics.ObserveOperation(operation, Outcome(err), time.Since(start))
}

func (s *Service) logEvent(ctx context.Context, confirmation, eventType string, payload map[string]any) {
	if s.events == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	ev := Event{
		EventType:    eventType,
		Confirmation: confirmation,
		Payload:      data,
		CreatedAt:    time.Now(),
	}

	if err := s.events.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("event", eventType).
			Str("confirmation", confirmation).
			Msg("failed to insert booking event")
	}
}

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidSlotID):
		return "invalid_slot_id"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrBookingNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreBusy):
		return "busy"
	default:
		return "error"
	}
}
