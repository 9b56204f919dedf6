package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-booking/internal/lock"
	"github.com/hackgods/clinic-booking/internal/metrics"
	"github.com/hackgods/clinic-booking/internal/slot"
	"github.com/hackgods/clinic-booking/internal/store"
)

// -- Mocks --

type mockEvents struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *mockEvents) InsertEvent(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

func (m *mockEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, ev := range m.events {
		out = append(out, ev.EventType)
	}
	return out
}

type failingStore struct {
	loadErr error
	saveErr error
	saves   int
}

func (f *failingStore) Load(_ context.Context) (*store.State, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return store.NewState(), nil
}

func (f *failingStore) Save(_ context.Context, _ *store.State) error {
	f.saves++
	return f.saveErr
}

type busyLocker struct{}

func (busyLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return lock.ErrNotAcquired
}

// countingStore counts saves on top of a MemoryStore.
type countingStore struct {
	*store.MemoryStore
	saves int
}

func (c *countingStore) Save(ctx context.Context, st *store.State) error {
	c.saves++
	return c.MemoryStore.Save(ctx, st)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *store.MemoryStore) {
	t.Helper()
	ms := store.NewMemoryStore()
	return NewService(ms, nil, opts...), ms
}

func assertConsistent(t *testing.T, ms store.Store) {
	t.Helper()
	st, err := ms.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Consistent())
}

var codePattern = regexp.MustCompile(`^APT-[0-9A-F]{8}$`)

// -- Tests --

func TestNewConfirmationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewConfirmationCode()
		assert.Regexp(t, codePattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 90)
}

func TestCheckAvailabilityEmptyStore(t *testing.T) {
	svc, _ := newTestService(t)

	open, err := svc.CheckAvailability(context.Background(), "2025-01-15", "Dr. Smith")
	require.NoError(t, err)

	assert.Equal(t, []OpenSlot{
		{SlotID: "2025-01-15:dr-smith:0900", Time: "09:00"},
		{SlotID: "2025-01-15:dr-smith:1400", Time: "14:00"},
		{SlotID: "2025-01-15:dr-smith:1630", Time: "16:30"},
	}, open)
}

func TestCheckAvailabilityDefaultsProvider(t *testing.T) {
	svc, _ := newTestService(t)

	open, err := svc.CheckAvailability(context.Background(), "2025-01-15", "  ")
	require.NoError(t, err)
	require.Len(t, open, 3)
	assert.Equal(t, "2025-01-15:clinic:0900", open[0].SlotID)
}

func TestCheckAvailabilityRejectsBadDate(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CheckAvailability(context.Background(), "2025-02-30", "Dr Smith")
	assert.ErrorIs(t, err, ErrInvalidSlotID)
}

func TestAvailableSlotsAreBookable(t *testing.T) {
	ctx := context.Background()

	for _, provider := range []string{"Dr: Smith", "dr.:smith", "Dr. Smith", " ", "clinic:"} {
		svc, _ := newTestService(t)

		open, err := svc.CheckAvailability(ctx, "2025-01-15", provider)
		require.NoError(t, err, provider)
		require.NotEmpty(t, open, provider)

		for _, o := range open {
			id, err := slot.ParseID(o.SlotID)
			require.NoError(t, err, o.SlotID)
			assert.Equal(t, o.SlotID, id.String())

			_, err = svc.Book(ctx, o.SlotID, "Jane Doe", "checkup")
			assert.NoError(t, err, o.SlotID)
		}

		left, err := svc.CheckAvailability(ctx, "2025-01-15", provider)
		require.NoError(t, err)
		assert.Empty(t, left, provider)
	}
}

func TestInvalidSlotErrorWrapsOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CheckAvailability(ctx, "bad", "Dr Smith")
	require.ErrorIs(t, err, ErrInvalidSlotID)
	assert.Equal(t, 1, strings.Count(err.Error(), "invalid slot identifier"), err.Error())

	_, err = svc.Book(ctx, "2025-01-15:dr-smith:2500", "Jane Doe", "")
	require.ErrorIs(t, err, ErrInvalidSlotID)
	assert.Equal(t, 1, strings.Count(err.Error(), "invalid slot identifier"), err.Error())

	b, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "")
	require.NoError(t, err)
	_, err = svc.Reschedule(ctx, b.Confirmation, "nonsense")
	require.ErrorIs(t, err, ErrInvalidSlotID)
	assert.Equal(t, 1, strings.Count(err.Error(), "invalid slot identifier"), err.Error())
}

func TestBookExcludesSlotFromAvailability(t *testing.T) {
	ctx := context.Background()
	svc, ms := newTestService(t)

	b, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.NoError(t, err)
	assert.Regexp(t, codePattern, b.Confirmation)
	assert.Equal(t, "Jane Doe", b.Patient)
	assert.Equal(t, "checkup", b.Reason)
	assert.Equal(t, "Dr Smith", b.Doctor)
	assert.Equal(t, "2025-01-15", b.Date)
	assert.Equal(t, "09:00", b.Time)
	assert.Equal(t, "dr-smith:2025-01-15:09:00", b.SlotKey)

	open, err := svc.CheckAvailability(ctx, "2025-01-15", "Dr. Smith")
	require.NoError(t, err)
	for _, o := range open {
		assert.NotEqual(t, "09:00", o.Time)
	}
	assert.Len(t, open, 2)

	assertConsistent(t, ms)
}

func TestBookKeepsSuppliedSlotIDForAudit(t *testing.T) {
	svc, _ := newTestService(t)

	b, err := svc.Book(context.Background(), "2025-01-15:DR-SMITH:900", "Jane Doe", "checkup")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15:DR-SMITH:900", b.SlotID)
	assert.Equal(t, "dr-smith:2025-01-15:09:00", b.SlotKey)
}

func TestBookRejectsDoubleBooking(t *testing.T) {
	ctx := context.Background()
	svc, ms := newTestService(t)

	_, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.NoError(t, err)

	for _, equivalent := range []string{
		"2025-01-15:dr-smith:0900",
		"2025-01-15:Dr-Smith:900",
		"2025-01-15: dr smith :09-00",
	} {
		_, err := svc.Book(ctx, equivalent, "John Roe", "follow-up")
		assert.ErrorIs(t, err, ErrSlotUnavailable, equivalent)
	}

	st, err := ms.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Bookings, 1)
}

func TestBookInvalidSlotID(t *testing.T) {
	svc, ms := newTestService(t)

	_, err := svc.Book(context.Background(), "tomorrow at nine", "Jane Doe", "checkup")
	assert.ErrorIs(t, err, ErrInvalidSlotID)

	st, err := ms.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Bookings)
}

func TestBookLegacySlotID(t *testing.T) {
	svc, _ := newTestService(t)

	b, err := svc.Book(context.Background(), "2025-01-15-0900", "Jane Doe", "checkup")
	require.NoError(t, err)
	assert.Equal(t, "any:2025-01-15:09:00", b.SlotKey)
	assert.Equal(t, "Any", b.Doctor)
}

func TestBookRegeneratesCollidingCode(t *testing.T) {
	codes := []string{"APT-00000001", "APT-00000001", "APT-00000002"}
	next := 0
	gen := func() string {
		c := codes[next]
		next++
		return c
	}

	svc, _ := newTestService(t, withCodeGenerator(gen))
	ctx := context.Background()

	first, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.NoError(t, err)
	second, err := svc.Book(ctx, "2025-01-15:dr-smith:1400", "John Roe", "checkup")
	require.NoError(t, err)

	assert.Equal(t, "APT-00000001", first.Confirmation)
	assert.Equal(t, "APT-00000002", second.Confirmation)
}

func TestBookGivesUpAfterRepeatedCollisions(t *testing.T) {
	svc, _ := newTestService(t, withCodeGenerator(func() string { return "APT-00000001" }))
	ctx := context.Background()

	_, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.NoError(t, err)

	_, err = svc.Book(ctx, "2025-01-15:dr-smith:1400", "John Roe", "checkup")
	assert.ErrorIs(t, err, ErrCodeExhausted)
}

func TestCancelFreesSlot(t *testing.T) {
	ctx := context.Background()
	svc, ms := newTestService(t)

	b, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, b.Confirmation)
	require.NoError(t, err)
	assert.Equal(t, b.Confirmation, cancelled.Confirmation)

	open, err := svc.CheckAvailability(ctx, "2025-01-15", "dr-smith")
	require.NoError(t, err)
	assert.Contains(t, open, OpenSlot{SlotID: "2025-01-15:dr-smith:0900", Time: "09:00"})

	_, err = svc.Get(ctx, b.Confirmation)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	again, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "John Roe", "checkup")
	require.NoError(t, err)
	assert.NotEqual(t, b.Confirmation, again.Confirmation)

	assertConsistent(t, ms)
}

func TestCancelUnknownLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	cs := &countingStore{MemoryStore: store.NewMemoryStore()}
	svc := NewService(cs, nil)

	_, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.NoError(t, err)
	require.Equal(t, 1, cs.saves)

	_, err = svc.Cancel(ctx, "APT-DOESNOTEXIST")
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.Equal(t, 1, cs.saves)

	st, err := cs.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Bookings, 1)
}

func TestCancelTwice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	b, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, b.Confirmation)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, b.Confirmation)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestReschedulePreservesIdentity(t *testing.T) {
	ctx := context.Background()
	svc, ms := newTestService(t)

	b, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.NoError(t, err)

	moved, err := svc.Reschedule(ctx, b.Confirmation, "2025-01-16:dr-jones:1630")
	require.NoError(t, err)
	assert.Equal(t, b.Confirmation, moved.Confirmation)

	got, err := svc.Get(ctx, b.Confirmation)
	require.NoError(t, err)
	assert.Equal(t, b.Confirmation, got.Confirmation)
	assert.Equal(t, "2025-01-16", got.Date)
	assert.Equal(t, "16:30", got.Time)
	assert.Equal(t, "Dr Jones", got.Doctor)
	assert.Equal(t, "Jane Doe", got.Patient)
	assert.Equal(t, "checkup", got.Reason)

	st, err := ms.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, st.BookedSlots, "dr-smith:2025-01-15:09:00")
	assert.Equal(t, b.Confirmation, st.BookedSlots["dr-jones:2025-01-16:16:30"])
	require.NoError(t, st.Consistent())

	// old slot is bookable again
	_, err = svc.Book(ctx, "2025-01-15:dr-smith:0900", "John Roe", "checkup")
	assert.NoError(t, err)
}

func TestRescheduleOntoOwnSlotIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, ms := newTestService(t)

	b, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.NoError(t, err)

	for _, same := range []string{"2025-01-15:dr-smith:0900", "2025-01-15:DR SMITH:900"} {
		moved, err := svc.Reschedule(ctx, b.Confirmation, same)
		require.NoError(t, err, same)
		assert.Equal(t, b.SlotKey, moved.SlotKey)
	}

	st, err := ms.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, st.BookedSlots, 1)
	require.NoError(t, st.Consistent())
}

func TestRescheduleErrors(t *testing.T) {
	ctx := context.Background()
	svc, ms := newTestService(t)

	first, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.NoError(t, err)
	_, err = svc.Book(ctx, "2025-01-15:dr-smith:1400", "John Roe", "checkup")
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, "APT-DOESNOTEXIST", "2025-01-15:dr-smith:1630")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	// unknown booking wins over a malformed slot
	_, err = svc.Reschedule(ctx, "APT-DOESNOTEXIST", "garbage")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = svc.Reschedule(ctx, first.Confirmation, "garbage")
	assert.ErrorIs(t, err, ErrInvalidSlotID)

	_, err = svc.Reschedule(ctx, first.Confirmation, "2025-01-15:dr-smith:1400")
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	got, err := svc.Get(ctx, first.Confirmation)
	require.NoError(t, err)
	assert.Equal(t, "09:00", got.Time, "failed reschedule leaves booking untouched")
	assertConsistent(t, ms)
}

func TestStoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")

	svc := NewService(&failingStore{loadErr: boom}, nil)
	_, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	assert.ErrorIs(t, err, boom)
	_, err = svc.CheckAvailability(ctx, "2025-01-15", "dr smith")
	assert.ErrorIs(t, err, boom)
	_, err = svc.Get(ctx, "APT-00000000")
	assert.ErrorIs(t, err, boom)

	events := &mockEvents{}
	svc = NewService(&failingStore{saveErr: boom}, nil, WithEvents(events))
	_, err = svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, events.types(), "no event for a booking that was not saved")
}

func TestBusyLockerMapsToStoreBusy(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), busyLocker{})

	_, err := svc.Book(context.Background(), "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	assert.ErrorIs(t, err, ErrStoreBusy)
	assert.Equal(t, "busy", Outcome(err))
}

func TestEventsRecorded(t *testing.T) {
	ctx := context.Background()
	events := &mockEvents{}
	svc, _ := newTestService(t, WithEvents(events))

	b, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.NoError(t, err)
	_, err = svc.Reschedule(ctx, b.Confirmation, "2025-01-15:dr-smith:1400")
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, b.Confirmation)
	require.NoError(t, err)

	assert.Equal(t, []string{EventBookingCreated, EventBookingRescheduled, EventBookingCancelled}, events.types())
	for _, ev := range events.events {
		assert.Equal(t, b.Confirmation, ev.Confirmation)
		assert.NotEmpty(t, ev.Payload)
	}
}

func TestEventFailureDoesNotFailOperation(t *testing.T) {
	svc, _ := newTestService(t, WithEvents(&mockEvents{err: errors.New("db down")}))

	_, err := svc.Book(context.Background(), "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	assert.NoError(t, err)
}

func TestMetricsObserved(t *testing.T) {
	ctx := context.Background()
	m := metrics.New("test", prometheus.NewRegistry())
	svc, _ := newTestService(t, WithMetrics(m))

	_, err := svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.NoError(t, err)
	_, err = svc.Book(ctx, "2025-01-15:dr-smith:0900", "Jane Doe", "checkup")
	require.Error(t, err)
	_, err = svc.Cancel(ctx, "APT-DOESNOTEXIST")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("book", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("book", "slot_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("cancel", "not_found")))
}

func TestCustomDailySlots(t *testing.T) {
	svc, _ := newTestService(t, WithDailySlots([]string{"08:15", "11:00"}))

	open, err := svc.CheckAvailability(context.Background(), "2025-01-15", "Dr Smith")
	require.NoError(t, err)
	assert.Equal(t, []OpenSlot{
		{SlotID: "2025-01-15:dr-smith:0815", Time: "08:15"},
		{SlotID: "2025-01-15:dr-smith:1100", Time: "11:00"},
	}, open)
}

func TestLocalLockPreventsLostUpdates(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	svc := NewService(ms, lock.NewLocal())

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			slotID := fmt.Sprintf("2025-01-%02d:dr-smith:0900", i%28+1)
			_, _ = svc.Book(ctx, slotID, fmt.Sprintf("patient %d", i), "checkup")
		}(i)
	}
	wg.Wait()

	st, err := ms.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Bookings, 28, "one booking per distinct slot, none lost")
	require.NoError(t, st.Consistent())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "invalid_slot_id", Outcome(fmt.Errorf("%w: x", ErrInvalidSlotID)))
	assert.Equal(t, "slot_unavailable", Outcome(ErrSlotUnavailable))
	assert.Equal(t, "not_found", Outcome(ErrBookingNotFound))
	assert.Equal(t, "error", Outcome(errors.New("other")))
}
