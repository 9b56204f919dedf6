package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-booking/internal/store"
)

func TestReconcileRepairsIndex(t *testing.T) {
	ctx := context.Background()
	cs := &countingStore{MemoryStore: store.NewMemoryStore()}
	cs.SetRaw([]byte(`{
		"bookings": {
			"APT-AAAAAAAA": {"patient": "Jane Doe", "slot_key": "dr-smith:2025-01-15:09:00"},
			"APT-BBBBBBBB": {"patient": "John Roe", "slot_key": "dr-smith:2025-01-15:14:00"}
		},
		"booked_slots": {
			"dr-smith:2025-01-15:09:00": "APT-AAAAAAAA",
			"dr-smith:2025-01-15:16:30": "APT-ZZZZZZZZ",
			"dr-chen:2025-01-15:09:00": "APT-AAAAAAAA"
		}
	}`))
	svc := NewService(cs, nil)

	report, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{OrphanSlots: 2, Reindexed: 1}, report)
	assert.Equal(t, 1, cs.saves)
	assertConsistent(t, cs)

	open, err := svc.CheckAvailability(ctx, "2025-01-15", "dr-smith")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "16:30", open[0].Time)

	report, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.False(t, report.Changed())
	assert.Equal(t, 1, cs.saves)
}

func TestReconcileReportsSharedSlot(t *testing.T) {
	cs := &countingStore{MemoryStore: store.NewMemoryStore()}
	cs.SetRaw([]byte(`{
		"bookings": {
			"APT-AAAAAAAA": {"patient": "Jane Doe", "slot_key": "dr-smith:2025-01-15:09:00"},
			"APT-CCCCCCCC": {"patient": "Ann Poe", "slot_key": "dr-smith:2025-01-15:09:00"}
		},
		"booked_slots": {"dr-smith:2025-01-15:09:00": "APT-AAAAAAAA"}
	}`))
	svc := NewService(cs, nil)

	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Conflicts: 1}, report)
	assert.Zero(t, cs.saves)
}

func TestReconcileEmptyStoreDoesNotSave(t *testing.T) {
	cs := &countingStore{MemoryStore: store.NewMemoryStore()}
	report, err := NewService(cs, nil).Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{}, report)
	assert.Zero(t, cs.saves)
}
