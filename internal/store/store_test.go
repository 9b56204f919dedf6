package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *State {
	st := NewState()
	st.BookedSlots["dr-smith:2025-01-15:09:00"] = "APT-0A1B2C3D"
	st.Bookings["APT-0A1B2C3D"] = Record{
		Patient: "Jane Doe",
		Reason:  "checkup",
		SlotID:  "2025-01-15:dr-smith:0900",
		SlotKey: "dr-smith:2025-01-15:09:00",
		Doctor:  "Dr Smith",
		Date:    "2025-01-15",
		Time:    "09:00",
	}
	return st
}

func TestDecode(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		st := Decode(nil)
		assert.Empty(t, st.Bookings)
		assert.NotNil(t, st.BookedSlots)
	})

	t.Run("corrupt input", func(t *testing.T) {
		st := Decode([]byte(`{"bookings": [1, 2`))
		assert.Empty(t, st.Bookings)
		assert.Empty(t, st.BookedSlots)
	})

	t.Run("missing maps", func(t *testing.T) {
		st := Decode([]byte(`{}`))
		assert.NotNil(t, st.Bookings)
		assert.NotNil(t, st.BookedSlots)
	})

	t.Run("wire format", func(t *testing.T) {
		st := Decode([]byte(`{
			"bookings": {"APT-0A1B2C3D": {"patient": "Jane Doe", "reason": "checkup",
				"slot_id": "2025-01-15:dr-smith:0900", "slot_key": "dr-smith:2025-01-15:09:00",
				"doctor": "Dr Smith", "date": "2025-01-15", "time": "09:00"}},
			"booked_slots": {"dr-smith:2025-01-15:09:00": "APT-0A1B2C3D"}
		}`))
		assert.Equal(t, sampleState(), st)
	})
}

func TestConsistent(t *testing.T) {
	st := sampleState()
	require.NoError(t, st.Consistent())

	orphanSlot := sampleState()
	orphanSlot.BookedSlots["dr-smith:2025-01-15:14:00"] = "APT-FFFFFFFF"
	assert.Error(t, orphanSlot.Consistent())

	unindexed := sampleState()
	delete(unindexed.BookedSlots, "dr-smith:2025-01-15:09:00")
	assert.Error(t, unindexed.Consistent())

	wrongKey := sampleState()
	rec := wrongKey.Bookings["APT-0A1B2C3D"]
	rec.SlotKey = "dr-smith:2025-01-15:14:00"
	wrongKey.Bookings["APT-0A1B2C3D"] = rec
	assert.Error(t, wrongKey.Consistent())
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "booking_store.json")
	fs := NewFileStore(path)

	st, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Bookings, "missing file loads as empty state")

	require.NoError(t, fs.Save(ctx, sampleState()))
	loaded, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleState(), loaded)

	// whole-state overwrite
	require.NoError(t, fs.Save(ctx, NewState()))
	loaded, err = fs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Bookings)

	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	loaded, err = fs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Bookings, "corrupt file loads as empty state")
}

func largeState(n int) *State {
	st := NewState()
	for i := 0; i < n; i++ {
		code := fmt.Sprintf("APT-%08X", i)
		key := fmt.Sprintf("dr-smith:2025-01-15:%04d", i)
		st.BookedSlots[key] = code
		st.Bookings[code] = Record{Patient: "Jane Doe", SlotID: key, SlotKey: key, Doctor: "Dr Smith", Date: "2025-01-15", Time: "09:00"}
	}
	return st
}

func TestFileStoreReadersNeverSeePartialWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "booking_store.json")
	fs := NewFileStore(path)

	small, big := largeState(2), largeState(2000)
	require.NoError(t, fs.Save(ctx, small))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			st := small
			if i%2 == 0 {
				st = big
			}
			assert.NoError(t, fs.Save(ctx, st))
		}
	}()

	for i := 0; i < 200; i++ {
		loaded, err := fs.Load(ctx)
		require.NoError(t, err)
		n := len(loaded.Bookings)
		assert.True(t, n == 2 || n == 2000, "loaded %d bookings", n)
	}
	close(stop)
	wg.Wait()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestMemoryStoreIsolatesLoadedState(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	require.NoError(t, ms.Save(ctx, sampleState()))

	st, err := ms.Load(ctx)
	require.NoError(t, err)
	delete(st.Bookings, "APT-0A1B2C3D")

	again, err := ms.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, again.Bookings, 1)

	ms.SetRaw([]byte("{{"))
	again, err = ms.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.Bookings)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rs := NewRedisStore(client, "")

	st, err := rs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Bookings)

	require.NoError(t, rs.Save(ctx, sampleState()))
	assert.True(t, mr.Exists(DefaultRedisKey))

	loaded, err := rs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleState(), loaded)

	require.NoError(t, mr.Set(DefaultRedisKey, "garbage"))
	loaded, err = rs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Bookings)

	require.NoError(t, rs.Ping(ctx))

	mr.Close()
	_, err = rs.Load(ctx)
	assert.Error(t, err, "transport failures are not treated as an empty store")
}

func TestPgStoreLoad(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ps := NewPgStore(mock, "")
	doc, err := Encode(sampleState())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT doc").
		WithArgs(DefaultDocument).
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(doc))

	st, err := ps.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleState(), st)

	mock.ExpectQuery("SELECT doc").
		WithArgs(DefaultDocument).
		WillReturnError(pgx.ErrNoRows)

	st, err = ps.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Bookings)

	mock.ExpectQuery("SELECT doc").
		WithArgs(DefaultDocument).
		WillReturnError(errors.New("connection reset"))

	_, err = ps.Load(ctx)
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgStoreSave(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ps := NewPgStore(mock, "clinic-a")
	doc, err := Encode(sampleState())
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO booking_store").
		WithArgs("clinic-a", doc).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, ps.Save(ctx, sampleState()))
	require.NoError(t, mock.ExpectationsWereMet())
}
