package booking

import (
	"context"
	"sort"
	"time"

	"github.com/hackgods/clinic-booking/internal/store"
)

type ReconcileReport struct {
	OrphanSlots int `json:"orphan_slots"` // index entries dropped
	Reindexed   int `json:"reindexed"`    // bookings whose index entry was restored
	Conflicts   int `json:"conflicts"`    // bookings whose slot is indexed to another code
}

func (r ReconcileReport) Changed() bool {
	return r.OrphanSlots > 0 || r.Reindexed > 0
}

// Reconcile repairs the slot index against the bookings map. Index entries
// pointing at a missing booking or at a booking now held elsewhere are
// dropped, and bookings missing from a free slot are indexed again. A slot
// claimed by two bookings is reported but left to the index.
func (s *Service) Reconcile(ctx context.Context) (ReconcileReport, error) {
	start := time.Now()

	var report ReconcileReport
	err := s.mutate(ctx, func(st *store.State) error {
		report = ReconcileReport{}

		for key, code := range st.BookedSlots {
			rec, ok := st.Bookings[code]
			if !ok || rec.SlotKey != key {
				delete(st.BookedSlots, key)
				report.OrphanSlots++
			}
		}

		codes := make([]string, 0, len(st.Bookings))
		for code := range st.Bookings {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		for _, code := range codes {
			key := st.Bookings[code].SlotKey
			holder, ok := st.BookedSlots[key]
			switch {
			case !ok:
				st.BookedSlots[key] = code
				report.Reindexed++
			case holder != code:
				report.Conflicts++
				s.log.Warn().
					Str("confirmation", code).
					Str("holder", holder).
					Str("slot_key", key).
					Msg("booking shares its slot with another booking")
			}
		}

		if !report.Changed() {
			return errUnchanged
		}
		return nil
	})

	s.observe("reconcile", start, err)
	if err != nil {
		return ReconcileReport{}, err
	}

	if report.Changed() || report.Conflicts > 0 {
		s.log.Info().
			Int("orphan_slots", report.OrphanSlots).
			Int("reindexed", report.Reindexed).
			Int("conflicts", report.Conflicts).
			Msg("booking store reconciled")
	}
	return report, nil
}
