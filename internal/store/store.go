package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Store persists the whole booking state. Load never fails on missing or
// corrupt content; it returns an empty state instead. Save replaces
// whatever was stored before.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, st *State) error
}

// Record is a persisted booking, keyed by confirmation code in State.
type Record struct {
	Patient string `json:"patient"`
	Reason  string `json:"reason"`
	SlotID  string `json:"slot_id"`
	SlotKey string `json:"slot_key"`
	Doctor  string `json:"doctor"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// State holds the two co-maintained mappings. BookedSlots enforces slot
// uniqueness, Bookings holds the records.
type State struct {
	Bookings    map[string]Record `json:"bookings"`
	BookedSlots map[string]string `json:"booked_slots"`
}

func NewState() *State {
	return &State{
		Bookings:    make(map[string]Record),
		BookedSlots: make(map[string]string),
	}
}

// Consistent reports the first broken link between the two mappings.
func (s *State) Consistent() error {
	for key, code := range s.BookedSlots {
		rec, ok := s.Bookings[code]
		if !ok {
			return fmt.Errorf("slot %s points at unknown booking %s", key, code)
		}
		if rec.SlotKey != key {
			return fmt.Errorf("booking %s has slot key %s, indexed under %s", code, rec.SlotKey, key)
		}
	}
	for code, rec := range s.Bookings {
		if s.BookedSlots[rec.SlotKey] != code {
			return fmt.Errorf("booking %s is not indexed under %s", code, rec.SlotKey)
		}
	}
	return nil
}

func Encode(st *State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode booking state: %w", err)
	}
	return data, nil
}

// Decode parses stored content. Empty or unreadable content yields an
// empty state; the corruption is logged and otherwise ignored.
func Decode(data []byte) *State {
	st := NewState()
	if len(data) == 0 {
		return st
	}

	if err := json.Unmarshal(data, st); err != nil {
		log.Warn().Err(err).Msg("booking store content unreadable, starting from empty state")
		return NewState()
	}

	if st.Bookings == nil {
		st.Bookings = make(map[string]Record)
	}
	if st.BookedSlots == nil {
		st.BookedSlots = make(map[string]string)
	}
	return st
}
