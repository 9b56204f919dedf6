package store

import (
	"context"
	"sync"
)

// MemoryStore keeps the encoded state in memory. Loaded states are
// independent copies, as with the persistent backends.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Decode(m.data), nil
}

func (m *MemoryStore) Save(_ context.Context, st *State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

// SetRaw replaces the stored bytes, bypassing encoding.
func (m *MemoryStore) SetRaw(data []byte) {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.mu.Unlock()
}

func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}
