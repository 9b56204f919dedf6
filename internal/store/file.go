package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FileStore keeps the state as a single JSON document on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load(_ context.Context) (*State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", f.path).Msg("booking store unreadable, starting from empty state")
		}
		return NewState(), nil
	}
	return Decode(data), nil
}

func (f *FileStore) Save(_ context.Context, st *State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}

	// Readers see either the old or the new document, never a partial one.
	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write booking store: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod booking store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close booking store: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace booking store: %w", err)
	}
	return nil
}

// Ping reports whether the store location is usable.
func (f *FileStore) Ping(_ context.Context) error {
	_, err := os.Stat(filepath.Dir(f.path))
	return err
}
