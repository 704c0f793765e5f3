package ratelimit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store loads and persists limiter state.
//
// Load must always return a usable state. When the backing data is missing the
// state is fresh and the error is nil; when it is unreadable or corrupt the
// state is fresh and the error describes the fault.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context) error
}

// FileStore keeps state in a single JSON file rewritten on every save.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the state file.
func (f *FileStore) Load(ctx context.Context) (*State, error) {
	if f == nil || f.Path == "" {
		return NewState(), errors.New("state file path is not configured")
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewState(), nil
		}
		return NewState(), fmt.Errorf("read rate state: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return NewState(), nil
	}

	state := NewState()
	if err := json.Unmarshal(data, state); err != nil {
		return NewState(), fmt.Errorf("decode rate state: %w", err)
	}
	state.sanitize()
	return state, nil
}

// Save writes the state via a temp file and rename so readers never observe a
// partially written file.
func (f *FileStore) Save(ctx context.Context, state *State) error {
	if f == nil || f.Path == "" {
		return errors.New("state file path is not configured")
	}
	if state == nil {
		return errors.New("rate state is required")
	}

	payload, err := json.Marshal(state.persistable())
	if err != nil {
		return fmt.Errorf("encode rate state: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // nolint:errcheck // no-op once renamed

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write rate state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write rate state: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("replace rate state: %w", err)
	}
	return nil
}

// Delete removes the state file. A missing file is not an error.
func (f *FileStore) Delete(ctx context.Context) error {
	if f == nil || f.Path == "" {
		return errors.New("state file path is not configured")
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete rate state: %w", err)
	}
	return nil
}

// MemoryStore keeps state in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	state *State
}

// Load returns a copy of the stored state.
func (m *MemoryStore) Load(ctx context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return NewState(), nil
	}
	return m.state.Clone(), nil
}

// Save stores a copy of state with the same truncation as the file store.
func (m *MemoryStore) Save(ctx context.Context, state *State) error {
	if state == nil {
		return errors.New("rate state is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state.persistable()
	return nil
}

// Delete forgets the stored state.
func (m *MemoryStore) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}
