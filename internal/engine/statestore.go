package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pairscope/statarb-cli/internal/models"
)

// StateStore persists per-pair anti-churn state across runs. Callers
// must treat read-modify-write of one pair as a single logical
// transaction; both implementations here serialize access.
type StateStore interface {
	// Get returns the state for a pair key and whether it exists
	Get(key string) (models.PairTradeState, bool, error)
	// Put stores the state for a pair key
	Put(key string, st models.PairTradeState) error
	// All returns a copy of every record, for reporting
	All() (map[string]models.PairTradeState, error)
}

// FileStore keeps the full state map in one JSON file, read and
// rewritten whole on each update so sequential pair evaluations never
// lose sibling records.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store at path; the file is created
// on first Put.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (fs *FileStore) load() (map[string]models.PairTradeState, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]models.PairTradeState), nil
		}
		return nil, fmt.Errorf("read trade state: %w", err)
	}
	state := make(map[string]models.PairTradeState)
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse trade state: %w", err)
	}
	return state, nil
}

func (fs *FileStore) save(state map[string]models.PairTradeState) error {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	f, err := os.Create(fs.path)
	if err != nil {
		return fmt.Errorf("write trade state: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

// Get implements StateStore
func (fs *FileStore) Get(key string) (models.PairTradeState, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	state, err := fs.load()
	if err != nil {
		return models.PairTradeState{}, false, err
	}
	rec, ok := state[key]
	return rec, ok, nil
}

// Put implements StateStore with a whole-map read-modify-write
func (fs *FileStore) Put(key string, st models.PairTradeState) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	state, err := fs.load()
	if err != nil {
		return err
	}
	state[key] = st
	return fs.save(state)
}

// All implements StateStore
func (fs *FileStore) All() (map[string]models.PairTradeState, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.load()
}

// Clear removes every record
func (fs *FileStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := os.Remove(fs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStore is an in-process StateStore for tests and dry runs
type MemoryStore struct {
	mu    sync.Mutex
	state map[string]models.PairTradeState
	// FailReads/FailWrites simulate a broken backing store
	FailReads  bool
	FailWrites bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: make(map[string]models.PairTradeState)}
}

var errStoreUnavailable = errors.New("state store unavailable")

// Get implements StateStore
func (ms *MemoryStore) Get(key string) (models.PairTradeState, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.FailReads {
		return models.PairTradeState{}, false, errStoreUnavailable
	}
	rec, ok := ms.state[key]
	return rec, ok, nil
}

// Put implements StateStore
func (ms *MemoryStore) Put(key string, st models.PairTradeState) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.FailWrites {
		return errStoreUnavailable
	}
	ms.state[key] = st
	return nil
}

// All implements StateStore
func (ms *MemoryStore) All() (map[string]models.PairTradeState, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.FailReads {
		return nil, errStoreUnavailable
	}
	out := make(map[string]models.PairTradeState, len(ms.state))
	for k, v := range ms.state {
		out[k] = v
	}
	return out, nil
}
