package statefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// State is the local session state persisted across process restarts:
// the credential token and the selected team. It seeds the initial gate
// state at startup.
type State struct {
	Token    string `json:"token,omitempty"`
	TeamID   string `json:"team_id,omitempty"`
	TeamName string `json:"team_name,omitempty"`
}

// Store reads and writes the agent state file atomically.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a Store bound to the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the state file. A missing file yields a zero State, not an error.
func (st *Store) Load() (State, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	raw, err := os.ReadFile(st.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("read state file: %w", err)
	}

	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		// a corrupt state file degrades to a fresh session
		return State{}, nil
	}
	return s, nil
}

// Save writes the state file via a temp-file rename.
func (st *Store) Save(s State) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := st.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil && filepath.Dir(st.path) != "." {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Clear removes the state file (full logout). Missing file is not an error.
func (st *Store) Clear() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := os.Remove(st.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}
