package statefile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "missing.json"))

	s, err := st.Load()
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if s != (State{}) {
		t.Fatalf("missing file must yield zero state, got %+v", s)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "state.json"))

	in := State{Token: "tok-1", TeamID: "team-1", TeamName: "North Crew"}
	if err := st.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out != in {
		t.Fatalf("round trip: got %+v, want %+v", out, in)
	}
}

func TestLoadCorruptFileDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	st := NewStore(path)
	s, err := st.Load()
	if err != nil {
		t.Fatalf("corrupt file must not error, got %v", err)
	}
	if s != (State{}) {
		t.Fatalf("corrupt file must yield a fresh session, got %+v", s)
	}
}

func TestClear(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "state.json"))
	if err := st.Save(State{Token: "tok-1"}); err != nil {
		t.Fatal(err)
	}

	if err := st.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := st.Clear(); err != nil {
		t.Fatalf("Clear on missing file: %v", err)
	}

	s, err := st.Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.Token != "" {
		t.Fatal("cleared store must load a zero state")
	}
}
