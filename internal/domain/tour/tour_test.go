package tour

import (
	"errors"
	"testing"
	"time"
)

func TestNewTour(t *testing.T) {
	tr, err := NewTour("t-1", "North Loop", "2026-08-29", StatusPlanned, "team-1")
	if err != nil {
		t.Fatalf("NewTour: %v", err)
	}
	if tr.Status != StatusPlanned || tr.TeamID != "team-1" {
		t.Fatalf("unexpected tour: %+v", tr)
	}

	if _, err := NewTour("  ", "x", "2026-08-29", StatusPlanned, "team-1"); !errors.Is(err, ErrTourIDRequired) {
		t.Fatalf("blank id: got %v, want ErrTourIDRequired", err)
	}
	if _, err := NewTour("t-2", "x", "2026-08-29", Status("WEIRD"), "team-1"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("bad status: got %v, want ErrInvalidStatus", err)
	}
}

func TestTourLifecycle(t *testing.T) {
	tr, _ := NewTour("t-1", "North Loop", "2026-08-29", StatusPlanned, "team-1")

	if tr.Active() {
		t.Fatal("PLANNED tour must not be active")
	}
	if err := tr.Finish(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("finishing a PLANNED tour: got %v, want ErrInvalidTransition", err)
	}

	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !tr.Active() {
		t.Fatal("IN_PROGRESS tour must be active")
	}
	if err := tr.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("starting twice: got %v, want ErrInvalidTransition", err)
	}

	if err := tr.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if tr.Active() {
		t.Fatal("COMPLETED tour must not be active")
	}
	if err := tr.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("restarting a COMPLETED tour: got %v, want ErrInvalidTransition", err)
	}
}

func TestScheduledFor(t *testing.T) {
	tr, _ := NewTour("t-1", "North Loop", "2026-08-29", StatusPlanned, "team-1")

	day := time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)
	if !tr.ScheduledFor(day) {
		t.Error("tour should match its own date")
	}
	if tr.ScheduledFor(day.AddDate(0, 0, 1)) {
		t.Error("tour should not match the next day")
	}
}
