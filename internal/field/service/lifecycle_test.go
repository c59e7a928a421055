package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"horizon-field/internal/domain/session"
	"horizon-field/internal/domain/tour"
	"horizon-field/internal/general/logger"
	"horizon-field/internal/general/statefile"
	"horizon-field/internal/ports"
)

func TestStartTour(t *testing.T) {
	store := &fakeStore{}
	channel := newFakeChannel()
	svc := newTestService(t, store, channel, nil)
	ctx := context.Background()

	driveToActiveTour(t, svc)

	res, err := svc.StartTour(ctx)
	if err != nil {
		t.Fatalf("StartTour: %v", err)
	}
	if res.Status != tour.StatusInProgress.String() {
		t.Fatalf("status = %s, want IN_PROGRESS", res.Status)
	}
	if !res.Tracking {
		t.Fatal("tracking should start with the tour")
	}
	if len(store.statusUpdates) != 1 || store.statusUpdates[0] != tour.StatusInProgress {
		t.Fatalf("remote updates = %v, want [IN_PROGRESS]", store.statusUpdates)
	}

	// starting twice is an illegal transition
	if _, err := svc.StartTour(ctx); !errors.Is(err, ErrTransition) {
		t.Fatalf("double start: got %v, want ErrTransition", err)
	}
}

func TestStartTourRemoteFirst(t *testing.T) {
	store := &fakeStore{
		updateTourStatusFn: func(ctx context.Context, tourID string, status tour.Status) error {
			return fmt.Errorf("store down")
		},
	}
	svc := newTestService(t, store, newFakeChannel(), nil)
	ctx := context.Background()

	driveToActiveTour(t, svc)

	if _, err := svc.StartTour(ctx); !errors.Is(err, ErrPersistence) {
		t.Fatalf("got %v, want ErrPersistence", err)
	}

	// local status must not move when the durable write failed
	status := svc.Status(ctx)
	if status.ActiveTour == nil || status.ActiveTour.Status != tour.StatusPlanned.String() {
		t.Fatalf("local tour = %+v, want still PLANNED", status.ActiveTour)
	}
	if status.Tracking {
		t.Fatal("tracking must not start when the tour stayed PLANNED")
	}
}

func TestStartTourWithoutLocationPermission(t *testing.T) {
	store := &fakeStore{}
	state := statefile.NewStore(filepath.Join(t.TempDir(), "agent_state.json"))
	svc := NewFieldService(
		logger.New("field-agent-test"),
		testConfig(),
		store,
		newFakeChannel(),
		&fakeProvider{watchErr: ports.ErrPermissionDenied},
		state,
		NewCredentials(),
	)
	ctx := context.Background()

	driveToActiveTour(t, svc)

	res, err := svc.StartTour(ctx)
	if err != nil {
		t.Fatalf("StartTour with denied permission: %v", err)
	}
	if res.Tracking {
		t.Fatal("tracking must degrade to off on permission denial")
	}
	if res.Status != tour.StatusInProgress.String() {
		t.Fatalf("status = %s, want IN_PROGRESS; denial must not block the start", res.Status)
	}
}

func TestFinishTour(t *testing.T) {
	store := &fakeStore{}
	channel := newFakeChannel()
	svc := newTestService(t, store, channel, nil)
	ctx := context.Background()

	driveToStartedTour(t, svc)

	res, err := svc.FinishTour(ctx)
	if err != nil {
		t.Fatalf("FinishTour: %v", err)
	}
	if res.Status != tour.StatusCompleted.String() {
		t.Fatalf("status = %s, want COMPLETED", res.Status)
	}

	status := svc.Status(ctx)
	if status.State != session.StateTeamSelected.String() {
		t.Fatalf("state after finish = %s, want TEAM_SELECTED", status.State)
	}
	if status.ActiveTour != nil {
		t.Fatal("finish must release the tour")
	}
	if status.Tracking {
		t.Fatal("finish must stop tracking")
	}
	if channel.disconnects == 0 {
		t.Fatal("finish must disconnect the transport channel")
	}
}

func TestFinishRequiresStartedTour(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, newFakeChannel(), nil)
	ctx := context.Background()

	driveToActiveTour(t, svc)

	if _, err := svc.FinishTour(ctx); !errors.Is(err, ErrTransition) {
		t.Fatalf("finishing a PLANNED tour: got %v, want ErrTransition", err)
	}
}

func TestFinishTourSingleFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	store := &fakeStore{
		updateTourStatusFn: func(ctx context.Context, tourID string, status tour.Status) error {
			if status == tour.StatusCompleted {
				once.Do(func() { close(entered) })
				<-release // hold the first finish open
			}
			return nil
		},
	}
	svc := newTestService(t, store, newFakeChannel(), nil)
	ctx := context.Background()

	driveToStartedTour(t, svc)

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.FinishTour(ctx)
		firstDone <- err
	}()

	// second finish while the first is mid-write must be absorbed
	<-entered
	if _, err := svc.FinishTour(ctx); !errors.Is(err, ErrDuplicateRequest) {
		close(release)
		t.Fatalf("concurrent finish: got %v, want ErrDuplicateRequest", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first finish: %v", err)
	}

	// exactly one COMPLETED write reached the store
	completed := 0
	for _, s := range store.statusUpdates {
		if s == tour.StatusCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Fatalf("completed writes = %d, want 1", completed)
	}
}

func TestFinishTourDuringTeamChange(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	store := &fakeStore{
		updateTourStatusFn: func(ctx context.Context, tourID string, status tour.Status) error {
			if status == tour.StatusCompleted {
				once.Do(func() { close(entered) })
				<-release // hold the completion write open
			}
			return nil
		},
	}
	svc := newTestService(t, store, newFakeChannel(), nil)
	ctx := context.Background()

	driveToStartedTour(t, svc)

	finishDone := make(chan error, 1)
	go func() {
		_, err := svc.FinishTour(ctx)
		finishDone <- err
	}()
	<-entered

	// the crew changes team while the completion write is in flight; the
	// bundle is torn down and the gate moves to AUTHENTICATED
	if _, err := svc.ChangeTeam(ctx); err != nil {
		close(release)
		t.Fatalf("ChangeTeam: %v", err)
	}
	close(release)

	if err := <-finishDone; err != nil {
		t.Fatalf("FinishTour after teardown: %v", err)
	}

	// the late finish must not drag the gate back to TEAM_SELECTED
	status := svc.Status(ctx)
	if status.State != session.StateAuthenticated.String() {
		t.Fatalf("state = %s, want AUTHENTICATED kept after team change", status.State)
	}
	if status.TeamID != "" {
		t.Fatalf("team_id = %q, want empty after team change", status.TeamID)
	}
	if status.ActiveTour != nil {
		t.Fatal("no tour may survive the team change")
	}
}

func TestListToursFiltersTeamAndStatus(t *testing.T) {
	store := &fakeStore{}
	store.fetchToursFn = func(ctx context.Context) ([]*tour.Tour, error) {
		mine, _ := tour.NewTour("tour-1", "Mine", "2026-08-29", tour.StatusPlanned, "team-1")
		running, _ := tour.NewTour("tour-2", "Running", "2026-08-29", tour.StatusInProgress, "team-1")
		done, _ := tour.NewTour("tour-3", "Done", "2026-08-29", tour.StatusCompleted, "team-1")
		other, _ := tour.NewTour("tour-4", "Foreign", "2026-08-29", tour.StatusPlanned, "team-2")
		return []*tour.Tour{mine, running, done, other}, nil
	}
	svc := newTestService(t, store, newFakeChannel(), nil)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "North Crew", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := svc.SelectTeam(ctx, "team-1"); err != nil {
		t.Fatalf("SelectTeam: %v", err)
	}

	tours, err := svc.ListTours(ctx)
	if err != nil {
		t.Fatalf("ListTours: %v", err)
	}
	if len(tours) != 2 {
		t.Fatalf("tours = %d, want 2 (planned + in progress, own team only)", len(tours))
	}
	for _, tv := range tours {
		if tv.TourID == "tour-3" || tv.TourID == "tour-4" {
			t.Fatalf("tour %s must be filtered out", tv.TourID)
		}
	}
}

func TestSelectTourConnectsChannelAndLoadsStops(t *testing.T) {
	store := &fakeStore{}
	channel := newFakeChannel()
	svc := newTestService(t, store, channel, nil)
	ctx := context.Background()

	driveToActiveTour(t, svc)

	if channel.connects != 1 {
		t.Fatalf("channel connects = %d, want 1", channel.connects)
	}

	stops, err := svc.ListStops(ctx)
	if err != nil {
		t.Fatalf("ListStops: %v", err)
	}
	if len(stops) != 2 {
		t.Fatalf("stops = %d, want 2", len(stops))
	}
	if stops[0].Sequence != 1 || stops[1].Sequence != 2 {
		t.Fatal("stop order must be preserved")
	}

	// a second selection while one is active is rejected
	if _, err := svc.SelectTour(ctx, "tour-1"); !errors.Is(err, session.ErrInvalidState) {
		t.Fatalf("second SelectTour: got %v, want ErrInvalidState", err)
	}
}
