package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"horizon-field/internal/domain/session"
	"horizon-field/internal/domain/stop"
	"horizon-field/internal/general/contracts"
	"horizon-field/internal/ports"
)

func TestConfirmStop(t *testing.T) {
	store := &fakeStore{}
	channel := newFakeChannel()
	svc := newTestService(t, store, channel, nil)
	ctx := context.Background()

	driveToStartedTour(t, svc)

	res, err := svc.ConfirmStop(ctx, "client-1")
	if err != nil {
		t.Fatalf("ConfirmStop: %v", err)
	}
	if res.Status != stop.ConfirmationCompleted.String() {
		t.Fatalf("status = %s, want COMPLETED", res.Status)
	}
	if res.Deduplicated {
		t.Fatal("first confirmation must not be deduplicated")
	}
	if store.collectionCount() != 1 {
		t.Fatalf("durable writes = %d, want 1", store.collectionCount())
	}

	// the mirror event went out on the channel
	var mirrored bool
	for _, e := range channel.emitted() {
		if e.Event == contracts.EventUpdateCollectionStatus {
			p, ok := e.Payload.(contracts.CollectionPayload)
			if !ok || p.ClientID != "client-1" || p.TourID != "tour-1" {
				t.Fatalf("unexpected mirror payload: %+v", e.Payload)
			}
			mirrored = true
		}
	}
	if !mirrored {
		t.Fatal("confirmation must emit a mirror event")
	}
}

func TestConfirmStopRequiresStartedTour(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, newFakeChannel(), nil)
	ctx := context.Background()

	driveToActiveTour(t, svc) // selected, not started

	if _, err := svc.ConfirmStop(ctx, "client-1"); !errors.Is(err, ErrTourNotStarted) {
		t.Fatalf("got %v, want ErrTourNotStarted", err)
	}
	if store.collectionCount() != 0 {
		t.Fatal("no durable write may happen before the tour starts")
	}
}

func TestConfirmStopUnknownClient(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, newFakeChannel(), nil)
	driveToStartedTour(t, svc)

	if _, err := svc.ConfirmStop(context.Background(), "client-404"); !errors.Is(err, ErrStopNotFound) {
		t.Fatalf("got %v, want ErrStopNotFound", err)
	}
}

func TestConfirmStopIdempotent(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, newFakeChannel(), nil)
	ctx := context.Background()

	driveToStartedTour(t, svc)

	if _, err := svc.ConfirmStop(ctx, "client-1"); err != nil {
		t.Fatalf("first confirm: %v", err)
	}

	res, err := svc.ConfirmStop(ctx, "client-1")
	if err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
	if !res.Deduplicated {
		t.Fatal("re-confirming a completed stop must be a silent no-op")
	}
	if store.collectionCount() != 1 {
		t.Fatalf("durable writes = %d, want 1 (no-op must not write)", store.collectionCount())
	}
}

func TestConfirmStopSingleFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	store := &fakeStore{
		recordCollectionFn: func(ctx context.Context, rec ports.ConfirmationRecord) error {
			once.Do(func() { close(entered) })
			<-release // hold the write open
			return nil
		},
	}
	svc := newTestService(t, store, newFakeChannel(), nil)
	ctx := context.Background()

	driveToStartedTour(t, svc)

	firstDone := make(chan ports.ConfirmStopResult, 1)
	go func() {
		res, err := svc.ConfirmStop(ctx, "client-1")
		if err != nil {
			t.Errorf("first confirm: %v", err)
		}
		firstDone <- res
	}()

	<-entered

	// duplicate while the write is open: absorbed, already rendered COMPLETED
	res, err := svc.ConfirmStop(ctx, "client-1")
	if err != nil {
		close(release)
		t.Fatalf("duplicate confirm: %v", err)
	}
	if !res.Deduplicated {
		close(release)
		t.Fatal("duplicate confirm must be absorbed")
	}
	if res.Status != stop.ConfirmationCompleted.String() {
		close(release)
		t.Fatalf("duplicate sees %s, want optimistic COMPLETED", res.Status)
	}

	close(release)
	first := <-firstDone
	if first.Status != stop.ConfirmationCompleted.String() {
		t.Fatalf("first confirm resolved to %s, want COMPLETED", first.Status)
	}
	if store.collectionCount() != 1 {
		t.Fatalf("durable writes = %d, want 1", store.collectionCount())
	}

	// a different stop is not blocked by the first one's flight
	done := make(chan struct{})
	go func() {
		if _, err := svc.ConfirmStop(ctx, "client-2"); err != nil {
			t.Errorf("other stop: %v", err)
		}
		close(done)
	}()
	<-done
}

func TestConfirmStopDuringLogout(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	store := &fakeStore{
		recordCollectionFn: func(ctx context.Context, rec ports.ConfirmationRecord) error {
			once.Do(func() { close(entered) })
			<-release // hold the durable write open
			return nil
		},
	}
	svc := newTestService(t, store, newFakeChannel(), nil)
	ctx := context.Background()

	driveToStartedTour(t, svc)

	confirmDone := make(chan ports.ConfirmStopResult, 1)
	go func() {
		res, err := svc.ConfirmStop(ctx, "client-1")
		if err != nil {
			t.Errorf("confirm after teardown: %v", err)
		}
		confirmDone <- res
	}()
	<-entered

	// logout tears the bundle down while the write is in flight
	if _, err := svc.Logout(ctx); err != nil {
		close(release)
		t.Fatalf("Logout: %v", err)
	}
	close(release)

	res := <-confirmDone
	if res.Status != stop.ConfirmationCompleted.String() {
		t.Fatalf("status = %s, want COMPLETED (durable record stands)", res.Status)
	}

	status := svc.Status(ctx)
	if status.State != session.StateUnauthenticated.String() {
		t.Fatalf("state = %s, want UNAUTHENTICATED kept after logout", status.State)
	}
	if status.ActiveTour != nil {
		t.Fatal("no tour may survive the logout")
	}
}

func TestConfirmStopKeepOptimisticOnFailure(t *testing.T) {
	store := &fakeStore{
		recordCollectionFn: func(ctx context.Context, rec ports.ConfirmationRecord) error {
			return fmt.Errorf("store down")
		},
	}
	channel := newFakeChannel()
	svc := newTestService(t, store, channel, nil) // rollback_on_failure = false
	ctx := context.Background()

	driveToStartedTour(t, svc)

	res, err := svc.ConfirmStop(ctx, "client-1")
	if err != nil {
		t.Fatalf("keep-optimistic confirm must not error, got %v", err)
	}
	if res.Status != stop.ConfirmationCompleted.String() {
		t.Fatalf("status = %s, want COMPLETED kept locally", res.Status)
	}

	// the mirror follows the durable write; a failed write emits nothing
	for _, e := range channel.emitted() {
		if e.Event == contracts.EventUpdateCollectionStatus {
			t.Fatal("failed durable write must not emit a mirror event")
		}
	}

	stops, _ := svc.ListStops(ctx)
	if stops[0].Status != stop.ConfirmationCompleted.String() {
		t.Fatalf("displayed status = %s, want COMPLETED", stops[0].Status)
	}
}

func TestConfirmStopRollbackOnFailure(t *testing.T) {
	store := &fakeStore{
		recordCollectionFn: func(ctx context.Context, rec ports.ConfirmationRecord) error {
			return fmt.Errorf("store down")
		},
	}
	cfg := testConfig()
	cfg.Ledger.RollbackOnFailure = true
	svc := newTestService(t, store, newFakeChannel(), cfg)
	ctx := context.Background()

	driveToStartedTour(t, svc)

	if _, err := svc.ConfirmStop(ctx, "client-1"); !errors.Is(err, ErrPersistence) {
		t.Fatalf("rollback confirm: got %v, want ErrPersistence", err)
	}

	stops, _ := svc.ListStops(ctx)
	if stops[0].Status != stop.ConfirmationPending.String() {
		t.Fatalf("displayed status = %s, want PENDING after rollback", stops[0].Status)
	}

	// the lock is released: a retry can run and succeed
	store.recordCollectionFn = nil
	res, err := svc.ConfirmStop(ctx, "client-1")
	if err != nil {
		t.Fatalf("retry after rollback: %v", err)
	}
	if res.Status != stop.ConfirmationCompleted.String() {
		t.Fatalf("retry status = %s, want COMPLETED", res.Status)
	}
}
