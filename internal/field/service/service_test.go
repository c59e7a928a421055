package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"horizon-field/internal/domain/geo"
	"horizon-field/internal/domain/stop"
	"horizon-field/internal/domain/team"
	"horizon-field/internal/domain/tour"
	"horizon-field/internal/general/config"
	"horizon-field/internal/general/logger"
	"horizon-field/internal/general/statefile"
	"horizon-field/internal/ports"
)

// ----- fakes -----

type fakeStore struct {
	mu sync.Mutex

	authenticateFn     func(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error)
	fetchTeamsFn       func(ctx context.Context) ([]*team.Team, error)
	fetchToursFn       func(ctx context.Context) ([]*tour.Tour, error)
	fetchStopsFn       func(ctx context.Context, tourID string) ([]*stop.Stop, error)
	updateTourStatusFn func(ctx context.Context, tourID string, status tour.Status) error
	recordCollectionFn func(ctx context.Context, rec ports.ConfirmationRecord) error

	statusUpdates []tour.Status
	collections   []ports.ConfirmationRecord
}

func (f *fakeStore) Authenticate(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error) {
	if f.authenticateFn != nil {
		return f.authenticateFn(ctx, in)
	}
	return ports.LoginResult{Token: "tok-test"}, nil
}

func (f *fakeStore) FetchTeams(ctx context.Context) ([]*team.Team, error) {
	if f.fetchTeamsFn != nil {
		return f.fetchTeamsFn(ctx)
	}
	tm, _ := team.NewTeam("team-1", "North Crew", "", "ACTIVE")
	return []*team.Team{tm}, nil
}

func (f *fakeStore) FetchTours(ctx context.Context) ([]*tour.Tour, error) {
	if f.fetchToursFn != nil {
		return f.fetchToursFn(ctx)
	}
	tr, _ := tour.NewTour("tour-1", "Morning Loop", "2026-08-29", tour.StatusPlanned, "team-1")
	return []*tour.Tour{tr}, nil
}

func (f *fakeStore) FetchStops(ctx context.Context, tourID string) ([]*stop.Stop, error) {
	if f.fetchStopsFn != nil {
		return f.fetchStopsFn(ctx, tourID)
	}
	s1, _ := stop.NewStop("s-1", "client-1", 1, "Bakery Nord", "Hauptstr. 1")
	s2, _ := stop.NewStop("s-2", "client-2", 2, "Cafe Ost", "Ringweg 8")
	return []*stop.Stop{s1, s2}, nil
}

func (f *fakeStore) UpdateTourStatus(ctx context.Context, tourID string, status tour.Status) error {
	f.mu.Lock()
	f.statusUpdates = append(f.statusUpdates, status)
	f.mu.Unlock()
	if f.updateTourStatusFn != nil {
		return f.updateTourStatusFn(ctx, tourID, status)
	}
	return nil
}

func (f *fakeStore) RecordCollection(ctx context.Context, rec ports.ConfirmationRecord) error {
	if f.recordCollectionFn != nil {
		if err := f.recordCollectionFn(ctx, rec); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.collections = append(f.collections, rec)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) collectionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.collections)
}

type emittedEvent struct {
	Event   string
	Payload any
}

type fakeChannel struct {
	mu     sync.Mutex
	state  ports.ChannelState
	events []emittedEvent

	connects    int
	disconnects int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{state: ports.ChannelDisconnected}
}

func (f *fakeChannel) Connect(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	f.state = ports.ChannelConnected
}

func (f *fakeChannel) Emit(event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{Event: event, Payload: payload})
}

func (f *fakeChannel) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.state = ports.ChannelDisconnected
}

func (f *fakeChannel) State() ports.ChannelState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeChannel) emitted() []emittedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]emittedEvent, len(f.events))
	copy(out, f.events)
	return out
}

type fakeProvider struct {
	watchErr error
	fixes    chan geo.PositionSample
}

func (f *fakeProvider) Watch(ctx context.Context) (<-chan geo.PositionSample, error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	if f.fixes == nil {
		f.fixes = make(chan geo.PositionSample)
	}
	return f.fixes, nil
}

// ----- harness -----

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Tracking.MinIntervalSeconds = 10
	cfg.Tracking.MinDistanceMeters = 50
	return cfg
}

func newTestService(t *testing.T, store *fakeStore, channel *fakeChannel, cfg *config.Config) ports.FieldService {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	state := statefile.NewStore(filepath.Join(t.TempDir(), "agent_state.json"))
	return NewFieldService(
		logger.New("field-agent-test"),
		cfg,
		store,
		channel,
		&fakeProvider{},
		state,
		NewCredentials(),
	)
}

func buildServiceWithProvider(t *testing.T, store *fakeStore, channel *fakeChannel, provider *fakeProvider) ports.FieldService {
	t.Helper()
	state := statefile.NewStore(filepath.Join(t.TempDir(), "agent_state.json"))
	return NewFieldService(
		logger.New("field-agent-test"),
		testConfig(),
		store,
		channel,
		provider,
		state,
		NewCredentials(),
	)
}

// driveToActiveTour walks the gate to TOUR_ACTIVE with the default fixtures.
func driveToActiveTour(t *testing.T, svc ports.FieldService) {
	t.Helper()
	ctx := context.Background()

	if _, err := svc.Login(ctx, "North Crew", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := svc.SelectTeam(ctx, "team-1"); err != nil {
		t.Fatalf("SelectTeam: %v", err)
	}
	if _, err := svc.SelectTour(ctx, "tour-1"); err != nil {
		t.Fatalf("SelectTour: %v", err)
	}
}

// driveToStartedTour additionally starts the tour.
func driveToStartedTour(t *testing.T, svc ports.FieldService) {
	t.Helper()
	driveToActiveTour(t, svc)
	if _, err := svc.StartTour(context.Background()); err != nil {
		t.Fatalf("StartTour: %v", err)
	}
}
