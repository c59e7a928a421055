package service

import (
	"context"
	"sync"
	"time"

	"horizon-field/internal/domain/session"
	"horizon-field/internal/domain/stop"
	"horizon-field/internal/domain/tour"
	"horizon-field/internal/general/config"
	"horizon-field/internal/general/jwt"
	"horizon-field/internal/general/logger"
	"horizon-field/internal/general/statefile"
	"horizon-field/internal/ports"
)

// Credentials is the shared token cell: the gate writes it on login and
// logout, the store client and the transport channel read it per request.
type Credentials struct {
	mu    sync.RWMutex
	token string
}

// NewCredentials returns an empty Credentials cell.
func NewCredentials() *Credentials {
	return &Credentials{}
}

// Token returns the current session token, or "" before login.
func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Credentials) set(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// fieldService holds all dependencies required by the tour execution
// coordinator. The mutex serializes gate operations; collection
// confirmations run outside it so multiple stops can confirm concurrently.
type fieldService struct {
	logger   *logger.Logger
	cfg      *config.Config
	store    ports.TourStore
	channel  ports.TransportChannel
	provider ports.LocationProvider
	state    *statefile.Store
	creds    *Credentials

	mu         sync.Mutex
	gate       session.State
	sess       session.Session
	activeTour *tour.Tour
	stops      []*stop.Stop
	finishing  bool

	stream streamState

	flightMu sync.Mutex
	inflight map[string]struct{} // client IDs with a confirmation write running
}

// NewFieldService constructs the coordinator and seeds the gate from the
// persisted state file: a surviving token restores AUTHENTICATED, a
// surviving team selection restores TEAM_SELECTED. A tour is never
// restored; execution state does not outlive the process.
func NewFieldService(
	log *logger.Logger,
	cfg *config.Config,
	store ports.TourStore,
	channel ports.TransportChannel,
	provider ports.LocationProvider,
	state *statefile.Store,
	creds *Credentials,
) ports.FieldService {
	service := &fieldService{
		logger:   log,
		cfg:      cfg,
		store:    store,
		channel:  channel,
		provider: provider,
		state:    state,
		creds:    creds,
		gate:     session.StateUnauthenticated,
		inflight: make(map[string]struct{}),
	}

	persisted, err := state.Load()
	if err != nil {
		log.Error(context.Background(), "state_restore_failed", "Failed to read persisted session state", err, nil)
		return service
	}

	if persisted.Token != "" && jwt.Expired(persisted.Token, time.Now().UTC()) {
		log.Info(context.Background(), "session_lapsed", "Persisted session token lapsed; starting unauthenticated", nil)
		if err := state.Clear(); err != nil {
			log.Error(context.Background(), "state_clear_failed", "Failed to clear lapsed session state", err, nil)
		}
		persisted = statefile.State{}
	}

	if persisted.Token != "" {
		service.sess.Token = persisted.Token
		service.creds.set(persisted.Token)
		service.gate = session.StateAuthenticated

		if persisted.TeamID != "" {
			service.sess.TeamID = persisted.TeamID
			service.sess.TeamName = persisted.TeamName
			service.gate = session.StateTeamSelected
		}

		log.Info(context.Background(), "session_restored", "Session restored from state file", map[string]any{
			"state":   service.gate.String(),
			"team_id": persisted.TeamID,
		})
	}

	return service
}

// Ensure fieldService implements the ports.FieldService interface.
var _ ports.FieldService = (*fieldService)(nil)
