package tour

import (
	"errors"
	"strings"
	"time"
)

// Tour is the local copy of a tour row from the remote store. The status
// field is a cache: it is only flipped after the corresponding remote
// status update succeeded.
type Tour struct {
	ID        string
	Name      string
	Date      string // calendar day, "2006-01-02"
	Status    Status
	TeamID    string
	TeamName  string
	Vehicle   string
	UpdatedAt time.Time
}

var (
	ErrTourIDRequired    = errors.New("tour id is required")
	ErrInvalidTransition = errors.New("invalid tour status transition")
)

// NewTour validates identity fields and returns a Tour.
func NewTour(id, name, date string, status Status, teamID string) (*Tour, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, ErrTourIDRequired
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return &Tour{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Date:      strings.TrimSpace(date),
		Status:    status,
		TeamID:    strings.TrimSpace(teamID),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Start transitions PLANNED -> IN_PROGRESS.
func (t *Tour) Start() error {
	if !t.Status.CanTransitionTo(StatusInProgress) {
		return ErrInvalidTransition
	}
	t.setStatus(StatusInProgress)
	return nil
}

// Finish transitions IN_PROGRESS -> COMPLETED.
func (t *Tour) Finish() error {
	if !t.Status.CanTransitionTo(StatusCompleted) {
		return ErrInvalidTransition
	}
	t.setStatus(StatusCompleted)
	return nil
}

// Active reports whether position samples may be emitted for this tour.
func (t *Tour) Active() bool {
	return t.Status == StatusInProgress
}

// ScheduledFor reports whether the tour is scheduled for the given day.
func (t *Tour) ScheduledFor(day time.Time) bool {
	return t.Date == day.Format("2006-01-02")
}

func (t *Tour) setStatus(status Status) {
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
}
