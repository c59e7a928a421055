package service

import "errors"

var (
	// ErrAuth means the remote store rejected the crew credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrNoActiveTour means the operation needs a selected tour and none is.
	ErrNoActiveTour = errors.New("no active tour selected")

	// ErrTourNotStarted means a collection was attempted on a tour that is
	// not IN_PROGRESS.
	ErrTourNotStarted = errors.New("tour has not been started")

	// ErrDuplicateRequest means an equivalent request is already running.
	ErrDuplicateRequest = errors.New("request already in flight")

	// ErrTransition means the requested tour lifecycle move is illegal.
	ErrTransition = errors.New("tour transition not allowed")

	// ErrPersistence means the durable write to the remote store failed.
	ErrPersistence = errors.New("remote store write failed")

	// ErrTeamNotFound means the requested team is unknown or inactive.
	ErrTeamNotFound = errors.New("team not found")

	// ErrTourNotFound means the requested tour is unknown or not owned by
	// the selected team.
	ErrTourNotFound = errors.New("tour not found")

	// ErrStopNotFound means the client is not a stop of the active tour.
	ErrStopNotFound = errors.New("stop not found on active tour")
)
