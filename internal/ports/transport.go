package ports

import (
	"context"
	"errors"

	"horizon-field/internal/domain/geo"
)

// ChannelState is the transport channel's connection state.
type ChannelState string

const (
	ChannelDisconnected ChannelState = "DISCONNECTED"
	ChannelConnecting   ChannelState = "CONNECTING"
	ChannelConnected    ChannelState = "CONNECTED"
)

// TransportChannel is a duplex, auto-reconnecting telemetry link. Emit is
// fire-and-forget: it must be safe for concurrent callers, never block,
// never queue, and silently drop payloads while not connected.
type TransportChannel interface {
	Connect(ctx context.Context)
	Emit(event string, payload any)
	Disconnect()
	State() ChannelState
}

// ErrPermissionDenied is returned by a LocationProvider when the device
// refuses location access. Tracking then degrades to off, non-fatally.
var ErrPermissionDenied = errors.New("location permission denied")

// LocationProvider wraps a device location source. Watch delivers raw fixes
// until ctx is cancelled; the returned channel is closed on teardown.
type LocationProvider interface {
	Watch(ctx context.Context) (<-chan geo.PositionSample, error)
}
