package wsclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"horizon-field/internal/general/contracts"
	"horizon-field/internal/general/logger"
	"horizon-field/internal/ports"

	"github.com/gorilla/websocket"
)

// Ensure Channel implements the ports.TransportChannel interface.
var _ ports.TransportChannel = (*Channel)(nil)

// Channel is the telemetry link to the remote coordinator. It carries only
// fire-and-forget events: nothing the system depends on for correctness
// travels over it, so every failure path degrades to dropping frames.
//
// Connection attempts run in a background watcher with a bounded, fixed-delay
// retry sequence; when the attempts exhaust the channel settles into
// DISCONNECTED and stays usable (Emit keeps dropping silently).
type Channel struct {
	url          string
	producer     string
	maxAttempts  int
	retryDelay   time.Duration
	writeTimeout time.Duration
	authToken    func() string // current session token for the auth frame; may return ""
	logger       *logger.Logger
	logCtx       context.Context

	mu     sync.Mutex
	state  ports.ChannelState
	conn   *websocket.Conn
	cancel context.CancelFunc
	gen    int // connection generation; invalidates stale watchers after Disconnect
}

// Options configures a Channel.
type Options struct {
	URL          string
	Producer     string
	MaxAttempts  int
	RetryDelay   time.Duration
	WriteTimeout time.Duration
	AuthToken    func() string
}

// New constructs a disconnected Channel.
func New(opts Options, log *logger.Logger) *Channel {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.AuthToken == nil {
		opts.AuthToken = func() string { return "" }
	}
	if opts.Producer == "" {
		opts.Producer = "field-agent"
	}
	return &Channel{
		url:          opts.URL,
		producer:     opts.Producer,
		maxAttempts:  opts.MaxAttempts,
		retryDelay:   opts.RetryDelay,
		writeTimeout: opts.WriteTimeout,
		authToken:    opts.AuthToken,
		logger:       log,
		logCtx:       context.Background(),
		state:        ports.ChannelDisconnected,
	}
}

// State returns the current connection state.
func (c *Channel) State() ports.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts the background connection watcher. It is idempotent: while
// already CONNECTING or CONNECTED the call is a no-op.
func (c *Channel) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.state != ports.ChannelDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = ports.ChannelConnecting

	// the watcher outlives the caller's request context
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	gen := c.gen
	c.mu.Unlock()

	go c.dial(watchCtx, gen)
}

// Emit sends one telemetry event, best-effort. Safe for concurrent callers;
// silently drops the payload unless CONNECTED. Never queues, never errors.
func (c *Channel) Emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error(c.logCtx, "telemetry_encode_failed", "Failed to encode telemetry payload", err, map[string]any{"event": event})
		return
	}

	evt := contracts.WSEvent{
		Event: event,
		Data:  data,
		Envelope: contracts.Envelope{
			Producer: c.producer,
			SentAt:   time.Now().UTC(),
		},
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ports.ChannelConnected || c.conn == nil {
		c.logger.Debug(c.logCtx, "telemetry_dropped", "Telemetry event dropped: channel not connected", map[string]any{"event": event})
		return
	}

	// the write lock doubles as the single-writer guard gorilla requires;
	// the deadline keeps a stalled peer from freezing callers holding mu
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteJSON(evt); err != nil {
		c.logger.Error(c.logCtx, "telemetry_send_failed", "Telemetry write failed; dropping event", err, map[string]any{"event": event})
		// closing the socket wakes the read loop, which owns reconnection
		_ = c.conn.Close()
	}
}

// Disconnect tears down the live connection and stops the watcher. Safe to
// call multiple times.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	if c.state != ports.ChannelDisconnected {
		c.logger.Info(c.logCtx, "telemetry_disconnected", "Telemetry channel closed", nil)
	}
	c.state = ports.ChannelDisconnected
}

// --- internals ---

// dial runs the bounded retry sequence: maxAttempts tries with a fixed delay.
func (c *Channel) dial(ctx context.Context, gen int) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err == nil {
			if c.install(conn, gen) {
				c.logger.Info(c.logCtx, "telemetry_connected", "Telemetry channel connected", map[string]any{"attempt": attempt})
				go c.readLoop(ctx, conn, gen)
			} else {
				// Disconnect raced the dial; drop the fresh connection
				_ = conn.Close()
			}
			return
		}

		c.logger.Debug(c.logCtx, "telemetry_connect_retry", "Telemetry connection attempt failed", map[string]any{
			"attempt":      attempt,
			"max_attempts": c.maxAttempts,
			"error":        err.Error(),
		})

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.retryDelay):
		}
	}

	// retries exhausted: settle into DISCONNECTED, keep the system running
	c.mu.Lock()
	if gen == c.gen && c.state == ports.ChannelConnecting {
		c.state = ports.ChannelDisconnected
		c.cancel = nil
	}
	c.mu.Unlock()
	c.logger.Info(c.logCtx, "telemetry_unreachable", "Telemetry retries exhausted; continuing without live link", nil)
}

// install atomically publishes a freshly dialed connection, sending the auth
// frame first. Returns false when Disconnect invalidated this generation.
func (c *Channel) install(conn *websocket.Conn, gen int) bool {
	if token := c.authToken(); token != "" {
		_ = conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		_ = conn.WriteJSON(contracts.AuthMessage{Type: "auth", Token: "Bearer " + token})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != ports.ChannelConnecting {
		return false
	}
	c.conn = conn
	c.state = ports.ChannelConnected
	return true
}

// readLoop drains server control frames and detects connection loss. A lost
// connection restarts the bounded retry sequence (mirrors the original
// client, which re-armed its reconnection attempts after every drop).
func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn, gen int) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return // Disconnect already handled teardown
	}
	c.conn = nil
	c.state = ports.ChannelConnecting
	c.mu.Unlock()

	c.logger.Info(c.logCtx, "telemetry_link_lost", "Telemetry connection lost; retrying", nil)

	select {
	case <-ctx.Done():
		return
	case <-time.After(c.retryDelay):
	}
	c.dial(ctx, gen)
}
