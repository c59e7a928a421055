package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"horizon-field/internal/general/contracts"
	"horizon-field/internal/general/jwt"
	"horizon-field/internal/general/logger"
	"horizon-field/internal/ports"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WebSocket accepts agent telemetry connections with first-frame JWT auth.
type WebSocket struct {
	logger     *logger.Logger
	jwtMgr     *jwt.Manager
	svc        ports.RelayService
	writeLocks sync.Map
	agents     sync.Map // key: teamID(string) -> *websocket.Conn
}

// NewWebSocket creates the agent WebSocket endpoint.
func NewWebSocket(log *logger.Logger, jwtMgr *jwt.Manager, svc ports.RelayService) *WebSocket {
	return &WebSocket{logger: log, jwtMgr: jwtMgr, svc: svc}
}

// ConnectAgent handles WebSocket connections from field agents.
// The first frame must be an auth message carrying the crew session token;
// everything after it is fire-and-forget telemetry.
func (ws *WebSocket) ConnectAgent(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	// Teardown order (LIFO on return):
	defer conn.Close()               // close the socket last
	defer ws.writeLocks.Delete(conn) // forget per-connection mutex (idempotent)

	conn.SetReadLimit(1 << 20) // 1 MiB
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		ws.logger.Error(r.Context(), "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		ws.sendAuthError(conn, "internal server error")
		return
	}

	msgType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			ws.logger.Error(r.Context(), "ws_auth_timeout", "Agent disconnected before authentication", err, nil)
		} else {
			ws.logger.Error(r.Context(), "ws_auth_read_failed", "Failed to read auth message", err, nil)
		}
		ws.sendAuthError(conn, "authentication timeout: please send auth message within 5 seconds")
		return
	}

	if msgType != websocket.TextMessage {
		ws.logger.Error(r.Context(), "ws_auth_invalid_format", "Auth message must be text format", nil, nil)
		ws.sendAuthError(conn, "auth message must be in text format")
		return
	}

	claims, err := ws.validateAuthFrame(firstFrame)
	if err != nil {
		ws.logger.Error(r.Context(), "ws_auth_failed", "Invalid auth message or token", err, nil)
		ws.sendAuthError(conn, "authentication failed: invalid token")
		return
	}

	// the path param must match the team baked into the token, when present
	teamID := claims.TeamID
	if pathTeam := r.PathValue("team_id"); pathTeam != "" {
		if teamID != "" && pathTeam != teamID {
			ws.logger.Error(r.Context(), "ws_auth_failed", "Team ID mismatch", nil, map[string]any{
				"path_team_id": pathTeam,
				"token_team":   teamID,
			})
			ws.sendAuthError(conn, "team ID mismatch")
			return
		}
		teamID = pathTeam
	}

	if err := ws.sendAuthSuccess(conn, teamID); err != nil {
		ws.logger.Error(r.Context(), "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		return
	}

	ws.logger.Info(r.Context(), "ws_connected", "Agent WebSocket connected",
		map[string]any{"team_id": teamID})

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	// ping loop (every 30s) using the per-connection writer lock
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			mu := ws.lockOf(conn)
			mu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
			mu.Unlock()
			if err != nil {
				// close the socket to unblock the reader; goroutine exits
				_ = conn.Close()
				ws.logger.Error(r.Context(), "ws_ping_failed", "Failed to send ping", err, nil)
				return
			}
		}
	}()

	ws.agents.Store(teamID, conn)
	defer ws.agents.Delete(teamID)

	// read loop: route telemetry frames
	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				ws.logger.Error(r.Context(), "ws_unexpected_close", "Agent connection closed unexpectedly", err, map[string]any{
					"team_id": teamID,
				})
				ws.wsWriteClose(conn, websocket.CloseInternalServerErr, "internal error")
			} else {
				ws.logger.Info(r.Context(), "ws_connection_closed", "Agent connection closed normally", map[string]any{
					"team_id": teamID,
				})
				ws.wsWriteClose(conn, websocket.CloseNormalClosure, "bye")
			}
			break
		}

		var evt contracts.WSEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			_ = ws.wsWriteMessage(conn, websocket.TextMessage, []byte(`{"type":"error","message":"bad json"}`))
			continue
		}

		switch evt.Event {
		case contracts.EventSendPosition:
			var p contracts.PositionPayload
			if err := json.Unmarshal(evt.Data, &p); err != nil {
				_ = ws.wsWriteMessage(conn, websocket.TextMessage, []byte(`{"type":"error","message":"bad sendPosition payload"}`))
				continue
			}
			ws.svc.HandlePosition(r.Context(), teamID, p.TourID, p.Lat, p.Lng)

		case contracts.EventUpdateCollectionStatus:
			var p contracts.CollectionPayload
			if err := json.Unmarshal(evt.Data, &p); err != nil {
				_ = ws.wsWriteMessage(conn, websocket.TextMessage, []byte(`{"type":"error","message":"bad updateCollectionStatus payload"}`))
				continue
			}
			ws.svc.HandleCollection(r.Context(), teamID, p.TourID, p.ClientID, p.Status)

		default:
			_ = ws.wsWriteMessage(conn, websocket.TextMessage, []byte(`{"type":"error","message":"unknown event"}`))
		}
	}
}

// validateAuthFrame decodes the auth frame and verifies the bearer token.
func (ws *WebSocket) validateAuthFrame(frame []byte) (*jwt.Claims, error) {
	var msg contracts.AuthMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, err
	}
	if msg.Type != "auth" {
		return nil, jwt.ErrEmptyToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(msg.Token, "Bearer "))
	return ws.jwtMgr.ParseAndValidate(token)
}

// sendAuthError sends an authentication error frame to the agent.
func (ws *WebSocket) sendAuthError(conn *websocket.Conn, message string) error {
	return ws.writeJSON(conn, contracts.ServerMessage{Type: "error", Message: message})
}

// sendAuthSuccess sends an authentication success frame to the agent.
func (ws *WebSocket) sendAuthSuccess(conn *websocket.Conn, teamID string) error {
	return ws.writeJSON(conn, map[string]any{
		"type":      "info",
		"message":   "Authentication successful",
		"team_id":   teamID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
