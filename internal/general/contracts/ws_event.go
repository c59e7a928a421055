package contracts

import "encoding/json"

// Telemetry event names on the agent<->relay WebSocket link. These match
// the names the remote dashboard already listens for.
const (
	EventSendPosition           = "sendPosition"
	EventUpdateCollectionStatus = "updateCollectionStatus"
)

// WSEvent is the frame sent over the telemetry WebSocket. Delivery is
// fire-and-forget; there is no acknowledgment contract.
type WSEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Envelope
}

// PositionPayload is the data of a sendPosition event.
type PositionPayload struct {
	TourID string  `json:"tourId"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// CollectionPayload is the data of an updateCollectionStatus event.
type CollectionPayload struct {
	TourID   string `json:"tourId"`
	ClientID string `json:"clientId"`
	Status   string `json:"status"`
}

// AuthMessage is the first frame an agent sends after connecting to the relay.
type AuthMessage struct {
	Type  string `json:"type"`  // "auth"
	Token string `json:"token"` // "Bearer <jwt>"
}

// ServerMessage is a relay->agent control frame (auth result, errors).
type ServerMessage struct {
	Type    string `json:"type"` // "info" | "error"
	Message string `json:"message"`
}
