package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"horizon-field/internal/domain/session"
	"horizon-field/internal/field/service"
	"horizon-field/internal/general/logger"
	"horizon-field/internal/ports"
)

// FieldHTTPHandler adapts local HTTP requests to the FieldService. It is
// the boundary the presentation shell talks to; it binds to localhost and
// carries no auth of its own, the gate inside the service decides.
type FieldHTTPHandler struct {
	svc    ports.FieldService
	logger *logger.Logger
}

// NewFieldHTTPHandler wires an HTTP handler around the FieldService.
func NewFieldHTTPHandler(svc ports.FieldService, log *logger.Logger) *FieldHTTPHandler {
	return &FieldHTTPHandler{svc: svc, logger: log}
}

// RegisterRoutes mounts the coordinator endpoints on the provided mux.
func (handler *FieldHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /session/login", handler.handleLogin)
	mux.HandleFunc("POST /session/logout", handler.handleLogout)
	mux.HandleFunc("POST /session/team", handler.handleSelectTeam)
	mux.HandleFunc("POST /session/team/change", handler.handleChangeTeam)

	mux.HandleFunc("GET /teams", handler.handleListTeams)
	mux.HandleFunc("GET /tours", handler.handleListTours)
	mux.HandleFunc("POST /tours/{tour_id}/select", handler.handleSelectTour)
	mux.HandleFunc("POST /tours/deselect", handler.handleDeselectTour)
	mux.HandleFunc("POST /tours/active/start", handler.handleStartTour)
	mux.HandleFunc("POST /tours/active/finish", handler.handleFinishTour)

	mux.HandleFunc("GET /stops", handler.handleListStops)
	mux.HandleFunc("POST /stops/{client_id}/confirm", handler.handleConfirmStop)

	mux.HandleFunc("GET /status", handler.handleStatus)
	mux.HandleFunc("GET /healthz", handler.handleHealth)
}

// handleStatus reports the gate and execution bundle state.
func (handler *FieldHTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	handler.jsonResponse(ctx, w, http.StatusOK, handler.svc.Status(ctx))
}

// handleHealth is the liveness probe.
func (handler *FieldHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	handler.jsonResponse(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// ----- general helpers -----

// serviceError maps coordinator errors onto HTTP statuses.
func (handler *FieldHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAuth):
		handler.httpError(ctx, w, http.StatusUnauthorized, "authentication failed", err)
	case errors.Is(err, service.ErrTeamNotFound),
		errors.Is(err, service.ErrTourNotFound),
		errors.Is(err, service.ErrStopNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, session.ErrInvalidState),
		errors.Is(err, service.ErrNoActiveTour),
		errors.Is(err, service.ErrTourNotStarted),
		errors.Is(err, service.ErrTransition),
		errors.Is(err, service.ErrDuplicateRequest):
		handler.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, service.ErrPersistence):
		handler.httpError(ctx, w, http.StatusBadGateway, "remote store unavailable", err)
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, "internal error", err)
	}
}

// decodeBody decodes a JSON request body strictly.
func (handler *FieldHTTPHandler) decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return errors.New("Content-Type must be application/json")
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// jsonResponse takes any type of data and encode it to HTTP response.
func (handler *FieldHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *FieldHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *FieldHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
