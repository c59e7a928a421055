package handler

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// ----- Handler: GET /stops -----

func (handler *FieldHTTPHandler) handleListStops(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	stops, err := handler.svc.ListStops(ctx)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, stops)
}

// ----- Handler: POST /stops/{client_id}/confirm -----

func (handler *FieldHTTPHandler) handleConfirmStop(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	clientID := strings.TrimSpace(r.PathValue("client_id"))
	if clientID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing client_id in path", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	res, err := handler.svc.ConfirmStop(ctxWithTimeout, clientID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
