package handler

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// ----- Handler: GET /tours -----

func (handler *FieldHTTPHandler) handleListTours(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	tours, err := handler.svc.ListTours(ctxWithTimeout)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, tours)
}

// ----- Handler: POST /tours/{tour_id}/select -----

func (handler *FieldHTTPHandler) handleSelectTour(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tourID := strings.TrimSpace(r.PathValue("tour_id"))
	if tourID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing tour_id in path", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	detail, err := handler.svc.SelectTour(ctxWithTimeout, tourID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, detail)
}

// ----- Handler: POST /tours/deselect -----

func (handler *FieldHTTPHandler) handleDeselectTour(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	status, err := handler.svc.DeselectTour(ctx)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, status)
}

// ----- Handler: POST /tours/active/start -----

func (handler *FieldHTTPHandler) handleStartTour(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	res, err := handler.svc.StartTour(ctxWithTimeout)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

// ----- Handler: POST /tours/active/finish -----

func (handler *FieldHTTPHandler) handleFinishTour(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	res, err := handler.svc.FinishTour(ctxWithTimeout)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
