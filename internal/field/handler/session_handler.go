package handler

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// --- Request DTOs (HTTP boundary) ---

type loginRequest struct {
	TeamName string `json:"team_name"`
	Password string `json:"password"`
}

type selectTeamRequest struct {
	TeamID string `json:"team_id"`
}

// ----- Handler: POST /session/login -----

func (handler *FieldHTTPHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req loginRequest
	if err := handler.decodeBody(w, r, &req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if strings.TrimSpace(req.TeamName) == "" || req.Password == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "team_name and password are required", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	status, err := handler.svc.Login(ctxWithTimeout, req.TeamName, req.Password)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, status)
}

// ----- Handler: POST /session/logout -----

func (handler *FieldHTTPHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	status, err := handler.svc.Logout(ctx)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, status)
}

// ----- Handler: POST /session/team -----

func (handler *FieldHTTPHandler) handleSelectTeam(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req selectTeamRequest
	if err := handler.decodeBody(w, r, &req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if strings.TrimSpace(req.TeamID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "team_id is required", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	status, err := handler.svc.SelectTeam(ctxWithTimeout, req.TeamID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, status)
}

// ----- Handler: POST /session/team/change -----

func (handler *FieldHTTPHandler) handleChangeTeam(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	status, err := handler.svc.ChangeTeam(ctx)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, status)
}

// ----- Handler: GET /teams -----

func (handler *FieldHTTPHandler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	teams, err := handler.svc.ListTodayTeams(ctxWithTimeout)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, teams)
}
