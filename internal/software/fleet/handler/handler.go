// Package handler adapts HTTP/WebSocket requests to ports.FleetService (C5:
// driver presence + location ingest). Mirrors
// internal/software/dispatch/handler's template.
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/domain/user"
	"ride-hail/internal/general/jwt"
	"ride-hail/internal/general/logger"
	"ride-hail/internal/general/websocket"
	"ride-hail/internal/ports"
)

// FleetHTTPHandler adapts HTTP requests to the FleetService.
type FleetHTTPHandler struct {
	svc    ports.FleetService
	logger *logger.Logger
	auth   *jwt.Manager
	hub    *websocket.Hub
}

// NewFleetHTTPHandler wires an HTTP handler around the FleetService.
func NewFleetHTTPHandler(svc ports.FleetService, logger *logger.Logger, auth *jwt.Manager, hub *websocket.Hub) *FleetHTTPHandler {
	return &FleetHTTPHandler{svc: svc, logger: logger, auth: auth, hub: hub}
}

// RegisterRoutes mounts driver presence/location endpoints on the mux.
func (handler *FleetHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /drivers/{driver_id}/online",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleGoOnline))
	mux.HandleFunc("POST /drivers/{driver_id}/offline",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleGoOffline))
	mux.HandleFunc("POST /drivers/{driver_id}/location",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleUpdateLocation))

	mux.HandleFunc("GET /ws/driver/{driver_id}", handler.hub.ServeDriver)

	mux.HandleFunc("GET /fleet/health", handler.handleHealth)
	mux.HandleFunc("POST /tokens", handler.handleCreateToken)
}

func (handler *FleetHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(handler.withReqID(r.Context(), r), w, http.StatusOK, map[string]string{"status": "ok"})
}

type TokenRequest struct {
	UserID   string    `json:"user_id"`
	TenantID string    `json:"tenant_id"`
	Role     user.Role `json:"role"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Role      user.Role `json:"role"`
}

func (handler *FleetHTTPHandler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	if r.Method != http.MethodPost {
		handler.httpError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "user_id is required", nil)
		return
	}
	tokenString, claims, err := handler.auth.IssueUserToken(req.UserID, req.TenantID, req.Role)
	if err != nil {
		handler.httpError(ctx, w, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}
	handler.logger.Info(ctx, "token_generated", "JWT token generated successfully",
		map[string]any{"user_id": req.UserID, "role": req.Role.String()})
	handler.jsonResponse(ctx, w, http.StatusCreated, TokenResponse{
		Token: tokenString, ExpiresAt: claims.ExpiresAt.Time, UserID: req.UserID, Role: req.Role,
	})
}

func (handler *FleetHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
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

func (handler *FleetHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	switch {
	case status >= 500:
		action = "http_internal_error"
	case status == http.StatusBadRequest:
		action = "validation_failed"
	case status == http.StatusConflict:
		action = "conflict"
	case status == http.StatusNotFound:
		action = "not_found"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

func (handler *FleetHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var appErr *apperr.Error
	msg := err.Error()
	if errors.As(err, &appErr) {
		msg = appErr.Message
		switch appErr.Code {
		case apperr.CodeBadRequest, apperr.CodeValidation:
			status = http.StatusBadRequest
		case apperr.CodeUnauthorized:
			status = http.StatusUnauthorized
		case apperr.CodeForbidden:
			status = http.StatusForbidden
		case apperr.CodeNotFound:
			status = http.StatusNotFound
		case apperr.CodeConflict, apperr.CodeInvalidTransition, apperr.CodeIdempotencyConflict, apperr.CodeLockFailed:
			status = http.StatusConflict
		case apperr.CodeRateLimited:
			status = http.StatusTooManyRequests
		case apperr.CodeServiceUnavailable:
			status = http.StatusServiceUnavailable
		default:
			status = http.StatusInternalServerError
		}
	}
	handler.httpError(ctx, w, status, msg, err)
}

func (handler *FleetHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
