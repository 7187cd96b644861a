// Package handler adapts HTTP/WebSocket requests to ports.DispatchService
// (the ride lifecycle: creation, matching, offer response, progress, and
// cancellation). Grounded on internal/software/dandl/handler's per-operation
// file layout and helper methods, generalized to map the apperr taxonomy to
// HTTP status codes instead of collapsing every service error to 500/400.
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

// DispatchHTTPHandler adapts HTTP requests to the DispatchService and TripService.
type DispatchHTTPHandler struct {
	dispatch ports.DispatchService
	trip     ports.TripService
	logger   *logger.Logger
	auth     *jwt.Manager
	hub      *websocket.Hub
}

// NewDispatchHTTPHandler wires an HTTP handler around the dispatch engine,
// ride lifecycle, and trip/fare services that share cmd/dispatch_service.
func NewDispatchHTTPHandler(
	dispatch ports.DispatchService,
	trip ports.TripService,
	logger *logger.Logger,
	auth *jwt.Manager,
	hub *websocket.Hub,
) *DispatchHTTPHandler {
	return &DispatchHTTPHandler{dispatch: dispatch, trip: trip, logger: logger, auth: auth, hub: hub}
}

// RegisterRoutes mounts ride-lifecycle, trip, and token endpoints on the mux.
func (handler *DispatchHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rides",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger)(handler.handleCreateRide))
	mux.HandleFunc("POST /rides/{ride_id}/cancel",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger, user.RoleDriver)(handler.handleCancelRide))
	mux.HandleFunc("POST /drivers/{driver_id}/offers/{offer_id}/accept",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleAcceptOffer))
	mux.HandleFunc("POST /drivers/{driver_id}/offers/{offer_id}/decline",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleDeclineOffer))
	mux.HandleFunc("POST /rides/{ride_id}/en-route",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleMarkEnRoute))
	mux.HandleFunc("POST /rides/{ride_id}/arrived",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleMarkArrived))
	mux.HandleFunc("POST /rides/{ride_id}/start",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleStartTrip))
	mux.HandleFunc("POST /rides/{ride_id}/complete",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleEndTrip))

	// Riders connect here; drivers connect to fleet_service's own hub
	// (spec §2: rider-facing socket on dispatch_service, driver-facing
	// socket on fleet_service). A ride-events/notifications relay keeps
	// both hubs in sync across the process boundary (see cmd/*_service).
	mux.HandleFunc("GET /ws/passenger/{rider_id}", handler.hub.ServePassenger)

	mux.HandleFunc("GET /dispatch/health", handler.handleHealth)
	mux.HandleFunc("POST /tokens", handler.handleCreateToken)
}

func (handler *DispatchHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(handler.withReqID(r.Context(), r), w, http.StatusOK, map[string]string{"status": "ok"})
}

// ----- general helpers (shared template with every service's HTTP handler) -----

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

func (handler *DispatchHTTPHandler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
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

func (handler *DispatchHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
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

func (handler *DispatchHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
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

// serviceError maps an apperr.Code to the HTTP status the caller should
// return and writes the error response.
func (handler *DispatchHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
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
		case apperr.CodeConflict, apperr.CodeInvalidTransition, apperr.CodeIdempotencyConflict:
			status = http.StatusConflict
		case apperr.CodeLockFailed:
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

func (handler *DispatchHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
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
