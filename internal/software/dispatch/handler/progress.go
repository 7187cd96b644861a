package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"ride-hail/internal/general/jwt"
	"ride-hail/internal/ports"
)

// POST /rides/{ride_id}/en-route
func (handler *DispatchHTTPHandler) handleMarkEnRoute(w http.ResponseWriter, r *http.Request) {
	handler.handleProgress(w, r, func(ctx context.Context, rideID, driverID string) error {
		return handler.dispatch.MarkEnRoute(ctx, ports.MarkEnRouteInput{RideID: rideID, DriverID: driverID})
	})
}

// POST /rides/{ride_id}/arrived
func (handler *DispatchHTTPHandler) handleMarkArrived(w http.ResponseWriter, r *http.Request) {
	handler.handleProgress(w, r, func(ctx context.Context, rideID, driverID string) error {
		return handler.dispatch.MarkArrived(ctx, ports.MarkArrivedInput{RideID: rideID, DriverID: driverID})
	})
}

func (handler *DispatchHTTPHandler) handleProgress(w http.ResponseWriter, r *http.Request, call func(ctx context.Context, rideID, driverID string) error) {
	ctx := handler.withReqID(r.Context(), r)

	rideID := strings.TrimSpace(r.PathValue("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing ride_id in path", nil)
		return
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := call(ctxWithTimeout, rideID, strings.TrimSpace(claims.Subject)); err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]string{"ride_id": rideID, "status": "updated"})
}
