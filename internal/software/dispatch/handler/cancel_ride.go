package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type cancelRideRequest struct {
	Reason string `json:"reason"`
}

// POST /rides/{ride_id}/cancel
func (handler *DispatchHTTPHandler) handleCancelRide(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	rideID := strings.TrimSpace(r.PathValue("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing ride_id in path", nil)
		return
	}

	var req cancelRideRequest
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		defer r.Body.Close()
		_ = json.NewDecoder(r.Body).Decode(&req) // reason is optional
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.dispatch.CancelRide(ctxWithTimeout, rideID, req.Reason)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
