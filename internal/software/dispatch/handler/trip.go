package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ride-hail/internal/general/jwt"
	"ride-hail/internal/ports"
)

type startTripRequest struct {
	DriverLocation ports.GeoPoint `json:"driver_location"`
}

// POST /rides/{ride_id}/start
func (handler *DispatchHTTPHandler) handleStartTrip(w http.ResponseWriter, r *http.Request) {
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
	driverID := strings.TrimSpace(claims.Subject)

	var req startTripRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()
	_ = json.NewDecoder(r.Body).Decode(&req)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.trip.StartTrip(ctxWithTimeout, ports.StartTripInput{
		DriverID: driverID, RideID: rideID, DriverLocation: req.DriverLocation,
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

type endTripRequest struct {
	FinalLocation         ports.GeoPoint `json:"final_location"`
	ActualDistanceKM      float64        `json:"actual_distance_km"`
	ActualDurationMinutes int            `json:"actual_duration_minutes"`
}

// POST /rides/{ride_id}/complete
func (handler *DispatchHTTPHandler) handleEndTrip(w http.ResponseWriter, r *http.Request) {
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
	driverID := strings.TrimSpace(claims.Subject)

	var req endTripRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.trip.EndTrip(ctxWithTimeout, ports.EndTripInput{
		DriverID:              driverID,
		RideID:                rideID,
		FinalLocation:         req.FinalLocation,
		ActualDistanceKM:      req.ActualDistanceKM,
		ActualDurationMinutes: req.ActualDurationMinutes,
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
