package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ride-hail/internal/ports"
)

// POST /drivers/{driver_id}/offers/{offer_id}/accept
func (handler *DispatchHTTPHandler) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	driverID := strings.TrimSpace(r.PathValue("driver_id"))
	offerID := strings.TrimSpace(r.PathValue("offer_id"))
	if driverID == "" || offerID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing driver_id/offer_id in path", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.dispatch.AcceptOffer(ctxWithTimeout, ports.AcceptOfferInput{DriverID: driverID, OfferID: offerID})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

type declineOfferRequest struct {
	Reason string `json:"reason"`
}

// POST /drivers/{driver_id}/offers/{offer_id}/decline
func (handler *DispatchHTTPHandler) handleDeclineOffer(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	driverID := strings.TrimSpace(r.PathValue("driver_id"))
	offerID := strings.TrimSpace(r.PathValue("offer_id"))
	if driverID == "" || offerID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing driver_id/offer_id in path", nil)
		return
	}

	var req declineOfferRequest
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		defer r.Body.Close()
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := handler.dispatch.DeclineOffer(ctxWithTimeout, ports.DeclineOfferInput{
		DriverID: driverID, OfferID: offerID, Reason: req.Reason,
	}); err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]string{"status": "declined"})
}
