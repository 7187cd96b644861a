package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ride-hail/internal/domain/apperr"
	"ride-hail/internal/ports"
)

type chargeRequest struct {
	TripID         string `json:"trip_id"`
	PaymentMethod  string `json:"payment_method"` // cash | card | wallet
	IdempotencyKey string `json:"idempotency_key"`
}

// POST /payments
//
// The idempotency key may arrive in the Idempotency-Key header or the
// body's idempotency_key field (spec §6.5 names both); the header takes
// precedence when both are set. A client retrying a timed-out charge
// resends the same key and gets the original outcome back verbatim.
func (handler *PaymentHTTPHandler) handleCharge(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	var req chargeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey == "" {
		idempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	}
	if idempotencyKey == "" {
		handler.serviceError(ctx, w, apperr.Validation("idempotency key is required (Idempotency-Key header or idempotency_key field)"))
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := handler.svc.Charge(ctxWithTimeout, ports.ChargeInput{
		TripID:         strings.TrimSpace(req.TripID),
		Method:         strings.TrimSpace(req.PaymentMethod),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	status := http.StatusOK
	if res.Status == "processing" {
		status = http.StatusAccepted
	}
	handler.jsonResponse(ctxWithTimeout, w, status, res)
}
