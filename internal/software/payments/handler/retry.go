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

type retryRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
}

// POST /payments/{payment_id}/retry
//
// spec §6.4: "PSP failures are NOT retried automatically; a separate
// /payments/:id/retry with a new idempotency key is required." The retry
// re-runs the full §4.6 pipeline against the failed payment's trip and
// method under the caller-supplied key, rather than replaying the old one.
func (handler *PaymentHTTPHandler) handleRetry(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	paymentID := strings.TrimSpace(r.PathValue("payment_id"))
	if paymentID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing payment_id in path", nil)
		return
	}

	var req retryRequest
	if r.Body != nil {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
			return
		}
	}
	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey == "" {
		idempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	}
	if idempotencyKey == "" {
		handler.serviceError(ctx, w, apperr.Validation("a new idempotency key is required to retry"))
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := handler.svc.Retry(ctxWithTimeout, ports.RetryPaymentInput{
		PaymentID:      paymentID,
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
