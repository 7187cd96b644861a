package handler

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// POST /payments/{payment_id}/refund
func (handler *PaymentHTTPHandler) handleRefund(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	paymentID := strings.TrimSpace(r.PathValue("payment_id"))
	if paymentID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing payment_id in path", nil)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := handler.svc.Refund(ctxWithTimeout, paymentID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
