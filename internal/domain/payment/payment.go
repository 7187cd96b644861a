// Package payment models Payment (C9): the idempotent payment state
// machine. The teacher has no payment concept at all; this is grounded on
// its domain-entity shape (plain struct + sentinel errors + small guarded
// transition methods, as in domain/ride and domain/driver) generalized to
// the mock-PSP outcomes in spec §4.6.
package payment

import (
	"errors"
	"strings"
	"time"
)

// Method is a payment method as stored in the `payments` table.
type Method string

const (
	MethodCash   Method = "cash"
	MethodCard   Method = "card"
	MethodWallet Method = "wallet"
)

func (m Method) String() string { return string(m) }

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodWallet:
		return true
	default:
		return false
	}
}

// Status is a payment status as stored in the `payments` table.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

func (s Status) String() string { return string(s) }

// Payment is the domain entity corresponding to the `payments` table.
type Payment struct {
	ID            string
	TripID        string
	Amount        float64
	Currency      string
	Method        Method
	Status        Status
	PSPRef        *string
	PSPErrorCode  *string
	IdempotencyKey string
	CreatedAt     time.Time
	CompletedAt   *time.Time
	RefundedAt    *time.Time
}

var (
	ErrTripIDRequired     = errors.New("trip id is required")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrNotCompleted       = errors.New("payment is not completed")
	ErrCashNotRefundable  = errors.New("cash payments cannot be refunded")
)

// New creates a Payment in pending state.
func New(tripID string, amount float64, method Method, idempotencyKey string) (*Payment, error) {
	if tripID = strings.TrimSpace(tripID); tripID == "" {
		return nil, ErrTripIDRequired
	}
	if idempotencyKey = strings.TrimSpace(idempotencyKey); idempotencyKey == "" {
		return nil, ErrIdempotencyKeyRequired
	}
	if !method.Valid() {
		return nil, ErrInvalidMethod
	}
	return &Payment{
		TripID:         tripID,
		Amount:         amount,
		Currency:       "INR",
		Method:         method,
		Status:         StatusPending,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// MarkProcessing transitions pending/failed -> processing (upsert path,
// §4.6 step 3c: "if existing -> status=processing").
func (p *Payment) MarkProcessing() {
	p.Status = StatusProcessing
}

// Complete records a successful PSP outcome.
func (p *Payment) Complete(pspRef string) {
	now := time.Now().UTC()
	p.Status = StatusCompleted
	p.PSPRef = &pspRef
	p.CompletedAt = &now
}

// Fail records a failed PSP outcome.
func (p *Payment) Fail(errorCode string) {
	p.Status = StatusFailed
	p.PSPErrorCode = &errorCode
}

// Refund transitions a completed, non-cash payment to refunded.
func (p *Payment) Refund() error {
	if p.Status != StatusCompleted {
		return ErrNotCompleted
	}
	if p.Method == MethodCash {
		return ErrCashNotRefundable
	}
	now := time.Now().UTC()
	p.Status = StatusRefunded
	p.RefundedAt = &now
	return nil
}
