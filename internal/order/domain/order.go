package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	StatusUnpaid   PaymentStatus = "unpaid"
	StatusPaid     PaymentStatus = "paid"
	StatusFailed   PaymentStatus = "failed"
	StatusRefunded PaymentStatus = "refunded"
)

// CanTransitionTo reports whether the status change is a legal lifecycle move.
// Orders are never deleted, only status-transitioned.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case StatusUnpaid:
		return next == StatusPaid || next == StatusFailed
	case StatusPaid:
		return next == StatusRefunded
	case StatusFailed:
		return next == StatusUnpaid
	default:
		return false
	}
}

func ToPaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case StatusUnpaid, StatusPaid, StatusFailed, StatusRefunded:
		return PaymentStatus(s), true
	}
	return "", false
}

// OrderRequest is the raw, caller-supplied submission. ProductID and
// ExpectedFee come from the caller context rather than the form so the
// product binding cannot be tampered with.
type OrderRequest struct {
	LastName     string
	FirstName    string
	Email        string
	Phone        string
	PlatformID   string
	PayeeName    string
	PayeeAccount string
	ProductID    string
	ExpectedFee  decimal.Decimal
}

// ValidatedOrder is the normalized, format-checked form of an OrderRequest.
// Immutable once produced by the schema validator.
type ValidatedOrder struct {
	LastName     string
	FirstName    string
	Email        string
	Phone        string
	PlatformID   uuid.UUID
	PayeeName    string
	PayeeAccount string
	ProductID    uuid.UUID
	Fee          decimal.Decimal
}

// Product is read-only to the pipeline; Fee is the canonical price a new
// order must match within tolerance.
type Product struct {
	ID     uuid.UUID
	Name   string
	Fee    decimal.Decimal
	Active bool
}

type PaymentPlatform struct {
	ID     uuid.UUID
	Name   string
	Active bool
}

type Order struct {
	ID           uuid.UUID
	LastName     string
	FirstName    string
	Email        string
	Phone        string
	PlatformID   uuid.UUID
	PayeeName    string
	PayeeAccount string
	ProductID    uuid.UUID
	Price        decimal.Decimal
	Status       PaymentStatus
	CancelReason *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PaidAt       *time.Time
	CancelledAt  *time.Time
}
