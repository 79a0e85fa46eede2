package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/Storefront-Order-Service/internal/order/domain"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrPlatformNotFound = errors.New("payment platform not found")
	ErrOrderNotFound    = errors.New("order not found")

	// ErrIllegalTransition marks a payment-status move the lifecycle forbids.
	// Callers use it to tell a bad request apart from a storage failure.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrDuplicateOrder is returned by InsertOrder when the storage-level
	// uniqueness constraint catches a concurrent duplicate that slipped
	// past the read-time guard.
	ErrDuplicateOrder = errors.New("duplicate order in cooldown window")
)

// OrderRepository is the storage contract for the pipeline. Methods called
// inside the WithTx closure share one transaction; the duplicate-window read
// and the insert are therefore atomic with each other.
type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetProduct(ctx context.Context, id uuid.UUID) (domain.Product, error)
	GetPlatform(ctx context.Context, id uuid.UUID) (domain.PaymentPlatform, error)

	// RecentOrder returns the newest non-failed order for the (email,
	// product) pair created at or after since, or nil when there is none.
	RecentOrder(ctx context.Context, email string, productID uuid.UUID, since time.Time) (*domain.Order, error)

	// InsertOrder persists the order with status unpaid and queues the
	// OrderCreated outbox event in the same transaction, returning the
	// server-generated identifier and timestamps.
	InsertOrder(ctx context.Context, v domain.ValidatedOrder, productName string) (domain.Order, error)

	GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, reason *string) (domain.Order, error)
}

// Cache evicts read-side projections. Failures are the caller's to swallow.
type Cache interface {
	Invalidate(ctx context.Context, tag string, keys ...string) (int64, error)
}

// RateLimiter gates a request before any pipeline work runs. blocked=true
// means the caller must wait retryAfter before resubmitting.
type RateLimiter interface {
	Check(ctx context.Context, routeKey, clientKey string) (blocked bool, retryAfter time.Duration, err error)
}

// Telemetry is fire-and-forget; implementations must never panic or block
// the pipeline.
type Telemetry interface {
	CaptureException(ctx context.Context, err error, fields map[string]any)
	CaptureMessage(ctx context.Context, msg string, fields map[string]any)
}
