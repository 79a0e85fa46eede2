package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/Storefront-Order-Service/internal/order/application"
	"github.com/dmehra2102/Storefront-Order-Service/internal/order/domain"
)

const eventOrderCreated = "OrderCreated"

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetProduct returns the product only if it is active; an inactive product
// is indistinguishable from a missing one to the pipeline.
func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	const query = `SELECT id, name, fee::text, active FROM products WHERE id = $1 AND active`

	var (
		p   domain.Product
		fee string
	)
	err := r.queryRow(ctx, query, id).Scan(&p.ID, &p.Name, &fee, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, application.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	if p.Fee, err = decimal.NewFromString(fee); err != nil {
		return domain.Product{}, fmt.Errorf("parse product fee[%s]: %w", fee, err)
	}
	return p, nil
}

func (r *Repository) GetPlatform(ctx context.Context, id uuid.UUID) (domain.PaymentPlatform, error) {
	const query = `SELECT id, name, active FROM payment_platforms WHERE id = $1 AND active`

	var p domain.PaymentPlatform
	err := r.queryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PaymentPlatform{}, application.ErrPlatformNotFound
		}
		return domain.PaymentPlatform{}, fmt.Errorf("get platform: %w", err)
	}
	return p, nil
}

func (r *Repository) RecentOrder(ctx context.Context, email string, productID uuid.UUID, since time.Time) (*domain.Order, error) {
	const query = `
SELECT id, created_at
FROM orders
WHERE email = $1 AND product_id = $2 AND created_at >= $3 AND payment_status <> 'failed'
ORDER BY created_at DESC
LIMIT 1`

	var o domain.Order
	err := r.queryRow(ctx, query, email, productID, since).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("recent order: %w", err)
	}
	return &o, nil
}

func (r *Repository) InsertOrder(ctx context.Context, v domain.ValidatedOrder, productName string) (domain.Order, error) {
	const stmt = `
INSERT INTO orders (last_name, first_name, email, phone, platform_id, payee_name, payee_account, product_id, price, payment_status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10)
RETURNING id, created_at, updated_at`

	o := domain.Order{
		LastName:     v.LastName,
		FirstName:    v.FirstName,
		Email:        v.Email,
		Phone:        v.Phone,
		PlatformID:   v.PlatformID,
		PayeeName:    v.PayeeName,
		PayeeAccount: v.PayeeAccount,
		ProductID:    v.ProductID,
		Price:        v.Fee,
		Status:       domain.StatusUnpaid,
	}

	err := r.queryRow(ctx, stmt,
		v.LastName, v.FirstName, v.Email, v.Phone, v.PlatformID,
		v.PayeeName, v.PayeeAccount, v.ProductID, v.Fee.String(), domain.StatusUnpaid,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, application.ErrDuplicateOrder
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	event := domain.OrderCreated{
		OrderID:     o.ID.String(),
		Email:       o.Email,
		ProductID:   o.ProductID.String(),
		ProductName: productName,
		PlatformID:  o.PlatformID.String(),
		Amount:      o.Price.String(),
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return domain.Order{}, fmt.Errorf("marshal order created event: %w", err)
	}
	if err := r.insertOutbox(ctx, o.ID.String(), eventOrderCreated, payload); err != nil {
		return domain.Order{}, err
	}

	return o, nil
}

func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	const query = `
SELECT id, last_name, first_name, email, phone, platform_id, payee_name, payee_account,
       product_id, price::text, payment_status, cancel_reason, created_at, updated_at, paid_at, cancelled_at
FROM orders
WHERE id = $1`

	var (
		o      domain.Order
		price  string
		status string
	)
	err := r.queryRow(ctx, query, id).Scan(
		&o.ID, &o.LastName, &o.FirstName, &o.Email, &o.Phone, &o.PlatformID,
		&o.PayeeName, &o.PayeeAccount, &o.ProductID, &price, &status,
		&o.CancelReason, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt, &o.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, application.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}

	if o.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Order{}, fmt.Errorf("parse order price[%s]: %w", price, err)
	}
	s, ok := domain.ToPaymentStatus(status)
	if !ok {
		return domain.Order{}, fmt.Errorf("unknown payment status %q", status)
	}
	o.Status = s
	return o, nil
}

// UpdatePaymentStatus transitions the order lifecycle, stamping paid_at or
// cancelled_at as appropriate. Illegal transitions fail without modifying
// the row.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, reason *string) (domain.Order, error) {
	var out domain.Order

	err := r.WithTx(ctx, func(txCtx context.Context) error {
		current, err := r.GetOrder(txCtx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", application.ErrIllegalTransition, current.Status, status)
		}

		const stmt = `
UPDATE orders
SET payment_status = $2,
    cancel_reason = $3,
    paid_at = CASE WHEN $2 = 'paid' THEN now() ELSE paid_at END,
    cancelled_at = CASE WHEN $2 IN ('failed', 'refunded') THEN now() ELSE cancelled_at END,
    updated_at = now()
WHERE id = $1`

		tag, err := r.exec(txCtx, stmt, id, status, reason)
		if err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return application.ErrOrderNotFound
		}

		out, err = r.GetOrder(txCtx, id)
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}
	return out, nil
}

func (r *Repository) insertOutbox(ctx context.Context, aggregateID, eventType string, payload []byte) error {
	const stmt = `
INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, status)
VALUES ('order', $1, $2, $3, 'pending')`

	if _, err := r.exec(ctx, stmt, aggregateID, eventType, payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *Repository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *Repository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
