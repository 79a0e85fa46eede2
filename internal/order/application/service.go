package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/Storefront-Order-Service/internal/order/domain"
	"github.com/dmehra2102/Storefront-Order-Service/internal/order/validation"
)

const (
	createOrderRoute = "orders:create"
	orderCacheTag    = "orders"
)

// priceTolerance absorbs representation drift between the client-rendered
// fee and the canonical product fee. Anything beyond it is stale state or
// tampering.
var priceTolerance = decimal.NewFromFloat(0.01)

// RequestMeta identifies the submitting client for rate limiting and
// telemetry.
type RequestMeta struct {
	ClientKey string
}

type Service struct {
	log       *slog.Logger
	repo      OrderRepository
	cache     Cache
	limiter   RateLimiter
	telemetry Telemetry
	sanitizer *validation.Sanitizer
	now       func() time.Time
	dupWindow time.Duration
}

type ServiceOption func(*Service)

// WithClock overrides the service clock, used by tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithDuplicateWindow overrides the duplicate cooldown, used by tests.
func WithDuplicateWindow(d time.Duration) ServiceOption {
	return func(s *Service) { s.dupWindow = d }
}

func NewService(log *slog.Logger, repo OrderRepository, cache Cache, limiter RateLimiter, telemetry Telemetry, opts ...ServiceOption) *Service {
	s := &Service{
		log:       log,
		repo:      repo,
		cache:     cache,
		limiter:   limiter,
		telemetry: telemetry,
		sanitizer: validation.NewSanitizer(),
		now:       time.Now,
		dupWindow: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder runs the full creation pipeline. It always returns a
// structured result; it never panics into the caller and never leaves a
// transaction open.
func (s *Service) CreateOrder(ctx context.Context, meta RequestMeta, req domain.OrderRequest) OrderResult {
	if perr := s.checkRateLimit(ctx, meta); perr != nil {
		return failureResult(perr)
	}

	sanitized := s.sanitizer.Sanitize(req)
	if !sanitized.OK {
		fields := lo.SliceToMap(sanitized.Issues, func(i validation.Issue) (string, string) {
			return i.Field, i.Reason
		})
		s.log.Warn("order rejected by sanitizer", "fields", fields)
		return failureResult(domain.NewPipelineError(domain.CodeSanitizationFailed, "unsafe input").WithFields(fields))
	}

	validated, fieldErrs := validation.Validate(sanitized.Request)
	if fieldErrs != nil {
		s.log.Info("order rejected by schema validation", "fields", fieldErrs)
		return failureResult(domain.NewPipelineError(domain.CodeValidationFailed, "invalid input").WithFields(fieldErrs))
	}

	if violated := validation.CheckBusinessRules(validated); len(violated) > 0 {
		s.log.Warn("order rejected by business rules", "rules", violated, "email", validated.Email)
		return failureResult(domain.NewPipelineError(domain.CodeBusinessRulesFailed, "business rules violated"))
	}

	if hit := validation.CheckSafety(validated); len(hit) > 0 {
		// Raw markup past the sanitizer means an earlier stage was
		// bypassed: a security event, not a user mistake.
		s.telemetry.CaptureMessage(ctx, "safety check tripped after sanitization", map[string]any{
			"fields": hit,
		})
		s.log.Error("safety check failed", "fields", hit)
		return failureResult(domain.NewPipelineError(domain.CodeSafetyCheckFailed, "unsafe content detected"))
	}

	order, details, perr := s.writeOrder(ctx, validated)
	if perr != nil {
		return failureResult(perr)
	}

	// Post-commit: eviction failures never undo a committed order.
	s.invalidateCaches(ctx, validated.ProductID)

	return OrderResult{
		Success: true,
		Message: "Your order has been placed.",
		OrderID: order.ID.String(),
		Details: details,
	}
}

func (s *Service) checkRateLimit(ctx context.Context, meta RequestMeta) *domain.PipelineError {
	blocked, retryAfter, err := s.limiter.Check(ctx, createOrderRoute, meta.ClientKey)
	if err != nil {
		if failsOpen(StageRateLimit) {
			s.telemetry.CaptureException(ctx, fmt.Errorf("rate limiter check: %w", err), map[string]any{
				"stage": string(StageRateLimit),
			})
			return nil
		}
		return domain.NewPipelineError(domain.CodeDatabaseError, "rate limiter unavailable").WithCause(err)
	}
	if blocked {
		return domain.NewPipelineError(domain.CodeRateLimited, "rate limited").WithRetryAfter(retryAfter)
	}
	return nil
}

// writeOrder owns the transaction boundary: entity resolution, the
// duplicate guard and the insert all share one transaction, so a failure
// in any of them rolls back everything.
func (s *Service) writeOrder(ctx context.Context, v domain.ValidatedOrder) (domain.Order, *OrderDetails, *domain.PipelineError) {
	var (
		order   domain.Order
		details *OrderDetails
	)

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		product, platform, perr := s.resolveEntities(txCtx, v)
		if perr != nil {
			return perr
		}

		if v.Fee.Sub(product.Fee).Abs().GreaterThan(priceTolerance) {
			s.log.Warn("price mismatch", "product_id", v.ProductID, "expected", v.Fee, "canonical", product.Fee)
			return domain.NewPipelineError(domain.CodePriceMismatch, "fee does not match product price")
		}

		if perr := s.checkDuplicate(txCtx, v); perr != nil {
			return perr
		}

		inserted, err := s.repo.InsertOrder(txCtx, v, product.Name)
		if err != nil {
			if errors.Is(err, ErrDuplicateOrder) {
				// The storage-level constraint caught a concurrent
				// duplicate the read-time guard could not see.
				return domain.NewPipelineError(domain.CodeDuplicateOrder, "duplicate order in cooldown window").WithRetryAfter(s.dupWindow)
			}
			return domain.NewPipelineError(domain.CodeInsertFailed, "order insert failed").WithCause(err)
		}
		if inserted.ID == uuid.Nil {
			return domain.NewPipelineError(domain.CodeInsertFailed, "insert returned no identifier")
		}

		order = inserted
		details = &OrderDetails{
			ID:           inserted.ID.String(),
			Status:       string(inserted.Status),
			CreatedAt:    inserted.CreatedAt,
			ProductName:  product.Name,
			PlatformName: platform.Name,
			Amount:       inserted.Price.String(),
		}
		return nil
	})
	if err != nil {
		var perr *domain.PipelineError
		if errors.As(err, &perr) {
			return domain.Order{}, nil, perr
		}
		// Anything else is infrastructure: begin/commit failure, timeout,
		// connection loss. Full detail goes to telemetry, none of it to
		// the client.
		s.telemetry.CaptureException(ctx, err, map[string]any{
			"stage": string(StageWrite),
		})
		return domain.Order{}, nil, domain.NewPipelineError(domain.CodeDatabaseError, "storage failure").WithCause(err)
	}

	return order, details, nil
}

func (s *Service) resolveEntities(ctx context.Context, v domain.ValidatedOrder) (domain.Product, domain.PaymentPlatform, *domain.PipelineError) {
	product, err := s.repo.GetProduct(ctx, v.ProductID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return domain.Product{}, domain.PaymentPlatform{}, domain.NewPipelineError(domain.CodeProductNotFound, "product not found or inactive")
		}
		return domain.Product{}, domain.PaymentPlatform{}, domain.NewPipelineError(domain.CodeDatabaseError, "product lookup failed").WithCause(err)
	}

	platform, err := s.repo.GetPlatform(ctx, v.PlatformID)
	if err != nil {
		if errors.Is(err, ErrPlatformNotFound) {
			return domain.Product{}, domain.PaymentPlatform{}, domain.NewPipelineError(domain.CodePlatformNotFound, "payment platform not found or inactive")
		}
		return domain.Product{}, domain.PaymentPlatform{}, domain.NewPipelineError(domain.CodeDatabaseError, "platform lookup failed").WithCause(err)
	}

	return product, platform, nil
}

func (s *Service) checkDuplicate(ctx context.Context, v domain.ValidatedOrder) *domain.PipelineError {
	since := s.now().Add(-s.dupWindow)

	recent, err := s.repo.RecentOrder(ctx, v.Email, v.ProductID, since)
	if err != nil {
		if failsOpen(StageDuplicateCheck) {
			s.telemetry.CaptureException(ctx, fmt.Errorf("duplicate guard query: %w", err), map[string]any{
				"stage":      string(StageDuplicateCheck),
				"product_id": v.ProductID.String(),
			})
			s.log.Warn("duplicate guard unavailable, proceeding", "err", err)
			return nil
		}
		return domain.NewPipelineError(domain.CodeDatabaseError, "duplicate check failed").WithCause(err)
	}
	if recent != nil {
		retryAfter := recent.CreatedAt.Add(s.dupWindow).Sub(s.now())
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return domain.NewPipelineError(domain.CodeDuplicateOrder, "duplicate order in cooldown window").WithRetryAfter(retryAfter)
	}
	return nil
}

func (s *Service) invalidateCaches(ctx context.Context, productID uuid.UUID) {
	if _, err := s.cache.Invalidate(ctx, orderCacheTag, "list", "product:"+productID.String()); err != nil {
		s.telemetry.CaptureException(ctx, fmt.Errorf("cache invalidation: %w", err), map[string]any{
			"stage":      string(StageCacheInvalidate),
			"product_id": productID.String(),
		})
		s.log.Warn("cache invalidation failed", "err", err)
	}
}

// GetOrder reads a persisted order back by identifier.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("repo.GetOrder: %w", err)
	}
	return order, nil
}

// UpdatePaymentStatus applies an out-of-band settlement result. It shares
// the creation persistence contract and enforces legal lifecycle moves.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, reason *string) (domain.Order, error) {
	order, err := s.repo.UpdatePaymentStatus(ctx, id, status, reason)
	if err != nil {
		return domain.Order{}, fmt.Errorf("repo.UpdatePaymentStatus: %w", err)
	}
	s.invalidateCaches(ctx, order.ProductID)
	return order, nil
}
