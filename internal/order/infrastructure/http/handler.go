package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Storefront-Order-Service/internal/order/application"
	"github.com/dmehra2102/Storefront-Order-Service/internal/order/domain"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/products/{productID}/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)

	return r
}

type createOrderBody struct {
	LastName      string      `json:"lastName"`
	FirstName     string      `json:"firstName"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	PaymentMethod string      `json:"paymentMethod"`
	AccountName   string      `json:"accountName"`
	AccountNumber string      `json:"accountNumber"`
	ExpectedFee   json.Number `json:"expectedFee"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	req.ProductID = chi.URLParam(r, "productID")

	meta := application.RequestMeta{
		ClientKey: clientKey(r),
	}

	result := h.service.CreateOrder(ctx, meta, req)
	writeResult(w, result)
}

// decodeRequest accepts either a form-encoded submission or its JSON
// equivalent; both normalize to the same OrderRequest.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (domain.OrderRequest, bool) {
	var req domain.OrderRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body createOrderBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			badRequest(w, "invalid request body")
			return req, false
		}
		req = domain.OrderRequest{
			LastName:     body.LastName,
			FirstName:    body.FirstName,
			Email:        body.Email,
			Phone:        body.Phone,
			PlatformID:   body.PaymentMethod,
			PayeeName:    body.AccountName,
			PayeeAccount: body.AccountNumber,
		}
		if body.ExpectedFee != "" {
			fee, err := decimal.NewFromString(body.ExpectedFee.String())
			if err != nil {
				badRequest(w, "invalid expectedFee")
				return req, false
			}
			req.ExpectedFee = fee
		}
		return req, true
	}

	if err := r.ParseForm(); err != nil {
		badRequest(w, "invalid form submission")
		return req, false
	}
	req = domain.OrderRequest{
		LastName:     r.PostFormValue("lastName"),
		FirstName:    r.PostFormValue("firstName"),
		Email:        r.PostFormValue("email"),
		Phone:        r.PostFormValue("phone"),
		PlatformID:   r.PostFormValue("paymentMethod"),
		PayeeName:    r.PostFormValue("accountName"),
		PayeeAccount: r.PostFormValue("accountNumber"),
	}
	if raw := r.PostFormValue("expectedFee"); raw != "" {
		fee, err := decimal.NewFromString(raw)
		if err != nil {
			badRequest(w, "invalid expectedFee")
			return req, false
		}
		req.ExpectedFee = fee
	}
	return req, true
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid order id")
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, application.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		h.log.Error("get order failed", "order_id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        order.ID.String(),
		"status":    string(order.Status),
		"amount":    order.Price.String(),
		"createdAt": order.CreatedAt,
	})
}

// statusFor maps terminal pipeline codes to HTTP statuses; the body always
// carries the full structured result regardless.
func statusFor(result application.OrderResult) int {
	if result.Success {
		return http.StatusCreated
	}
	switch result.Code {
	case domain.CodeRateLimited:
		return http.StatusTooManyRequests
	case domain.CodeSanitizationFailed, domain.CodeValidationFailed,
		domain.CodeBusinessRulesFailed, domain.CodeSafetyCheckFailed:
		return http.StatusBadRequest
	case domain.CodeProductNotFound, domain.CodePlatformNotFound:
		return http.StatusNotFound
	case domain.CodePriceMismatch, domain.CodeDuplicateOrder:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeResult(w http.ResponseWriter, result application.OrderResult) {
	writeJSON(w, statusFor(result), result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, application.OrderResult{
		Success: false,
		Message: msg,
		Code:    domain.CodeValidationFailed,
	})
}

func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
