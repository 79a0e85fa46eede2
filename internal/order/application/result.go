package application

import (
	"time"

	"github.com/dmehra2102/Storefront-Order-Service/internal/order/domain"
)

type OrderDetails struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	ProductName  string    `json:"productName"`
	PlatformName string    `json:"platformName"`
	Amount       string    `json:"amount"`
}

// OrderResult is the structured outcome returned for every submission;
// failures never raise to the caller.
type OrderResult struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Code       domain.Code       `json:"code,omitempty"`
	OrderID    string            `json:"orderId,omitempty"`
	Details    *OrderDetails     `json:"orderDetails,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	RetryAfter int64             `json:"retryAfter,omitempty"`
}

// userMessages are the client-facing texts per code. Infrastructure codes
// deliberately leak nothing about the underlying failure.
var userMessages = map[domain.Code]string{
	domain.CodeRateLimited:         "Too many requests. Please try again shortly.",
	domain.CodeSanitizationFailed:  "Some fields contain characters that are not allowed.",
	domain.CodeValidationFailed:    "Some fields are missing or invalid.",
	domain.CodeBusinessRulesFailed: "The submitted details could not be accepted.",
	domain.CodeSafetyCheckFailed:   "The submitted details could not be accepted.",
	domain.CodeProductNotFound:     "This product is no longer available.",
	domain.CodePlatformNotFound:    "The selected payment method is not available.",
	domain.CodePriceMismatch:       "The price has changed. Please refresh and try again.",
	domain.CodeDuplicateOrder:      "An order for this product was placed recently. Please wait before retrying.",
	domain.CodeInsertFailed:        "Your order could not be saved. Please try again.",
	domain.CodeDatabaseError:       "Something went wrong on our side. Please try again later.",
	domain.CodeUnknown:             "Something went wrong on our side. Please try again later.",
}

func failureResult(perr *domain.PipelineError) OrderResult {
	msg, ok := userMessages[perr.Code]
	if !ok {
		msg = userMessages[domain.CodeUnknown]
	}
	res := OrderResult{
		Success: false,
		Message: msg,
		Code:    perr.Code,
		Errors:  perr.Fields,
	}
	if perr.RetryAfter > 0 {
		res.RetryAfter = int64(perr.RetryAfter.Round(time.Second) / time.Second)
		if res.RetryAfter == 0 {
			res.RetryAfter = 1
		}
	}
	return res
}
