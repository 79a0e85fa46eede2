package domain

import "time"

// OrderCreated is written to the outbox in the creation transaction and
// relayed to the order events topic after commit.
type OrderCreated struct {
	OrderID     string    `json:"order_id"`
	Email       string    `json:"email"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	PlatformID  string    `json:"platform_id"`
	Amount      string    `json:"amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentSettled arrives from the out-of-band settlement channel and drives
// the payment-status transition. Settlement itself never happens here.
type PaymentSettled struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"` // paid, failed or refunded
	Reason  string `json:"reason,omitempty"`
}
