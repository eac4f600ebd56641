package models

import "time"

type PaymentOrderStatus string

const (
	PaymentOrderCreated PaymentOrderStatus = "created"
	PaymentOrderPaid    PaymentOrderStatus = "paid"
	PaymentOrderFailed  PaymentOrderStatus = "failed"
	PaymentOrderExpired PaymentOrderStatus = "expired"
)

// PaymentOrder tracks one top-up attempt at the payment gateway. The
// order id doubles as the gateway reference and the ledger reference
// once the credit lands.
type PaymentOrder struct {
	OrderID   string             `json:"order_id" db:"order_id"`
	UserID    int                `json:"user_id" db:"user_id"`
	Amount    int64              `json:"amount" db:"amount"`
	Status    PaymentOrderStatus `json:"status" db:"status"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}
