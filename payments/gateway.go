// Package payments talks to the hosted payment gateway used for wallet
// top-ups. The gateway is order-based: create an order, redirect the
// customer to the returned payment URL, then poll verification until
// the order settles.
package payments

import (
	"context"
	"errors"
)

const (
	GatewayStatusCreated = "CREATED"
	GatewayStatusPending = "PENDING"
	GatewayStatusPaid    = "PAID"
	GatewayStatusFailed  = "FAILED"
	GatewayStatusExpired = "EXPIRED"
)

var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrOrderRejected      = errors.New("payment gateway rejected the order")
)

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreatePaymentRequest struct {
	OrderID  string   `json:"order_id"`
	Amount   int64    `json:"amount"`
	Currency string   `json:"currency"`
	Customer Customer `json:"customer"`
}

type CreatePaymentResponse struct {
	Status     string `json:"status"`
	PaymentURL string `json:"payment_url,omitempty"`
}

type VerifyPaymentResponse struct {
	Status string `json:"status"`
}

type Gateway interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error)
	VerifyPayment(ctx context.Context, orderID string) (*VerifyPaymentResponse, error)
}
