package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arenahq/arena/models"
	"github.com/lib/pq"
)

var (
	ErrPaymentOrderNotFound = errors.New("payment order not found")
	ErrPaymentOrderConflict = errors.New("payment order id already exists")
	ErrPaymentOrderSettled  = errors.New("payment order already settled")
)

type PaymentOrderRepository interface {
	Create(ctx context.Context, o *models.PaymentOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*models.PaymentOrder, error)
	Settle(ctx context.Context, exec SQLExecutor, orderID string, status models.PaymentOrderStatus) error
}

type postgresPaymentOrderRepository struct {
	db *sql.DB
}

func NewPostgresPaymentOrderRepository(db *sql.DB) PaymentOrderRepository {
	return &postgresPaymentOrderRepository{db: db}
}

func (r *postgresPaymentOrderRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPaymentOrderRepository) Create(ctx context.Context, o *models.PaymentOrder) error {
	query := `
		INSERT INTO payment_orders (order_id, user_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, o.OrderID, o.UserID, o.Amount, o.Status).Scan(&o.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrPaymentOrderConflict
		}
		return fmt.Errorf("failed to create payment order: %w", err)
	}
	return nil
}

func (r *postgresPaymentOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	query := `
		SELECT order_id, user_id, amount, status, created_at
		FROM payment_orders
		WHERE order_id = $1`

	o := &models.PaymentOrder{}
	err := r.db.QueryRowContext(ctx, query, orderID).
		Scan(&o.OrderID, &o.UserID, &o.Amount, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentOrderNotFound
		}
		return nil, fmt.Errorf("failed to get payment order: %w", err)
	}
	return o, nil
}

// Settle moves an order out of the created state. The status predicate
// makes the transition first-writer-wins: a concurrent settle of the
// same order matches zero rows and gets ErrPaymentOrderSettled.
func (r *postgresPaymentOrderRepository) Settle(ctx context.Context, exec SQLExecutor, orderID string, status models.PaymentOrderStatus) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE payment_orders
		SET status = $1
		WHERE order_id = $2 AND status = $3`
	result, err := executor.ExecContext(ctx, query, status, orderID, models.PaymentOrderCreated)
	if err != nil {
		return fmt.Errorf("failed to settle payment order: %w", err)
	}
	return checkAffectedRows(result, ErrPaymentOrderSettled)
}
