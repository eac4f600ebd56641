package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/arenahq/arena/models"
	"github.com/arenahq/arena/payments"
	"github.com/arenahq/arena/repositories"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultPollAttempts = 10
)

// TopUpIntent is what the client needs to complete a top-up: the order
// to confirm later and the gateway page to pay on.
type TopUpIntent struct {
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
	PaymentURL string `json:"payment_url,omitempty"`
}

type WalletService interface {
	Balance(ctx context.Context, userID int) (int64, error)
	History(ctx context.Context, userID, limit, offset int) ([]*models.Transaction, error)
	InitiateTopUp(ctx context.Context, userID int, amount int64) (*TopUpIntent, error)
	ConfirmTopUp(ctx context.Context, userID int, orderID string) (*models.PaymentOrder, error)
}

type walletService struct {
	tx           repositories.TxRunner
	users        repositories.UserRepository
	transactions repositories.TransactionRepository
	orders       repositories.PaymentOrderRepository
	gateway      payments.Gateway
	logger       *slog.Logger

	pollInterval time.Duration
	pollAttempts int
}

func NewWalletService(
	tx repositories.TxRunner,
	users repositories.UserRepository,
	transactions repositories.TransactionRepository,
	orders repositories.PaymentOrderRepository,
	gateway payments.Gateway,
	logger *slog.Logger,
) *walletService {
	return &walletService{
		tx:           tx,
		users:        users,
		transactions: transactions,
		orders:       orders,
		gateway:      gateway,
		logger:       logger,
		pollInterval: defaultPollInterval,
		pollAttempts: defaultPollAttempts,
	}
}

// Balance reads the users row, the single source of truth for funds.
func (s *walletService) Balance(ctx context.Context, userID int) (int64, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("get user: %w", err)
	}
	return user.WalletBalance, nil
}

func (s *walletService) History(ctx context.Context, userID, limit, offset int) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.transactions.ListByUser(ctx, userID, limit, offset)
}

// InitiateTopUp registers the order with the gateway first, then
// records it locally; a local write failure after gateway success is
// logged and surfaced so the client retries with a fresh order id.
func (s *walletService) InitiateTopUp(ctx context.Context, userID int, amount int64) (*TopUpIntent, error) {
	if amount <= 0 {
		return nil, ErrTopUpInvalidAmount
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	orderID := payments.NewOrderID()
	resp, err := s.gateway.CreatePayment(ctx, payments.CreatePaymentRequest{
		OrderID: orderID,
		Amount:  amount,
		Customer: payments.Customer{
			ID:    strconv.Itoa(user.ID),
			Name:  user.FullName,
			Email: user.Email,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create payment order: %w", err)
	}

	order := &models.PaymentOrder{
		OrderID: orderID,
		UserID:  userID,
		Amount:  amount,
		Status:  models.PaymentOrderCreated,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("payment order created at gateway but not recorded",
			slog.String("order_id", orderID),
			slog.Any("error", err))
		return nil, fmt.Errorf("record payment order: %w", err)
	}

	return &TopUpIntent{
		OrderID:    orderID,
		Amount:     amount,
		PaymentURL: resp.PaymentURL,
	}, nil
}

// ConfirmTopUp polls the gateway for the order and, once paid, credits
// the wallet and appends the ledger entry in one transaction. Calling
// it again for a settled order is rejected, so a paid order can credit
// at most once.
func (s *walletService) ConfirmTopUp(ctx context.Context, userID int, orderID string) (*models.PaymentOrder, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentOrderNotFound) {
			return nil, ErrPaymentOrderNotFound
		}
		return nil, fmt.Errorf("get payment order: %w", err)
	}
	if order.UserID != userID {
		return nil, ErrForbiddenOperation
	}
	if order.Status != models.PaymentOrderCreated {
		return nil, ErrOrderAlreadySettled
	}

	resp, err := payments.PollVerification(ctx, s.gateway, orderID, s.pollInterval, s.pollAttempts)
	if err != nil {
		if errors.Is(err, payments.ErrVerificationPending) {
			return nil, ErrPaymentNotCompleted
		}
		return nil, fmt.Errorf("verify payment: %w", err)
	}

	switch resp.Status {
	case payments.GatewayStatusPaid:
		// fall through to the credit below
	case payments.GatewayStatusFailed, payments.GatewayStatusExpired:
		status := models.PaymentOrderFailed
		if resp.Status == payments.GatewayStatusExpired {
			status = models.PaymentOrderExpired
		}
		if uerr := s.orders.Settle(ctx, nil, orderID, status); uerr != nil {
			s.logger.Error("failed to mark payment order",
				slog.String("order_id", orderID),
				slog.Any("error", uerr))
		}
		return nil, ErrPaymentFailed
	default:
		return nil, ErrPaymentNotCompleted
	}

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		// The settle runs first and is first-writer-wins at the data
		// layer; the status pre-check above is only a friendly error.
		// A concurrent confirm that lost the race aborts here, before
		// any credit.
		if err := s.orders.Settle(ctx, exec, orderID, models.PaymentOrderPaid); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		if err := s.users.Credit(ctx, exec, userID, order.Amount); err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}
		ref := orderID
		if err := s.transactions.Create(ctx, exec, &models.Transaction{
			UserID:      userID,
			Type:        models.TransactionTypeTopUp,
			Amount:      order.Amount,
			Description: "Wallet top-up",
			Reference:   &ref,
		}); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentOrderSettled) {
			return nil, ErrOrderAlreadySettled
		}
		return nil, err
	}

	order.Status = models.PaymentOrderPaid
	s.logger.Info("wallet credited",
		slog.Int("user_id", userID),
		slog.String("order_id", orderID),
		slog.Int64("amount", order.Amount))
	return order, nil
}
