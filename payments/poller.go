package payments

import (
	"context"
	"errors"
	"time"
)

// ErrVerificationPending is returned when the attempt cap is reached
// without the order settling either way.
var ErrVerificationPending = errors.New("payment verification still pending after polling")

// PollVerification checks the order status at a fixed interval until it
// settles (paid or failed/expired) or the attempt cap is reached. The
// gateway pushes nothing; polling is the only confirmation channel.
func PollVerification(ctx context.Context, gw Gateway, orderID string, interval time.Duration, maxAttempts int) (*VerifyPaymentResponse, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := gw.VerifyPayment(ctx, orderID)
		if err != nil {
			lastErr = err
		} else {
			switch resp.Status {
			case GatewayStatusPaid, GatewayStatusFailed, GatewayStatusExpired:
				return resp, nil
			}
		}

		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrVerificationPending
}
