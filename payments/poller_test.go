package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGateway struct {
	statuses []string
	errs     []error
	calls    int
}

func (g *scriptedGateway) CreatePayment(context.Context, CreatePaymentRequest) (*CreatePaymentResponse, error) {
	return nil, errors.New("not used")
}

func (g *scriptedGateway) VerifyPayment(context.Context, string) (*VerifyPaymentResponse, error) {
	i := g.calls
	g.calls++
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	status := GatewayStatusPending
	if i < len(g.statuses) {
		status = g.statuses[i]
	}
	return &VerifyPaymentResponse{Status: status}, nil
}

func TestPollVerificationSettlesOnPaid(t *testing.T) {
	gw := &scriptedGateway{statuses: []string{GatewayStatusPending, GatewayStatusPending, GatewayStatusPaid}}

	resp, err := PollVerification(context.Background(), gw, "ORD", time.Millisecond, 5)
	require.NoError(t, err)
	assert.Equal(t, GatewayStatusPaid, resp.Status)
	assert.Equal(t, 3, gw.calls)
}

func TestPollVerificationSettlesOnFailed(t *testing.T) {
	gw := &scriptedGateway{statuses: []string{GatewayStatusFailed}}

	resp, err := PollVerification(context.Background(), gw, "ORD", time.Millisecond, 5)
	require.NoError(t, err)
	assert.Equal(t, GatewayStatusFailed, resp.Status)
	assert.Equal(t, 1, gw.calls)
}

func TestPollVerificationAttemptCap(t *testing.T) {
	gw := &scriptedGateway{}

	_, err := PollVerification(context.Background(), gw, "ORD", time.Millisecond, 4)
	require.ErrorIs(t, err, ErrVerificationPending)
	assert.Equal(t, 4, gw.calls)
}

func TestPollVerificationReturnsLastError(t *testing.T) {
	transient := errors.New("connection reset")
	gw := &scriptedGateway{errs: []error{transient, transient}}

	_, err := PollVerification(context.Background(), gw, "ORD", time.Millisecond, 2)
	require.ErrorIs(t, err, transient)
}

func TestPollVerificationHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := &scriptedGateway{}
	_, err := PollVerification(ctx, gw, "ORD", time.Hour, 5)
	require.ErrorIs(t, err, context.Canceled)
}
