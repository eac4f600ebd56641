package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPGateway is the production Gateway implementation: a thin JSON
// client for the gateway's order API, authenticated with app id/secret
// headers.
type HTTPGateway struct {
	baseURL    string
	appID      string
	secret     string
	httpClient *http.Client
}

func NewHTTPGateway(baseURL, appID, secret string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		appID:   appID,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (g *HTTPGateway) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	if req.Currency == "" {
		req.Currency = "INR"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	g.setAuth(httpReq)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var out CreatePaymentResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("failed to decode payment response: %w", err)
		}
		return &out, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: %s", ErrOrderRejected, readErrorBody(resp.Body))
	default:
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
}

func (g *HTTPGateway) VerifyPayment(ctx context.Context, orderID string) (*VerifyPaymentResponse, error) {
	endpoint := fmt.Sprintf("%s/orders/%s", g.baseURL, url.PathEscape(orderID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}
	g.setAuth(httpReq)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: gateway returned status %d: %s", ErrGatewayUnavailable, resp.StatusCode, readErrorBody(resp.Body))
	}

	var out VerifyPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}
	return &out, nil
}

func (g *HTTPGateway) setAuth(req *http.Request) {
	req.Header.Set("X-App-Id", g.appID)
	req.Header.Set("X-App-Secret", g.secret)
}

func readErrorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 1024))
	return string(body)
}
