package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StatusCompleted is the wallet provider's terminal success status.
const StatusCompleted = "COMPLETED"

// WalletClient talks to the card/wallet redirect provider. The client only
// creates and captures checkouts; the approval redirect happens in the
// visitor's browser.
type WalletClient struct {
	BaseURL  string
	ClientID string
	Secret   string
	HTTP     *http.Client
}

func NewWalletClient(baseURL, clientID, secret string) *WalletClient {
	return &WalletClient{
		BaseURL:  baseURL,
		ClientID: clientID,
		Secret:   secret,
		HTTP:     &http.Client{Timeout: 15 * time.Second},
	}
}

type walletOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateCheckout registers a checkout for amount with the provider and
// returns the external order id the frontend uses for approval.
func (c *WalletClient) CreateCheckout(ctx context.Context, amount float64) (string, error) {
	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{"amount": map[string]string{
				"currency_code": "SGD",
				"value":         fmt.Sprintf("%.2f", amount),
			}},
		},
	}
	order, err := c.post(ctx, "/v2/checkout/orders", body)
	if err != nil {
		return "", err
	}
	if order.ID == "" {
		return "", fmt.Errorf("wallet provider returned no order id")
	}
	return order.ID, nil
}

// CaptureCheckout captures a previously approved checkout and returns the
// provider's status string.
func (c *WalletClient) CaptureCheckout(ctx context.Context, externalOrderID string) (string, error) {
	order, err := c.post(ctx, "/v2/checkout/orders/"+externalOrderID+"/capture", map[string]any{})
	if err != nil {
		return "", err
	}
	return order.Status, nil
}

func (c *WalletClient) post(ctx context.Context, path string, body map[string]any) (*walletOrder, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.ClientID, c.Secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("wallet provider returned %d", resp.StatusCode)
	}

	var order walletOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode wallet provider response: %w", err)
	}
	return &order, nil
}
