// Package payment integrates the two external payment providers: a
// card/wallet redirect flow and a QR-code flow confirmed asynchronously.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StatusResponse is the provider's transaction status payload, shared by the
// QR request and query endpoints.
type StatusResponse struct {
	ResponseCode    string `json:"response_code"`
	TxnStatus       int    `json:"txn_status"`
	TxnRetrievalRef string `json:"txn_retrieval_ref"`
	QRCode          string `json:"qr_code"`
	NetworkStatus   int    `json:"network_status"`
	ErrorMessage    string `json:"error_message"`
	Instruction     string `json:"instruction"`
}

// Succeeded applies the provider's success rule: response code "00" with
// transaction status 1.
func (r *StatusResponse) Succeeded() bool {
	return r.ResponseCode == "00" && r.TxnStatus == 1
}

// Failed reports a definitive decline: response code "00" with transaction
// status 2. Any other combination is inconclusive and stays pending while
// polls remain.
func (r *StatusResponse) Failed() bool {
	return r.ResponseCode == "00" && r.TxnStatus == 2
}

// The provider wraps every payload in a result/data envelope.
type envelope struct {
	Result struct {
		Data StatusResponse `json:"data"`
	} `json:"result"`
}

// QRClient talks to the QR payment gateway.
type QRClient struct {
	BaseURL   string
	APIKey    string
	ProjectID string
	HTTP      *http.Client
}

func NewQRClient(baseURL, apiKey, projectID string) *QRClient {
	return &QRClient{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		ProjectID: projectID,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
	}
}

// RequestQRTransaction asks the gateway for a scannable QR code covering
// amount. The returned retrieval reference correlates every later status
// query to this transaction.
func (c *QRClient) RequestQRTransaction(ctx context.Context, amount float64) (*StatusResponse, error) {
	body := map[string]any{
		"txn_id":         fmt.Sprintf("supermarket-%d", time.Now().UnixMilli()),
		"amt_in_dollars": amount,
		"notify_mobile":  0,
	}
	data, err := c.post(ctx, "/api/v1/common/payments/nets-qr/request", body)
	if err != nil {
		return nil, err
	}
	if !data.Succeeded() || data.QRCode == "" {
		msg := data.ErrorMessage
		if msg == "" {
			msg = "transaction could not be started"
		}
		return data, fmt.Errorf("qr request rejected: %s", msg)
	}
	return data, nil
}

// QueryTransactionStatus polls the gateway for the state of ref. The
// frontendTimeout flag is set on the one final query issued after the local
// poll budget runs out, letting the provider reconcile a last-moment
// completion.
func (c *QRClient) QueryTransactionStatus(ctx context.Context, ref string, frontendTimeout bool) (*StatusResponse, error) {
	timeoutStatus := 0
	if frontendTimeout {
		timeoutStatus = 1
	}
	body := map[string]any{
		"txn_retrieval_ref":       ref,
		"frontend_timeout_status": timeoutStatus,
	}
	return c.post(ctx, "/api/v1/common/payments/nets-qr/query", body)
}

func (c *QRClient) post(ctx context.Context, path string, body map[string]any) (*StatusResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("project-id", c.ProjectID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment gateway returned %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode payment gateway response: %w", err)
	}
	return &env.Result.Data, nil
}
