package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qrEnvelope(data StatusResponse) []byte {
	var env envelope
	env.Result.Data = data
	b, _ := json.Marshal(env)
	return b
}

func TestRequestQRTransaction(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/common/payments/nets-qr/request", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("api-key"))
		assert.Equal(t, "proj-456", r.Header.Get("project-id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write(qrEnvelope(StatusResponse{
			ResponseCode:    "00",
			TxnStatus:       1,
			TxnRetrievalRef: "ref-789",
			QRCode:          "aGVsbG8=",
		}))
	}))
	defer srv.Close()

	client := NewQRClient(srv.URL, "key-123", "proj-456")
	data, err := client.RequestQRTransaction(context.Background(), 12.50)
	require.NoError(t, err)

	assert.Equal(t, "ref-789", data.TxnRetrievalRef)
	assert.Equal(t, "aGVsbG8=", data.QRCode)
	assert.Equal(t, 12.5, gotBody["amt_in_dollars"])
	assert.NotEmpty(t, gotBody["txn_id"])
}

func TestRequestQRTransactionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(qrEnvelope(StatusResponse{
			ResponseCode: "68",
			TxnStatus:    2,
			ErrorMessage: "merchant suspended",
		}))
	}))
	defer srv.Close()

	client := NewQRClient(srv.URL, "k", "p")
	_, err := client.RequestQRTransaction(context.Background(), 1.00)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merchant suspended")
}

func TestRequestQRTransactionMissingQRCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(qrEnvelope(StatusResponse{ResponseCode: "00", TxnStatus: 1}))
	}))
	defer srv.Close()

	client := NewQRClient(srv.URL, "k", "p")
	_, err := client.RequestQRTransaction(context.Background(), 1.00)
	assert.Error(t, err)
}

func TestQueryTransactionStatusFlag(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/common/payments/nets-qr/query", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.Write(qrEnvelope(StatusResponse{ResponseCode: "00", TxnStatus: 1}))
	}))
	defer srv.Close()

	client := NewQRClient(srv.URL, "k", "p")

	data, err := client.QueryTransactionStatus(context.Background(), "ref-1", false)
	require.NoError(t, err)
	assert.True(t, data.Succeeded())

	_, err = client.QueryTransactionStatus(context.Background(), "ref-1", true)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, "ref-1", bodies[0]["txn_retrieval_ref"])
	assert.Equal(t, float64(0), bodies[0]["frontend_timeout_status"])
	assert.Equal(t, float64(1), bodies[1]["frontend_timeout_status"])
}

func TestQueryTransactionStatusGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewQRClient(srv.URL, "k", "p")
	_, err := client.QueryTransactionStatus(context.Background(), "ref-1", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestStatusResponseRules(t *testing.T) {
	assert.True(t, (&StatusResponse{ResponseCode: "00", TxnStatus: 1}).Succeeded())
	assert.False(t, (&StatusResponse{ResponseCode: "09", TxnStatus: 1}).Succeeded())
	assert.False(t, (&StatusResponse{ResponseCode: "00", TxnStatus: 0}).Succeeded())
	assert.True(t, (&StatusResponse{ResponseCode: "00", TxnStatus: 2}).Failed())
	assert.False(t, (&StatusResponse{ResponseCode: "00", TxnStatus: 0}).Failed())
	assert.False(t, (&StatusResponse{ResponseCode: "09", TxnStatus: 2}).Failed())
}

func TestWalletCreateCheckout(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/checkout/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(walletOrder{ID: "EXT-1", Status: "CREATED"})
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL, "client-id", "secret")
	id, err := client.CreateCheckout(context.Background(), 7.00)
	require.NoError(t, err)
	assert.Equal(t, "EXT-1", id)

	units := gotBody["purchase_units"].([]any)
	amount := units[0].(map[string]any)["amount"].(map[string]any)
	assert.Equal(t, "7.00", amount["value"])
}

func TestWalletCreateCheckoutNoID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(walletOrder{})
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL, "c", "s")
	_, err := client.CreateCheckout(context.Background(), 1.00)
	assert.Error(t, err)
}

func TestWalletCaptureCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/checkout/orders/EXT-1/capture", r.URL.Path)
		json.NewEncoder(w).Encode(walletOrder{ID: "EXT-1", Status: StatusCompleted})
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL, "c", "s")
	status, err := client.CaptureCheckout(context.Background(), "EXT-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
}

func TestWalletCaptureCheckoutDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewWalletClient(srv.URL, "c", "s")
	_, err := client.CaptureCheckout(context.Background(), "EXT-1")
	assert.Error(t, err)
}
