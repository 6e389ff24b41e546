package gateways

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPhonePeTestServer serves both the oauth and the checkout endpoints so one
// httptest server can stand in for both base URLs.
func newPhonePeTestServer(t *testing.T, orderState string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "test-client", r.PostForm.Get("client_id"))
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
	})

	mux.HandleFunc("/checkout/v2/pay", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "O-Bearer tok-1", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "IDT_test_1", payload["merchantOrderId"])
		assert.EqualValues(t, 9900, payload["amount"])
		assert.EqualValues(t, 1200, payload["expireAfter"])

		json.NewEncoder(w).Encode(map[string]string{
			"orderId":     "OMO123",
			"redirectUrl": "https://mercury.phonepe.com/transact/OMO123",
		})
	})

	mux.HandleFunc("/checkout/v2/order/IDT_test_1/status", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "O-Bearer tok-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"state": orderState,
			"paymentDetails": []map[string]string{
				{"transactionId": "T123", "state": orderState},
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testPhonePeGateway(server *httptest.Server) *PhonePeGateway {
	return &PhonePeGateway{
		AuthBaseURL:   server.URL,
		APIBaseURL:    server.URL,
		ClientID:      "test-client",
		ClientSecret:  "test-secret",
		ClientVersion: "1",
		HTTPClient:    server.Client(),
	}
}

func TestPhonePeCreateOrder(t *testing.T) {
	server := newPhonePeTestServer(t, "PENDING")
	g := testPhonePeGateway(server)

	checkout, err := g.CreateOrder(context.Background(), OrderRequest{
		MerchantOrderID: "IDT_test_1",
		AmountMinor:     9900,
		Mobile:          "9876543210",
		RedirectURL:     "https://app.example.com/status",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://mercury.phonepe.com/transact/OMO123", checkout.CheckoutURL)
	assert.Equal(t, "OMO123", checkout.GatewayOrderID)
}

func TestPhonePeCheckStatus(t *testing.T) {
	cases := map[string]string{
		"COMPLETED": StateCompleted,
		"FAILED":    StateFailed,
		"PENDING":   StatePending,
		"CREATED":   StatePending,
	}
	for gatewayState, want := range cases {
		t.Run(gatewayState, func(t *testing.T) {
			server := newPhonePeTestServer(t, gatewayState)
			g := testPhonePeGateway(server)

			status, err := g.CheckStatus(context.Background(), "IDT_test_1")
			require.NoError(t, err)
			assert.Equal(t, want, status.State)
			assert.Equal(t, "T123", status.TransactionID)
		})
	}
}

func TestPhonePeAuthFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	g := testPhonePeGateway(server)
	_, err := g.CreateOrder(context.Background(), OrderRequest{MerchantOrderID: "IDT_test_1"})
	assert.Error(t, err)
}
