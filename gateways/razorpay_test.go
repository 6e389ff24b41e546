package gateways

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRazorpayGateway(server *httptest.Server) *RazorpayGateway {
	return &RazorpayGateway{
		BaseURL:    server.URL,
		KeyID:      "rzp_test_key",
		KeySecret:  "rzp_test_secret",
		HTTPClient: server.Client(),
	}
}

func TestRazorpayCreateOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.EqualValues(t, 9900, payload["amount"])
		assert.Equal(t, "INR", payload["currency"])
		assert.Equal(t, "IDT_test_1", payload["receipt"])

		json.NewEncoder(w).Encode(map[string]string{"id": "order_ABC"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	g := testRazorpayGateway(server)
	checkout, err := g.CreateOrder(context.Background(), OrderRequest{
		MerchantOrderID: "IDT_test_1",
		AmountMinor:     9900,
	})
	require.NoError(t, err)

	// Client-SDK flow: no redirect URL, the app gets the order and key ids.
	assert.Empty(t, checkout.CheckoutURL)
	assert.Equal(t, "order_ABC", checkout.GatewayOrderID)
	assert.Equal(t, "rzp_test_key", checkout.KeyID)
}

func TestRazorpayCheckStatus(t *testing.T) {
	cases := []struct {
		orderStatus string
		want        string
	}{
		{"paid", StateCompleted},
		{"attempted", StatePending},
		{"created", StatePending},
		{"expired", StateFailed},
	}
	for _, tc := range cases {
		t.Run(tc.orderStatus, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "IDT_test_1", r.URL.Query().Get("receipt"))
				json.NewEncoder(w).Encode(map[string]interface{}{
					"items": []map[string]interface{}{
						{"id": "order_ABC", "status": tc.orderStatus},
					},
				})
			})
			server := httptest.NewServer(mux)
			t.Cleanup(server.Close)

			status, err := testRazorpayGateway(server).CheckStatus(context.Background(), "IDT_test_1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, status.State)
		})
	}
}

func TestRazorpayCheckStatusNoOrders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	status, err := testRazorpayGateway(server).CheckStatus(context.Background(), "IDT_unknown")
	require.NoError(t, err)
	assert.Equal(t, StatePending, status.State)
}

func TestRazorpayVerifySignature(t *testing.T) {
	g := &RazorpayGateway{KeySecret: "rzp_test_secret"}

	mac := hmac.New(sha256.New, []byte("rzp_test_secret"))
	mac.Write([]byte("order_ABC|pay_XYZ"))
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, g.VerifySignature("order_ABC", "pay_XYZ", valid))
	assert.False(t, g.VerifySignature("order_ABC", "pay_XYZ", "deadbeef"))
	assert.False(t, g.VerifySignature("order_ABC", "pay_OTHER", valid))
}
