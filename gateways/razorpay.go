package gateways

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"contest-platform/utils"
)

// RazorpayGateway is the order+client-SDK integration: we create an order via
// the REST API and hand the order id plus key id back to the client, which
// completes payment through the Razorpay checkout SDK. Completion is verified
// either by signature callback or by fetching the order.
type RazorpayGateway struct {
	BaseURL    string
	KeyID      string
	KeySecret  string
	HTTPClient *http.Client
}

func NewRazorpayGateway() *RazorpayGateway {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	if keyID == "" || keySecret == "" {
		log.Fatal("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set")
	}
	return &RazorpayGateway{
		BaseURL:    "https://api.razorpay.com/v1",
		KeyID:      keyID,
		KeySecret:  keySecret,
		HTTPClient: utils.HTTPClient,
	}
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

func (g *RazorpayGateway) CreateOrder(ctx context.Context, order OrderRequest) (*CheckoutOrder, error) {
	payload := map[string]interface{}{
		"amount":   order.AmountMinor,
		"currency": "INR",
		"receipt":  order.MerchantOrderID,
		"notes": map[string]string{
			"merchantOrderId": order.MerchantOrderID,
			"mobile":          order.Mobile,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.KeyID, g.KeySecret)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("order request returned %d: %s", resp.StatusCode, string(respBody))
	}

	var orderResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	if orderResp.ID == "" {
		return nil, fmt.Errorf("order response contained no id")
	}

	return &CheckoutOrder{
		GatewayOrderID: orderResp.ID,
		KeyID:          g.KeyID,
	}, nil
}

// CheckStatus fetches orders by receipt (our merchant order id) and reports
// whether any of them is paid.
func (g *RazorpayGateway) CheckStatus(ctx context.Context, merchantOrderID string) (*StatusResult, error) {
	req, err := http.NewRequestWithContext(ctx, "GET",
		g.BaseURL+"/orders?receipt="+merchantOrderID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	req.SetBasicAuth(g.KeyID, g.KeySecret)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status request returned %d: %s", resp.StatusCode, string(respBody))
	}

	var listResp struct {
		Items []struct {
			ID         string `json:"id"`
			Status     string `json:"status"`
			AmountPaid int64  `json:"amount_paid"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	if len(listResp.Items) == 0 {
		return &StatusResult{State: StatePending}, nil
	}

	item := listResp.Items[0]
	switch item.Status {
	case "paid":
		return &StatusResult{State: StateCompleted, TransactionID: item.ID}, nil
	case "attempted", "created":
		return &StatusResult{State: StatePending}, nil
	default:
		return &StatusResult{State: StateFailed}, nil
	}
}

// VerifySignature checks the HMAC-SHA256 signature Razorpay's checkout sends
// back after a successful client-side payment.
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
