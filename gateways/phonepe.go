package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"contest-platform/utils"
)

// PhonePeGateway is the hosted-checkout integration: we create an order with a
// short expiry and redirect the payer to the URL the gateway returns, then
// poll order status until it settles.
type PhonePeGateway struct {
	AuthBaseURL   string
	APIBaseURL    string
	ClientID      string
	ClientSecret  string
	ClientVersion string
	HTTPClient    *http.Client
}

// orderExpirySeconds matches the 20-minute payment window the platform gives
// a checkout before the sweep marks it expired.
const orderExpirySeconds = 1200

func NewPhonePeGateway() *PhonePeGateway {
	clientID := os.Getenv("PHONEPE_CLIENT_ID")
	clientSecret := os.Getenv("PHONEPE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("PHONEPE_CLIENT_ID and PHONEPE_CLIENT_SECRET must be set")
	}
	version := os.Getenv("PHONEPE_CLIENT_VERSION")
	if version == "" {
		version = "1"
	}
	authBase := os.Getenv("PHONEPE_AUTH_BASE_URL")
	if authBase == "" {
		authBase = "https://api.phonepe.com/apis/identity-manager"
	}
	apiBase := os.Getenv("PHONEPE_API_BASE_URL")
	if apiBase == "" {
		apiBase = "https://api.phonepe.com/apis/pg"
	}
	return &PhonePeGateway{
		AuthBaseURL:   authBase,
		APIBaseURL:    apiBase,
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		ClientVersion: version,
		HTTPClient:    utils.HTTPClient,
	}
}

func (g *PhonePeGateway) Name() string { return "phonepe" }

func (g *PhonePeGateway) accessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", g.ClientID)
	form.Set("client_secret", g.ClientSecret)
	form.Set("client_version", g.ClientVersion)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, "POST",
		g.AuthBaseURL+"/v1/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request returned %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token response contained no access_token")
	}
	return tokenResp.AccessToken, nil
}

func (g *PhonePeGateway) CreateOrder(ctx context.Context, order OrderRequest) (*CheckoutOrder, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"merchantOrderId": order.MerchantOrderID,
		"amount":          order.AmountMinor,
		"expireAfter":     orderExpirySeconds,
		"metaInfo": map[string]string{
			"udf1": "mobileNumber:" + order.Mobile,
			"udf2": "merchantOrderId:" + order.MerchantOrderID,
		},
		"paymentFlow": map[string]interface{}{
			"type":    "PG_CHECKOUT",
			"message": "Contest Entry Fee",
			"merchantUrls": map[string]string{
				"redirectUrl": order.RedirectURL,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		g.APIBaseURL+"/checkout/v2/pay", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "O-Bearer "+token)

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
		OrderID     string `json:"orderId"`
		RedirectURL string `json:"redirectUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	if orderResp.RedirectURL == "" {
		return nil, fmt.Errorf("order response contained no redirectUrl")
	}

	return &CheckoutOrder{
		CheckoutURL:    orderResp.RedirectURL,
		GatewayOrderID: orderResp.OrderID,
	}, nil
}

func (g *PhonePeGateway) CheckStatus(ctx context.Context, merchantOrderID string) (*StatusResult, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	statusURL := fmt.Sprintf("%s/checkout/v2/order/%s/status", g.APIBaseURL, merchantOrderID)
	req, err := http.NewRequestWithContext(ctx, "GET", statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "O-Bearer "+token)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status request returned %d: %s", resp.StatusCode, string(respBody))
	}

	var statusResp struct {
		State          string `json:"state"`
		PaymentDetails []struct {
			TransactionID string `json:"transactionId"`
			State         string `json:"state"`
		} `json:"paymentDetails"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	result := &StatusResult{State: normalizePhonePeState(statusResp.State)}
	if len(statusResp.PaymentDetails) > 0 {
		result.TransactionID = statusResp.PaymentDetails[0].TransactionID
	}
	return result, nil
}

func normalizePhonePeState(state string) string {
	switch strings.ToUpper(state) {
	case "COMPLETED":
		return StateCompleted
	case "FAILED":
		return StateFailed
	default:
		return StatePending
	}
}
