// utils/sms.go
package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// SMSClient sends OTP messages through the Fast2SMS bulk API.
type SMSClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewSMSClient() *SMSClient {
	return &SMSClient{
		APIKey:     os.Getenv("FAST2SMS_API_KEY"),
		BaseURL:    "https://www.fast2sms.com/dev/bulkV2",
		HTTPClient: HTTPClient,
	}
}

// NormalizeMobile strips a +91 / 91 country prefix and any separators, keeping
// the 10-digit subscriber number Fast2SMS expects.
func NormalizeMobile(mobile string) string {
	var digits strings.Builder
	for _, r := range mobile {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) > 10 {
		d = d[len(d)-10:]
	}
	return d
}

func (c *SMSClient) SendOTP(ctx context.Context, mobile, code string) error {
	if c.APIKey == "" {
		return fmt.Errorf("FAST2SMS_API_KEY not configured")
	}

	params := url.Values{}
	params.Set("route", "otp")
	params.Set("variables_values", code)
	params.Set("numbers", NormalizeMobile(mobile))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("authorization", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("fast2sms request failed: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Return  bool   `json:"return"`
		Message any    `json:"message"`
		Request string `json:"request_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("fast2sms response unreadable: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !body.Return {
		return fmt.Errorf("fast2sms rejected message: status %d %v", resp.StatusCode, body.Message)
	}
	return nil
}
