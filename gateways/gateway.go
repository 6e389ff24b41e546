// Package gateways holds the payment gateway adapters. The settlement engine
// only ever talks to the Adapter interface; which concrete gateway backs it is
// a deployment decision (PAYMENT_GATEWAY env), not a code branch.
package gateways

import (
	"context"
)

// Order states reported by CheckStatus, normalized across gateways.
const (
	StateCompleted = "COMPLETED"
	StateFailed    = "FAILED"
	StatePending   = "PENDING"
)

// OrderRequest describes one checkout order. AmountMinor is in minor currency
// units (paise); the settlement engine converts before crossing this boundary.
type OrderRequest struct {
	MerchantOrderID string
	AmountMinor     int64
	Mobile          string
	RedirectURL     string
	CallbackURL     string
}

// CheckoutOrder is where the payer must be sent to complete payment. For
// hosted-checkout gateways CheckoutURL is a full redirect target; for
// client-SDK gateways GatewayOrderID plus KeyID are handed to the client.
type CheckoutOrder struct {
	CheckoutURL    string `json:"checkout_url,omitempty"`
	GatewayOrderID string `json:"gateway_order_id,omitempty"`
	KeyID          string `json:"key_id,omitempty"`
}

// StatusResult is the gateway's view of an order.
type StatusResult struct {
	State         string
	TransactionID string
}

// Adapter is the contract every payment gateway integration satisfies.
type Adapter interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*CheckoutOrder, error)
	CheckStatus(ctx context.Context, merchantOrderID string) (*StatusResult, error)
}
