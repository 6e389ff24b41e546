package models

import (
	"time"
)

// Payment status values. INITIATED is the only non-terminal state; a payment
// that reached SUCCESS, FAILED or EXPIRED never transitions again.
const (
	PaymentInitiated = "INITIATED"
	PaymentSuccess   = "SUCCESS"
	PaymentFailed    = "FAILED"
	PaymentExpired   = "EXPIRED"
)

// Payment is one checkout attempt against an external gateway, keyed by the
// merchant order id we hand to the gateway.
type Payment struct {
	ID              string `json:"id" gorm:"primaryKey"`
	UserID          string `json:"user_id" gorm:"not null;index"`
	ContestID       string `json:"contest_id" gorm:"not null;index"`
	ParticipationID string `json:"participation_id" gorm:"not null;index"`

	MerchantOrderID string `json:"merchant_order_id" gorm:"not null;uniqueIndex"`
	Gateway         string `json:"gateway"`
	TransactionID   string `json:"transaction_id,omitempty"`

	// Amount is in major currency units (rupees); conversion to the gateway's
	// minor units happens at the gateway boundary.
	Amount float64 `json:"amount" gorm:"not null"`

	Status    string     `json:"status" gorm:"type:varchar(12);default:'INITIATED';index"`
	ExpiresAt time.Time  `json:"expires_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Terminal reports whether the payment reached a final state.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentSuccess || p.Status == PaymentFailed || p.Status == PaymentExpired
}
