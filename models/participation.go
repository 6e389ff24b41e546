package models

import (
	"time"
)

// Participation status values.
const (
	ParticipationPendingPayment = "PENDING_PAYMENT"
	ParticipationRegistered     = "REGISTERED"
	ParticipationSubmitted      = "SUBMITTED"
	ParticipationDisqualified   = "DISQUALIFIED"
)

// Participation is a user's registration record for one contest. The composite
// unique index is what makes concurrent duplicate registrations collapse to a
// single row.
type Participation struct {
	ID        string `json:"id" gorm:"primaryKey"`
	UserID    string `json:"user_id" gorm:"not null;uniqueIndex:idx_participation_user_contest"`
	ContestID string `json:"contest_id" gorm:"not null;uniqueIndex:idx_participation_user_contest"`

	IsPaid        bool       `json:"is_paid" gorm:"default:false"`
	PaymentID     *string    `json:"payment_id,omitempty"`
	PaymentAmount float64    `json:"payment_amount"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	Status string `json:"status" gorm:"type:varchar(20);default:'REGISTERED'"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
