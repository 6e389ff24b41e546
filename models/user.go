package models

import (
	"time"
)

// User is the internal account record. ExternalAuthID is the opaque subject id
// carried in auth tokens; the identity middleware resolves it to this row.
type User struct {
	ID           string `json:"id" gorm:"primaryKey"`
	Name         string `json:"name" gorm:"not null"`
	Email        string `json:"email" gorm:"not null;uniqueIndex"`
	MobileNumber string `json:"mobile_number" gorm:"not null;uniqueIndex"`
	Age          int    `json:"age"`
	Gender       string `json:"gender" gorm:"type:varchar(10)"`

	ExternalAuthID string `json:"external_auth_id" gorm:"not null;uniqueIndex"`
	PasswordHash   string `json:"-" gorm:"not null"`

	ProfileImage string `json:"profile_image"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Bookmark marks a contest a user saved for later. One row per (user, contest).
type Bookmark struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;uniqueIndex:idx_bookmark_user_contest"`
	ContestID string    `json:"contest_id" gorm:"not null;uniqueIndex:idx_bookmark_user_contest"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// DeletionRequest is a user's request to delete their account, processed
// manually by an operator.
type DeletionRequest struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;index"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status" gorm:"type:varchar(16);default:'PENDING'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
