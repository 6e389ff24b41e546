package models

import (
	"time"
)

// ContestEntry is the media+bio submission tied to one paid participation.
// Re-submission before contest close overwrites media/bio in place.
type ContestEntry struct {
	ID              string `json:"id" gorm:"primaryKey"`
	ParticipationID string `json:"participation_id" gorm:"not null;uniqueIndex"`
	UserID          string `json:"user_id" gorm:"not null;index"`
	ContestID       string `json:"contest_id" gorm:"not null;index"`

	VideoURL   string `json:"video_url,omitempty"`
	Bio        string `json:"bio"`
	IsApproved bool   `json:"is_approved" gorm:"default:true"`

	Views       int64     `json:"views" gorm:"default:0"`
	SubmittedAt time.Time `json:"submitted_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Images []EntryImage `json:"images,omitempty" gorm:"foreignKey:EntryID"`

	// Calculated fields (not stored in DB)
	TotalVotes int64 `json:"total_votes,omitempty" gorm:"-"`
}

// EntryImage is one of up to three images attached to an entry.
type EntryImage struct {
	ID        string `json:"id" gorm:"primaryKey"`
	EntryID   string `json:"entry_id" gorm:"not null;index"`
	URL       string `json:"url" gorm:"not null"`
	SortOrder int    `json:"sort_order" gorm:"column:sort_order;default:0"`
}

// MaxEntryImages is the hard cap on images per entry.
const MaxEntryImages = 3
