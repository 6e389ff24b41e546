package models

import (
	"time"
)

// Contest represents a public media contest with registration and voting windows.
// Voting always opens the instant registration opens, so VotingStartAt is derived
// from RegistrationStartAt at creation time.
type Contest struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Slug        string `json:"slug" gorm:"index"`
	Theme       string `json:"theme" gorm:"not null"`
	Description string `json:"description"`

	CelebrityName string `json:"celebrity_name,omitempty"`
	BannerURL     string `json:"banner_url" gorm:"not null"`

	EntryFee  float64 `json:"entry_fee" gorm:"not null;default:0"`
	PrizePool float64 `json:"prize_pool" gorm:"not null;default:0"`

	RegistrationStartAt time.Time `json:"registration_start_at" gorm:"not null"`
	RegistrationEndAt   time.Time `json:"registration_end_at" gorm:"not null"`
	VotingStartAt       time.Time `json:"voting_start_at" gorm:"not null"`
	VotingEndAt         time.Time `json:"voting_end_at" gorm:"not null"`

	ResultsAnnounceAt  *time.Time `json:"results_announce_at,omitempty"`
	WinnersAnnounced   bool       `json:"winners_announced" gorm:"default:false"`
	WinnersAnnouncedAt *time.Time `json:"winners_announced_at,omitempty"`

	IsPublished bool `json:"is_published" gorm:"default:true"`
	IsArchived  bool `json:"is_archived" gorm:"default:false"`

	// Advisory counters for fast list views. The read path recomputes the
	// authoritative values, see ContestService.GetContestByID.
	TotalParticipants int64 `json:"total_participants" gorm:"default:0"`
	TotalVotes        int64 `json:"total_votes" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Calculated fields (not stored in DB)
	Winners []ContestWinner `json:"winners,omitempty" gorm:"-"`
}
