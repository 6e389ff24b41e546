package models

import (
	"time"
)

// Vote records one user's single vote in one contest. Immutable once created;
// the (voter, contest) unique index enforces one-vote-per-contest even under
// concurrent requests.
type Vote struct {
	ID        string `json:"id" gorm:"primaryKey"`
	ContestID string `json:"contest_id" gorm:"not null;uniqueIndex:idx_vote_voter_contest"`
	EntryID   string `json:"entry_id" gorm:"not null;index"`
	VoterID   string `json:"voter_id" gorm:"not null;uniqueIndex:idx_vote_voter_contest"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
