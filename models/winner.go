package models

import (
	"time"
)

// ContestWinner is one row of the published winner snapshot (rank 1..3).
// Rows are created as a batch by winner publication and never modified after
// the contest's winners_announced flag flips.
type ContestWinner struct {
	ID        string `json:"id" gorm:"primaryKey"`
	ContestID string `json:"contest_id" gorm:"not null;uniqueIndex:idx_winner_contest_rank"`
	EntryID   string `json:"entry_id" gorm:"not null"`
	UserID    string `json:"user_id" gorm:"not null"`

	Rank           int   `json:"rank" gorm:"not null;uniqueIndex:idx_winner_contest_rank"`
	VotesAtWinTime int64 `json:"votes_at_win_time" gorm:"not null"`

	AnnouncedAt time.Time `json:"announced_at"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}
