package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"contest-platform/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WinnerService struct {
	DB *gorm.DB
}

func NewWinnerService(db *gorm.DB) *WinnerService {
	return &WinnerService{DB: db}
}

// RankedEntry is one entry with its live tally, as ranked by Preview/Publish.
type RankedEntry struct {
	models.ContestEntry
	TotalVotes int64 `json:"total_votes"`
}

// topEntries ranks a contest's entries by live vote count, descending. The
// stable sort over entries loaded in creation order is the tie-break: equal
// tallies keep the earlier-submitted entry first, so repeated calls with the
// same votes always produce the same order. The id column breaks timestamp
// ties so the load order itself is total.
func (s *WinnerService) topEntries(tx *gorm.DB, contestID string, limit int) ([]RankedEntry, error) {
	var entries []models.ContestEntry
	if err := tx.Where("contest_id = ?", contestID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	ranked := make([]RankedEntry, 0, len(entries))
	for _, entry := range entries {
		var votes int64
		if err := tx.Model(&models.Vote{}).
			Where("entry_id = ?", entry.ID).
			Count(&votes).Error; err != nil {
			return nil, err
		}
		ranked = append(ranked, RankedEntry{ContestEntry: entry, TotalVotes: votes})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalVotes > ranked[j].TotalVotes
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Preview computes the current top 3 without side effects. Callable any number
// of times.
func (s *WinnerService) Preview(contestID string) ([]RankedEntry, error) {
	if err := s.DB.First(&models.Contest{}, "id = ?", contestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contest %s", ErrNotFound, contestID)
		}
		return nil, err
	}
	return s.topEntries(s.DB, contestID, 3)
}

// Publish ranks the contest's entries and persists the winner snapshot,
// exactly once. The winners_announced flag is flipped with a conditional
// update inside the same transaction that writes the winner rows: a racing
// second publish updates zero rows and backs out with AlreadyPublished, and
// any failure after the flip rolls the flag back with the rows.
func (s *WinnerService) Publish(contestID string) ([]models.ContestWinner, error) {
	var contest models.Contest
	if err := s.DB.First(&contest, "id = ?", contestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contest %s", ErrNotFound, contestID)
		}
		return nil, err
	}
	if contest.WinnersAnnounced {
		return nil, ErrAlreadyPublished
	}
	if contest.ResultsAnnounceAt != nil && time.Now().Before(*contest.ResultsAnnounceAt) {
		return nil, ErrTooEarly
	}

	announcedAt := time.Now()
	var winners []models.ContestWinner

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Contest{}).
			Where("id = ? AND winners_announced = ?", contestID, false).
			Updates(map[string]interface{}{
				"winners_announced":    true,
				"winners_announced_at": announcedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyPublished
		}

		// Ranking is recomputed here; client-supplied rankings are never
		// trusted.
		top, err := s.topEntries(tx, contestID, 3)
		if err != nil {
			return err
		}
		if len(top) == 0 {
			return ErrNoEntries
		}

		for i, ranked := range top {
			winner := models.ContestWinner{
				ID:             uuid.NewString(),
				ContestID:      contestID,
				EntryID:        ranked.ContestEntry.ID,
				UserID:         ranked.ContestEntry.UserID,
				Rank:           i + 1,
				VotesAtWinTime: ranked.TotalVotes,
				AnnouncedAt:    announcedAt,
			}
			if err := tx.Create(&winner).Error; err != nil {
				return err
			}
			winners = append(winners, winner)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return winners, nil
}

// GetPotentialWinners handles GET /contests/:id/potential-winners.
func (s *WinnerService) GetPotentialWinners(c *fiber.Ctx) error {
	winners, err := s.Preview(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"winners": winners})
}

// PublishWinners handles POST /contests/:id/publish-winners.
func (s *WinnerService) PublishWinners(c *fiber.Ctx) error {
	winners, err := s.Publish(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Winners published successfully", "winners": winners})
}
