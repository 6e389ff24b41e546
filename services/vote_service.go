package services

import (
	"errors"
	"fmt"

	"contest-platform/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteService struct {
	DB *gorm.DB
}

func NewVoteService(db *gorm.DB) *VoteService {
	return &VoteService{DB: db}
}

// Vote records one vote by voterID in contestID for entryID. Uniqueness rides
// on the (voter, contest) index rather than a pre-check: two concurrent votes
// from the same voter both reach the insert and exactly one survives.
func (s *VoteService) Vote(voterID, contestID, entryID string) (*models.Vote, error) {
	var contest models.Contest
	if err := s.DB.First(&contest, "id = ?", contestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contest %s", ErrNotFound, contestID)
		}
		return nil, err
	}

	var entry models.ContestEntry
	if err := s.DB.First(&entry, "id = ?", entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
		}
		return nil, err
	}
	if entry.ContestID != contestID {
		return nil, ErrEntryContestMismatch
	}

	vote := &models.Vote{
		ID:        uuid.NewString(),
		ContestID: contestID,
		EntryID:   entryID,
		VoterID:   voterID,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(vote).Error; err != nil {
			return err
		}
		return tx.Model(&models.Contest{}).
			Where("id = ?", contestID).
			UpdateColumn("total_votes", gorm.Expr("total_votes + 1")).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateVote
		}
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}
	return vote, nil
}

// Tally counts the votes for one entry, on demand. The contest-level counter
// is advisory only; this is the authoritative number.
func (s *VoteService) Tally(entryID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Vote{}).Where("entry_id = ?", entryID).Count(&count).Error
	return count, err
}

// VoteForEntry handles POST /contests/:id/vote.
func (s *VoteService) VoteForEntry(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return respondError(c, err)
	}

	type Req struct {
		EntryID string `json:"entryId"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.EntryID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "entryId required"})
	}

	vote, err := s.Vote(user.ID, c.Params("id"), req.EntryID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Vote recorded", "vote": vote})
}
