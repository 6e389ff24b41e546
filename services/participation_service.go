package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"contest-platform/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ParticipationService struct {
	DB *gorm.DB
}

func NewParticipationService(db *gorm.DB) *ParticipationService {
	return &ParticipationService{DB: db}
}

// Register is a get-or-create: a second call for the same (user, contest)
// returns the existing participation untouched. For free contests the
// participation is paid immediately and the participant counter moves in the
// same transaction; for paid contests the counter waits for settlement.
func (s *ParticipationService) Register(userID, contestID string) (*models.Participation, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}

	var contest models.Contest
	if err := s.DB.First(&contest, "id = ?", contestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contest %s", ErrNotFound, contestID)
		}
		return nil, err
	}

	var existing models.Participation
	err := s.DB.Where("user_id = ? AND contest_id = ?", userID, contestID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	free := contest.EntryFee == 0
	now := time.Now()
	participation := &models.Participation{
		ID:            uuid.NewString(),
		UserID:        userID,
		ContestID:     contestID,
		IsPaid:        free,
		PaymentAmount: contest.EntryFee,
		Status:        models.ParticipationRegistered,
	}
	if free {
		participation.PaidAt = &now
	} else {
		participation.Status = models.ParticipationPendingPayment
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(participation).Error; err != nil {
			return err
		}
		if free {
			return tx.Model(&models.Contest{}).
				Where("id = ?", contestID).
				UpdateColumn("total_participants", gorm.Expr("total_participants + 1")).Error
		}
		return nil
	})
	if err != nil {
		// Loser of a concurrent register race: the unique index rejected the
		// insert, so hand back the row the winner created.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var winner models.Participation
			if ferr := s.DB.Where("user_id = ? AND contest_id = ?", userID, contestID).
				First(&winner).Error; ferr == nil {
				return &winner, nil
			}
			return nil, fmt.Errorf("%w: participation", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create participation: %w", err)
	}
	return participation, nil
}

// ReconcilePayment marks a participation paid as the result of a settled
// payment. The is_paid=false guard makes the side effects at-most-once: a
// duplicate delivery of the same success event updates zero rows and skips
// the counter increment. Must run inside the caller's transaction.
func (s *ParticipationService) ReconcilePayment(tx *gorm.DB, participationID, paymentID string, paidAt time.Time) (bool, error) {
	var participation models.Participation
	if err := tx.First(&participation, "id = ?", participationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: participation %s", ErrNotFound, participationID)
		}
		return false, err
	}

	result := tx.Model(&models.Participation{}).
		Where("id = ? AND is_paid = ?", participationID, false).
		Updates(map[string]interface{}{
			"is_paid":    true,
			"status":     models.ParticipationRegistered,
			"paid_at":    paidAt,
			"payment_id": paymentID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	if err := tx.Model(&models.Contest{}).
		Where("id = ?", participation.ContestID).
		UpdateColumn("total_participants", gorm.Expr("total_participants + 1")).Error; err != nil {
		return false, err
	}
	return true, nil
}

// RegisterForContest handles POST /contests/:id/register.
func (s *ParticipationService) RegisterForContest(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return respondError(c, err)
	}

	participation, err := s.Register(user.ID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	if participation.IsPaid {
		return c.Status(201).JSON(fiber.Map{
			"message":       "Registered (no payment required)",
			"participation": participation,
		})
	}
	return c.Status(201).JSON(fiber.Map{
		"message":       "Registered - payment required",
		"participation": participation,
	})
}

// GetMyParticipations handles GET /contests/my-participations.
func (s *ParticipationService) GetMyParticipations(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return respondError(c, err)
	}

	var participations []models.Participation
	if err := s.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&participations).Error; err != nil {
		log.Printf("ERROR fetching participations for user %s: %v", user.ID, err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"participations": participations})
}

// GetParticipants handles GET /contests/:id/participants. Only paid
// participations are listed, enriched with the entry reference when one exists.
func (s *ParticipationService) GetParticipants(c *fiber.Ctx) error {
	contestID := c.Params("id")

	var participations []models.Participation
	if err := s.DB.Where("contest_id = ? AND is_paid = ?", contestID, true).
		Order("created_at DESC").
		Find(&participations).Error; err != nil {
		log.Printf("ERROR fetching participants for contest %s: %v", contestID, err)
		return respondError(c, err)
	}

	type participant struct {
		models.Participation
		EntryID        *string `json:"entry_id"`
		EntryThumbnail *string `json:"entry_thumbnail"`
	}
	out := make([]participant, 0, len(participations))
	for _, p := range participations {
		item := participant{Participation: p}
		var entry models.ContestEntry
		if err := s.DB.Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).Where("participation_id = ?", p.ID).First(&entry).Error; err == nil {
			item.EntryID = &entry.ID
			if len(entry.Images) > 0 {
				item.EntryThumbnail = &entry.Images[0].URL
			}
		}
		out = append(out, item)
	}
	return c.JSON(fiber.Map{"participants": out})
}

// GetReferralLink handles GET /contests/:id/referral/:participation_id. It
// deep links to the participant's entry when one exists, otherwise to the
// contest page.
func (s *ParticipationService) GetReferralLink(c *fiber.Ctx) error {
	contestID := c.Params("id")
	participationID := c.Params("participation_id")

	if err := s.DB.First(&models.Contest{}, "id = ?", contestID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "contest not found"})
	}
	if err := s.DB.First(&models.Participation{}, "id = ?", participationID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "participation not found"})
	}

	frontendBase := os.Getenv("FRONTEND_URL")
	if frontendBase == "" {
		frontendBase = "https://idt.app"
	}

	var entry models.ContestEntry
	referralURL := fmt.Sprintf("%s/contest/%s", frontendBase, contestID)
	if err := s.DB.Where("participation_id = ?", participationID).First(&entry).Error; err == nil {
		referralURL = fmt.Sprintf("%s/vote?entryId=%s", frontendBase, entry.ID)
	}
	return c.JSON(fiber.Map{"referralUrl": referralURL})
}
