package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"contest-platform/models"
	"contest-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EntryService struct {
	DB *gorm.DB
}

func NewEntryService(db *gorm.DB) *EntryService {
	return &EntryService{DB: db}
}

// EntrySubmission carries the fields of one submit call. Nil/empty fields are
// "not provided" and leave the existing value untouched on re-submission.
type EntrySubmission struct {
	Images   []string
	VideoURL string
	Bio      string
}

// Submit creates or updates the entry for a paid participation. Re-submission
// is always allowed; provided fields overwrite, omitted fields are kept.
func (s *EntryService) Submit(participationID string, sub EntrySubmission) (*models.ContestEntry, error) {
	var participation models.Participation
	if err := s.DB.First(&participation, "id = ?", participationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: participation %s", ErrNotFound, participationID)
		}
		return nil, err
	}
	if !participation.IsPaid {
		return nil, ErrPaymentRequired
	}
	if len(sub.Images) > models.MaxEntryImages {
		return nil, fmt.Errorf("%w: maximum %d images allowed", ErrValidation, models.MaxEntryImages)
	}

	var entry models.ContestEntry
	now := time.Now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		ferr := tx.Where("participation_id = ?", participationID).First(&entry).Error
		switch {
		case ferr == nil:
			updates := map[string]interface{}{
				"submitted_at": now,
				"is_approved":  true,
			}
			if sub.VideoURL != "" {
				updates["video_url"] = sub.VideoURL
			}
			if sub.Bio != "" {
				updates["bio"] = sub.Bio
			}
			if err := tx.Model(&entry).Updates(updates).Error; err != nil {
				return err
			}
			if len(sub.Images) > 0 {
				if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.EntryImage{}).Error; err != nil {
					return err
				}
				if err := createEntryImages(tx, entry.ID, sub.Images); err != nil {
					return err
				}
			}
		case errors.Is(ferr, gorm.ErrRecordNotFound):
			entry = models.ContestEntry{
				ID:              uuid.NewString(),
				ParticipationID: participationID,
				UserID:          participation.UserID,
				ContestID:       participation.ContestID,
				VideoURL:        sub.VideoURL,
				Bio:             sub.Bio,
				IsApproved:      true,
				SubmittedAt:     now,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			if err := createEntryImages(tx, entry.ID, sub.Images); err != nil {
				return err
			}
		default:
			return ferr
		}

		return tx.Model(&models.Participation{}).
			Where("id = ?", participationID).
			UpdateColumn("status", models.ParticipationSubmitted).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit entry: %w", err)
	}

	return s.loadEntry(entry.ID)
}

func createEntryImages(tx *gorm.DB, entryID string, urls []string) error {
	for i, url := range urls {
		img := models.EntryImage{
			ID:        uuid.NewString(),
			EntryID:   entryID,
			URL:       url,
			SortOrder: i,
		}
		if err := tx.Create(&img).Error; err != nil {
			return err
		}
	}
	return nil
}

// View returns an entry and bumps its view counter as a side effect of the
// read. Repeated reads count repeatedly; that is accepted.
func (s *EntryService) View(entryID string) (*models.ContestEntry, error) {
	result := s.DB.Model(&models.ContestEntry{}).
		Where("id = ?", entryID).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
	}
	return s.loadEntry(entryID)
}

func (s *EntryService) loadEntry(entryID string) (*models.ContestEntry, error) {
	var entry models.ContestEntry
	if err := s.DB.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).First(&entry, "id = ?", entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
		}
		return nil, err
	}

	var votes int64
	if err := s.DB.Model(&models.Vote{}).Where("entry_id = ?", entryID).Count(&votes).Error; err != nil {
		return nil, err
	}
	entry.TotalVotes = votes
	return &entry, nil
}

// UploadEntry handles POST /contests/:id/upload-entry (multipart).
func (s *EntryService) UploadEntry(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return respondError(c, err)
	}
	contestID := c.Params("id")

	var participation models.Participation
	if err := s.DB.Where("user_id = ? AND contest_id = ?", user.ID, contestID).
		First(&participation).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "user is not registered for this contest"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid multipart form"})
	}

	sub := EntrySubmission{Bio: c.FormValue("bio")}

	files := form.File["images"]
	if len(files) > models.MaxEntryImages {
		return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("maximum %d images allowed", models.MaxEntryImages)})
	}
	for _, f := range files {
		ext := filepath.Ext(f.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "entries/images/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(f, key)
		if err != nil {
			log.Printf("ERROR uploading entry image: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload image"})
		}
		sub.Images = append(sub.Images, url)
	}

	if videos := form.File["video"]; len(videos) > 0 {
		v := videos[0]
		ext := filepath.Ext(v.Filename)
		if ext == "" {
			ext = ".mp4"
		}
		key := "entries/videos/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(v, key)
		if err != nil {
			log.Printf("ERROR uploading entry video: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload video"})
		}
		sub.VideoURL = url
	}

	entry, err := s.Submit(participation.ID, sub)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Entry submitted", "entry": entry})
}

// GetEntryByID handles GET /contests/entries/:entry_id. Every read counts a
// view. When the request is authenticated the caller's vote context is
// attached so the client can render its vote state.
func (s *EntryService) GetEntryByID(c *fiber.Ctx) error {
	entry, err := s.View(c.Params("entry_id"))
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{"entry": entry}

	if user, err := currentUser(c, s.DB); err == nil {
		var vote models.Vote
		if err := s.DB.Where("voter_id = ? AND contest_id = ?", user.ID, entry.ContestID).
			First(&vote).Error; err == nil {
			resp["hasVotedInContest"] = true
			resp["isVoted"] = vote.EntryID == entry.ID
		} else {
			resp["hasVotedInContest"] = false
			resp["isVoted"] = false
		}
	}
	return c.JSON(resp)
}

// GetMyEntries handles GET /contests/my-entries.
func (s *EntryService) GetMyEntries(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return respondError(c, err)
	}
	return s.listUserEntries(c, user.ID)
}

// GetUserEntries handles GET /contests/user/:user_id/entries.
func (s *EntryService) GetUserEntries(c *fiber.Ctx) error {
	return s.listUserEntries(c, c.Params("user_id"))
}

func (s *EntryService) listUserEntries(c *fiber.Ctx, userID string) error {
	var entries []models.ContestEntry
	if err := s.DB.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		log.Printf("ERROR fetching entries for user %s: %v", userID, err)
		return respondError(c, err)
	}

	for i := range entries {
		var votes int64
		if err := s.DB.Model(&models.Vote{}).
			Where("entry_id = ?", entries[i].ID).
			Count(&votes).Error; err != nil {
			return respondError(c, err)
		}
		entries[i].TotalVotes = votes
	}
	return c.JSON(fiber.Map{"entries": entries})
}
