package services

import (
	"errors"
	"fmt"
	"log"

	"contest-platform/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// ResolveUser maps the opaque external auth subject id to the internal user
// record. Everything identity-gated goes through here.
func (s *UserService) ResolveUser(externalAuthID string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "external_auth_id = ?", externalAuthID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// currentUser resolves the authenticated user from the subject id the auth
// middleware stored in locals.
func currentUser(c *fiber.Ctx, db *gorm.DB) (*models.User, error) {
	externalID, _ := c.Locals("auth_uid").(string)
	if externalID == "" {
		return nil, ErrUnauthorized
	}
	var user models.User
	if err := db.First(&user, "external_auth_id = ?", externalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// Me handles GET /users/me.
func (s *UserService) Me(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// ToggleBookmark handles POST /bookmark/:contest_id. Adds the bookmark when
// absent, removes it when present.
func (s *UserService) ToggleBookmark(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return respondError(c, err)
	}
	contestID := c.Params("contest_id")

	if err := s.DB.First(&models.Contest{}, "id = ?", contestID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "contest not found"})
	}

	var bookmark models.Bookmark
	err = s.DB.Where("user_id = ? AND contest_id = ?", user.ID, contestID).First(&bookmark).Error
	switch {
	case err == nil:
		if err := s.DB.Delete(&bookmark).Error; err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Bookmark removed", "isBookmarked": false})
	case errors.Is(err, gorm.ErrRecordNotFound):
		bookmark = models.Bookmark{ID: uuid.NewString(), UserID: user.ID, ContestID: contestID}
		if err := s.DB.Create(&bookmark).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return c.JSON(fiber.Map{"message": "Bookmark added", "isBookmarked": true})
			}
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Bookmark added", "isBookmarked": true})
	default:
		return respondError(c, err)
	}
}

// GetBookmarkedContests handles GET /bookmarks.
func (s *UserService) GetBookmarkedContests(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return respondError(c, err)
	}

	var bookmarks []models.Bookmark
	if err := s.DB.Where("user_id = ?", user.ID).Find(&bookmarks).Error; err != nil {
		return respondError(c, err)
	}

	contests := make([]models.Contest, 0, len(bookmarks))
	for _, b := range bookmarks {
		var contest models.Contest
		if err := s.DB.First(&contest, "id = ?", b.ContestID).Error; err == nil {
			contests = append(contests, contest)
		}
	}
	return c.JSON(fiber.Map{"bookmarks": contests})
}

// RequestDeletion handles POST /users/me/deletion-request.
func (s *UserService) RequestDeletion(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return respondError(c, err)
	}

	type Req struct {
		Reason string `json:"reason"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	request := models.DeletionRequest{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Reason: req.Reason,
		Status: "PENDING",
	}
	if err := s.DB.Create(&request).Error; err != nil {
		log.Printf("ERROR creating deletion request for user %s: %v", user.ID, err)
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Deletion request received", "request": request})
}
