package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"contest-platform/models"
	"contest-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type ContestService struct {
	DB *gorm.DB
}

func NewContestService(db *gorm.DB) *ContestService {
	return &ContestService{DB: db}
}

// ContestSpec carries the fields an operator supplies when creating a contest.
type ContestSpec struct {
	Name          string
	Theme         string
	Description   string
	CelebrityName string
	BannerURL     string
	EntryFee      float64
	PrizePool     float64

	RegistrationStartAt time.Time
	RegistrationEndAt   time.Time
	VotingEndAt         time.Time
	ResultsAnnounceAt   *time.Time
}

// Create validates the spec, derives the voting window and persists the
// contest. Voting opens the instant registration opens so early entrants can
// build vote momentum while later registrants still join.
func (s *ContestService) Create(spec ContestSpec) (*models.Contest, error) {
	if spec.Name == "" || spec.Theme == "" || spec.BannerURL == "" {
		return nil, fmt.Errorf("%w: name, theme and banner are required", ErrInvalidContestSpec)
	}
	if spec.EntryFee < 0 || spec.PrizePool < 0 {
		return nil, fmt.Errorf("%w: entry_fee and prize_pool must be non-negative", ErrInvalidContestSpec)
	}
	if spec.RegistrationStartAt.IsZero() || spec.RegistrationEndAt.IsZero() || spec.VotingEndAt.IsZero() {
		return nil, fmt.Errorf("%w: registration and voting windows are required", ErrInvalidContestSpec)
	}

	votingStart := spec.RegistrationStartAt

	if !spec.RegistrationStartAt.Before(spec.RegistrationEndAt) {
		return nil, fmt.Errorf("%w: registration end must be after registration start", ErrInvalidContestSpec)
	}
	if !spec.VotingEndAt.After(votingStart) {
		return nil, fmt.Errorf("%w: voting end must be after voting start", ErrInvalidContestSpec)
	}
	if spec.RegistrationEndAt.After(spec.VotingEndAt) {
		return nil, fmt.Errorf("%w: registration cannot end after voting ends", ErrInvalidContestSpec)
	}

	contest := &models.Contest{
		ID:                  uuid.NewString(),
		Name:                spec.Name,
		Slug:                slug.Make(spec.Name),
		Theme:               spec.Theme,
		Description:         spec.Description,
		CelebrityName:       spec.CelebrityName,
		BannerURL:           spec.BannerURL,
		EntryFee:            spec.EntryFee,
		PrizePool:           spec.PrizePool,
		RegistrationStartAt: spec.RegistrationStartAt,
		RegistrationEndAt:   spec.RegistrationEndAt,
		VotingStartAt:       votingStart,
		VotingEndAt:         spec.VotingEndAt,
		ResultsAnnounceAt:   spec.ResultsAnnounceAt,
		IsPublished:         true,
	}
	if err := s.DB.Create(contest).Error; err != nil {
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}
	return contest, nil
}

// GetByID returns the contest with the authoritative paid-participation count
// in place of the advisory counter, and the winner snapshot when announced.
func (s *ContestService) GetByID(id string) (*models.Contest, error) {
	var contest models.Contest
	if err := s.DB.First(&contest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contest %s", ErrNotFound, id)
		}
		return nil, err
	}

	paid, err := s.paidParticipantCount(id)
	if err != nil {
		return nil, err
	}
	contest.TotalParticipants = paid

	if contest.WinnersAnnounced {
		if err := s.DB.Where("contest_id = ?", id).
			Order("rank ASC").
			Find(&contest.Winners).Error; err != nil {
			return nil, err
		}
	}
	return &contest, nil
}

// List returns all contests, newest first, with live paid counts.
func (s *ContestService) List() ([]models.Contest, error) {
	var contests []models.Contest
	if err := s.DB.Order("created_at DESC").Find(&contests).Error; err != nil {
		return nil, err
	}
	for i := range contests {
		paid, err := s.paidParticipantCount(contests[i].ID)
		if err != nil {
			return nil, err
		}
		contests[i].TotalParticipants = paid
	}
	return contests, nil
}

func (s *ContestService) paidParticipantCount(contestID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Participation{}).
		Where("contest_id = ? AND is_paid = ?", contestID, true).
		Count(&count).Error
	return count, err
}

// CreateContest handles POST /contests (admin, multipart form with banner).
func (s *ContestService) CreateContest(c *fiber.Ctx) error {
	spec := ContestSpec{
		Name:          c.FormValue("name"),
		Theme:         c.FormValue("theme"),
		Description:   c.FormValue("description"),
		CelebrityName: c.FormValue("celebrity_name"),
	}

	if v := c.FormValue("entry_fee"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return c.Status(400).JSON(fiber.Map{"error": "entry_fee must be a non-negative number"})
		}
		spec.EntryFee = f
	}
	if v := c.FormValue("prize_pool"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return c.Status(400).JSON(fiber.Map{"error": "prize_pool must be a non-negative number"})
		}
		spec.PrizePool = f
	}

	var err error
	spec.RegistrationStartAt, err = parseFormTime(c, "registration_start_at")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid registration_start_at (use RFC3339)"})
	}
	spec.RegistrationEndAt, err = parseFormTime(c, "registration_end_at")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid registration_end_at (use RFC3339)"})
	}
	spec.VotingEndAt, err = parseFormTime(c, "voting_end_at")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid voting_end_at (use RFC3339)"})
	}
	if v := c.FormValue("results_announce_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid results_announce_at (use RFC3339)"})
		}
		spec.ResultsAnnounceAt = &t
	}

	// Banner is required and goes straight to R2.
	banner, err := c.FormFile("banner")
	if err != nil || banner.Size == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "banner image is required"})
	}
	ext := filepath.Ext(banner.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	key := "contests/banners/" + uuid.NewString() + ext
	url, err := utils.UploadFileToR2(banner, key)
	if err != nil {
		log.Printf("ERROR uploading contest banner: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload banner"})
	}
	spec.BannerURL = url

	contest, err := s.Create(spec)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "contest created successfully", "contest": contest})
}

// GetAllContests handles GET /contests.
func (s *ContestService) GetAllContests(c *fiber.Ctx) error {
	contests, err := s.List()
	if err != nil {
		log.Printf("ERROR fetching contests: %v", err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"contests": contests})
}

// GetContestByID handles GET /contests/:id.
func (s *ContestService) GetContestByID(c *fiber.Ctx) error {
	contest, err := s.GetByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"contest": contest})
}

func parseFormTime(c *fiber.Ctx, field string) (time.Time, error) {
	return time.Parse(time.RFC3339, c.FormValue(field))
}
