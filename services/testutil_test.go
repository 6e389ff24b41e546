package services

import (
	"path/filepath"
	"testing"
	"time"

	"contest-platform/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a file-backed sqlite database in a per-test temp dir. A file
// (not :memory:) plus a single connection keeps the concurrent tests honest:
// every goroutine hits the same serialized database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Bookmark{},
		&models.DeletionRequest{},
		&models.Contest{},
		&models.Participation{},
		&models.Payment{},
		&models.ContestEntry{},
		&models.EntryImage{},
		&models.Vote{},
		&models.ContestWinner{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          name + "@example.com",
		MobileNumber:   "9" + uuid.NewString()[:9],
		ExternalAuthID: uuid.NewString(),
		PasswordHash:   "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedContest(t *testing.T, db *gorm.DB, entryFee float64) *models.Contest {
	t.Helper()
	now := time.Now()
	contest := &models.Contest{
		ID:                  uuid.NewString(),
		Name:                "Monsoon Reels",
		Slug:                "monsoon-reels",
		Theme:               "monsoon",
		BannerURL:           "https://cdn.example.com/banner.jpg",
		EntryFee:            entryFee,
		RegistrationStartAt: now.Add(-time.Hour),
		RegistrationEndAt:   now.Add(24 * time.Hour),
		VotingStartAt:       now.Add(-time.Hour),
		VotingEndAt:         now.Add(48 * time.Hour),
		IsPublished:         true,
	}
	require.NoError(t, db.Create(contest).Error)
	return contest
}

func seedPaidParticipation(t *testing.T, db *gorm.DB, userID, contestID string) *models.Participation {
	t.Helper()
	now := time.Now()
	p := &models.Participation{
		ID:        uuid.NewString(),
		UserID:    userID,
		ContestID: contestID,
		IsPaid:    true,
		PaidAt:    &now,
		Status:    models.ParticipationRegistered,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedEntry(t *testing.T, db *gorm.DB, p *models.Participation) *models.ContestEntry {
	t.Helper()
	entry := &models.ContestEntry{
		ID:              uuid.NewString(),
		ParticipationID: p.ID,
		UserID:          p.UserID,
		ContestID:       p.ContestID,
		Bio:             "hello",
		IsApproved:      true,
		SubmittedAt:     time.Now(),
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}
