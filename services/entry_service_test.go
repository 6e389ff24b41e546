package services

import (
	"testing"

	"contest-platform/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRequiresPayment(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntryService(db)

	user := seedUser(t, db, "gina")
	contest := seedContest(t, db, 99)
	p, err := NewParticipationService(db).Register(user.ID, contest.ID)
	require.NoError(t, err)

	_, err = svc.Submit(p.ID, EntrySubmission{Bio: "pick me"})
	assert.ErrorIs(t, err, ErrPaymentRequired)
}

func TestSubmitCreatesEntry(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntryService(db)

	user := seedUser(t, db, "hank")
	contest := seedContest(t, db, 0)
	p := seedPaidParticipation(t, db, user.ID, contest.ID)

	entry, err := svc.Submit(p.ID, EntrySubmission{
		Images:   []string{"https://cdn/a.jpg", "https://cdn/b.jpg"},
		VideoURL: "https://cdn/clip.mp4",
		Bio:      "pick me",
	})
	require.NoError(t, err)

	require.Len(t, entry.Images, 2)
	assert.Equal(t, "https://cdn/a.jpg", entry.Images[0].URL)
	assert.Equal(t, 0, entry.Images[0].SortOrder)
	assert.Equal(t, "https://cdn/clip.mp4", entry.VideoURL)

	var got models.Participation
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, models.ParticipationSubmitted, got.Status)
}

func TestResubmitMergesProvidedFields(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntryService(db)

	user := seedUser(t, db, "ivy")
	contest := seedContest(t, db, 0)
	p := seedPaidParticipation(t, db, user.ID, contest.ID)

	first, err := svc.Submit(p.ID, EntrySubmission{
		Images: []string{"https://cdn/old1.jpg"},
		Bio:    "original bio",
	})
	require.NoError(t, err)

	// New images, no bio: images replaced, bio kept.
	second, err := svc.Submit(p.ID, EntrySubmission{
		Images: []string{"https://cdn/new1.jpg", "https://cdn/new2.jpg"},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "resubmission must not create a second entry")
	assert.Equal(t, "original bio", second.Bio)
	require.Len(t, second.Images, 2)
	assert.Equal(t, "https://cdn/new1.jpg", second.Images[0].URL)

	// Bio only: images untouched.
	third, err := svc.Submit(p.ID, EntrySubmission{Bio: "new bio"})
	require.NoError(t, err)
	assert.Equal(t, "new bio", third.Bio)
	require.Len(t, third.Images, 2)
}

func TestSubmitRejectsTooManyImages(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntryService(db)

	user := seedUser(t, db, "jack")
	contest := seedContest(t, db, 0)
	p := seedPaidParticipation(t, db, user.ID, contest.ID)

	_, err := svc.Submit(p.ID, EntrySubmission{
		Images: []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg"},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitUnknownParticipation(t *testing.T) {
	svc := NewEntryService(newTestDB(t))
	_, err := svc.Submit("missing", EntrySubmission{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViewCountsEveryRead(t *testing.T) {
	db := newTestDB(t)
	svc := NewEntryService(db)

	user := seedUser(t, db, "kate")
	contest := seedContest(t, db, 0)
	p := seedPaidParticipation(t, db, user.ID, contest.ID)
	entry := seedEntry(t, db, p)

	got, err := svc.View(entry.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Views)

	got, err = svc.View(entry.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Views)
}

func TestViewUnknownEntry(t *testing.T) {
	svc := NewEntryService(newTestDB(t))
	_, err := svc.View("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
