package services

import (
	"testing"
	"time"

	"contest-platform/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec() ContestSpec {
	now := time.Now()
	return ContestSpec{
		Name:                "Monsoon Reels",
		Theme:               "monsoon",
		BannerURL:           "https://cdn.example.com/banner.jpg",
		EntryFee:            99,
		PrizePool:           10000,
		RegistrationStartAt: now,
		RegistrationEndAt:   now.Add(24 * time.Hour),
		VotingEndAt:         now.Add(48 * time.Hour),
	}
}

func TestCreateContest(t *testing.T) {
	svc := NewContestService(newTestDB(t))

	contest, err := svc.Create(validSpec())
	require.NoError(t, err)

	assert.Equal(t, "monsoon-reels", contest.Slug)
	assert.True(t, contest.VotingStartAt.Equal(contest.RegistrationStartAt),
		"voting must open with registration")
	assert.False(t, contest.WinnersAnnounced)
}

func TestCreateContestRejectsBadSpecs(t *testing.T) {
	svc := NewContestService(newTestDB(t))

	cases := map[string]func(*ContestSpec){
		"missing name":               func(s *ContestSpec) { s.Name = "" },
		"missing banner":             func(s *ContestSpec) { s.BannerURL = "" },
		"negative fee":               func(s *ContestSpec) { s.EntryFee = -1 },
		"registration ends first":    func(s *ContestSpec) { s.RegistrationEndAt = s.RegistrationStartAt.Add(-time.Hour) },
		"voting ends before opening": func(s *ContestSpec) { s.VotingEndAt = s.RegistrationStartAt.Add(-time.Hour) },
		"registration outlives voting": func(s *ContestSpec) {
			s.RegistrationEndAt = s.VotingEndAt.Add(time.Hour)
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			spec := validSpec()
			mutate(&spec)
			_, err := svc.Create(spec)
			assert.ErrorIs(t, err, ErrInvalidContestSpec)
		})
	}
}

func TestGetContestRecomputesParticipantCount(t *testing.T) {
	db := newTestDB(t)
	svc := NewContestService(db)

	contest := seedContest(t, db, 99)
	paidUser := seedUser(t, db, "paid")
	seedPaidParticipation(t, db, paidUser.ID, contest.ID)

	pendingUser := seedUser(t, db, "pending")
	require.NoError(t, db.Create(&models.Participation{
		ID: "p-pending", UserID: pendingUser.ID, ContestID: contest.ID,
		Status: models.ParticipationPendingPayment,
	}).Error)

	// Drift the advisory counter; the read must not trust it.
	require.NoError(t, db.Model(&models.Contest{}).Where("id = ?", contest.ID).
		UpdateColumn("total_participants", 99).Error)

	got, err := svc.GetByID(contest.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.TotalParticipants)
}

func TestGetContestUnknownID(t *testing.T) {
	svc := NewContestService(newTestDB(t))
	_, err := svc.GetByID("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetContestAttachesWinnersOnceAnnounced(t *testing.T) {
	db := newTestDB(t)
	contests := NewContestService(db)
	winners := NewWinnerService(db)

	contest := seedContest(t, db, 0)
	user := seedUser(t, db, "artist")
	p := seedPaidParticipation(t, db, user.ID, contest.ID)
	seedEntry(t, db, p)

	before, err := contests.GetByID(contest.ID)
	require.NoError(t, err)
	assert.Empty(t, before.Winners)

	_, err = winners.Publish(contest.ID)
	require.NoError(t, err)

	after, err := contests.GetByID(contest.ID)
	require.NoError(t, err)
	require.Len(t, after.Winners, 1)
	assert.Equal(t, 1, after.Winners[0].Rank)
}
