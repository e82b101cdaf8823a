package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodforward-data/internal/domain"
)

func seedDonation(t *testing.T, repo *MemoryDonationsRepo, id, status string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, repo.CreateDonation(context.Background(), &domain.Donation{
		DonationID: id,
		Title:      "Test donation",
		Category:   domain.CategoryProduce,
		Status:     status,
		DonorID:    "donor-1",
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}))
}

func TestMemoryRepo_GetMissingReturnsNotFound(t *testing.T) {
	repo := NewMemoryDonationsRepo()
	_, err := repo.GetDonation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepo_ListNewestFirst(t *testing.T) {
	repo := NewMemoryDonationsRepo()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seedDonation(t, repo, "old", domain.DonationAvailable, base)
	seedDonation(t, repo, "new", domain.DonationAvailable, base.AddDate(0, 0, 3))
	seedDonation(t, repo, "mid", domain.DonationAvailable, base.AddDate(0, 0, 1))

	list, err := repo.ListDonations(context.Background(), DonationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].DonationID)
	assert.Equal(t, "mid", list[1].DonationID)
	assert.Equal(t, "old", list[2].DonationID)
}

func TestMemoryRepo_ListFilters(t *testing.T) {
	repo := NewMemoryDonationsRepo()
	now := time.Now()
	seedDonation(t, repo, "a", domain.DonationAvailable, now)
	seedDonation(t, repo, "b", domain.DonationClaimed, now.Add(time.Second))

	list, err := repo.ListDonations(context.Background(), DonationFilter{Status: domain.DonationClaimed})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].DonationID)

	list, err = repo.ListDonations(context.Background(), DonationFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryRepo_ApplyClaimGuard(t *testing.T) {
	repo := NewMemoryDonationsRepo()
	ctx := context.Background()
	now := time.Now()
	seedDonation(t, repo, "d1", domain.DonationAvailable, now)

	claim := &domain.Claim{
		ClaimID:        "c1",
		DonationID:     "d1",
		DonorID:        "donor-1",
		ClaimType:      domain.ClaimTypeRecipient,
		Status:         domain.ClaimPending,
		RecipientID:    "rec-1",
		RecipientName:  "Hope Shelter",
		RecipientEmail: "hope@example.com",
		CreatedAt:      now,
	}
	update := ClaimUpdate{RecipientID: "rec-1", RecipientName: "Hope Shelter", ClaimedAt: now}

	require.NoError(t, repo.ApplyClaim(ctx, claim, update))

	d, err := repo.GetDonation(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DonationClaimed, d.Status)
	assert.Equal(t, "rec-1", d.RecipientID)

	// second claim loses: guard fails AND the claim record is not written
	second := *claim
	second.ClaimID = "c2"
	second.RecipientID = "rec-2"
	err = repo.ApplyClaim(ctx, &second, ClaimUpdate{RecipientID: "rec-2", ClaimedAt: now})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = repo.GetClaim(ctx, "c2")
	assert.ErrorIs(t, err, ErrNotFound)

	claims, err := repo.ListClaimsByDonation(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestMemoryRepo_AssignGuards(t *testing.T) {
	repo := NewMemoryDonationsRepo()
	ctx := context.Background()
	now := time.Now()
	seedDonation(t, repo, "d1", domain.DonationAvailable, now)

	update := AssignUpdate{VolunteerID: "vol-1", VolunteerName: "Sam", AssignedAt: now}

	// not claimed yet
	assert.ErrorIs(t, repo.AssignVolunteer(ctx, "d1", update), ErrConflict)

	seedDonation(t, repo, "d2", domain.DonationClaimed, now)
	require.NoError(t, repo.AssignVolunteer(ctx, "d2", update))

	// volunteer slot already taken
	err := repo.AssignVolunteer(ctx, "d2", AssignUpdate{VolunteerID: "vol-2", AssignedAt: now})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryRepo_CompleteExpectedStatus(t *testing.T) {
	repo := NewMemoryDonationsRepo()
	ctx := context.Background()
	now := time.Now()
	seedDonation(t, repo, "d1", domain.DonationClaimed, now)

	err := repo.CompleteDonation(ctx, "d1", domain.DonationAssigned, CompleteUpdate{CompletedAt: now})
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, repo.CompleteDonation(ctx, "d1", domain.DonationClaimed, CompleteUpdate{Notes: "done", CompletedAt: now}))
	d, err := repo.GetDonation(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DonationCompleted, d.Status)
	assert.Equal(t, "done", d.CompletionNotes)
}

func TestMemoryRepo_DeleteKeepsClaims(t *testing.T) {
	repo := NewMemoryDonationsRepo()
	ctx := context.Background()
	now := time.Now()
	seedDonation(t, repo, "d1", domain.DonationAvailable, now)

	claim := &domain.Claim{
		ClaimID: "c1", DonationID: "d1", DonorID: "donor-1",
		ClaimType: domain.ClaimTypeRecipient, Status: domain.ClaimPending,
		RecipientID: "rec-1", RecipientName: "Hope", RecipientEmail: "h@x.com",
		CreatedAt: now,
	}
	require.NoError(t, repo.ApplyClaim(ctx, claim, ClaimUpdate{RecipientID: "rec-1", ClaimedAt: now}))
	require.NoError(t, repo.DeleteDonation(ctx, "d1"))

	// orphan claim is expected
	claims, err := repo.ListClaimsByDonation(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestMemoryRepo_BulkAllOrNothing(t *testing.T) {
	repo := NewMemoryDonationsRepo()
	ctx := context.Background()
	now := time.Now()
	seedDonation(t, repo, "d1", domain.DonationAvailable, now)
	seedDonation(t, repo, "d2", domain.DonationAvailable, now)

	err := repo.BulkUpdateStatus(ctx, []string{"d1", "missing"}, domain.DonationCompleted)
	assert.ErrorIs(t, err, ErrConflict)

	d, err := repo.GetDonation(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DonationAvailable, d.Status)

	require.NoError(t, repo.BulkUpdateStatus(ctx, []string{"d1", "d2"}, domain.DonationCompleted))

	err = repo.BulkDeleteDonations(ctx, []string{"d1", "missing"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = repo.GetDonation(ctx, "d1")
	assert.NoError(t, err)

	require.NoError(t, repo.BulkDeleteDonations(ctx, []string{"d1", "d2"}))
	_, err = repo.GetDonation(ctx, "d1")
	assert.ErrorIs(t, err, ErrNotFound)
}
