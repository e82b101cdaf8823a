package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodforward-data/internal/domain"
)

func newMockRepo(t *testing.T) (*PostgresDonationsRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresDonationsRepository(db), mock
}

func testClaim(now time.Time) *domain.Claim {
	return &domain.Claim{
		ClaimID:        "c1",
		DonationID:     "d1",
		DonorID:        "donor-1",
		ClaimType:      domain.ClaimTypeRecipient,
		Status:         domain.ClaimPending,
		RecipientID:    "rec-1",
		RecipientName:  "Hope Shelter",
		RecipientEmail: "hope@example.com",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestApplyClaim_CommitsClaimAndStatusTogether(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO claims").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE donations SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplyClaim(context.Background(), testClaim(now), ClaimUpdate{
		RecipientID: "rec-1", RecipientName: "Hope Shelter", ClaimedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// status 守卫失败：认领插入必须随事务一并回滚
func TestApplyClaim_GuardFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO claims").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE donations SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyClaim(context.Background(), testClaim(now), ClaimUpdate{
		RecipientID: "rec-1", ClaimedAt: now,
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignVolunteer_GuardFailureReturnsConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE donations SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AssignVolunteer(context.Background(), "d1", AssignUpdate{
		VolunteerID: "vol-1", AssignedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteDonation_ConditionalUpdate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE donations SET").
		WithArgs("d1", domain.DonationCompleted, "delivered", sqlmock.AnyArg(), domain.DonationAssigned).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CompleteDonation(context.Background(), "d1", domain.DonationAssigned, CompleteUpdate{
		Notes: "delivered", CompletedAt: time.Now(),
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 批量操作：部分命中必须整体回滚
func TestBulkUpdateStatus_PartialMatchRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE donations SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := repo.BulkUpdateStatus(context.Background(), []string{"d1", "d2"}, domain.DonationCompleted)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpdateStatus_AllMatchedCommits(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE donations SET status").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.BulkUpdateStatus(context.Background(), []string{"d1", "d2"}, domain.DonationCompleted)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkDeleteDonations_PartialMatchRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM donations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := repo.BulkDeleteDonations(context.Background(), []string{"d1", "d2"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteDonation_MissingReturnsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM donations").
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteDonation(context.Background(), "d1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
