package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodforward-data/internal/domain"
)

var projNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func ledgerDonation(id, status string) domain.Donation {
	created := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
	return domain.Donation{
		DonationID:             id,
		Title:                  "Surplus bread",
		Category:               domain.CategoryBakedGoods,
		Quantity:               "12",
		Unit:                   domain.UnitKg,
		PickupAddress:          "12 Baker St",
		ExpiryDate:             time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Status:                 status,
		DonorID:                "donor-1",
		DonorName:              "Daily Bread Bakery",
		RecipientID:            "rec-1",
		RecipientName:          "Hope Shelter",
		RecipientOrganization:  "Hope Shelter Inc",
		EstimatedBeneficiaries: 60,
		CreatedAt:              created,
		UpdatedAt:              created,
	}
}

func TestProjectLedger_OneTransactionPerDonation(t *testing.T) {
	donations := []domain.Donation{
		ledgerDonation("don-1", domain.DonationAvailable),
		ledgerDonation("don-2", domain.DonationCompleted),
	}

	txs := ProjectLedger(donations, projNow)
	require.Len(t, txs, 2)
	assert.Equal(t, "don-1", txs[0].DonationID)
	assert.Equal(t, "don-2", txs[1].DonationID)
}

// 相同输入必须产生逐位一致的哈希与区块号
func TestProjectLedger_HashDeterminism(t *testing.T) {
	d := ledgerDonation("don-1", domain.DonationAvailable)

	first := ProjectLedger([]domain.Donation{d}, projNow)[0]
	for i := 0; i < 5; i++ {
		again := ProjectLedger([]domain.Donation{d}, projNow)[0]
		assert.Equal(t, first.Hash, again.Hash)
		assert.Equal(t, first.BlockNumber, again.BlockNumber)
	}

	assert.Len(t, first.Hash, 66)
	assert.Equal(t, "0x", first.Hash[:2])
	assert.GreaterOrEqual(t, first.BlockNumber, int64(0))
	assert.Less(t, first.BlockNumber, int64(1000000))
}

func TestProjectLedger_HashChangesWithIdentity(t *testing.T) {
	a := ledgerDonation("don-1", domain.DonationAvailable)
	b := ledgerDonation("don-2", domain.DonationAvailable)

	txs := ProjectLedger([]domain.Donation{a, b}, projNow)
	assert.NotEqual(t, txs[0].Hash, txs[1].Hash)
}

func TestVerificationFromStatus(t *testing.T) {
	completedAt := time.Date(2025, 6, 14, 16, 0, 0, 0, time.UTC)

	d := ledgerDonation("don-1", domain.DonationCompleted)
	d.CompletedAt = &completedAt
	tx := ProjectLedger([]domain.Donation{d}, projNow)[0]
	assert.True(t, tx.Verification.Verified)
	assert.Equal(t, "recipient", tx.Verification.Method)
	assert.Equal(t, "Hope Shelter", tx.Verification.VerifiedBy)
	require.NotNil(t, tx.Verification.VerifiedAt)
	assert.Equal(t, completedAt, *tx.Verification.VerifiedAt)

	d = ledgerDonation("don-1", domain.DonationAssigned)
	d.VolunteerName = "Sam Walker"
	tx = ProjectLedger([]domain.Donation{d}, projNow)[0]
	assert.False(t, tx.Verification.Verified)
	assert.Equal(t, "volunteer", tx.Verification.Method)

	d = ledgerDonation("don-1", domain.DonationClaimed)
	tx = ProjectLedger([]domain.Donation{d}, projNow)[0]
	assert.Equal(t, "pending", tx.Verification.Method)

	d = ledgerDonation("don-1", domain.DonationAvailable)
	tx = ProjectLedger([]domain.Donation{d}, projNow)[0]
	assert.Equal(t, "none", tx.Verification.Method)
}

func TestImpactTiers(t *testing.T) {
	tests := []struct {
		beneficiaries int
		want          string
	}{
		{150, ImpactCritical},
		{101, ImpactCritical},
		{100, ImpactHigh},
		{51, ImpactHigh},
		{50, ImpactMedium},
		{21, ImpactMedium},
		{20, ImpactLow},
		{0, ImpactLow},
	}
	for _, tt := range tests {
		d := ledgerDonation("don-1", domain.DonationAvailable)
		d.EstimatedBeneficiaries = tt.beneficiaries
		tx := ProjectLedger([]domain.Donation{d}, projNow)[0]
		assert.Equal(t, tt.want, tx.Impact.Tier, "beneficiaries=%d", tt.beneficiaries)
	}
}

func TestComputeLedgerStats(t *testing.T) {
	active := ledgerDonation("don-1", domain.DonationAvailable)
	claimed := ledgerDonation("don-2", domain.DonationClaimed)
	done := ledgerDonation("don-3", domain.DonationCompleted)
	expired := ledgerDonation("don-4", domain.DonationAvailable)
	expired.ExpiryDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	today := ledgerDonation("don-5", domain.DonationAvailable)
	today.CreatedAt = projNow.Add(-time.Hour)

	stats := ComputeLedgerStats([]domain.Donation{active, claimed, done, expired, today}, projNow)

	assert.Equal(t, 5, stats.TotalTransactions)
	assert.Equal(t, 60.0, stats.TotalItems) // 5 donations x "12"
	assert.Equal(t, 300, stats.TotalBeneficiaries)
	assert.Equal(t, 3, stats.ActiveCount) // expired one is excluded
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 1, stats.CreatedToday)
	assert.InDelta(t, 3.0, stats.ImpactScore, 0.001) // all at 60 beneficiaries => high => 3
}

func TestComputeLedgerStats_Empty(t *testing.T) {
	stats := ComputeLedgerStats(nil, projNow)
	assert.Equal(t, 0, stats.TotalTransactions)
	assert.Equal(t, 0.0, stats.ImpactScore)
}
