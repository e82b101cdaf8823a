package projection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodforward-data/internal/domain"
	"foodforward-data/internal/geocode"
)

func logisticsDonation(id, status string, expiry time.Time) domain.Donation {
	return domain.Donation{
		DonationID:    id,
		Title:         "Fresh produce",
		Category:      domain.CategoryProduce,
		Quantity:      "8",
		Unit:          domain.UnitKg,
		PickupAddress: "45 Market Rd",
		ExpiryDate:    expiry,
		Status:        status,
		DonorID:       "donor-1",
		DonorName:     "Green Grocer",
		CreatedAt:     projNow.AddDate(0, 0, -1),
	}
}

// 状态映射表：每个未过期捐赠恰好一个操作
func TestProjectOperations_StatusMapping(t *testing.T) {
	expiry := projNow.AddDate(0, 0, 10)
	donations := []domain.Donation{
		logisticsDonation("d1", domain.DonationAvailable, expiry),
		logisticsDonation("d2", domain.DonationClaimed, expiry),
		logisticsDonation("d3", domain.DonationAssigned, expiry),
		logisticsDonation("d4", domain.DonationCompleted, expiry),
	}

	ops := ProjectOperations(context.Background(), donations, projNow, nil)
	require.Len(t, ops, 4)

	assert.Equal(t, "pickup-d1", ops[0].ID)
	assert.Equal(t, OperationPickup, ops[0].Type)
	assert.Equal(t, OperationPending, ops[0].Status)

	assert.Equal(t, "pickup-d2", ops[1].ID)
	assert.Equal(t, OperationPickup, ops[1].Type)
	assert.Equal(t, OperationScheduled, ops[1].Status)

	assert.Equal(t, "delivery-d3", ops[2].ID)
	assert.Equal(t, OperationDelivery, ops[2].Type)
	assert.Equal(t, OperationInProgress, ops[2].Status)

	assert.Equal(t, "completed-d4", ops[3].ID)
	assert.Equal(t, OperationDelivery, ops[3].Type)
	assert.Equal(t, OperationCompleted, ops[3].Status)
}

func TestProjectOperations_ExpiredProducesNone(t *testing.T) {
	expired := logisticsDonation("d1", domain.DonationAvailable, projNow.AddDate(0, 0, -2))
	ops := ProjectOperations(context.Background(), []domain.Donation{expired}, projNow, nil)
	assert.Empty(t, ops)
}

func TestProjectOperations_Priority(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, PriorityHigh},
		{1, PriorityHigh},
		{2, PriorityMedium},
		{3, PriorityMedium},
		{4, PriorityLow},
		{30, PriorityLow},
	}
	for _, tt := range tests {
		d := logisticsDonation("d1", domain.DonationClaimed, projNow.AddDate(0, 0, tt.days))
		ops := ProjectOperations(context.Background(), []domain.Donation{d}, projNow, nil)
		require.Len(t, ops, 1)
		assert.Equal(t, tt.want, ops[0].Priority, "days=%d", tt.days)
	}
}

// 全量重投影：相同输入产生相同操作集合
func TestProjectOperations_Deterministic(t *testing.T) {
	donations := []domain.Donation{
		logisticsDonation("d1", domain.DonationAvailable, projNow.AddDate(0, 0, 2)),
		logisticsDonation("d2", domain.DonationAssigned, projNow.AddDate(0, 0, 5)),
	}

	first := ProjectOperations(context.Background(), donations, projNow, nil)
	second := ProjectOperations(context.Background(), donations, projNow, nil)
	assert.Equal(t, first, second)
}

func TestProjectOperations_UsesResolver(t *testing.T) {
	d := logisticsDonation("d1", domain.DonationAvailable, projNow.AddDate(0, 0, 7))
	want := geocode.Coordinates{Lat: 51.5, Lng: -0.12}

	var resolvedAddress string
	ops := ProjectOperations(context.Background(), []domain.Donation{d}, projNow,
		func(_ context.Context, address string) geocode.Coordinates {
			resolvedAddress = address
			return want
		})

	require.Len(t, ops, 1)
	assert.Equal(t, "45 Market Rd", resolvedAddress)
	assert.Equal(t, want, ops[0].Coordinates)
}

func TestComputeLogisticsStats(t *testing.T) {
	expirySoon := projNow.AddDate(0, 0, 1)
	expiryLater := projNow.AddDate(0, 0, 10)
	donations := []domain.Donation{
		logisticsDonation("d1", domain.DonationAvailable, expirySoon),
		logisticsDonation("d2", domain.DonationClaimed, expiryLater),
		logisticsDonation("d3", domain.DonationAssigned, expiryLater),
		logisticsDonation("d4", domain.DonationCompleted, expiryLater),
	}

	ops := ProjectOperations(context.Background(), donations, projNow, nil)
	stats := ComputeLogisticsStats(ops)

	assert.Equal(t, 4, stats.TotalOperations)
	assert.Equal(t, 1, stats.PendingPickups)
	assert.Equal(t, 1, stats.ScheduledCount)
	assert.Equal(t, 1, stats.InTransitCount)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 1, stats.HighPriority)
}
