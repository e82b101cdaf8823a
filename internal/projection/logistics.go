package projection

import (
	"context"
	"time"

	"foodforward-data/internal/domain"
	"foodforward-data/internal/geocode"
)

// 操作类型
const (
	OperationPickup   = "pickup"
	OperationDelivery = "delivery"
)

// 操作状态
const (
	OperationPending    = "pending"
	OperationScheduled  = "scheduled"
	OperationInProgress = "in-progress"
	OperationCompleted  = "completed"
)

// 操作优先级（按距过期天数划分）
const (
	PriorityHigh   = "high"   // <=1 天
	PriorityMedium = "medium" // <=3 天
	PriorityLow    = "low"
)

// Operation 物流操作（只读投影：每个未过期捐赠恰好映射一个操作）
type Operation struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	DonationID string `json:"donationId"`

	Title    string `json:"title"`
	Category string `json:"category"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`

	Address     string              `json:"address"`
	Coordinates geocode.Coordinates `json:"coordinates"`

	DonorName      string `json:"donorName"`
	RecipientName  string `json:"recipientName,omitempty"`
	RecipientPhone string `json:"recipientPhone,omitempty"`
	VolunteerName  string `json:"volunteerName,omitempty"`
	VolunteerPhone string `json:"volunteerPhone,omitempty"`

	ExpiryDate time.Time `json:"expiryDate"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Resolver 地址解析回调（缓存与兜底由实现方负责，投影层不关心失败）
type Resolver func(ctx context.Context, address string) geocode.Coordinates

// ProjectOperations 从捐赠全集投影物流操作
// 状态映射：available→pickup/pending，claimed→pickup/scheduled，
// assigned→delivery/in-progress，completed→delivery/completed，expired→无操作
func ProjectOperations(ctx context.Context, donations []domain.Donation, now time.Time, resolve Resolver) []Operation {
	ops := make([]Operation, 0, len(donations))
	for i := range donations {
		d := &donations[i]
		op, ok := projectOperation(d, now)
		if !ok {
			continue
		}
		if resolve != nil {
			op.Coordinates = resolve(ctx, d.PickupAddress)
		} else {
			op.Coordinates = geocode.Fallback(d.PickupAddress)
		}
		ops = append(ops, op)
	}
	return ops
}

func projectOperation(d *domain.Donation, now time.Time) (Operation, bool) {
	op := Operation{
		DonationID:     d.DonationID,
		Title:          d.Title,
		Category:       d.Category,
		Quantity:       d.Quantity,
		Unit:           d.Unit,
		Address:        d.PickupAddress,
		DonorName:      d.DonorName,
		RecipientName:  d.RecipientName,
		RecipientPhone: d.RecipientPhone,
		VolunteerName:  d.VolunteerName,
		VolunteerPhone: d.VolunteerPhone,
		ExpiryDate:     d.ExpiryDate,
		CreatedAt:      d.CreatedAt,
		Priority:       operationPriority(d, now),
	}

	switch d.EffectiveStatus(now) {
	case domain.DonationAvailable:
		op.ID = "pickup-" + d.DonationID
		op.Type = OperationPickup
		op.Status = OperationPending
	case domain.DonationClaimed:
		op.ID = "pickup-" + d.DonationID
		op.Type = OperationPickup
		op.Status = OperationScheduled
	case domain.DonationAssigned:
		op.ID = "delivery-" + d.DonationID
		op.Type = OperationDelivery
		op.Status = OperationInProgress
	case domain.DonationCompleted:
		op.ID = "completed-" + d.DonationID
		op.Type = OperationDelivery
		op.Status = OperationCompleted
	default:
		// expired 不产生操作
		return Operation{}, false
	}

	return op, true
}

func operationPriority(d *domain.Donation, now time.Time) string {
	days := d.DaysUntilExpiry(now)
	switch {
	case days <= 1:
		return PriorityHigh
	case days <= 3:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// LogisticsStats 物流聚合统计
type LogisticsStats struct {
	TotalOperations int `json:"totalOperations"`
	PendingPickups  int `json:"pendingPickups"`
	ScheduledCount  int `json:"scheduledCount"`
	InTransitCount  int `json:"inTransitCount"`
	CompletedCount  int `json:"completedCount"`
	HighPriority    int `json:"highPriority"`
}

// ComputeLogisticsStats 从操作集合重算统计
func ComputeLogisticsStats(ops []Operation) LogisticsStats {
	stats := LogisticsStats{TotalOperations: len(ops)}
	for i := range ops {
		switch ops[i].Status {
		case OperationPending:
			stats.PendingPickups++
		case OperationScheduled:
			stats.ScheduledCount++
		case OperationInProgress:
			stats.InTransitCount++
		case OperationCompleted:
			stats.CompletedCount++
		}
		if ops[i].Priority == PriorityHigh {
			stats.HighPriority++
		}
	}
	return stats
}
