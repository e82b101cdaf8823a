package projection

import (
	"fmt"
	"strconv"
	"time"

	"foodforward-data/internal/domain"
)

// 影响力层级（按预估受益人数划分）
const (
	ImpactCritical = "critical" // >100
	ImpactHigh     = "high"     // >50
	ImpactMedium   = "medium"   // >20
	ImpactLow      = "low"
)

// LedgerParty 账本中的参与方
type LedgerParty struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
}

// LedgerItem 账本条目（单个捐赠即单个条目）
type LedgerItem struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// LedgerVerification 验证信息
// 验证方式仅由终态状态推断，与实际完成人和认领类型无关（沿用现状，不做审计强化）
type LedgerVerification struct {
	Verified   bool       `json:"verified"`
	VerifiedBy string     `json:"verifiedBy,omitempty"`
	Method     string     `json:"method"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}

// LedgerImpact 影响力信息
type LedgerImpact struct {
	EstimatedBeneficiaries int    `json:"estimatedBeneficiaries"`
	Tier                   string `json:"tier"`
}

// LedgerTransaction 账本交易（只读投影，无独立持久化）
// 伪哈希/伪区块号仅用于透明度展示，非密码学意义
type LedgerTransaction struct {
	Hash         string             `json:"hash"`
	BlockNumber  int64              `json:"blockNumber"`
	DonationID   string             `json:"donationId"`
	Status       string             `json:"status"`
	Donor        LedgerParty        `json:"donor"`
	Recipient    LedgerParty        `json:"recipient"`
	Items        []LedgerItem       `json:"items"`
	FromLocation string             `json:"fromLocation"`
	ToLocation   string             `json:"toLocation"`
	Verification LedgerVerification `json:"verification"`
	Impact       LedgerImpact       `json:"impact"`
	Timestamp    time.Time          `json:"timestamp"`
}

// ProjectLedger 全量重投影：每个捐赠恰好一条交易
// 相同输入必须产生逐位一致的哈希与区块号（跨会话展示稳定）
func ProjectLedger(donations []domain.Donation, now time.Time) []LedgerTransaction {
	txs := make([]LedgerTransaction, 0, len(donations))
	for i := range donations {
		txs = append(txs, projectTransaction(&donations[i], now))
	}
	return txs
}

func projectTransaction(d *domain.Donation, now time.Time) LedgerTransaction {
	hash := transactionHash(d)
	status := d.EffectiveStatus(now)

	tx := LedgerTransaction{
		Hash:        hash,
		BlockNumber: blockNumber(hash),
		DonationID:  d.DonationID,
		Status:      status,
		Donor: LedgerParty{
			ID:   d.DonorID,
			Name: d.DonorName,
		},
		Recipient: LedgerParty{
			ID:           d.RecipientID,
			Name:         d.RecipientName,
			Organization: d.RecipientOrganization,
		},
		Items: []LedgerItem{{
			Title:    d.Title,
			Category: d.Category,
			Quantity: d.Quantity,
			Unit:     d.Unit,
		}},
		FromLocation: d.PickupAddress,
		ToLocation:   d.RecipientOrganization,
		Verification: verificationFromStatus(d, status),
		Impact: LedgerImpact{
			EstimatedBeneficiaries: d.EstimatedBeneficiaries,
			Tier:                   impactTier(d.EstimatedBeneficiaries),
		},
		Timestamp: d.CreatedAt,
	}

	return tx
}

// verificationFromStatus 仅从状态推断验证信息
func verificationFromStatus(d *domain.Donation, status string) LedgerVerification {
	switch status {
	case domain.DonationCompleted:
		return LedgerVerification{
			Verified:   true,
			VerifiedBy: d.RecipientName,
			Method:     "recipient",
			VerifiedAt: d.CompletedAt,
		}
	case domain.DonationAssigned:
		return LedgerVerification{
			Verified:   false,
			VerifiedBy: d.VolunteerName,
			Method:     "volunteer",
			VerifiedAt: d.AssignedAt,
		}
	case domain.DonationClaimed:
		return LedgerVerification{Method: "pending"}
	default:
		return LedgerVerification{Method: "none"}
	}
}

func impactTier(beneficiaries int) string {
	switch {
	case beneficiaries > 100:
		return ImpactCritical
	case beneficiaries > 50:
		return ImpactHigh
	case beneficiaries > 20:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// transactionHash 对稳定字段子集做滚动字符码哈希，再确定性扩展为 64 位十六进制串
func transactionHash(d *domain.Donation) string {
	seed := rollingHash(fmt.Sprintf("%s|%s|%s|%d|%s|%s",
		d.DonationID,
		d.DonorID,
		d.RecipientID,
		d.CreatedAt.UnixMilli(),
		d.Title,
		d.Category,
	))

	const hexDigits = "0123456789abcdef"
	out := make([]byte, 0, 66)
	out = append(out, '0', 'x')

	// 以滚动哈希为种子的 LCG 扩展，保证相同输入逐位一致
	x := uint64(uint32(seed))
	for i := 0; i < 64; i++ {
		x = x*6364136223846793005 + 1442695040888963407
		out = append(out, hexDigits[(x>>60)&0xF])
	}

	return string(out)
}

// rollingHash 与前端展示层相同的 h = h*31 + code 滚动哈希（int32 回绕）
func rollingHash(s string) int32 {
	var h int32
	for _, r := range s {
		h = h<<5 - h + int32(r)
	}
	return h
}

func blockNumber(hash string) int64 {
	var h int32
	for _, r := range hash {
		h = h<<5 - h + int32(r)
	}
	n := int64(h)
	if n < 0 {
		n = -n
	}
	return n % 1000000
}

// LedgerStats 账本聚合统计（每次更新全量重算，无增量维护）
type LedgerStats struct {
	TotalTransactions  int     `json:"totalTransactions"`
	TotalItems         float64 `json:"totalItems"`
	TotalBeneficiaries int     `json:"totalBeneficiaries"`
	ActiveCount        int     `json:"activeCount"`
	CompletedCount     int     `json:"completedCount"`
	CreatedToday       int     `json:"createdToday"`
	ImpactScore        float64 `json:"impactScore"` // 1-4，critical=4/high=3/medium=2/low=1 的平均值
}

// ComputeLedgerStats 从捐赠全集重算聚合统计
func ComputeLedgerStats(donations []domain.Donation, now time.Time) LedgerStats {
	stats := LedgerStats{}

	y, m, day := now.Date()
	todayStart := time.Date(y, m, day, 0, 0, 0, 0, now.Location())

	impactTotal := 0
	for i := range donations {
		d := &donations[i]
		stats.TotalTransactions++

		if qty, err := strconv.ParseFloat(d.Quantity, 64); err == nil {
			stats.TotalItems += qty
		}
		stats.TotalBeneficiaries += d.EstimatedBeneficiaries

		switch d.EffectiveStatus(now) {
		case domain.DonationAvailable, domain.DonationClaimed, domain.DonationAssigned:
			stats.ActiveCount++
		case domain.DonationCompleted:
			stats.CompletedCount++
		}

		if !d.CreatedAt.Before(todayStart) {
			stats.CreatedToday++
		}

		switch impactTier(d.EstimatedBeneficiaries) {
		case ImpactCritical:
			impactTotal += 4
		case ImpactHigh:
			impactTotal += 3
		case ImpactMedium:
			impactTotal += 2
		default:
			impactTotal += 1
		}
	}

	if stats.TotalTransactions > 0 {
		stats.ImpactScore = float64(impactTotal) / float64(stats.TotalTransactions)
	}

	return stats
}
