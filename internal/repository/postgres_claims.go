package repository

import (
	"context"
	"database/sql"
	"fmt"

	"foodforward-data/internal/domain"
)

// PostgresClaimsRepository 认领记录查询实现
// 认领的写入只发生在 PostgresDonationsRepository.ApplyClaim 事务内
type PostgresClaimsRepository struct {
	db *sql.DB
}

// NewPostgresClaimsRepository 创建认领Repository
func NewPostgresClaimsRepository(db *sql.DB) *PostgresClaimsRepository {
	return &PostgresClaimsRepository{db: db}
}

// 确保实现了接口
var _ ClaimsRepository = (*PostgresClaimsRepository)(nil)

const claimColumns = `
	claim_id::text,
	donation_id::text,
	donor_id::text,
	claim_type,
	status,
	COALESCE(recipient_id::text, '') as recipient_id,
	recipient_name,
	recipient_email,
	COALESCE(recipient_phone, '') as recipient_phone,
	COALESCE(recipient_organization, '') as recipient_organization,
	COALESCE(intended_use, '') as intended_use,
	estimated_beneficiaries,
	COALESCE(preferred_pickup_date, '') as preferred_pickup_date,
	COALESCE(preferred_pickup_time, '') as preferred_pickup_time,
	COALESCE(notes, '') as notes,
	created_at,
	updated_at`

func scanClaim(row interface{ Scan(...any) error }) (*domain.Claim, error) {
	var c domain.Claim
	err := row.Scan(
		&c.ClaimID,
		&c.DonationID,
		&c.DonorID,
		&c.ClaimType,
		&c.Status,
		&c.RecipientID,
		&c.RecipientName,
		&c.RecipientEmail,
		&c.RecipientPhone,
		&c.RecipientOrganization,
		&c.IntendedUse,
		&c.EstimatedBeneficiaries,
		&c.PreferredPickupDate,
		&c.PreferredPickupTime,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetClaim 根据 claim_id 获取认领记录
func (r *PostgresClaimsRepository) GetClaim(ctx context.Context, claimID string) (*domain.Claim, error) {
	if claimID == "" {
		return nil, fmt.Errorf("claim_id is required")
	}

	query := `SELECT ` + claimColumns + ` FROM claims WHERE claim_id = $1`
	c, err := scanClaim(r.db.QueryRowContext(ctx, query, claimID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	return c, nil
}

// ListClaimsByDonor 捐赠方视角的认领列表（created_at 倒序）
func (r *PostgresClaimsRepository) ListClaimsByDonor(ctx context.Context, donorID string) ([]domain.Claim, error) {
	return r.listClaims(ctx, "donor_id::text", donorID)
}

// ListClaimsByRecipient 领取方视角的认领列表（created_at 倒序）
func (r *PostgresClaimsRepository) ListClaimsByRecipient(ctx context.Context, recipientID string) ([]domain.Claim, error) {
	return r.listClaims(ctx, "recipient_id::text", recipientID)
}

// ListClaimsByDonation 单个捐赠上的全部认领（理论上可以多条，最新一条视为有效）
func (r *PostgresClaimsRepository) ListClaimsByDonation(ctx context.Context, donationID string) ([]domain.Claim, error) {
	return r.listClaims(ctx, "donation_id::text", donationID)
}

func (r *PostgresClaimsRepository) listClaims(ctx context.Context, column, value string) ([]domain.Claim, error) {
	if value == "" {
		return nil, fmt.Errorf("filter value is required")
	}

	query := `SELECT ` + claimColumns + ` FROM claims WHERE ` + column + ` = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []domain.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}

	return claims, nil
}
