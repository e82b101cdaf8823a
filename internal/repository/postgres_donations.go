package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"foodforward-data/internal/domain"
)

// PostgresDonationsRepository 捐赠Repository实现
// 状态迁移一律带 status 守卫；claim 迁移与认领记录写入在同一事务内
type PostgresDonationsRepository struct {
	db *sql.DB
}

// NewPostgresDonationsRepository 创建捐赠Repository
func NewPostgresDonationsRepository(db *sql.DB) *PostgresDonationsRepository {
	return &PostgresDonationsRepository{db: db}
}

// 确保实现了接口
var _ DonationsRepository = (*PostgresDonationsRepository)(nil)

const donationColumns = `
	donation_id::text,
	title,
	category,
	quantity,
	unit,
	COALESCE(description, '') as description,
	pickup_address,
	expiry_date,
	status,
	donor_id::text,
	donor_name,
	donor_rating,
	COALESCE(recipient_id::text, '') as recipient_id,
	COALESCE(recipient_name, '') as recipient_name,
	COALESCE(recipient_email, '') as recipient_email,
	COALESCE(recipient_phone, '') as recipient_phone,
	COALESCE(recipient_organization, '') as recipient_organization,
	COALESCE(intended_use, '') as intended_use,
	estimated_beneficiaries,
	COALESCE(volunteer_id::text, '') as volunteer_id,
	COALESCE(volunteer_name, '') as volunteer_name,
	COALESCE(volunteer_email, '') as volunteer_email,
	COALESCE(volunteer_phone, '') as volunteer_phone,
	food_safety_checked,
	COALESCE(temperature_control, '') as temperature_control,
	packaging_intact,
	proper_labeling,
	COALESCE(contamination_risk, '') as contamination_risk,
	COALESCE(safety_notes, '') as safety_notes,
	safety_score,
	COALESCE(image_url, '') as image_url,
	COALESCE(image_public_id, '') as image_public_id,
	COALESCE(completion_notes, '') as completion_notes,
	created_at,
	updated_at,
	claimed_at,
	assigned_at,
	completed_at`

func scanDonation(row interface{ Scan(...any) error }) (*domain.Donation, error) {
	var d domain.Donation
	var claimedAt, assignedAt, completedAt sql.NullTime

	err := row.Scan(
		&d.DonationID,
		&d.Title,
		&d.Category,
		&d.Quantity,
		&d.Unit,
		&d.Description,
		&d.PickupAddress,
		&d.ExpiryDate,
		&d.Status,
		&d.DonorID,
		&d.DonorName,
		&d.DonorRating,
		&d.RecipientID,
		&d.RecipientName,
		&d.RecipientEmail,
		&d.RecipientPhone,
		&d.RecipientOrganization,
		&d.IntendedUse,
		&d.EstimatedBeneficiaries,
		&d.VolunteerID,
		&d.VolunteerName,
		&d.VolunteerEmail,
		&d.VolunteerPhone,
		&d.FoodSafetyChecked,
		&d.TemperatureControl,
		&d.PackagingIntact,
		&d.ProperLabeling,
		&d.ContaminationRisk,
		&d.SafetyNotes,
		&d.SafetyScore,
		&d.ImageURL,
		&d.ImagePublicID,
		&d.CompletionNotes,
		&d.CreatedAt,
		&d.UpdatedAt,
		&claimedAt,
		&assignedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	// 处理可空时间戳
	if claimedAt.Valid {
		t := claimedAt.Time
		d.ClaimedAt = &t
	}
	if assignedAt.Valid {
		t := assignedAt.Time
		d.AssignedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		d.CompletedAt = &t
	}

	return &d, nil
}

// CreateDonation 创建捐赠记录（status=available，合规校验在 service 层完成）
func (r *PostgresDonationsRepository) CreateDonation(ctx context.Context, donation *domain.Donation) error {
	if donation == nil {
		return fmt.Errorf("donation is required")
	}
	if donation.DonationID == "" || donation.DonorID == "" {
		return fmt.Errorf("donation_id and donor_id are required")
	}

	// 处理可空字段
	var recipientIDArg any = nil
	if donation.RecipientID != "" {
		recipientIDArg = donation.RecipientID
	}

	query := `
		INSERT INTO donations (
			donation_id, title, category, quantity, unit, description, pickup_address,
			expiry_date, status, donor_id, donor_name, donor_rating,
			recipient_id,
			food_safety_checked, temperature_control, packaging_intact, proper_labeling,
			contamination_risk, safety_notes, safety_score,
			image_url, image_public_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13,
			$14, $15, $16, $17,
			$18, $19, $20,
			$21, $22,
			$23, $24
		)`

	_, err := r.db.ExecContext(ctx, query,
		donation.DonationID,
		donation.Title,
		donation.Category,
		donation.Quantity,
		donation.Unit,
		donation.Description,
		donation.PickupAddress,
		donation.ExpiryDate,
		donation.Status,
		donation.DonorID,
		donation.DonorName,
		donation.DonorRating,
		recipientIDArg,
		donation.FoodSafetyChecked,
		donation.TemperatureControl,
		donation.PackagingIntact,
		donation.ProperLabeling,
		donation.ContaminationRisk,
		donation.SafetyNotes,
		donation.SafetyScore,
		donation.ImageURL,
		donation.ImagePublicID,
		donation.CreatedAt,
		donation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}

	return nil
}

// GetDonation 根据 donation_id 获取捐赠记录
func (r *PostgresDonationsRepository) GetDonation(ctx context.Context, donationID string) (*domain.Donation, error) {
	if donationID == "" {
		return nil, fmt.Errorf("donation_id is required")
	}

	query := `SELECT ` + donationColumns + ` FROM donations WHERE donation_id = $1`

	d, err := scanDonation(r.db.QueryRowContext(ctx, query, donationID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}

	return d, nil
}

// ListDonations 列出捐赠记录（created_at 倒序）
func (r *PostgresDonationsRepository) ListDonations(ctx context.Context, filter DonationFilter) ([]domain.Donation, error) {
	var conds []string
	var args []any

	addCond := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	addCond("status", filter.Status)
	addCond("category", filter.Category)
	addCond("donor_id::text", filter.DonorID)
	addCond("recipient_id::text", filter.RecipientID)
	addCond("volunteer_id::text", filter.VolunteerID)

	query := `SELECT ` + donationColumns + ` FROM donations`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	defer rows.Close()

	var donations []domain.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		donations = append(donations, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate donations: %w", err)
	}

	return donations, nil
}

// ApplyClaim 认领迁移：单事务内追加认领记录并条件更新捐赠状态
// 捐赠已不是 available（other recipient raced first）→ 回滚 + ErrConflict
func (r *PostgresDonationsRepository) ApplyClaim(ctx context.Context, claim *domain.Claim, update ClaimUpdate) error {
	if claim == nil {
		return fmt.Errorf("claim is required")
	}
	if claim.ClaimID == "" || claim.DonationID == "" {
		return fmt.Errorf("claim_id and donation_id are required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 处理可空字段（donor_manual 认领可以没有平台账号）
	var recipientIDArg any = nil
	if claim.RecipientID != "" {
		recipientIDArg = claim.RecipientID
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO claims (
			claim_id, donation_id, donor_id, claim_type, status,
			recipient_id, recipient_name, recipient_email, recipient_phone,
			recipient_organization, intended_use, estimated_beneficiaries,
			preferred_pickup_date, preferred_pickup_time, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		claim.ClaimID,
		claim.DonationID,
		claim.DonorID,
		claim.ClaimType,
		claim.Status,
		recipientIDArg,
		claim.RecipientName,
		claim.RecipientEmail,
		claim.RecipientPhone,
		claim.RecipientOrganization,
		claim.IntendedUse,
		claim.EstimatedBeneficiaries,
		claim.PreferredPickupDate,
		claim.PreferredPickupTime,
		claim.Notes,
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert claim: %w", err)
	}

	var updateRecipientIDArg any = nil
	if update.RecipientID != "" {
		updateRecipientIDArg = update.RecipientID
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE donations SET
			status = $2,
			recipient_id = $3,
			recipient_name = $4,
			recipient_email = $5,
			recipient_phone = $6,
			recipient_organization = $7,
			intended_use = $8,
			estimated_beneficiaries = $9,
			claimed_at = $10,
			updated_at = $10
		 WHERE donation_id = $1 AND status = $11`,
		claim.DonationID,
		domain.DonationClaimed,
		updateRecipientIDArg,
		update.RecipientName,
		update.RecipientEmail,
		update.RecipientPhone,
		update.RecipientOrganization,
		update.IntendedUse,
		update.EstimatedBeneficiaries,
		update.ClaimedAt,
		domain.DonationAvailable,
	)
	if err != nil {
		return fmt.Errorf("failed to update donation status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		// status 守卫失败：认领插入随事务一并回滚
		return ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit claim transaction: %w", err)
	}

	return nil
}

// AssignVolunteer 指派迁移：status=claimed 且尚无志愿者时才生效
func (r *PostgresDonationsRepository) AssignVolunteer(ctx context.Context, donationID string, update AssignUpdate) error {
	if donationID == "" {
		return fmt.Errorf("donation_id is required")
	}
	if update.VolunteerID == "" {
		return fmt.Errorf("volunteer_id is required")
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE donations SET
			status = $2,
			volunteer_id = $3,
			volunteer_name = $4,
			volunteer_email = $5,
			volunteer_phone = $6,
			assigned_at = $7,
			updated_at = $7
		 WHERE donation_id = $1 AND status = $8 AND volunteer_id IS NULL`,
		donationID,
		domain.DonationAssigned,
		update.VolunteerID,
		update.VolunteerName,
		update.VolunteerEmail,
		update.VolunteerPhone,
		update.AssignedAt,
		domain.DonationClaimed,
	)
	if err != nil {
		return fmt.Errorf("failed to assign volunteer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check assign result: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}

	return nil
}

// CompleteDonation 完成迁移：expectedStatus 为 assigned（志愿者流程）或 claimed（手工认领流程）
func (r *PostgresDonationsRepository) CompleteDonation(ctx context.Context, donationID, expectedStatus string, update CompleteUpdate) error {
	if donationID == "" {
		return fmt.Errorf("donation_id is required")
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE donations SET
			status = $2,
			completion_notes = $3,
			completed_at = $4,
			updated_at = $4
		 WHERE donation_id = $1 AND status = $5`,
		donationID,
		domain.DonationCompleted,
		update.Notes,
		update.CompletedAt,
		expectedStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to complete donation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check complete result: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}

	return nil
}

// DeleteDonation 删除捐赠记录（不级联删除认领记录）
func (r *PostgresDonationsRepository) DeleteDonation(ctx context.Context, donationID string) error {
	if donationID == "" {
		return fmt.Errorf("donation_id is required")
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM donations WHERE donation_id = $1`, donationID)
	if err != nil {
		return fmt.Errorf("failed to delete donation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// BulkUpdateStatus 批量状态更新：要求每个 id 都命中，否则整体回滚
func (r *PostgresDonationsRepository) BulkUpdateStatus(ctx context.Context, donationIDs []string, status string) error {
	if len(donationIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE donations SET status = $1, updated_at = $2 WHERE donation_id = ANY($3)`,
		status, time.Now(), pq.Array(donationIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk update donations: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check bulk update result: %w", err)
	}
	if affected != int64(len(donationIDs)) {
		// 部分 id 不存在：整体回滚，不允许部分生效
		return fmt.Errorf("bulk update matched %d of %d donations: %w", affected, len(donationIDs), ErrConflict)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bulk update: %w", err)
	}

	return nil
}

// BulkDeleteDonations 批量删除：要求每个 id 都命中，否则整体回滚
func (r *PostgresDonationsRepository) BulkDeleteDonations(ctx context.Context, donationIDs []string) error {
	if len(donationIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM donations WHERE donation_id = ANY($1)`,
		pq.Array(donationIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk delete donations: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check bulk delete result: %w", err)
	}
	if affected != int64(len(donationIDs)) {
		return fmt.Errorf("bulk delete matched %d of %d donations: %w", affected, len(donationIDs), ErrConflict)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bulk delete: %w", err)
	}

	return nil
}
