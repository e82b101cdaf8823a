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

// PostgresUsersRepository 用户Repository实现
type PostgresUsersRepository struct {
	db *sql.DB
}

// NewPostgresUsersRepository 创建用户Repository
func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

// 确保实现了接口
var _ UsersRepository = (*PostgresUsersRepository)(nil)

const userColumns = `
	user_id::text,
	email,
	password_hash,
	name,
	role,
	COALESCE(phone, '') as phone,
	COALESCE(organization, '') as organization,
	COALESCE(location, '') as location,
	rating,
	status,
	created_at,
	updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.UserID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.Phone,
		&u.Organization,
		&u.Location,
		&u.Rating,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser 创建用户
func (r *PostgresUsersRepository) CreateUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return fmt.Errorf("user is required")
	}
	if u.UserID == "" || u.Email == "" {
		return fmt.Errorf("user_id and email are required")
	}

	// 处理默认值
	status := u.Status
	if status == "" {
		status = "active"
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (
			user_id, email, password_hash, name, role,
			phone, organization, location, rating, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.UserID,
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.PasswordHash,
		u.Name,
		u.Role,
		u.Phone,
		u.Organization,
		u.Location,
		u.Rating,
		status,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUser 根据 user_id 获取用户
func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// GetUserByEmail 根据 email 获取用户（登录用）
func (r *PostgresUsersRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return u, nil
}

// ListUsers 用户列表（管理端，created_at 倒序）
func (r *PostgresUsersRepository) ListUsers(ctx context.Context, role, status string) ([]domain.User, error) {
	var conds []string
	var args []any
	if role != "" {
		args = append(args, role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// BulkUpdateUserStatus 批量用户状态更新：要求每个 id 都命中，否则整体回滚
func (r *PostgresUsersRepository) BulkUpdateUserStatus(ctx context.Context, userIDs []string, status string) error {
	if len(userIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET status = $1, updated_at = $2 WHERE user_id = ANY($3)`,
		status, time.Now(), pq.Array(userIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk update users: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check bulk update result: %w", err)
	}
	if affected != int64(len(userIDs)) {
		return fmt.Errorf("bulk update matched %d of %d users: %w", affected, len(userIDs), ErrConflict)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bulk update: %w", err)
	}

	return nil
}
