package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"foodforward-data/internal/domain"
	"foodforward-data/internal/repository"
	"foodforward-data/internal/store"
)

// 认证相关错误
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserSuspended      = errors.New("user account is suspended")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const (
	tokenTTL       = 24 * time.Hour
	tokenKeyPrefix = "foodforward:token:"
)

// session 令牌在 KV 中保存的会话快照
type session struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// RegisterInput 注册请求
type RegisterInput struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	Name         string `json:"name" validate:"required,max=100"`
	Role         string `json:"role" validate:"required"`
	Phone        string `json:"phone"`
	Organization string `json:"organization"`
	Location     string `json:"location"`
}

// LoginInput 登录请求
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthService 账号与会话管理
// 令牌为不透明 UUID，会话快照存 KV（Redis 或内存），24 小时过期
type AuthService struct {
	users    repository.UsersRepository
	kv       store.KV
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(users repository.UsersRepository, kv store.KV, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		kv:       kv,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Register 注册新用户
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid register input: %w", err)
	}
	if !domain.ValidRole(input.Role) {
		return nil, fmt.Errorf("invalid role %q", input.Role)
	}

	now := s.now()
	u := &domain.User{
		UserID:       uuid.New().String(),
		Email:        input.Email,
		PasswordHash: HashPassword(input.Password),
		Name:         input.Name,
		Role:         input.Role,
		Phone:        input.Phone,
		Organization: input.Organization,
		Location:     input.Location,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Login 校验凭据并颁发会话令牌
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, *domain.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return "", nil, fmt.Errorf("invalid login input: %w", err)
	}

	u, err := s.users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	hash := HashPassword(input.Password)
	if subtle.ConstantTimeCompare(hash, u.PasswordHash) != 1 {
		return "", nil, ErrInvalidCredentials
	}
	if u.Status == "suspended" {
		return "", nil, ErrUserSuspended
	}

	token := uuid.New().String()
	payload, err := json.Marshal(session{UserID: u.UserID, Role: u.Role})
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.kv.Set(ctx, tokenKeyPrefix+token, string(payload), tokenTTL); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	return token, u, nil
}

// Logout 注销令牌
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.kv.Delete(ctx, tokenKeyPrefix+token)
}

// ResolveToken 从令牌解析发起人（填充完整档案快照）
func (s *AuthService) ResolveToken(ctx context.Context, token string) (Actor, error) {
	payload, err := s.kv.Get(ctx, tokenKeyPrefix+token)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return Actor{}, ErrInvalidToken
		}
		return Actor{}, err
	}
	var sess session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return Actor{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	u, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Actor{}, ErrInvalidToken
		}
		return Actor{}, err
	}
	return ActorFromUser(u), nil
}

// ResolveUser 按 user_id 解析发起人（header 身份通道，供开发/内网调用）
func (s *AuthService) ResolveUser(ctx context.Context, userID string) (Actor, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return Actor{}, err
	}
	return ActorFromUser(u), nil
}

// ActorFromUser 从用户档案构造发起人快照
func ActorFromUser(u *domain.User) Actor {
	return Actor{
		UserID:       u.UserID,
		Role:         u.Role,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Organization: u.Organization,
		Location:     u.Location,
		Rating:       u.Rating,
	}
}

// HashPassword sha256 口令摘要（与历史数据一致，不加盐）
func HashPassword(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return sum[:]
}
