package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	cfg "foodforward-data/internal/config"
)

// 上传约束：最大 5MB，仅限图片 MIME，上传前拦截
const MaxUploadBytes = 5 << 20

var (
	ErrTooLarge   = errors.New("image exceeds 5MB limit")
	ErrNotAnImage = errors.New("only image uploads are allowed")
)

// UploadResult 上传结果（捐赠记录只保存该引用）
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Store S3图片存储
type Store struct {
	client *s3.Client
	bucket string
	region string
	logger *zap.Logger
}

// NewStore 创建S3图片存储
func NewStore(ctx context.Context, mediaCfg *cfg.MediaConfig, logger *zap.Logger) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(mediaCfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: mediaCfg.Bucket,
		region: mediaCfg.Region,
		logger: logger,
	}, nil
}

// Upload 上传图片，返回 {url, publicId}
func (s *Store) Upload(ctx context.Context, filename, contentType string, data []byte) (*UploadResult, error) {
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotAnImage
	}

	key := "donations/" + uuid.NewString() + path.Ext(filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)

	return &UploadResult{URL: url, PublicID: key}, nil
}

// Delete 删除图片，尽力而为：错误记日志后吞掉，绝不阻塞捐赠删除
func (s *Store) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		s.logger.Warn("failed to delete image from S3",
			zap.String("public_id", publicID),
			zap.Error(err),
		)
		return err
	}

	return nil
}
