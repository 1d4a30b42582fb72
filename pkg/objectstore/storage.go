// Package objectstore stages uploaded images in an S3-compatible bucket so any replica can serve them.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ecoleta/ecoleta-web/config"
	"github.com/ecoleta/ecoleta-web/internal/models"
	apperrors "github.com/ecoleta/ecoleta-web/pkg/errors"
	"github.com/ecoleta/ecoleta-web/pkg/logger"
	"github.com/ecoleta/ecoleta-web/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	serviceName = "object_storage"

	metaFileName  = "filename"
	metaExpiresAt = "expires-at"
)

// StorageClient stages images under prefix+token
type StorageClient struct {
	s3Client   *s3.Client
	bucketName string
	prefix     string
	ttl        time.Duration
	now        func() time.Time
}

// NewStorageClient creates a staging client for the configured bucket
func NewStorageClient(cfg config.UploadStorageConfig, ttl time.Duration) (*StorageClient, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("upload storage bucket is not configured")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region: region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		// S3-compatible stores reject the default flexible checksums
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	logger.Info("Upload object storage initialized",
		zap.String("bucket", cfg.BucketName),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("region", region),
		zap.Duration("ttl", ttl),
	)

	return &StorageClient{
		s3Client:   s3.New(opts),
		bucketName: cfg.BucketName,
		prefix:     cfg.Prefix,
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

func (s *StorageClient) key(token string) string {
	return s.prefix + token
}

// Put stores img under a fresh token and returns the token
func (s *StorageClient) Put(ctx context.Context, img *models.ImageUpload) (string, error) {
	start := time.Now()
	operation := "put"

	token := uuid.NewString()
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(s.key(token)),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
		Metadata: map[string]string{
			metaFileName:  img.FileName,
			metaExpiresAt: s.now().Add(s.ttl).UTC().Format(time.RFC3339),
		},
	})

	duration := s.observe(operation, err, start)
	if err != nil {
		logger.LogAPICall(ctx, serviceName, operation, "error", duration,
			zap.Error(err),
			zap.String("key", s.key(token)),
		)
		return "", fmt.Errorf("failed to stage image: %w", err)
	}

	logger.LogAPICall(ctx, serviceName, operation, "success", duration,
		zap.String("key", s.key(token)),
		zap.Int("size_bytes", len(img.Data)),
	)
	return token, nil
}

// Get loads a staged image. Missing and expired tokens are ErrNotFound.
func (s *StorageClient) Get(ctx context.Context, token string) (*models.ImageUpload, error) {
	start := time.Now()
	operation := "get"

	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.key(token)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			s.observe(operation, nil, start)
			return nil, apperrors.NotFoundError("staged image")
		}
		duration := s.observe(operation, err, start)
		logger.LogAPICall(ctx, serviceName, operation, "error", duration, zap.Error(err), zap.String("token", token))
		return nil, fmt.Errorf("failed to load staged image: %w", err)
	}
	defer out.Body.Close()

	if s.expired(out.Metadata) {
		s.observe(operation, nil, start)
		_ = s.Delete(ctx, token) //nolint:errcheck // best effort, the bucket lifecycle rule cleans up too
		return nil, apperrors.NotFoundError("staged image")
	}

	data, err := io.ReadAll(out.Body)
	duration := s.observe(operation, err, start)
	if err != nil {
		logger.LogAPICall(ctx, serviceName, operation, "error", duration, zap.Error(err), zap.String("token", token))
		return nil, fmt.Errorf("failed to read staged image: %w", err)
	}

	return &models.ImageUpload{
		FileName:    out.Metadata[metaFileName],
		ContentType: aws.ToString(out.ContentType),
		Data:        data,
		Token:       token,
	}, nil
}

// Delete removes a staged image; deleting a missing token is not an error
func (s *StorageClient) Delete(ctx context.Context, token string) error {
	start := time.Now()
	operation := "delete"

	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.key(token)),
	})
	duration := s.observe(operation, err, start)
	if err != nil {
		logger.LogAPICall(ctx, serviceName, operation, "error", duration, zap.Error(err), zap.String("token", token))
		return fmt.Errorf("failed to delete staged image: %w", err)
	}
	return nil
}

func (s *StorageClient) expired(meta map[string]string) bool {
	raw := ""
	for k, v := range meta {
		if strings.EqualFold(k, metaExpiresAt) {
			raw = v
			break
		}
	}
	if raw == "" {
		return false
	}
	expiresAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false
	}
	return !s.now().Before(expiresAt)
}

func (s *StorageClient) observe(operation string, err error, start time.Time) float64 {
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := metrics.MeasureDuration(start)
	metrics.StorageRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.StorageRequestTotal.WithLabelValues(operation, status).Inc()
	return duration
}
