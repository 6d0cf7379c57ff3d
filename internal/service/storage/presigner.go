// Package storage brokers time-bounded signed URLs for chat attachments.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"clinic-admin/internal/config"
)

// S3Presigner issues presigned GET URLs against an S3-compatible object
// store using the privileged storage credential. Path-style addressing is
// used so non-AWS endpoints resolve correctly.
type S3Presigner struct {
	presignClient *s3.PresignClient
}

// NewS3Presigner creates a presigner from the storage configuration.
func NewS3Presigner(cfg *config.StorageConfig) (*S3Presigner, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("S3 storage is not configured")
	}

	endpoint := cfg.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	s3Client := s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.KeyID, cfg.Secret, "",
		),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
	})

	return &S3Presigner{presignClient: s3.NewPresignClient(s3Client)}, nil
}

// SignObject generates a presigned GET URL for (bucket, key) valid for
// ttlSeconds.
func (p *S3Presigner) SignObject(ctx context.Context, bucket, key string, ttlSeconds int) (string, error) {
	result, err := p.presignClient.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(time.Duration(ttlSeconds)*time.Second),
	)
	if err != nil {
		return "", fmt.Errorf("presign GetObject for %s/%s: %w", bucket, key, err)
	}
	return result.URL, nil
}
