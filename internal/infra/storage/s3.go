package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mandacaru/erp-api/internal/config"
)

type S3Uploader struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

var _ Uploader = (*S3Uploader)(nil)

func NewS3Uploader(cfg *config.Config) *S3Uploader {
	opts := s3.Options{
		Region: cfg.S3Region,
	}
	if cfg.S3AccessKeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")
	}
	if cfg.S3Endpoint != "" {
		// MinIO / R2
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
		opts.UsePathStyle = true
	}

	return &S3Uploader{
		client:  s3.New(opts),
		bucket:  cfg.S3Bucket,
		baseURL: publicBaseURL(cfg),
	}
}

func (u *S3Uploader) Put(
	ctx context.Context,
	key string,
	contentType string,
	body io.Reader,
	size int64,
) (string, error) {

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}

	return u.baseURL + "/" + key, nil
}

func publicBaseURL(cfg *config.Config) string {
	if cfg.S3PublicBaseURL != "" {
		return strings.TrimRight(cfg.S3PublicBaseURL, "/")
	}
	if cfg.S3Endpoint != "" {
		return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
}
