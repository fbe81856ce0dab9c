package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Config holds the Cloudflare R2 connection settings. All fields are
// required.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

type r2Uploader struct {
	client        *s3.Client
	bucketName    string
	publicBaseURL *url.URL
}

// NewR2Uploader builds a FileUploader backed by a Cloudflare R2 bucket
// through the S3-compatible API.
func NewR2Uploader(ctx context.Context, cfg R2Config) (FileUploader, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" ||
		cfg.BucketName == "" || cfg.PublicBaseURL == "" {
		return nil, errors.New("invalid R2 configuration: all fields are required")
	}

	base, err := url.Parse(cfg.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid R2 public base URL: %w", err)
	}

	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS SDK config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &r2Uploader{
		client:        client,
		bucketName:    cfg.BucketName,
		publicBaseURL: base,
	}, nil
}

func (u *r2Uploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	result, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucketName),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload object %s: %w", key, err)
	}

	etag := ""
	if result.ETag != nil {
		// S3-compatible APIs wrap the ETag in quotes.
		etag = strings.Trim(*result.ETag, "\"")
	}
	return &UploadResult{
		Key:      key,
		Location: u.PublicURL(key),
		ETag:     etag,
	}, nil
}

func (u *r2Uploader) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimPrefix(key, "/"))
	if err != nil {
		return ""
	}
	return u.publicBaseURL.ResolveReference(ref).String()
}
