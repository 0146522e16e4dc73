package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"go-placement-portal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Provider represents the S3-compatible storage provider
type Provider string

const (
	ProviderAWS    Provider = "aws"
	ProviderWasabi Provider = "wasabi"
	ProviderCustom Provider = "custom"
)

// WasabiEndpoints maps regions to Wasabi endpoints
var WasabiEndpoints = map[string]string{
	"us-east-1":      "s3.us-east-1.wasabisys.com",
	"us-east-2":      "s3.us-east-2.wasabisys.com",
	"us-west-1":      "s3.us-west-1.wasabisys.com",
	"eu-central-1":   "s3.eu-central-1.wasabisys.com",
	"eu-west-1":      "s3.eu-west-1.wasabisys.com",
	"ap-northeast-1": "s3.ap-northeast-1.wasabisys.com",
	"ap-southeast-1": "s3.ap-southeast-1.wasabisys.com",
	"ap-southeast-2": "s3.ap-southeast-2.wasabisys.com",
}

var ErrNotConfigured = errors.New("object storage is not configured")

// UploadResult is what callers persist: a public URL and the key used to delete it later.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type S3Storage struct {
	client     objectAPI
	bucket     string
	publicBase string
}

// endpointFor resolves the base endpoint for non-AWS providers. Empty means SDK default.
func endpointFor(provider Provider, region, override string) string {
	if override != "" {
		if !strings.HasPrefix(override, "http") {
			return "https://" + override
		}
		return override
	}
	if provider == ProviderWasabi {
		if ep, ok := WasabiEndpoints[region]; ok {
			return "https://" + ep
		}
		return "https://s3.ap-southeast-1.wasabisys.com"
	}
	return ""
}

// publicBaseFor derives the URL prefix objects are served from.
func publicBaseFor(configured, endpoint, bucket, region string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	if endpoint != "" {
		return strings.TrimRight(endpoint, "/") + "/" + bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
}

func NewS3Storage(ctx context.Context, cfg *config.Config) (*S3Storage, error) {
	if cfg.S3Bucket == "" || cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" {
		return nil, ErrNotConfigured
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := endpointFor(Provider(cfg.S3Provider), cfg.S3Region, cfg.S3Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			// Wasabi and MinIO require path-style
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:     client,
		bucket:     cfg.S3Bucket,
		publicBase: publicBaseFor(cfg.S3PublicBaseURL, endpoint, cfg.S3Bucket, cfg.S3Region),
	}, nil
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// objectKey builds "<folder>/<uuid>-<sanitized name>".
func objectKey(folder, filename string) string {
	folder = strings.Trim(path.Clean("/"+folder), "/")
	name := unsafeKeyChars.ReplaceAllString(path.Base(filename), "_")
	if name == "" || name == "." || name == "_" {
		name = "file"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	key := uuid.NewString() + "-" + name
	if folder == "" {
		return key
	}
	return folder + "/" + key
}

func (s *S3Storage) Upload(ctx context.Context, data []byte, folder, filename, contentType string) (*UploadResult, error) {
	key := objectKey(folder, filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	return &UploadResult{URL: s.publicBase + "/" + key, PublicID: key}, nil
}

func (s *S3Storage) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", publicID, err)
	}
	return nil
}

// Ping checks bucket access for the health endpoint.
func (s *S3Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("failed to access bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Unconfigured stands in when no bucket is configured; uploads fail with
// ErrNotConfigured so callers report the service as unavailable.
type Unconfigured struct{}

func (Unconfigured) Upload(context.Context, []byte, string, string, string) (*UploadResult, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Delete(context.Context, string) error { return nil }
