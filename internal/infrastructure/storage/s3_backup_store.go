// Package storage stores backup archives in S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gasdist/backend/internal/domain/integration"
	"github.com/gasdist/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ integration.BackupPort = (*S3BackupStore)(nil)

// S3BackupStore implements integration.BackupPort on any S3-compatible service
// (AWS S3, MinIO, RustFS)
type S3BackupStore struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// S3BackupStoreOption is a functional option for configuring S3BackupStore
type S3BackupStoreOption func(*S3BackupStore)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3BackupStoreOption {
	return func(s *S3BackupStore) {
		s.logger = logger
	}
}

// NewS3BackupStore creates a store from configuration
func NewS3BackupStore(ctx context.Context, cfg *config.StorageConfig, opts ...S3BackupStoreOption) (*S3BackupStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage access key and secret are required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	var endpoint string
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		// S3-compatible servers do not all accept streaming trailer checksums
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	store := &S3BackupStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.BackupPrefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3BackupStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating backup bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Store uploads the archive under the backup prefix
func (s *S3BackupStore) Store(ctx context.Context, name string, r io.Reader, size int64) (integration.BackupRef, error) {
	if name == "" {
		return integration.BackupRef{}, errors.New("backup name is required")
	}
	key := s.key(name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/gzip"),
	})
	if err != nil {
		return integration.BackupRef{}, fmt.Errorf("failed to upload backup: %w", err)
	}

	s.logger.Info("Backup uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int64("size", size),
	)
	return integration.BackupRef{
		Name:      name,
		Location:  "s3://" + s.bucket + "/" + key,
		Size:      size,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// List returns the archives under the backup prefix, newest first
func (s *S3BackupStore) List(ctx context.Context) ([]integration.BackupRef, error) {
	var refs []integration.BackupRef
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list backups: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			ref := integration.BackupRef{
				Name:     path.Base(key),
				Location: "s3://" + s.bucket + "/" + key,
				Size:     aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				ref.CreatedAt = obj.LastModified.UTC()
			}
			refs = append(refs, ref)
		}
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].CreatedAt.After(refs[j].CreatedAt) })
	return refs, nil
}

func (s *S3BackupStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + name
}
