// Package s3 implements the filevault storage contract on Amazon S3 or any
// S3-compatible object store (MinIO, Localstack, Cubbit DS3, etc.).
//
// Path-Based Key Design:
//   - The contract path is used directly as the object key under an
//     optional key prefix
//   - No leading "/" in keys; forward slashes delimit "directories"
//   - The bucket mirrors the logical directory layout, so stored files
//     are human-readable and inspectable with standard S3 tooling
//
// Exclusive writes rely on S3 conditional requests (If-None-Match: *), so
// the existence check and the put are a single atomic operation on the
// server side. This requires an S3 implementation that honors conditional
// writes (AWS S3 does since 2024; recent MinIO releases do as well).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	gopath "path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/marmos91/filevault/internal/logger"
	"github.com/marmos91/filevault/pkg/storage"
)

// S3FileSystem implements storage.FileSystem on an S3 bucket.
//
// Thread Safety:
// This implementation is safe for concurrent use by multiple goroutines.
// Concurrent overwrites of the same key are last-write-wins, consistent
// with S3 semantics.
type S3FileSystem struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3FileSystemConfig contains configuration for the S3 backend.
type S3FileSystemConfig struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "vault/" results in keys like "vault/docs/report.pdf"
	KeyPrefix string
}

// NewS3FileSystem creates a new S3-backed storage implementation.
//
// This verifies bucket access up front. The bucket must already exist -
// this function does not create it.
//
// Context Cancellation:
// This operation checks the context before the bucket access probe.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: S3 configuration
//
// Returns:
//   - *S3FileSystem: Initialized backend
//   - error: Returns error if bucket access fails or context is cancelled
func NewS3FileSystem(ctx context.Context, cfg S3FileSystemConfig) (*S3FileSystem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	logger.Info("S3 storage initialized: bucket=%s, prefix=%s", cfg.Bucket, cfg.KeyPrefix)

	return &S3FileSystem{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// ClientConfig describes how to build an S3 client from plain settings.
//
// Endpoint is optional and only needed for S3-compatible services. When set,
// path-style addressing is forced for MinIO/Localstack compatibility. When
// AccessKeyID and SecretAccessKey are empty the default AWS credential chain
// is used (environment, shared config, instance roles).
type ClientConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewClient builds an S3 client from plain settings.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: Client settings
//
// Returns:
//   - *s3.Client: Configured S3 client
//   - error: Returns error if the AWS configuration cannot be loaded
func NewClient(ctx context.Context, cfg ClientConfig) (*s3.Client, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}

	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}

	// Custom endpoint for S3-compatible storage (MinIO, Localstack, etc.)
	if cfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Force path-style addressing for compatibility with MinIO/Localstack
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	return client, nil
}

// key translates a contract path into the object key for this backend.
func (s *S3FileSystem) key(path string) string {
	return s.keyPrefix + storage.Sanitize(path)
}

// isNotFound reports whether err is any of the S3 "object does not exist"
// error shapes. GetObject returns NoSuchKey while HeadObject returns a bare
// NotFound, so both are checked.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

// Exists checks whether an object is present at path.
func (s *S3FileSystem) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}

// Stat returns size and timestamps for the object at path.
//
// S3 only tracks the last modification time, so CreateDate is nil.
func (s *S3FileSystem) Stat(ctx context.Context, path string) (*storage.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("stat %s: %w", path, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to head object: %w", err)
	}

	info := &storage.FileInfo{
		UpdateDate: head.LastModified,
	}
	if head.ContentLength != nil {
		info.Size = *head.ContentLength
	}

	return info, nil
}

// Read opens the object at path for sequential reading.
//
// The returned body streams directly from S3; the caller must close it.
func (s *S3FileSystem) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("read %s: %w", path, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	return result.Body, nil
}

// Write stores the reader's content at path.
//
// WriteExclusive sends If-None-Match: "*" so S3 rejects the put if the key
// already exists, making check-and-create atomic server side.
func (s *S3FileSystem) Write(ctx context.Context, path string, r io.Reader, mode storage.WriteMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
		Body:   r,
	}
	if mode == storage.WriteExclusive {
		input.IfNoneMatch = aws.String("*")
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return fmt.Errorf("write %s: %w", path, storage.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to put object to S3: %w", err)
	}

	return nil
}

// Rename moves the object from oldPath to newPath without overwriting.
//
// S3 has no native rename, so this is a copy followed by a delete. The
// destination existence check is not atomic with the copy; a concurrent
// writer can still race it, which the contract tolerates.
func (s *S3FileSystem) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exists, err := s.Exists(ctx, newPath)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("rename to %s: %w", newPath, storage.ErrAlreadyExists)
	}

	if err := s.copyObject(ctx, oldPath, newPath); err != nil {
		return err
	}

	return s.Delete(ctx, oldPath)
}

// Copy duplicates src to dst, replacing dst if present.
func (s *S3FileSystem) Copy(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.copyObject(ctx, src, dst)
}

func (s *S3FileSystem) copyObject(ctx context.Context, src, dst string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(s.bucket + "/" + s.key(src)),
		Key:        aws.String(s.key(dst)),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("copy %s: %w", src, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to copy object in S3: %w", err)
	}

	return nil
}

// Delete removes the object at path.
//
// S3 DeleteObject is idempotent and succeeds for missing keys, so the
// object is probed first to honor the contract's not-found semantics.
func (s *S3FileSystem) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exists, err := s.Exists(ctx, path)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("delete %s: %w", path, storage.ErrNotFound)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	return nil
}

// MkdirAll is a no-op: S3 has no directories, keys carry the full path.
func (s *S3FileSystem) MkdirAll(ctx context.Context, path string) error {
	return ctx.Err()
}

// ListNames returns base names of objects directly under dir matching
// pattern. Keys in nested "subdirectories" are excluded via the "/"
// delimiter.
func (s *S3FileSystem) ListNames(ctx context.Context, dir, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := s.key(dir)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	names := make([]string, 0)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in S3: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			name := strings.TrimPrefix(*obj.Key, prefix)
			if name == "" {
				continue
			}
			matched, err := gopath.Match(pattern, name)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			if matched {
				names = append(names, name)
			}
		}
	}

	sort.Strings(names)
	return names, nil
}

var _ storage.FileSystem = (*S3FileSystem)(nil)
