package config

import (
	"context"
	"fmt"

	"github.com/marmos91/filevault/pkg/storage"
	"github.com/marmos91/filevault/pkg/storage/badger"
	"github.com/marmos91/filevault/pkg/storage/local"
	"github.com/marmos91/filevault/pkg/storage/memory"
	"github.com/marmos91/filevault/pkg/storage/s3"
	"github.com/mitchellh/mapstructure"
)

// NewFileSystem creates a storage backend based on configuration.
//
// This factory function uses the Type field to determine which backend
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the backend's constructor.
//
// Supported types:
//   - "local": Uses pkg/storage/local (local filesystem storage)
//   - "memory": Uses pkg/storage/memory (in-memory storage)
//   - "s3": Uses pkg/storage/s3 (Amazon S3 or compatible storage)
//   - "badger": Uses pkg/storage/badger (embedded BadgerDB storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Storage backend configuration
//
// Returns:
//   - storage.FileSystem: Initialized storage backend
//   - error: Configuration or initialization error
func NewFileSystem(ctx context.Context, cfg *StorageConfig) (storage.FileSystem, error) {
	switch cfg.Type {
	case "local":
		return newLocalFileSystem(ctx, cfg.Local)
	case "memory":
		return memory.NewMemoryFileSystem(), nil
	case "s3":
		return newS3FileSystem(ctx, cfg.S3)
	case "badger":
		return newBadgerFileSystem(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown storage backend type: %q", cfg.Type)
	}
}

// newLocalFileSystem creates a local-filesystem-backed storage backend.
func newLocalFileSystem(ctx context.Context, options map[string]any) (storage.FileSystem, error) {
	type LocalStorageConfig struct {
		Path string `mapstructure:"path"`
	}

	var storeCfg LocalStorageConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode local storage config: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("local storage: path is required")
	}

	fs, err := local.NewLocalFileSystem(ctx, storeCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create local storage backend: %w", err)
	}

	return fs, nil
}

// newS3FileSystem creates an S3-backed storage backend.
func newS3FileSystem(ctx context.Context, options map[string]any) (storage.FileSystem, error) {
	type S3StorageConfig struct {
		Bucket          string `mapstructure:"bucket"`
		Region          string `mapstructure:"region"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
	}

	var storeCfg S3StorageConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode s3 storage config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("s3 storage: region is required")
	}

	client, err := s3.NewClient(ctx, s3.ClientConfig{
		Region:          storeCfg.Region,
		Endpoint:        storeCfg.Endpoint,
		AccessKeyID:     storeCfg.AccessKeyID,
		SecretAccessKey: storeCfg.SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	fs, err := s3.NewS3FileSystem(ctx, s3.S3FileSystemConfig{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 storage backend: %w", err)
	}

	return fs, nil
}

// newBadgerFileSystem creates a BadgerDB-backed storage backend.
func newBadgerFileSystem(ctx context.Context, options map[string]any) (storage.FileSystem, error) {
	type BadgerStorageConfig struct {
		Path     string `mapstructure:"path"`
		InMemory bool   `mapstructure:"in_memory"`
	}

	var storeCfg BadgerStorageConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger storage config: %w", err)
	}

	if storeCfg.Path == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger storage: path is required unless in_memory is set")
	}

	fs, err := badger.NewBadgerFileSystem(ctx, badger.BadgerFileSystemConfig{
		DBPath:   storeCfg.Path,
		InMemory: storeCfg.InMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger storage backend: %w", err)
	}

	return fs, nil
}
