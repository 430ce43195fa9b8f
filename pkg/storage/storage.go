package storage

import (
	"context"
	"io"
	"time"
)

// ============================================================================
// FileSystem Interface
// ============================================================================

// WriteMode controls how Write behaves when the target path already exists.
type WriteMode int

const (
	// WriteExclusive fails with ErrAlreadyExists when the target exists.
	// Backends that can, implement this atomically (local O_EXCL, S3
	// conditional put), which is the only race-free "create if absent"
	// primitive this contract offers.
	WriteExclusive WriteMode = iota

	// WriteOverwrite truncates and replaces any existing content.
	WriteOverwrite
)

// FileInfo describes a stored object as reported by the backend.
//
// Times are nullable: not every backend tracks both timestamps (S3 has no
// creation time, memory backends may track neither).
type FileInfo struct {
	// Size is the content length in bytes.
	Size int64

	// CreateDate is the backend-reported creation time, if known.
	CreateDate *time.Time

	// UpdateDate is the backend-reported last modification time, if known.
	UpdateDate *time.Time
}

// FileSystem is the contract every storage backend must satisfy.
//
// It is the sole seam between the file lifecycle engine and the place bytes
// actually live (local disk, S3, an embedded key-value store, memory). The
// engine never touches the OS directly; everything flows through this
// interface.
//
// Paths are forward-slash separated and relative to the backend's root.
// Use Join/Dir/Base from this package rather than path/filepath so behavior
// is identical across backends and platforms.
//
// Invariants:
//   - Query operations (Exists, Stat, Read, ListNames) never mutate storage.
//   - Exists reports absence as (false, nil), never as an error.
//   - Stat, Read and Delete fail with ErrNotFound for missing paths.
//   - Write in WriteExclusive mode and Rename fail with ErrAlreadyExists
//     when the destination is taken.
//   - MkdirAll is idempotent.
//
// All operations are synchronous and blocking. Retry, latency and timeout
// handling is the backend's responsibility; the contract only requires that
// context cancellation be honored.
type FileSystem interface {
	// Exists checks whether a path holds content.
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns size and timestamps for a stored object.
	//
	// Returns:
	//   - *FileInfo: Size always set; timestamps nullable
	//   - error: ErrNotFound if the path does not exist
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Read returns a reader over the stored content.
	//
	// The caller must close the returned reader. Fails with ErrNotFound
	// if the path does not exist.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write stores the reader's content at path according to mode.
	//
	// Parent directories are created as needed. In WriteExclusive mode an
	// existing target fails with ErrAlreadyExists; in WriteOverwrite mode
	// the previous content is truncated and replaced.
	Write(ctx context.Context, path string, r io.Reader, mode WriteMode) error

	// Rename moves content from oldPath to newPath.
	//
	// Fails with ErrNotFound if oldPath does not exist and with
	// ErrAlreadyExists if newPath is taken. Callers that want replace
	// semantics delete the target first.
	Rename(ctx context.Context, oldPath, newPath string) error

	// Copy duplicates content from src to dst, overwriting dst.
	//
	// Fails with ErrNotFound if src does not exist. Used by the save
	// algorithm to produce ".bak" backups without round-tripping bytes
	// through the caller.
	Copy(ctx context.Context, src, dst string) error

	// Delete removes the content at path.
	//
	// Fails with ErrNotFound if the path does not exist.
	Delete(ctx context.Context, path string) error

	// MkdirAll ensures the directory hierarchy exists. Idempotent; a no-op
	// for backends without real directories (S3, memory, badger).
	MkdirAll(ctx context.Context, path string) error

	// ListNames returns the base names inside dir matching pattern
	// (path.Match syntax; "*" lists everything). Order is unspecified.
	// A missing directory yields an empty slice, not an error.
	ListNames(ctx context.Context, dir, pattern string) ([]string, error)
}
