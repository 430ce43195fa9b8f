// Package local implements the filevault storage contract on the local
// filesystem.
//
// Content is rooted at a base directory; contract paths are translated to
// OS paths internally. This is the default backend for path-backed files.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	gopath "path"
	"path/filepath"
	"time"

	"github.com/marmos91/filevault/pkg/storage"
)

// LocalFileSystem implements storage.FileSystem using the os package.
//
// Thread Safety:
// The underlying filesystem operations are thread-safe at the OS level, but
// concurrent writes to the same path may interleave. Callers serialize
// access to a given path themselves, matching the contract.
type LocalFileSystem struct {
	basePath string
}

// NewLocalFileSystem creates a local backend rooted at basePath.
//
// The base directory is created with permissions 0755 if it does not exist.
//
// Parameters:
//   - ctx: Context for cancellation
//   - basePath: Root directory for all stored content
//
// Returns:
//   - *LocalFileSystem: Initialized backend
//   - error: Returns error if directory creation fails or context is cancelled
func NewLocalFileSystem(ctx context.Context, basePath string) (*LocalFileSystem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalFileSystem{basePath: basePath}, nil
}

// osPath translates a contract path into an OS path under the base directory.
func (l *LocalFileSystem) osPath(path string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(storage.Sanitize(path)))
}

// Exists checks whether a regular file is present at path.
func (l *LocalFileSystem) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(l.osPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return !info.IsDir(), nil
}

// Stat returns size and timestamps for the file at path.
//
// The local filesystem does not portably expose a creation time, so only
// UpdateDate is populated.
func (l *LocalFileSystem) Stat(ctx context.Context, path string) (*storage.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(l.osPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("stat %s: %w", path, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("stat %s: is a directory: %w", path, storage.ErrNotFound)
	}

	modTime := info.ModTime()
	return &storage.FileInfo{
		Size:       info.Size(),
		UpdateDate: timePtr(modTime),
	}, nil
}

// Read opens the file at path for sequential reading.
func (l *LocalFileSystem) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.osPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return f, nil
}

// Write stores the reader's content at path.
//
// WriteExclusive uses O_EXCL so the existence check and the create are a
// single atomic operation on the local filesystem.
func (l *LocalFileSystem) Write(ctx context.Context, path string, r io.Reader, mode storage.WriteMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := l.osPath(path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", path, err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if mode == storage.WriteExclusive {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	f, err := os.OpenFile(target, flags, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("write %s: %w", path, storage.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to open %s for writing: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}

// Rename moves content from oldPath to newPath without overwriting.
func (l *LocalFileSystem) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exists, err := l.Exists(ctx, oldPath)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("rename %s: %w", oldPath, storage.ErrNotFound)
	}

	exists, err = l.Exists(ctx, newPath)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("rename to %s: %w", newPath, storage.ErrAlreadyExists)
	}

	target := l.osPath(newPath)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", newPath, err)
	}

	if err := os.Rename(l.osPath(oldPath), target); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, err)
	}

	return nil
}

// Copy duplicates src to dst, replacing dst if present.
func (l *LocalFileSystem) Copy(ctx context.Context, src, dst string) error {
	reader, err := l.Read(ctx, src)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	return l.Write(ctx, dst, reader, storage.WriteOverwrite)
}

// Delete removes the file at path.
func (l *LocalFileSystem) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(l.osPath(path)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete %s: %w", path, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}

	return nil
}

// MkdirAll ensures the directory hierarchy exists under the base directory.
func (l *LocalFileSystem) MkdirAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(l.osPath(path), 0755); err != nil {
		return fmt.Errorf("failed to create directories %s: %w", path, err)
	}

	return nil
}

// ListNames returns base names of regular files in dir matching pattern.
func (l *LocalFileSystem) ListNames(ctx context.Context, dir, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(l.osPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matched, err := gopath.Match(pattern, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if matched {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

// BasePath returns the root directory this backend stores content under.
func (l *LocalFileSystem) BasePath() string {
	return l.basePath
}

func timePtr(t time.Time) *time.Time {
	return &t
}

var _ storage.FileSystem = (*LocalFileSystem)(nil)
