// Package memory implements the filevault storage contract entirely in
// memory.
//
// The backend keeps every object in a map guarded by a RWMutex. It is meant
// for tests and short-lived tooling; nothing survives process restart.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	gopath "path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/filevault/pkg/storage"
)

type entry struct {
	data       []byte
	createDate time.Time
	updateDate time.Time
}

// MemoryFileSystem implements storage.FileSystem backed by an in-memory map.
//
// Thread Safety:
// All operations are safe for concurrent use.
type MemoryFileSystem struct {
	mu      sync.RWMutex
	entries map[string]*entry
	dirs    map[string]bool
}

// NewMemoryFileSystem creates an empty in-memory backend.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		entries: make(map[string]*entry),
		dirs:    make(map[string]bool),
	}
}

// Exists checks whether an object is present at path.
func (m *MemoryFileSystem) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[storage.Sanitize(path)]
	return ok, nil
}

// Stat returns size and timestamps for the object at path.
func (m *MemoryFileSystem) Stat(ctx context.Context, path string) (*storage.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[storage.Sanitize(path)]
	if !ok {
		return nil, fmt.Errorf("stat %s: %w", path, storage.ErrNotFound)
	}

	created := e.createDate
	updated := e.updateDate
	return &storage.FileInfo{
		Size:       int64(len(e.data)),
		CreateDate: &created,
		UpdateDate: &updated,
	}, nil
}

// Read returns a reader over a copy of the object's content.
func (m *MemoryFileSystem) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[storage.Sanitize(path)]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, storage.ErrNotFound)
	}

	data := make([]byte, len(e.data))
	copy(data, e.data)
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Write stores the reader's content at path.
func (m *MemoryFileSystem) Write(ctx context.Context, path string, r io.Reader, mode storage.WriteMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content for %s: %w", path, err)
	}

	key := storage.Sanitize(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if existing, ok := m.entries[key]; ok {
		if mode == storage.WriteExclusive {
			return fmt.Errorf("write %s: %w", path, storage.ErrAlreadyExists)
		}
		existing.data = data
		existing.updateDate = now
		return nil
	}

	m.entries[key] = &entry{data: data, createDate: now, updateDate: now}
	return nil
}

// Rename moves content from oldPath to newPath without overwriting.
func (m *MemoryFileSystem) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	oldKey := storage.Sanitize(oldPath)
	newKey := storage.Sanitize(newPath)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[oldKey]
	if !ok {
		return fmt.Errorf("rename %s: %w", oldPath, storage.ErrNotFound)
	}
	if _, ok := m.entries[newKey]; ok {
		return fmt.Errorf("rename to %s: %w", newPath, storage.ErrAlreadyExists)
	}

	delete(m.entries, oldKey)
	e.updateDate = time.Now()
	m.entries[newKey] = e
	return nil
}

// Copy duplicates src to dst, replacing dst if present.
func (m *MemoryFileSystem) Copy(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	srcKey := storage.Sanitize(src)
	dstKey := storage.Sanitize(dst)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[srcKey]
	if !ok {
		return fmt.Errorf("copy %s: %w", src, storage.ErrNotFound)
	}

	data := make([]byte, len(e.data))
	copy(data, e.data)

	now := time.Now()
	if existing, ok := m.entries[dstKey]; ok {
		existing.data = data
		existing.updateDate = now
		return nil
	}

	m.entries[dstKey] = &entry{data: data, createDate: now, updateDate: now}
	return nil
}

// Delete removes the object at path.
func (m *MemoryFileSystem) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := storage.Sanitize(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		return fmt.Errorf("delete %s: %w", path, storage.ErrNotFound)
	}

	delete(m.entries, key)
	return nil
}

// MkdirAll records the directory path. The in-memory backend has a flat
// keyspace, so this only matters for symmetry with other backends.
func (m *MemoryFileSystem) MkdirAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.dirs[storage.Sanitize(path)] = true
	return nil
}

// ListNames returns base names of objects directly under dir matching pattern.
func (m *MemoryFileSystem) ListNames(ctx context.Context, dir, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := storage.Sanitize(dir)
	if prefix != "" {
		prefix += "/"
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0)
	for key := range m.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.TrimPrefix(key, prefix)
		if strings.Contains(name, "/") {
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

	sort.Strings(names)
	return names, nil
}

// Len returns the number of stored objects. Useful in tests.
func (m *MemoryFileSystem) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ storage.FileSystem = (*MemoryFileSystem)(nil)
