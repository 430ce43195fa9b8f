// Package badger implements the filevault storage contract on BadgerDB,
// a fast embedded key-value store.
//
// It is suitable for:
//   - Single-process deployments that need persistence without a filesystem
//     layout (content-addressable caches, sidecar tooling)
//   - Tests that need durable storage without external services
//
// Storage Model:
// Each stored file occupies two keys under namespaced prefixes:
//   - "blob:<path>" holds the raw content bytes
//   - "info:<path>" holds JSON-encoded timestamps
//
// The prefixes keep content and bookkeeping from colliding and make the
// database self-documenting when inspected with badger tooling.
package badger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	gopath "path"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/marmos91/filevault/internal/logger"
	"github.com/marmos91/filevault/pkg/storage"
)

const (
	blobPrefix = "blob:"
	infoPrefix = "info:"
)

// fileInfoRecord is the persisted form of object bookkeeping.
type fileInfoRecord struct {
	CreateDate time.Time `json:"create_date"`
	UpdateDate time.Time `json:"update_date"`
}

// BadgerFileSystem implements storage.FileSystem backed by BadgerDB.
//
// Thread Safety:
// BadgerDB transactions provide isolation; all operations are safe for
// concurrent use. Write/Rename pairs on the same path run in a single
// transaction, so exclusive-write and no-overwrite-rename semantics hold
// under concurrency.
type BadgerFileSystem struct {
	db      *badger.DB
	ownedDB bool
}

// BadgerFileSystemConfig contains configuration for the BadgerDB backend.
type BadgerFileSystemConfig struct {
	// DBPath is the directory where BadgerDB stores its files.
	// Ignored when DB is provided.
	DBPath string

	// DB is an already-open BadgerDB handle to reuse. When set, Close
	// does not close the database.
	DB *badger.DB

	// InMemory opens BadgerDB without any on-disk files. Useful for tests.
	InMemory bool
}

// NewBadgerFileSystem creates a BadgerDB-backed storage implementation.
//
// When no existing DB handle is supplied, BadgerDB is opened at DBPath with
// defaults tuned for blob storage (warning-level logging, no compression).
//
// Parameters:
//   - ctx: Context for cancellation
//   - cfg: Backend configuration
//
// Returns:
//   - *BadgerFileSystem: Initialized backend
//   - error: Returns error if the database cannot be opened or context is cancelled
func NewBadgerFileSystem(ctx context.Context, cfg BadgerFileSystemConfig) (*BadgerFileSystem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.DB != nil {
		return &BadgerFileSystem{db: cfg.DB}, nil
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.DBPath == "" {
			return nil, fmt.Errorf("database path is required")
		}
		opts = badger.DefaultOptions(cfg.DBPath)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	logger.Info("BadgerDB storage initialized: path=%s, in_memory=%v", cfg.DBPath, cfg.InMemory)

	return &BadgerFileSystem{db: db, ownedDB: true}, nil
}

// Close releases the underlying database if this backend opened it.
func (b *BadgerFileSystem) Close() error {
	if !b.ownedDB {
		return nil
	}
	return b.db.Close()
}

func blobKey(path string) []byte {
	return []byte(blobPrefix + storage.Sanitize(path))
}

func infoKey(path string) []byte {
	return []byte(infoPrefix + storage.Sanitize(path))
}

// Exists checks whether an object is present at path.
func (b *BadgerFileSystem) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	exists := false
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(blobKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check existence of %s: %w", path, err)
	}

	return exists, nil
}

// Stat returns size and timestamps for the object at path.
func (b *BadgerFileSystem) Stat(ctx context.Context, path string) (*storage.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var info storage.FileInfo
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("stat %s: %w", path, storage.ErrNotFound)
		}
		if err != nil {
			return err
		}
		info.Size = item.ValueSize()

		record, err := readInfoRecord(txn, path)
		if err != nil {
			return err
		}
		if record != nil {
			created := record.CreateDate
			updated := record.UpdateDate
			info.CreateDate = &created
			info.UpdateDate = &updated
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return &info, nil
}

// readInfoRecord loads the bookkeeping record for path, or nil if absent.
func readInfoRecord(txn *badger.Txn, path string) (*fileInfoRecord, error) {
	item, err := txn.Get(infoKey(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record fileInfoRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode info record for %s: %w", path, err)
	}

	return &record, nil
}

func writeInfoRecord(txn *badger.Txn, path string, record fileInfoRecord) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode info record for %s: %w", path, err)
	}
	return txn.Set(infoKey(path), encoded)
}

// Read returns a reader over a copy of the object's content.
func (b *BadgerFileSystem) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("read %s: %w", path, storage.ErrNotFound)
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Write stores the reader's content at path.
//
// The existence check and the set run in one transaction, so exclusive
// writes are atomic.
func (b *BadgerFileSystem) Write(ctx context.Context, path string, r io.Reader, mode storage.WriteMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content for %s: %w", path, err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		record, err := readInfoRecord(txn, path)
		if err != nil {
			return err
		}

		now := time.Now()
		if record != nil {
			if mode == storage.WriteExclusive {
				return fmt.Errorf("write %s: %w", path, storage.ErrAlreadyExists)
			}
			record.UpdateDate = now
		} else {
			record = &fileInfoRecord{CreateDate: now, UpdateDate: now}
		}

		if err := txn.Set(blobKey(path), data); err != nil {
			return err
		}
		return writeInfoRecord(txn, path, *record)
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return err
		}
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// Rename moves content from oldPath to newPath without overwriting.
func (b *BadgerFileSystem) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(oldPath))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("rename %s: %w", oldPath, storage.ErrNotFound)
		}
		if err != nil {
			return err
		}

		if _, err := txn.Get(blobKey(newPath)); err == nil {
			return fmt.Errorf("rename to %s: %w", newPath, storage.ErrAlreadyExists)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		record, err := readInfoRecord(txn, oldPath)
		if err != nil {
			return err
		}
		if record == nil {
			now := time.Now()
			record = &fileInfoRecord{CreateDate: now}
		}
		record.UpdateDate = time.Now()

		if err := txn.Set(blobKey(newPath), data); err != nil {
			return err
		}
		if err := writeInfoRecord(txn, newPath, *record); err != nil {
			return err
		}
		if err := txn.Delete(blobKey(oldPath)); err != nil {
			return err
		}
		return txn.Delete(infoKey(oldPath))
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrAlreadyExists) {
			return err
		}
		return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, err)
	}

	return nil
}

// Copy duplicates src to dst, replacing dst if present.
func (b *BadgerFileSystem) Copy(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(src))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("copy %s: %w", src, storage.ErrNotFound)
		}
		if err != nil {
			return err
		}

		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		now := time.Now()
		record, err := readInfoRecord(txn, dst)
		if err != nil {
			return err
		}
		if record != nil {
			record.UpdateDate = now
		} else {
			record = &fileInfoRecord{CreateDate: now, UpdateDate: now}
		}

		if err := txn.Set(blobKey(dst), data); err != nil {
			return err
		}
		return writeInfoRecord(txn, dst, *record)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	return nil
}

// Delete removes the object at path.
func (b *BadgerFileSystem) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(blobKey(path)); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", path, storage.ErrNotFound)
		} else if err != nil {
			return err
		}

		if err := txn.Delete(blobKey(path)); err != nil {
			return err
		}
		return txn.Delete(infoKey(path))
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}

	return nil
}

// MkdirAll is a no-op: the keyspace is flat, keys carry the full path.
func (b *BadgerFileSystem) MkdirAll(ctx context.Context, path string) error {
	return ctx.Err()
}

// ListNames returns base names of objects directly under dir matching
// pattern, using a prefix scan over the blob namespace.
func (b *BadgerFileSystem) ListNames(ctx context.Context, dir, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := storage.Sanitize(dir)
	if prefix != "" {
		prefix += "/"
	}
	scanPrefix := []byte(blobPrefix + prefix)

	names := make([]string, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = scanPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(scanPrefix); it.Next() {
			key := string(it.Item().Key())
			name := strings.TrimPrefix(key, string(scanPrefix))
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			matched, err := gopath.Match(pattern, name)
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			if matched {
				names = append(names, name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	sort.Strings(names)
	return names, nil
}

var _ storage.FileSystem = (*BadgerFileSystem)(nil)
