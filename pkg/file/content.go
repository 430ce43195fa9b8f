package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/marmos91/filevault/pkg/storage"
)

// Content holds a file's internal content: either materialized bytes or a
// lazy source that produces them on demand.
//
// Lazy sources keep metadata-only operations (size check, rename) from
// pulling full bytes into memory. Hashing and writes require full
// materialization, which is the caller's memory-budget responsibility.
type Content struct {
	data         []byte
	materialized bool

	// source produces the bytes when the content is lazy. Consumed at most
	// once; after materialization all reads come from data.
	source func(ctx context.Context) (io.ReadCloser, error)
}

// NewContent creates materialized content from raw bytes.
func NewContent(data []byte) *Content {
	return &Content{data: data, materialized: true}
}

// NewLazyContent creates content that is materialized on first access by
// calling source.
func NewLazyContent(source func(ctx context.Context) (io.ReadCloser, error)) *Content {
	return &Content{source: source}
}

// NewStorageContent creates lazy content backed by a storage path.
func NewStorageContent(backend storage.FileSystem, path string) *Content {
	return NewLazyContent(func(ctx context.Context) (io.ReadCloser, error) {
		return backend.Read(ctx, path)
	})
}

// Materialized reports whether the bytes are already in memory.
func (c *Content) Materialized() bool {
	return c != nil && c.materialized
}

// Present reports whether there is any content, materialized or lazy.
func (c *Content) Present() bool {
	return c != nil && (c.materialized || c.source != nil)
}

// Bytes returns the full content, materializing a lazy source if necessary.
func (c *Content) Bytes(ctx context.Context) ([]byte, error) {
	if c == nil || (!c.materialized && c.source == nil) {
		return nil, newError(CodeNoInternalContent, "no internal content to read", "")
	}

	if !c.materialized {
		reader, err := c.source(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to materialize content: %w", err)
		}
		defer func() { _ = reader.Close() }()

		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read content source: %w", err)
		}
		if len(data) == 0 {
			return nil, newError(CodeEmptyContent, "no content was loaded", "")
		}
		c.data = data
		c.materialized = true
		c.source = nil
	}

	return c.data, nil
}

// Reader returns a reader over the content, materializing it first.
func (c *Content) Reader(ctx context.Context) (io.ReadCloser, error) {
	data, err := c.Bytes(ctx)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Len returns the content length in bytes, or -1 when not materialized.
func (c *Content) Len() int64 {
	if !c.Materialized() {
		return -1
	}
	return int64(len(c.data))
}

// IsBinary sniffs whether the materialized content is binary. Content that
// is valid UTF-8 counts as text. Unmaterialized content returns false with
// ok=false.
func (c *Content) IsBinary() (binary bool, ok bool) {
	if !c.Materialized() {
		return false, false
	}
	return !utf8.Valid(c.data), true
}
