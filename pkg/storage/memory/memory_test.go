package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/filevault/pkg/storage"
	storagetesting "github.com/marmos91/filevault/pkg/storage/testing"
)

// TestMemoryFileSystem_Conformance runs the full backend contract suite.
func TestMemoryFileSystem_Conformance(t *testing.T) {
	suite := &storagetesting.BackendTestSuite{
		NewFileSystem: func(t *testing.T) storage.FileSystem {
			return NewMemoryFileSystem()
		},
	}
	suite.Run(t)
}

func TestMemoryFileSystem_Len(t *testing.T) {
	ctx := context.Background()
	fs := NewMemoryFileSystem()

	assert.Equal(t, 0, fs.Len())

	require.NoError(t, fs.Write(ctx, "a.txt", bytes.NewReader([]byte("a")), storage.WriteOverwrite))
	require.NoError(t, fs.Write(ctx, "b.txt", bytes.NewReader([]byte("b")), storage.WriteOverwrite))
	assert.Equal(t, 2, fs.Len())

	require.NoError(t, fs.Delete(ctx, "a.txt"))
	assert.Equal(t, 1, fs.Len())
}

// Readers must see a snapshot, not the live buffer.
func TestMemoryFileSystem_ReadIsolation(t *testing.T) {
	ctx := context.Background()
	fs := NewMemoryFileSystem()

	require.NoError(t, fs.Write(ctx, "file.txt", bytes.NewReader([]byte("before")), storage.WriteOverwrite))

	reader, err := fs.Read(ctx, "file.txt")
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	require.NoError(t, fs.Write(ctx, "file.txt", bytes.NewReader([]byte("after!")), storage.WriteOverwrite))

	buf := make([]byte, 6)
	_, err = reader.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("before"), buf)
}

func TestMemoryFileSystem_CancelledContext(t *testing.T) {
	fs := NewMemoryFileSystem()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fs.Exists(ctx, "any.txt")
	assert.ErrorIs(t, err, context.Canceled)

	err = fs.Write(ctx, "any.txt", bytes.NewReader([]byte("x")), storage.WriteOverwrite)
	assert.ErrorIs(t, err, context.Canceled)
}
