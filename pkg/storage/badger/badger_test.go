package badger

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/filevault/pkg/storage"
	storagetesting "github.com/marmos91/filevault/pkg/storage/testing"
)

func newReader(s string) io.Reader {
	return strings.NewReader(s)
}

func newTestFileSystem(t *testing.T) *BadgerFileSystem {
	t.Helper()

	fs, err := NewBadgerFileSystem(context.Background(), BadgerFileSystemConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })
	return fs
}

// TestBadgerFileSystem_Conformance runs the full backend contract suite
// against an in-memory BadgerDB instance.
func TestBadgerFileSystem_Conformance(t *testing.T) {
	suite := &storagetesting.BackendTestSuite{
		NewFileSystem: func(t *testing.T) storage.FileSystem {
			return newTestFileSystem(t)
		},
	}
	suite.Run(t)
}

// TestBadgerFileSystem_Persistence verifies content survives reopening the
// database from the same on-disk path.
func TestBadgerFileSystem_Persistence(t *testing.T) {
	ctx := context.Background()
	dbPath := t.TempDir()

	fs, err := NewBadgerFileSystem(ctx, BadgerFileSystemConfig{DBPath: dbPath})
	require.NoError(t, err)

	err = fs.Write(ctx, "durable.txt", newReader("still here"), storage.WriteOverwrite)
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	reopened, err := NewBadgerFileSystem(ctx, BadgerFileSystemConfig{DBPath: dbPath})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	exists, err := reopened.Exists(ctx, "durable.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewBadgerFileSystem_RequiresPath(t *testing.T) {
	_, err := NewBadgerFileSystem(context.Background(), BadgerFileSystemConfig{})
	assert.Error(t, err)
}

func TestBadgerFileSystem_SharedDBNotClosed(t *testing.T) {
	ctx := context.Background()

	owner := newTestFileSystem(t)

	shared, err := NewBadgerFileSystem(ctx, BadgerFileSystemConfig{DB: owner.db})
	require.NoError(t, err)

	// Close on a shared handle must leave the database usable
	require.NoError(t, shared.Close())

	err = owner.Write(ctx, "alive.txt", newReader("ok"), storage.WriteOverwrite)
	assert.NoError(t, err)
}
