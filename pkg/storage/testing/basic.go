package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/filevault/pkg/storage"
)

// RunBasicTests executes Exists, Stat and Read contract tests.
func (suite *BackendTestSuite) RunBasicTests(t *testing.T) {
	t.Run("Exists_NotFound", suite.testExistsNotFound)
	t.Run("Exists_Success", suite.testExistsSuccess)
	t.Run("Stat_NotFound", suite.testStatNotFound)
	t.Run("Stat_Success", suite.testStatSuccess)
	t.Run("Read_NotFound", suite.testReadNotFound)
	t.Run("Read_Success", suite.testReadSuccess)
	t.Run("Read_Empty", suite.testReadEmpty)
	t.Run("Read_Large", suite.testReadLarge)
	t.Run("Read_NestedPath", suite.testReadNestedPath)
}

func (suite *BackendTestSuite) testExistsNotFound(t *testing.T) {
	fs := suite.NewFileSystem(t)

	assertExists(t, fs, "missing.txt", false)
}

func (suite *BackendTestSuite) testExistsSuccess(t *testing.T) {
	fs := suite.NewFileSystem(t)

	assertExists(t, fs, "hello.txt", false)
	mustWrite(t, fs, "hello.txt", []byte("hello"))
	assertExists(t, fs, "hello.txt", true)
}

func (suite *BackendTestSuite) testStatNotFound(t *testing.T) {
	fs := suite.NewFileSystem(t)

	_, err := fs.Stat(testContext(), "missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func (suite *BackendTestSuite) testStatSuccess(t *testing.T) {
	fs := suite.NewFileSystem(t)

	data := []byte("stat me")
	mustWrite(t, fs, "stat.txt", data)

	info, err := fs.Stat(testContext(), "stat.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)

	if !suite.SkipTimestamps {
		require.NotNil(t, info.UpdateDate, "UpdateDate should be populated")
		assert.False(t, info.UpdateDate.IsZero())
	}
}

func (suite *BackendTestSuite) testReadNotFound(t *testing.T) {
	fs := suite.NewFileSystem(t)

	_, err := fs.Read(testContext(), "missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func (suite *BackendTestSuite) testReadSuccess(t *testing.T) {
	fs := suite.NewFileSystem(t)

	data := []byte("Hello, World!")
	mustWrite(t, fs, "read.txt", data)
	assertContentEquals(t, fs, "read.txt", data)
}

func (suite *BackendTestSuite) testReadEmpty(t *testing.T) {
	fs := suite.NewFileSystem(t)

	mustWrite(t, fs, "empty.txt", []byte{})

	data := mustRead(t, fs, "empty.txt")
	assert.Len(t, data, 0)
}

func (suite *BackendTestSuite) testReadLarge(t *testing.T) {
	fs := suite.NewFileSystem(t)

	// 4MB is enough to cross typical buffer boundaries
	data := generateTestData(4 * 1024 * 1024)
	mustWrite(t, fs, "large.bin", data)
	assertContentEquals(t, fs, "large.bin", data)
}

func (suite *BackendTestSuite) testReadNestedPath(t *testing.T) {
	fs := suite.NewFileSystem(t)

	data := []byte("nested")
	mustWrite(t, fs, "a/b/c/nested.txt", data)
	assertContentEquals(t, fs, "a/b/c/nested.txt", data)
	assertExists(t, fs, "a/b/c/nested.txt", true)
}
