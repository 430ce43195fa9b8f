package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/filevault/pkg/storage"
)

// RunMoveTests executes Rename and Copy contract tests.
func (suite *BackendTestSuite) RunMoveTests(t *testing.T) {
	t.Run("Rename_Success", suite.testRenameSuccess)
	t.Run("Rename_SourceMissing", suite.testRenameSourceMissing)
	t.Run("Rename_TargetExists", suite.testRenameTargetExists)
	t.Run("Copy_Success", suite.testCopySuccess)
	t.Run("Copy_SourceMissing", suite.testCopySourceMissing)
	t.Run("Copy_ReplacesTarget", suite.testCopyReplacesTarget)
}

func (suite *BackendTestSuite) testRenameSuccess(t *testing.T) {
	fs := suite.NewFileSystem(t)

	data := []byte("move me")
	mustWrite(t, fs, "old.txt", data)

	err := fs.Rename(testContext(), "old.txt", "new.txt")
	require.NoError(t, err)

	assertExists(t, fs, "old.txt", false)
	assertContentEquals(t, fs, "new.txt", data)
}

func (suite *BackendTestSuite) testRenameSourceMissing(t *testing.T) {
	fs := suite.NewFileSystem(t)

	err := fs.Rename(testContext(), "missing.txt", "new.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func (suite *BackendTestSuite) testRenameTargetExists(t *testing.T) {
	fs := suite.NewFileSystem(t)

	srcData := []byte("source")
	dstData := []byte("destination")
	mustWrite(t, fs, "src.txt", srcData)
	mustWrite(t, fs, "dst.txt", dstData)

	err := fs.Rename(testContext(), "src.txt", "dst.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	// Both files must be untouched
	assertContentEquals(t, fs, "src.txt", srcData)
	assertContentEquals(t, fs, "dst.txt", dstData)
}

func (suite *BackendTestSuite) testCopySuccess(t *testing.T) {
	fs := suite.NewFileSystem(t)

	data := []byte("copy me")
	mustWrite(t, fs, "orig.txt", data)

	err := fs.Copy(testContext(), "orig.txt", "dup.txt")
	require.NoError(t, err)

	// Source stays in place, destination has identical content
	assertContentEquals(t, fs, "orig.txt", data)
	assertContentEquals(t, fs, "dup.txt", data)
}

func (suite *BackendTestSuite) testCopySourceMissing(t *testing.T) {
	fs := suite.NewFileSystem(t)

	err := fs.Copy(testContext(), "missing.txt", "dup.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func (suite *BackendTestSuite) testCopyReplacesTarget(t *testing.T) {
	fs := suite.NewFileSystem(t)

	data := []byte("fresh content")
	mustWrite(t, fs, "src.txt", data)
	mustWrite(t, fs, "dst.txt", []byte("stale content"))

	err := fs.Copy(testContext(), "src.txt", "dst.txt")
	require.NoError(t, err)
	assertContentEquals(t, fs, "dst.txt", data)
}
