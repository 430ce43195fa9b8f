package testing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/filevault/pkg/storage"
)

// RunWriteTests executes Write-mode contract tests.
func (suite *BackendTestSuite) RunWriteTests(t *testing.T) {
	t.Run("Write_Basic", suite.testWriteBasic)
	t.Run("Write_Overwrite", suite.testWriteOverwrite)
	t.Run("Write_ExclusiveNew", suite.testWriteExclusiveNew)
	t.Run("Write_ExclusiveExisting", suite.testWriteExclusiveExisting)
	t.Run("Delete_Success", suite.testDeleteSuccess)
	t.Run("Delete_NotFound", suite.testDeleteNotFound)
	t.Run("MkdirAll_Succeeds", suite.testMkdirAll)
}

func (suite *BackendTestSuite) testWriteBasic(t *testing.T) {
	fs := suite.NewFileSystem(t)

	data := []byte("Hello, World!")
	mustWrite(t, fs, "write.txt", data)
	assertContentEquals(t, fs, "write.txt", data)
}

func (suite *BackendTestSuite) testWriteOverwrite(t *testing.T) {
	fs := suite.NewFileSystem(t)

	oldData := []byte("Old data")
	newData := []byte("New data that is longer")

	mustWrite(t, fs, "overwrite.txt", oldData)
	mustWrite(t, fs, "overwrite.txt", newData)
	assertContentEquals(t, fs, "overwrite.txt", newData)
}

func (suite *BackendTestSuite) testWriteExclusiveNew(t *testing.T) {
	fs := suite.NewFileSystem(t)

	data := []byte("exclusive")
	err := fs.Write(testContext(), "exclusive.txt", bytes.NewReader(data), storage.WriteExclusive)
	require.NoError(t, err)
	assertContentEquals(t, fs, "exclusive.txt", data)
}

func (suite *BackendTestSuite) testWriteExclusiveExisting(t *testing.T) {
	fs := suite.NewFileSystem(t)

	original := []byte("original")
	mustWrite(t, fs, "taken.txt", original)

	err := fs.Write(testContext(), "taken.txt", bytes.NewReader([]byte("intruder")), storage.WriteExclusive)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	// The original must be untouched
	assertContentEquals(t, fs, "taken.txt", original)
}

func (suite *BackendTestSuite) testDeleteSuccess(t *testing.T) {
	fs := suite.NewFileSystem(t)

	mustWrite(t, fs, "doomed.txt", []byte("bye"))
	assertExists(t, fs, "doomed.txt", true)

	err := fs.Delete(testContext(), "doomed.txt")
	require.NoError(t, err)
	assertExists(t, fs, "doomed.txt", false)
}

func (suite *BackendTestSuite) testDeleteNotFound(t *testing.T) {
	fs := suite.NewFileSystem(t)

	err := fs.Delete(testContext(), "missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func (suite *BackendTestSuite) testMkdirAll(t *testing.T) {
	fs := suite.NewFileSystem(t)

	err := fs.MkdirAll(testContext(), "some/deep/dir")
	require.NoError(t, err)

	// Writing under the directory must work regardless of backend
	mustWrite(t, fs, "some/deep/dir/file.txt", []byte("content"))
	assertExists(t, fs, "some/deep/dir/file.txt", true)
}
