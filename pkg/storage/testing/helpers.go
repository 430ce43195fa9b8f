package testing

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/filevault/pkg/storage"
)

// mustWrite writes data at path and fails the test on error.
func mustWrite(t *testing.T, fs storage.FileSystem, path string, data []byte) {
	t.Helper()
	err := fs.Write(testContext(), path, bytes.NewReader(data), storage.WriteOverwrite)
	require.NoError(t, err, "failed to write %s", path)
}

// mustRead reads the full content at path and fails the test on error.
func mustRead(t *testing.T, fs storage.FileSystem, path string) []byte {
	t.Helper()
	reader, err := fs.Read(testContext(), path)
	require.NoError(t, err, "failed to read %s", path)
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	require.NoError(t, err, "failed to read body of %s", path)
	return data
}

// assertExists asserts the existence state of path.
func assertExists(t *testing.T, fs storage.FileSystem, path string, expected bool) {
	t.Helper()
	exists, err := fs.Exists(testContext(), path)
	require.NoError(t, err, "failed to check existence of %s", path)
	assert.Equal(t, expected, exists, "unexpected existence for %s", path)
}

// assertContentEquals asserts the stored content at path.
func assertContentEquals(t *testing.T, fs storage.FileSystem, path string, expected []byte) {
	t.Helper()
	assert.Equal(t, expected, mustRead(t, fs, path), "unexpected content at %s", path)
}

// generateTestData creates deterministic test data of the given size.
func generateTestData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}
