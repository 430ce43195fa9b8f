package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunListingTests executes ListNames contract tests.
func (suite *BackendTestSuite) RunListingTests(t *testing.T) {
	t.Run("ListNames_EmptyDir", suite.testListNamesEmptyDir)
	t.Run("ListNames_MatchesPattern", suite.testListNamesMatchesPattern)
	t.Run("ListNames_ExcludesNested", suite.testListNamesExcludesNested)
	t.Run("ListNames_RootDir", suite.testListNamesRootDir)
}

func (suite *BackendTestSuite) testListNamesEmptyDir(t *testing.T) {
	fs := suite.NewFileSystem(t)

	names, err := fs.ListNames(testContext(), "nowhere", "*")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func (suite *BackendTestSuite) testListNamesMatchesPattern(t *testing.T) {
	fs := suite.NewFileSystem(t)

	mustWrite(t, fs, "docs/report.pdf", []byte("pdf"))
	mustWrite(t, fs, "docs/report.txt", []byte("txt"))
	mustWrite(t, fs, "docs/summary.txt", []byte("txt"))

	names, err := fs.ListNames(testContext(), "docs", "report.*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"report.pdf", "report.txt"}, names)

	names, err = fs.ListNames(testContext(), "docs", "*.txt")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"report.txt", "summary.txt"}, names)
}

func (suite *BackendTestSuite) testListNamesExcludesNested(t *testing.T) {
	fs := suite.NewFileSystem(t)

	mustWrite(t, fs, "docs/top.txt", []byte("top"))
	mustWrite(t, fs, "docs/sub/nested.txt", []byte("nested"))

	names, err := fs.ListNames(testContext(), "docs", "*.txt")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"top.txt"}, names)
}

func (suite *BackendTestSuite) testListNamesRootDir(t *testing.T) {
	fs := suite.NewFileSystem(t)

	mustWrite(t, fs, "root.txt", []byte("root"))
	mustWrite(t, fs, "docs/nested.txt", []byte("nested"))

	names, err := fs.ListNames(testContext(), "", "*.txt")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"root.txt"}, names)
}
