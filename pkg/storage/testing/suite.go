// Package testing provides a reusable conformance suite for
// storage.FileSystem implementations.
package testing

import (
	"context"
	"testing"

	"github.com/marmos91/filevault/pkg/storage"
)

// BackendTestSuite is a comprehensive test suite for FileSystem
// implementations. It tests the interface contract, not implementation
// details, making it reusable across different backends (memory, local,
// S3, BadgerDB).
//
// Usage:
//
//	func TestMemoryFileSystem(t *testing.T) {
//	    suite := &testing.BackendTestSuite{
//	        NewFileSystem: func(t *testing.T) storage.FileSystem {
//	            return memory.NewMemoryFileSystem()
//	        },
//	    }
//	    suite.Run(t)
//	}
type BackendTestSuite struct {
	// NewFileSystem is a factory that creates a fresh backend for each
	// test. This ensures test isolation.
	NewFileSystem func(t *testing.T) storage.FileSystem

	// SkipTimestamps disables assertions on Stat timestamps for backends
	// that cannot populate them deterministically.
	SkipTimestamps bool
}

// Run executes all tests in the suite.
func (suite *BackendTestSuite) Run(t *testing.T) {
	t.Run("BasicOperations", suite.RunBasicTests)
	t.Run("WriteOperations", suite.RunWriteTests)
	t.Run("MoveOperations", suite.RunMoveTests)
	t.Run("Listing", suite.RunListingTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
