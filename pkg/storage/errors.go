package storage

import "errors"

// Sentinel errors shared by every FileSystem backend.
//
// Backends wrap these with fmt.Errorf("...: %w", ...) so callers can test
// with errors.Is regardless of which backend produced the failure.
var (
	// ErrNotFound indicates the requested path holds no content.
	ErrNotFound = errors.New("path not found")

	// ErrAlreadyExists indicates the destination path is already taken.
	ErrAlreadyExists = errors.New("path already exists")
)
