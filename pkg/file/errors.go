package file

// FileError represents a domain error from file lifecycle operations.
//
// These are business logic errors (missing configuration, blocked overwrite,
// exhausted rename budget) as opposed to infrastructure errors, which
// propagate unchanged from the storage backend (see storage.ErrNotFound and
// storage.ErrAlreadyExists).
type FileError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the file path related to the error (if applicable)
	Path string
}

// Error implements the error interface.
func (e *FileError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// Is matches FileErrors by code, so errors.Is(err, ErrValidation) works for
// any validation failure regardless of message and path.
func (e *FileError) Is(target error) bool {
	t, ok := target.(*FileError)
	return ok && t.Code == e.Code
}

// ErrorCode represents the category of a file error.
type ErrorCode int

const (
	// CodeImproperlyConfiguredFile indicates a required collaborator or
	// setting is missing, e.g. a path-backed file without a storage backend.
	// Always fatal to the operation, never retried internally.
	CodeImproperlyConfiguredFile ErrorCode = iota

	// CodeImproperlyConfiguredPipeline indicates a pipeline was asked to run
	// with missing or inconsistent configuration.
	CodeImproperlyConfiguredPipeline

	// CodeValidation indicates a required attribute was absent before save.
	// Surfaced before any backend call is made.
	CodeValidation

	// CodeOperationNotAllowed indicates a safety policy blocked a
	// destructive action. The caller must retry with different options.
	CodeOperationNotAllowed

	// CodeReservedFilename indicates the naming pipeline exhausted its
	// retry budget without finding a free name.
	CodeReservedFilename

	// CodeNoInternalContent indicates content access was attempted on a
	// file that has no internal content of the expected shape.
	CodeNoInternalContent

	// CodeEmptyContent indicates content was present but empty where
	// non-empty content was required.
	CodeEmptyContent
)

// Code sentinels for errors.Is checks. The concrete errors returned by
// operations carry a message and path on top of the code.
var (
	ErrImproperlyConfiguredFile     = &FileError{Code: CodeImproperlyConfiguredFile, Message: "file is improperly configured"}
	ErrImproperlyConfiguredPipeline = &FileError{Code: CodeImproperlyConfiguredPipeline, Message: "pipeline is improperly configured"}
	ErrValidation                   = &FileError{Code: CodeValidation, Message: "validation failed"}
	ErrOperationNotAllowed          = &FileError{Code: CodeOperationNotAllowed, Message: "operation not allowed"}
	ErrReservedFilename             = &FileError{Code: CodeReservedFilename, Message: "no free filename available"}
	ErrNoInternalContent            = &FileError{Code: CodeNoInternalContent, Message: "file has no internal content"}
	ErrEmptyContent                 = &FileError{Code: CodeEmptyContent, Message: "file content is empty"}
)

// newError builds a FileError with the given code, message and path.
func newError(code ErrorCode, message, path string) *FileError {
	return &FileError{Code: code, Message: message, Path: path}
}
