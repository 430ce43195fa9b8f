// Package file implements a pipeline-driven file abstraction on top of
// pluggable storage backends.
//
// A File is a single entity whose behavior varies with its content source:
// path-backed files read through a storage.FileSystem, stream-backed files
// drain an io.Reader, and content-backed files carry raw bytes supplied by
// the caller. Each variant wires its own default extraction pipeline;
// hashing, renaming and comparison pipelines are shared across variants.
//
// The central safety invariant is that Save never silently overwrites: a
// colliding target fails with ErrOperationNotAllowed unless the caller opts
// into overwrite, update, backup or rename behavior explicitly.
package file

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/marmos91/filevault/pkg/pipeline"
	"github.com/marmos91/filevault/pkg/storage"
)

// File is the core entity: identity, naming, content, digests, state and
// the four pipelines that process it.
//
// A File is not safe for concurrent mutation; callers serialize access to a
// single instance. Distinct instances may be used concurrently, including
// saves into the same directory (the in-process reserved-name registry and
// backend exclusive writes coordinate the collisions).
type File struct {
	// ID is the backend-assigned identifier, set on first save for files
	// that did not come from the backend.
	ID string

	// Filename is the name without extension.
	Filename string

	// Extension is the extension without the leading dot, "" when unknown.
	Extension string

	// CreateDate and UpdateDate mirror backend timestamps when known.
	CreateDate *time.Time
	UpdateDate *time.Time

	// SaveTo is the destination directory for Save.
	SaveTo string

	// RelativePath is an optional directory fragment between SaveTo and the
	// filename.
	RelativePath string

	// Length is the content length in bytes, -1 when unknown.
	Length int64

	// MimeType is the resolved MIME type, "" when unknown.
	MimeType string

	// Type is the broad MIME class: image, audio, video, text, application.
	Type string

	// Meta carries best-effort source metadata (transport headers etc.).
	Meta Meta

	// Hashes maps algorithm to digest for the current content.
	Hashes Hashes

	path     string
	backend  storage.FileSystem
	resolver Resolver
	content  *Content
	state    State
	actions  Actions
	naming   naming

	extractPipeline *pipeline.Pipeline[*File]
	hashPipeline    *pipeline.Pipeline[*File]
	renamePipeline  *pipeline.Pipeline[*File]
	comparePipeline *pipeline.Pipeline[*comparison]

	skipExtract bool
	pendingName string
}

// Option configures a File at construction time.
type Option func(*File)

// WithStorage injects the storage backend the file reads from and saves to.
func WithStorage(backend storage.FileSystem) Option {
	return func(f *File) { f.backend = backend }
}

// WithMimeResolver replaces the default MIME resolver.
func WithMimeResolver(resolver Resolver) Option {
	return func(f *File) { f.resolver = resolver }
}

// WithExtractPipeline replaces the extraction pipeline.
func WithExtractPipeline(p *pipeline.Pipeline[*File]) Option {
	return func(f *File) { f.extractPipeline = p }
}

// WithHashPipeline replaces the hashing pipeline.
func WithHashPipeline(p *pipeline.Pipeline[*File]) Option {
	return func(f *File) { f.hashPipeline = p }
}

// WithRenamePipeline replaces the rename pipeline.
func WithRenamePipeline(p *pipeline.Pipeline[*File]) Option {
	return func(f *File) { f.renamePipeline = p }
}

// WithComparePipeline replaces the comparison pipeline.
func WithComparePipeline(p *pipeline.Pipeline[*comparison]) Option {
	return func(f *File) { f.comparePipeline = p }
}

// WithoutExtract skips the extraction pipeline at construction.
func WithoutExtract() Option {
	return func(f *File) { f.skipExtract = true }
}

// WithSaveTo sets the destination directory.
func WithSaveTo(dir string) Option {
	return func(f *File) { f.SaveTo = dir }
}

// WithFilename seeds the complete filename before extraction runs. Mostly
// for stream- and content-backed files whose source carries no name.
func WithFilename(name string) Option {
	return func(f *File) { f.pendingName = name }
}

// newFile builds the entity with defaults applied, before any extraction.
func newFile(opts ...Option) *File {
	f := &File{
		Length: -1,
		Meta:   Meta{},
		Hashes: Hashes{},
		state:  State{Adding: true},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.resolver == nil {
		f.resolver = NewMimetypeResolver()
	}
	if f.hashPipeline == nil {
		f.hashPipeline = DefaultHashPipeline()
	}
	if f.renamePipeline == nil {
		f.renamePipeline = DefaultRenamePipeline()
	}
	if f.comparePipeline == nil {
		f.comparePipeline = DefaultComparePipeline()
	}
	if f.pendingName != "" {
		f.Filename, f.Extension = f.resolver.SplitKnownExtension(f.pendingName)
		f.pendingName = ""
	}
	return f
}

// runExtract executes the extraction pipeline with Processing set.
func (f *File) runExtract(ctx context.Context, params pipeline.Params) error {
	if f.skipExtract || f.extractPipeline == nil || f.extractPipeline.Len() == 0 {
		return nil
	}

	f.state.Processing = true
	defer func() { f.state.Processing = false }()

	if _, err := f.extractPipeline.Run(ctx, f, params); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	return nil
}

// NewFromPath creates a path-backed File and runs its extraction pipeline
// (filename/extension from path, MIME from filename, backend metadata and
// lazy content, sibling hash artifact discovery).
//
// A storage backend is required; without one the constructor fails with
// ErrImproperlyConfiguredFile.
//
// Parameters:
//   - ctx: Context for cancellation during extraction
//   - path: Backend path of the existing or to-be-created file
//   - opts: Construction options; WithStorage is mandatory
//
// Returns:
//   - *File: Populated entity
//   - error: ErrImproperlyConfiguredFile without a backend, extraction errors otherwise
func NewFromPath(ctx context.Context, path string, opts ...Option) (*File, error) {
	f := newFile(opts...)
	if f.backend == nil {
		return nil, newError(CodeImproperlyConfiguredFile,
			"a storage backend is required for path-backed files", path)
	}

	f.path = path
	if f.extractPipeline == nil {
		f.extractPipeline = DefaultPathExtractPipeline()
	}

	if err := f.runExtract(ctx, nil); err != nil {
		return nil, err
	}
	f.naming.recordName(f.CompleteFilename())
	return f, nil
}

// NewFromStream creates a stream-backed File. The stream is drained into
// content by the extraction pipeline; metadata (transport headers such as
// Content-Disposition, Content-Type, Content-Length) seeds naming and MIME
// resolution. No storage backend is required until Save.
func NewFromStream(ctx context.Context, r io.Reader, metadata Meta, opts ...Option) (*File, error) {
	f := newFile(opts...)
	if metadata != nil {
		f.Meta = metadata
	}
	f.content = NewLazyContent(func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	})

	if f.extractPipeline == nil {
		f.extractPipeline = DefaultStreamExtractPipeline()
	}

	if err := f.runExtract(ctx, nil); err != nil {
		return nil, err
	}
	f.actions.RequestSave()
	f.actions.RequestHash()
	f.naming.recordName(f.CompleteFilename())
	return f, nil
}

// NewFromContent creates a content-backed File from raw bytes. The caller
// sets filename and destination directly or through options; the default
// extraction pipeline only resolves naming and MIME data and is skipped
// entirely with WithoutExtract.
func NewFromContent(ctx context.Context, content []byte, opts ...Option) (*File, error) {
	f := newFile(opts...)
	f.content = NewContent(content)
	f.Length = int64(len(content))

	if f.extractPipeline == nil {
		f.extractPipeline = DefaultContentExtractPipeline()
	}

	if err := f.runExtract(ctx, nil); err != nil {
		return nil, err
	}
	f.actions.RequestSave()
	f.actions.RequestHash()
	f.naming.recordName(f.CompleteFilename())
	return f, nil
}

// CompleteFilename returns filename[.extension].
func (f *File) CompleteFilename() string {
	if f.Extension == "" {
		return f.Filename
	}
	return f.Filename + "." + f.Extension
}

// SetCompleteFilename splits name into filename and extension (known
// extensions only, via the MIME resolver) and re-derives both atomically.
// Renaming state is raised when the name actually changes on a
// once-persisted file.
func (f *File) SetCompleteFilename(name string) {
	previous := f.CompleteFilename()
	f.Filename, f.Extension = f.resolver.SplitKnownExtension(name)

	if f.CompleteFilename() != previous {
		f.naming.recordName(f.CompleteFilename())
		if !f.state.Adding {
			f.state.Renaming = true
			f.actions.RequestRename()
		}
	}
}

// SetFilenameParts sets filename and extension directly, bypassing the
// known-extension split.
func (f *File) SetFilenameParts(filename, extension string) {
	previous := f.CompleteFilename()
	f.Filename, f.Extension = filename, extension

	if f.CompleteFilename() != previous {
		f.naming.recordName(f.CompleteFilename())
		if !f.state.Adding {
			f.state.Renaming = true
			f.actions.RequestRename()
		}
	}
}

// Path returns the raw origin path for path-backed files, "" otherwise.
func (f *File) Path() string {
	return f.path
}

// SanitizedPath returns the normalized backend target path:
// SaveTo/RelativePath/CompleteFilename.
func (f *File) SanitizedPath() string {
	return storage.Sanitize(storage.Join(f.SaveTo, f.RelativePath, f.CompleteFilename()))
}

// Storage returns the configured backend, nil when unset.
func (f *File) Storage() storage.FileSystem {
	return f.backend
}

// Resolver returns the MIME resolver in use.
func (f *File) Resolver() Resolver {
	return f.resolver
}

// State returns a copy of the lifecycle state.
func (f *File) State() State {
	return f.state
}

// SetContent replaces the file's content with raw bytes. Stored hashes and
// length are invalidated and the file is marked changed with save and hash
// work pending (hashes must always describe the current bytes).
func (f *File) SetContent(data []byte) {
	f.content = NewContent(data)
	f.Length = int64(len(data))
	f.Hashes = Hashes{}
	if !f.state.Adding {
		f.state.Changing = true
	}
	f.actions.RequestSave()
	f.actions.RequestHash()
}

// SetContentReader replaces the file's content with a lazy reader. Same
// invalidation rules as SetContent; length becomes unknown until
// materialization.
func (f *File) SetContentReader(r io.Reader) {
	f.content = NewLazyContent(func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	})
	f.Length = -1
	f.Hashes = Hashes{}
	if !f.state.Adding {
		f.state.Changing = true
	}
	f.actions.RequestSave()
	f.actions.RequestHash()
}

// ContentBytes returns the full content, materializing lazy sources.
func (f *File) ContentBytes(ctx context.Context) ([]byte, error) {
	if !f.content.Present() {
		return nil, newError(CodeNoInternalContent, "no internal content to read", f.SanitizedPath())
	}
	data, err := f.content.Bytes(ctx)
	if err != nil {
		return nil, err
	}
	f.Length = int64(len(data))
	return data, nil
}

// ContentReader returns a reader over the content, materializing lazy
// sources first.
func (f *File) ContentReader(ctx context.Context) (io.ReadCloser, error) {
	if !f.content.Present() {
		return nil, newError(CodeNoInternalContent, "no internal content to read", f.SanitizedPath())
	}
	return f.content.Reader(ctx)
}

// HasContent reports whether the file carries content, materialized or lazy.
func (f *File) HasContent() bool {
	return f.content.Present()
}

// Validate checks the attributes Save requires: a complete filename, a
// destination directory, content, and an extension compatible with the MIME
// type when both are set. Fails with ErrValidation before any backend call
// is made.
func (f *File) Validate() error {
	if f.CompleteFilename() == "" {
		return newError(CodeValidation, "complete filename is required", "")
	}
	if f.SaveTo == "" {
		return newError(CodeValidation, "save destination is required", f.CompleteFilename())
	}
	if !f.content.Present() {
		return newError(CodeValidation, "content is required", f.CompleteFilename())
	}
	if f.Extension != "" && f.MimeType != "" && !f.extensionMatchesMimeType() {
		return newError(CodeValidation,
			fmt.Sprintf("extension %q is not compatible with mime type %q", f.Extension, f.MimeType),
			f.CompleteFilename())
	}
	return nil
}

// extensionMatchesMimeType reports whether the extension belongs to the set
// registered for the MIME type. MIME types with no registered extensions are
// not checked. Compound extensions match on their final segment, so
// "tar.gz" is valid for application/gzip.
func (f *File) extensionMatchesMimeType() bool {
	extensions := f.resolver.ExtensionsFor(f.MimeType)
	if len(extensions) == 0 {
		return true
	}
	if containsString(extensions, f.Extension) {
		return true
	}
	if idx := strings.LastIndex(f.Extension, "."); idx >= 0 {
		return containsString(extensions, f.Extension[idx+1:])
	}
	return false
}

// AddValidFilename registers an alternative complete filename accepted for
// this file (used when adopting hash artifacts written under a historic
// name). Returns false when the name was already registered.
func (f *File) AddValidFilename(name string) bool {
	return f.naming.addValidName(name)
}

// GenerateHashes computes the default digest set over the current content.
// With force, existing digests are discarded first; otherwise present
// algorithms are kept.
func (f *File) GenerateHashes(ctx context.Context, force bool) error {
	return f.generateHashes(ctx, nil, force, false)
}

// GenerateHashesFor computes digests for an explicit algorithm list.
func (f *File) GenerateHashesFor(ctx context.Context, algorithms []string) error {
	return f.generateHashes(ctx, algorithms, true, false)
}

// generateHashes runs the hash pipeline with the given knobs. search allows
// adoption of sibling artifacts before computing.
func (f *File) generateHashes(ctx context.Context, algorithms []string, force, search bool) error {
	params := pipeline.Params{
		paramForce:       force,
		paramSearchFiles: search,
	}
	if algorithms != nil {
		params[paramAlgorithms] = algorithms
	}

	if f.hashPipeline == nil || f.hashPipeline.Len() == 0 {
		return newError(CodeImproperlyConfiguredPipeline, "no hash pipeline configured", f.CompleteFilename())
	}

	if _, err := f.hashPipeline.Run(ctx, f, params); err != nil {
		return fmt.Errorf("hashing failed: %w", err)
	}
	f.actions.HashDone()
	return nil
}

// RefreshFromDisk re-reads backend metadata, content and hash artifacts for
// a path-backed file, discarding in-memory state.
func (f *File) RefreshFromDisk(ctx context.Context) error {
	if f.backend == nil {
		return newError(CodeImproperlyConfiguredFile,
			"a storage backend is required to refresh from disk", f.CompleteFilename())
	}

	target := f.path
	if target == "" || !f.state.Saved() {
		target = f.SanitizedPath()
	}

	// The reload always goes through path extraction, regardless of how
	// this instance was originally constructed.
	refreshed, err := NewFromPath(ctx, target,
		WithStorage(f.backend),
		WithMimeResolver(f.resolver),
		WithHashPipeline(f.hashPipeline),
		WithRenamePipeline(f.renamePipeline),
		WithComparePipeline(f.comparePipeline),
	)
	if err != nil {
		return err
	}

	refreshed.SaveTo = f.SaveTo
	refreshed.RelativePath = f.RelativePath
	*f = *refreshed
	return nil
}

// WriteContent writes the file's content to an arbitrary backend path,
// truncating any existing target. It does not touch save-related state;
// use Save for the conflict-safe algorithm.
func (f *File) WriteContent(ctx context.Context, path string) error {
	if f.backend == nil {
		return newError(CodeImproperlyConfiguredFile,
			"a storage backend is required to write content", path)
	}

	reader, err := f.ContentReader(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	return f.backend.Write(ctx, path, reader, storage.WriteOverwrite)
}
