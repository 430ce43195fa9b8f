package file

import (
	"context"
	"errors"
	"fmt"
	stdmime "mime"
	"strconv"
	"time"

	"github.com/marmos91/filevault/internal/logger"
	"github.com/marmos91/filevault/pkg/pipeline"
	"github.com/marmos91/filevault/pkg/storage"
)

// Extraction steps populate a freshly constructed File from its source.
// Steps are independent fallbacks: a failing step contributes nothing and
// the next one runs.

// FilenameAndExtensionFromPath derives filename, extension and destination
// directory from the file's origin path.
type FilenameAndExtensionFromPath struct{}

// Name identifies the step.
func (FilenameAndExtensionFromPath) Name() string { return "filename-from-path" }

// Process splits the origin path into directory and name parts.
func (FilenameAndExtensionFromPath) Process(ctx context.Context, f *File, params pipeline.Params) (pipeline.Result, error) {
	if f.path == "" {
		return pipeline.Continue, errors.New("file has no origin path")
	}

	sanitized := storage.Sanitize(f.path)
	f.Filename, f.Extension = f.resolver.SplitKnownExtension(storage.Base(sanitized))

	if f.SaveTo == "" {
		dir := storage.Dir(sanitized)
		if dir != "." {
			f.SaveTo = dir
		}
	}
	return pipeline.Continue, nil
}

// MimeTypeFromFilename resolves MIME type and class from the extension.
type MimeTypeFromFilename struct{}

// Name identifies the step.
func (MimeTypeFromFilename) Name() string { return "mime-from-filename" }

// Process fills MimeType/Type from the extension table. Unknown extensions
// are a soft failure so sniffing steps can take over.
func (MimeTypeFromFilename) Process(ctx context.Context, f *File, params pipeline.Params) (pipeline.Result, error) {
	if f.MimeType != "" {
		return pipeline.Continue, nil
	}
	if f.Extension == "" {
		return pipeline.Continue, errors.New("no extension to resolve MIME type from")
	}

	mime := f.resolver.ByExtension(f.Extension)
	if mime == "" {
		return pipeline.Continue, fmt.Errorf("unknown extension %q", f.Extension)
	}

	f.MimeType = mime
	f.Type = f.resolver.TypeOf(mime)
	return pipeline.Continue, nil
}

// MimeTypeFromContent sniffs the MIME type from content bytes when the
// extension lookup left it unknown. Materializes lazy content.
type MimeTypeFromContent struct{}

// Name identifies the step.
func (MimeTypeFromContent) Name() string { return "mime-from-content" }

// Process sniffs leading content bytes for the MIME type.
func (MimeTypeFromContent) Process(ctx context.Context, f *File, params pipeline.Params) (pipeline.Result, error) {
	data, err := f.ContentBytes(ctx)
	if err != nil {
		return pipeline.Continue, err
	}

	if f.MimeType == "" {
		mime := f.resolver.BySniff(data)
		if mime == "" {
			return pipeline.Continue, errors.New("content sniffing found no MIME type")
		}
		f.MimeType = mime
		f.Type = f.resolver.TypeOf(mime)
	}
	return pipeline.Continue, nil
}

// FileSystemData loads backend metadata for a path-backed file: size,
// timestamps, existence, and a lazy content handle.
type FileSystemData struct{}

// Name identifies the step.
func (FileSystemData) Name() string { return "filesystem-data" }

// Process stats the origin path and wires lazy content. A file found on the
// backend is considered persisted: Adding clears and, absent later
// mutations, the file reports Saved.
func (FileSystemData) Process(ctx context.Context, f *File, params pipeline.Params) (pipeline.Result, error) {
	if f.backend == nil {
		return pipeline.Continue, newError(CodeImproperlyConfiguredFile,
			"a storage backend is required to extract filesystem data", f.path)
	}

	target := storage.Sanitize(f.path)
	info, err := f.backend.Stat(ctx, target)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// New file: stays in Adding state with no content yet
			return pipeline.Continue, nil
		}
		return pipeline.Continue, err
	}

	f.Length = info.Size
	f.CreateDate = info.CreateDate
	f.UpdateDate = info.UpdateDate
	f.content = NewStorageContent(f.backend, target)
	f.state.Adding = false
	f.naming.previousSavedExtension = f.Extension
	return pipeline.Continue, nil
}

// HashFileDiscovery adopts digests from sibling artifacts named
// <complete_filename>.<alg> without recomputing them.
type HashFileDiscovery struct{}

// Name identifies the step.
func (HashFileDiscovery) Name() string { return "hash-file-discovery" }

// Process scans the file's directory for parseable hash artifacts covering
// the default algorithm set.
func (HashFileDiscovery) Process(ctx context.Context, f *File, params pipeline.Params) (pipeline.Result, error) {
	if f.backend == nil {
		return pipeline.Continue, newError(CodeImproperlyConfiguredFile,
			"a storage backend is required to discover hash artifacts", f.path)
	}

	dir := storage.Dir(storage.Sanitize(f.path))
	if dir == "." {
		dir = ""
	}

	for _, algorithm := range DefaultHashAlgorithms() {
		if _, done := f.Hashes[algorithm]; done {
			continue
		}
		digest, found, err := findHashArtifact(ctx, f, dir, algorithm)
		if err != nil {
			logger.Debug("hash artifact lookup for %s failed: %v", algorithm, err)
			continue
		}
		if found {
			f.Hashes[algorithm] = Digest{Hex: digest, Adopted: true}
		}
	}
	return pipeline.Continue, nil
}

// FilenameFromMetadata derives the filename from source metadata, preferring
// a Content-Disposition header and falling back to a bare "filename" key.
type FilenameFromMetadata struct{}

// Name identifies the step.
func (FilenameFromMetadata) Name() string { return "filename-from-metadata" }

// Process parses naming metadata into filename and extension.
func (FilenameFromMetadata) Process(ctx context.Context, f *File, params pipeline.Params) (pipeline.Result, error) {
	if f.Filename != "" {
		return pipeline.Continue, nil
	}

	name := ""
	if disposition := f.Meta.String("Content-Disposition"); disposition != "" {
		if _, dispParams, err := stdmime.ParseMediaType(disposition); err == nil {
			name = dispParams["filename"]
		}
	}
	if name == "" {
		name = f.Meta.String("filename")
	}
	if name == "" {
		return pipeline.Continue, errors.New("metadata carries no filename")
	}

	f.Filename, f.Extension = f.resolver.SplitKnownExtension(storage.Base(storage.Sanitize(name)))
	return pipeline.Continue, nil
}

// HeaderMetadata maps transport headers onto file attributes: Content-Type,
// Content-Length, Last-Modified and ETag.
type HeaderMetadata struct{}

// Name identifies the step.
func (HeaderMetadata) Name() string { return "header-metadata" }

// Process copies recognized header values into the entity.
func (HeaderMetadata) Process(ctx context.Context, f *File, params pipeline.Params) (pipeline.Result, error) {
	if contentType := f.Meta.String("Content-Type"); contentType != "" && f.MimeType == "" {
		mime, _, err := stdmime.ParseMediaType(contentType)
		if err == nil && mime != "" {
			f.MimeType = mime
			f.Type = f.resolver.TypeOf(mime)
		}
	}

	if contentLength := f.Meta.String("Content-Length"); contentLength != "" && f.Length < 0 {
		if length, err := strconv.ParseInt(contentLength, 10, 64); err == nil && length >= 0 {
			f.Length = length
		}
	}

	if lastModified := f.Meta.String("Last-Modified"); lastModified != "" && f.UpdateDate == nil {
		if parsed, err := time.Parse(time.RFC1123, lastModified); err == nil {
			f.UpdateDate = &parsed
		}
	}

	if etag := f.Meta.String("ETag"); etag != "" && f.ID == "" {
		f.ID = etag
	}

	return pipeline.Continue, nil
}

// DefaultPathExtractPipeline builds the extraction pipeline for path-backed
// files.
func DefaultPathExtractPipeline() *pipeline.Pipeline[*File] {
	return pipeline.New[*File]("extract-path",
		FilenameAndExtensionFromPath{},
		MimeTypeFromFilename{},
		FileSystemData{},
		HashFileDiscovery{},
	)
}

// DefaultStreamExtractPipeline builds the extraction pipeline for
// stream-backed files.
func DefaultStreamExtractPipeline() *pipeline.Pipeline[*File] {
	return pipeline.New[*File]("extract-stream",
		FilenameFromMetadata{},
		MimeTypeFromFilename{},
		MimeTypeFromContent{},
		HeaderMetadata{},
	)
}

// DefaultContentExtractPipeline builds the extraction pipeline for
// content-backed files.
func DefaultContentExtractPipeline() *pipeline.Pipeline[*File] {
	return pipeline.New[*File]("extract-content",
		FilenameFromMetadata{},
		MimeTypeFromFilename{},
		MimeTypeFromContent{},
	)
}
