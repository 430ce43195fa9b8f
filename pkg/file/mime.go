package file

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Resolver maps between filenames, extensions and MIME types. It is consumed
// during extraction and naming; implementations can be injected per file to
// plug a richer MIME database.
type Resolver interface {
	// ByExtension returns the MIME type for a bare extension ("pdf"), or ""
	// when unknown.
	ByExtension(ext string) string

	// BySniff detects the MIME type from leading content bytes, or "" when
	// detection is not possible.
	BySniff(data []byte) string

	// TypeOf returns the broad class of a MIME type: "image", "audio",
	// "video", "text" or "application".
	TypeOf(mime string) string

	// ExtensionsFor returns known extensions for a MIME type, primary first.
	ExtensionsFor(mime string) []string

	// SplitKnownExtension splits a complete filename into base and
	// extension, only splitting when the extension is a known one. Compound
	// extensions like "tar.gz" are kept whole.
	SplitKnownExtension(name string) (base, ext string)
}

// extensionTable covers the common cases so extension lookups do not require
// content bytes. Sniffing fills the gaps.
var extensionTable = map[string]string{
	"txt":  "text/plain",
	"csv":  "text/csv",
	"html": "text/html",
	"css":  "text/css",
	"md":   "text/markdown",
	"xml":  "text/xml",
	"json": "application/json",
	"pdf":  "application/pdf",
	"zip":  "application/zip",
	"gz":   "application/gzip",
	"tar":  "application/x-tar",
	"7z":   "application/x-7z-compressed",
	"rar":  "application/vnd.rar",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"bin":  "application/octet-stream",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mkv":  "video/x-matroska",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
}

// compoundExtensions are multi-part extensions treated as a single unit when
// splitting filenames.
var compoundExtensions = []string{"tar.gz", "tar.bz2", "tar.xz"}

// MimetypeResolver is the default Resolver. Extension lookups go through the
// static table; content sniffing is delegated to gabriel-vasile/mimetype.
type MimetypeResolver struct{}

// NewMimetypeResolver creates the default resolver.
func NewMimetypeResolver() *MimetypeResolver {
	return &MimetypeResolver{}
}

// ByExtension returns the MIME type for a bare extension, or "".
func (r *MimetypeResolver) ByExtension(ext string) string {
	return extensionTable[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// BySniff detects the MIME type from content bytes.
func (r *MimetypeResolver) BySniff(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return mimetype.Detect(data).String()
}

// TypeOf classifies a MIME type into its broad class.
func (r *MimetypeResolver) TypeOf(mime string) string {
	class, _, found := strings.Cut(mime, "/")
	if !found || class == "" {
		return "application"
	}
	return class
}

// ExtensionsFor returns the known extensions for a MIME type, primary first.
func (r *MimetypeResolver) ExtensionsFor(mime string) []string {
	// Strip parameters like "; charset=utf-8"
	mime, _, _ = strings.Cut(mime, ";")
	mime = strings.TrimSpace(mime)

	extensions := make([]string, 0, 2)
	for _, ext := range orderedExtensions {
		if extensionTable[ext] == mime {
			extensions = append(extensions, ext)
		}
	}
	return extensions
}

// SplitKnownExtension splits name into base and extension. Only known
// extensions split; an unknown suffix stays part of the base so
// "archive.unknownsuffix" keeps its full name.
func (r *MimetypeResolver) SplitKnownExtension(name string) (string, string) {
	lower := strings.ToLower(name)

	for _, compound := range compoundExtensions {
		if strings.HasSuffix(lower, "."+compound) {
			return name[:len(name)-len(compound)-1], compound
		}
	}

	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return name, ""
	}

	ext := strings.ToLower(name[idx+1:])
	if _, known := extensionTable[ext]; !known {
		return name, ""
	}
	return name[:idx], ext
}

// orderedExtensions fixes the iteration order for ExtensionsFor so the
// primary extension of a MIME type is deterministic.
var orderedExtensions = func() []string {
	// Primary extensions first, aliases after
	ordered := []string{
		"txt", "csv", "html", "css", "md", "xml", "json", "pdf", "zip",
		"gz", "tar", "7z", "rar", "doc", "docx", "xls", "xlsx", "bin",
		"jpg", "jpeg", "png", "gif", "webp", "svg", "bmp", "tiff",
		"mp3", "wav", "ogg", "flac", "mp4", "webm", "mkv", "avi", "mov",
	}
	return ordered
}()

var _ Resolver = (*MimetypeResolver)(nil)
