package file

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/filevault/pkg/storage/memory"
)

func TestFilenameAndExtensionFromPath(t *testing.T) {
	ctx := context.Background()
	fs := memory.NewMemoryFileSystem()

	f, err := NewFromPath(ctx, "archive/2026/backup.tar.gz", WithStorage(fs))
	require.NoError(t, err)

	assert.Equal(t, "backup", f.Filename)
	assert.Equal(t, "tar.gz", f.Extension)
	assert.Equal(t, "archive/2026", f.SaveTo)
}

func TestFilenameAndExtensionFromPath_KeepsExplicitSaveTo(t *testing.T) {
	ctx := context.Background()
	fs := memory.NewMemoryFileSystem()

	f, err := NewFromPath(ctx, "incoming/report.pdf",
		WithStorage(fs), WithSaveTo("archive"))
	require.NoError(t, err)

	assert.Equal(t, "archive", f.SaveTo)
	assert.Equal(t, "archive/report.pdf", f.SanitizedPath())
}

func TestFileSystemData_PopulatesMetadata(t *testing.T) {
	ctx := context.Background()
	content := []byte("persisted body")
	fs := seedBackend(t, "docs/notes.txt", content)

	f, err := NewFromPath(ctx, "docs/notes.txt", WithStorage(fs))
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), f.Length)
	assert.NotNil(t, f.UpdateDate)
	assert.False(t, f.State().Adding)

	// Content is lazy until read
	assert.True(t, f.HasContent())
	data, err := f.ContentBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestFilenameFromMetadata_ContentDisposition(t *testing.T) {
	ctx := context.Background()

	f, err := NewFromStream(ctx, strings.NewReader("body"), Meta{
		"Content-Disposition": `attachment; filename="quarterly report.xlsx"`,
	})
	require.NoError(t, err)

	assert.Equal(t, "quarterly report", f.Filename)
	assert.Equal(t, "xlsx", f.Extension)
}

func TestFilenameFromMetadata_BareKeyFallback(t *testing.T) {
	ctx := context.Background()

	f, err := NewFromStream(ctx, strings.NewReader("body"), Meta{
		"filename": "upload.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, "upload", f.Filename)
	assert.Equal(t, "csv", f.Extension)
	assert.Equal(t, "text/csv", f.MimeType)
}

func TestFilenameFromMetadata_StripsDirectories(t *testing.T) {
	ctx := context.Background()

	f, err := NewFromStream(ctx, strings.NewReader("body"), Meta{
		"filename": "../../etc/passwd.txt",
	})
	require.NoError(t, err)

	assert.Equal(t, "passwd", f.Filename)
	assert.Equal(t, "txt", f.Extension)
}

func TestHeaderMetadata(t *testing.T) {
	ctx := context.Background()
	modified := time.Date(2026, time.August, 1, 10, 30, 0, 0, time.UTC)

	f, err := NewFromStream(ctx, strings.NewReader("body"), Meta{
		"filename":      "photo.png",
		"Last-Modified": modified.Format(time.RFC1123),
		"ETag":          `"v2-abcdef"`,
	})
	require.NoError(t, err)

	assert.Equal(t, "image/png", f.MimeType)
	require.NotNil(t, f.UpdateDate)
	assert.True(t, f.UpdateDate.Equal(modified))
	assert.Equal(t, `"v2-abcdef"`, f.ID)
}

func TestHeaderMetadata_ContentTypeFallback(t *testing.T) {
	ctx := context.Background()

	// An empty stream defeats both extension lookup and sniffing, so the
	// transport headers are the last resort (parameters stripped)
	f, err := NewFromStream(ctx, strings.NewReader(""), Meta{
		"filename":       "download",
		"Content-Type":   "text/html; charset=utf-8",
		"Content-Length": "2048",
	})
	require.NoError(t, err)

	assert.Equal(t, "text/html", f.MimeType)
	assert.Equal(t, "text", f.Type)
	assert.Equal(t, int64(2048), f.Length)
}

func TestWithoutExtract(t *testing.T) {
	ctx := context.Background()

	f, err := NewFromContent(ctx, []byte("raw"), WithoutExtract())
	require.NoError(t, err)

	assert.Equal(t, "", f.Filename)
	assert.Equal(t, "", f.MimeType)
	assert.True(t, f.HasContent())
}
