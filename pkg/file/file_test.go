package file

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/filevault/pkg/storage"
	"github.com/marmos91/filevault/pkg/storage/memory"
)

// seedBackend writes content at path on a fresh memory backend.
func seedBackend(t *testing.T, path string, content []byte) *memory.MemoryFileSystem {
	t.Helper()
	fs := memory.NewMemoryFileSystem()
	ctx := context.Background()
	require.NoError(t, fs.Write(ctx, path, bytes.NewReader(content), storage.WriteOverwrite))
	return fs
}

func readBackend(t *testing.T, fs storage.FileSystem, path string) []byte {
	t.Helper()
	reader, err := fs.Read(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	return data
}

func TestNewFromPath_RequiresBackend(t *testing.T) {
	ctx := context.Background()

	_, err := NewFromPath(ctx, "docs/report.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImproperlyConfiguredFile)
}

func TestNewFromPath_ExistingFile(t *testing.T) {
	ctx := context.Background()
	content := []byte("%PDF-1.4 pretend pdf body")
	fs := seedBackend(t, "docs/report.pdf", content)

	f, err := NewFromPath(ctx, "docs/report.pdf", WithStorage(fs))
	require.NoError(t, err)

	assert.Equal(t, "report", f.Filename)
	assert.Equal(t, "pdf", f.Extension)
	assert.Equal(t, "report.pdf", f.CompleteFilename())
	assert.Equal(t, "docs", f.SaveTo)
	assert.Equal(t, "application/pdf", f.MimeType)
	assert.Equal(t, "application", f.Type)
	assert.Equal(t, int64(len(content)), f.Length)
	assert.False(t, f.State().Adding)
	assert.True(t, f.State().Saved())
	require.True(t, f.HasContent())

	data, err := f.ContentBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestNewFromPath_MissingFileStaysAdding(t *testing.T) {
	ctx := context.Background()
	fs := memory.NewMemoryFileSystem()

	f, err := NewFromPath(ctx, "docs/new.txt", WithStorage(fs))
	require.NoError(t, err)

	assert.True(t, f.State().Adding)
	assert.False(t, f.State().Saved())
	assert.Equal(t, int64(-1), f.Length)
	assert.False(t, f.HasContent())
}

func TestNewFromContent(t *testing.T) {
	ctx := context.Background()

	f, err := NewFromContent(ctx, []byte("hello world"),
		WithFilename("notes.txt"),
		WithSaveTo("docs"),
	)
	require.NoError(t, err)

	assert.Equal(t, "notes", f.Filename)
	assert.Equal(t, "txt", f.Extension)
	assert.Equal(t, "text/plain", f.MimeType)
	assert.Equal(t, "text", f.Type)
	assert.Equal(t, int64(11), f.Length)
	assert.True(t, f.State().Adding)
	assert.True(t, f.HasContent())
}

func TestNewFromContent_SniffsUnknownExtension(t *testing.T) {
	ctx := context.Background()

	f, err := NewFromContent(ctx, []byte("plain text body"), WithFilename("data"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(f.MimeType, "text/plain"))
	assert.Equal(t, "text", f.Type)
}

func TestNewFromStream(t *testing.T) {
	ctx := context.Background()
	body := strings.NewReader("stream body")

	f, err := NewFromStream(ctx, body, Meta{
		"Content-Disposition": `attachment; filename="photo.png"`,
		"ETag":                "abc123",
	})
	require.NoError(t, err)

	assert.Equal(t, "photo", f.Filename)
	assert.Equal(t, "png", f.Extension)
	assert.Equal(t, "image/png", f.MimeType)
	assert.Equal(t, "image", f.Type)
	assert.Equal(t, "abc123", f.ID)
	assert.True(t, f.State().Adding)

	data, err := f.ContentBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("stream body"), data)
}

func TestSetCompleteFilename_SplitsKnownExtension(t *testing.T) {
	ctx := context.Background()
	f, err := NewFromContent(ctx, []byte("x"), WithFilename("old.txt"))
	require.NoError(t, err)

	f.SetCompleteFilename("report.pdf")

	assert.Equal(t, "report", f.Filename)
	assert.Equal(t, "pdf", f.Extension)
	assert.Equal(t, "report.pdf", f.CompleteFilename())
}

func TestSetCompleteFilename_UnknownExtensionStaysInBase(t *testing.T) {
	ctx := context.Background()
	f, err := NewFromContent(ctx, []byte("x"), WithFilename("old.txt"))
	require.NoError(t, err)

	f.SetCompleteFilename("weird.zzz9")

	assert.Equal(t, "weird.zzz9", f.Filename)
	assert.Equal(t, "", f.Extension)
}

func TestSetCompleteFilename_RaisesRenamingOnSavedFile(t *testing.T) {
	ctx := context.Background()
	fs := memory.NewMemoryFileSystem()

	f, err := NewFromContent(ctx, []byte("hello"),
		WithFilename("notes.txt"),
		WithSaveTo("docs"),
		WithStorage(fs),
	)
	require.NoError(t, err)

	_, err = f.Save(ctx, SaveOptions{})
	require.NoError(t, err)
	require.True(t, f.State().Saved())

	f.SetCompleteFilename("renamed.txt")

	assert.True(t, f.State().Renaming)
	assert.False(t, f.State().Saved())
}

func TestSetContent_InvalidatesHashes(t *testing.T) {
	ctx := context.Background()
	f, err := NewFromContent(ctx, []byte("before"), WithFilename("a.txt"))
	require.NoError(t, err)

	require.NoError(t, f.GenerateHashes(ctx, false))
	require.NotEmpty(t, f.Hashes)

	f.SetContent([]byte("after"))

	assert.Empty(t, f.Hashes)
	assert.Equal(t, int64(5), f.Length)

	data, err := f.ContentBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("after"), data)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingFilename", func(t *testing.T) {
		f, err := NewFromContent(ctx, []byte("x"), WithSaveTo("docs"))
		require.NoError(t, err)
		assert.ErrorIs(t, f.Validate(), ErrValidation)
	})

	t.Run("MissingSaveTo", func(t *testing.T) {
		f, err := NewFromContent(ctx, []byte("x"), WithFilename("a.txt"))
		require.NoError(t, err)
		assert.ErrorIs(t, f.Validate(), ErrValidation)
	})

	t.Run("Valid", func(t *testing.T) {
		f, err := NewFromContent(ctx, []byte("x"),
			WithFilename("a.txt"), WithSaveTo("docs"))
		require.NoError(t, err)
		assert.NoError(t, f.Validate())
	})

	t.Run("IncompatibleExtension", func(t *testing.T) {
		f, err := NewFromContent(ctx, []byte("x"),
			WithFilename("a.txt"), WithSaveTo("docs"))
		require.NoError(t, err)

		f.MimeType = "image/png"
		assert.ErrorIs(t, f.Validate(), ErrValidation)
	})

	t.Run("CompatibleExtension", func(t *testing.T) {
		f, err := NewFromContent(ctx, []byte("x"),
			WithFilename("a.jpg"), WithSaveTo("docs"))
		require.NoError(t, err)

		// Any extension registered for the type is accepted
		f.MimeType = "image/jpeg"
		assert.NoError(t, f.Validate())
		f.Extension = "jpeg"
		assert.NoError(t, f.Validate())
	})

	t.Run("CompoundExtension", func(t *testing.T) {
		f, err := NewFromContent(ctx, []byte("x"),
			WithFilename("backup.tar.gz"), WithSaveTo("docs"))
		require.NoError(t, err)

		f.MimeType = "application/gzip"
		assert.NoError(t, f.Validate())
	})

	t.Run("UnknownMimeTypeUnchecked", func(t *testing.T) {
		f, err := NewFromContent(ctx, []byte("x"),
			WithFilename("a.txt"), WithSaveTo("docs"))
		require.NoError(t, err)

		f.MimeType = "application/x-proprietary"
		assert.NoError(t, f.Validate())
	})
}

func TestSanitizedPath(t *testing.T) {
	ctx := context.Background()
	f, err := NewFromContent(ctx, []byte("x"),
		WithFilename("notes.txt"), WithSaveTo("docs"))
	require.NoError(t, err)

	f.RelativePath = "2026/08"
	assert.Equal(t, "docs/2026/08/notes.txt", f.SanitizedPath())

	// Escape attempts collapse against the root
	f.SaveTo = "../docs"
	f.RelativePath = ""
	assert.Equal(t, "docs/notes.txt", f.SanitizedPath())
}

func TestContentBytes_NoContent(t *testing.T) {
	ctx := context.Background()
	fs := memory.NewMemoryFileSystem()

	f, err := NewFromPath(ctx, "docs/missing.txt", WithStorage(fs))
	require.NoError(t, err)

	_, err = f.ContentBytes(ctx)
	assert.ErrorIs(t, err, ErrNoInternalContent)
}

func TestWriteContent(t *testing.T) {
	ctx := context.Background()
	fs := memory.NewMemoryFileSystem()

	f, err := NewFromContent(ctx, []byte("payload"),
		WithFilename("a.txt"), WithStorage(fs))
	require.NoError(t, err)

	require.NoError(t, f.WriteContent(ctx, "exports/copy.txt"))
	assert.Equal(t, []byte("payload"), readBackend(t, fs, "exports/copy.txt"))
}

func TestRefreshFromDisk_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := memory.NewMemoryFileSystem()

	f, err := NewFromContent(ctx, []byte("hello world"),
		WithFilename("notes.txt"),
		WithSaveTo("docs"),
		WithStorage(fs),
	)
	require.NoError(t, err)

	_, err = f.Save(ctx, SaveOptions{SaveHashes: true})
	require.NoError(t, err)
	savedMD5 := f.Hashes["md5"].Hex
	require.NotEmpty(t, savedMD5)

	require.NoError(t, f.RefreshFromDisk(ctx))

	assert.Equal(t, "notes", f.Filename)
	assert.Equal(t, "txt", f.Extension)
	assert.Equal(t, int64(11), f.Length)
	assert.True(t, f.State().Saved())

	// Digests come back through artifact adoption
	require.Contains(t, f.Hashes, "md5")
	assert.Equal(t, savedMD5, f.Hashes["md5"].Hex)
	assert.True(t, f.Hashes["md5"].Adopted)

	data, err := f.ContentBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)
}

func TestContent_LazyEmptySource(t *testing.T) {
	ctx := context.Background()
	c := NewLazyContent(func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("")), nil
	})

	_, err := c.Bytes(ctx)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestContent_IsBinary(t *testing.T) {
	text := NewContent([]byte("just text"))
	binary, ok := text.IsBinary()
	assert.True(t, ok)
	assert.False(t, binary)

	blob := NewContent([]byte{0xff, 0xfe, 0x00, 0x01})
	binary, ok = blob.IsBinary()
	assert.True(t, ok)
	assert.True(t, binary)

	lazy := NewLazyContent(func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("x")), nil
	})
	_, ok = lazy.IsBinary()
	assert.False(t, ok)
}
