package file

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/filevault/pkg/storage"
)

// Known digests of "hello world".
const (
	helloMD5    = "5eb63bbbe01eeed093cb22bb8f5acdc3"
	helloSHA1   = "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"
	helloSHA256 = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	helloCRC32  = "0d4a1185"
)

func TestGenerateHashes_DefaultAlgorithms(t *testing.T) {
	ctx := context.Background()
	f, err := NewFromContent(ctx, []byte("hello world"), WithFilename("a.txt"))
	require.NoError(t, err)

	require.NoError(t, f.GenerateHashes(ctx, false))

	require.Len(t, f.Hashes, 2)
	assert.Equal(t, helloMD5, f.Hashes["md5"].Hex)
	assert.Equal(t, helloSHA256, f.Hashes["sha256"].Hex)
	assert.False(t, f.Hashes["md5"].Adopted)
	assert.False(t, f.Hashes["sha256"].Adopted)
}

func TestGenerateHashesFor_ExplicitAlgorithms(t *testing.T) {
	ctx := context.Background()
	f, err := NewFromContent(ctx, []byte("hello world"), WithFilename("a.txt"))
	require.NoError(t, err)

	require.NoError(t, f.GenerateHashesFor(ctx, []string{"sha1", "crc32"}))

	require.Len(t, f.Hashes, 2)
	assert.Equal(t, helloSHA1, f.Hashes["sha1"].Hex)
	assert.Equal(t, helloCRC32, f.Hashes["crc32"].Hex)
	assert.NotContains(t, f.Hashes, "md5")
}

func TestGenerateHashes_Force(t *testing.T) {
	ctx := context.Background()
	f, err := NewFromContent(ctx, []byte("hello world"), WithFilename("a.txt"))
	require.NoError(t, err)

	stale := Digest{Hex: strings.Repeat("0", 32)}
	f.Hashes["md5"] = stale

	// Without force the present digest is kept
	require.NoError(t, f.GenerateHashes(ctx, false))
	assert.Equal(t, stale, f.Hashes["md5"])

	// With force it is recomputed
	require.NoError(t, f.GenerateHashes(ctx, true))
	assert.Equal(t, helloMD5, f.Hashes["md5"].Hex)
}

func TestHashes_Equal(t *testing.T) {
	a := Hashes{
		"md5":    Digest{Hex: helloMD5},
		"sha256": Digest{Hex: helloSHA256},
	}
	b := Hashes{
		"md5":  Digest{Hex: helloMD5},
		"sha1": Digest{Hex: helloSHA1},
	}

	// Shared algorithms agree
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))

	b["md5"] = Digest{Hex: strings.Repeat("f", 32)}
	assert.False(t, a.Equal(b))

	// No shared algorithms means no basis for equality
	c := Hashes{"crc32": Digest{Hex: helloCRC32}}
	assert.False(t, a.Equal(c))
}

func TestHashes_Verify(t *testing.T) {
	ctx := context.Background()
	content := NewContent([]byte("hello world"))

	h := Hashes{"md5": Digest{Hex: helloMD5}}
	ok, err := h.Verify(ctx, "md5", content)
	require.NoError(t, err)
	assert.True(t, ok)

	h["md5"] = Digest{Hex: strings.Repeat("0", 32)}
	ok, err = h.Verify(ctx, "md5", content)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashArtifactAdoption_Sibling(t *testing.T) {
	ctx := context.Background()
	adopted := strings.Repeat("a", 32)

	fs := seedBackend(t, "docs/data.bin", []byte("binary payload"))
	require.NoError(t, fs.Write(ctx, "docs/data.bin.md5",
		strings.NewReader(adopted), storage.WriteOverwrite))

	f, err := NewFromPath(ctx, "docs/data.bin", WithStorage(fs))
	require.NoError(t, err)

	require.Contains(t, f.Hashes, "md5")
	assert.Equal(t, adopted, f.Hashes["md5"].Hex)
	assert.True(t, f.Hashes["md5"].Adopted)

	// No sha256 artifact existed, and discovery never computes
	assert.NotContains(t, f.Hashes, "sha256")
}

func TestHashArtifactAdoption_ChecksumAggregate(t *testing.T) {
	ctx := context.Background()
	mine := strings.Repeat("b", 32)
	other := strings.Repeat("c", 32)

	fs := seedBackend(t, "docs/data.bin", []byte("binary payload"))
	aggregate := other + " other.bin\r\n" + mine + " data.bin\r\n"
	require.NoError(t, fs.Write(ctx, "docs/CHECKSUM.md5",
		strings.NewReader(aggregate), storage.WriteOverwrite))

	f, err := NewFromPath(ctx, "docs/data.bin", WithStorage(fs))
	require.NoError(t, err)

	require.Contains(t, f.Hashes, "md5")
	assert.Equal(t, mine, f.Hashes["md5"].Hex)
	assert.True(t, f.Hashes["md5"].Adopted)
}

func TestHashArtifactAdoption_IgnoresMalformedArtifact(t *testing.T) {
	ctx := context.Background()

	fs := seedBackend(t, "docs/data.txt", []byte("hello world"))
	require.NoError(t, fs.Write(ctx, "docs/data.txt.md5",
		strings.NewReader("not a hex digest"), storage.WriteOverwrite))

	f, err := NewFromPath(ctx, "docs/data.txt", WithStorage(fs))
	require.NoError(t, err)
	assert.NotContains(t, f.Hashes, "md5")

	// Generating recomputes the real digest
	require.NoError(t, f.GenerateHashes(ctx, false))
	assert.Equal(t, helloMD5, f.Hashes["md5"].Hex)
	assert.False(t, f.Hashes["md5"].Adopted)
}

func TestHashArtifactAdoption_ExtensionlessArtifact(t *testing.T) {
	ctx := context.Background()
	adopted := strings.Repeat("e", 32)

	fs := seedBackend(t, "docs/data.bin", []byte("payload"))
	require.NoError(t, fs.Write(ctx, "docs/data.md5",
		strings.NewReader(adopted+" data.bin\n"), storage.WriteOverwrite))

	f, err := NewFromPath(ctx, "docs/data.bin", WithStorage(fs))
	require.NoError(t, err)

	require.Contains(t, f.Hashes, "md5")
	assert.Equal(t, adopted, f.Hashes["md5"].Hex)
	assert.True(t, f.Hashes["md5"].Adopted)
}

func TestHashArtifactAdoption_DirectoryScanRequiresName(t *testing.T) {
	ctx := context.Background()

	// A foreign artifact in the directory whose lines never name the file
	// contributes nothing
	fs := seedBackend(t, "docs/data.bin", []byte("payload"))
	require.NoError(t, fs.Write(ctx, "docs/archive.md5",
		strings.NewReader(strings.Repeat("f", 32)+" other.bin\n"), storage.WriteOverwrite))

	f, err := NewFromPath(ctx, "docs/data.bin", WithStorage(fs))
	require.NoError(t, err)
	assert.NotContains(t, f.Hashes, "md5")
}

func TestHashArtifactAdoption_ValidNames(t *testing.T) {
	ctx := context.Background()
	adopted := strings.Repeat("d", 32)

	fs := seedBackend(t, "docs/current.bin", []byte("payload"))
	require.NoError(t, fs.Write(ctx, "docs/historic.bin.md5",
		strings.NewReader(adopted), storage.WriteOverwrite))

	f, err := NewFromPath(ctx, "docs/current.bin", WithStorage(fs))
	require.NoError(t, err)
	require.NotContains(t, f.Hashes, "md5")

	// Registering the historic name makes its artifact adoptable
	assert.True(t, f.AddValidFilename("historic.bin"))
	assert.False(t, f.AddValidFilename("historic.bin"))

	require.NoError(t, f.generateHashes(ctx, []string{"md5"}, false, true))
	require.Contains(t, f.Hashes, "md5")
	assert.Equal(t, adopted, f.Hashes["md5"].Hex)
	assert.True(t, f.Hashes["md5"].Adopted)
}

func TestSupportedHashAlgorithms(t *testing.T) {
	supported := SupportedHashAlgorithms()
	for _, algorithm := range []string{"md5", "sha1", "sha256", "sha512", "crc32"} {
		assert.Contains(t, supported, algorithm)
	}
}
