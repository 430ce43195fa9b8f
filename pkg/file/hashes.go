package file

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"sort"
)

// Digest is one computed or adopted hash value.
type Digest struct {
	// Hex is the lowercase hex-encoded digest.
	Hex string

	// Adopted is true when the digest came from a sibling hash artifact
	// instead of being computed from content. Adopted digests are not
	// verified against the content; call Verify for proof.
	Adopted bool
}

// Hashes maps algorithm name (lowercase, e.g. "md5") to its digest.
type Hashes map[string]Digest

// Algorithms returns the algorithm names present, sorted.
func (h Hashes) Algorithms() []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether the two hash sets agree on every algorithm they
// share. No shared algorithm returns false.
func (h Hashes) Equal(other Hashes) bool {
	shared := false
	for name, digest := range h {
		otherDigest, ok := other[name]
		if !ok {
			continue
		}
		shared = true
		if digest.Hex != otherDigest.Hex {
			return false
		}
	}
	return shared
}

// Verify recomputes the digest for algorithm over content and compares it to
// the stored value. Useful for callers that adopted artifact digests and
// want proof.
func (h Hashes) Verify(ctx context.Context, algorithm string, content *Content) (bool, error) {
	stored, ok := h[algorithm]
	if !ok {
		return false, fmt.Errorf("no %s digest stored", algorithm)
	}

	computed, err := computeDigest(ctx, algorithm, content)
	if err != nil {
		return false, err
	}
	return computed == stored.Hex, nil
}

// hashAlgorithms maps supported algorithm names to constructors and digest
// lengths (hex characters). crc32 uses the IEEE polynomial.
var hashAlgorithms = map[string]struct {
	new    func() hash.Hash
	hexLen int
}{
	"md5":    {new: md5.New, hexLen: 32},
	"sha1":   {new: sha1.New, hexLen: 40},
	"sha256": {new: sha256.New, hexLen: 64},
	"sha512": {new: sha512.New, hexLen: 128},
	"crc32":  {new: func() hash.Hash { return crc32.NewIEEE() }, hexLen: 8},
}

// SupportedHashAlgorithms returns the algorithm names this package can
// compute, sorted.
func SupportedHashAlgorithms() []string {
	names := make([]string, 0, len(hashAlgorithms))
	for name := range hashAlgorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// computeDigest hashes the full content with the named algorithm and returns
// the lowercase hex digest.
func computeDigest(ctx context.Context, algorithm string, content *Content) (string, error) {
	alg, ok := hashAlgorithms[algorithm]
	if !ok {
		return "", newError(CodeImproperlyConfiguredPipeline,
			fmt.Sprintf("unsupported hash algorithm %q", algorithm), "")
	}

	data, err := content.Bytes(ctx)
	if err != nil {
		return "", err
	}

	h := alg.new()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// validDigest reports whether value looks like a digest for algorithm: right
// length, lowercase-hex alphabet (uppercase accepted and folded by callers).
func validDigest(algorithm, value string) bool {
	alg, ok := hashAlgorithms[algorithm]
	if !ok || len(value) != alg.hexLen {
		return false
	}
	for _, r := range value {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
