package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/marmos91/filevault/internal/logger"
	"github.com/marmos91/filevault/pkg/pipeline"
	"github.com/marmos91/filevault/pkg/storage"
)

// Hash pipeline params.
const (
	// paramAlgorithms overrides the algorithm set for a run ([]string).
	paramAlgorithms = "algorithms"

	// paramForce discards existing digests and recomputes (bool).
	paramForce = "force"

	// paramSearchFiles allows adopting sibling hash artifacts before
	// computing (bool).
	paramSearchFiles = "search_files"
)

// defaultHashAlgorithms is the set computed when the caller does not name
// algorithms explicitly.
var defaultHashAlgorithms = []string{"md5", "sha256"}

// DefaultHashAlgorithms returns the algorithm set used when none is named.
func DefaultHashAlgorithms() []string {
	out := make([]string, len(defaultHashAlgorithms))
	copy(out, defaultHashAlgorithms)
	return out
}

// HasherStep computes one algorithm's digest over the file content. The
// default hash pipeline carries one step per supported algorithm; per-run
// params select which of them act.
type HasherStep struct {
	// Algorithm is the lowercase algorithm name ("md5", "sha256", ...).
	Algorithm string
}

// Name identifies the step.
func (h HasherStep) Name() string { return "hash-" + h.Algorithm }

// Process computes or adopts the digest for this step's algorithm.
//
// The step is a no-op when the run's algorithm set does not include it or
// the digest is already present without force. With search_files, a sibling
// artifact is adopted instead of computing when it parses.
func (h HasherStep) Process(ctx context.Context, f *File, params pipeline.Params) (pipeline.Result, error) {
	requested := params.Strings(paramAlgorithms)
	if requested == nil {
		requested = defaultHashAlgorithms
	}
	if !containsString(requested, h.Algorithm) {
		return pipeline.Continue, nil
	}

	force := params.Bool(paramForce, false)
	if _, done := f.Hashes[h.Algorithm]; done && !force {
		return pipeline.Continue, nil
	}

	if params.Bool(paramSearchFiles, false) && f.backend != nil {
		dir := storage.Dir(f.SanitizedPath())
		if dir == "." {
			dir = ""
		}
		digest, found, err := findHashArtifact(ctx, f, dir, h.Algorithm)
		if err != nil {
			logger.Debug("hash artifact lookup for %s failed: %v", h.Algorithm, err)
		} else if found {
			f.Hashes[h.Algorithm] = Digest{Hex: digest, Adopted: true}
			return pipeline.Continue, nil
		}
	}

	digest, err := computeDigest(ctx, h.Algorithm, f.content)
	if err != nil {
		return pipeline.Continue, err
	}

	f.Hashes[h.Algorithm] = Digest{Hex: digest}
	return pipeline.Continue, nil
}

// DefaultHashPipeline builds the hashing pipeline with every supported
// algorithm available; per-run params select the active set (md5 + sha256
// when unspecified).
func DefaultHashPipeline() *pipeline.Pipeline[*File] {
	steps := make([]pipeline.Processor[*File], 0, len(hashAlgorithms))
	for _, algorithm := range SupportedHashAlgorithms() {
		steps = append(steps, HasherStep{Algorithm: algorithm})
	}
	return pipeline.New("hash", steps...)
}

// hashArtifactName returns the sibling artifact filename for name+algorithm.
func hashArtifactName(name, algorithm string) string {
	return name + "." + algorithm
}

// checksumFileName is the legacy aggregate artifact holding one
// "<hex> <name>" line per file.
func checksumFileName(algorithm string) string {
	return "CHECKSUM." + algorithm
}

// findHashArtifact looks for an adoptable digest for f's algorithm in dir.
//
// Dedicated sibling artifacts ("<complete_filename>.<alg>", one per
// registered valid filename) are probed first and may be digest-only.
// Shared artifacts follow: "<filename>.<alg>" without the extension, the
// aggregate "CHECKSUM.<alg>" file, one named after the directory itself,
// and every remaining "*.<alg>" file in the directory. Shared artifacts
// only count on a line naming the file. An artifact that does not parse
// is ignored; the caller falls back to computing.
func findHashArtifact(ctx context.Context, f *File, dir, algorithm string) (string, bool, error) {
	names := append([]string{f.CompleteFilename()}, f.naming.validNames...)

	probed := make(map[string]bool)

	for _, name := range names {
		if name == "" {
			continue
		}
		artifact := hashArtifactName(name, algorithm)
		if probed[artifact] {
			continue
		}
		probed[artifact] = true

		digest, found, err := readHashArtifact(ctx, f.backend, storage.Join(dir, artifact), algorithm, nil)
		if err != nil || found {
			return digest, found, err
		}
	}

	shared := make([]string, 0, 3)
	if f.Filename != "" {
		shared = append(shared, hashArtifactName(f.Filename, algorithm))
	}
	shared = append(shared, checksumFileName(algorithm))
	if base := storage.Base(dir); base != "" && base != "." && base != "/" {
		shared = append(shared, hashArtifactName(base, algorithm))
	}

	listed, err := f.backend.ListNames(ctx, dir, "*."+algorithm)
	if err != nil {
		logger.Debug("listing %s artifacts in %q failed: %v", algorithm, dir, err)
	} else {
		shared = append(shared, listed...)
	}

	for _, artifact := range shared {
		if artifact == "" || probed[artifact] {
			continue
		}
		probed[artifact] = true

		digest, found, err := readHashArtifact(ctx, f.backend, storage.Join(dir, artifact), algorithm, names)
		if err != nil || found {
			return digest, found, err
		}
	}

	return "", false, nil
}

// readHashArtifact parses one artifact file. Lines starting with ";" are
// comments. With names set, only lines mentioning one of those filenames
// count (shared artifact formats); otherwise the first line's first token
// is taken, so both the digest-only format and "<hex> <name>" lines parse.
func readHashArtifact(ctx context.Context, backend storage.FileSystem, path, algorithm string, names []string) (string, bool, error) {
	reader, err := backend.Read(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", false, err
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if len(names) > 0 {
			if len(fields) < 2 || !lineNamesAny(line, names) {
				continue
			}
		}

		digest := strings.ToLower(fields[0])
		if !validDigest(algorithm, digest) {
			// Non-parsing artifact: ignore, the digest gets recomputed
			continue
		}
		return digest, true, nil
	}

	return "", false, nil
}

// persistHashArtifacts writes one sibling artifact per digest, overwrite
// mode. Returns a warning per failed artifact instead of failing the save.
func persistHashArtifacts(ctx context.Context, f *File, dir string) []string {
	var warnings []string

	for _, algorithm := range f.Hashes.Algorithms() {
		artifact := storage.Join(dir, hashArtifactName(f.CompleteFilename(), algorithm))
		body := strings.NewReader(f.Hashes[algorithm].Hex)

		if err := f.backend.Write(ctx, artifact, body, storage.WriteOverwrite); err != nil {
			warning := fmt.Sprintf("failed to persist %s artifact at %s: %v", algorithm, artifact, err)
			logger.Warn("%s", warning)
			warnings = append(warnings, warning)
		}
	}

	return warnings
}

// lineNamesAny reports whether line mentions any of the filenames.
func lineNamesAny(line string, names []string) bool {
	for _, name := range names {
		if name != "" && strings.Contains(line, name) {
			return true
		}
	}
	return false
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
