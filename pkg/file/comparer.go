package file

import (
	"bytes"
	"context"
	"errors"

	"github.com/marmos91/filevault/pkg/pipeline"
)

// comparison is the compare pipeline's target: the two files under
// comparison and the verdict once a step is decisive.
//
// Steps are tri-state: equal, unequal, or unknown. An unequal result from a
// cheap step (type, size, binary-ness) is decisive and halts; its equal
// result is not (same size does not mean same file) and the next step runs.
// Hash and data steps are decisive both ways.
type comparison struct {
	a, b *File

	verdict *bool
}

// decide records a decisive verdict.
func (c *comparison) decide(equal bool) {
	c.verdict = &equal
}

// TypeCompare rules out files of different MIME classes.
type TypeCompare struct{}

// Name identifies the step.
func (TypeCompare) Name() string { return "compare-type" }

// Process compares the broad MIME classes. Unknown types are inconclusive.
func (TypeCompare) Process(ctx context.Context, c *comparison, params pipeline.Params) (pipeline.Result, error) {
	if c.a.Type == "" || c.b.Type == "" {
		return pipeline.Continue, nil
	}
	if c.a.Type != c.b.Type {
		c.decide(false)
		return pipeline.Halt, nil
	}
	return pipeline.Continue, nil
}

// SizeCompare rules out files of different lengths without touching
// content.
type SizeCompare struct{}

// Name identifies the step.
func (SizeCompare) Name() string { return "compare-size" }

// Process compares known lengths; unequal lengths short-circuit to unequal.
func (SizeCompare) Process(ctx context.Context, c *comparison, params pipeline.Params) (pipeline.Result, error) {
	if c.a.Length < 0 || c.b.Length < 0 {
		return pipeline.Continue, nil
	}
	if c.a.Length != c.b.Length {
		c.decide(false)
		return pipeline.Halt, nil
	}
	return pipeline.Continue, nil
}

// BinaryCompare rules out a binary file against a text file.
type BinaryCompare struct{}

// Name identifies the step.
func (BinaryCompare) Name() string { return "compare-binary" }

// Process compares binary-ness of materialized content; inconclusive when
// either side is not materialized.
func (BinaryCompare) Process(ctx context.Context, c *comparison, params pipeline.Params) (pipeline.Result, error) {
	aBinary, aOK := c.a.content.IsBinary()
	bBinary, bOK := c.b.content.IsBinary()
	if !aOK || !bOK {
		return pipeline.Continue, nil
	}
	if aBinary != bBinary {
		c.decide(false)
		return pipeline.Halt, nil
	}
	return pipeline.Continue, nil
}

// HashCompare decides by digest equality, computing the default digest set
// on demand for either side.
type HashCompare struct{}

// Name identifies the step.
func (HashCompare) Name() string { return "compare-hash" }

// Process ensures both sides carry digests and compares the shared
// algorithms. Decisive both ways; with no algorithm in common the step
// abstains and leaves the decision to byte comparison.
func (HashCompare) Process(ctx context.Context, c *comparison, params pipeline.Params) (pipeline.Result, error) {
	for _, f := range []*File{c.a, c.b} {
		if len(f.Hashes) == 0 {
			if !f.HasContent() {
				return pipeline.Continue, errors.New("no content to hash for comparison")
			}
			if err := f.GenerateHashes(ctx, false); err != nil {
				return pipeline.Continue, err
			}
		}
	}

	if !sharesAlgorithm(c.a.Hashes, c.b.Hashes) {
		return pipeline.Continue, nil
	}

	c.decide(c.a.Hashes.Equal(c.b.Hashes))
	return pipeline.Halt, nil
}

// sharesAlgorithm reports whether the two digest sets overlap.
func sharesAlgorithm(a, b Hashes) bool {
	for algorithm := range a {
		if _, ok := b[algorithm]; ok {
			return true
		}
	}
	return false
}

// DataCompare decides by chunked byte comparison of the full content.
type DataCompare struct{}

// Name identifies the step.
func (DataCompare) Name() string { return "compare-data" }

// Process materializes both contents and compares bytes.
func (DataCompare) Process(ctx context.Context, c *comparison, params pipeline.Params) (pipeline.Result, error) {
	aData, err := c.a.ContentBytes(ctx)
	if err != nil {
		return pipeline.Continue, err
	}
	bData, err := c.b.ContentBytes(ctx)
	if err != nil {
		return pipeline.Continue, err
	}

	c.decide(bytes.Equal(aData, bData))
	return pipeline.Halt, nil
}

// DefaultComparePipeline builds the comparison chain: cheap discriminators
// first, content hashing and byte comparison last.
func DefaultComparePipeline() *pipeline.Pipeline[*comparison] {
	return pipeline.New[*comparison]("compare",
		TypeCompare{},
		SizeCompare{},
		BinaryCompare{},
		HashCompare{},
		DataCompare{},
	)
}

// CompareTo reports whether f and every other file hold equivalent content.
//
// Filenames play no part: two files with identical bytes compare equal
// regardless of their names. The comparison is reflexive and symmetric.
//
// Returns an error when the pipeline reaches no decisive verdict for a pair
// (not enough data to compare).
func (f *File) CompareTo(ctx context.Context, others ...*File) (bool, error) {
	if len(others) == 0 {
		return false, newError(CodeImproperlyConfiguredPipeline,
			"at least one file to compare against is required", f.CompleteFilename())
	}

	for _, other := range others {
		c := &comparison{a: f, b: other}
		if _, err := f.comparePipeline.Run(ctx, c, nil); err != nil {
			return false, err
		}
		if c.verdict == nil {
			return false, newError(CodeImproperlyConfiguredPipeline,
				"not enough data to compare files", f.CompleteFilename())
		}
		if !*c.verdict {
			return false, nil
		}
	}

	return true, nil
}
