package file

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/marmos91/filevault/pkg/pipeline"
	"github.com/marmos91/filevault/pkg/storage"
)

// defaultRenameBudget bounds the probing loop of every renamer. Exhaustion
// fails the step with ErrReservedFilename.
const defaultRenameBudget = 100

// Renamers resolve a colliding filename into a free one by probing the
// backend and the in-process reserved-name registry. A renamer that finds a
// free name halts the pipeline; its result is the file's new name.

// windowsEnumeration matches the " (n)" suffix (and "[n]" variant) so
// re-renaming "report (1)" yields "report (2)", not "report (1) (1)".
var windowsEnumeration = regexp.MustCompile(` ?\([0-9]+\)$|\[[0-9]+\]$`)

// linuxEnumeration matches the " - n" suffix.
var linuxEnumeration = regexp.MustCompile(`( +)?- +[0-9]+$`)

// nameIsFree checks both the backend and the reserved-name registry.
func nameIsFree(ctx context.Context, f *File, dir, completeName string) (bool, error) {
	if registry.isReserved(dir, completeName, f) {
		return false, nil
	}
	if f.backend == nil {
		return true, nil
	}

	exists, err := f.backend.Exists(ctx, storage.Join(dir, completeName))
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// applyNewName writes the resolved name onto the file without re-raising
// renaming state (the caller is resolving that state right now).
func applyNewName(f *File, filename string) {
	f.Filename = filename
	f.naming.recordName(f.CompleteFilename())
}

// enumerationRenamer implements the probing loop shared by the Windows and
// Linux styles; only the suffix format and strip pattern differ.
type enumerationRenamer struct {
	name    string
	pattern *regexp.Regexp
	format  func(base string, i int) string
	budget  int
}

func (r enumerationRenamer) Name() string { return r.name }

func (r enumerationRenamer) Process(ctx context.Context, f *File, params pipeline.Params) (pipeline.Result, error) {
	budget := r.budget
	if budget <= 0 {
		budget = defaultRenameBudget
	}

	base := r.pattern.ReplaceAllString(f.Filename, "")
	dir := storage.Dir(f.SanitizedPath())
	if dir == "." {
		dir = ""
	}

	candidate := base
	for i := 0; i <= budget; i++ {
		if i > 0 {
			candidate = r.format(base, i)
		}

		completeName := candidate
		if f.Extension != "" {
			completeName += "." + f.Extension
		}

		free, err := nameIsFree(ctx, f, dir, completeName)
		if err != nil {
			return pipeline.Continue, err
		}
		if free {
			applyNewName(f, candidate)
			return pipeline.Halt, nil
		}
	}

	return pipeline.Continue, newError(CodeReservedFilename,
		fmt.Sprintf("no free name found within %d attempts", budget), f.SanitizedPath())
}

// WindowsStyleRenamer disambiguates with the Windows convention:
// "name.ext" -> "name (1).ext".
func WindowsStyleRenamer(budget int) pipeline.Processor[*File] {
	return enumerationRenamer{
		name:    "renamer-windows",
		pattern: windowsEnumeration,
		format:  func(base string, i int) string { return fmt.Sprintf("%s (%d)", base, i) },
		budget:  budget,
	}
}

// LinuxStyleRenamer disambiguates with the Linux convention:
// "name.ext" -> "name - 1.ext".
func LinuxStyleRenamer(budget int) pipeline.Processor[*File] {
	return enumerationRenamer{
		name:    "renamer-linux",
		pattern: linuxEnumeration,
		format:  func(base string, i int) string { return fmt.Sprintf("%s - %d", base, i) },
		budget:  budget,
	}
}

// UniqueRenamer replaces the filename with a random UUID, retrying within
// its budget on the astronomically unlikely collision.
type UniqueRenamer struct {
	// Budget bounds the retry loop; defaults to 100.
	Budget int
}

// Name identifies the step.
func (UniqueRenamer) Name() string { return "renamer-unique" }

// Process generates UUID names until one is free.
func (r UniqueRenamer) Process(ctx context.Context, f *File, params pipeline.Params) (pipeline.Result, error) {
	budget := r.Budget
	if budget <= 0 {
		budget = defaultRenameBudget
	}

	dir := storage.Dir(f.SanitizedPath())
	if dir == "." {
		dir = ""
	}

	for i := 0; i < budget; i++ {
		candidate := uuid.New().String()
		completeName := candidate
		if f.Extension != "" {
			completeName += "." + f.Extension
		}

		free, err := nameIsFree(ctx, f, dir, completeName)
		if err != nil {
			return pipeline.Continue, err
		}
		if free {
			applyNewName(f, candidate)
			return pipeline.Halt, nil
		}
	}

	return pipeline.Continue, newError(CodeReservedFilename,
		fmt.Sprintf("no free unique name found within %d attempts", budget), f.SanitizedPath())
}

// DefaultRenamePipeline builds the rename pipeline: Windows-style
// disambiguation with the default budget.
func DefaultRenamePipeline() *pipeline.Pipeline[*File] {
	return pipeline.New("rename", WindowsStyleRenamer(defaultRenameBudget))
}
