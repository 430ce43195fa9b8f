package file

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/filevault/internal/logger"
	"github.com/marmos91/filevault/pkg/pipeline"
	"github.com/marmos91/filevault/pkg/storage"
)

// SaveOptions controls the conflict-safety behavior of Save. The zero value
// is maximally safe: any collision or destructive action fails with
// ErrOperationNotAllowed. Start from DefaultSaveOptions for the common
// settings.
type SaveOptions struct {
	// Overwrite allows replacing a colliding target in place.
	Overwrite bool

	// SaveHashes persists one sibling digest artifact per algorithm after
	// the content write.
	SaveHashes bool

	// AllowSearchHashes lets the hashing step adopt existing sibling
	// artifacts instead of recomputing. Adopted digests are not verified
	// against content.
	AllowSearchHashes bool

	// AllowUpdate allows writing changed content over this file's own
	// previously saved target.
	AllowUpdate bool

	// AllowRename lets the naming pipeline disambiguate a collision with an
	// unrelated existing file instead of failing.
	AllowRename bool

	// AllowExtensionChange permits persisting under a different extension
	// than the last save used.
	AllowExtensionChange bool

	// CreateBackup copies the existing target to "<name>.bak" before
	// writing the new content.
	CreateBackup bool
}

// DefaultSaveOptions returns the conventional starting point: extension
// changes permitted, everything else locked down.
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{AllowExtensionChange: true}
}

// SaveReport describes a completed save: where content landed and what went
// wrong non-fatally along the way.
type SaveReport struct {
	// Path is the backend path the content was written to.
	Path string

	// Renamed is true when the naming pipeline changed the filename.
	Renamed bool

	// BackupPath is the path of the backup copy, "" when none was made.
	BackupPath string

	// Warnings lists non-fatal problems (hash artifact persistence
	// failures). The content write itself succeeded.
	Warnings []string
}

// Save persists the file's content through the storage backend.
//
// The algorithm:
//  1. Validate required attributes (fails before any backend call).
//  2. Resolve the target path SaveTo/RelativePath/CompleteFilename.
//  3. Check the target against lifecycle state and options; destructive
//     outcomes require an explicit opt-in or fail with
//     ErrOperationNotAllowed.
//  4. On a permitted collision with AllowRename, run the rename pipeline to
//     find a free name (ErrReservedFilename when its budget runs out).
//  5. With CreateBackup, copy the old target to "<name>.bak" first
//     (".bak.N" when the backup name itself collides).
//  6. Write the content: exclusive create for brand-new files without
//     Overwrite, plain overwrite otherwise.
//  7. With SaveHashes, compute (or adopt, with AllowSearchHashes) digests
//     and persist sibling artifacts; artifact failures become report
//     warnings, never a rollback of the content write.
//
// Metadata-only mutations (MimeType, Meta, dates) are never flushed: only
// content and filename-affecting state persist. This is a documented
// limitation, not an oversight.
func (f *File) Save(ctx context.Context, opts SaveOptions) (*SaveReport, error) {
	if f.backend == nil {
		return nil, newError(CodeImproperlyConfiguredFile,
			"a storage backend is required to save", f.CompleteFilename())
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	if err := f.checkExtensionChange(opts); err != nil {
		return nil, err
	}

	target := f.SanitizedPath()
	dir := storage.Dir(target)
	if dir == "." {
		dir = ""
	}

	exists, err := f.backend.Exists(ctx, target)
	if err != nil {
		return nil, err
	}

	report := &SaveReport{}

	renamed, err := f.resolveCollision(ctx, opts, exists)
	if err != nil {
		return nil, err
	}
	if renamed {
		report.Renamed = true
		target = f.SanitizedPath()
		exists = false
	}

	// Hold the name until the write lands so a concurrent same-process save
	// cannot resolve onto it.
	if !registry.reserve(dir, f.CompleteFilename(), f) {
		return nil, newError(CodeReservedFilename,
			"filename is reserved by another in-flight save", target)
	}
	defer registry.release(dir, f.CompleteFilename(), f)

	if opts.CreateBackup && exists {
		backupPath, err := f.createBackup(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("failed to create backup: %w", err)
		}
		report.BackupPath = backupPath
	}

	if err := f.writeTarget(ctx, target, opts, exists); err != nil {
		return nil, err
	}
	report.Path = target

	f.finalizeSave(target)

	if opts.SaveHashes {
		if err := f.generateHashes(ctx, nil, !opts.AllowSearchHashes, opts.AllowSearchHashes); err != nil {
			warning := fmt.Sprintf("content saved but hashing failed: %v", err)
			logger.Warn("%s", warning)
			report.Warnings = append(report.Warnings, warning)
		} else {
			report.Warnings = append(report.Warnings, persistHashArtifacts(ctx, f, dir)...)
		}
	}

	return report, nil
}

// checkExtensionChange blocks persisting under a different extension than
// the last save used, unless explicitly allowed.
func (f *File) checkExtensionChange(opts SaveOptions) error {
	previous := f.naming.previousSavedExtension
	if previous != "" && previous != f.Extension && !opts.AllowExtensionChange {
		return newError(CodeOperationNotAllowed,
			fmt.Sprintf("extension change from %q to %q requires AllowExtensionChange", previous, f.Extension),
			f.CompleteFilename())
	}
	return nil
}

// resolveCollision enforces the safety policy against an existing target
// and runs the rename pipeline when renaming is the permitted way out.
// Returns whether the file was renamed.
func (f *File) resolveCollision(ctx context.Context, opts SaveOptions, exists bool) (bool, error) {
	if !exists {
		return false, nil
	}

	target := f.SanitizedPath()

	switch {
	case f.state.Adding:
		// Collision with an unrelated existing file
		if opts.AllowRename {
			return true, f.runRenamePipeline(ctx)
		}
		if !opts.Overwrite {
			return false, newError(CodeOperationNotAllowed,
				"target exists; set Overwrite or AllowRename", target)
		}
		return false, nil

	case f.state.Renaming:
		// The new name collides with an unrelated file
		if opts.AllowRename {
			return true, f.runRenamePipeline(ctx)
		}
		if !opts.Overwrite {
			return false, newError(CodeOperationNotAllowed,
				"renamed target exists; set AllowRename or Overwrite", target)
		}
		return false, nil

	default:
		// Updating our own previously saved target
		if !opts.AllowUpdate && !opts.CreateBackup && !opts.Overwrite {
			return false, newError(CodeOperationNotAllowed,
				"target exists; set AllowUpdate, CreateBackup or Overwrite", target)
		}
		return false, nil
	}
}

// runRenamePipeline resolves a free name through the rename pipeline.
func (f *File) runRenamePipeline(ctx context.Context) error {
	if f.renamePipeline == nil || f.renamePipeline.Len() == 0 {
		return newError(CodeImproperlyConfiguredPipeline, "no rename pipeline configured", f.SanitizedPath())
	}

	if _, err := f.renamePipeline.Run(ctx, f, pipeline.Params{}); err != nil {
		return fmt.Errorf("rename resolution failed: %w", err)
	}
	f.actions.RenameDone()
	return nil
}

// createBackup copies the existing target aside before it is replaced.
// "<name>.bak" is tried first, then "<name>.bak.N".
func (f *File) createBackup(ctx context.Context, target string) (string, error) {
	candidate := target + ".bak"
	for i := 1; i <= defaultRenameBudget; i++ {
		exists, err := f.backend.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			if err := f.backend.Copy(ctx, target, candidate); err != nil {
				return "", err
			}
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s.bak.%d", target, i)
	}

	return "", newError(CodeReservedFilename,
		fmt.Sprintf("no free backup name found within %d attempts", defaultRenameBudget), target)
}

// writeTarget performs the content write with the appropriate mode.
func (f *File) writeTarget(ctx context.Context, target string, opts SaveOptions, exists bool) error {
	reader, err := f.ContentReader(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	mode := storage.WriteOverwrite
	if f.state.Adding && !opts.Overwrite && !exists {
		// Brand-new target: let the backend make check-and-create atomic
		mode = storage.WriteExclusive
	}

	return f.backend.Write(ctx, target, reader, mode)
}

// finalizeSave updates identity, bookkeeping and lifecycle state after a
// successful content write.
func (f *File) finalizeSave(target string) {
	now := time.Now()
	f.UpdateDate = &now
	if f.CreateDate == nil {
		f.CreateDate = &now
	}
	f.Length = f.content.Len()

	if f.ID == "" {
		f.ID = target
	}
	if f.path == "" {
		f.path = target
	}

	f.naming.previousSavedExtension = f.Extension
	f.state.Adding = false
	f.state.Changing = false
	f.state.Renaming = false
	f.actions.SaveDone()
}
