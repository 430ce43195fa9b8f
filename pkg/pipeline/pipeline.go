// Package pipeline provides a generic ordered-step executor with fallback
// semantics.
//
// A Pipeline owns a fixed, ordered sequence of processors. Each processor
// receives the shared target object and per-run parameters and may:
//   - contribute a partial result and signal Continue (next step still runs,
//     e.g. to merge multiple hash algorithms)
//   - signal Halt (remaining steps skipped, pipeline satisfied; used when
//     an earlier, cheaper step already populated everything required)
//   - return an error, which is recorded and treated as "this step
//     contributed nothing"; the next step runs (steps are independent
//     fallbacks, not a strict chain that aborts on first error)
//
// If every step fails, Run reports overall failure with all step errors
// joined. Pipelines are configuration, not per-file state: all mutable
// bookkeeping for a run lives in the returned Report, so one Pipeline value
// can be shared across many targets.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/filevault/internal/logger"
)

// Result signals how the pipeline should proceed after a step.
type Result int

const (
	// Continue runs the next step.
	Continue Result = iota

	// Halt skips the remaining steps; the pipeline is considered satisfied.
	Halt
)

// Processor is a single pipeline step.
//
// A processor owns no cross-step state; everything it needs arrives through
// the target and the per-run params, and everything it produces is written
// onto the target.
type Processor[T any] interface {
	// Name identifies the step in reports and error messages.
	Name() string

	// Process performs the step's work on target.
	Process(ctx context.Context, target T, params Params) (Result, error)
}

// FuncProcessor adapts a closure into a Processor. Mostly a test convenience.
type FuncProcessor[T any] struct {
	ProcessorName string
	Fn            func(ctx context.Context, target T, params Params) (Result, error)
}

// Name returns the processor's configured name.
func (f FuncProcessor[T]) Name() string {
	return f.ProcessorName
}

// Process invokes the wrapped closure.
func (f FuncProcessor[T]) Process(ctx context.Context, target T, params Params) (Result, error) {
	return f.Fn(ctx, target, params)
}

// StepReport records the outcome of a single executed step.
type StepReport struct {
	// Name is the step's Name().
	Name string

	// Result is what the step signalled. Unset when Err is non-nil.
	Result Result

	// Err is the step's recoverable failure, nil on success.
	Err error
}

// Report is the bookkeeping of one Run. The last entry belongs to the last
// step that executed, which is how decision pipelines expose their verdict.
type Report struct {
	// Steps holds one entry per executed step, in order.
	Steps []StepReport

	// Halted is true when a step signalled Halt.
	Halted bool
}

// Succeeded reports whether at least one step completed without error.
func (r *Report) Succeeded() bool {
	for _, step := range r.Steps {
		if step.Err == nil {
			return true
		}
	}
	return false
}

// Last returns the report of the last executed step, or nil if none ran.
func (r *Report) Last() *StepReport {
	if len(r.Steps) == 0 {
		return nil
	}
	return &r.Steps[len(r.Steps)-1]
}

// RunError is returned when every step of a pipeline failed.
type RunError struct {
	// Pipeline is the pipeline's name.
	Pipeline string

	// Errs holds the per-step errors, joined.
	Errs error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	return fmt.Sprintf("pipeline %s: all steps failed: %v", e.Pipeline, e.Errs)
}

// Unwrap exposes the joined step errors for errors.Is/As.
func (e *RunError) Unwrap() error {
	return e.Errs
}

// Pipeline executes an ordered sequence of processors against a target.
//
// The step list is fixed at construction. Use Clone to derive a variant with
// extra or replaced steps without disturbing the original (copy-on-override).
type Pipeline[T any] struct {
	name  string
	steps []Processor[T]
}

// New creates a pipeline with the given name and steps, in order.
func New[T any](name string, steps ...Processor[T]) *Pipeline[T] {
	copied := make([]Processor[T], len(steps))
	copy(copied, steps)
	return &Pipeline[T]{name: name, steps: copied}
}

// Name returns the pipeline's name.
func (p *Pipeline[T]) Name() string {
	return p.name
}

// Len returns the number of steps.
func (p *Pipeline[T]) Len() int {
	return len(p.steps)
}

// Clone returns an independent copy of the pipeline. Mutating the copy via
// Prepend/Append never affects the original.
func (p *Pipeline[T]) Clone() *Pipeline[T] {
	return New(p.name, p.steps...)
}

// Prepend returns a copy of the pipeline with steps inserted before the
// existing ones. Useful to try a custom extractor ahead of the defaults.
func (p *Pipeline[T]) Prepend(steps ...Processor[T]) *Pipeline[T] {
	combined := make([]Processor[T], 0, len(steps)+len(p.steps))
	combined = append(combined, steps...)
	combined = append(combined, p.steps...)
	return New(p.name, combined...)
}

// Append returns a copy of the pipeline with steps added after the existing
// ones.
func (p *Pipeline[T]) Append(steps ...Processor[T]) *Pipeline[T] {
	combined := make([]Processor[T], 0, len(p.steps)+len(steps))
	combined = append(combined, p.steps...)
	combined = append(combined, steps...)
	return New(p.name, combined...)
}

// Run executes the steps in order against target.
//
// Step errors are recorded in the report and the next step runs. A Halt
// result stops execution with success. When every executed step failed, Run
// returns a *RunError wrapping all step errors.
//
// Context cancellation is checked before each step and aborts the run with
// the context's error (not a RunError: cancellation is not a step failure).
//
// Parameters:
//   - ctx: Context for cancellation
//   - target: The object steps read from and write to
//   - params: Per-run options; nil is treated as empty
//
// Returns:
//   - *Report: Per-step outcomes, always non-nil on non-cancelled runs
//   - error: *RunError if all steps failed, context error on cancellation
func (p *Pipeline[T]) Run(ctx context.Context, target T, params Params) (*Report, error) {
	if params == nil {
		params = Params{}
	}

	report := &Report{Steps: make([]StepReport, 0, len(p.steps))}
	var stepErrs []error

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := step.Process(ctx, target, params)
		if err != nil {
			logger.Debug("pipeline %s: step %s failed: %v", p.name, step.Name(), err)
			report.Steps = append(report.Steps, StepReport{Name: step.Name(), Err: err})
			stepErrs = append(stepErrs, fmt.Errorf("%s: %w", step.Name(), err))
			continue
		}

		report.Steps = append(report.Steps, StepReport{Name: step.Name(), Result: result})

		if result == Halt {
			report.Halted = true
			break
		}
	}

	if len(report.Steps) > 0 && !report.Succeeded() {
		return report, &RunError{Pipeline: p.name, Errs: errors.Join(stepErrs...)}
	}

	return report, nil
}
