package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// target used by the tests: steps append markers to Visited.
type testTarget struct {
	Visited []string
}

func step(name string, result Result, err error) Processor[*testTarget] {
	return FuncProcessor[*testTarget]{
		ProcessorName: name,
		Fn: func(ctx context.Context, target *testTarget, params Params) (Result, error) {
			if err != nil {
				return Continue, err
			}
			target.Visited = append(target.Visited, name)
			return result, nil
		},
	}
}

func TestPipeline_RunsStepsInOrder(t *testing.T) {
	p := New("test",
		step("first", Continue, nil),
		step("second", Continue, nil),
		step("third", Continue, nil),
	)

	target := &testTarget{}
	report, err := p.Run(context.Background(), target, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, target.Visited)
	assert.Len(t, report.Steps, 3)
	assert.False(t, report.Halted)
}

func TestPipeline_HaltSkipsRemainingSteps(t *testing.T) {
	p := New("test",
		step("first", Continue, nil),
		step("second", Halt, nil),
		step("third", Continue, nil),
	)

	target := &testTarget{}
	report, err := p.Run(context.Background(), target, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, target.Visited)
	assert.True(t, report.Halted)
	assert.Equal(t, "second", report.Last().Name)
}

func TestPipeline_StepErrorFallsThrough(t *testing.T) {
	boom := errors.New("boom")
	p := New("test",
		step("broken", Continue, boom),
		step("working", Continue, nil),
	)

	target := &testTarget{}
	report, err := p.Run(context.Background(), target, nil)
	require.NoError(t, err, "a failing step must not abort the pipeline")

	assert.Equal(t, []string{"working"}, target.Visited)
	require.Len(t, report.Steps, 2)
	assert.ErrorIs(t, report.Steps[0].Err, boom)
	assert.NoError(t, report.Steps[1].Err)
	assert.True(t, report.Succeeded())
}

func TestPipeline_AllStepsFailed(t *testing.T) {
	errA := errors.New("fail a")
	errB := errors.New("fail b")
	p := New("doomed",
		step("a", Continue, errA),
		step("b", Continue, errB),
	)

	report, err := p.Run(context.Background(), &testTarget{}, nil)
	require.Error(t, err)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "doomed", runErr.Pipeline)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.False(t, report.Succeeded())
}

func TestPipeline_EmptyPipelineSucceeds(t *testing.T) {
	p := New[*testTarget]("empty")

	report, err := p.Run(context.Background(), &testTarget{}, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Steps)
	assert.Nil(t, report.Last())
}

func TestPipeline_ContextCancellation(t *testing.T) {
	p := New("test", step("never", Continue, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := &testTarget{}
	_, err := p.Run(ctx, target, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, target.Visited, "no step may run after cancellation")

	var runErr *RunError
	assert.False(t, errors.As(err, &runErr), "cancellation is not a step failure")
}

func TestPipeline_CloneIsIndependent(t *testing.T) {
	original := New("orig", step("base", Continue, nil))

	extended := original.Clone().Prepend(step("custom", Continue, nil))
	assert.Equal(t, 1, original.Len())
	assert.Equal(t, 2, extended.Len())

	target := &testTarget{}
	_, err := extended.Run(context.Background(), target, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"custom", "base"}, target.Visited)
}

func TestPipeline_AppendKeepsOrder(t *testing.T) {
	p := New("orig", step("first", Continue, nil)).Append(step("last", Continue, nil))

	target := &testTarget{}
	_, err := p.Run(context.Background(), target, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "last"}, target.Visited)
}

func TestParams_TypedHelpers(t *testing.T) {
	params := Params{
		"flag":    true,
		"name":    "value",
		"list":    []string{"a", "b"},
		"anyList": []any{"c", "d"},
	}

	assert.True(t, params.Bool("flag", false))
	assert.False(t, params.Bool("missing", false))
	assert.Equal(t, "value", params.String("name", "default"))
	assert.Equal(t, "default", params.String("missing", "default"))
	assert.Equal(t, []string{"a", "b"}, params.Strings("list"))
	assert.Equal(t, []string{"c", "d"}, params.Strings("anyList"))
	assert.Equal(t, []string{"value"}, params.Strings("name"))
	assert.Nil(t, params.Strings("missing"))
}

func TestParams_Decode(t *testing.T) {
	params := Params{"algorithms": []string{"md5", "sha256"}, "verify": true}

	var opts struct {
		Algorithms []string `mapstructure:"algorithms"`
		Verify     bool     `mapstructure:"verify"`
	}
	require.NoError(t, params.Decode(&opts))
	assert.Equal(t, []string{"md5", "sha256"}, opts.Algorithms)
	assert.True(t, opts.Verify)
}

func TestParams_Merge(t *testing.T) {
	base := Params{"a": 1, "b": 2}
	merged := base.Merge(Params{"b": 3, "c": 4})

	assert.Equal(t, Params{"a": 1, "b": 3, "c": 4}, merged)
	assert.Equal(t, Params{"a": 1, "b": 2}, base, "merge must not mutate the receiver")
}
