package process

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfsplitter/internal/planner"
)

type fakeRealizer struct {
	results []OutputResult
	archive *OutputResult
	err     error
	delay   time.Duration
	calls   int32
}

func (f *fakeRealizer) Realize(ctx context.Context, job Job) ([]OutputResult, *OutputResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.results, f.archive, nil
}

func fastConfig() Config {
	return Config{TickInterval: time.Millisecond, TickStep: 50}
}

func testJob(specs int) Job {
	job := Job{Strategy: planner.StrategyRanges, BaseName: "doc", Source: []byte("%PDF")}
	for i := 0; i < specs; i++ {
		job.Specs = append(job.Specs, planner.OutputSpec{Name: "part", Pages: []int{i}})
	}
	return job
}

func waitState(t *testing.T, o *Orchestrator, want State) Status {
	t.Helper()
	require.Eventually(t, func() bool {
		return o.State() == want
	}, 2*time.Second, 2*time.Millisecond)
	return o.Status()
}

func TestOrchestrator_HappyPath(t *testing.T) {
	realizer := &fakeRealizer{
		results: []OutputResult{
			{Name: "doc_part_1", PageCount: 1, ByteSize: 100, Handle: "h1"},
			{Name: "doc_part_2", PageCount: 1, ByteSize: 120, Handle: "h2"},
		},
		archive: &OutputResult{Name: "doc_split.zip", ByteSize: 200, Handle: "hz"},
	}
	o := New(realizer, fastConfig())

	require.NoError(t, o.Start(context.Background(), testJob(2)))

	st := waitState(t, o, StateDone)
	require.Len(t, st.Stages, 3)
	for _, stage := range st.Stages {
		assert.Equal(t, StageCompleted, stage.State, "stage %s", stage.Name)
		assert.Equal(t, 100, stage.Progress)
	}
	assert.Equal(t, []string{"preparing", "splitting", "packaging"},
		[]string{st.Stages[0].Name, st.Stages[1].Name, st.Stages[2].Name})
	require.Len(t, st.Results, 2)
	require.NotNil(t, st.Archive)
	assert.Equal(t, "hz", st.Archive.Handle)
	assert.NotNil(t, st.StartedAt)
	assert.NotNil(t, st.FinishedAt)
	assert.Equal(t, int32(1), atomic.LoadInt32(&realizer.calls), "realizer runs exactly once")
}

func TestOrchestrator_StartWhileRunning(t *testing.T) {
	realizer := &fakeRealizer{delay: 100 * time.Millisecond}
	o := New(realizer, fastConfig())

	require.NoError(t, o.Start(context.Background(), testJob(1)))
	assert.ErrorIs(t, o.Start(context.Background(), testJob(1)), ErrAlreadyRunning)

	waitState(t, o, StateDone)
}

func TestOrchestrator_StartAfterDoneNeedsReset(t *testing.T) {
	o := New(&fakeRealizer{}, fastConfig())

	require.NoError(t, o.Start(context.Background(), testJob(1)))
	waitState(t, o, StateDone)

	assert.ErrorIs(t, o.Start(context.Background(), testJob(1)), ErrNotIdle)

	_, err := o.Reset()
	require.NoError(t, err)
	assert.NoError(t, o.Start(context.Background(), testJob(1)))
	waitState(t, o, StateDone)
}

func TestOrchestrator_EmptySpecsRejected(t *testing.T) {
	realizer := &fakeRealizer{}
	o := New(realizer, fastConfig())

	assert.ErrorIs(t, o.Start(context.Background(), Job{}), ErrNoOutputs)
	assert.Equal(t, StateIdle, o.State())
	assert.Equal(t, int32(0), atomic.LoadInt32(&realizer.calls), "realizer must never be invoked")
}

func TestOrchestrator_RealizerFailure(t *testing.T) {
	o := New(&fakeRealizer{err: errors.New("extraction blew up")}, fastConfig())

	require.NoError(t, o.Start(context.Background(), testJob(1)))

	st := waitState(t, o, StateFailed)
	assert.Contains(t, st.Err, "extraction blew up")
	assert.Empty(t, st.Results)
	assert.Nil(t, st.Archive)
	assert.Equal(t, StageFailed, st.Stages[len(st.Stages)-1].State, "last stage repainted as failed")
}

func TestOrchestrator_ResetWhileRunning(t *testing.T) {
	o := New(&fakeRealizer{delay: 100 * time.Millisecond}, fastConfig())

	require.NoError(t, o.Start(context.Background(), testJob(1)))
	_, err := o.Reset()
	assert.ErrorIs(t, err, ErrNotTerminal)

	waitState(t, o, StateDone)
}

func TestOrchestrator_ResetReturnsHandles(t *testing.T) {
	realizer := &fakeRealizer{
		results: []OutputResult{{Name: "a", Handle: "h1"}, {Name: "b", Handle: "h2"}},
		archive: &OutputResult{Name: "z", Handle: "hz"},
	}
	o := New(realizer, fastConfig())

	require.NoError(t, o.Start(context.Background(), testJob(2)))
	waitState(t, o, StateDone)

	handles, err := o.Reset()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"h1", "h2", "hz"}, handles)

	st := o.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Nil(t, st.StartedAt)
	assert.Empty(t, st.Err)
	for _, stage := range st.Stages {
		assert.Equal(t, StagePending, stage.State)
		assert.Equal(t, 0, stage.Progress)
	}
}

func TestOrchestrator_ResetFromIdleIsNoop(t *testing.T) {
	o := New(&fakeRealizer{}, fastConfig())
	handles, err := o.Reset()
	require.NoError(t, err)
	assert.Empty(t, handles)
	assert.Equal(t, StateIdle, o.State())
}

func TestOrchestrator_StatusIsACopy(t *testing.T) {
	o := New(&fakeRealizer{results: []OutputResult{{Name: "a", Handle: "h1"}}}, fastConfig())
	require.NoError(t, o.Start(context.Background(), testJob(1)))
	st := waitState(t, o, StateDone)

	st.Stages[0].State = StageFailed
	st.Results[0].Handle = "tampered"

	fresh := o.Status()
	assert.Equal(t, StageCompleted, fresh.Stages[0].State)
	assert.Equal(t, "h1", fresh.Results[0].Handle)
}
