package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfsplitter/internal/ai"
	"github.com/local/pdfsplitter/internal/archive"
	"github.com/local/pdfsplitter/internal/filetype"
	"github.com/local/pdfsplitter/internal/mupdf"
	"github.com/local/pdfsplitter/internal/planner"
	"github.com/local/pdfsplitter/internal/process"
	"github.com/local/pdfsplitter/internal/segment"
	"github.com/local/pdfsplitter/internal/storage"
	"github.com/local/pdfsplitter/internal/suggest"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type fakeCodec struct {
	pages int
	err   error
	block chan struct{}
	calls atomic.Int32
}

func (f *fakeCodec) PageCount(data []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.pages, nil
}

func (f *fakeCodec) ExtractAll(ctx context.Context, source []byte, specs []planner.OutputSpec) ([][]byte, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	out := make([][]byte, len(specs))
	for i, spec := range specs {
		out[i] = []byte(fmt.Sprintf("pdf:%s:%d", spec.Name, spec.PageCount()))
	}
	return out, nil
}

type blockingOracle struct {
	release chan struct{}
	reply   []ai.Suggestion
}

func (o *blockingOracle) Name() string { return "fake" }

func (o *blockingOracle) Suggest(ctx context.Context, req ai.Request) (ai.Response, error) {
	select {
	case <-o.release:
	case <-ctx.Done():
		return ai.Response{}, ctx.Err()
	}
	return ai.Response{Suggestions: o.reply, Provider: "fake"}, nil
}

type capturingOracle struct {
	reqs  chan ai.Request
	reply []ai.Suggestion
}

func (o *capturingOracle) Name() string { return "capture" }

func (o *capturingOracle) Suggest(ctx context.Context, req ai.Request) (ai.Response, error) {
	o.reqs <- req
	return ai.Response{Suggestions: o.reply, Provider: "capture"}, nil
}

type fakeSampler struct {
	excerpts []mupdf.Excerpt
	err      error
}

func (f *fakeSampler) Sample(data []byte) ([]mupdf.Excerpt, error) {
	return f.excerpts, f.err
}

func testDeps(codec *fakeCodec, store storage.Store) Dependencies {
	return Dependencies{
		Codec:      codec,
		Packager:   &archive.Zip{},
		Store:      store,
		Detector:   filetype.New(),
		SuggestCfg: suggest.Config{Timeout: time.Second},
		ProcessCfg: process.Config{TickInterval: time.Millisecond, TickStep: 50},
	}
}

func waitState(t *testing.T, s *Session, want process.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.ProcessStatus().State == want
	}, 2*time.Second, 2*time.Millisecond)
}

func TestLoadDocumentRejectsNonPDF(t *testing.T) {
	s := New(testDeps(&fakeCodec{pages: 5}, storage.NewMemoryStore()))

	err := s.LoadDocument("notes.txt", []byte("just some text"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only PDF uploads are supported")
	assert.False(t, s.Snapshot().Loaded)
}

func TestLoadDocumentInitializesState(t *testing.T) {
	s := New(testDeps(&fakeCodec{pages: 10}, storage.NewMemoryStore()))

	require.NoError(t, s.LoadDocument("Annual Report.pdf", pdfBytes))

	snap := s.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Equal(t, "Annual Report.pdf", snap.DocName)
	assert.Equal(t, 10, snap.PageCount)
	assert.Equal(t, int64(len(pdfBytes)), snap.ByteSize)
	assert.Empty(t, snap.Plan.Ranges)
	assert.False(t, snap.CanUndo, "seeded history has nothing to undo")
	assert.Equal(t, process.StateIdle, s.ProcessStatus().State)
}

func TestMutationsRequireDocument(t *testing.T) {
	s := New(testDeps(&fakeCodec{pages: 5}, storage.NewMemoryStore()))

	_, err := s.AddRange(0, 2)
	assert.ErrorIs(t, err, segment.ErrNoDocument)

	err = s.StartSplit(planner.StrategyRanges, 0, "")
	assert.ErrorIs(t, err, segment.ErrNoDocument)

	_, err = s.RequestSuggestions("")
	assert.ErrorIs(t, err, segment.ErrNoDocument)
}

func TestPlanMutationLifecycle(t *testing.T) {
	s := New(testDeps(&fakeCodec{pages: 10}, storage.NewMemoryStore()))
	require.NoError(t, s.LoadDocument("doc.pdf", pdfBytes))

	first, err := s.AddRange(0, 4)
	require.NoError(t, err)
	assert.Equal(t, "Part 1", first.Label)

	_, err = s.AddRange(5, 9)
	require.NoError(t, err)

	ok, err := s.RelabelRange(first.ID, "Intro")
	require.NoError(t, err)
	assert.True(t, ok)

	plan, err := s.Undo()
	require.NoError(t, err)
	require.Len(t, plan.Ranges, 2)
	assert.Equal(t, "Part 1", plan.Ranges[0].Label, "undo drops the relabel")

	plan, err = s.Redo()
	require.NoError(t, err)
	assert.Equal(t, "Intro", plan.Ranges[0].Label)

	removed, err := s.RemoveRange("no-such-id")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, s.ClearRanges())
	assert.Empty(t, s.Snapshot().Plan.Ranges)
}

func TestSplitHappyPath(t *testing.T) {
	store := storage.NewMemoryStore()
	s := New(testDeps(&fakeCodec{pages: 10}, store))
	require.NoError(t, s.LoadDocument("Annual Report.pdf", pdfBytes))

	_, err := s.AddRange(0, 4)
	require.NoError(t, err)

	require.NoError(t, s.StartSplit(planner.StrategyRanges, 0, ""))
	waitState(t, s, process.StateDone)

	st := s.ProcessStatus()
	require.Len(t, st.Results, 1)
	assert.Equal(t, "annual_report_part_1.pdf", st.Results[0].Name)
	assert.Equal(t, 5, st.Results[0].PageCount)
	require.NotNil(t, st.Archive)
	assert.Equal(t, "annual_report_split.zip", st.Archive.Name)
	assert.Equal(t, 2, store.Len(), "one output plus the archive")

	got, err := store.Get(context.Background(), st.Results[0].Handle)
	require.NoError(t, err)
	assert.Equal(t, "annual_report_part_1.pdf", got.Name)
}

func TestStartSplitEmptyPlan(t *testing.T) {
	s := New(testDeps(&fakeCodec{pages: 10}, storage.NewMemoryStore()))
	require.NoError(t, s.LoadDocument("doc.pdf", pdfBytes))

	err := s.StartSplit(planner.StrategyRanges, 0, "")
	assert.ErrorIs(t, err, planner.ErrEmptyPlan)
	assert.Equal(t, process.StateIdle, s.ProcessStatus().State)
}

func TestPlanFrozenWhileRunning(t *testing.T) {
	codec := &fakeCodec{pages: 10, block: make(chan struct{})}
	s := New(testDeps(codec, storage.NewMemoryStore()))
	require.NoError(t, s.LoadDocument("doc.pdf", pdfBytes))

	_, err := s.AddRange(0, 4)
	require.NoError(t, err)
	require.NoError(t, s.StartSplit(planner.StrategyRanges, 0, ""))
	require.Eventually(t, func() bool {
		return codec.calls.Load() > 0
	}, 2*time.Second, 2*time.Millisecond, "realizer reached")

	_, err = s.AddRange(5, 9)
	assert.ErrorIs(t, err, ErrSplitInProgress)
	_, err = s.Undo()
	assert.ErrorIs(t, err, ErrSplitInProgress)
	err = s.LoadDocument("other.pdf", pdfBytes)
	assert.ErrorIs(t, err, ErrSplitInProgress)

	// Rotation is page state, not plan state.
	deg, err := s.RotatePage(0)
	require.NoError(t, err)
	assert.Equal(t, 90, deg)

	close(codec.block)
	waitState(t, s, process.StateDone)

	_, err = s.AddRange(5, 9)
	require.NoError(t, err, "terminal state thaws the plan")
}

func TestResetReleasesArtifacts(t *testing.T) {
	store := storage.NewMemoryStore()
	s := New(testDeps(&fakeCodec{pages: 10}, store))
	require.NoError(t, s.LoadDocument("doc.pdf", pdfBytes))

	_, err := s.AddRange(0, 9)
	require.NoError(t, err)
	require.NoError(t, s.StartSplit(planner.StrategyChunks, 4, ""))
	waitState(t, s, process.StateDone)
	require.Equal(t, 4, store.Len(), "three chunks plus the archive")

	require.NoError(t, s.ResetSplit())
	assert.Equal(t, process.StateIdle, s.ProcessStatus().State)
	assert.Equal(t, 0, store.Len())
}

func TestStartSplitWhileSuggestionPending(t *testing.T) {
	oracle := &blockingOracle{release: make(chan struct{}), reply: []ai.Suggestion{{Start: 1, End: 5}}}
	deps := testDeps(&fakeCodec{pages: 10}, storage.NewMemoryStore())
	deps.Oracle = oracle
	s := New(deps)
	require.NoError(t, s.LoadDocument("doc.pdf", pdfBytes))

	_, err := s.AddRange(0, 4)
	require.NoError(t, err)
	_, err = s.RequestSuggestions("chapters")
	require.NoError(t, err)

	err = s.StartSplit(planner.StrategyRanges, 0, "")
	assert.ErrorIs(t, err, ErrSuggestionPending)

	close(oracle.release)
	require.Eventually(t, func() bool {
		return s.SuggestionStatus().State == suggest.StateApplied
	}, 2*time.Second, 2*time.Millisecond)

	require.NoError(t, s.StartSplit(planner.StrategyRanges, 0, ""))
	waitState(t, s, process.StateDone)
}

func TestSuggestionsCarryExcerpts(t *testing.T) {
	oracle := &capturingOracle{reqs: make(chan ai.Request, 1), reply: []ai.Suggestion{{Start: 1, End: 5, Label: "All"}}}
	deps := testDeps(&fakeCodec{pages: 5}, storage.NewMemoryStore())
	deps.Oracle = oracle
	deps.Sampler = &fakeSampler{excerpts: []mupdf.Excerpt{{Page: 0, Text: "Cover page"}, {Page: 4, Text: "Appendix"}}}
	s := New(deps)
	require.NoError(t, s.LoadDocument("doc.pdf", pdfBytes))

	_, err := s.RequestSuggestions("split it")
	require.NoError(t, err)

	select {
	case req := <-oracle.reqs:
		assert.Equal(t, []ai.PageExcerpt{{Page: 0, Text: "Cover page"}, {Page: 4, Text: "Appendix"}}, req.Excerpts)
		assert.Equal(t, 5, req.PageCount)
	case <-time.After(2 * time.Second):
		t.Fatal("oracle never saw the request")
	}
}

func TestLoadSurvivesSamplerFailure(t *testing.T) {
	deps := testDeps(&fakeCodec{pages: 5}, storage.NewMemoryStore())
	deps.Sampler = &fakeSampler{err: fmt.Errorf("mangled xref")}
	s := New(deps)

	require.NoError(t, s.LoadDocument("doc.pdf", pdfBytes))
	assert.True(t, s.Snapshot().Loaded)
}

func TestLoadReplacesDocument(t *testing.T) {
	codec := &fakeCodec{pages: 10}
	s := New(testDeps(codec, storage.NewMemoryStore()))
	require.NoError(t, s.LoadDocument("first.pdf", pdfBytes))

	_, err := s.AddRange(0, 4)
	require.NoError(t, err)

	codec.pages = 3
	require.NoError(t, s.LoadDocument("second.pdf", pdfBytes))

	snap := s.Snapshot()
	assert.Equal(t, "second.pdf", snap.DocName)
	assert.Equal(t, 3, snap.PageCount)
	assert.Empty(t, snap.Plan.Ranges, "plan does not survive a reload")
	assert.False(t, snap.CanUndo)
}

func TestSnapshotWithoutDocument(t *testing.T) {
	s := New(testDeps(&fakeCodec{pages: 5}, storage.NewMemoryStore()))

	snap := s.Snapshot()
	assert.Equal(t, s.ID, snap.ID)
	assert.False(t, snap.Loaded)
	assert.Equal(t, suggest.StateIdle, s.SuggestionStatus().State)

	_, _, err := s.Source()
	assert.ErrorIs(t, err, segment.ErrNoDocument)
}
