package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfsplitter/internal/archive"
	"github.com/local/pdfsplitter/internal/planner"
	"github.com/local/pdfsplitter/internal/process"
	"github.com/local/pdfsplitter/internal/storage"
)

type flakyStore struct {
	*storage.MemoryStore
	failAfter int32
	puts      atomic.Int32
}

func (f *flakyStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if f.puts.Add(1) > f.failAfter {
		return "", errors.New("store full")
	}
	return f.MemoryStore.Put(ctx, name, data)
}

func TestRealizerRollsBackOnStoreFailure(t *testing.T) {
	specs, err := planner.Build(planner.Request{
		Strategy:  planner.StrategyChunks,
		PageCount: 10,
		Rotations: make([]int, 10),
		BaseName:  "doc",
		ChunkSize: 5,
	})
	require.NoError(t, err)
	require.Len(t, specs, 2)

	// Second output put fails: the first stored handle must be released.
	flaky := &flakyStore{MemoryStore: storage.NewMemoryStore(), failAfter: 1}
	r := &realizer{codec: &fakeCodec{pages: 10}, packager: &archive.Zip{}, store: flaky}

	_, _, err = r.Realize(context.Background(), process.Job{Specs: specs, Source: pdfBytes, BaseName: "doc"})
	require.Error(t, err)
	assert.Equal(t, 0, flaky.MemoryStore.Len())

	// Archive put fails after both outputs landed: both roll back.
	flaky = &flakyStore{MemoryStore: storage.NewMemoryStore(), failAfter: 2}
	r.store = flaky

	_, _, err = r.Realize(context.Background(), process.Job{Specs: specs, Source: pdfBytes, BaseName: "doc"})
	require.Error(t, err)
	assert.Equal(t, 0, flaky.MemoryStore.Len())
}

func TestManagerCreateGetRemove(t *testing.T) {
	m := NewManager(testDeps(&fakeCodec{pages: 5}, storage.NewMemoryStore()), time.Hour, time.Hour)
	defer m.Stop()

	s := m.Create()
	require.Equal(t, 1, m.Count())

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Get("no-such-session")
	assert.False(t, ok)

	assert.True(t, m.Remove(s.ID))
	assert.Equal(t, 0, m.Count())
	assert.False(t, m.Remove(s.ID))
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(testDeps(&fakeCodec{pages: 10}, store), 30*time.Millisecond, 10*time.Millisecond)
	defer m.Stop()

	s := m.Create()
	require.NoError(t, s.LoadDocument("doc.pdf", pdfBytes))
	_, err := s.AddRange(0, 9)
	require.NoError(t, err)
	require.NoError(t, s.StartSplit(planner.StrategyRanges, 0, ""))
	waitState(t, s, process.StateDone)
	require.Equal(t, 2, store.Len())

	require.Eventually(t, func() bool {
		return m.Count() == 0
	}, 2*time.Second, 5*time.Millisecond, "idle session swept")
	assert.Equal(t, 0, store.Len(), "expiry released the artifacts")
}

func TestManagerKeepsRunningSessionAlive(t *testing.T) {
	codec := &fakeCodec{pages: 10, block: make(chan struct{})}
	m := NewManager(testDeps(codec, storage.NewMemoryStore()), 20*time.Millisecond, 10*time.Millisecond)
	defer m.Stop()

	s := m.Create()
	require.NoError(t, s.LoadDocument("doc.pdf", pdfBytes))
	_, err := s.AddRange(0, 4)
	require.NoError(t, err)
	require.NoError(t, s.StartSplit(planner.StrategyRanges, 0, ""))
	require.Eventually(t, func() bool {
		return codec.calls.Load() > 0
	}, 2*time.Second, 2*time.Millisecond)

	// Idle past the TTL, but mid-split: the sweeper must leave it alone.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, m.Count())

	close(codec.block)
	waitState(t, s, process.StateDone)
	require.Eventually(t, func() bool {
		return m.Count() == 0
	}, 2*time.Second, 5*time.Millisecond, "terminal session swept")
}
