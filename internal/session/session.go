// Package session owns the per-caller aggregate: one loaded document, its
// plan controller, the suggestion adapter and the split orchestrator.
// Collaborators come in through Dependencies; the session enforces the
// cross-cutting rules the parts cannot see on their own, like the plan
// freeze while a split runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/ai"
	"github.com/local/pdfsplitter/internal/archive"
	"github.com/local/pdfsplitter/internal/filetype"
	"github.com/local/pdfsplitter/internal/metrics"
	"github.com/local/pdfsplitter/internal/mupdf"
	"github.com/local/pdfsplitter/internal/planner"
	"github.com/local/pdfsplitter/internal/process"
	"github.com/local/pdfsplitter/internal/segment"
	"github.com/local/pdfsplitter/internal/storage"
	"github.com/local/pdfsplitter/internal/suggest"
)

// Codec reads and splits the loaded document.
type Codec interface {
	PageCount(data []byte) (int, error)
	ExtractAll(ctx context.Context, source []byte, specs []planner.OutputSpec) ([][]byte, error)
}

// Packager bundles split outputs into one archive.
type Packager interface {
	Pack(entries []archive.Entry) ([]byte, error)
}

// Sampler pulls page text excerpts at load time for the suggestion prompt.
type Sampler interface {
	Sample(data []byte) ([]mupdf.Excerpt, error)
}

// Dependencies carries every collaborator a session needs. Oracle, Cache and
// Sampler may be nil; suggestions then fail fast or run without excerpts.
type Dependencies struct {
	Codec        Codec
	Packager     Packager
	Store        storage.Store
	Detector     *filetype.Detector
	Oracle       ai.Client
	Cache        suggest.Cache
	Sampler      Sampler
	HistoryLimit int
	SuggestCfg   suggest.Config
	ProcessCfg   process.Config
}

var (
	// ErrSplitInProgress refuses plan mutations while a split runs.
	ErrSplitInProgress = errors.New("plan is frozen while a split is running")
	// ErrSuggestionPending refuses a split start while the oracle is out.
	ErrSuggestionPending = errors.New("suggestion request still pending")
	// ErrBadDocument marks uploads the codec could not open.
	ErrBadDocument = errors.New("document could not be read")
)

// Snapshot is the session state handed to the surface.
type Snapshot struct {
	ID        string       `json:"id"`
	Loaded    bool         `json:"loaded"`
	DocName   string       `json:"doc_name,omitempty"`
	ByteSize  int64        `json:"byte_size,omitempty"`
	PageCount int          `json:"page_count,omitempty"`
	Rotations []int        `json:"rotations,omitempty"`
	Plan      segment.Plan `json:"plan"`
	CanUndo   bool         `json:"can_undo"`
	CanRedo   bool         `json:"can_redo"`
	CreatedAt time.Time    `json:"created_at"`
}

type Session struct {
	ID string

	mu        sync.Mutex
	deps      Dependencies
	createdAt time.Time
	lastTouch time.Time

	docName    string
	source     []byte
	controller *segment.Controller
	adapter    *suggest.Adapter
	orch       *process.Orchestrator
}

func New(deps Dependencies) *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		deps:      deps,
		createdAt: now,
		lastTouch: now,
	}
	s.orch = process.New(&realizer{
		codec:    deps.Codec,
		packager: deps.Packager,
		store:    deps.Store,
	}, deps.ProcessCfg)
	return s
}

// LoadDocument replaces whatever the session held before: fresh page set,
// empty plan, seeded history, idle process. Non-PDF uploads are refused
// before anything is touched.
func (s *Session) LoadDocument(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.orch.Running() {
		return ErrSplitInProgress
	}
	if _, err := s.deps.Detector.RequirePDF(data); err != nil {
		return err
	}

	count, err := s.deps.Codec.PageCount(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	pages, err := segment.NewPageSet(count)
	if err != nil {
		return err
	}
	excerpts := s.sampleText(name, data)

	// A pending suggestion for the old document must never land in the
	// new one.
	if s.adapter != nil {
		s.adapter.Close()
	}
	if handles, err := s.orch.Reset(); err == nil {
		s.releaseHandles(handles)
	}

	s.docName = name
	s.source = data
	s.controller = segment.NewController(pages, s.deps.HistoryLimit)
	s.adapter = suggest.NewAdapter(s.deps.Oracle, s.deps.Cache, s.deps.SuggestCfg, s.controller, name, excerpts)

	metrics.DocumentLoaded()
	log.Info().Str("session", s.ID).Str("doc", name).Int("pages", count).Int("bytes", len(data)).Msg("document loaded")
	return nil
}

// sampleText is best effort; a document the sampler cannot read still loads
// and suggestions fall back to metadata only.
func (s *Session) sampleText(name string, data []byte) []ai.PageExcerpt {
	if s.deps.Sampler == nil {
		return nil
	}
	sampled, err := s.deps.Sampler.Sample(data)
	if err != nil {
		log.Warn().Err(err).Str("doc", name).Msg("page text sampling failed, suggestions run without excerpts")
		return nil
	}
	excerpts := make([]ai.PageExcerpt, 0, len(sampled))
	for _, e := range sampled {
		excerpts = append(excerpts, ai.PageExcerpt{Page: e.Page, Text: e.Text})
	}
	return excerpts
}

// mutable gates every plan mutation.
func (s *Session) mutable() error {
	if s.controller == nil {
		return segment.ErrNoDocument
	}
	if s.orch.Running() {
		return ErrSplitInProgress
	}
	return nil
}

func (s *Session) AddRange(start, end int) (segment.Range, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return segment.Range{}, err
	}
	r, err := s.controller.AddRange(start, end)
	if err != nil {
		return segment.Range{}, err
	}
	metrics.PlanMutation("add")
	return r, nil
}

func (s *Session) RemoveRange(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return false, err
	}
	removed := s.controller.RemoveRange(id)
	if removed {
		metrics.PlanMutation("remove")
	}
	return removed, nil
}

func (s *Session) RelabelRange(id, label string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return false, err
	}
	ok := s.controller.RelabelRange(id, label)
	if ok {
		metrics.PlanMutation("relabel")
	}
	return ok, nil
}

func (s *Session) RecolorRange(id, color string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return false, err
	}
	ok := s.controller.RecolorRange(id, color)
	if ok {
		metrics.PlanMutation("recolor")
	}
	return ok, nil
}

func (s *Session) ClearRanges() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return err
	}
	if s.controller.ClearRanges() {
		metrics.PlanMutation("clear")
	}
	return nil
}

func (s *Session) Undo() (segment.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return segment.Plan{}, err
	}
	metrics.PlanMutation("undo")
	return s.controller.Undo(), nil
}

func (s *Session) Redo() (segment.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return segment.Plan{}, err
	}
	metrics.PlanMutation("redo")
	return s.controller.Redo(), nil
}

// RotatePage advances a page's rotation. Rotation is page state, not plan
// state: it stays legal while a split runs because running jobs captured
// their rotation overrides at planning time.
func (s *Session) RotatePage(page int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.controller == nil {
		return 0, segment.ErrNoDocument
	}
	deg, err := s.controller.RotatePage(page)
	if err != nil {
		return 0, err
	}
	metrics.PlanMutation("rotate")
	return deg, nil
}

func (s *Session) SetPageRotation(page, deg int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.controller == nil {
		return segment.ErrNoDocument
	}
	if err := s.controller.SetPageRotation(page, deg); err != nil {
		return err
	}
	metrics.PlanMutation("rotate")
	return nil
}

// RequestSuggestions fires one oracle round for the loaded document.
func (s *Session) RequestSuggestions(instructions string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return "", err
	}
	return s.adapter.Request(instructions)
}

// StartSplit builds the output specs for the chosen strategy and hands them
// to the orchestrator. The specs are frozen from here on; plan mutations
// are refused until the run reaches a terminal state.
func (s *Session) StartSplit(strategy planner.Strategy, chunkSize int, expression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.controller == nil {
		return segment.ErrNoDocument
	}
	if s.adapter != nil && s.adapter.Pending() {
		return ErrSuggestionPending
	}

	view := s.controller.View()
	specs, err := planner.Build(planner.Request{
		Strategy:   strategy,
		Plan:       view.Plan,
		PageCount:  view.PageCount,
		Rotations:  view.Rotations,
		BaseName:   s.docName,
		ChunkSize:  chunkSize,
		Expression: expression,
	})
	if err != nil {
		return err
	}

	return s.orch.Start(context.Background(), process.Job{
		Strategy: strategy,
		Specs:    specs,
		Source:   s.source,
		BaseName: planner.BaseName(s.docName),
	})
}

// ResetSplit returns the orchestrator to Idle and releases the artifacts
// the finished run held.
func (s *Session) ResetSplit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	handles, err := s.orch.Reset()
	if err != nil {
		return err
	}
	s.releaseHandles(handles)
	return nil
}

func (s *Session) releaseHandles(handles []string) {
	if len(handles) == 0 {
		return
	}
	if err := s.deps.Store.Release(context.Background(), handles...); err != nil {
		log.Warn().Err(err).Str("session", s.ID).Int("handles", len(handles)).Msg("artifact release failed")
	}
}

// Snapshot returns the session state for the surface.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.ID,
		CreatedAt: s.createdAt,
	}
	if s.controller == nil {
		return snap
	}

	view := s.controller.View()
	snap.Loaded = true
	snap.DocName = s.docName
	snap.ByteSize = int64(len(s.source))
	snap.PageCount = view.PageCount
	snap.Rotations = view.Rotations
	snap.Plan = view.Plan
	snap.CanUndo = view.CanUndo
	snap.CanRedo = view.CanRedo
	return snap
}

func (s *Session) ProcessStatus() process.Status {
	return s.orch.Status()
}

func (s *Session) SuggestionStatus() suggest.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter == nil {
		return suggest.Status{State: suggest.StateIdle}
	}
	return s.adapter.Status()
}

// Source hands out the loaded document for the preview renderer.
func (s *Session) Source() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		return nil, "", segment.ErrNoDocument
	}
	return s.source, s.docName, nil
}

func (s *Session) Touch() {
	s.mu.Lock()
	s.lastTouch = time.Now()
	s.mu.Unlock()
}

func (s *Session) LastTouch() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouch
}

// Close tears the session down: cancels a pending suggestion and releases
// stored artifacts. A session mid-split refuses to close; the caller tries
// again later.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.orch.Running() {
		return false
	}
	if s.adapter != nil {
		s.adapter.Close()
	}
	if handles, err := s.orch.Reset(); err == nil {
		s.releaseHandles(handles)
	}
	s.source = nil
	s.controller = nil
	return true
}
