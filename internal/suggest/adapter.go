// Package suggest runs the AI split suggestions for one loaded document.
// Requests are single-flight and asynchronous: the surface fires one, polls
// the status, and the accepted plan shows up through the regular plan
// queries. A failed or rejected suggestion never touches plan or history.
package suggest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/ai"
	"github.com/local/pdfsplitter/internal/metrics"
	"github.com/local/pdfsplitter/internal/segment"
)

type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
	StateApplied State = "applied"
	StateFailed  State = "failed"
)

var (
	// ErrPending rejects a new request while one is in flight.
	ErrPending = errors.New("suggestion request already pending")
	// ErrClosed rejects requests after the adapter was shut down.
	ErrClosed = errors.New("suggestion adapter closed")
	// ErrNoOracle means no provider is configured.
	ErrNoOracle = errors.New("no suggestion provider configured")
)

// Status is the pollable state of the latest request.
type Status struct {
	State      State      `json:"state"`
	RequestID  string     `json:"request_id,omitempty"`
	Provider   string     `json:"provider,omitempty"`
	Count      int        `json:"count,omitempty"`
	Err        string     `json:"error,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type Config struct {
	Model          string
	MaxSuggestions int
	Timeout        time.Duration
	CacheTTL       time.Duration
}

// Adapter binds an oracle client to one document's controller.
type Adapter struct {
	mu         sync.Mutex
	client     ai.Client
	cache      Cache
	cfg        Config
	controller *segment.Controller
	docName    string
	excerpts   []ai.PageExcerpt
	status     Status
	cancel     context.CancelFunc
	closed     bool
}

// NewAdapter builds an adapter for the given document. client may be nil
// when no provider is configured; requests then fail fast. cache and
// excerpts may be nil.
func NewAdapter(client ai.Client, cache Cache, cfg Config, controller *segment.Controller, docName string, excerpts []ai.PageExcerpt) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxSuggestions < 1 {
		cfg.MaxSuggestions = 12
	}
	return &Adapter{
		client:     client,
		cache:      cache,
		cfg:        cfg,
		controller: controller,
		docName:    docName,
		excerpts:   excerpts,
		status:     Status{State: StateIdle},
	}
}

// Request starts one suggestion round. It returns the request id right away;
// the result lands via Status and, on success, in the plan. A second request
// while one is pending is rejected, never queued.
func (a *Adapter) Request(instructions string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return "", ErrClosed
	}
	if a.client == nil {
		return "", ErrNoOracle
	}
	if a.status.State == StatePending {
		return "", ErrPending
	}

	id := uuid.NewString()
	a.status = Status{State: StatePending, RequestID: id}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Timeout)
	a.cancel = cancel

	log.Info().Str("request_id", id).Str("doc", a.docName).Str("provider", a.client.Name()).Msg("suggestion request started")
	go a.run(ctx, cancel, id, instructions)
	return id, nil
}

func (a *Adapter) run(ctx context.Context, cancel context.CancelFunc, id, instructions string) {
	defer cancel()
	started := time.Now()

	req := ai.Request{
		DocName:        a.docName,
		PageCount:      a.controller.PageCount(),
		Excerpts:       a.excerpts,
		Instructions:   instructions,
		Model:          a.cfg.Model,
		MaxSuggestions: a.cfg.MaxSuggestions,
	}

	key := cacheKey(a.docName, req.PageCount, instructions)
	provider := a.client.Name()
	suggestions, cached := a.cacheGet(ctx, key)
	if cached {
		provider = "cache"
	} else {
		resp, err := a.client.Suggest(ctx, req)
		if err != nil {
			metrics.OracleRequest(provider, "error", time.Since(started))
			a.fail(id, provider, err)
			return
		}
		suggestions = resp.Suggestions
	}

	ranges := make([]segment.Range, 0, len(suggestions))
	for _, s := range suggestions {
		ranges = append(ranges, segment.Range{Start: s.Start - 1, End: s.End - 1, Label: s.Label})
	}

	// A result that outlived its adapter must not touch the plan.
	if a.superseded(id) {
		return
	}

	// Suggested ranges go through the exact same validation as manual input.
	// One bad range rejects the whole batch and the plan stays put.
	plan, err := a.controller.ReplacePlan(ranges)
	if err != nil {
		metrics.OracleRequest(provider, "rejected", time.Since(started))
		a.fail(id, provider, err)
		return
	}

	if !cached {
		a.cacheSet(ctx, key, suggestions)
	}
	metrics.OracleRequest(provider, "applied", time.Since(started))
	a.applied(id, provider, len(plan.Ranges))
}

func (a *Adapter) superseded(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed || a.status.RequestID != id
}

func (a *Adapter) fail(id, provider string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// A result for a superseded or shut down adapter is dropped.
	if a.closed || a.status.RequestID != id {
		return
	}
	now := time.Now()
	a.status = Status{State: StateFailed, RequestID: id, Provider: provider, Err: err.Error(), FinishedAt: &now}
	a.cancel = nil
	log.Warn().Str("request_id", id).Str("provider", provider).Err(err).Msg("suggestion request failed")
}

func (a *Adapter) applied(id, provider string, count int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.status.RequestID != id {
		return
	}
	now := time.Now()
	a.status = Status{State: StateApplied, RequestID: id, Provider: provider, Count: count, FinishedAt: &now}
	a.cancel = nil
	log.Info().Str("request_id", id).Str("provider", provider).Int("ranges", count).Msg("suggestion applied to plan")
}

// Status returns the state of the latest request.
func (a *Adapter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Pending reports whether a request is in flight.
func (a *Adapter) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status.State == StatePending
}

// Close cancels any in-flight request and discards its eventual result. Used
// when the document is replaced or the session expires.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *Adapter) cacheGet(ctx context.Context, key string) ([]ai.Suggestion, bool) {
	if a.cache == nil {
		return nil, false
	}
	return a.cache.Get(ctx, key)
}

func (a *Adapter) cacheSet(ctx context.Context, key string, suggestions []ai.Suggestion) {
	if a.cache == nil {
		return
	}
	a.cache.Set(ctx, key, suggestions, a.cfg.CacheTTL)
}
