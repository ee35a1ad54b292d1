// Package process drives one split run through its staged lifecycle:
// Idle -> Running -> Done or Failed, with Reset back to Idle from the
// terminal states. Stage progress ticks on a wall clock for the surface to
// poll; the actual document work happens once, after the last stage
// completes. There is no mid-flight cancellation.
package process

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/metrics"
	"github.com/local/pdfsplitter/internal/planner"
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

type StageState string

const (
	StagePending   StageState = "pending"
	StageActive    StageState = "active"
	StageCompleted StageState = "completed"
	StageFailed    StageState = "failed"
)

// Stage is one step of the run as shown to the surface.
type Stage struct {
	Name     string     `json:"name"`
	State    StageState `json:"state"`
	Progress int        `json:"progress"`
}

var stageNames = []string{"preparing", "splitting", "packaging"}

var (
	ErrAlreadyRunning = errors.New("split already running")
	ErrNotIdle        = errors.New("split result must be reset first")
	ErrNotTerminal    = errors.New("split still running, cannot reset")
	ErrNoOutputs      = errors.New("split would produce no outputs")
)

// OutputResult describes one stored output document.
type OutputResult struct {
	Name      string `json:"name"`
	PageCount int    `json:"page_count"`
	ByteSize  int64  `json:"byte_size"`
	Handle    string `json:"handle"`
}

// Job is everything a run needs, captured at start time. Specs are built by
// the planner before Start and treated as frozen from then on.
type Job struct {
	Strategy planner.Strategy
	Specs    []planner.OutputSpec
	Source   []byte
	BaseName string
}

// Realizer does the actual document work: extract every spec, package the
// archive, store the artifacts.
type Realizer interface {
	Realize(ctx context.Context, job Job) ([]OutputResult, *OutputResult, error)
}

type Config struct {
	TickInterval time.Duration
	TickStep     int
}

// Status is a point-in-time copy of the orchestrator state.
type Status struct {
	State      State          `json:"state"`
	Stages     []Stage        `json:"stages"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Err        string         `json:"error,omitempty"`
	Results    []OutputResult `json:"results,omitempty"`
	Archive    *OutputResult  `json:"archive,omitempty"`
}

type Orchestrator struct {
	mu       sync.Mutex
	cfg      Config
	realizer Realizer

	state      State
	stages     []Stage
	startedAt  *time.Time
	finishedAt *time.Time
	errMsg     string
	results    []OutputResult
	archive    *OutputResult
}

func New(realizer Realizer, cfg Config) *Orchestrator {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 150 * time.Millisecond
	}
	if cfg.TickStep <= 0 {
		cfg.TickStep = 25
	}
	return &Orchestrator{
		cfg:      cfg,
		realizer: realizer,
		state:    StateIdle,
		stages:   freshStages(),
	}
}

func freshStages() []Stage {
	stages := make([]Stage, len(stageNames))
	for i, name := range stageNames {
		stages[i] = Stage{Name: name, State: StagePending}
	}
	return stages
}

// Start begins a run. Only legal from Idle; a finished run must be Reset
// before the next one.
func (o *Orchestrator) Start(ctx context.Context, job Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateRunning:
		return ErrAlreadyRunning
	case StateDone, StateFailed:
		return ErrNotIdle
	}
	if len(job.Specs) == 0 {
		return ErrNoOutputs
	}

	now := time.Now()
	o.state = StateRunning
	o.startedAt = &now
	o.finishedAt = nil
	o.errMsg = ""
	o.results = nil
	o.archive = nil
	o.stages = freshStages()
	o.stages[0].State = StageActive

	log.Info().Str("strategy", string(job.Strategy)).Int("outputs", len(job.Specs)).Str("base", job.BaseName).Msg("split started")
	go o.run(ctx, job)
	return nil
}

func (o *Orchestrator) run(ctx context.Context, job Job) {
	ticker := time.NewTicker(o.cfg.TickInterval)
	defer ticker.Stop()

	for range ticker.C {
		if o.tick() {
			break
		}
	}

	results, archive, err := o.realizer.Realize(ctx, job)
	if err != nil {
		o.fail(job, err)
		return
	}
	o.complete(job, results, archive)
}

// tick advances the active stage and reports whether every stage finished.
func (o *Orchestrator) tick() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := range o.stages {
		if o.stages[i].State != StageActive {
			continue
		}
		o.stages[i].Progress += o.cfg.TickStep
		if o.stages[i].Progress < 100 {
			return false
		}
		o.stages[i].Progress = 100
		o.stages[i].State = StageCompleted
		if i+1 < len(o.stages) {
			o.stages[i+1].State = StageActive
			return false
		}
		return true
	}
	return true
}

func (o *Orchestrator) fail(job Job, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	o.state = StateFailed
	o.finishedAt = &now
	o.errMsg = err.Error()
	o.failStage()

	dur := now.Sub(*o.startedAt)
	metrics.SplitFinished(string(job.Strategy), "error", dur)
	log.Error().Err(err).Str("strategy", string(job.Strategy)).Dur("took", dur).Msg("split failed")
}

// failStage repaints the stage the run died in: the first one still not
// completed, or the last one when realization itself failed.
func (o *Orchestrator) failStage() {
	for i := range o.stages {
		if o.stages[i].State != StageCompleted {
			o.stages[i].State = StageFailed
			return
		}
	}
	o.stages[len(o.stages)-1].State = StageFailed
}

func (o *Orchestrator) complete(job Job, results []OutputResult, archive *OutputResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	o.state = StateDone
	o.finishedAt = &now
	o.results = results
	o.archive = archive

	dur := now.Sub(*o.startedAt)
	metrics.SplitFinished(string(job.Strategy), "success", dur)
	metrics.AddSplitOutputs(len(results))
	log.Info().Str("strategy", string(job.Strategy)).Int("outputs", len(results)).Dur("took", dur).Msg("split finished")
}

// Status returns a copy of the current state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := Status{
		State:      o.state,
		Stages:     make([]Stage, len(o.stages)),
		StartedAt:  o.startedAt,
		FinishedAt: o.finishedAt,
		Err:        o.errMsg,
	}
	copy(st.Stages, o.stages)
	if o.results != nil {
		st.Results = make([]OutputResult, len(o.results))
		copy(st.Results, o.results)
	}
	if o.archive != nil {
		a := *o.archive
		st.Archive = &a
	}
	return st
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Running() bool { return o.State() == StateRunning }

// Reset returns to Idle and hands back the artifact handles the finished run
// held, so the caller can release them. Only legal from Done, Failed or
// Idle; resetting an Idle orchestrator is a no-op.
func (o *Orchestrator) Reset() ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateRunning {
		return nil, ErrNotTerminal
	}

	var handles []string
	for _, r := range o.results {
		if r.Handle != "" {
			handles = append(handles, r.Handle)
		}
	}
	if o.archive != nil && o.archive.Handle != "" {
		handles = append(handles, o.archive.Handle)
	}

	o.state = StateIdle
	o.stages = freshStages()
	o.startedAt = nil
	o.finishedAt = nil
	o.errMsg = ""
	o.results = nil
	o.archive = nil
	return handles, nil
}
