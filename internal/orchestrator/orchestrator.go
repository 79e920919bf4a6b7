// Package orchestrator drives assessment runs through their lifecycle:
//
//	Idle → Recording → Assessing → Completed | Failed → Idle
//
// A caller announces the reference text with [Orchestrator.Begin], records
// audio on its own, and hands the recording over with [Orchestrator.Submit],
// which blocks up to the configured timeout. A run that misses its deadline
// fails with [ErrTimeout]; its worker is asked to stop through its context
// but never preempted, and whatever it eventually produces is logged,
// counted, and discarded.
//
// One run is current at a time. A worker keeps its slot until it returns,
// so a run submitted while a timed-out worker is still busy waits for it
// within its own deadline.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/enunciate/internal/observe"
	"github.com/MrWong99/enunciate/pkg/types"
)

// DefaultTimeout bounds a run when no timeout is configured.
const DefaultTimeout = 30 * time.Second

var (
	// ErrTimeout is returned by Submit when the run missed its deadline.
	ErrTimeout = errors.New("orchestrator: assessment timed out")

	// ErrBusy is returned by Begin when a run is already in progress.
	ErrBusy = errors.New("orchestrator: assessment in progress")

	// ErrNotRecording is returned by Submit and Abort outside the Recording
	// state.
	ErrNotRecording = errors.New("orchestrator: no recording in progress")
)

// State is a lifecycle state of the current run.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateAssessing
	StateCompleted
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateAssessing:
		return "assessing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Assessor runs one assessment. *assess.Pipeline implements it.
type Assessor interface {
	Run(ctx context.Context, reference, audioPath string) (*types.AssessmentResult, error)
}

// Option is a functional option for configuring an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout sets how long Submit waits for a run. Non-positive values are
// ignored.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMetrics sets the metrics instance. Defaults to
// observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTransitionHook registers fn to be called on every state change. It
// runs with the orchestrator's lock held and must not call back into it.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(o *Orchestrator) { o.onTransition = fn }
}

// Orchestrator serializes assessment runs. It is safe for concurrent use.
type Orchestrator struct {
	runner       Assessor
	timeout      time.Duration
	metrics      *observe.Metrics
	onTransition func(from, to State)

	mu        sync.Mutex
	state     State
	reference string

	// slot holds a token while a worker runs.
	slot    chan struct{}
	workers sync.WaitGroup
}

// New returns an idle Orchestrator dispatching runs to runner.
func New(runner Assessor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		runner:  runner,
		timeout: DefaultTimeout,
		slot:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// setLocked moves to state to. o.mu must be held.
func (o *Orchestrator) setLocked(to State) {
	from := o.state
	o.state = to
	if o.onTransition != nil && from != to {
		o.onTransition(from, to)
	}
}

// Begin starts a run for reference and enters Recording. It returns
// [ErrBusy] unless the orchestrator is idle.
func (o *Orchestrator) Begin(reference string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle {
		return ErrBusy
	}
	o.reference = reference
	o.setLocked(StateRecording)
	return nil
}

// Abort abandons a run that is still recording and returns to Idle.
func (o *Orchestrator) Abort() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateRecording {
		return ErrNotRecording
	}
	o.reference = ""
	o.setLocked(StateIdle)
	return nil
}

type outcome struct {
	result *types.AssessmentResult
	err    error
}

// run is the hand-off between one Submit call and its worker.
type run struct {
	mu        sync.Mutex
	abandoned bool
	done      chan outcome
}

// Submit assesses the recording at audioPath against the reference given
// to Begin and blocks until the run finishes or its timeout elapses. On
// success it returns the result, which the caller owns. On failure it
// returns a nil result and an error: [ErrTimeout], the context's error, or
// the assessor's error. Either way the orchestrator is idle afterwards.
func (o *Orchestrator) Submit(ctx context.Context, audioPath string) (*types.AssessmentResult, error) {
	o.mu.Lock()
	if o.state != StateRecording {
		o.mu.Unlock()
		return nil, ErrNotRecording
	}
	reference := o.reference
	o.setLocked(StateAssessing)
	o.mu.Unlock()

	ctx = observe.WithRunID(ctx, uuid.NewString())
	ctx, span := observe.StartSpan(ctx, "orchestrator.submit")
	defer span.End()
	log := observe.Logger(ctx)

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	res, err := o.dispatch(ctx, runCtx, reference, audioPath)
	elapsed := time.Since(start)

	o.mu.Lock()
	o.reference = ""
	if err != nil {
		o.setLocked(StateFailed)
	} else {
		o.setLocked(StateCompleted)
	}
	o.setLocked(StateIdle)
	o.mu.Unlock()

	switch {
	case errors.Is(err, ErrTimeout):
		o.metrics.RecordAssessment(ctx, "timeout", elapsed)
		log.Warn("assessment timed out", "timeout", o.timeout)
		span.RecordError(err)
		return nil, err
	case err != nil:
		o.metrics.RecordAssessment(ctx, "failed", elapsed)
		log.Warn("assessment failed", "err", err, "duration", elapsed)
		span.RecordError(err)
		return nil, err
	}
	o.metrics.RecordAssessment(ctx, "completed", elapsed)
	o.metrics.RecordScore(ctx, res.Pronunciation)
	log.Info("assessment completed",
		"accuracy", res.Accuracy,
		"fluency", res.Fluency,
		"pronunciation", res.Pronunciation,
		"duration", elapsed,
	)
	return res, nil
}

// dispatch waits for the worker slot, starts the worker, and waits for its
// outcome, all within runCtx.
func (o *Orchestrator) dispatch(ctx, runCtx context.Context, reference, audioPath string) (*types.AssessmentResult, error) {
	select {
	case o.slot <- struct{}{}:
	case <-runCtx.Done():
		return nil, o.deadlineError(ctx)
	}

	r := &run{done: make(chan outcome, 1)}
	o.workers.Add(1)
	go o.work(runCtx, r, reference, audioPath)

	select {
	case out := <-r.done:
		if out.err != nil {
			return nil, fmt.Errorf("orchestrator: assessment failed: %w", out.err)
		}
		return out.result, nil
	case <-runCtx.Done():
		r.mu.Lock()
		r.abandoned = true
		r.mu.Unlock()
		select {
		case out := <-r.done:
			// Finished at the deadline; the run has already failed.
			o.discard(ctx, out)
		default:
		}
		return nil, o.deadlineError(ctx)
	}
}

// work runs the assessor and hands its outcome to the waiting Submit, or
// discards it when Submit has given up.
func (o *Orchestrator) work(ctx context.Context, r *run, reference, audioPath string) {
	defer o.workers.Done()
	defer func() { <-o.slot }()

	res, err := o.runner.Run(ctx, reference, audioPath)
	out := outcome{result: res, err: err}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.abandoned {
		o.discard(ctx, out)
		return
	}
	r.done <- out
}

func (o *Orchestrator) discard(ctx context.Context, out outcome) {
	o.metrics.RecordLateResult(context.WithoutCancel(ctx))
	observe.Logger(ctx).Info("discarding late assessment result", "err", out.err, "has_result", out.result != nil)
}

// deadlineError reports why runCtx ended: the caller's context or the run
// timeout.
func (o *Orchestrator) deadlineError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}
	return ErrTimeout
}

// Assess runs Begin and Submit in one call.
func (o *Orchestrator) Assess(ctx context.Context, reference, audioPath string) (*types.AssessmentResult, error) {
	if err := o.Begin(reference); err != nil {
		return nil, err
	}
	return o.Submit(ctx, audioPath)
}

// Wait blocks until every worker, including abandoned ones, has returned.
func (o *Orchestrator) Wait() {
	o.workers.Wait()
}
