package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dshills/reviewflow/emit"
	"github.com/dshills/reviewflow/model"
)

// Options configures a Pipeline.
type Options struct {
	// RequestTimeout bounds an entire run, covering every stage attempt.
	// Zero means no request-level deadline.
	RequestTimeout time.Duration

	// MaxCodeBytes truncates longer input at a rune boundary before prompt
	// construction. Zero means no limit.
	MaxCodeBytes int

	// MalformedRetries is how many times a stage is re-generated with the
	// identical prompt after its output is rejected, before the run fails.
	MalformedRetries int
}

// Result is the successful outcome of a run: the three stage contributions.
type Result struct {
	Analysis  string   `json:"analysis"`
	Issues    []string `json:"issues"`
	Report    string   `json:"report"`
	Truncated bool     `json:"-"`
}

// Pipeline runs the review stages in order over a shared State, all-or-
// nothing: a stage failure fails the run and later stages never execute.
//
// Pipeline is safe for concurrent use; each Run owns its State and every
// cross-request resource it touches (generator, emitter, metrics) is itself
// concurrency-safe.
type Pipeline struct {
	gen     model.Generator
	stages  []Stage
	emitter emit.Emitter
	metrics *Metrics
	opts    Options
}

// New creates a Pipeline over the standard stage sequence. The emitter may
// be nil (events dropped); metrics may be nil (nothing recorded).
func New(gen model.Generator, emitter emit.Emitter, metrics *Metrics, opts Options) (*Pipeline, error) {
	if gen == nil {
		return nil, fmt.Errorf("pipeline: generator cannot be nil")
	}
	if emitter == nil {
		emitter = &emit.NullEmitter{}
	}
	if opts.MalformedRetries < 0 {
		opts.MalformedRetries = 0
	}

	return &Pipeline{
		gen:     gen,
		stages:  Stages(),
		emitter: emitter,
		metrics: metrics,
		opts:    opts,
	}, nil
}

// Run executes the pipeline for one request. On success the Result carries
// all three fields; on failure the returned error is a *Error tagged with
// the failing stage and no partial result escapes.
func (p *Pipeline) Run(ctx context.Context, runID, code string) (Result, error) {
	p.metrics.ReviewStarted()

	result, err := p.run(ctx, runID, code)
	if err != nil {
		status := string(CodeInternal)
		var werr *Error
		if errors.As(err, &werr) {
			status = string(werr.Code)
		}
		p.metrics.ReviewFinished(status)
		return Result{}, err
	}

	p.metrics.ReviewFinished("success")
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, runID, code string) (Result, error) {
	if strings.TrimSpace(code) == "" {
		return Result{}, &Error{Code: CodeValidation, Message: "code must not be empty"}
	}

	if p.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.RequestTimeout)
		defer cancel()
	}

	step := 0
	code, truncated := truncateRunes(code, p.opts.MaxCodeBytes)
	state := State{Code: code, Truncated: truncated}

	p.emitter.Emit(emit.Event{
		RunID: runID, Step: step, Msg: "run_start",
		Meta: map[string]interface{}{"phase": PhaseInit.String(), "code_bytes": len(code)},
	})
	if truncated {
		p.emitter.Emit(emit.Event{
			RunID: runID, Step: step, Msg: "input_truncated",
			Meta: map[string]interface{}{"max_bytes": p.opts.MaxCodeBytes},
		})
	}

	for _, stage := range p.stages {
		step++
		p.emitter.Emit(emit.Event{
			RunID: runID, Step: step, Stage: stage.Name, Msg: "stage_start",
			Meta: map[string]interface{}{"phase": stage.Phase.String()},
		})

		start := time.Now()
		delta, err := p.runStage(ctx, runID, step, stage, state)
		latency := time.Since(start)

		if err != nil {
			p.metrics.ObserveStage(stage.Name, latency, "error")
			p.emitter.Emit(emit.Event{
				RunID: runID, Step: step, Stage: stage.Name, Msg: "run_failed",
				Meta: map[string]interface{}{"phase": PhaseFailed.String(), "error": err.Error()},
			})
			return Result{}, err
		}

		p.metrics.ObserveStage(stage.Name, latency, "success")
		p.emitter.Emit(emit.Event{
			RunID: runID, Step: step, Stage: stage.Name, Msg: "stage_end",
			Meta: map[string]interface{}{"phase": stage.Phase.String(), "duration_ms": latency.Milliseconds()},
		})

		state = Reduce(state, delta)

		if stage.Name == StageIssueFinder && len(state.Issues) < MinIssues {
			p.emitter.Emit(emit.Event{
				RunID: runID, Step: step, Stage: stage.Name, Msg: "issues_underproduced",
				Meta: map[string]interface{}{"count": len(state.Issues)},
			})
		}
	}

	if !state.Complete() {
		return Result{}, &Error{
			Code:    CodeInternal,
			Message: "pipeline finished with incomplete state",
		}
	}

	p.emitter.Emit(emit.Event{
		RunID: runID, Step: step + 1, Msg: "run_end",
		Meta: map[string]interface{}{"phase": PhaseDone.String()},
	})

	return Result{
		Analysis:  state.Analysis,
		Issues:    state.Issues,
		Report:    state.Report,
		Truncated: state.Truncated,
	}, nil
}

// runStage generates and shapes one stage's output. Generation failures are
// terminal here (the client has already retried transients); a rejected
// shape is re-generated with the identical prompt up to MalformedRetries
// additional times.
func (p *Pipeline) runStage(ctx context.Context, runID string, step int, stage Stage, state State) (State, error) {
	prompt := stage.Prompt(state)
	attempts := 1 + p.opts.MalformedRetries

	var shapeErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			p.metrics.IncStageRetry(stage.Name)
			p.emitter.Emit(emit.Event{
				RunID: runID, Step: step, Stage: stage.Name, Msg: "stage_retry",
				Meta: map[string]interface{}{"attempt": attempt + 1, "error": shapeErr.Error()},
			})
		}

		raw, err := p.gen.Generate(ctx, prompt)
		if err != nil {
			return State{}, wrapGenError(stage.Name, err)
		}

		delta, err := stage.Shape(raw)
		if err == nil {
			return delta, nil
		}
		shapeErr = err
	}

	return State{}, &Error{
		Code:    CodeMalformedOutput,
		Stage:   stage.Name,
		Message: fmt.Sprintf("output rejected after %d attempts: %v", attempts, shapeErr),
		Cause:   shapeErr,
	}
}

// wrapGenError maps a generation client failure to the pipeline taxonomy,
// tagged with the stage in flight.
func wrapGenError(stage string, err error) *Error {
	if model.IsTimeout(err) {
		return &Error{
			Code:    CodeInferenceTimeout,
			Stage:   stage,
			Message: "generation did not complete in time",
			Cause:   err,
		}
	}
	return &Error{
		Code:    CodeInferenceUnavailable,
		Stage:   stage,
		Message: "generation backend unavailable",
		Cause:   err,
	}
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
