// Package pipeline sequences the recognition stages as a short-circuiting
// state machine with per-stage failure containment and a single coordinate
// transform back to original-image space at the end.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/graspmind/graspmind/pkg/coords"
	"github.com/graspmind/graspmind/pkg/gateway"
	"github.com/graspmind/graspmind/pkg/knowledge"
	"github.com/graspmind/graspmind/pkg/mask"
	"github.com/graspmind/graspmind/pkg/normalize"
	"github.com/graspmind/graspmind/pkg/types"
)

// Options configures one pipeline instance.
type Options struct {
	// Bound is the maximum long side of the working image in pixels.
	Bound int
	// Quality is the JPEG quality of the payload sent to the model.
	Quality int
	// StageTimeout bounds each stage's external call. Zero leaves the
	// timeout to the gateway adapter.
	StageTimeout time.Duration
}

// Result is what one process call hands back to the caller. On failure the
// outputs of completed stages are withheld: a partial result would leave
// the caller guessing which coordinate space, if any, is trustworthy.
type Result struct {
	Success      bool            `json:"success"`
	FailedStage  string          `json:"failed_stage,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Completed    []string        `json:"completed_stages"`
	Errors       []string        `json:"errors,omitempty"`
	Strategy     *types.Strategy `json:"strategy,omitempty"`
	Mask         *mask.Mask      `json:"mask,omitempty"`
	Regions      []types.Region  `json:"regions,omitempty"`
	Elapsed      time.Duration   `json:"-"`
	ElapsedSec   float64         `json:"processing_time_seconds"`
}

// Status describes a pipeline's configuration for introspection.
type Status struct {
	Bound        int           `json:"bound"`
	Quality      int           `json:"quality"`
	StageTimeout time.Duration `json:"stage_timeout"`
}

// Pipeline runs requests through the three stages in strict order. A
// Pipeline is safe for concurrent use: every run owns its own state and
// scale record, and the knowledge table is read-only.
type Pipeline struct {
	gw         gateway.Client
	normalizer *normalize.Normalizer
	table      *knowledge.Table
	opts       Options
}

// New creates a Pipeline. The knowledge table is passed explicitly so tests
// can substitute a fixture.
func New(gw gateway.Client, table *knowledge.Table, opts Options) (*Pipeline, error) {
	if gw == nil {
		return nil, &types.InvalidInputError{Reason: "gateway client is required"}
	}
	if table == nil {
		return nil, &types.InvalidInputError{Reason: "knowledge table is required"}
	}
	normalizer, err := normalize.New(opts.Bound, opts.Quality)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		gw:         gw,
		normalizer: normalizer,
		table:      table,
		opts:       opts,
	}, nil
}

// Status reports the pipeline configuration.
func (p *Pipeline) Status() Status {
	return Status{
		Bound:        p.opts.Bound,
		Quality:      p.opts.Quality,
		StageTimeout: p.opts.StageTimeout,
	}
}

// ProcessFile normalizes an image file and runs the stages.
func (p *Pipeline) ProcessFile(ctx context.Context, path, instruction string) (*Result, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, &types.InvalidInputError{Reason: "instruction must not be empty"}
	}
	norm, err := p.normalizer.NormalizeFile(path)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, norm, instruction), nil
}

// Process normalizes raw image bytes and runs the stages. Input-shape and
// decode failures surface as errors before any stage starts; stage failures
// are reported inside the Result with the failing stage identified.
func (p *Pipeline) Process(ctx context.Context, imageData []byte, instruction string) (*Result, error) {
	if len(imageData) == 0 {
		return nil, &types.InvalidInputError{Reason: "image data must not be empty"}
	}
	if strings.TrimSpace(instruction) == "" {
		return nil, &types.InvalidInputError{Reason: "instruction must not be empty"}
	}
	norm, err := p.normalizer.Normalize(imageData)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, norm, instruction), nil
}

// run executes the state machine over an already normalized image. The
// scale record from that one normalization is threaded unchanged through
// all three stages; no stage re-derives or mutates it.
func (p *Pipeline) run(ctx context.Context, norm *normalize.Normalized, instruction string) *Result {
	start := time.Now()
	r := newRun()
	rec := norm.Scale

	slog.Info("pipeline run started",
		"original_width", rec.OriginalWidth, "original_height", rec.OriginalHeight,
		"working_width", rec.WorkingWidth, "working_height", rec.WorkingHeight,
		"scale", rec.Factor)

	// Stage 1: scene analysis.
	r.enter(StageSceneAnalysis)
	scene, err := p.stage1(ctx, norm.JPEG, rec)
	if err != nil {
		r.fail(StageSceneAnalysis, err)
		return p.failed(r, StageSceneAnalysis, err, start)
	}
	r.complete(StageSceneAnalysis)

	// Stage 2: strategy resolution. An empty scene reaches this stage as
	// valid data; the strategist decides whether it is workable.
	r.enter(StageStrategyResolution)
	strat, err := p.stage2(ctx, instruction, scene)
	if err != nil {
		r.fail(StageStrategyResolution, err)
		return p.failed(r, StageStrategyResolution, err, start)
	}
	r.complete(StageStrategyResolution)

	// Stage 3: region extraction, the only stage whose output is mapped
	// back to original space.
	r.enter(StageRegionExtraction)
	m, regions, err := p.stage3(ctx, norm.JPEG, strat, &rec)
	if err != nil {
		r.fail(StageRegionExtraction, err)
		return p.failed(r, StageRegionExtraction, err, start)
	}
	r.complete(StageRegionExtraction)
	r.State = StateDone

	elapsed := time.Since(start)
	slog.Info("pipeline run completed", "elapsed", elapsed, "mask_coverage", m.Coverage())

	return &Result{
		Success:    true,
		Completed:  r.Completed,
		Strategy:   strat,
		Mask:       m,
		Regions:    regions,
		Elapsed:    elapsed,
		ElapsedSec: elapsed.Seconds(),
	}
}

func (p *Pipeline) stage1(ctx context.Context, imageJPEG []byte, rec coords.ScaleRecord) (*types.SceneResult, error) {
	ctx, cancel := p.stageContext(ctx)
	defer cancel()
	return analyzeScene(ctx, p.gw, imageJPEG, rec)
}

func (p *Pipeline) stage2(ctx context.Context, instruction string, scene *types.SceneResult) (*types.Strategy, error) {
	ctx, cancel := p.stageContext(ctx)
	defer cancel()
	return resolveStrategy(ctx, p.gw, p.table, instruction, scene)
}

func (p *Pipeline) stage3(ctx context.Context, imageJPEG []byte, strat *types.Strategy, rec *coords.ScaleRecord) (*mask.Mask, []types.Region, error) {
	ctx, cancel := p.stageContext(ctx)
	defer cancel()
	return extractRegion(ctx, p.gw, imageJPEG, strat, rec)
}

func (p *Pipeline) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.StageTimeout > 0 {
		return context.WithTimeout(ctx, p.opts.StageTimeout)
	}
	return context.WithCancel(ctx)
}

// failed builds the single failure report for the run. There is no retry
// and no partial rollback; the caller decides whether to re-invoke with a
// fresh run.
func (p *Pipeline) failed(r *Run, stage Stage, err error, start time.Time) *Result {
	elapsed := time.Since(start)
	slog.Error("pipeline run failed", "stage", string(stage), "error", err, "elapsed", elapsed)
	completed := r.Completed
	if completed == nil {
		completed = []string{}
	}
	return &Result{
		Success:      false,
		FailedStage:  string(stage),
		ErrorMessage: string(stage) + ": " + err.Error(),
		Completed:    completed,
		Errors:       r.Errors,
		Elapsed:      elapsed,
		ElapsedSec:   elapsed.Seconds(),
	}
}
