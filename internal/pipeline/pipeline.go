// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the four enrichment stages over one bookmark:
// classification, repository resolution, sandboxed execution, and content
// synthesis. Stages run sequentially because each branch decision needs the
// previous stage's output. Every stage invocation runs under its own
// deadline; a sandbox failure is absorbed, everything else aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mpetrov/bookmark-engine/pkg/types"
)

// relevanceFloor is the score below which a bookmark is treated as having
// no repository content worth resolving.
const relevanceFloor = 0.3

// ContentClassifier analyzes the bookmark text.
type ContentClassifier interface {
	Classify(ctx context.Context, bm types.Bookmark) (types.ContentAnalysis, error)
}

// RepositoryResolver turns analysis into ranked repository candidates.
type RepositoryResolver interface {
	Resolve(ctx context.Context, analysis types.ContentAnalysis, strategy types.DiscoveryStrategy) (types.DiscoveryOutput, error)
}

// SandboxRunner executes selected candidates in isolation.
type SandboxRunner interface {
	Execute(ctx context.Context, discovery types.DiscoveryOutput, strategy types.ExecutionStrategy, maxRepos int) (types.ExecutionOutput, error)
}

// ContentSynthesizer folds all stage outputs into the final note.
type ContentSynthesizer interface {
	Synthesize(ctx context.Context, bm types.Bookmark, analysis types.ContentAnalysis, discovery types.DiscoveryOutput, execution types.ExecutionOutput, style types.SynthesisStyle) (types.SynthesisOutput, error)
}

// Orchestrator wires the stages together.
type Orchestrator struct {
	classifier  ContentClassifier
	resolver    RepositoryResolver
	runner      SandboxRunner
	synthesizer ContentSynthesizer

	validate *validator.Validate
	log      zerolog.Logger
}

// New creates an orchestrator over concrete stage implementations.
func New(classifier ContentClassifier, resolver RepositoryResolver, runner SandboxRunner, synthesizer ContentSynthesizer, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		classifier:  classifier,
		resolver:    resolver,
		runner:      runner,
		synthesizer: synthesizer,
		validate:    validator.New(),
		log:         log,
	}
}

// ProcessBookmark runs the full pipeline for one bookmark. The returned
// report always accounts for every stage that was invoked; the error is
// non-nil only for invalid input, never for stage failures.
func (o *Orchestrator) ProcessBookmark(ctx context.Context, bm types.Bookmark, opts types.PipelineOptions) (types.PipelineReport, error) {
	opts = withDefaults(opts)
	if err := o.validate.Struct(opts); err != nil {
		return types.PipelineReport{}, fmt.Errorf("invalid pipeline options: %w", err)
	}
	if bm.ID == "" {
		return types.PipelineReport{}, fmt.Errorf("bookmark has no id")
	}

	report := types.PipelineReport{
		BookmarkID:     bm.ID,
		ProcessingType: types.ProcessingFull,
		Timing:         map[string]time.Duration{},
	}

	o.log.Info().Str("bookmark", bm.ID).Msg("pipeline start")

	var analysis types.ContentAnalysis
	res := o.runStage(ctx, types.StageClassify, opts.StageTimeout, func(ctx context.Context) error {
		var err error
		analysis, err = o.classifier.Classify(ctx, bm)
		return err
	})
	record(&report, res)
	if !res.Success {
		return fail(report, res), nil
	}
	report.RelevanceScore = analysis.RelevanceScore

	var discovery types.DiscoveryOutput
	var execution types.ExecutionOutput

	if analysis.RelevanceScore < relevanceFloor && !analysis.RequiresDiscovery {
		report.ProcessingType = types.ProcessingNonGitHub
		o.log.Info().Str("bookmark", bm.ID).Msg("no repository content, skipping resolution")
	} else {
		res = o.runStage(ctx, types.StageDiscover, opts.StageTimeout, func(ctx context.Context) error {
			var err error
			discovery, err = o.resolver.Resolve(ctx, analysis, opts.DiscoveryStrategy)
			return err
		})
		record(&report, res)
		if !res.Success {
			return fail(report, res), nil
		}
		report.RepositoriesDiscovered = discovery.TotalFound

		if discovery.TotalFound == 0 {
			report.ProcessingType = types.ProcessingAnalysisOnly
			o.log.Info().Str("bookmark", bm.ID).Msg("no repositories resolved, skipping execution")
		} else {
			// The sandbox stage gets double the deadline and its failure is
			// absorbed: synthesis proceeds on empty execution data. The stage
			// output is committed only on success so a timed-out run cannot
			// write into the data synthesis reads.
			var sandboxOut types.ExecutionOutput
			res = o.runStage(ctx, types.StageSandbox, 2*opts.StageTimeout, func(ctx context.Context) error {
				out, err := o.runner.Execute(ctx, discovery, opts.ExecutionStrategy, opts.MaxRepositories)
				if err != nil {
					return err
				}
				sandboxOut = out
				return nil
			})
			record(&report, res)
			if res.Success {
				execution = sandboxOut
			} else {
				o.log.Warn().Str("bookmark", bm.ID).Str("error", res.Error).
					Msg("sandbox execution failed, continuing without execution data")
			}
			report.RepositoriesExecuted = execution.SuccessCount
		}
	}

	var synthesis types.SynthesisOutput
	res = o.runStage(ctx, types.StageSynthesize, opts.StageTimeout, func(ctx context.Context) error {
		var err error
		synthesis, err = o.synthesizer.Synthesize(ctx, bm, analysis, discovery, execution, opts.SynthesisStyle)
		return err
	})
	record(&report, res)
	if !res.Success {
		return fail(report, res), nil
	}

	report.Success = true
	report.Synthesis = &synthesis

	o.log.Info().
		Str("bookmark", bm.ID).
		Str("processing", string(report.ProcessingType)).
		Dur("elapsed", report.TotalElapsed).
		Msg("pipeline complete")

	return report, nil
}

// runStage invokes fn under its own deadline. A deadline overrun is reported
// the same way as a stage-returned error.
func (o *Orchestrator) runStage(ctx context.Context, name string, timeout time.Duration, fn func(context.Context) error) types.StageResult {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- fn(sctx) }()

	var err error
	select {
	case err = <-done:
	case <-sctx.Done():
		err = fmt.Errorf("stage deadline exceeded after %s", timeout)
	}

	res := types.StageResult{
		Stage:   name,
		Success: err == nil,
		Elapsed: time.Since(start),
	}
	if err != nil {
		res.Error = err.Error()
		o.log.Warn().Str("stage", name).Err(err).Msg("stage failed")
	} else {
		o.log.Debug().Str("stage", name).Dur("elapsed", res.Elapsed).Msg("stage complete")
	}
	return res
}

func record(report *types.PipelineReport, res types.StageResult) {
	report.Stages = append(report.Stages, res)
	report.Timing[res.Stage] = res.Elapsed
	report.TotalElapsed += res.Elapsed
}

func fail(report types.PipelineReport, res types.StageResult) types.PipelineReport {
	report.Success = false
	report.FailedStage = res.Stage
	report.Error = res.Error
	return report
}

// withDefaults fills unset options with the documented defaults so partial
// configuration validates.
func withDefaults(opts types.PipelineOptions) types.PipelineOptions {
	def := types.DefaultPipelineOptions()
	if opts.DiscoveryStrategy == "" {
		opts.DiscoveryStrategy = def.DiscoveryStrategy
	}
	if opts.ExecutionStrategy == "" {
		opts.ExecutionStrategy = def.ExecutionStrategy
	}
	if opts.SynthesisStyle == "" {
		opts.SynthesisStyle = def.SynthesisStyle
	}
	if opts.MaxRepositories == 0 {
		opts.MaxRepositories = def.MaxRepositories
	}
	if opts.StageTimeout == 0 {
		opts.StageTimeout = def.StageTimeout
	}
	return opts
}

// SampleBookmark is the built-in bookmark used by the process command's
// sample mode to exercise the pipeline end to end.
func SampleBookmark() types.Bookmark {
	return types.Bookmark{
		ID:   "test_123",
		Text: "Just built an awesome Python CLI tool for developers! Check it out: github.com/user/awesome-tool",
		Author: types.Author{
			Name:     "Test User",
			Username: "testuser",
		},
		PostedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Link:     "https://twitter.com/testuser/status/123",
	}
}
