// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sandbox executes resolved repositories in an isolated environment
// and distills what happened into insights the synthesis stage can use. A
// repository that fails to execute is recorded and skipped; the batch always
// completes.
package sandbox

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mpetrov/bookmark-engine/internal/llm"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

// RunReport is what an execution backend returns for one repository.
type RunReport struct {
	Analysis      types.ProjectAnalysis
	InstallOutput string
	RunOutput     string
}

// Executor clones, installs, and runs a repository somewhere isolated.
// Remote (API-backed) and local (container runtime) implementations exist.
type Executor interface {
	AnalyzeAndRun(ctx context.Context, repoURL string) (RunReport, error)
}

// Runner is the third pipeline stage.
type Runner struct {
	exec      Executor
	completer llm.Completer
	log       zerolog.Logger
}

// New creates a runner. completer may be nil, which routes functionality
// classification through the description-based fallback.
func New(exec Executor, completer llm.Completer, log zerolog.Logger) *Runner {
	return &Runner{exec: exec, completer: completer, log: log}
}

// Execute runs the selected subset of discovered repositories. Individual
// failures are recorded in the results; Execute itself fails only when no
// backend is configured.
func (r *Runner) Execute(ctx context.Context, discovery types.DiscoveryOutput, strategy types.ExecutionStrategy, maxRepos int) (types.ExecutionOutput, error) {
	if r.exec == nil {
		return types.ExecutionOutput{}, fmt.Errorf("no execution backend configured")
	}

	selected := selectForExecution(discovery.Repositories, strategy, maxRepos)
	if len(selected) == 0 {
		return types.ExecutionOutput{
			Results:  []types.ExecutionResult{},
			Analysis: aggregate(nil),
		}, nil
	}

	results := make([]types.ExecutionResult, len(selected))
	g, gctx := errgroup.WithContext(ctx)

	for i, repo := range selected {
		g.Go(func() error {
			results[i] = r.executeOne(gctx, repo)
			return nil
		})
	}
	g.Wait()

	successes := 0
	for _, res := range results {
		if res.Success {
			successes++
		}
	}

	r.log.Debug().
		Int("selected", len(selected)).
		Int("successful", successes).
		Str("strategy", string(strategy)).
		Msg("sandbox execution complete")

	return types.ExecutionOutput{
		Results:      results,
		SuccessCount: successes,
		Analysis:     aggregate(results),
	}, nil
}

// executeOne runs a single repository and never fails the batch: backend
// errors become a skipped result.
func (r *Runner) executeOne(ctx context.Context, repo types.RepositoryCandidate) types.ExecutionResult {
	ref := repoRef(repo)

	report, err := r.exec.AnalyzeAndRun(ctx, repo.HTMLURL)
	if err != nil {
		r.log.Warn().Err(err).Str("repo", repo.FullName).Msg("repository execution failed")
		return types.ExecutionResult{
			Success:    false,
			Repository: ref,
			Skipped:    true,
			Error:      err.Error(),
		}
	}

	insights := extractInsights(repo, report)
	functionality := r.functionality(ctx, repo, report)
	learnings := extractLearnings(repo, report)

	return types.ExecutionResult{
		Success:       true,
		Repository:    ref,
		Analysis:      report.Analysis,
		InstallOutput: report.InstallOutput,
		RunOutput:     report.RunOutput,
		Insights:      insights,
		Functionality: functionality,
		Learnings:     learnings,
		Summary:       summarize(repo, report.Analysis, insights, functionality),
	}
}

// selectForExecution picks which candidates to run. Quick keeps only
// high-confidence, low-complexity repositories and runs at most two;
// thorough keeps anything above medium confidence up to the cap.
func selectForExecution(repos []types.RepositoryCandidate, strategy types.ExecutionStrategy, maxRepos int) []types.RepositoryCandidate {
	switch strategy {
	case types.ExecutionQuick:
		var picked []types.RepositoryCandidate
		for _, repo := range repos {
			if repo.Confidence > 0.7 && repo.Complexity < 0.5 {
				picked = append(picked, repo)
			}
		}
		limit := maxRepos
		if limit > 2 {
			limit = 2
		}
		return head(picked, limit)

	case types.ExecutionThorough:
		var picked []types.RepositoryCandidate
		for _, repo := range repos {
			if repo.Confidence > 0.5 {
				picked = append(picked, repo)
			}
		}
		return head(picked, maxRepos)

	default:
		return head(repos, maxRepos)
	}
}

func head(repos []types.RepositoryCandidate, n int) []types.RepositoryCandidate {
	if n < 0 {
		n = 0
	}
	if len(repos) > n {
		return repos[:n]
	}
	return repos
}

func repoRef(repo types.RepositoryCandidate) types.RepositoryRef {
	return types.RepositoryRef{
		Name:                repo.Name,
		FullName:            repo.FullName,
		Description:         repo.Description,
		Language:            repo.Language,
		Stars:               repo.Stars,
		Confidence:          repo.Confidence,
		DiscoveryMethod:     repo.DiscoveryMethod,
		RelevanceIndicators: repo.RelevanceIndicators,
	}
}
