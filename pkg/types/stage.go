// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Stage names as they appear in StageResults and timing maps.
const (
	StageClassify   = "ContentClassifier"
	StageDiscover   = "RepositoryResolver"
	StageSandbox    = "SandboxRunner"
	StageSynthesize = "ContentSynthesizer"
)

// ProcessingType records which branch the pipeline took for a bookmark.
type ProcessingType string

const (
	// ProcessingFull means all four stages ran.
	ProcessingFull ProcessingType = "full_pipeline"

	// ProcessingNonGitHub means relevance was too low for repository work;
	// the pipeline synthesized directly from the classification.
	ProcessingNonGitHub ProcessingType = "non_github_content"

	// ProcessingAnalysisOnly means discovery found no repositories, so
	// execution was skipped.
	ProcessingAnalysisOnly ProcessingType = "github_analysis_only"
)

// StageResult is the uniform envelope every pipeline stage returns. The
// orchestrator branches on Success without knowing stage internals.
type StageResult struct {
	Stage   string        `json:"stage" yaml:"stage"`
	Success bool          `json:"success" yaml:"success"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// PipelineReport aggregates the outcome of one pipeline run. It is created
// at orchestration start, appended to as stages complete, and immutable once
// the orchestrator returns.
type PipelineReport struct {
	BookmarkID string `json:"bookmark_id" yaml:"bookmark_id"`
	Success    bool   `json:"success" yaml:"success"`

	// FailedStage names the stage that aborted the run, when Success is false.
	FailedStage string `json:"failed_stage,omitempty" yaml:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`

	ProcessingType ProcessingType `json:"processing_type" yaml:"processing_type"`

	// Stages holds one result per stage that was invoked, in invocation order.
	Stages []StageResult `json:"stages" yaml:"stages"`

	// Timing maps stage name to elapsed time; TotalElapsed is their sum.
	Timing       map[string]time.Duration `json:"timing" yaml:"timing"`
	TotalElapsed time.Duration            `json:"total_elapsed" yaml:"total_elapsed"`

	// Synthesis is set only on success.
	Synthesis *SynthesisOutput `json:"synthesis,omitempty" yaml:"synthesis,omitempty"`

	RelevanceScore         float64 `json:"relevance_score" yaml:"relevance_score"`
	RepositoriesDiscovered int     `json:"repositories_discovered" yaml:"repositories_discovered"`
	RepositoriesExecuted   int     `json:"repositories_executed" yaml:"repositories_executed"`
}

// StageFor returns the recorded result for a stage name, if any.
func (r *PipelineReport) StageFor(name string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageResult{}, false
}
