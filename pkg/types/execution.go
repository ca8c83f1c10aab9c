// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ProjectAnalysis describes what the sandbox found after cloning a
// repository: the ecosystem, its declared dependencies, and candidate entry
// files.
type ProjectAnalysis struct {
	ProjectType  string   `json:"project_type" yaml:"project_type"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	MainFiles    []string `json:"main_files,omitempty" yaml:"main_files,omitempty"`
	HasReadme    bool     `json:"has_readme" yaml:"has_readme"`
	HasTests     bool     `json:"has_tests" yaml:"has_tests"`
}

// ExecutionInsights are heuristics derived from a repository's install and
// run output.
type ExecutionInsights struct {
	ProjectType          string   `json:"project_type" yaml:"project_type"`
	HasDependencies      bool     `json:"has_dependencies" yaml:"has_dependencies"`
	DependencyCount      int      `json:"dependency_count" yaml:"dependency_count"`
	InstallSucceeded     bool     `json:"install_succeeded" yaml:"install_succeeded"`
	RunSucceeded         bool     `json:"run_succeeded" yaml:"run_succeeded"`
	HasOutput            bool     `json:"has_output" yaml:"has_output"`
	ComplexityIndicators []string `json:"complexity_indicators,omitempty" yaml:"complexity_indicators,omitempty"`
	TechnologyStack      []string `json:"technology_stack,omitempty" yaml:"technology_stack,omitempty"`
}

// Functionality describes what an executed program actually does, either
// model-classified or derived from the repository description.
type Functionality struct {
	PrimaryFunction string   `json:"primary_function" yaml:"primary_function"`
	Category        string   `json:"category" yaml:"category"`
	UseCases        []string `json:"use_cases,omitempty" yaml:"use_cases,omitempty"`
	NotableFeatures []string `json:"notable_features,omitempty" yaml:"notable_features,omitempty"`
	ComplexityLevel string   `json:"complexity_level" yaml:"complexity_level"`
}

// RepositoryRef is the slice of candidate metadata an ExecutionResult keeps.
type RepositoryRef struct {
	Name                string          `json:"name" yaml:"name"`
	FullName            string          `json:"full_name" yaml:"full_name"`
	Description         string          `json:"description,omitempty" yaml:"description,omitempty"`
	Language            string          `json:"language,omitempty" yaml:"language,omitempty"`
	Stars               int             `json:"stars" yaml:"stars"`
	Confidence          float64         `json:"confidence" yaml:"confidence"`
	DiscoveryMethod     DiscoveryMethod `json:"discovery_method,omitempty" yaml:"discovery_method,omitempty"`
	RelevanceIndicators []string        `json:"relevance_indicators,omitempty" yaml:"relevance_indicators,omitempty"`
}

// ExecutionResult is the outcome of running one repository in the sandbox.
// Immutable once returned by the runner.
type ExecutionResult struct {
	Success    bool          `json:"success" yaml:"success"`
	Repository RepositoryRef `json:"repository" yaml:"repository"`

	Analysis      ProjectAnalysis `json:"analysis" yaml:"analysis"`
	InstallOutput string          `json:"install_output,omitempty" yaml:"install_output,omitempty"`
	RunOutput     string          `json:"run_output,omitempty" yaml:"run_output,omitempty"`

	Insights      ExecutionInsights `json:"insights" yaml:"insights"`
	Functionality Functionality     `json:"functionality" yaml:"functionality"`
	Learnings     []string          `json:"learnings,omitempty" yaml:"learnings,omitempty"`

	// Summary is a one-paragraph human-readable account of the execution.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Skipped is set when the repository failed before or during execution
	// and was recorded rather than aborting the batch.
	Skipped bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ExecutionAnalysis aggregates a whole execution batch.
type ExecutionAnalysis struct {
	TotalRepositories      int            `json:"total_repositories" yaml:"total_repositories"`
	SuccessfulExecutions   int            `json:"successful_executions" yaml:"successful_executions"`
	SuccessRate            float64        `json:"success_rate" yaml:"success_rate"`
	ProjectTypes           []string       `json:"project_types,omitempty" yaml:"project_types,omitempty"`
	Categories             []string       `json:"categories,omitempty" yaml:"categories,omitempty"`
	Technologies           []string       `json:"technologies,omitempty" yaml:"technologies,omitempty"`
	HasRunnableCode        bool           `json:"has_runnable_code" yaml:"has_runnable_code"`
	ComplexityDistribution map[string]int `json:"complexity_distribution,omitempty" yaml:"complexity_distribution,omitempty"`
}

// ExecutionOutput is the runner's result.
type ExecutionOutput struct {
	Results      []ExecutionResult `json:"results" yaml:"results"`
	SuccessCount int               `json:"success_count" yaml:"success_count"`
	Analysis     ExecutionAnalysis `json:"analysis" yaml:"analysis"`
}
