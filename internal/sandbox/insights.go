// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sandbox

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mpetrov/bookmark-engine/internal/llm"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

const functionalitySchema = `{
	"type": "object",
	"required": ["primary_function", "category", "complexity_level"],
	"properties": {
		"primary_function": {"type": "string"},
		"category": {"type": "string"},
		"use_cases": {"type": "array", "items": {"type": "string"}},
		"notable_features": {"type": "array", "items": {"type": "string"}},
		"complexity_level": {"type": "string", "enum": ["beginner", "intermediate", "advanced"]}
	}
}`

const functionalityPrompt = `Analyze this code execution and determine what the program does:

Repository: %s
Description: %s
Language: %s
Dependencies: %s

Execution Output:
%s

Return JSON with:
1. "primary_function": What the main purpose of the code is
2. "category": Type of application (cli_tool, web_app, library, script, game, etc.)
3. "use_cases": List of potential use cases
4. "notable_features": Interesting aspects discovered
5. "complexity_level": beginner/intermediate/advanced

Return only valid JSON.`

// extractInsights reads success signals out of the install and run output.
func extractInsights(repo types.RepositoryCandidate, report RunReport) types.ExecutionInsights {
	installLower := strings.ToLower(report.InstallOutput)
	runLower := strings.ToLower(report.RunOutput)
	runTrimmed := strings.TrimSpace(report.RunOutput)

	insights := types.ExecutionInsights{
		ProjectType:      report.Analysis.ProjectType,
		HasDependencies:  len(report.Analysis.Dependencies) > 0,
		DependencyCount:  len(report.Analysis.Dependencies),
		InstallSucceeded: strings.Contains(installLower, "successfully") || strings.Contains(installLower, "exit code: 0"),
		RunSucceeded:     strings.Contains(runLower, "exit code: 0") || runTrimmed != "",
		HasOutput:        runTrimmed != "",
	}

	if insights.DependencyCount > 10 {
		insights.ComplexityIndicators = append(insights.ComplexityIndicators, "many_dependencies")
	}
	if repo.Size > 5000 {
		insights.ComplexityIndicators = append(insights.ComplexityIndicators, "large_codebase")
	}

	if report.Analysis.ProjectType != "" {
		insights.TechnologyStack = append(insights.TechnologyStack, report.Analysis.ProjectType)
	}
	deps := report.Analysis.Dependencies
	if len(deps) > 5 {
		deps = deps[:5]
	}
	insights.TechnologyStack = append(insights.TechnologyStack, deps...)

	return insights
}

// functionality classifies what the program does, via the model when
// available and the description buckets otherwise.
func (r *Runner) functionality(ctx context.Context, repo types.RepositoryCandidate, report RunReport) types.Functionality {
	fallback := fallbackFunctionality(repo, report.Analysis)
	if r.completer == nil {
		return fallback
	}

	deps := report.Analysis.Dependencies
	if len(deps) > 5 {
		deps = deps[:5]
	}
	runOutput := report.RunOutput
	if len(runOutput) > 1000 {
		runOutput = runOutput[:1000]
	}

	prompt := fmt.Sprintf(functionalityPrompt,
		repo.Name, repo.Description, report.Analysis.ProjectType,
		strings.Join(deps, ", "), runOutput)

	doc, err := r.completer.CompleteJSON(ctx, prompt)
	if err != nil {
		r.log.Warn().Err(err).Msg("model functionality analysis failed, using fallback")
		return fallback
	}

	var out types.Functionality
	if err := llm.Unmarshal(functionalitySchema, doc, &out); err != nil {
		r.log.Warn().Err(err).Msg("model functionality analysis invalid, using fallback")
		return fallback
	}
	return out
}

// fallbackFunctionality buckets the repository by its description.
func fallbackFunctionality(repo types.RepositoryCandidate, analysis types.ProjectAnalysis) types.Functionality {
	desc := strings.ToLower(repo.Description)
	projectType := analysis.ProjectType
	if projectType == "" {
		projectType = "unknown"
	}

	var category string
	switch {
	case containsAny(desc, "api", "server", "web"):
		category = "web_app"
	case containsAny(desc, "cli", "command", "tool"):
		category = "cli_tool"
	case containsAny(desc, "library", "package", "module"):
		category = "library"
	case projectType == "python" && strings.Contains(desc, "script"):
		category = "script"
	default:
		category = "application"
	}

	primary := repo.Description
	if primary == "" {
		primary = "Code execution and analysis"
	}

	return types.Functionality{
		PrimaryFunction: primary,
		Category:        category,
		UseCases:        []string{fmt.Sprintf("Learning %s development", projectType), "Code reference"},
		NotableFeatures: []string{fmt.Sprintf("Written in %s", projectType)},
		ComplexityLevel: "intermediate",
	}
}

// extractLearnings produces the bullet points the synthesis stage folds into
// the note body.
func extractLearnings(repo types.RepositoryCandidate, report RunReport) []string {
	var learnings []string

	if pt := report.Analysis.ProjectType; pt != "" && pt != "unknown" {
		learnings = append(learnings, fmt.Sprintf("Project uses %s", pt))
	}

	if deps := report.Analysis.Dependencies; len(deps) > 0 {
		learnings = append(learnings, fmt.Sprintf("Uses %d dependencies including %s", len(deps), deps[0]))
	}

	if report.InstallOutput != "" {
		learnings = append(learnings, "Has automated dependency installation")
	}
	if report.RunOutput != "" {
		learnings = append(learnings, "Code executes successfully")
	}

	if repo.Stars > 100 {
		learnings = append(learnings, fmt.Sprintf("Popular project with %d stars", repo.Stars))
	}

	return learnings
}

// summarize writes the one-paragraph execution account.
func summarize(repo types.RepositoryCandidate, analysis types.ProjectAnalysis, insights types.ExecutionInsights, functionality types.Functionality) string {
	projectType := analysis.ProjectType
	if projectType == "" {
		projectType = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s is a %s %s. %s", repo.Name, projectType, functionality.Category, functionality.PrimaryFunction)

	if insights.RunSucceeded {
		b.WriteString(" The code executed successfully")
		if insights.HasOutput {
			b.WriteString(" and produced output")
		}
		b.WriteString(".")
	} else {
		b.WriteString(" There were issues during execution.")
	}

	if insights.DependencyCount > 0 {
		fmt.Fprintf(&b, " It has %d dependencies.", insights.DependencyCount)
	}

	return b.String()
}

// aggregate rolls a batch of results into one analysis.
func aggregate(results []types.ExecutionResult) types.ExecutionAnalysis {
	analysis := types.ExecutionAnalysis{
		TotalRepositories:      len(results),
		ComplexityDistribution: map[string]int{},
	}

	projectTypes := map[string]bool{}
	categories := map[string]bool{}
	technologies := map[string]bool{}

	for _, res := range results {
		if !res.Success {
			continue
		}
		analysis.SuccessfulExecutions++

		if pt := res.Insights.ProjectType; pt != "" {
			projectTypes[pt] = true
		}
		if cat := res.Functionality.Category; cat != "" {
			categories[cat] = true
		}
		for _, tech := range res.Insights.TechnologyStack {
			technologies[tech] = true
		}
		if res.Insights.RunSucceeded {
			analysis.HasRunnableCode = true
		}

		level := res.Functionality.ComplexityLevel
		if level == "" {
			level = "unknown"
		}
		analysis.ComplexityDistribution[level]++
	}

	if len(results) > 0 {
		analysis.SuccessRate = float64(analysis.SuccessfulExecutions) / float64(len(results))
	}

	analysis.ProjectTypes = sortedKeys(projectTypes)
	analysis.Categories = sortedKeys(categories)
	analysis.Technologies = sortedKeys(technologies)

	return analysis
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
