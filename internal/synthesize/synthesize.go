// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize folds the classification, discovery, and execution
// results into one note: title, narrative, actionable items, and tags.
package synthesize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/mpetrov/bookmark-engine/internal/llm"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

const contentSchema = `{
	"type": "object",
	"required": ["content"],
	"properties": {
		"content": {"type": "string", "minLength": 1}
	}
}`

const contentPrompt = `Create a %s synthesis of this tweet and its associated GitHub repositories:

TWEET INFORMATION:
Author: @%s (%s)
Content: %q
Type: %s
Keywords: %s

GITHUB ANALYSIS:
Repositories found: %d
Successfully executed: %d

TOP REPOSITORIES:
%s

EXECUTION INSIGHTS:
Technologies: %s
Success rate: %.0f%%

Create a comprehensive synthesis that explains what the tweet was about,
describes the discovered repositories and their functionality, and highlights
key technical insights from code execution.

Length: %s

Return JSON with a single "content" field containing the synthesis text.`

// repoHighlight pairs a top-ranked repository with its execution outcome.
type repoHighlight struct {
	repo      types.RepositoryCandidate
	executed  bool
	runOK     bool
	summary   string
	primaryFn string
}

// Synthesizer is the final pipeline stage.
type Synthesizer struct {
	completer llm.Completer
	log       zerolog.Logger

	// now is replaced in tests to pin metadata timestamps.
	now func() time.Time
}

// New creates a synthesizer. completer may be nil, in which case the
// narrative comes from the deterministic template.
func New(completer llm.Completer, log zerolog.Logger) *Synthesizer {
	return &Synthesizer{completer: completer, log: log, now: time.Now}
}

// Synthesize produces the final note. It fails only when no bookmark is
// provided; empty discovery and execution data still synthesize.
func (s *Synthesizer) Synthesize(ctx context.Context, bm types.Bookmark, analysis types.ContentAnalysis, discovery types.DiscoveryOutput, execution types.ExecutionOutput, style types.SynthesisStyle) (types.SynthesisOutput, error) {
	if bm.ID == "" {
		return types.SynthesisOutput{}, fmt.Errorf("no bookmark provided")
	}

	highlights := topHighlights(discovery, execution)
	learnings := collectLearnings(execution)

	out := types.SynthesisOutput{
		Title:           title(bm, analysis, discovery, highlights),
		Content:         s.content(ctx, bm, analysis, discovery, execution, highlights, style),
		ActionableItems: actionableItems(bm, analysis, discovery, execution, highlights, learnings),
		Tags:            tags(analysis, discovery, execution),
		Metadata: types.SynthesisMetadata{
			BookmarkID:           bm.ID,
			ProcessedAt:          s.now().UTC(),
			Style:                style,
			RepositoriesFound:    discovery.TotalFound,
			ExecutionSuccessRate: execution.Analysis.SuccessRate,
			RelevanceScore:       analysis.RelevanceScore,
		},
	}

	s.log.Debug().
		Str("bookmark", bm.ID).
		Int("actionable", len(out.ActionableItems)).
		Int("tags", len(out.Tags)).
		Msg("content synthesis complete")

	return out, nil
}

// topHighlights takes the three strongest candidates and attaches their
// execution results by full name.
func topHighlights(discovery types.DiscoveryOutput, execution types.ExecutionOutput) []repoHighlight {
	repos := discovery.Repositories
	if len(repos) > 3 {
		repos = repos[:3]
	}

	highlights := make([]repoHighlight, 0, len(repos))
	for _, repo := range repos {
		h := repoHighlight{repo: repo}
		for _, res := range execution.Results {
			if res.Repository.FullName != repo.FullName {
				continue
			}
			h.executed = res.Success
			h.runOK = res.Insights.RunSucceeded
			h.summary = res.Summary
			h.primaryFn = res.Functionality.PrimaryFunction
			break
		}
		highlights = append(highlights, h)
	}
	return highlights
}

// title builds the note title: top repository name first, then the leading
// keyword, then the bare content-type form.
func title(bm types.Bookmark, analysis types.ContentAnalysis, discovery types.DiscoveryOutput, highlights []repoHighlight) string {
	author := bm.Author.Name
	if author == "" {
		author = "Unknown"
	}
	contentType := titleCase(strings.ReplaceAll(string(analysis.ContentType), "_", " "))

	if len(highlights) > 0 {
		return fmt.Sprintf("%s by %s: %s", contentType, author, highlights[0].repo.Name)
	}
	if len(analysis.Keywords) > 0 {
		return fmt.Sprintf("%s by %s: %s Project", contentType, author, titleCase(analysis.Keywords[0]))
	}
	return fmt.Sprintf("%s by %s", contentType, author)
}

// content produces the narrative, via the model when available.
func (s *Synthesizer) content(ctx context.Context, bm types.Bookmark, analysis types.ContentAnalysis, discovery types.DiscoveryOutput, execution types.ExecutionOutput, highlights []repoHighlight, style types.SynthesisStyle) string {
	fallback := basicContent(bm, analysis, discovery, execution, highlights)
	if s.completer == nil {
		return fallback
	}

	var repoLines []string
	for _, h := range highlights {
		line := fmt.Sprintf("- %s: %s", h.repo.FullName, orDefault(h.repo.Description, "No description"))
		if h.executed {
			line += fmt.Sprintf(" (Executed: %s)", orDefault(h.summary, "No summary"))
		}
		repoLines = append(repoLines, line)
	}

	var length string
	switch style {
	case types.StyleDetailed:
		length = "Detailed (3-4 paragraphs)"
	case types.StyleSummary:
		length = "Summary (1-2 paragraphs)"
	default:
		length = "Actionable (bullet points and next steps)"
	}

	prompt := fmt.Sprintf(contentPrompt,
		style, bm.Author.Username, bm.Author.Name, bm.Text,
		analysis.ContentType, strings.Join(analysis.Keywords, ", "),
		discovery.TotalFound, execution.SuccessCount,
		strings.Join(repoLines, "\n"),
		strings.Join(execution.Analysis.Technologies, ", "),
		execution.Analysis.SuccessRate*100,
		length)

	doc, err := s.completer.CompleteJSON(ctx, prompt)
	if err != nil {
		s.log.Warn().Err(err).Msg("model synthesis failed, using template")
		return fallback
	}

	var out struct {
		Content string `json:"content"`
	}
	if err := llm.Unmarshal(contentSchema, doc, &out); err != nil {
		s.log.Warn().Err(err).Msg("model synthesis invalid, using template")
		return fallback
	}
	return out.Content
}

// basicContent is the deterministic narrative template.
func basicContent(bm types.Bookmark, analysis types.ContentAnalysis, discovery types.DiscoveryOutput, execution types.ExecutionOutput, highlights []repoHighlight) string {
	var parts []string

	contentType := strings.ReplaceAll(string(analysis.ContentType), "_", " ")
	parts = append(parts, fmt.Sprintf("@%s (%s) shared a %s tweet about: %s...",
		bm.Author.Username, orDefault(bm.Author.Name, "Unknown"), contentType, truncate(bm.Text, 100)))

	if discovery.TotalFound > 0 {
		parts = append(parts, fmt.Sprintf("Analysis discovered %d related GitHub repositories.", discovery.TotalFound))
		if len(highlights) > 0 {
			parts = append(parts, fmt.Sprintf("The primary repository '%s' %s.",
				highlights[0].repo.Name, highlights[0].repo.Description))
		}
	}

	if execution.SuccessCount > 0 {
		techs := execution.Analysis.Technologies
		if len(techs) > 3 {
			techs = techs[:3]
		}
		parts = append(parts, fmt.Sprintf("Code execution revealed projects using %s.", strings.Join(techs, ", ")))
	}

	return strings.Join(parts, " ")
}

// actionableItems builds at most six follow-ups, strongest evidence first.
func actionableItems(bm types.Bookmark, analysis types.ContentAnalysis, discovery types.DiscoveryOutput, execution types.ExecutionOutput, highlights []repoHighlight, learnings []string) []string {
	var items []string

	for _, h := range highlights {
		if h.executed && h.runOK {
			items = append(items, fmt.Sprintf("Explore %s - %s",
				h.repo.Name, orDefault(h.primaryFn, "functional code")))
		} else if h.repo.Confidence > 0.8 {
			items = append(items, fmt.Sprintf("Investigate %s - high-confidence discovery", h.repo.Name))
		}
	}

	count := 0
	for _, tech := range execution.Analysis.Technologies {
		if tech == "" || tech == "unknown" || count == 2 {
			continue
		}
		items = append(items, fmt.Sprintf("Learn more about %s", tech))
		count++
	}

	if execution.SuccessCount > 1 {
		items = append(items, "Compare implementation patterns across discovered repositories")
	}

	if bm.Author.Username != "" && discovery.TotalFound > 0 {
		contentType := strings.ReplaceAll(string(analysis.ContentType), "_", " ")
		items = append(items, fmt.Sprintf("Follow @%s for more %s content", bm.Author.Username, contentType))
	}

	if len(learnings) > 0 {
		items = append(items, "Document learnings for future reference")
	}

	if len(items) > 6 {
		items = items[:6]
	}
	return items
}

// tags builds the sorted, capped tag set.
func tags(analysis types.ContentAnalysis, discovery types.DiscoveryOutput, execution types.ExecutionOutput) []string {
	set := map[string]bool{
		"tweetsmash": true,
		"bookmark":   true,
	}

	if analysis.ContentType != "" {
		set[string(analysis.ContentType)] = true
	}

	keywords := analysis.Keywords
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	for _, kw := range keywords {
		set[kw] = true
	}

	if discovery.TotalFound > 0 {
		set["github"] = true
		repos := discovery.Repositories
		if len(repos) > 3 {
			repos = repos[:3]
		}
		for _, repo := range repos {
			if repo.Language != "" {
				set[strings.ToLower(repo.Language)] = true
			}
		}
	}

	for _, pt := range execution.Analysis.ProjectTypes {
		set[pt] = true
	}
	for _, cat := range execution.Analysis.Categories {
		set[cat] = true
	}

	if execution.Analysis.HasRunnableCode {
		set["executable"] = true
	}
	if execution.Analysis.SuccessRate > 0.8 {
		set["high_quality"] = true
	}

	priority := analysis.Priority
	if priority == "" {
		priority = types.PriorityLow
	}
	set["priority_"+string(priority)] = true

	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	if len(out) > 15 {
		out = out[:15]
	}
	return out
}

func collectLearnings(execution types.ExecutionOutput) []string {
	var learnings []string
	for _, res := range execution.Results {
		if res.Success {
			learnings = append(learnings, res.Learnings...)
		}
	}
	return learnings
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// truncate caps s at n characters without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
