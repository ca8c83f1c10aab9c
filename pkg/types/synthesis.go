// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SynthesisStyle controls the narrative shape, not the data gathered.
type SynthesisStyle string

const (
	StyleDetailed   SynthesisStyle = "detailed"
	StyleSummary    SynthesisStyle = "summary"
	StyleActionable SynthesisStyle = "actionable"
)

// SynthesisMetadata travels with the synthesized note.
type SynthesisMetadata struct {
	BookmarkID           string         `json:"bookmark_id" yaml:"bookmark_id"`
	ProcessedAt          time.Time      `json:"processed_at" yaml:"processed_at"`
	Style                SynthesisStyle `json:"style" yaml:"style"`
	RepositoriesFound    int            `json:"repositories_found" yaml:"repositories_found"`
	ExecutionSuccessRate float64        `json:"execution_success_rate" yaml:"execution_success_rate"`
	RelevanceScore       float64        `json:"relevance_score" yaml:"relevance_score"`
}

// SynthesisOutput is the terminal artifact of the pipeline: produced exactly
// once per successful run, ready for the notes database.
type SynthesisOutput struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`

	// ActionableItems are capped at 6, in fixed precedence order.
	ActionableItems []string `json:"actionable_items,omitempty" yaml:"actionable_items,omitempty"`

	// Tags are deduplicated, sorted, and capped at 15.
	Tags []string `json:"tags" yaml:"tags"`

	Metadata SynthesisMetadata `json:"metadata" yaml:"metadata"`
}
