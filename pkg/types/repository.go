// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DiscoveryMethod records how a repository candidate was found.
type DiscoveryMethod string

const (
	DiscoveryDirect     DiscoveryMethod = "direct_validation"
	DiscoveryUserSearch DiscoveryMethod = "user_repository_search"
	DiscoveryAuthor     DiscoveryMethod = "author_personal_project"
	DiscoveryInference  DiscoveryMethod = "llm_inference"
)

// RepositoryCandidate is a validated repository enriched with confidence and
// complexity scores. Rank is assigned as the resolver's final step; the
// record is never mutated afterwards.
type RepositoryCandidate struct {
	Owner       string `json:"owner" yaml:"owner"`
	Name        string `json:"name" yaml:"name"`
	FullName    string `json:"full_name" yaml:"full_name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	HTMLURL     string `json:"html_url" yaml:"html_url"`

	Stars int `json:"stars" yaml:"stars"`
	Forks int `json:"forks" yaml:"forks"`

	// Size is the repository size in kilobytes, as reported by the host.
	Size int `json:"size" yaml:"size"`

	PushedAt  time.Time `json:"pushed_at" yaml:"pushed_at"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	HasWiki   bool `json:"has_wiki" yaml:"has_wiki"`
	HasIssues bool `json:"has_issues" yaml:"has_issues"`

	// Active means the repository was pushed to within the trailing 180 days.
	Active bool `json:"active" yaml:"active"`

	// Confidence is in [0,1]: 0.9 for direct validation, computed relevance
	// for search hits, with the author boost applied on top.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Complexity is in [0,1] and drives execution selection.
	Complexity float64 `json:"complexity" yaml:"complexity"`

	DiscoveryMethod     DiscoveryMethod `json:"discovery_method" yaml:"discovery_method"`
	RelevanceIndicators []string        `json:"relevance_indicators,omitempty" yaml:"relevance_indicators,omitempty"`

	// Rank starts at 1 for the strongest candidate.
	Rank         int     `json:"rank" yaml:"rank"`
	RankingScore float64 `json:"ranking_score" yaml:"ranking_score"`
}

// DiscoveryOutput is the resolver's result.
type DiscoveryOutput struct {
	Repositories []RepositoryCandidate `json:"repositories" yaml:"repositories"`
	TotalFound   int                   `json:"total_found" yaml:"total_found"`

	// HasHighConfidence is true when any candidate scores above 0.8.
	HasHighConfidence bool `json:"has_high_confidence" yaml:"has_high_confidence"`
}
