// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ContentType classifies what kind of post a bookmark is.
type ContentType string

const (
	ContentAnnouncement ContentType = "project_announcement"
	ContentTutorial     ContentType = "tutorial"
	ContentCodeSharing  ContentType = "code_sharing"
	ContentShowcase     ContentType = "showcase"
	ContentDiscussion   ContentType = "discussion"
	ContentOther        ContentType = "other"
)

// Priority is the processing priority derived from relevance evidence.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// MentionType distinguishes owner/repo mentions from bare user mentions.
type MentionType string

const (
	MentionRepository MentionType = "repository"
	MentionUser       MentionType = "user"
)

// Mention is a repository or user reference extracted from tweet text.
type Mention struct {
	Type     MentionType `json:"type" yaml:"type"`
	Owner    string      `json:"owner,omitempty" yaml:"owner,omitempty"`
	Repo     string      `json:"repo,omitempty" yaml:"repo,omitempty"`
	Username string      `json:"username,omitempty" yaml:"username,omitempty"`
}

// FullName returns "owner/repo" for repository mentions, "" otherwise.
func (m Mention) FullName() string {
	if m.Type != MentionRepository {
		return ""
	}
	return m.Owner + "/" + m.Repo
}

// ContentAnalysis is the classifier's output: every downstream stage reads
// from this fixed schema, whether the LLM or the keyword fallback produced
// the classification.
type ContentAnalysis struct {
	// Text and Author echo the input so later stages need no bookmark access.
	Text   string `json:"text" yaml:"text"`
	Author Author `json:"author" yaml:"author"`

	// DirectURLs are normalized repository URLs found verbatim in the text.
	DirectURLs []string `json:"direct_urls" yaml:"direct_urls"`

	// Mentions are owner/repo and @user references.
	Mentions []Mention `json:"mentions" yaml:"mentions"`

	ContentType ContentType `json:"content_type" yaml:"content_type"`

	// Context is a one-line description of what the tweet is about.
	Context string `json:"context,omitempty" yaml:"context,omitempty"`

	// Keywords are code-related terms found in the text, in table order.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// AuthorHandle is the author's inferred code-hosting username, or "".
	AuthorHandle string `json:"author_handle,omitempty" yaml:"author_handle,omitempty"`

	// RelevanceScore is in [0,1] and rises monotonically with evidence
	// strength: direct URL > mention > keyword.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// RequiresDiscovery is true when relevance was inferred without a direct
	// URL, so discovery work is still needed.
	RequiresDiscovery bool `json:"requires_discovery" yaml:"requires_discovery"`

	Priority Priority `json:"priority" yaml:"priority"`
}
