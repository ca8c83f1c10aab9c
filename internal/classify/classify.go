// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify analyzes bookmarked tweet text for code-hosting
// references. Extraction and scoring are deterministic; a generative model,
// when configured, refines only the content type and context.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mpetrov/bookmark-engine/internal/llm"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

const contentTypeSchema = `{
	"type": "object",
	"required": ["type", "context"],
	"properties": {
		"type": {
			"type": "string",
			"enum": ["project_announcement", "tutorial", "code_sharing", "discussion",
				"showcase", "problem_solving", "resource_sharing", "other"]
		},
		"context": {"type": "string"}
	}
}`

const contentTypePrompt = `Analyze this tweet about software development and return a JSON response with:
1. "type": The type of tweet (project_announcement, tutorial, code_sharing, discussion, showcase, problem_solving, resource_sharing, other)
2. "context": Brief description of what the tweet is about

Tweet text: %q

Return only valid JSON.`

// Classifier is the first pipeline stage.
type Classifier struct {
	completer llm.Completer
	log       zerolog.Logger
}

// New creates a classifier. completer may be nil, in which case content type
// and context come from the keyword fallback.
func New(completer llm.Completer, log zerolog.Logger) *Classifier {
	return &Classifier{completer: completer, log: log}
}

// Classify analyzes a bookmark's text. It fails only when the text is empty;
// a tweet with no references at all still yields a valid low-relevance
// analysis so the orchestrator can branch on the score.
func (c *Classifier) Classify(ctx context.Context, bm types.Bookmark) (types.ContentAnalysis, error) {
	if bm.Text == "" {
		return types.ContentAnalysis{}, fmt.Errorf("no tweet text provided")
	}

	directURLs := extractDirectURLs(bm.Text)
	mentions := extractMentions(bm.Text)
	keywords := extractKeywords(bm.Text)
	score := relevanceScore(bm.Text, directURLs, mentions, keywords)

	contentType, contextLine := c.contentType(ctx, bm.Text)

	analysis := types.ContentAnalysis{
		Text:              bm.Text,
		Author:            bm.Author,
		DirectURLs:        directURLs,
		Mentions:          mentions,
		ContentType:       contentType,
		Context:           contextLine,
		Keywords:          keywords,
		AuthorHandle:      inferAuthorHandle(bm.Author, bm.Text),
		RelevanceScore:    score,
		RequiresDiscovery: score > 0.3 && len(directURLs) == 0,
		Priority:          priorityFor(score, directURLs),
	}

	c.log.Debug().
		Str("bookmark", bm.ID).
		Int("urls", len(directURLs)).
		Int("mentions", len(mentions)).
		Float64("relevance", score).
		Msg("content analysis complete")

	return analysis, nil
}

// contentType asks the model for a classification and falls back to keyword
// buckets on any error.
func (c *Classifier) contentType(ctx context.Context, text string) (types.ContentType, string) {
	fallback := fallbackContentType(text)
	fallbackContext := fmt.Sprintf("Tweet appears to be about %s", humanize(fallback))

	if c.completer == nil {
		return fallback, fallbackContext
	}

	doc, err := c.completer.CompleteJSON(ctx, fmt.Sprintf(contentTypePrompt, text))
	if err != nil {
		c.log.Warn().Err(err).Msg("model content analysis failed, using fallback")
		return fallback, fallbackContext
	}

	var out struct {
		Type    string `json:"type"`
		Context string `json:"context"`
	}
	if err := llm.Unmarshal(contentTypeSchema, doc, &out); err != nil {
		c.log.Warn().Err(err).Msg("model content analysis invalid, using fallback")
		return fallback, fallbackContext
	}

	return types.ContentType(out.Type), out.Context
}

func humanize(ct types.ContentType) string {
	return strings.ReplaceAll(string(ct), "_", " ")
}
