// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Author identifies who posted a bookmarked tweet.
type Author struct {
	Name     string `json:"name" yaml:"name"`
	Username string `json:"username" yaml:"username"`
}

// Bookmark is a saved social-media post as delivered by the bookmark source.
// It is immutable input: the pipeline never mutates it.
type Bookmark struct {
	// ID is the source's post identifier.
	ID string `json:"id" yaml:"id"`

	// Text is the full tweet text.
	Text string `json:"text" yaml:"text"`

	// Author is the posting account.
	Author Author `json:"author" yaml:"author"`

	// PostedAt is when the tweet was posted.
	PostedAt time.Time `json:"posted_at" yaml:"posted_at"`

	// Link is the canonical URL of the post.
	Link string `json:"link" yaml:"link"`
}
