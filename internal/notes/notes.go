// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notes persists synthesized bookmarks as pages in a notes database.
package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mpetrov/bookmark-engine/internal/httputil"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

// BaseURL is the API endpoint. Tests point it at an httptest server.
var BaseURL = "https://api.notion.com"

const (
	apiVersion = "2022-06-28"

	// Property limits imposed by the notes API.
	maxTitleLen    = 100
	maxTags        = 10
	maxBlockLen    = 2000
	maxParagraphs  = 10
	sourceProperty = "TweetSmash"
)

// Page identifies a created page.
type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SaveRequest is the content of one page.
type SaveRequest struct {
	Title   string
	URL     string
	Content string
	Tags    []string
}

// Client talks to the notes API.
type Client struct {
	http       *http.Client
	token      string
	databaseID string

	// now is replaced in tests to pin the Created property.
	now func() time.Time
}

// NewClient builds a client from the notes configuration.
func NewClient(cfg types.NotesConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		now:        time.Now,
	}
}

// Save creates one page: title, URL, tags, and the narrative split into
// paragraph blocks. The page links back to the original post with a bookmark
// block.
func (c *Client) Save(ctx context.Context, req SaveRequest) (Page, error) {
	if c.token == "" {
		return Page{}, fmt.Errorf("notes token not configured")
	}
	if c.databaseID == "" {
		return Page{}, fmt.Errorf("notes database id not configured")
	}

	payload := map[string]any{
		"parent":     map[string]any{"database_id": c.databaseID},
		"properties": c.properties(req),
		"children":   children(req),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Page{}, fmt.Errorf("encoding page: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, BaseURL+"/v1/pages", bytes.NewReader(body))
	if err != nil {
		return Page{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Notion-Version", apiVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	var page Page
	if err := httputil.DoJSON(ctx, c.http, httpReq, 0, &page); err != nil {
		return Page{}, fmt.Errorf("creating page: %w", err)
	}
	return page, nil
}

func (c *Client) properties(req SaveRequest) map[string]any {
	title := truncateRunes(req.Title, maxTitleLen)

	props := map[string]any{
		"Name": map[string]any{
			"title": []any{textBlock(title)},
		},
		"URL": map[string]any{
			"url": req.URL,
		},
		"Created": map[string]any{
			"date": map[string]any{"start": c.now().UTC().Format(time.RFC3339)},
		},
		"Source": map[string]any{
			"select": map[string]any{"name": sourceProperty},
		},
	}

	tags := req.Tags
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	if len(tags) > 0 {
		options := make([]any, 0, len(tags))
		for _, tag := range tags {
			options = append(options, map[string]any{"name": tag})
		}
		props["Tags"] = map[string]any{"multi_select": options}
	}
	return props
}

func children(req SaveRequest) []any {
	blocks := []any{
		map[string]any{
			"object":   "block",
			"type":     "bookmark",
			"bookmark": map[string]any{"url": req.URL},
		},
	}

	chunks := splitContent(req.Content, maxBlockLen)
	if len(chunks) > maxParagraphs {
		chunks = chunks[:maxParagraphs]
	}
	for _, chunk := range chunks {
		blocks = append(blocks, map[string]any{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]any{
				"rich_text": []any{textBlock(chunk)},
			},
		})
	}
	return blocks
}

// truncateRunes caps s at n characters without splitting a rune. Titles
// routinely carry emoji from tweet text.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func textBlock(content string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": map[string]any{"content": content},
	}
}

// splitContent breaks the narrative into block-sized chunks on line
// boundaries.
func splitContent(content string, maxLen int) []string {
	if content == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder

	for _, line := range strings.Split(content, "\n") {
		if current.Len()+len(line)+1 > maxLen && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}
