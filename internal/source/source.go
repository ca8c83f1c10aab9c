// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source fetches bookmarks from the bookmark service API.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/mpetrov/bookmark-engine/internal/httputil"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

// BaseURL is the API endpoint. Tests point it at an httptest server.
var BaseURL = "https://api.tweetsmash.com"

// maxPageSize is the API's listing cap.
const maxPageSize = 100

var urlRe = regexp.MustCompile(`https?://(?:[-\w.]|(?:%[\da-fA-F]{2}))+[/\w\-._~:/?#[\]@!$&'()*+,;=.]*`)

// BookmarkPage is one page of a bookmark listing.
type BookmarkPage struct {
	Bookmarks  []types.Bookmark
	NextCursor string
	HasMore    bool
}

// Client talks to the bookmark service.
type Client struct {
	http   *http.Client
	apiKey string
}

// NewClient builds a client from the source configuration.
func NewClient(cfg types.SourceConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		apiKey: cfg.APIKey,
	}
}

// wireBookmark is the API's bookmark object.
type wireBookmark struct {
	ID           string `json:"id"`
	TweetDetails struct {
		Text     string `json:"text"`
		URL      string `json:"url"`
		PostedAt string `json:"posted_at"`
	} `json:"tweet_details"`
	AuthorDetails struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"author_details"`
}

func (w wireBookmark) toBookmark() types.Bookmark {
	bm := types.Bookmark{
		ID:   w.ID,
		Text: w.TweetDetails.Text,
		Link: w.TweetDetails.URL,
		Author: types.Author{
			Name:     w.AuthorDetails.Name,
			Username: w.AuthorDetails.Username,
		},
	}
	if t, err := time.Parse(time.RFC3339, w.TweetDetails.PostedAt); err == nil {
		bm.PostedAt = t
	}
	return bm
}

// FetchBookmarks lists recent bookmarks. limit is capped at the API maximum;
// cursor continues a previous page.
func (c *Client) FetchBookmarks(ctx context.Context, limit int, cursor string) (BookmarkPage, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	u := fmt.Sprintf("%s/bookmarks?limit=%s", BaseURL, strconv.Itoa(limit))
	if cursor != "" {
		u += "&cursor=" + url.QueryEscape(cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return BookmarkPage{}, err
	}
	c.setHeaders(req)

	var out struct {
		Bookmarks  []wireBookmark `json:"bookmarks"`
		NextCursor string         `json:"next_cursor"`
		HasMore    bool           `json:"has_more"`
	}
	if err := httputil.DoJSON(ctx, c.http, req, 0, &out); err != nil {
		return BookmarkPage{}, fmt.Errorf("fetching bookmarks: %w", err)
	}

	page := BookmarkPage{
		Bookmarks:  make([]types.Bookmark, 0, len(out.Bookmarks)),
		NextCursor: out.NextCursor,
		HasMore:    out.HasMore,
	}
	for _, wb := range out.Bookmarks {
		page.Bookmarks = append(page.Bookmarks, wb.toBookmark())
	}
	return page, nil
}

// Bookmark fetches one bookmark by id.
func (c *Client) Bookmark(ctx context.Context, id string) (types.Bookmark, error) {
	u := fmt.Sprintf("%s/bookmarks/%s", BaseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return types.Bookmark{}, err
	}
	c.setHeaders(req)

	var out wireBookmark
	if err := httputil.DoJSON(ctx, c.http, req, 0, &out); err != nil {
		if httputil.IsStatus(err, http.StatusNotFound) {
			return types.Bookmark{}, fmt.Errorf("bookmark %s not found", id)
		}
		return types.Bookmark{}, fmt.Errorf("fetching bookmark %s: %w", id, err)
	}
	return out.toBookmark(), nil
}

// SetupWebhook registers a delivery URL for bookmark events.
func (c *Client) SetupWebhook(ctx context.Context, webhookURL string) (string, error) {
	payload := map[string]any{
		"url":    webhookURL,
		"events": []string{"bookmark.created", "bookmark.updated"},
		"active": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, BaseURL+"/webhooks", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		ID string `json:"id"`
	}
	if err := httputil.DoJSON(ctx, c.http, req, 0, &out); err != nil {
		return "", fmt.Errorf("configuring webhook: %w", err)
	}
	return out.ID, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// ExtractURLs pulls URLs out of tweet text, deduplicated in order of first
// appearance.
func ExtractURLs(text string) []string {
	matches := urlRe.FindAllString(text, -1)

	seen := make(map[string]bool, len(matches))
	var urls []string
	for _, u := range matches {
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}
