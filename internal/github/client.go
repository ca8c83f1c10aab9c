// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package github is a minimal client for the code-hosting REST API, covering
// the two lookups repository resolution needs.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mpetrov/bookmark-engine/internal/httputil"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

// BaseURL is the API endpoint. Tests point it at an httptest server.
var BaseURL = "https://api.github.com"

// Repo is the subset of the API's repository object the resolver reads.
type Repo struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	HTMLURL     string `json:"html_url"`

	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`

	Stars int `json:"stargazers_count"`
	Forks int `json:"forks_count"`
	Size  int `json:"size"`

	PushedAt  time.Time `json:"pushed_at"`
	CreatedAt time.Time `json:"created_at"`

	HasWiki   bool `json:"has_wiki"`
	HasIssues bool `json:"has_issues"`
}

// Client talks to the hosting API. A token raises rate limits but is not
// required.
type Client struct {
	http      *http.Client
	token     string
	userAgent string
}

// NewClient builds a client from the discovery configuration.
func NewClient(cfg types.DiscoveryConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "bookmark-engine/0.1"
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		token:     cfg.Token,
		userAgent: ua,
	}
}

// Repository fetches metadata for owner/repo. A missing repository is an
// error carrying the 404 status, which callers treat as "not found" rather
// than a fault.
func (c *Client) Repository(ctx context.Context, owner, repo string) (*Repo, error) {
	u := fmt.Sprintf("%s/repos/%s/%s", BaseURL, url.PathEscape(owner), url.PathEscape(repo))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	var out Repo
	if err := httputil.DoJSON(ctx, c.http, req, 0, &out); err != nil {
		return nil, fmt.Errorf("fetching repository %s/%s: %w", owner, repo, err)
	}
	return &out, nil
}

// UserRepositories lists a user's repositories, most recently updated first.
func (c *Client) UserRepositories(ctx context.Context, username string, perPage int) ([]Repo, error) {
	u := fmt.Sprintf("%s/users/%s/repos?sort=updated&per_page=%s",
		BaseURL, url.PathEscape(username), strconv.Itoa(perPage))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	var out []Repo
	if err := httputil.DoJSON(ctx, c.http, req, 0, &out); err != nil {
		return nil, fmt.Errorf("listing repositories for %s: %w", username, err)
	}
	return out, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
}
