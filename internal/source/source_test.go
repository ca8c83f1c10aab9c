// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/mpetrov/bookmark-engine/pkg/types"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := BaseURL
	BaseURL = ts.URL
	t.Cleanup(func() { BaseURL = old })

	return NewClient(types.SourceConfig{APIKey: "key-1"})
}

const bookmarkJSON = `{
	"id": "bm_1",
	"tweet_details": {
		"text": "Check out github.com/user/tool https://example.com/post",
		"url": "https://twitter.com/testuser/status/123",
		"posted_at": "2026-08-29T10:00:00Z"
	},
	"author_details": {"name": "Test User", "username": "testuser"}
}`

func TestFetchBookmarks(t *testing.T) {
	var gotQuery, gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/bookmarks", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"bookmarks": [` + bookmarkJSON + `], "next_cursor": "c2", "has_more": true}`))
	})

	c := newTestClient(t, mux)
	page, err := c.FetchBookmarks(context.Background(), 10, "")
	if err != nil {
		t.Fatalf("FetchBookmarks: %v", err)
	}

	if gotQuery != "limit=10" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotAuth != "Bearer key-1" {
		t.Errorf("auth = %q", gotAuth)
	}
	if page.NextCursor != "c2" || !page.HasMore {
		t.Errorf("page = %+v", page)
	}
	if len(page.Bookmarks) != 1 {
		t.Fatalf("bookmarks = %+v", page.Bookmarks)
	}

	bm := page.Bookmarks[0]
	if bm.ID != "bm_1" || bm.Author.Username != "testuser" {
		t.Errorf("bookmark = %+v", bm)
	}
	if bm.PostedAt.IsZero() {
		t.Error("posted_at should parse")
	}
}

func TestFetchBookmarksCapsLimitAndSendsCursor(t *testing.T) {
	var gotLimit, gotCursor string
	mux := http.NewServeMux()
	mux.HandleFunc("/bookmarks", func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		gotCursor = r.URL.Query().Get("cursor")
		w.Write([]byte(`{"bookmarks": []}`))
	})

	c := newTestClient(t, mux)
	if _, err := c.FetchBookmarks(context.Background(), 500, "abc"); err != nil {
		t.Fatalf("FetchBookmarks: %v", err)
	}
	if gotLimit != "100" {
		t.Errorf("limit = %q, want capped at 100", gotLimit)
	}
	if gotCursor != "abc" {
		t.Errorf("cursor = %q", gotCursor)
	}
}

func TestBookmarkNotFound(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.Bookmark(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing bookmark")
	}
}

func TestSetupWebhook(t *testing.T) {
	var payload map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/webhooks", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"id": "wh_1", "active": true}`))
	})

	c := newTestClient(t, mux)
	id, err := c.SetupWebhook(context.Background(), "https://example.com/hook")
	if err != nil {
		t.Fatalf("SetupWebhook: %v", err)
	}
	if id != "wh_1" {
		t.Errorf("id = %q", id)
	}
	if payload["url"] != "https://example.com/hook" || payload["active"] != true {
		t.Errorf("payload = %v", payload)
	}
	events := payload["events"].([]any)
	if len(events) != 2 {
		t.Errorf("events = %v", events)
	}
}

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single url",
			text: "Read this https://example.com/post today",
			want: []string{"https://example.com/post"},
		},
		{
			name: "duplicates removed in order",
			text: "https://a.example https://b.example https://a.example",
			want: []string{"https://a.example", "https://b.example"},
		},
		{
			name: "no urls",
			text: "nothing to link here",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractURLs(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractURLs(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestAnalyzeURL(t *testing.T) {
	tests := []struct {
		url  string
		want URLAnalysis
	}{
		{
			url: "https://github.com/user/tool",
			want: URLAnalysis{ContentType: ContentGitHub, Owner: "user", Repo: "tool", IsRepo: true},
		},
		{
			url: "https://github.com/user/tool/blob/main/README.md",
			want: URLAnalysis{ContentType: ContentGitHub, Owner: "user", Repo: "tool", IsFile: true},
		},
		{
			url: "https://youtu.be/dQw4w9WgXcQ",
			want: URLAnalysis{ContentType: ContentYouTube, VideoID: "dqw4w9wgxcq"},
		},
		{
			url: "https://www.youtube.com/watch?v=abc123",
			want: URLAnalysis{ContentType: ContentYouTube, VideoID: "abc123"},
		},
		{
			url: "https://twitter.com/user/status/456789",
			want: URLAnalysis{ContentType: ContentTwitter, TweetID: "456789"},
		},
		{
			url: "https://medium.com/@author/some-post",
			want: URLAnalysis{ContentType: ContentArticle},
		},
		{
			url: "https://arxiv.org/abs/2301.12345",
			want: URLAnalysis{ContentType: ContentPaper, PaperID: "2301.12345"},
		},
		{
			url: "https://reddit.com/r/golang",
			want: URLAnalysis{ContentType: ContentReddit},
		},
		{
			url: "https://example.com/page",
			want: URLAnalysis{ContentType: ContentGeneral},
		},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := AnalyzeURL(tt.url)
			if got.ContentType != tt.want.ContentType {
				t.Errorf("ContentType = %q, want %q", got.ContentType, tt.want.ContentType)
			}
			if got.Owner != tt.want.Owner || got.Repo != tt.want.Repo {
				t.Errorf("owner/repo = %q/%q", got.Owner, got.Repo)
			}
			if got.IsRepo != tt.want.IsRepo || got.IsFile != tt.want.IsFile {
				t.Errorf("is_repo=%v is_file=%v", got.IsRepo, got.IsFile)
			}
			if got.VideoID != tt.want.VideoID || got.TweetID != tt.want.TweetID || got.PaperID != tt.want.PaperID {
				t.Errorf("ids = %q %q %q", got.VideoID, got.TweetID, got.PaperID)
			}
		})
	}
}

func TestPipelineFor(t *testing.T) {
	if got := PipelineFor(ContentGitHub); got != "github_enrichment" {
		t.Errorf("github pipeline = %q", got)
	}
	if got := PipelineFor(ContentYouTube); got != "youtube_transcription" {
		t.Errorf("youtube pipeline = %q", got)
	}
	for _, ct := range []string{ContentTwitter, ContentArticle, ContentPaper, ContentReddit, ContentGeneral} {
		if got := PipelineFor(ct); got != "notes_save" {
			t.Errorf("%s pipeline = %q", ct, got)
		}
	}
}
