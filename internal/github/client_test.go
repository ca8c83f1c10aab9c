// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mpetrov/bookmark-engine/internal/httputil"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := BaseURL
	BaseURL = ts.URL
	t.Cleanup(func() { BaseURL = old })

	return NewClient(types.DiscoveryConfig{})
}

func TestRepository(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/user/awesome-tool" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github.v3+json" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(`{
			"name": "awesome-tool",
			"full_name": "user/awesome-tool",
			"owner": {"login": "user"},
			"description": "A CLI tool",
			"language": "Python",
			"html_url": "https://github.com/user/awesome-tool",
			"stargazers_count": 150,
			"forks_count": 12,
			"size": 2048,
			"has_wiki": true,
			"has_issues": true,
			"pushed_at": "2026-08-01T12:00:00Z",
			"created_at": "2026-07-20T12:00:00Z"
		}`))
	})

	repo, err := client.Repository(context.Background(), "user", "awesome-tool")
	if err != nil {
		t.Fatalf("Repository: %v", err)
	}
	if repo.FullName != "user/awesome-tool" || repo.Owner.Login != "user" {
		t.Errorf("got %+v", repo)
	}
	if repo.Stars != 150 || repo.Language != "Python" {
		t.Errorf("got %+v", repo)
	}
}

func TestRepositoryNotFound(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.Repository(context.Background(), "ghost", "nothing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !httputil.IsStatus(err, http.StatusNotFound) {
		t.Errorf("expected 404 status error, got %v", err)
	}
}

func TestUserRepositories(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/testuser/repos" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("per_page"); got != "20" {
			t.Errorf("per_page = %q, want 20", got)
		}
		if got := r.URL.Query().Get("sort"); got != "updated" {
			t.Errorf("sort = %q, want updated", got)
		}
		w.Write([]byte(`[{"name":"one","full_name":"testuser/one","owner":{"login":"testuser"}},
			{"name":"two","full_name":"testuser/two","owner":{"login":"testuser"}}]`))
	})

	repos, err := client.UserRepositories(context.Background(), "testuser", 20)
	if err != nil {
		t.Fatalf("UserRepositories: %v", err)
	}
	if len(repos) != 2 || repos[0].Name != "one" {
		t.Errorf("got %+v", repos)
	}
}

func TestTokenHeader(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(ts.Close)

	old := BaseURL
	BaseURL = ts.URL
	t.Cleanup(func() { BaseURL = old })

	client := NewClient(types.DiscoveryConfig{Token: "ghp_secret"})
	if _, err := client.Repository(context.Background(), "a", "b"); err != nil {
		t.Fatalf("Repository: %v", err)
	}
	if gotAuth != "token ghp_secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}
