// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sandbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mpetrov/bookmark-engine/pkg/types"
)

func TestNewRemoteRequiresKey(t *testing.T) {
	if _, err := NewRemote(types.SandboxConfig{}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestRemoteAnalyzeAndRun(t *testing.T) {
	var gotKey, gotPath string
	var gotReq remoteRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(remoteResponse{
			Analysis: types.ProjectAnalysis{
				ProjectType:  "python",
				Dependencies: []string{"click"},
				MainFiles:    []string{"main.py"},
				HasReadme:    true,
			},
			InstallOutput: "pip install exit code: 0",
			RunOutput:     "hello\nexit code: 0",
		})
	}))
	t.Cleanup(ts.Close)

	old := RemoteBaseURL
	RemoteBaseURL = ts.URL
	t.Cleanup(func() { RemoteBaseURL = old })

	remote, err := NewRemote(types.SandboxConfig{SandboxAPIKey: "e2b_test"})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}

	report, err := remote.AnalyzeAndRun(context.Background(), "https://github.com/user/tool")
	if err != nil {
		t.Fatalf("AnalyzeAndRun: %v", err)
	}

	if gotKey != "e2b_test" {
		t.Errorf("X-API-Key = %q", gotKey)
	}
	if gotPath != "/v1/executions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.RepoURL != "https://github.com/user/tool" || !gotReq.AutoInstall {
		t.Errorf("request = %+v", gotReq)
	}
	if report.Analysis.ProjectType != "python" || report.RunOutput == "" {
		t.Errorf("report = %+v", report)
	}
}

func TestRemoteServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "sandbox quota exceeded", http.StatusPaymentRequired)
	}))
	t.Cleanup(ts.Close)

	old := RemoteBaseURL
	RemoteBaseURL = ts.URL
	t.Cleanup(func() { RemoteBaseURL = old })

	remote, err := NewRemote(types.SandboxConfig{SandboxAPIKey: "k"})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	if _, err := remote.AnalyzeAndRun(context.Background(), "https://github.com/u/r"); err == nil {
		t.Fatal("expected error")
	}
}
