// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mpetrov/bookmark-engine/internal/httputil"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

// RemoteBaseURL is the execution service endpoint. Tests point it at an
// httptest server.
var RemoteBaseURL = "https://api.e2b.app"

// Remote executes repositories through a hosted sandbox service.
type Remote struct {
	http      *http.Client
	apiKey    string
	userAgent string
}

// NewRemote builds the remote backend. The API key is required.
func NewRemote(cfg types.SandboxConfig) (*Remote, error) {
	if cfg.SandboxAPIKey == "" {
		return nil, fmt.Errorf("sandbox API key is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "bookmark-engine/0.1"
	}
	return &Remote{
		http:      &http.Client{Timeout: timeout},
		apiKey:    cfg.SandboxAPIKey,
		userAgent: ua,
	}, nil
}

type remoteRequest struct {
	RepoURL     string `json:"repo_url"`
	AutoInstall bool   `json:"auto_install"`
}

type remoteResponse struct {
	Analysis      types.ProjectAnalysis `json:"analysis"`
	InstallOutput string                `json:"install_output"`
	RunOutput     string                `json:"run_output"`
}

// AnalyzeAndRun asks the service to clone, install, and run the repository.
func (r *Remote) AnalyzeAndRun(ctx context.Context, repoURL string) (RunReport, error) {
	body, err := json.Marshal(remoteRequest{RepoURL: repoURL, AutoInstall: true})
	if err != nil {
		return RunReport{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, RemoteBaseURL+"/v1/executions", bytes.NewReader(body))
	if err != nil {
		return RunReport{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("X-API-Key", r.apiKey)

	var out remoteResponse
	if err := httputil.DoJSON(ctx, r.http, req, 0, &out); err != nil {
		return RunReport{}, fmt.Errorf("remote execution of %s: %w", repoURL, err)
	}

	return RunReport{
		Analysis:      out.Analysis,
		InstallOutput: out.InstallOutput,
		RunOutput:     out.RunOutput,
	}, nil
}
