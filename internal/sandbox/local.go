// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mpetrov/bookmark-engine/internal/container"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

const defaultImage = "python:3.12-slim"

// Local executes repositories in a container on this machine. It is the
// fallback backend for installations without a sandbox service account.
type Local struct {
	runtime container.Runtime
	image   string
	workDir string

	// clone is replaced in tests to avoid network access.
	clone func(ctx context.Context, repoURL, dir string) error
}

// NewLocal builds the local backend on a detected container runtime.
func NewLocal(rt container.Runtime, cfg types.SandboxConfig) *Local {
	image := cfg.Image
	if image == "" {
		image = defaultImage
	}
	return &Local{
		runtime: rt,
		image:   image,
		workDir: cfg.WorkDir,
		clone:   gitClone,
	}
}

// AnalyzeAndRun clones the repository, inspects its manifests, then installs
// dependencies and runs the entry file inside a disposable container.
func (l *Local) AnalyzeAndRun(ctx context.Context, repoURL string) (RunReport, error) {
	dir, err := os.MkdirTemp(l.workDir, "sandbox-repo-")
	if err != nil {
		return RunReport{}, fmt.Errorf("creating sandbox directory: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := l.clone(ctx, repoURL, dir); err != nil {
		return RunReport{}, fmt.Errorf("cloning %s: %w", repoURL, err)
	}

	analysis, err := analyzeProject(dir)
	if err != nil {
		return RunReport{}, err
	}

	install := l.install(ctx, dir, analysis)
	run := l.run(ctx, dir, analysis)

	return RunReport{
		Analysis:      analysis,
		InstallOutput: install,
		RunOutput:     run,
	}, nil
}

func (l *Local) install(ctx context.Context, dir string, analysis types.ProjectAnalysis) string {
	var buf bytes.Buffer
	switch analysis.ProjectType {
	case "python":
		err := l.runtime.Exec(ctx, l.image, dir, &buf, "pip", "install", "-r", "requirements.txt")
		fmt.Fprintf(&buf, "\npip install exit code: %d\n", exitCode(err))
	case "node":
		err := l.runtime.Exec(ctx, l.image, dir, &buf, "npm", "install")
		fmt.Fprintf(&buf, "\nnpm install exit code: %d\n", exitCode(err))
	default:
		buf.WriteString("No dependency installation needed")
	}
	return buf.String()
}

func (l *Local) run(ctx context.Context, dir string, analysis types.ProjectAnalysis) string {
	entry, interpreter := entryPoint(analysis)
	if entry == "" {
		return "Could not determine how to run the project"
	}

	var buf bytes.Buffer
	err := l.runtime.Exec(ctx, l.image, dir, &buf, interpreter, entry)
	fmt.Fprintf(&buf, "\nexit code: %d\n", exitCode(err))
	return buf.String()
}

// entryPoint picks the conventional entry file and its interpreter.
func entryPoint(analysis types.ProjectAnalysis) (entry, interpreter string) {
	for _, candidate := range []string{"main.py", "app.py", "index.js", "main.js"} {
		for _, f := range analysis.MainFiles {
			if f != candidate {
				continue
			}
			switch analysis.ProjectType {
			case "python":
				if strings.HasSuffix(candidate, ".py") {
					return candidate, "python"
				}
			case "node":
				if strings.HasSuffix(candidate, ".js") {
					return candidate, "node"
				}
			}
		}
	}
	return "", ""
}

// analyzeProject determines the ecosystem, dependencies, and entry files
// from the manifests present in the checkout.
func analyzeProject(dir string) (types.ProjectAnalysis, error) {
	analysis := types.ProjectAnalysis{ProjectType: "unknown"}

	if data, err := os.ReadFile(filepath.Join(dir, "requirements.txt")); err == nil {
		analysis.ProjectType = "python"
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				analysis.Dependencies = append(analysis.Dependencies, line)
			}
		}
	} else if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		analysis.ProjectType = "node"
		var pkg struct {
			Dependencies map[string]string `json:"dependencies"`
		}
		if err := json.Unmarshal(data, &pkg); err == nil {
			for dep := range pkg.Dependencies {
				analysis.Dependencies = append(analysis.Dependencies, dep)
			}
			sort.Strings(analysis.Dependencies)
		}
	} else if _, err := os.Stat(filepath.Join(dir, "Cargo.toml")); err == nil {
		analysis.ProjectType = "rust"
	} else if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		analysis.ProjectType = "go"
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return analysis, fmt.Errorf("reading checkout %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, ext := range []string{".py", ".js", ".ts", ".go", ".rs"} {
			if strings.HasSuffix(name, ext) {
				analysis.MainFiles = append(analysis.MainFiles, name)
				break
			}
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "README.md")); err == nil {
		analysis.HasReadme = true
	}
	for _, testDir := range []string{"tests", "test", "__tests__"} {
		if info, err := os.Stat(filepath.Join(dir, testDir)); err == nil && info.IsDir() {
			analysis.HasTests = true
			break
		}
	}

	return analysis, nil
}

func gitClone(ctx context.Context, repoURL, dir string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", repoURL, dir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git clone failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
