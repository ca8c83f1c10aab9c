// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sandbox

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mpetrov/bookmark-engine/pkg/types"
)

// fakeRuntime records container invocations and writes canned output.
type fakeRuntime struct {
	calls  [][]string
	output string
	err    error
}

func (f *fakeRuntime) Name() string                  { return "fake" }
func (f *fakeRuntime) Available() bool               { return true }
func (f *fakeRuntime) ImageExists(image string) error { return nil }

func (f *fakeRuntime) Exec(_ context.Context, _, _ string, out io.Writer, command ...string) error {
	f.calls = append(f.calls, command)
	io.WriteString(out, f.output)
	return f.err
}

func writeRepo(t *testing.T, files map[string]string) func(context.Context, string, string) error {
	t.Helper()
	return func(_ context.Context, _, dir string) error {
		for name, content := range files {
			path := filepath.Join(dir, name)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestLocalAnalyzeAndRunPython(t *testing.T) {
	rt := &fakeRuntime{output: "ok\n"}
	local := NewLocal(rt, types.SandboxConfig{})
	local.clone = writeRepo(t, map[string]string{
		"requirements.txt": "click\nrequests\n",
		"main.py":          "print('hi')",
		"README.md":        "# tool",
		"tests/test_x.py":  "",
	})

	report, err := local.AnalyzeAndRun(context.Background(), "https://github.com/u/tool")
	if err != nil {
		t.Fatalf("AnalyzeAndRun: %v", err)
	}

	a := report.Analysis
	if a.ProjectType != "python" {
		t.Errorf("ProjectType = %q", a.ProjectType)
	}
	if len(a.Dependencies) != 2 || a.Dependencies[0] != "click" {
		t.Errorf("Dependencies = %v", a.Dependencies)
	}
	if !a.HasReadme || !a.HasTests {
		t.Errorf("analysis = %+v", a)
	}
	foundMain := false
	for _, f := range a.MainFiles {
		if f == "main.py" {
			foundMain = true
		}
	}
	if !foundMain {
		t.Errorf("MainFiles = %v", a.MainFiles)
	}

	if !strings.Contains(report.InstallOutput, "pip install exit code: 0") {
		t.Errorf("InstallOutput = %q", report.InstallOutput)
	}
	if !strings.Contains(report.RunOutput, "exit code: 0") {
		t.Errorf("RunOutput = %q", report.RunOutput)
	}

	// First container call installs, second runs the entry file.
	if len(rt.calls) != 2 {
		t.Fatalf("container calls = %v", rt.calls)
	}
	if rt.calls[0][0] != "pip" || rt.calls[1][0] != "python" || rt.calls[1][1] != "main.py" {
		t.Errorf("calls = %v", rt.calls)
	}
}

func TestLocalAnalyzeAndRunNode(t *testing.T) {
	rt := &fakeRuntime{output: "listening\n"}
	local := NewLocal(rt, types.SandboxConfig{})
	local.clone = writeRepo(t, map[string]string{
		"package.json": `{"dependencies":{"express":"^4.0.0"}}`,
		"index.js":     "console.log('hi')",
	})

	report, err := local.AnalyzeAndRun(context.Background(), "https://github.com/u/webapp")
	if err != nil {
		t.Fatalf("AnalyzeAndRun: %v", err)
	}
	if report.Analysis.ProjectType != "node" {
		t.Errorf("ProjectType = %q", report.Analysis.ProjectType)
	}
	if len(report.Analysis.Dependencies) != 1 || report.Analysis.Dependencies[0] != "express" {
		t.Errorf("Dependencies = %v", report.Analysis.Dependencies)
	}
	if rt.calls[0][0] != "npm" || rt.calls[1][0] != "node" {
		t.Errorf("calls = %v", rt.calls)
	}
}

func TestLocalUnknownProjectSkipsInstallAndRun(t *testing.T) {
	rt := &fakeRuntime{}
	local := NewLocal(rt, types.SandboxConfig{})
	local.clone = writeRepo(t, map[string]string{"notes.txt": "hello"})

	report, err := local.AnalyzeAndRun(context.Background(), "https://github.com/u/docs")
	if err != nil {
		t.Fatalf("AnalyzeAndRun: %v", err)
	}
	if report.Analysis.ProjectType != "unknown" {
		t.Errorf("ProjectType = %q", report.Analysis.ProjectType)
	}
	if report.InstallOutput != "No dependency installation needed" {
		t.Errorf("InstallOutput = %q", report.InstallOutput)
	}
	if report.RunOutput != "Could not determine how to run the project" {
		t.Errorf("RunOutput = %q", report.RunOutput)
	}
	if len(rt.calls) != 0 {
		t.Errorf("no container calls expected, got %v", rt.calls)
	}
}

func TestLocalCloneFailure(t *testing.T) {
	local := NewLocal(&fakeRuntime{}, types.SandboxConfig{})
	local.clone = func(_ context.Context, _, _ string) error {
		return os.ErrPermission
	}
	if _, err := local.AnalyzeAndRun(context.Background(), "https://github.com/u/x"); err == nil {
		t.Fatal("expected clone error")
	}
}
