package main

// Notes:
// - runDoctor: tool lookup goes through Environment.LookPath and version
//   probes through the runnertest fake, so results do not depend on the host.
// - printDoctorResult: we check the status lines only.
// These are acceptable gaps: the writability error path needs a read-only
// directory, which is unreliable when tests run as root.

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alnah/go-scholar/internal/runner"
)

func versionHandler(out string) func(runner.Command) (*runner.Result, error) {
	return func(runner.Command) (*runner.Result, error) {
		return &runner.Result{Stdout: out}, nil
	}
}

func withVersions(te *testEnv) {
	te.fake.Handle("pandoc", versionHandler("pandoc 3.1.11\nFeatures: +server\n"))
	te.fake.Handle("latexmk", versionHandler("Latexmk, John Collins, 7 Jan. 2023. Version 4.79\n"))
	te.fake.Handle("xelatex", versionHandler("XeTeX 3.141592653-2.6-0.999995 (TeX Live 2023)\n"))
	te.fake.Handle("rsvg-convert", versionHandler("rsvg-convert version 2.56.3\n"))
}

// ---------------------------------------------------------------------------
// TestRunDoctor - Toolchain checks
// ---------------------------------------------------------------------------

func TestRunDoctor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		missing    []string
		vars       map[string]string
		wantStatus string
		wantMsg    string
	}{
		{"all present", nil, nil, "ready", ""},
		{"rsvg-convert missing", []string{"rsvg-convert"}, nil, "warnings", "SVG images cannot be converted"},
		{"pandoc missing", []string{"pandoc"}, nil, "errors", "pandoc not found. Install it or set tools.pandoc"},
		{"engine from environment", []string{"xelatex"}, map[string]string{"SCHOLAR_LATEX_ENGINE": "lualatex"}, "warnings", "Could not get lualatex version"},
		{"shell escape", nil, map[string]string{"SCHOLAR_LATEX_SHELL_ESCAPE": "true"}, "warnings", "shell_escape is enabled"},
		{"invalid settings", nil, map[string]string{"SCHOLAR_SVG_DPI": "0"}, "errors", "settings: invalid settings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			te := newTestEnv(t)
			withVersions(te)
			for _, m := range tt.missing {
				te.missing[m] = true
			}
			for k, v := range tt.vars {
				te.vars[k] = v
			}

			r := runDoctor(context.Background(), te.Environment)
			if r.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q (warnings %v, errors %v)", r.Status, tt.wantStatus, r.Warnings, r.Errors)
			}
			if tt.wantMsg != "" {
				all := strings.Join(append(r.Warnings, r.Errors...), "\n")
				if !strings.Contains(all, tt.wantMsg) {
					t.Errorf("messages %q lack %q", all, tt.wantMsg)
				}
			}
			if !r.System.Writable {
				t.Error("temp working directory reported as not writable")
			}
		})
	}
}

func TestRunDoctor_Versions(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	withVersions(te)

	r := runDoctor(context.Background(), te.Environment)
	got := map[string]string{}
	for _, tool := range r.Tools {
		got[tool.Name] = tool.Version
	}
	if got["pandoc"] != "pandoc 3.1.11" || got["rsvg-convert"] != "rsvg-convert version 2.56.3" {
		t.Errorf("versions = %v", got)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd - Output formats and exit codes
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_JSON(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	withVersions(te)
	te.missing["latexmk"] = true

	if got := te.run("doctor", "--json"); got != ExitGeneral {
		t.Errorf("exit code = %d, want %d", got, ExitGeneral)
	}
	var r doctorResult
	if err := json.Unmarshal(te.stdout.Bytes(), &r); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, te.stdout)
	}
	if r.Status != "errors" || len(r.Tools) != 4 {
		t.Errorf("result = %+v", r)
	}
}

func TestRunDoctorCmd_Text(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	withVersions(te)

	if got := te.run("doctor"); got != ExitSuccess {
		t.Errorf("exit code = %d, want %d", got, ExitSuccess)
	}
	out := te.stdout.String()
	for _, want := range []string{"scholar doctor", "[OK] pandoc: pandoc 3.1.11", "Status: Ready to convert"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}
