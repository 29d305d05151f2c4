package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	scholar "github.com/alnah/go-scholar"
	"github.com/alnah/go-scholar/internal/runner"
	"github.com/alnah/go-scholar/internal/settings"
	"github.com/alnah/go-scholar/internal/workspace"
)

// versionTimeout bounds each "<tool> --version" probe.
const versionTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Tools    []toolInfo `json:"tools"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// toolInfo holds the detection result for one external program.
type toolInfo struct {
	Name     string `json:"name"`
	Setting  string `json:"setting"`
	Required bool   `json:"required"`
	Found    bool   `json:"found"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
}

// systemInfo holds system check results.
type systemInfo struct {
	OS          string `json:"os"`
	Arch        string `json:"arch"`
	WorkDir     string `json:"work_dir"`
	Writable    bool   `json:"cache_dir_writable"`
	ConfigFile  string `json:"config_file,omitempty"`
	ShellEscape bool   `json:"shell_escape"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	jsonOutput := slices.Contains(args, "--json")

	result := runDoctor(ctx, env)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks against the settings resolved
// in the working directory.
func runDoctor(ctx context.Context, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		System: systemInfo{OS: runtime.GOOS, Arch: runtime.GOARCH, WorkDir: env.WorkDir},
	}

	s := settings.Default(env.WorkDir)
	conv, err := scholar.NewConverter(
		scholar.WithWorkingDir(env.WorkDir),
		scholar.WithLookupEnv(env.LookupEnv),
	)
	if err == nil {
		var r *settings.Resolution
		if r, err = conv.ResolveSettings("", scholar.ModeFull); err == nil {
			s = r.Settings
		}
	}
	if err != nil {
		head, _, _ := strings.Cut(err.Error(), "\n")
		result.Errors = append(result.Errors, "settings: "+head+" (checking defaults)")
	}

	checkTools(ctx, env, s, result)
	checkSystem(env, s, result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

// checkTools locates every external program and asks it for its version.
func checkTools(ctx context.Context, env *Environment, s settings.Settings, result *doctorResult) {
	tools := []toolInfo{
		{Name: s.Tools.Pandoc, Setting: "tools.pandoc", Required: true},
		{Name: s.Tools.Latexmk, Setting: "tools.latexmk", Required: true},
		{Name: s.LaTeX.Engine, Setting: "latex.engine", Required: true},
		{Name: s.Tools.RsvgConvert, Setting: "tools.rsvg_convert"},
	}

	r := env.Runner
	if r == nil {
		r = runner.NewExecRunner(versionTimeout, nil)
	}

	for i := range tools {
		t := &tools[i]
		path, err := env.LookPath(t.Name)
		if err != nil {
			if t.Required {
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s not found. Install it or set %s", t.Name, t.Setting))
			} else {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s not found; SVG images cannot be converted", t.Name))
			}
			continue
		}
		t.Found = true
		t.Path = path

		res, err := r.Run(ctx, runner.Command{Name: path, Args: []string{"--version"}})
		if err != nil || !res.OK() {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Could not get %s version", t.Name))
			continue
		}
		t.Version = firstLine(res.Stdout)
	}
	result.Tools = tools
}

// checkSystem verifies the cache directory can be created and written.
func checkSystem(env *Environment, s settings.Settings, result *doctorResult) {
	result.System.ShellEscape = s.LaTeX.ShellEscape
	result.System.ConfigFile = settings.DiscoverConfig(env.WorkDir)

	if err := workspace.New(s.Paths.CacheDir).EnsureWritable(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cache directory unusable: %v", err))
		return
	}
	result.System.Writable = true

	if result.System.ShellEscape {
		result.Warnings = append(result.Warnings,
			"latex.shell_escape is enabled: documents can run commands while typesetting")
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "scholar doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Toolchain")
	for _, t := range r.Tools {
		switch {
		case t.Found && t.Version != "":
			fmt.Fprintf(w, "  [OK] %s: %s (%s)\n", t.Name, t.Version, t.Path)
		case t.Found:
			fmt.Fprintf(w, "  [OK] %s: %s\n", t.Name, t.Path)
		case t.Required:
			fmt.Fprintf(w, "  [ERROR] %s: not found\n", t.Name)
		default:
			fmt.Fprintf(w, "  [WARN] %s: not found\n", t.Name)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.System.OS, r.System.Arch)
	if r.System.ConfigFile != "" {
		fmt.Fprintf(w, "  [OK] Config file: %s\n", filepath.Base(r.System.ConfigFile))
	}
	if r.System.Writable {
		fmt.Fprintln(w, "  [OK] Cache directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Cache directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
