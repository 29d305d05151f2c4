package main

// Notes:
// - Shared test infrastructure: an Environment backed by buffers, a map of
//   environment variables and the runnertest toolchain fake.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alnah/go-scholar/internal/runner/runnertest"
)

// ---------------------------------------------------------------------------
// Test Environment - Buffers, variables and fake programs
// ---------------------------------------------------------------------------

type testEnv struct {
	*Environment
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	fake    *runnertest.Fake
	vars    map[string]string
	missing map[string]bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	te := &testEnv{
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
		fake:    runnertest.NewToolchain(),
		vars:    map[string]string{},
		missing: map[string]bool{},
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	te.Environment = &Environment{
		Now:    func() time.Time { return now },
		Stdout: te.stdout,
		Stderr: te.stderr,
		LookupEnv: func(k string) (string, bool) {
			v, ok := te.vars[k]
			return v, ok
		},
		Environ: func() []string {
			out := make([]string, 0, len(te.vars))
			for k, v := range te.vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		Stat: os.Stat,
		LookPath: func(name string) (string, error) {
			if te.missing[name] {
				return "", os.ErrNotExist
			}
			return "/usr/bin/" + name, nil
		},
		WorkDir: t.TempDir(),
		Runner:  te.fake,
	}
	return te
}

func (te *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(te.WorkDir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func (te *testEnv) run(args ...string) int {
	return runMain(context.Background(), args, te.Environment)
}

func (te *testEnv) exists(name string) bool {
	_, err := os.Stat(filepath.Join(te.WorkDir, name))
	return err == nil
}
