package report

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// TestConsole - Levels and plain output for non-terminals
// ---------------------------------------------------------------------------

func TestConsole_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level      Level
		wantStep   bool
		wantDetail bool
	}{
		{Quiet, false, false},
		{Normal, true, false},
		{Verbose, true, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		c := NewConsole(&buf, Options{Level: tt.level})
		c.Step("Running %s", "pandoc")
		c.Detail("pandoc --from json")
		c.Warn("unknown key %q", "x")

		out := buf.String()
		if got := strings.Contains(out, "Running pandoc"); got != tt.wantStep {
			t.Errorf("level %d: step printed = %v, want %v", tt.level, got, tt.wantStep)
		}
		if got := strings.Contains(out, "pandoc --from json"); got != tt.wantDetail {
			t.Errorf("level %d: detail printed = %v, want %v", tt.level, got, tt.wantDetail)
		}
		if !strings.Contains(out, `warning: unknown key "x"`) {
			t.Errorf("level %d: warning missing in %q", tt.level, out)
		}
	}
}

func TestConsole_NoEscapesWhenNotTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf, Options{Level: Verbose})
	c.Step("step")
	c.Error(errors.New("boom\n  hint: try again"))

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("output contains ANSI escapes: %q", out)
	}
	want := "step\nError: boom\n  hint: try again\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestConsole_Concurrent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf, Options{Level: Normal})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Step("line")
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "line\n"); got != 20 {
		t.Errorf("got %d complete lines, want 20", got)
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	var r Reporter = Nop{}
	r.Step("x")
	r.Warn("x")
	r.Detail("x")
}
