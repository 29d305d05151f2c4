package main

// Notes:
// - exitCodeFor: we test the sentinels the CLI and the library return,
//   plus wrapped errors to verify the errors.Is chain.
// - Exit code constants: we verify Unix conventions (0=success, 1=general, 2=usage).
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"fmt"
	"testing"

	scholar "github.com/alnah/go-scholar"
	"github.com/alnah/go-scholar/internal/stage"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		// Success
		{"nil error", nil, ExitSuccess},

		// Usage errors (exit 2)
		{"usage", ErrUsage, ExitUsage},
		{"no input", ErrNoInput, ExitUsage},
		{"too many inputs", ErrTooManyInputs, ExitUsage},
		{"conflicting modes", ErrConflictingModes, ExitUsage},
		{"invalid input", scholar.ErrInvalidInput, ExitUsage},
		{"invalid mode", scholar.ErrInvalidMode, ExitUsage},
		{"wrapped usage", fmt.Errorf("%w: unknown flag: --x", ErrUsage), ExitUsage},

		// Everything else (exit 1)
		{"settings", scholar.ErrInvalidSettings, ExitGeneral},
		{"config not found", scholar.ErrConfigNotFound, ExitGeneral},
		{"config load", scholar.ErrConfigLoad, ExitGeneral},
		{"front matter", scholar.ErrFrontMatter, ExitGeneral},
		{"write output", scholar.ErrWriteOutput, ExitGeneral},
		{"stage error", &stage.Error{Stage: stage.LaTeXToPDFName, Err: stage.ErrTypeset}, ExitGeneral},
		{"unknown", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("exit codes = %d, %d, %d, want 0, 1, 2", ExitSuccess, ExitGeneral, ExitUsage)
	}
}
