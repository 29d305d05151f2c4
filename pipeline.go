package scholar

import (
	"context"
	"fmt"

	"github.com/alnah/go-scholar/internal/fileutil"
	"github.com/alnah/go-scholar/internal/report"
	"github.com/alnah/go-scholar/internal/stage"
)

// Mode selects which stages a conversion runs.
type Mode int

const (
	// ModeFull converts Markdown to PDF.
	ModeFull Mode = iota
	// ModeToTeX stops after the Markdown to LaTeX stage.
	ModeToTeX
	// ModeFromTeX typesets an existing .tex file.
	ModeFromTeX
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeToTeX:
		return "to-tex"
	case ModeFromTeX:
		return "from-tex"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// OutputExt returns the extension of the artifact m produces.
func (m Mode) OutputExt() string {
	if m == ModeToTeX {
		return ".tex"
	}
	return ".pdf"
}

// State is a pipeline state.
type State int

const (
	AwaitingFirstStage State = iota
	AwaitingSecondStage
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingFirstStage:
		return "awaiting-first-stage"
	case AwaitingSecondStage:
		return "awaiting-second-stage"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome describes a finished pipeline run.
type Outcome struct {
	State State

	// FailedStage names the stage that failed when State is Failed.
	// It is empty when the failure happened outside a stage.
	FailedStage stage.Name

	// Artifact is the output of the last stage that ran.
	Artifact string

	// Output is the destination the artifact was copied to.
	Output string

	// Copied is false when Artifact and Output are the same file.
	Copied bool
}

// Pipeline sequences the two stages. Stages never run concurrently:
// the second consumes the file the first produced.
type Pipeline struct {
	First    stage.Converter
	Second   stage.Converter
	Reporter report.Reporter
}

// initialState returns where a run in mode m starts.
func initialState(m Mode) (State, error) {
	switch m {
	case ModeFull, ModeToTeX:
		return AwaitingFirstStage, nil
	case ModeFromTeX:
		return AwaitingSecondStage, nil
	default:
		return Failed, fmt.Errorf("%w: %v", ErrInvalidMode, m)
	}
}

// Run converts input in mode and copies the final artifact to dest.
// On failure nothing is copied; the returned Outcome has State Failed.
func (p *Pipeline) Run(ctx context.Context, input string, mode Mode, dest string) (Outcome, error) {
	rep := p.reporter()
	state, err := initialState(mode)
	if err != nil {
		return Outcome{State: Failed}, err
	}
	out := Outcome{State: state, Artifact: input}

	for {
		switch out.State {
		case AwaitingFirstStage:
			artifact, err := p.First.Convert(ctx, out.Artifact)
			if err != nil {
				return p.fail(out, p.First.Name(), err)
			}
			out.Artifact = artifact
			if mode == ModeToTeX {
				out.State = Done
			} else {
				out.State = AwaitingSecondStage
			}

		case AwaitingSecondStage:
			artifact, err := p.Second.Convert(ctx, out.Artifact)
			if err != nil {
				return p.fail(out, p.Second.Name(), err)
			}
			out.Artifact = artifact
			out.State = Done

		case Done:
			out.Output = dest
			if fileutil.SameFile(out.Artifact, dest) {
				rep.Detail("%s is already in place", dest)
				return out, nil
			}
			rep.Step("Copying %s to %s", mode.OutputExt(), dest)
			if err := fileutil.CopyFile(out.Artifact, dest); err != nil {
				out.State = Failed
				return out, fmt.Errorf("%w: %w", ErrWriteOutput, err)
			}
			out.Copied = true
			return out, nil

		default:
			return out, fmt.Errorf("pipeline in unexpected state %v", out.State)
		}
	}
}

func (p *Pipeline) fail(out Outcome, name stage.Name, err error) (Outcome, error) {
	out.State = Failed
	out.FailedStage = name
	return out, err
}

func (p *Pipeline) reporter() report.Reporter {
	if p.Reporter == nil {
		return report.Nop{}
	}
	return p.Reporter
}
