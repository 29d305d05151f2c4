// Package report prints conversion progress to the console.
//
// Steps are bold yellow, warnings yellow, errors bold red and details dim.
// Colors are dropped when the output is not a terminal or NO_COLOR is set.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Reporter receives progress messages from the pipeline.
type Reporter interface {
	// Step announces a pipeline step.
	Step(format string, args ...any)
	// Warn reports a non-fatal problem.
	Warn(format string, args ...any)
	// Detail reports verbose information such as command lines.
	Detail(format string, args ...any)
}

// Nop discards every message.
type Nop struct{}

func (Nop) Step(string, ...any)   {}
func (Nop) Warn(string, ...any)   {}
func (Nop) Detail(string, ...any) {}

// Level selects how much the console prints.
type Level int

const (
	// Quiet prints warnings and errors only.
	Quiet Level = iota
	// Normal adds steps.
	Normal
	// Verbose adds details.
	Verbose
)

// Options configure a Console.
type Options struct {
	Level   Level
	NoColor bool
}

// Console writes styled messages to a writer. It is safe for concurrent use.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	level Level

	step   lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
	detail lipgloss.Style
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer, opts Options) *Console {
	r := lipgloss.NewRenderer(w)
	if opts.NoColor || !isTerminal(w) {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Console{
		w:      w,
		level:  opts.Level,
		step:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("214")),
		err:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		detail: r.NewStyle().Faint(true),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Step implements Reporter.
func (c *Console) Step(format string, args ...any) {
	if c.level >= Normal {
		c.print(c.step, "", format, args...)
	}
}

// Warn implements Reporter.
func (c *Console) Warn(format string, args ...any) {
	c.print(c.warn, "warning: ", format, args...)
}

// Detail implements Reporter.
func (c *Console) Detail(format string, args ...any) {
	if c.level >= Verbose {
		c.print(c.detail, "  ", format, args...)
	}
}

// Error prints err in the error style. The first line is highlighted; hint
// lines that follow are printed as is.
func (c *Console) Error(err error) {
	head, rest, _ := strings.Cut(err.Error(), "\n")
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.w, c.err.Render("Error: "+head))
	if rest != "" {
		_, _ = fmt.Fprintln(c.w, rest)
	}
}

func (c *Console) print(style lipgloss.Style, prefix, format string, args ...any) {
	msg := prefix + fmt.Sprintf(format, args...)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.w, style.Render(msg))
}

// Compile-time interface checks.
var (
	_ Reporter = Nop{}
	_ Reporter = (*Console)(nil)
)
