package scholar

import (
	"time"

	"github.com/alnah/go-scholar/internal/preflight"
	"github.com/alnah/go-scholar/internal/report"
	"github.com/alnah/go-scholar/internal/runner"
	"github.com/alnah/go-scholar/internal/settings"
)

// Settings is a resolved configuration. It must be treated as read-only.
type Settings = settings.Settings

// Finding is a preflight warning about the input document.
type Finding = preflight.Finding

// Reporter receives progress messages.
type Reporter = report.Reporter

// Runner executes external programs. Tests substitute a fake.
type Runner = runner.Runner

// Request describes one conversion.
type Request struct {
	// Input is the Markdown document, or the .tex file in ModeFromTeX.
	Input string

	// Output is a destination file or directory. Empty means the working
	// directory. See ResolveOutput.
	Output string

	Mode Mode
}

// Result is the outcome of Convert. It is returned alongside stage errors
// so callers can tell which stage failed.
type Result struct {
	Outcome

	Settings Settings

	// Origins maps each settings leaf to the source that set it.
	Origins map[string]string

	// Findings lists preflight warnings, in document order.
	Findings []Finding
}

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	cwd        string
	overrides  map[string]any
	cli        map[string]any
	configPath string
	lookupEnv  func(string) (string, bool)
	policy     settings.Policy
	preflight  bool
	workers    int
	now        func() time.Time
}

// WithWorkingDir sets the directory relative paths, the config file
// lookup and the cache directory are based on. Defaults to the process
// working directory.
func WithWorkingDir(dir string) Option {
	return func(c *Converter) {
		c.cfg.cwd = dir
	}
}

// WithSettingsOverrides sets the highest precedence settings source.
// Keys are nested maps following the config file layout.
func WithSettingsOverrides(m map[string]any) Option {
	return func(c *Converter) {
		c.cfg.overrides = m
	}
}

// WithCLISettings sets the settings derived from command-line flags.
func WithCLISettings(m map[string]any) Option {
	return func(c *Converter) {
		c.cfg.cli = m
	}
}

// WithConfigFile sets the config file. It must exist. Without this option
// SCHOLAR_CONFIG is used, then scholar.yaml, scholar.yml or scholar.toml
// in the working directory.
func WithConfigFile(path string) Option {
	return func(c *Converter) {
		c.cfg.configPath = path
	}
}

// WithLookupEnv replaces os.LookupEnv for the environment source.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(c *Converter) {
		c.cfg.lookupEnv = lookup
	}
}

// WithStrictSettings rejects unknown settings keys instead of warning.
func WithStrictSettings() Option {
	return func(c *Converter) {
		c.cfg.policy = settings.Strict
	}
}

// WithoutPreflight disables the document scan run before the first stage.
func WithoutPreflight() Option {
	return func(c *Converter) {
		c.cfg.preflight = false
	}
}

// WithBibliographyWorkers bounds concurrent reference conversions.
// Panics if n <= 0 (programmer error).
func WithBibliographyWorkers(n int) Option {
	if n <= 0 {
		panic("scholar: WithBibliographyWorkers requires n > 0")
	}
	return func(c *Converter) {
		c.cfg.workers = n
	}
}

// WithClock sets the clock "auto" dates are expanded with.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.cfg.now = now
	}
}

// WithRunner replaces the process runner. The default runs real programs
// with the timeout from the settings.
func WithRunner(r Runner) Option {
	return func(c *Converter) {
		c.runner = r
	}
}

// WithReporter sets the progress receiver. The default discards messages.
func WithReporter(r Reporter) Option {
	return func(c *Converter) {
		c.reporter = r
	}
}
