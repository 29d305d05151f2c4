package scholar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-scholar/internal/frontmatter"
	"github.com/alnah/go-scholar/internal/preflight"
	"github.com/alnah/go-scholar/internal/report"
	"github.com/alnah/go-scholar/internal/runner"
	"github.com/alnah/go-scholar/internal/settings"
	"github.com/alnah/go-scholar/internal/stage"
	"github.com/alnah/go-scholar/internal/workspace"
)

// Converter runs conversions. Settings are resolved afresh for every
// request, so one Converter serves any number of documents. It is safe for
// concurrent use by documents with distinct base names.
type Converter struct {
	cfg      converterConfig
	runner   runner.Runner
	reporter report.Reporter
	scanner  *preflight.Scanner
}

// NewConverter creates a Converter. Options are applied in order.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg:      converterConfig{preflight: true},
		reporter: report.Nop{},
		scanner:  preflight.NewScanner(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.cfg.cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		c.cfg.cwd = wd
	}
	cwd, err := filepath.Abs(c.cfg.cwd)
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	c.cfg.cwd = cwd
	if c.cfg.lookupEnv == nil {
		c.cfg.lookupEnv = os.LookupEnv
	}
	if c.reporter == nil {
		c.reporter = report.Nop{}
	}
	return c, nil
}

// WorkingDir returns the directory the converter resolves paths against.
func (c *Converter) WorkingDir() string {
	return c.cfg.cwd
}

// Convert runs the pipeline for req. The Result is non-nil whenever
// settings resolved, including on stage failure.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, req Request) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if _, err := initialState(req.Mode); err != nil {
		return nil, err
	}
	input := c.abs(req.Input)
	if err := checkInput(input); err != nil {
		return nil, err
	}
	doc, err := os.ReadFile(input) // #nosec G304 -- validated by checkInput
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	resolution, err := c.resolve(input, doc, req.Mode)
	if err != nil {
		return nil, err
	}
	s := resolution.Settings
	res := &Result{Settings: s, Origins: resolution.Origins}

	if req.Mode != ModeFromTeX && c.cfg.preflight {
		res.Findings = c.scan(ctx, input, doc, s)
	}

	layout := workspace.New(s.Paths.CacheDir)
	r := c.runner
	if r == nil {
		r = runner.NewExecRunner(s.Timeout, nil)
	}

	p := &Pipeline{
		First: &stage.MarkdownToLaTeX{
			Runner:   r,
			Settings: s,
			Layout:   layout,
			CWD:      c.cfg.cwd,
			Reporter: c.reporter,
			Workers:  c.cfg.workers,
		},
		Second: &stage.LaTeXToPDF{
			Runner:   r,
			Settings: s,
			Layout:   layout,
			CWD:      c.cfg.cwd,
			Reporter: c.reporter,
		},
		Reporter: c.reporter,
	}

	dest := ResolveOutput(input, req.Output, c.cfg.cwd, req.Mode)
	res.Outcome, err = p.Run(ctx, input, req.Mode, dest)
	return res, err
}

// ResolveSettings resolves the settings a conversion of input in mode would
// use, without converting anything. An empty input resolves without front
// matter.
func (c *Converter) ResolveSettings(input string, mode Mode) (*settings.Resolution, error) {
	if input == "" {
		return c.resolve("", nil, mode)
	}
	input = c.abs(input)
	if err := checkInput(input); err != nil {
		return nil, err
	}
	doc, err := os.ReadFile(input) // #nosec G304 -- validated by checkInput
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return c.resolve(input, doc, mode)
}

func (c *Converter) resolve(input string, doc []byte, mode Mode) (*settings.Resolution, error) {
	var fm map[string]any
	if mode != ModeFromTeX {
		var err error
		if fm, err = parseFrontMatter(doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFrontMatter, input, err)
		}
	}

	r := &settings.Resolver{
		Sources: settings.StandardSources(settings.Inputs{
			CWD:         c.cfg.cwd,
			Overrides:   c.cfg.overrides,
			CLI:         c.cfg.cli,
			FrontMatter: fm,
			ConfigPath:  c.configPath(),
			LookupEnv:   c.cfg.lookupEnv,
		}),
		CWD:    c.cfg.cwd,
		Policy: c.cfg.policy,
		Warn:   func(msg string) { c.reporter.Warn("%s", msg) },
		Now:    c.cfg.now,
	}
	return r.Resolve()
}

// configPath picks the config file: the explicit option, then
// SCHOLAR_CONFIG, then discovery in the working directory.
func (c *Converter) configPath() string {
	if c.cfg.configPath != "" {
		return c.abs(c.cfg.configPath)
	}
	if p, ok := c.cfg.lookupEnv(settings.EnvConfigPath); ok && p != "" {
		return c.abs(p)
	}
	return settings.DiscoverConfig(c.cfg.cwd)
}

func (c *Converter) scan(ctx context.Context, input string, doc []byte, s Settings) []Finding {
	_, body, err := frontmatter.Split(doc)
	if err != nil {
		return nil
	}
	findings, err := c.scanner.Scan(ctx, body, preflight.Options{
		ResourceDirs: []string{filepath.Dir(input), c.cfg.cwd},
		CWD:          c.cfg.cwd,
		ShellEscape:  s.LaTeX.ShellEscape,
	})
	if err != nil {
		return nil
	}
	for _, f := range findings {
		c.reporter.Warn("%s: %s", filepath.Base(input), f)
	}
	return findings
}

func (c *Converter) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.cfg.cwd, p)
}

// parseFrontMatter returns the settings in doc's head block, or nil.
func parseFrontMatter(doc []byte) (map[string]any, error) {
	block, _, err := frontmatter.Split(doc)
	if err != nil || block == nil {
		return nil, err
	}
	return settings.ParseDocument(block.Raw, settings.Format(block.Format))
}
