package main

import (
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-scholar/internal/settings"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	set     []string
	strict  bool
	quiet   bool
	verbose bool
	noColor bool
}

// modeFlags select which stage is bypassed.
type modeFlags struct {
	toTeX   bool
	fromTeX bool
}

// settingsFlags are the flags that map onto settings keys. Only flags the
// user actually set reach the cli source.
type settingsFlags struct {
	style       string
	engine      string
	timeout     string
	shellEscape bool
	changed     func(name string) bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common      commonFlags
	mode        modeFlags
	settings    settingsFlags
	output      string
	listStyles  bool
	watch       bool
	noPreflight bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file path")
	fs.StringArrayVar(&f.set, "set", nil, "set a setting: key.path=value (repeatable)")
	fs.BoolVar(&f.strict, "strict", false, "reject unknown settings keys")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show warnings and errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show commands and cache statistics")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
}

// addSettingsFlags adds the flags backed by settings keys.
func addSettingsFlags(fs *flag.FlagSet, f *settingsFlags) {
	fs.StringVar(&f.style, "style", "", "style preset name")
	fs.StringVar(&f.engine, "engine", "", "LaTeX engine: xelatex, lualatex, pdflatex")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-program timeout (e.g., 90s, 5m)")
	fs.BoolVar(&f.shellEscape, "shell-escape", false, "allow LaTeX to run external commands (minted)")
	f.changed = fs.Changed
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.BoolVar(&f.mode.toTeX, "to-tex", false, "stop after producing LaTeX")
	fs.BoolVar(&f.mode.fromTeX, "from-tex", false, "typeset an existing .tex file")
	fs.BoolVar(&f.listStyles, "styles", false, "list available styles and exit")
	fs.BoolVarP(&f.watch, "watch", "w", false, "convert again whenever the input or config changes")
	fs.BoolVar(&f.noPreflight, "no-preflight", false, "skip the document scan")

	addCommonFlags(fs, &f.common)
	addSettingsFlags(fs, &f.settings)

	fs.Usage = func() { printConvertUsage(usage) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			fs.Usage()
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return f, fs.Args(), nil
}

// parseSettingsFlags parses the settings command flags.
func parseSettingsFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := &convertFlags{}

	fs.BoolVar(&f.mode.fromTeX, "from-tex", false, "resolve as for a .tex input (no front matter)")
	addCommonFlags(fs, &f.common)
	addSettingsFlags(fs, &f.settings)

	fs.Usage = func() { printSettingsUsage(usage) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			fs.Usage()
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return f, fs.Args(), nil
}

// cliSettings builds the cli settings source: --set assignments first,
// then dedicated flags, which win on the same key.
func cliSettings(f *convertFlags) (map[string]any, error) {
	m, err := settings.ParseAssignments(f.common.set)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	s := f.settings
	changed := s.changed
	if changed == nil {
		changed = func(string) bool { return false }
	}
	if changed("style") {
		settings.SetPath(m, "style", s.style)
	}
	if changed("engine") {
		settings.SetPath(m, "latex.engine", s.engine)
	}
	if changed("shell-escape") {
		settings.SetPath(m, "latex.shell_escape", s.shellEscape)
	}
	if changed("timeout") {
		d, err := time.ParseDuration(s.timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid --timeout %q: %v", ErrUsage, s.timeout, err)
		}
		settings.SetPath(m, "timeout", d.String())
	}
	return m, nil
}
