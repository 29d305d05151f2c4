package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	scholar "github.com/alnah/go-scholar"
	"github.com/alnah/go-scholar/internal/hints"
	"github.com/alnah/go-scholar/internal/report"
	"github.com/alnah/go-scholar/internal/runner"
	"github.com/alnah/go-scholar/internal/settings"
	"github.com/alnah/go-scholar/internal/stage"
	"github.com/alnah/go-scholar/internal/styles"
	"github.com/alnah/go-scholar/internal/workspace"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage            = errors.New("usage error")
	ErrNoInput          = errors.New("no input specified")
	ErrTooManyInputs    = errors.New("exactly one input file is accepted")
	ErrConflictingModes = errors.New("--to-tex and --from-tex are mutually exclusive")
)

// runConvertCmd parses flags, converts one document and returns the exit code.
func runConvertCmd(ctx context.Context, args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		newConsole(env, commonFlags{}).Error(err)
		return exitCodeFor(err)
	}

	console := newConsole(env, flags.common)
	if flags.listStyles {
		printStyles(env.Stdout)
		return ExitSuccess
	}

	req, err := buildRequest(flags, positional)
	if err != nil {
		console.Error(err)
		return exitCodeFor(err)
	}
	conv, err := newConverter(flags, env, console)
	if err != nil {
		console.Error(err)
		return exitCodeFor(err)
	}
	warnUnknownEnvVars(env, console)

	if flags.watch {
		return watchAndConvert(ctx, conv, req, flags.common.config, env, console)
	}
	return convertOnce(ctx, conv, req, env, console)
}

// buildRequest validates positional arguments and the mode flags.
// Mode conflicts are rejected before any file is touched.
func buildRequest(f *convertFlags, positional []string) (scholar.Request, error) {
	if f.mode.toTeX && f.mode.fromTeX {
		return scholar.Request{}, ErrConflictingModes
	}
	switch len(positional) {
	case 0:
		return scholar.Request{}, ErrNoInput
	case 1:
	default:
		return scholar.Request{}, fmt.Errorf("%w: got %s", ErrTooManyInputs, strings.Join(positional, ", "))
	}

	mode := scholar.ModeFull
	switch {
	case f.mode.toTeX:
		mode = scholar.ModeToTeX
	case f.mode.fromTeX:
		mode = scholar.ModeFromTeX
	}
	return scholar.Request{Input: positional[0], Output: f.output, Mode: mode}, nil
}

// newConverter builds a Converter from flags and the environment.
func newConverter(f *convertFlags, env *Environment, console *report.Console) (*scholar.Converter, error) {
	cli, err := cliSettings(f)
	if err != nil {
		return nil, err
	}
	opts := []scholar.Option{
		scholar.WithWorkingDir(env.WorkDir),
		scholar.WithCLISettings(cli),
		scholar.WithLookupEnv(env.LookupEnv),
		scholar.WithReporter(console),
		scholar.WithClock(env.Now),
	}
	if f.common.config != "" {
		opts = append(opts, scholar.WithConfigFile(f.common.config))
	}
	if f.common.strict {
		opts = append(opts, scholar.WithStrictSettings())
	}
	if f.noPreflight {
		opts = append(opts, scholar.WithoutPreflight())
	}
	if env.Runner != nil {
		opts = append(opts, scholar.WithRunner(env.Runner))
	}
	return scholar.NewConverter(opts...)
}

// convertOnce runs one conversion and reports the outcome.
func convertOnce(ctx context.Context, conv *scholar.Converter, req scholar.Request, env *Environment, console *report.Console) int {
	start := env.Now()
	res, err := conv.Convert(ctx, req)
	if err != nil {
		console.Error(withHints(err, res))
		return exitCodeFor(err)
	}
	console.Step("Wrote %s in %s", res.Output, env.Now().Sub(start).Round(time.Millisecond))
	return ExitSuccess
}

// withHints appends remediation hints for the failures users can fix.
func withHints(err error, res *scholar.Result) error {
	var hint string
	switch {
	case errors.Is(err, runner.ErrNotFound):
		hint = missingToolHint(err, res)
	case errors.Is(err, runner.ErrTimeout):
		hint = hints.ForTimeout()
	case errors.Is(err, settings.ErrConfigNotFound):
		hint = hints.ForConfigNotFound(settings.ConfigFileNames)
	case errors.Is(err, styles.ErrStyleNotFound):
		hint = hints.ForStyleNotFound(styles.Names())
	case errors.Is(err, scholar.ErrTypeset) && res != nil:
		if mentionsMinted(err) && !res.Settings.LaTeX.ShellEscape {
			hint = hints.ForShellEscape()
		} else {
			hint = hints.ForLaTeXLog(workspace.New(res.Settings.Paths.CacheDir).LatexmkOutput)
		}
	}
	if hint == "" {
		return err
	}
	return fmt.Errorf("%w%s", err, hint)
}

func missingToolHint(err error, res *scholar.Result) string {
	if res == nil {
		return hints.ForMissingTool("the required program", "tools.*")
	}
	switch {
	case strings.Contains(err.Error(), res.Settings.Tools.RsvgConvert):
		return hints.ForMissingTool(res.Settings.Tools.RsvgConvert, "tools.rsvg_convert")
	case res.FailedStage == stage.LaTeXToPDFName:
		return hints.ForMissingTool(res.Settings.Tools.Latexmk, "tools.latexmk")
	default:
		return hints.ForMissingTool(res.Settings.Tools.Pandoc, "tools.pandoc")
	}
}

func mentionsMinted(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "minted") || strings.Contains(msg, "-shell-escape")
}

// newConsole builds the reporter for the flags' verbosity.
func newConsole(env *Environment, f commonFlags) *report.Console {
	level := report.Normal
	switch {
	case f.quiet:
		level = report.Quiet
	case f.verbose:
		level = report.Verbose
	}
	_, noColor := env.LookupEnv("NO_COLOR")
	return report.NewConsole(env.Stderr, report.Options{Level: level, NoColor: f.noColor || noColor})
}

// warnUnknownEnvVars warns about SCHOLAR_* variables that map to no
// setting. Helps catch typos like SCHOLAR_ENGINE for SCHOLAR_LATEX_ENGINE.
func warnUnknownEnvVars(env *Environment, console *report.Console) {
	for _, name := range settings.UnknownEnvVars(env.Environ()) {
		console.Warn("unknown environment variable %s (typo?)", name)
	}
}
