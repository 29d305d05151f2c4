package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	env := DefaultEnv()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	if verboseRequested(os.Args[1:]) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			fmt.Fprintf(env.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args[1:], env)
	stop()
	os.Exit(code)
}

// verboseRequested reports whether -v or --verbose appears before flag
// parsing, so startup messages can follow the same switch.
func verboseRequested(args []string) bool {
	return slices.Contains(args, "-v") || slices.Contains(args, "--verbose")
}

// runMain dispatches args to a command and returns the exit code.
// An argument that is not a command name starts a conversion.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "convert":
		return runConvertCmd(ctx, rest, env)
	case "styles":
		printStyles(env.Stdout)
		return ExitSuccess
	case "settings":
		return runSettingsCmd(rest, env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "scholar %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	}

	if isCommandLike(cmd, env) {
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
	return runConvertCmd(ctx, args, env)
}

// isCommandLike reports whether arg looks like a mistyped command rather
// than an input file or a flag.
func isCommandLike(arg string, env *Environment) bool {
	if arg == "" || arg[0] == '-' {
		return false
	}
	for _, r := range arg {
		if r == '.' || r == '/' || r == os.PathSeparator {
			return false
		}
	}
	_, err := env.Stat(env.abs(arg))
	return err != nil
}
