package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: scholar [convert] <input> [flags]")
	fmt.Fprintln(w, "       scholar <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert Markdown to LaTeX and PDF (default)")
	fmt.Fprintln(w, "  styles     List available styles")
	fmt.Fprintln(w, "  settings   Show resolved settings and where they come from")
	fmt.Fprintln(w, "  doctor     Check that pandoc, latexmk and friends are installed")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'scholar help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: scholar convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert a Markdown document to PDF through LaTeX.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file, or a .tex file with --from-tex")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory (default: current directory)")
	fmt.Fprintln(w, "      --to-tex              Stop after producing LaTeX")
	fmt.Fprintln(w, "      --from-tex            Typeset an existing .tex file")
	fmt.Fprintln(w, "  -w, --watch               Convert again when the input or config changes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Settings:")
	fmt.Fprintln(w, "  -c, --config <path>       Config file (default: scholar.yaml, scholar.yml, scholar.toml)")
	fmt.Fprintln(w, "      --style <name>        Style preset (see --styles)")
	fmt.Fprintln(w, "      --styles              List available styles and exit")
	fmt.Fprintln(w, "      --engine <name>       LaTeX engine: xelatex, lualatex, pdflatex")
	fmt.Fprintln(w, "      --shell-escape        Allow LaTeX to run external commands (minted)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-program timeout (e.g., 90s, 5m)")
	fmt.Fprintln(w, "      --set <key=value>     Set any setting, e.g. --set svg.dpi=150 (repeatable)")
	fmt.Fprintln(w, "      --strict              Reject unknown settings keys")
	fmt.Fprintln(w, "      --no-preflight        Skip the document scan")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show warnings and errors")
	fmt.Fprintln(w, "  -v, --verbose             Show commands and cache statistics")
	fmt.Fprintln(w, "      --no-color            Disable colored output")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Settings precedence, highest first: --set and flags, SCHOLAR_* environment")
	fmt.Fprintln(w, "variables, document front matter, config file, defaults.")
}

// printSettingsUsage prints usage for the settings command.
func printSettingsUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: scholar settings [input] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show the settings a conversion of input would use, with the source of")
	fmt.Fprintln(w, "each value. Without input, front matter is not consulted.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --yaml                Print the settings as a config file")
	fmt.Fprintln(w, "      --from-tex            Resolve as for a .tex input")
	fmt.Fprintln(w, "  -c, --config <path>       Config file")
	fmt.Fprintln(w, "      --set <key=value>     Set any setting (repeatable)")
	fmt.Fprintln(w, "      --strict              Reject unknown settings keys")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "settings":
		printSettingsUsage(env.Stdout)
	case "styles":
		fmt.Fprintln(env.Stdout, "Usage: scholar styles")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "List available style presets.")
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: scholar doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check the external toolchain and the cache directory.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: scholar version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: scholar help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
