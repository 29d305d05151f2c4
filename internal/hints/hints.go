// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"strings"
)

// ForConfigNotFound returns hints for config file not found errors.
// Suggests the discoverable file names when no explicit path was given.
func ForConfigNotFound(discoverable []string) string {
	hint := "use --config /path/to/scholar.yaml"
	if len(discoverable) > 0 {
		hint += " or create " + strings.Join(discoverable, " / ") + " in the working directory"
	}
	return format(hint)
}

// ForSettingsSources names the sources that contributed data to a failed
// resolution, highest precedence first.
func ForSettingsSources(names []string) string {
	if len(names) == 0 {
		return format("no source provided any data; only defaults were used")
	}
	return format("sources with data: " + strings.Join(names, ", "))
}

// ForStyleNotFound returns hints for style not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForMissingTool returns hints when an external program cannot be started.
func ForMissingTool(tool, settingsKey string) string {
	return formatHints([]string{
		"install " + tool + " or put it on PATH",
		"point " + settingsKey + " at the executable",
		"run 'scholar doctor' to check the toolchain",
	})
}

// ForShellEscape returns the hint shown when minted needs shell escape.
func ForShellEscape() string {
	return format("code blocks are rendered with minted, which needs --shell-escape (or latex.shell_escape: true)")
}

// ForLaTeXLog returns a hint pointing at the latexmk output directory.
func ForLaTeXLog(dir string) string {
	if dir == "" {
		return ""
	}
	return format("inspect the .log file in " + dir)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
