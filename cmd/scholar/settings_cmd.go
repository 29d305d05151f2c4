package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	scholar "github.com/alnah/go-scholar"
	"github.com/alnah/go-scholar/internal/settings"
	"github.com/alnah/go-scholar/internal/yamlutil"
)

// runSettingsCmd prints the resolved settings. By default every leaf is
// listed with the source that set it; --yaml prints a config file instead.
func runSettingsCmd(args []string, env *Environment) int {
	asYAML := slices.Contains(args, "--yaml")
	args = slices.DeleteFunc(slices.Clone(args), func(a string) bool { return a == "--yaml" })

	flags, positional, err := parseSettingsFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		newConsole(env, commonFlags{}).Error(err)
		return exitCodeFor(err)
	}
	console := newConsole(env, flags.common)
	if len(positional) > 1 {
		err := fmt.Errorf("%w: got %s", ErrTooManyInputs, strings.Join(positional, ", "))
		console.Error(err)
		return exitCodeFor(err)
	}

	conv, err := newConverter(flags, env, console)
	if err != nil {
		console.Error(err)
		return exitCodeFor(err)
	}
	var input string
	if len(positional) == 1 {
		input = positional[0]
	}
	mode := scholar.ModeFull
	if flags.mode.fromTeX {
		mode = scholar.ModeFromTeX
	}

	r, err := conv.ResolveSettings(input, mode)
	if err != nil {
		console.Error(withHints(err, nil))
		return exitCodeFor(err)
	}

	if asYAML {
		out, err := yamlutil.Marshal(r.Settings.Map())
		if err != nil {
			console.Error(err)
			return ExitGeneral
		}
		_, _ = env.Stdout.Write(out)
		return ExitSuccess
	}
	printSettings(env.Stdout, r)
	return ExitSuccess
}

// printSettings writes one "key value origin" row per setting.
func printSettings(w io.Writer, r *settings.Resolution) {
	m := r.Settings.Map()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")

	row := func(path string, v any, ok bool) {
		origin := r.Origins[path]
		if origin == "" {
			origin = settings.SourceDefaults
		}
		value := "-"
		if ok {
			value = formatValue(v)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", path, value, origin)
	}

	for _, p := range settings.LeafPaths() {
		v, ok := lookup(m, p)
		row(p, v, ok)
	}
	for _, id := range r.Settings.ReferenceIDs() {
		row("references."+id, r.Settings.References[id], true)
	}
	_ = tw.Flush()
}

// lookup returns the value at a dotted path of a nested map.
func lookup(m map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			return nil, false
		}
		m = next
	}
	v, ok := m[parts[len(parts)-1]]
	return v, ok
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return `""`
		}
		return t
	case []any:
		items := make([]string, len(t))
		for i, e := range t {
			items[i] = fmt.Sprint(e)
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}
