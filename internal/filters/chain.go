// Package filters declares the ordered chain of document filters applied
// between content generation and the LaTeX render.
//
// A filter is either a pandoc filter program (Lua or JSON, run by pandoc
// itself) or a native filter applied by scholar to the content document
// before pandoc renders it. Native filters therefore always run first.
//
// Filters that create document nodes for later filters declare a Provides
// tag; consumers declare the same tag in Requires. Validate rejects any
// chain where a requirement is not provided by a strictly earlier filter.
package filters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/go-scholar/internal/pandoc"
)

// Sentinel errors for chain validation.
var (
	ErrDuplicateFilter      = errors.New("duplicate filter")
	ErrUnsatisfiedRequire   = errors.New("filter requirement not provided by an earlier filter")
	ErrNativeOrder          = errors.New("native filters must precede pandoc filters")
	ErrUnknownKind          = errors.New("unknown filter kind")
	ErrMissingProgram       = errors.New("filter has no program")
	ErrMissingNativeHandler = errors.New("native filter has no implementation")
)

// Kind is the invocation kind of a filter.
type Kind string

const (
	// Lua filters run inside pandoc (--lua-filter).
	Lua Kind = "lua"
	// JSON filters are external programs streaming the whole document (--filter).
	JSON Kind = "json"
	// Native filters run in-process over the content document.
	Native Kind = "native"
)

// NativeFilter transforms a decoded pandoc document in place.
type NativeFilter interface {
	Apply(ctx context.Context, tree map[string]any) error
}

// Spec describes one filter.
type Spec struct {
	Name     string
	Kind     Kind
	Program  string       // script or executable path, for Lua and JSON filters
	Impl     NativeFilter // for Native filters
	Provides []string
	Requires []string
}

// Chain is an ordered filter list.
type Chain []Spec

// Validate checks names, kinds and ordering.
func (c Chain) Validate() error {
	seen := map[string]bool{}
	provided := map[string]bool{}
	pandocSeen := false

	for i, f := range c {
		if seen[f.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateFilter, f.Name)
		}
		seen[f.Name] = true

		switch f.Kind {
		case Native:
			if pandocSeen {
				return fmt.Errorf("%w: %q at position %d", ErrNativeOrder, f.Name, i)
			}
			if f.Impl == nil {
				return fmt.Errorf("%w: %q", ErrMissingNativeHandler, f.Name)
			}
		case Lua, JSON:
			pandocSeen = true
			if f.Program == "" {
				return fmt.Errorf("%w: %q", ErrMissingProgram, f.Name)
			}
		default:
			return fmt.Errorf("%w: %q for %q", ErrUnknownKind, f.Kind, f.Name)
		}

		for _, r := range f.Requires {
			if !provided[r] {
				return fmt.Errorf("%w: %q requires %q", ErrUnsatisfiedRequire, f.Name, r)
			}
		}
		for _, p := range f.Provides {
			provided[p] = true
		}
	}
	return nil
}

// Names returns the filter names in order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, f := range c {
		names[i] = f.Name
	}
	return names
}

// Args renders the pandoc options for the Lua and JSON filters, in order.
func (c Chain) Args() []string {
	var args []string
	for _, f := range c {
		switch f.Kind {
		case Lua:
			args = append(args, "--lua-filter", f.Program)
		case JSON:
			args = append(args, "--filter", f.Program)
		}
	}
	return args
}

// Native returns the native filters, in order.
func (c Chain) Native() Chain {
	return slices.DeleteFunc(slices.Clone(c), func(f Spec) bool { return f.Kind != Native })
}

// ApplyNative runs the native filters over the document at path, rewriting
// it in place. The file is left untouched when there are no native filters.
func (c Chain) ApplyNative(ctx context.Context, path string) error {
	natives := c.Native()
	if len(natives) == 0 {
		return nil
	}
	tree, err := pandoc.ReadTree(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for _, f := range natives {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.Impl.Apply(ctx, tree); err != nil {
			return fmt.Errorf("filter %s: %w", f.Name, err)
		}
	}
	if err := pandoc.WriteTree(path, tree); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// MissingPrograms returns the Lua and JSON filter programs that cannot be
// found. Bare JSON filter names are looked up in PATH.
func (c Chain) MissingPrograms() []string {
	var missing []string
	for _, f := range c {
		if f.Kind == Native {
			continue
		}
		if f.Kind == JSON && !strings.ContainsRune(f.Program, filepath.Separator) {
			if _, err := exec.LookPath(f.Program); err != nil {
				missing = append(missing, f.Program)
			}
			continue
		}
		if _, err := os.Stat(f.Program); err != nil {
			missing = append(missing, f.Program)
		}
	}
	return missing
}
