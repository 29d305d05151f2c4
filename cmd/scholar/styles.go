package main

import (
	"fmt"
	"io"

	"github.com/alnah/go-scholar/internal/styles"
)

// printStyles lists the style presets, marking the default.
func printStyles(w io.Writer) {
	for _, name := range styles.Names() {
		if name == styles.Default {
			fmt.Fprintf(w, "%s (default)\n", name)
			continue
		}
		fmt.Fprintln(w, name)
	}
}
