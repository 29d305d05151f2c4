package scholar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-scholar/internal/fileutil"
)

// ResolveOutput returns the destination path for input.
//
// An empty output means the working directory. An output naming an
// existing directory, or ending with a path separator, is a directory: the
// destination is the input base name with the extension of mode's artifact.
// Anything else is taken as the destination file. Relative paths are
// resolved against cwd.
func ResolveOutput(input, output, cwd string, mode Mode) string {
	name := fileutil.ReplaceExt(input, mode.OutputExt())
	if output == "" {
		return filepath.Join(cwd, name)
	}
	isDir := strings.HasSuffix(output, string(filepath.Separator)) || strings.HasSuffix(output, "/")
	if !filepath.IsAbs(output) {
		output = filepath.Join(cwd, output)
	}
	if isDir || fileutil.DirExists(output) {
		return filepath.Join(output, name)
	}
	return output
}

// checkInput verifies input names an existing, readable regular file.
func checkInput(input string) error {
	if input == "" {
		return ErrInvalidInput
	}
	if err := fileutil.CheckReadableFile(input); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s does not exist", ErrInvalidInput, input)
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
