package filters

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-scholar/internal/artifact"
	"github.com/alnah/go-scholar/internal/fileutil"
	"github.com/alnah/go-scholar/internal/pandoc"
	"github.com/alnah/go-scholar/internal/runner"
)

// Sentinel errors for SVG conversion.
var (
	ErrImageNotFound = errors.New("image not found")
	ErrSVGConversion = errors.New("SVG to PDF conversion failed")
)

// SVGTransform identifies converted SVG images in the artifact cache.
var SVGTransform = artifact.Transform{ID: "convert_svg_to_pdf", Ext: ".pdf"}

// SVGToPDF replaces every local .svg image with a PDF rendered by
// rsvg-convert. Conversions go through the artifact cache, so an image is
// converted once per distinct content.
type SVGToPDF struct {
	Cache   *artifact.Cache
	Runner  runner.Runner
	Program string // rsvg-convert executable
	DPI     int

	// ResourceDirs resolve relative image targets, first match wins.
	ResourceDirs []string

	// OnConvert, when set, is called after each real conversion.
	OnConvert func(res *runner.Result)
}

// Apply implements NativeFilter.
func (f *SVGToPDF) Apply(ctx context.Context, tree map[string]any) error {
	return pandoc.WalkImages(tree, func(target string) (string, error) {
		if !isLocalSVG(target) {
			return target, nil
		}
		src, err := f.locate(target)
		if err != nil {
			return "", err
		}
		out, err := f.Cache.GetOrCreate(src, SVGTransform, func(in, dst string) error {
			return f.convert(ctx, in, dst)
		})
		if err != nil {
			return "", err
		}
		return filepath.ToSlash(out), nil
	})
}

func (f *SVGToPDF) convert(ctx context.Context, in, out string) error {
	dpi := strconv.Itoa(f.DPI)
	res, err := f.Runner.Run(ctx, runner.Command{
		Name: f.Program,
		Args: []string{
			"--format", "pdf",
			"--dpi-x", dpi,
			"--dpi-y", dpi,
			"--output", out,
			in,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSVGConversion, in, err)
	}
	if f.OnConvert != nil {
		f.OnConvert(res)
	}
	if !res.OK() {
		return fmt.Errorf("%w: %s: exit code %d: %s", ErrSVGConversion, in, res.ExitCode, res.Tail(5))
	}
	return nil
}

func (f *SVGToPDF) locate(target string) (string, error) {
	p := filepath.FromSlash(target)
	if filepath.IsAbs(p) {
		if fileutil.FileExists(p) {
			return p, nil
		}
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, target)
	}
	for _, dir := range f.ResourceDirs {
		candidate := filepath.Join(dir, p)
		if fileutil.FileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched %s)", ErrImageNotFound, target, strings.Join(f.ResourceDirs, ", "))
}

func isLocalSVG(target string) bool {
	if u, err := url.Parse(target); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return false
	}
	return strings.EqualFold(filepath.Ext(target), ".svg")
}
