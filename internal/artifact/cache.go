// Package artifact provides a content-addressed, write-once file cache for
// derived resources such as PDFs rendered from SVG images.
//
// Structure:
//
//	{Root}/
//	  {transform}/
//	    {sha256 of source content}{ext}
//
// The key depends on the source bytes only, so identical files at different
// paths share one artifact and an edited file gets a new one. Entries are
// never invalidated.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/alnah/go-scholar/internal/fileutil"
)

// Sentinel errors for cache operations.
var (
	// ErrProduce indicates the producer failed; nothing was published.
	ErrProduce = errors.New("producing artifact failed")

	// ErrEmptyArtifact indicates the producer reported success but wrote nothing.
	ErrEmptyArtifact = errors.New("producer wrote an empty artifact")

	// ErrInvalidTransform indicates a transform with an unusable ID or extension.
	ErrInvalidTransform = errors.New("invalid transform")
)

// Transform identifies one derivation and the extension of its outputs.
type Transform struct {
	ID  string // directory name, e.g. "convert_svg_to_pdf"
	Ext string // output extension including the dot, e.g. ".pdf"
}

// ProduceFunc writes the artifact derived from src to dst.
type ProduceFunc func(src, dst string) error

// Cache is a content-addressed artifact store rooted at Root.
//
// Concurrent processes may produce the same entry at the same time. Each
// producer writes a private temporary file and renames it into place, so
// the last rename wins with identical bytes; this race is benign.
type Cache struct {
	Root string

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache rooted at root. The directory is created lazily.
func New(root string) *Cache {
	return &Cache{Root: root}
}

// PathFor returns the artifact path for src under t without producing it.
func (c *Cache) PathFor(src string, t Transform) (string, error) {
	if err := t.validate(); err != nil {
		return "", err
	}
	sum, err := fileutil.HashFile(src)
	if err != nil {
		return "", fmt.Errorf("hashing source %s: %w", src, err)
	}
	return filepath.Join(c.Root, t.ID, sum+t.Ext), nil
}

// GetOrCreate returns the artifact path for src, running produce only when
// the artifact does not exist yet. On failure no file is left at the
// returned location.
func (c *Cache) GetOrCreate(src string, t Transform, produce ProduceFunc) (string, error) {
	out, err := c.PathFor(src, t)
	if err != nil {
		return "", err
	}

	if fileutil.FileExists(out) {
		c.hits.Add(1)
		return out, nil
	}
	c.misses.Add(1)

	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, fileutil.DirPerm); err != nil {
		return "", fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(out)+".tmp-*"+t.Ext)
	if err != nil {
		return "", fmt.Errorf("creating temp artifact: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	published := false
	defer func() {
		if !published {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := produce(src, tmpPath); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrProduce, src, err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrProduce, src, err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyArtifact, src)
	}

	if err := os.Rename(tmpPath, out); err != nil {
		return "", fmt.Errorf("publishing artifact %s: %w", out, err)
	}
	published = true
	return out, nil
}

// Stats returns the number of cache hits and misses since creation.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (t Transform) validate() error {
	if t.ID == "" || filepath.Base(t.ID) != t.ID || t.ID == "." || t.ID == ".." {
		return fmt.Errorf("%w: id %q", ErrInvalidTransform, t.ID)
	}
	if err := fileutil.ValidateExtension(t.Ext); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransform, err)
	}
	if t.Ext[0] != '.' {
		return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalidTransform, t.Ext)
	}
	return nil
}
