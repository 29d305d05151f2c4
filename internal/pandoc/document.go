package pandoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/alnah/go-scholar/internal/fileutil"
)

// Sentinel errors for document handling.
var (
	// ErrMalformedDocument indicates JSON that is not a pandoc document.
	ErrMalformedDocument = errors.New("malformed pandoc document")

	// ErrNoAPIVersion indicates a document without a pandoc-api-version.
	ErrNoAPIVersion = errors.New("document has no pandoc-api-version")
)

// DefaultAPIVersion is stamped on generated documents until the version of
// the installed pandoc is known.
var DefaultAPIVersion = []int{1, 23, 1}

const apiVersionKey = "pandoc-api-version"

// Doc is the envelope of a pandoc JSON document.
type Doc struct {
	APIVersion []int                `json:"pandoc-api-version"`
	Meta       map[string]MetaValue `json:"meta"`
	Blocks     []any                `json:"blocks"`
}

// NewMetadataDoc returns a document with no blocks carrying meta.
func NewMetadataDoc(meta map[string]any) Doc {
	return Doc{
		APIVersion: DefaultAPIVersion,
		Meta:       MetaFromMap(meta),
		Blocks:     []any{},
	}
}

// Encode writes d as JSON without HTML escaping.
func (d Doc) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(d)
}

// WriteFile writes d to path atomically.
func (d Doc) WriteFile(path string) error {
	return fileutil.WriteAtomic(path, d.Encode)
}

// APIVersion returns the pandoc-api-version of a JSON document.
func APIVersion(data []byte) ([]int, error) {
	r := gjson.GetBytes(data, apiVersionKey)
	if !r.IsArray() {
		return nil, ErrNoAPIVersion
	}
	var v []int
	for _, part := range r.Array() {
		if part.Type != gjson.Number {
			return nil, fmt.Errorf("%w: non-numeric %s component %s", ErrMalformedDocument, apiVersionKey, part.Raw)
		}
		v = append(v, int(part.Int()))
	}
	if len(v) == 0 {
		return nil, ErrNoAPIVersion
	}
	return v, nil
}

// SetAPIVersion returns data with its pandoc-api-version replaced by v.
// pandoc refuses to merge documents whose versions differ.
func SetAPIVersion(data []byte, v []int) ([]byte, error) {
	out, err := sjson.SetBytes(data, apiVersionKey, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return out, nil
}

// SyncAPIVersion rewrites the document at path to carry the
// pandoc-api-version of the document at reference.
func SyncAPIVersion(path, reference string) error {
	ref, err := os.ReadFile(reference)
	if err != nil {
		return err
	}
	want, err := APIVersion(ref)
	if err != nil {
		return fmt.Errorf("%s: %w", reference, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if have, err := APIVersion(data); err == nil && equalVersions(have, want) {
		return nil
	}
	out, err := SetAPIVersion(data, want)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return fileutil.WriteFileAtomic(path, out)
}

func equalVersions(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ReadTree decodes a pandoc JSON document into a generic tree. Numbers are
// kept as json.Number so that re-encoding is lossless.
func ReadTree(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeTree(data)
}

// DecodeTree decodes data into a generic tree.
func DecodeTree(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree map[string]any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if _, ok := tree["blocks"].([]any); !ok {
		return nil, fmt.Errorf("%w: missing blocks", ErrMalformedDocument)
	}
	return tree, nil
}

// WriteTree encodes tree to path atomically.
func WriteTree(path string, tree map[string]any) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(tree)
	})
}
