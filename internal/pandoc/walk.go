package pandoc

import "fmt"

// ImageFunc returns the replacement target for an image. Returning the
// target unchanged leaves the node as is.
type ImageFunc func(target string) (string, error)

// WalkImages calls fn for every Image inline in the document blocks,
// depth first in document order, and stores the returned target.
//
// Image nodes have the shape {"t":"Image","c":[attr, caption, [target, title]]}.
func WalkImages(tree map[string]any, fn ImageFunc) error {
	return walk(tree["blocks"], fn)
}

func walk(node any, fn ImageFunc) error {
	switch n := node.(type) {
	case []any:
		for _, child := range n {
			if err := walk(child, fn); err != nil {
				return err
			}
		}
	case map[string]any:
		if n["t"] == "Image" {
			if err := rewriteImage(n, fn); err != nil {
				return err
			}
		}
		if c, ok := n["c"]; ok {
			return walk(c, fn)
		}
	}
	return nil
}

func rewriteImage(n map[string]any, fn ImageFunc) error {
	c, ok := n["c"].([]any)
	if !ok || len(c) != 3 {
		return fmt.Errorf("%w: Image node with %d fields", ErrMalformedDocument, len(c))
	}
	target, ok := c[2].([]any)
	if !ok || len(target) != 2 {
		return fmt.Errorf("%w: Image target is not a [url, title] pair", ErrMalformedDocument)
	}
	url, ok := target[0].(string)
	if !ok {
		return fmt.Errorf("%w: Image url is not a string", ErrMalformedDocument)
	}
	replaced, err := fn(url)
	if err != nil {
		return err
	}
	target[0] = replaced
	return nil
}
