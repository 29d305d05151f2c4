package preflight

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlImages returns the src of every <img> element in a raw HTML
// fragment. Unparseable fragments yield nothing.
func htmlImages(fragment string) []string {
	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil
	}
	var out []string
	for _, n := range nodes {
		collectImages(n, &out)
	}
	return out
}

func collectImages(n *html.Node, out *[]string) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		for _, a := range n.Attr {
			if a.Key == "src" && a.Val != "" {
				*out = append(*out, a.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectImages(c, out)
	}
}
