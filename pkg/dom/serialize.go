package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Serialize renders n as HTML. A fragment renders its children.
func Serialize(n *html.Node) string {
	var b strings.Builder
	if IsFragment(n) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			_ = html.Render(&b, c)
		}
		return b.String()
	}
	_ = html.Render(&b, n)
	return b.String()
}

// SerializeChildren renders only the children of n.
func SerializeChildren(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}
