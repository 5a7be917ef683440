package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkerData is the comment text the template parser uses for node holes.
const MarkerData = "?"

// NewFragment returns an empty container whose children move as a group.
func NewFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// IsFragment reports whether n is a fragment container.
func IsFragment(n *html.Node) bool {
	return n != nil && n.Type == html.DocumentNode
}

// NewElement creates a detached element.
func NewElement(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

// NewText creates a detached text node.
func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// NewComment creates a detached comment node.
func NewComment(s string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: s}
}

// NewMarker creates a hole marker comment.
func NewMarker() *html.Node {
	return NewComment(MarkerData)
}

// IsMarker reports whether n is a hole marker comment.
func IsMarker(n *html.Node) bool {
	return n != nil && n.Type == html.CommentNode && n.Data == MarkerData
}

// InsertBefore inserts n into parent before ref, or appends when ref is nil.
// A node that already has a parent is moved. Inserting a fragment moves all
// of its children and leaves the fragment empty.
func InsertBefore(parent, n, ref *html.Node) {
	if IsFragment(n) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			InsertBefore(parent, c, ref)
			c = next
		}
		return
	}
	if n == ref || (n.Parent == parent && n.NextSibling == ref) {
		return
	}
	if n.Parent != nil {
		Remove(n)
	}
	parent.InsertBefore(n, ref)
	notify(parent, Mutation{Kind: MutationChildList, Target: parent, Added: n})
}

// AppendChild appends n to parent.
func AppendChild(parent, n *html.Node) {
	InsertBefore(parent, n, nil)
}

// Remove detaches n from its parent. It is a no-op for detached nodes.
func Remove(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	parent.RemoveChild(n)
	notify(parent, Mutation{Kind: MutationChildList, Target: parent, Removed: n})
}

// ReplaceWith puts n where old is and detaches old.
func ReplaceWith(old, n *html.Node) {
	if old.Parent == nil {
		return
	}
	InsertBefore(old.Parent, n, old)
	Remove(old)
}

// Children returns the children of n as a slice.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ChildAt returns the i-th child of n, or nil.
func ChildAt(n *html.Node, i int) *html.Node {
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

// SetText replaces the character data of a text or comment node.
func SetText(n *html.Node, s string) {
	if n.Data == s {
		return
	}
	old := n.Data
	n.Data = s
	notify(n, Mutation{Kind: MutationCharacterData, Target: n, OldValue: old})
}

// TextContent returns the concatenated text of n's subtree.
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
			walk(c.FirstChild)
		}
	}
	walk(n.FirstChild)
	return b.String()
}

// Clone deep-copies n and its subtree. Properties and listeners are not
// copied, matching cloneNode on a browser DOM.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// AppendText appends a new text node to parent and returns it.
func AppendText(parent *html.Node, s string) *html.Node {
	t := NewText(s)
	AppendChild(parent, t)
	return t
}
