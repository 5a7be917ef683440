// Package noderange tracks a span of sibling nodes by fixed start and end
// nodes, so the span can be moved, extracted or removed as a unit even after
// the nodes between the two ends have been replaced.
package noderange

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/pkg/dom"
)

var (
	// ErrRemoved is returned when a removed range is asked for its content.
	ErrRemoved = errors.New("T050")

	// ErrBroken is returned when the end node is not a following sibling of
	// the start node.
	ErrBroken = errors.New("T051")
)

// Range is a span of siblings bounded by two nodes whose identity never
// changes after construction.
type Range struct {
	start   *html.Node
	end     *html.Node
	removed bool
}

// New takes ownership of the children of frag. When the first child is a
// hole marker (content will be inserted before it) or frag is empty, a
// synthetic empty comment is prepended so the range still has a stable
// first node.
func New(frag *html.Node) *Range {
	first := frag.FirstChild
	if first == nil || dom.IsMarker(first) {
		anchor := dom.NewComment("")
		dom.InsertBefore(frag, anchor, first)
		first = anchor
	}
	return &Range{start: first, end: frag.LastChild}
}

// Between builds a range over existing siblings start..end inclusive.
func Between(start, end *html.Node) *Range {
	return &Range{start: start, end: end}
}

// First returns the start node.
func (r *Range) First() *html.Node { return r.start }

// Last returns the end node.
func (r *Range) Last() *html.Node { return r.end }

// Removed reports whether Remove has been called.
func (r *Range) Removed() bool { return r.removed }

// Parent returns the current parent of the span.
func (r *Range) Parent() *html.Node { return r.start.Parent }

// Nodes walks from the start node to the end node inclusive and never past it.
func (r *Range) Nodes() []*html.Node {
	var out []*html.Node
	for n := r.start; n != nil; n = n.NextSibling {
		out = append(out, n)
		if n == r.end {
			break
		}
	}
	return out
}

// FirstElement returns the first element node in the span, or nil.
func (r *Range) FirstElement() *html.Node {
	for _, n := range r.Nodes() {
		if n.Type == html.ElementNode {
			return n
		}
	}
	return nil
}

// ExtractToFragment detaches the span into a fresh fragment. Calling it
// again recomputes the span, so nodes attached in between are included.
func (r *Range) ExtractToFragment() (*html.Node, error) {
	if r.removed {
		return nil, ErrRemoved
	}
	nodes, err := r.span()
	if err != nil {
		return nil, err
	}
	frag := dom.NewFragment()
	for _, n := range nodes {
		dom.AppendChild(frag, n)
	}
	return frag, nil
}

// InsertBefore moves the span into parent before ref (append when ref is
// nil). It does nothing when the span already sits right before ref.
func (r *Range) InsertBefore(parent, ref *html.Node) error {
	if r.removed {
		return ErrRemoved
	}
	if r.start.Parent == parent && r.end.NextSibling == ref && r.start.Parent != nil {
		return nil
	}
	nodes, err := r.span()
	if err != nil {
		return err
	}
	for _, n := range nodes {
		dom.InsertBefore(parent, n, ref)
	}
	return nil
}

// Remove detaches every node of the span. The range cannot be extracted
// afterwards.
func (r *Range) Remove() {
	if r.removed {
		return
	}
	if nodes, err := r.span(); err == nil {
		for _, n := range nodes {
			dom.Remove(n)
		}
	} else {
		dom.Remove(r.start)
		dom.Remove(r.end)
	}
	r.removed = true
}

// span collects the nodes and checks that the end node was reached.
func (r *Range) span() ([]*html.Node, error) {
	nodes := r.Nodes()
	if len(nodes) == 0 || nodes[len(nodes)-1] != r.end {
		return nil, ErrBroken
	}
	return nodes, nil
}
