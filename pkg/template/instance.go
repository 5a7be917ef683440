package template

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/vango-dev/trellis/internal/identity"
	"github.com/vango-dev/trellis/pkg/dom"
	"github.com/vango-dev/trellis/pkg/noderange"
)

// Instance is a rendered skeleton: its nodes, the values they reflect and
// one part per hole.
type Instance struct {
	skeleton *Skeleton
	values   []any
	parts    []part
	rng      *noderange.Range
	anc      *anchor
}

// anchor allocates an instance's first node together with the instance, so
// anything holding the node holds the instance too.
type anchor struct {
	html.Node
	inst *Instance
}

// anchorFirst swaps the first child of frag for an anchored copy. When frag
// starts with a hole marker or is empty, an anchored empty comment is
// prepended instead; that happens after targets are resolved so hole paths
// stay valid.
func anchorFirst(frag *html.Node, inst *Instance) (prepend func()) {
	a := &anchor{inst: inst}
	inst.anc = a
	first := frag.FirstChild
	if first == nil || dom.IsMarker(first) {
		a.Type = html.CommentNode
		return func() { dom.InsertBefore(frag, &a.Node, frag.FirstChild) }
	}
	a.Type, a.DataAtom, a.Data, a.Namespace = first.Type, first.DataAtom, first.Data, first.Namespace
	a.Attr = append([]html.Attribute(nil), first.Attr...)
	for c := first.FirstChild; c != nil; c = first.FirstChild {
		first.RemoveChild(c)
		a.AppendChild(c)
	}
	dom.ReplaceWith(first, &a.Node)
	return func() {}
}

// NewInstance renders res into a detached range. ctx is handed to binding
// factories; reg resolves binding holes and may be nil when the template
// has none.
func NewInstance(res *Result, ctx any, reg *Registry) (*Instance, error) {
	if res == nil {
		return nil, ErrValueCount.WithDetail("nil result")
	}
	if res.err != nil {
		return nil, res.err
	}
	sk := res.Skeleton
	if len(res.Values) != sk.slots {
		return nil, ErrValueCount.WithDetail(fmt.Sprintf("template has %d slots, got %d values", sk.slots, len(res.Values)))
	}

	inst := &Instance{
		skeleton: sk,
		values:   make([]any, len(res.Values)),
		parts:    make([]part, 0, len(sk.Holes)),
	}

	frag := sk.Fragment()
	prepend := anchorFirst(frag, inst)
	targets := make([]*html.Node, len(sk.Holes))
	for i, h := range sk.Holes {
		targets[i] = resolve(frag, h.Path)
	}
	prepend()
	for i, h := range sk.Holes {
		p, err := newPart(targets[i], h, ctx, reg)
		if err != nil {
			inst.clearParts()
			return nil, err
		}
		inst.parts = append(inst.parts, p)
	}
	for i, h := range sk.Holes {
		if err := inst.parts[i].set(res.Values[h.Start : h.Start+h.Slots]); err != nil {
			inst.clearParts()
			return nil, err
		}
	}
	copy(inst.values, res.Values)
	inst.rng = noderange.New(frag)
	return inst, nil
}

func newPart(target *html.Node, h Hole, ctx any, reg *Registry) (part, error) {
	switch h.Kind {
	case HoleNode:
		return newNodePart(target, ctx, reg), nil
	case HoleAttr:
		return &attrPart{el: target, name: h.Name, pieces: h.Strings}, nil
	case HoleBoolAttr:
		return &boolAttrPart{el: target, name: h.Name}, nil
	case HoleProp:
		return &propPart{el: target, name: h.Name, pieces: h.Strings}, nil
	case HoleEvent:
		return &eventPart{el: target, name: h.Name}, nil
	case HoleBinding:
		return newBindingPart(target, h, ctx, reg)
	}
	return nil, ErrInvalidMarkup.WithDetail(fmt.Sprintf("unknown hole kind %d", h.Kind))
}

func resolve(root *html.Node, path []int) *html.Node {
	n := root
	for _, i := range path {
		n = dom.ChildAt(n, i)
	}
	return n
}

// Skeleton returns the skeleton the instance was built from.
func (i *Instance) Skeleton() *Skeleton { return i.skeleton }

// Values returns a copy of the current values.
func (i *Instance) Values() []any {
	return append([]any(nil), i.values...)
}

// Range returns the span of nodes the instance occupies.
func (i *Instance) Range() *noderange.Range { return i.rng }

// Removed reports whether Remove has been called.
func (i *Instance) Removed() bool { return i.rng.Removed() }

// CanPatchBy reports whether res comes from the same static segments, so
// the instance can take its values instead of being replaced.
func (i *Instance) CanPatchBy(res *Result) bool {
	if res == nil || res.err != nil || res.Skeleton == nil {
		return false
	}
	if res.Skeleton == i.skeleton {
		return true
	}
	return res.Skeleton.fingerprint == i.skeleton.fingerprint &&
		i.skeleton.samePieces(res.Skeleton.Strings)
}

// Patch applies values, updating only the holes with a changed slot.
func (i *Instance) Patch(values []any) error {
	if len(values) != len(i.values) {
		return ErrValueCount.WithDetail(fmt.Sprintf("template has %d slots, got %d values", len(i.values), len(values)))
	}
	for k, h := range i.skeleton.Holes {
		prev := i.values[h.Start : h.Start+h.Slots]
		next := values[h.Start : h.Start+h.Slots]
		if !changed(prev, next) {
			continue
		}
		if err := i.parts[k].set(next); err != nil {
			return err
		}
		copy(prev, next)
	}
	return nil
}

func changed(prev, next []any) bool {
	for j := range next {
		if !identity.Same(prev[j], next[j]) {
			return true
		}
	}
	return false
}

// Remove releases every part and detaches the instance's nodes.
func (i *Instance) Remove() {
	if i.rng.Removed() {
		return
	}
	i.clearParts()
	i.rng.Remove()
}

func (i *Instance) clearParts() {
	for _, p := range i.parts {
		p.clear()
	}
}
