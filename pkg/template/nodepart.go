package template

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/trellis/internal/identity"
	"github.com/vango-dev/trellis/pkg/dom"
	"github.com/vango-dev/trellis/pkg/edit"
	"github.com/vango-dev/trellis/pkg/noderange"
)

type contentKind uint8

const (
	contentEmpty contentKind = iota
	contentText
	contentNode
	contentTemplate
	contentList
	contentDynamic
)

// nodePart owns the siblings strictly between start and end.
type nodePart struct {
	start, end *html.Node
	ctx        any
	reg        *Registry

	kind  contentKind
	value any
	text  *html.Node
	inst  *Instance
	items []*listItem
}

type listItem struct {
	key  any
	part *nodePart
}

// newNodePart puts an empty comment before marker to open the part.
func newNodePart(marker *html.Node, ctx any, reg *Registry) *nodePart {
	start := dom.NewComment("")
	dom.InsertBefore(marker.Parent, start, marker)
	return &nodePart{start: start, end: marker, ctx: ctx, reg: reg}
}

// newItemPart creates a detached part for a list item.
func newItemPart(ctx any, reg *Registry) *nodePart {
	frag := dom.NewFragment()
	start, end := dom.NewComment(""), dom.NewMarker()
	dom.AppendChild(frag, start)
	dom.AppendChild(frag, end)
	return &nodePart{start: start, end: end, ctx: ctx, reg: reg}
}

func (p *nodePart) set(values []any) error {
	return p.setValue(values[0])
}

func (p *nodePart) parent() *html.Node { return p.end.Parent }

func (p *nodePart) setValue(v any) error {
	if k, ok := v.(Keyed); ok {
		v = k.Value
	}
	switch x := v.(type) {
	case nil:
		p.clear()
		return nil
	case string:
		p.setText(x)
		return nil
	case *Result:
		if x == nil {
			p.clear()
			return nil
		}
		return p.setTemplate(x)
	case *html.Node:
		if x == nil {
			p.clear()
			return nil
		}
		p.setNode(x)
		return nil
	case Dynamic:
		return p.setDynamic(x)
	}
	if list, ok := asList(v); ok {
		return p.setList(list)
	}
	p.setText(stringify(v))
	return nil
}

func (p *nodePart) setText(s string) {
	if p.kind == contentText {
		dom.SetText(p.text, s)
		return
	}
	p.clear()
	p.text = dom.NewText(s)
	dom.InsertBefore(p.parent(), p.text, p.end)
	p.kind = contentText
}

func (p *nodePart) setNode(n *html.Node) {
	if p.kind == contentNode && p.value == n {
		return
	}
	p.clear()
	dom.InsertBefore(p.parent(), n, p.end)
	p.kind, p.value = contentNode, n
}

func (p *nodePart) setTemplate(r *Result) error {
	if r.err != nil {
		return r.err
	}
	if p.kind == contentTemplate && p.inst.CanPatchBy(r) {
		return p.inst.Patch(r.Values)
	}
	inst, err := NewInstance(r, p.ctx, p.reg)
	if err != nil {
		return err
	}
	p.clear()
	if err := inst.rng.InsertBefore(p.parent(), p.end); err != nil {
		return err
	}
	p.kind, p.inst = contentTemplate, inst
	return nil
}

func (p *nodePart) setDynamic(d Dynamic) error {
	if p.kind == contentDynamic && identity.Same(p.value, d) {
		return nil
	}
	p.clear()
	p.kind, p.value = contentDynamic, d
	return d.Mount(p.parent(), p.end)
}

// setList reconciles list items by key. Matched items keep their nodes,
// removed items are reused for new ones where possible, and only items the
// edit script relocates are moved.
func (p *nodePart) setList(values []any) error {
	if p.kind != contentList {
		p.clear()
		p.kind = contentList
	}

	newKeys := make([]any, len(values))
	for i, v := range values {
		newKeys[i] = itemKey(v)
	}
	oldKeys := make([]any, len(p.items))
	for i, it := range p.items {
		oldKeys[i] = it.key
	}
	ops := edit.ComputeKeys(oldKeys, newKeys, true)

	for _, op := range ops {
		if op.Kind == edit.Delete {
			p.items[op.From].remove()
		}
	}

	next := make([]*listItem, len(values))
	placed := make([]edit.Op, len(values))
	for _, op := range ops {
		if op.Kind == edit.Delete {
			continue
		}
		var it *listItem
		if op.Reuses() {
			it = p.items[op.From]
		} else {
			it = &listItem{part: newItemPart(p.ctx, p.reg)}
		}
		it.key = newKeys[op.To]
		next[op.To] = it
		placed[op.To] = op
	}

	parent, before := p.parent(), p.end
	for j := len(next) - 1; j >= 0; j-- {
		it := next[j]
		if placed[j].Relocates() {
			rng := noderange.Between(it.part.start, it.part.end)
			if err := rng.InsertBefore(parent, before); err != nil {
				return err
			}
		}
		before = it.part.start
	}
	p.items = next

	var firstErr error
	for j, it := range next {
		if err := it.part.setValue(values[j]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func itemKey(v any) any {
	if k, ok := v.(Keyed); ok {
		return k.Key
	}
	return v
}

func (it *listItem) remove() {
	it.part.clear()
	dom.Remove(it.part.start)
	dom.Remove(it.part.end)
}

// clear empties the part.
func (p *nodePart) clear() {
	switch p.kind {
	case contentTemplate:
		p.inst.Remove()
	case contentDynamic:
		p.value.(Dynamic).Unmount()
	case contentList:
		for _, it := range p.items {
			it.remove()
		}
	}
	for n := p.start.NextSibling; n != nil && n != p.end; {
		next := n.NextSibling
		dom.Remove(n)
		n = next
	}
	p.kind = contentEmpty
	p.value, p.text, p.inst, p.items = nil, nil, nil, nil
}
