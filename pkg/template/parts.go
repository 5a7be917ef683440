package template

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/vango-dev/trellis/pkg/dom"
)

// part is the live side of one hole.
type part interface {
	// set applies the hole's values.
	set(values []any) error
	// clear releases what the part installed.
	clear()
}

type attrPart struct {
	el     *html.Node
	name   string
	pieces []string
}

func (p *attrPart) set(values []any) error {
	if p.pieces == nil {
		if values[0] == nil {
			dom.RemoveAttr(p.el, p.name)
			return nil
		}
		dom.SetAttr(p.el, p.name, stringify(values[0]))
		return nil
	}
	dom.SetAttr(p.el, p.name, interpolate(p.pieces, values))
	return nil
}

func (p *attrPart) clear() {}

type boolAttrPart struct {
	el   *html.Node
	name string
}

func (p *boolAttrPart) set(values []any) error {
	if truthy(values[0]) {
		dom.SetAttr(p.el, p.name, "")
	} else {
		dom.RemoveAttr(p.el, p.name)
	}
	return nil
}

func (p *boolAttrPart) clear() {}

type propPart struct {
	el     *html.Node
	name   string
	pieces []string
}

func (p *propPart) set(values []any) error {
	if p.pieces != nil {
		dom.SetProperty(p.el, p.name, interpolate(p.pieces, values))
		return nil
	}
	if values[0] == nil {
		dom.DeleteProperty(p.el, p.name)
		return nil
	}
	dom.SetProperty(p.el, p.name, values[0])
	return nil
}

func (p *propPart) clear() {}

// eventPart installs one listener and swaps the handler behind it, so a
// new function value never touches the node. The listener only reaches the
// slot, never the element it is registered on.
type eventPart struct {
	el    *html.Node
	name  string
	slot  *eventSlot
	id    dom.ListenerID
	bound bool
}

type eventSlot struct {
	handler dom.Listener
}

func (s *eventSlot) dispatch(ev *dom.Event) {
	if s.handler != nil {
		s.handler(ev)
	}
}

func (p *eventPart) set(values []any) error {
	if values[0] == nil {
		p.clear()
		return nil
	}
	fn, ok := handler(values[0])
	if !ok {
		return ErrInvalidEventHandler.WithDetail(fmt.Sprintf("@%s got %T", p.name, values[0]))
	}
	if p.slot == nil {
		p.slot = &eventSlot{}
	}
	p.slot.handler = fn
	if !p.bound {
		p.id = dom.AddEventListener(p.el, p.name, p.slot.dispatch)
		p.bound = true
	}
	return nil
}

func (p *eventPart) clear() {
	if p.bound {
		dom.RemoveEventListener(p.el, p.name, p.id)
		p.bound = false
	}
	if p.slot != nil {
		p.slot.handler = nil
	}
}

type bindingPart struct {
	binding Binding
}

func newBindingPart(el *html.Node, h Hole, ctx any, reg *Registry) (*bindingPart, error) {
	f, ok := reg.Lookup(h.Name)
	if !ok {
		return nil, ErrUnknownBinding.WithDetail(fmt.Sprintf("no binding named %q", h.Name))
	}
	b, err := f(el, ctx, h.Modifiers)
	if err != nil {
		return nil, err
	}
	return &bindingPart{binding: b}, nil
}

func (p *bindingPart) set(values []any) error {
	return p.binding.Update(values)
}

func (p *bindingPart) clear() {
	p.binding.Remove()
}
