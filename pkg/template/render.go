package template

import (
	"runtime"
	"sync"
	"weak"

	"golang.org/x/net/html"
)

type renderOptions struct {
	ctx    any
	reg    *Registry
	before *html.Node
}

// RenderOption configures Render.
type RenderOption func(*renderOptions)

// WithContext sets the context passed to binding factories.
func WithContext(ctx any) RenderOption {
	return func(o *renderOptions) {
		o.ctx = ctx
	}
}

// WithBindings sets the binding registry.
func WithBindings(reg *Registry) RenderOption {
	return func(o *renderOptions) {
		o.reg = reg
	}
}

// WithBefore makes a first render insert before ref instead of appending.
func WithBefore(ref *html.Node) RenderOption {
	return func(o *renderOptions) {
		o.before = ref
	}
}

// rendered maps each container to the anchor of the instance last rendered
// into it. Both sides are weak: the instance lives as long as its first node
// does, and the entry goes away with the container.
var rendered = struct {
	sync.Mutex
	m map[weak.Pointer[html.Node]]weak.Pointer[anchor]
}{m: make(map[weak.Pointer[html.Node]]weak.Pointer[anchor])}

// Rendered returns the instance last rendered into container, or nil.
func Rendered(container *html.Node) *Instance {
	rendered.Lock()
	defer rendered.Unlock()
	if a := rendered.m[weak.Make(container)].Value(); a != nil {
		return a.inst
	}
	return nil
}

func remember(container *html.Node, inst *Instance) {
	key := weak.Make(container)
	rendered.Lock()
	_, existed := rendered.m[key]
	if inst == nil {
		delete(rendered.m, key)
	} else {
		rendered.m[key] = weak.Make(inst.anc)
	}
	rendered.Unlock()

	if !existed && inst != nil {
		runtime.AddCleanup(container, func(k weak.Pointer[html.Node]) {
			rendered.Lock()
			delete(rendered.m, k)
			rendered.Unlock()
		}, key)
	}
}

// Render renders res into container. When container already holds an
// instance from compatible segments it is patched; otherwise the old
// instance is replaced in place. A nil res removes what was rendered.
func Render(res *Result, container *html.Node, opts ...RenderOption) (*Instance, error) {
	var o renderOptions
	for _, opt := range opts {
		opt(&o)
	}

	prev := Rendered(container)
	if prev != nil && prev.Removed() {
		prev = nil
	}
	if res == nil {
		if prev != nil {
			prev.Remove()
		}
		remember(container, nil)
		return nil, nil
	}
	if prev != nil && prev.CanPatchBy(res) {
		return prev, prev.Patch(res.Values)
	}

	inst, err := NewInstance(res, o.ctx, o.reg)
	if err != nil {
		return nil, err
	}

	ref := o.before
	if prev != nil {
		ref = prev.rng.Last().NextSibling
		prev.Remove()
	}
	if err := inst.rng.InsertBefore(container, ref); err != nil {
		return nil, err
	}
	remember(container, inst)
	return inst, nil
}
