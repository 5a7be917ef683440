package template

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/net/html"

	"github.com/vango-dev/trellis/pkg/dom"
)

var bound = []string{`<div :toggle.on.off=`, `>x</div>`}

type toggleBinding struct {
	host      *html.Node
	ctx       any
	modifiers []string
	updates   [][]any
	removed   bool
}

func (b *toggleBinding) Update(values []any) error {
	on, ok := values[0].(bool)
	if !ok {
		return ErrBindingValue
	}
	b.updates = append(b.updates, values)
	if on {
		dom.SetAttr(b.host, "data-on", "")
	} else {
		dom.RemoveAttr(b.host, "data-on")
	}
	return nil
}

func (b *toggleBinding) Remove() {
	b.removed = true
	dom.RemoveAttr(b.host, "data-on")
}

func newToggleRegistry(created *[]*toggleBinding) *Registry {
	reg := NewRegistry()
	reg.Register("toggle", func(host *html.Node, ctx any, modifiers []string) (Binding, error) {
		b := &toggleBinding{host: host, ctx: ctx, modifiers: modifiers}
		*created = append(*created, b)
		return b, nil
	})
	return reg
}

func TestBindingLifecycle(t *testing.T) {
	var created []*toggleBinding
	reg := newToggleRegistry(&created)
	container := dom.NewElement("main")

	inst, err := Render(HTML(bound, true), container, WithBindings(reg), WithContext("owner"))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d bindings, want 1", len(created))
	}
	b := created[0]
	if b.ctx != "owner" {
		t.Errorf("ctx = %v, want owner", b.ctx)
	}
	if diff := cmp.Diff([]string{"on", "off"}, b.modifiers); diff != "" {
		t.Errorf("modifiers mismatch (-want +got):\n%s", diff)
	}
	if !dom.HasAttr(b.host, "data-on") {
		t.Error("binding did not update its host")
	}

	if err := inst.Patch([]any{true}); err != nil {
		t.Fatal(err)
	}
	if err := inst.Patch([]any{false}); err != nil {
		t.Fatal(err)
	}
	want := [][]any{{true}, {false}}
	if diff := cmp.Diff(want, b.updates, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%s", diff)
	}

	if err := inst.Patch([]any{"yes"}); !errors.Is(err, ErrBindingValue) {
		t.Errorf("Patch() error = %v, want ErrBindingValue", err)
	}

	inst.Remove()
	if !b.removed {
		t.Error("Remove() did not reach the binding")
	}
}

func TestUnknownBinding(t *testing.T) {
	if _, err := NewInstance(HTML(bound, true), nil, NewRegistry()); !errors.Is(err, ErrUnknownBinding) {
		t.Errorf("NewInstance() error = %v, want ErrUnknownBinding", err)
	}
	if _, err := NewInstance(HTML(bound, true), nil, nil); !errors.Is(err, ErrUnknownBinding) {
		t.Errorf("NewInstance() with nil registry error = %v, want ErrUnknownBinding", err)
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry()
	noop := func(*html.Node, any, []string) (Binding, error) { return nil, nil }
	reg.Register("style", noop)
	reg.Register("class", noop)

	if diff := cmp.Diff([]string{"class", "style"}, reg.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := reg.Lookup("model"); ok {
		t.Error("Lookup(model) found a factory")
	}
}
