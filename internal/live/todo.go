package live

import (
	"strings"

	"github.com/vango-dev/trellis"
	"github.com/vango-dev/trellis/pkg/component"
	"github.com/vango-dev/trellis/pkg/dom"
	"github.com/vango-dev/trellis/pkg/observer"
	"github.com/vango-dev/trellis/pkg/template"
)

var (
	todoPage = []string{
		`<main><h1>todos</h1><form><input class="new" placeholder="What needs doing?" value=`,
		` @input=`,
		`><button class="add" @click=`,
		`>add</button></form><ul class="items">`,
		`</ul>`,
		`</main>`,
	}
	todoItem = []string{
		`<li class=`,
		`><label><input type="checkbox" ?checked=`,
		` @click=`,
		`>`,
		`</label><button class="remove" @click=`,
		`>x</button></li>`,
	}
	todoStats = []string{`<footer><span class="left">`, `</span> left of `, `</footer>`}
)

// Todos is the demo application: a keyed todo list with a stats footer
// rendered by a child component.
type Todos struct {
	rt    *trellis.Runtime
	state *observer.Object
	items *observer.Array

	root  *component.Component
	stats *component.Component
}

// NewTodos creates the application with optional initial item texts.
func NewTodos(rt *trellis.Runtime, initial ...string) *Todos {
	a := &Todos{
		rt:    rt,
		state: rt.Tracker.Object(map[string]any{"draft": "", "next": 0}),
		items: rt.Tracker.Array(nil),
	}
	for _, text := range initial {
		a.push(text)
	}
	a.root = rt.Component(a.render, component.WithHostTag("section"))
	a.stats = a.root.Child(a.renderStats)
	return a
}

// Component returns the root component.
func (a *Todos) Component() *component.Component { return a.root }

// Items returns the texts of all items in order.
func (a *Todos) Items() []string {
	var out []string
	a.rt.Tracker.Untracked(func() {
		for _, v := range a.items.Values() {
			out = append(out, observer.Raw(v).(map[string]any)["text"].(string))
		}
	})
	return out
}

func (a *Todos) render(*component.Component) *template.Result {
	values := a.items.Values()
	rows := make([]any, 0, len(values))
	for _, v := range values {
		item := v.(*observer.Object)
		done, _ := item.Get("done").(bool)
		rows = append(rows, template.Key(item.Get("id"), template.HTML(todoItem,
			itemClass(done),
			done,
			a.toggle(item),
			item.Get("text"),
			a.remove(item),
		)))
	}
	return template.HTML(todoPage, a.state.Get("draft"), a.onInput, a.onAdd, rows, a.stats)
}

func (a *Todos) renderStats(*component.Component) *template.Result {
	left := 0
	values := a.items.Values()
	for _, v := range values {
		if done, _ := v.(*observer.Object).Get("done").(bool); !done {
			left++
		}
	}
	return template.HTML(todoStats, left, len(values))
}

func itemClass(done bool) string {
	if done {
		return "item done"
	}
	return "item"
}

func (a *Todos) onInput(ev *dom.Event) {
	if s, ok := ev.Detail.(string); ok {
		a.state.Set("draft", s)
	}
}

func (a *Todos) onAdd(*dom.Event) {
	text := strings.TrimSpace(a.state.Get("draft").(string))
	if text == "" {
		return
	}
	a.rt.Batch(func() {
		a.push(text)
		a.state.Set("draft", "")
	})
}

func (a *Todos) push(text string) {
	id := a.state.Get("next").(int)
	a.state.Set("next", id+1)
	a.items.Push(map[string]any{"id": id, "text": text, "done": false})
}

func (a *Todos) toggle(item *observer.Object) func() {
	return func() {
		done, _ := item.Get("done").(bool)
		item.Set("done", !done)
	}
}

func (a *Todos) remove(item *observer.Object) func() {
	return func() {
		if i := a.items.IndexOf(item); i >= 0 {
			a.items.Splice(i, 1)
		}
	}
}
