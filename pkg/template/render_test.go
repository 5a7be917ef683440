package template

import (
	"runtime"
	"testing"
	"time"

	"github.com/vango-dev/trellis/pkg/dom"
)

func remembered() int {
	rendered.Lock()
	defer rendered.Unlock()
	return len(rendered.m)
}

// collect runs the collector until cond holds or gives up.
func collect(t *testing.T, cond func() bool) {
	t.Helper()
	for range 100 {
		runtime.GC()
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition did not hold after repeated collections")
}

func TestRenderForgetsCollectedContainers(t *testing.T) {
	base := remembered()
	func() {
		for i := range 100 {
			mustRender(t, HTML(greeting, i), dom.NewElement("div"))
			mustRender(t, HTML(button, func() {}), dom.NewElement("div"))
		}
	}()
	if got := remembered(); got < base+200 {
		t.Fatalf("remembered = %d, want at least %d", got, base+200)
	}

	collect(t, func() bool { return remembered() <= base })
}

func TestRenderedSurvivesWhileNodesLive(t *testing.T) {
	container := dom.NewElement("div")
	func() {
		mustRender(t, HTML(card, "c", "x", "y"), container)
	}()
	span := find(container, "span")

	for range 5 {
		runtime.GC()
	}
	if Rendered(container) == nil {
		t.Fatal("instance forgotten while its nodes are still in the container")
	}

	mustRender(t, HTML(card, "c", "x", "z"), container)
	if find(container, "span") != span {
		t.Error("second render replaced nodes instead of patching")
	}
	if got, want := visible(container), `<div class="c"><span>x</span><b>z</b></div>`; got != want {
		t.Errorf("rendered %q, want %q", got, want)
	}
}

func TestInstanceStartsWithItsAnchor(t *testing.T) {
	for _, segs := range [][]string{greeting, {``, ``}, {`<i>a</i>`, `<b>b</b>`}} {
		container := dom.NewElement("div")
		inst := mustRender(t, HTML(segs, "v"), container)
		if inst.Range().First() != &inst.anc.Node {
			t.Errorf("%q: range does not start at the anchor", segs)
		}
		if inst.anc.inst != inst {
			t.Errorf("%q: anchor points at another instance", segs)
		}
	}
}
