package noderange

import (
	stderrors "errors"
	"testing"

	"golang.org/x/net/html"

	"github.com/vango-dev/trellis/pkg/dom"
)

func fragmentOf(nodes ...*html.Node) *html.Node {
	frag := dom.NewFragment()
	for _, n := range nodes {
		dom.AppendChild(frag, n)
	}
	return frag
}

func elem(id string) *html.Node {
	el := dom.NewElement("p")
	dom.SetAttr(el, "id", id)
	return el
}

func sameNodes(t *testing.T, got, want []*html.Node) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d nodes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("node %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRangeStableAfterInnerMutation(t *testing.T) {
	n1, n2, n3 := elem("1"), elem("2"), elem("3")
	parent := dom.NewElement("div")
	dom.AppendChild(parent, fragmentOf(n1, n2, n3))
	r := Between(n1, n3)

	dom.Remove(n2)
	n4 := elem("4")
	dom.InsertBefore(parent, n4, n1.NextSibling)

	if r.FirstElement() != n1 {
		t.Errorf("FirstElement = %v, want n1", r.FirstElement())
	}
	sameNodes(t, r.Nodes(), []*html.Node{n1, n4, n3})
}

func TestNewFromFragment(t *testing.T) {
	n1, n2, n3 := elem("1"), elem("2"), elem("3")
	r := New(fragmentOf(n1, n2, n3))

	if r.First() != n1 || r.Last() != n3 {
		t.Fatal("range should span the fragment's children")
	}
	dom.Remove(n2)
	n4 := elem("4")
	dom.InsertBefore(n1.Parent, n4, n3)
	sameNodes(t, r.Nodes(), []*html.Node{n1, n4, n3})
}

func TestNewPrependsAnchorBeforeMarker(t *testing.T) {
	marker := dom.NewMarker()
	tail := elem("t")
	frag := fragmentOf(marker, tail)

	r := New(frag)

	if r.First() == marker {
		t.Fatal("a hole marker must not be the range start")
	}
	if r.First().NextSibling != marker {
		t.Error("anchor should sit right before the marker")
	}

	// Content inserted before the marker stays inside the range.
	content := elem("c")
	dom.InsertBefore(frag, content, marker)
	sameNodes(t, r.Nodes(), []*html.Node{r.First(), content, marker, tail})
}

func TestNewEmptyFragment(t *testing.T) {
	r := New(dom.NewFragment())
	if r.First() == nil || r.First() != r.Last() {
		t.Fatal("empty fragment should yield a single anchor range")
	}
}

func TestRangeNeverLeaksPastEnd(t *testing.T) {
	n1, n2, n3 := elem("1"), elem("2"), elem("3")
	dom.AppendChild(dom.NewElement("div"), fragmentOf(n1, n2, n3))

	r := Between(n1, n2)
	sameNodes(t, r.Nodes(), []*html.Node{n1, n2})
}

func TestExtractToFragmentIsRepeatable(t *testing.T) {
	n1, n2 := elem("1"), elem("2")
	parent := dom.NewElement("div")
	dom.AppendChild(parent, fragmentOf(n1, n2))
	r := Between(n1, n2)

	frag, err := r.ExtractToFragment()
	if err != nil {
		t.Fatal(err)
	}
	if parent.FirstChild != nil {
		t.Error("parent should be empty after extraction")
	}

	// Attach new content inside the extracted span and extract again.
	n5 := elem("5")
	dom.InsertBefore(frag, n5, n2)

	again, err := r.ExtractToFragment()
	if err != nil {
		t.Fatal(err)
	}
	sameNodes(t, dom.Children(again), []*html.Node{n1, n5, n2})
}

func TestInsertBeforeMovesSpan(t *testing.T) {
	a, b, c := elem("a"), elem("b"), elem("c")
	parent := dom.NewElement("div")
	dom.AppendChild(parent, fragmentOf(a, b, c))

	r := Between(b, c)
	if err := r.InsertBefore(parent, a); err != nil {
		t.Fatal(err)
	}
	sameNodes(t, dom.Children(parent), []*html.Node{b, c, a})

	rec := dom.Record(parent)
	defer rec.Stop()
	if err := r.InsertBefore(parent, a); err != nil {
		t.Fatal(err)
	}
	if len(rec.Records()) != 0 {
		t.Error("in-place InsertBefore should not mutate")
	}
}

func TestRemoveThenExtractFails(t *testing.T) {
	n1, n2 := elem("1"), elem("2")
	parent := dom.NewElement("div")
	dom.AppendChild(parent, fragmentOf(n1, n2))
	r := Between(n1, n2)

	r.Remove()
	if parent.FirstChild != nil {
		t.Error("Remove should detach every node")
	}
	if _, err := r.ExtractToFragment(); !stderrors.Is(err, ErrRemoved) {
		t.Errorf("err = %v, want ErrRemoved", err)
	}
	r.Remove()
}

func TestBrokenRange(t *testing.T) {
	n1, n2 := elem("1"), elem("2")
	dom.AppendChild(dom.NewElement("div"), fragmentOf(n1))
	dom.AppendChild(dom.NewElement("div"), fragmentOf(n2))

	r := Between(n1, n2)
	if _, err := r.ExtractToFragment(); !stderrors.Is(err, ErrBroken) {
		t.Errorf("err = %v, want ErrBroken", err)
	}
}
