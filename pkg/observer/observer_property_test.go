package observer

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestObserverProperties checks idempotent wrapping and that a committed
// edge set is exactly what the last evaluation read.
func TestObserverProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(2468)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	keys := gen.SliceOf(gen.IntRange(0, 7))

	properties.Property("observe is idempotent", prop.ForAll(
		func(n int) bool {
			tr := newTestTracker()
			items := make([]any, n)
			m := map[string]any{"items": &items}

			p := tr.Observe(m)
			if tr.Observe(p) != p || tr.Observe(m) != p {
				return false
			}
			a := tr.Observe(&items)
			return tr.Observe(a) == a && tr.Observe(&items) == a
		},
		gen.IntRange(0, 20),
	))

	properties.Property("edges match the last evaluation's reads", prop.ForAll(
		func(first, second []int) bool {
			tr := newTestTracker()
			obj := tr.Object(nil)
			for i := 0; i < 8; i++ {
				obj.Set(key(i), i)
			}
			c := &counter{props: true}

			for _, reads := range [][]int{first, second} {
				tr.StartUpdating(c)
				for _, k := range reads {
					_ = obj.Get(key(k))
				}
				if err := tr.EndUpdating(c); err != nil {
					return false
				}
			}

			want := make(map[string]bool)
			for _, k := range second {
				want[key(k)] = true
			}
			for i := 0; i < 8; i++ {
				before := c.n
				obj.Set(key(i), i)
				notified := c.n > before
				if notified != want[key(i)] {
					return false
				}
			}
			return len(tr.DependenciesOf(c)) == len(want)
		},
		keys, keys,
	))

	properties.TestingRun(t)
}

func key(i int) string {
	return fmt.Sprintf("k%d", i)
}
