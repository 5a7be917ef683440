// Package bench measures end-to-end update latency: a write to observed
// data, the scheduled flush and the resulting DOM patch.
package bench

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"golang.org/x/net/html"

	"github.com/vango-dev/trellis"
	"github.com/vango-dev/trellis/pkg/component"
	"github.com/vango-dev/trellis/pkg/dom"
	"github.com/vango-dev/trellis/pkg/observer"
	"github.com/vango-dev/trellis/pkg/queue"
	"github.com/vango-dev/trellis/pkg/template"
)

var (
	listTpl = []string{`<ul class="rows">`, `</ul>`}
	rowTpl  = []string{`<li data-id=`, `><span>`, `</span></li>`}
)

// Options sizes the scenarios.
type Options struct {
	Rows       int
	Iterations int
	Watchers   int
	Depth      int
}

// DefaultOptions returns the sizes used by the CLI.
func DefaultOptions() Options {
	return Options{Rows: 1000, Iterations: 50, Watchers: 100, Depth: 10}
}

// Result is the outcome of one scenario.
type Result struct {
	Name       string
	Iterations int

	// Mutations counts the DOM mutations of all iterations.
	Mutations int

	// Updates counts the updatables run.
	Updates int

	Metrics *tachymeter.Metrics
}

// Scenario is a named measurement.
type Scenario struct {
	Name string
	run  func(Options) (Result, error)
}

// Scenarios lists all scenarios in run order.
func Scenarios() []Scenario {
	return []Scenario{
		{"create rows", createRows},
		{"update every 10th row", updateEveryTenth},
		{"swap rows", swapRows},
		{"reverse rows", reverseRows},
		{"append row", appendRow},
		{"remove row", removeRow},
		{"propagate", propagate},
	}
}

// Run runs the scenarios whose names are listed, or all when names is
// empty.
func Run(opts Options, names ...string) ([]Result, error) {
	var out []Result
	for _, sc := range Scenarios() {
		if len(names) > 0 && !slices.Contains(names, sc.Name) {
			continue
		}
		res, err := sc.run(opts)
		if err != nil {
			return out, fmt.Errorf("%s: %w", sc.Name, err)
		}
		out = append(out, res)
	}
	return out, nil
}

type env struct {
	rt      *trellis.Runtime
	host    *queue.ManualHost
	root    *html.Node
	rows    *observer.Array
	next    int
	updates int
}

func newEnv() *env {
	host := queue.NewManualHost()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &env{
		rt:   trellis.New(trellis.WithHost(host), trellis.WithLogger(logger)),
		host: host,
		root: dom.NewElement("body"),
	}
}

// mountList renders n rows through one component.
func (e *env) mountList(n int) error {
	e.rows = e.rt.Tracker.Array(nil)
	e.rows.Push(e.makeRows(n)...)

	c := e.rt.Component(func(*component.Component) *template.Result {
		e.updates++
		values := e.rows.Values()
		items := make([]any, len(values))
		for i, v := range values {
			row := v.(*observer.Object)
			items[i] = template.Key(row.Get("id"), template.HTML(rowTpl, row.Get("id"), row.Get("label")))
		}
		return template.HTML(listTpl, items)
	})
	return c.Mount(e.root, nil)
}

func (e *env) makeRows(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = map[string]any{"id": e.next, "label": fmt.Sprintf("row %d", e.next)}
		e.next++
	}
	return out
}

func (e *env) row(i int) *observer.Object {
	return e.rt.Tracker.Object(e.rows.At(i).(map[string]any))
}

func (e *env) measure(name string, iterations int, step func(i int)) Result {
	tach := tachymeter.New(&tachymeter.Config{Size: iterations})
	rec := dom.Record(e.root)
	defer rec.Stop()

	e.updates = 0
	for i := 0; i < iterations; i++ {
		start := time.Now()
		step(i)
		e.host.Settle(16)
		tach.AddTime(time.Since(start))
	}
	return Result{
		Name:       name,
		Iterations: iterations,
		Mutations:  len(rec.Records()),
		Updates:    e.updates,
		Metrics:    tach.Calc(),
	}
}

func listScenario(name string, step func(e *env, opts Options, i int)) func(Options) (Result, error) {
	return func(opts Options) (Result, error) {
		e := newEnv()
		if err := e.mountList(opts.Rows); err != nil {
			return Result{}, err
		}
		return e.measure(name, opts.Iterations, func(i int) { step(e, opts, i) }), nil
	}
}

var (
	createRows = listScenario("create rows", func(e *env, opts Options, _ int) {
		e.rows.Splice(0, e.rows.Len(), e.makeRows(opts.Rows)...)
	})

	updateEveryTenth = listScenario("update every 10th row", func(e *env, _ Options, _ int) {
		e.rt.Batch(func() {
			for i := 0; i < e.rows.Len(); i += 10 {
				r := e.row(i)
				r.Set("label", r.Get("label").(string)+" !")
			}
		})
	})

	swapRows = listScenario("swap rows", func(e *env, _ Options, _ int) {
		n := e.rows.Len()
		if n < 4 {
			return
		}
		a, b := e.rows.At(1), e.rows.At(n-2)
		e.rt.Batch(func() {
			e.rows.SetAt(1, b)
			e.rows.SetAt(n-2, a)
		})
	})

	reverseRows = listScenario("reverse rows", func(e *env, _ Options, _ int) {
		e.rows.Reverse()
	})

	appendRow = listScenario("append row", func(e *env, _ Options, _ int) {
		e.rows.Push(e.makeRows(1)...)
	})

	removeRow = listScenario("remove row", func(e *env, _ Options, _ int) {
		if n := e.rows.Len(); n > 0 {
			e.rows.Splice(n/2, 1)
		}
	})
)

// propagate measures many watchers over a wide object: each watcher reads
// Depth keys and every write touches one key all of them read.
func propagate(opts Options) (Result, error) {
	e := newEnv()
	data := make(map[string]any, opts.Depth)
	for k := 0; k < opts.Depth; k++ {
		data[fmt.Sprintf("k%d", k)] = 0
	}
	state := e.rt.Tracker.Object(data)

	for w := 0; w < opts.Watchers; w++ {
		e.rt.Watch(func() any {
			sum := 0
			for k := 0; k < opts.Depth; k++ {
				sum += state.Get(fmt.Sprintf("k%d", k)).(int)
			}
			return sum
		}, func(any, any) {
			e.updates++
		})
	}

	name := fmt.Sprintf("propagate %d x %d", opts.Watchers, opts.Depth)
	return e.measure(name, opts.Iterations, func(i int) {
		state.Set("k0", i+1)
	}), nil
}
