package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/vango-dev/trellis/internal/bench"
)

func benchCmd() *cobra.Command {
	opts := bench.DefaultOptions()
	var only []string

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure update latency",
		Long: `Run the update benchmarks. Each iteration writes to observed data,
flushes the scheduler and patches the node tree; the table reports the
latency distribution and how many DOM mutations the patches made.

Examples:
  trellis bench
  trellis bench --rows=10000 --iterations=20
  trellis bench --only="swap rows" --only="reverse rows"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(opts, only)
		},
	}

	cmd.Flags().IntVar(&opts.Rows, "rows", opts.Rows, "Rows in the list scenarios")
	cmd.Flags().IntVarP(&opts.Iterations, "iterations", "n", opts.Iterations, "Iterations per scenario")
	cmd.Flags().IntVar(&opts.Watchers, "watchers", opts.Watchers, "Watchers in the propagate scenario")
	cmd.Flags().IntVar(&opts.Depth, "depth", opts.Depth, "Keys each watcher reads")
	cmd.Flags().StringArrayVar(&only, "only", nil, "Run only the named scenario (repeatable)")

	return cmd
}

func runBench(opts bench.Options, only []string) error {
	if opts.Rows < 1 || opts.Iterations < 1 {
		return fmt.Errorf("rows and iterations must be positive")
	}
	info("rows=%s iterations=%d", humanize.Comma(int64(opts.Rows)), opts.Iterations)

	results, err := bench.Run(opts, only...)
	if err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetTitle("trellis update latency")
	tbl.SetOutputMirror(os.Stdout)
	if colors {
		tbl.SetStyle(table.StyleColoredBright)
	} else {
		tbl.SetStyle(table.StyleLight)
	}
	tbl.AppendHeader(table.Row{"benchmark", "updates", "mutations", "avg", "min", "p75", "p99", "max"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	for _, r := range results {
		tbl.AppendRow(table.Row{
			r.Name,
			humanize.Comma(int64(r.Updates)),
			humanize.Comma(int64(r.Mutations)),
			r.Metrics.Time.Avg,
			r.Metrics.Time.Min,
			r.Metrics.Time.P75,
			r.Metrics.Time.P99,
			r.Metrics.Time.Max,
		})
	}
	tbl.Render()
	success("%d scenarios", len(results))
	return nil
}
