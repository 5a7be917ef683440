package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/trellis"
	"github.com/vango-dev/trellis/internal/live"
	"github.com/vango-dev/trellis/pkg/queue"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live demo",
		Long: `Serve a todo application rendered by trellis. Browsers receive a
new frame after every flush over WebSocket; clicks and input are sent back
and dispatched into the server-side tree.

Endpoints:
  /          the page
  /ws        frame stream and events
  /metrics   Prometheus metrics
  /healthz   liveness

Examples:
  trellis serve
  trellis serve --addr=:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}

func runServe(addr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Serve.Addr = addr
	}
	logger := newLogger(cfg)

	rt := trellis.New(trellis.WithConfig(cfg), trellis.WithLogger(logger))
	if loop, ok := rt.Scheduler.Host().(*queue.LoopHost); ok {
		defer loop.Stop()
	}

	srv, err := live.NewServer(live.ServerOptions{
		Addr:    cfg.Serve.Addr,
		Runtime: rt,
		Logger:  logger,
		Initial: []string{"Read the README", "Try the benchmark"},
	})
	if err != nil {
		return err
	}

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	if cfg.Path() != "" {
		info("config %s", cfg.Path())
	}
	success("Listening on http://%s", cfg.Serve.Addr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		fmt.Println("\n\n  Shutting down...")
	}()

	return srv.Start(ctx)
}
