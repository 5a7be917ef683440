package live

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/html"

	"github.com/vango-dev/trellis"
	"github.com/vango-dev/trellis/pkg/dom"
)

// poster is implemented by hosts that run work on their own goroutine.
type poster interface {
	Post(fn func())
}

// ServerOptions configures the live server.
type ServerOptions struct {
	// Addr is the listen address.
	Addr string

	// Runtime renders the document. Its scheduler host should be a
	// queue.LoopHost so events are applied on the loop goroutine.
	Runtime *trellis.Runtime

	// Logger is the structured logger. Defaults to the runtime's.
	Logger *slog.Logger

	// Gatherer serves /metrics. Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Initial seeds the todo list.
	Initial []string
}

// Server renders the todo application and streams it to browsers.
type Server struct {
	rt       *trellis.Runtime
	logger   *slog.Logger
	addr     string
	gatherer prometheus.Gatherer
	hub      *Hub
	app      *Todos
	doc      *html.Node

	// loopMu serialises work when the host has no loop goroutine.
	loopMu sync.Mutex
	post   func(fn func())

	mu         sync.Mutex
	frame      Frame
	httpServer *http.Server
}

// NewServer creates a server and mounts the application.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Runtime == nil {
		opts.Runtime = trellis.Default()
	}
	if opts.Logger == nil {
		opts.Logger = opts.Runtime.Logger
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		rt:       opts.Runtime,
		logger:   opts.Logger.With("component", "live"),
		addr:     opts.Addr,
		gatherer: opts.Gatherer,
		doc:      dom.NewElement("div"),
	}
	dom.SetAttr(s.doc, "id", "app")
	s.hub = NewHub(s.logger, s.Frame, s.Dispatch)
	s.app = NewTodos(s.rt, opts.Initial...)

	if p, ok := s.rt.Scheduler.Host().(poster); ok {
		s.post = p.Post
	} else {
		s.post = func(fn func()) {
			s.loopMu.Lock()
			defer s.loopMu.Unlock()
			fn()
		}
	}

	errCh := make(chan error, 1)
	s.post(func() {
		err := s.app.Component().Mount(s.doc, nil)
		if err == nil {
			s.publish()
		}
		errCh <- err
	})
	if err := <-errCh; err != nil {
		return nil, err
	}
	return s, nil
}

// App returns the application being served.
func (s *Server) App() *Todos { return s.app }

// Hub returns the connection hub.
func (s *Server) Hub() *Hub { return s.hub }

// Frame returns the most recently published frame.
func (s *Server) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Dispatch applies a client event to the document. The resulting changes
// are published after the next flush.
func (s *Server) Dispatch(ev ClientEvent) {
	s.post(func() {
		target := elementAt(s.doc, ev.Path)
		if target == nil {
			s.logger.Debug("event target not found", "path", ev.Path, "type", ev.Type)
			return
		}
		if ev.Type == "input" {
			dom.SetProperty(target, "value", ev.Value)
		}
		dom.Dispatch(target, &dom.Event{Type: ev.Type, Detail: ev.Value})
		s.rt.Scheduler.OnFlushComplete(s.publish)
	})
}

func (s *Server) publish() {
	markup := dom.SerializeChildren(s.doc)

	s.mu.Lock()
	if markup == s.frame.HTML && s.frame.Seq > 0 {
		s.mu.Unlock()
		return
	}
	s.frame = Frame{Seq: s.frame.Seq + 1, HTML: markup}
	f := s.frame
	s.mu.Unlock()

	s.hub.Broadcast(f)
}

// elementAt follows element-child indices down from root.
func elementAt(root *html.Node, path []int) *html.Node {
	n := root
	for _, idx := range path {
		var next *html.Node
		i := 0
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if i == idx {
				next = c
				break
			}
			i++
		}
		if next == nil {
			return nil
		}
		n = next
	}
	return n
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/ws", s.hub.HandleWebSocket)
	r.Get("/frame", s.handleFrame)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageTemplate, s.Frame().HTML, ClientScript)
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, s.Frame().HTML)
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("serving", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop closes client connections and shuts the HTTP server down.
func (s *Server) Stop() {
	s.hub.Close()

	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warn("shutdown failed", "error", err)
		}
	}
}
