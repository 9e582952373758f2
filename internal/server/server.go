package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jpalmerr/sumobit/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Server handles HTTP requests for the board API.
//
// Server provides four endpoints:
//   - GET /api/telemetry: latest sensor snapshot as JSON
//   - GET /api/events: recent fired watch events, oldest first
//   - GET /api/watches: registered watches and their last results
//   - GET /api/sse: Server-Sent Events stream of telemetry and events
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	port       int
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server] backed by st. The server is not
// started until [Server.Start] is called.
func NewServer(st store.Store, port int, logger *slog.Logger) *Server {
	return &Server{
		store:  st,
		port:   port,
		logger: logger,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/telemetry", s.handleTelemetry)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/watches", s.handleWatches)
	mux.HandleFunc("/api/sse", s.handleSSE)
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// request contexts derive from ctx so SSE handlers exit on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "path", r.URL.Path, "error", err)
	}
}

// handleTelemetry returns the latest snapshot, or 503 before the first one.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	t, ok := s.store.Telemetry()
	if !ok && r.Method == http.MethodGet {
		http.Error(w, "No telemetry yet", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, r, t)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := s.store.Events()
	if events == nil {
		events = []store.Event{}
	}
	s.writeJSON(w, r, events)
}

func (s *Server) handleWatches(w http.ResponseWriter, r *http.Request) {
	watches := s.store.Watches()
	if watches == nil {
		watches = []store.Watch{}
	}
	s.writeJSON(w, r, watches)
}

// handleSSE streams telemetry and events via Server-Sent Events. Each
// message carries the update kind as its SSE event name.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	send := func(u store.Update) error {
		data, err := json.Marshal(u)
		if err != nil {
			s.logger.Warn("failed to encode sse update", "kind", u.Kind, "error", err)
			return nil
		}

		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", u.Kind, data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	// commit headers so clients see the stream open before the first update
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	// backlog: latest telemetry then retained events
	if t, ok := s.store.Telemetry(); ok {
		if err := send(store.Update{Kind: store.KindTelemetry, Telemetry: &t}); err != nil {
			return
		}
	}
	for _, ev := range s.store.Events() {
		if err := send(store.Update{Kind: store.KindEvent, Event: &ev}); err != nil {
			return
		}
	}

	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return
			}
			if err := send(u); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}
