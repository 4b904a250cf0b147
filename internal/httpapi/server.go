// Package httpapi is the optional SSE/WebSocket sink over HTTP
// (SPEC_FULL.md §4.9), grounded on the teacher's chi-routed HTTP handlers
// (internal/handler/dev/logs.go's SSE tailing, internal/websocket/handler.go's
// upgrade) generalized from app logs / chat frames to agent run events.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/nebolabs/webagent/internal/events"
	"github.com/nebolabs/webagent/internal/runstore"
)

// Server exposes run status and live event streaming over HTTP.
type Server struct {
	cfg    Config
	store  *runstore.Store
	logger *slog.Logger

	mu   sync.RWMutex
	live map[string]*events.Bus
}

func NewServer(cfg Config, store *runstore.Store, logger *slog.Logger) *Server {
	return &Server{cfg: cfg, store: store, logger: logger, live: make(map[string]*events.Bus)}
}

// RegisterLive associates an in-progress run's event bus with its id so
// streaming endpoints can tail it in real time. The caller unregisters it
// once the run finishes (the bus itself is closed by its owner, not here).
func (s *Server) RegisterLive(runID string, bus *events.Bus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[runID] = bus
}

func (s *Server) UnregisterLive(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, runID)
}

func (s *Server) liveBus(runID string) (*events.Bus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.live[runID]
	return b, ok
}

// Router builds the chi router: GET /runs/{id}, GET /runs/{id}/events (SSE),
// GET /runs/{id}/ws (WebSocket).
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/runs/{id}", s.getRun)
	r.Get("/runs/{id}/events", s.streamSSE)
	r.Get("/runs/{id}/ws", s.streamWS)

	return r
}

// ListenAndServe blocks serving the HTTP API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.cfg.Addr == "" {
		return nil
	}
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

func (s *Server) streamSSE(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	history, err := s.store.ListEvents(r.Context(), id)
	if err != nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	for _, rec := range history {
		writeSSEEvent(w, events.Envelope{Type: rec.Type, Timestamp: rec.Timestamp, Data: json.RawMessage(rec.Payload)})
	}
	flusher.Flush()

	bus, ok := s.liveBus(id)
	if !ok {
		return // run already finished; history above is the whole story
	}

	done := make(chan struct{})
	subs := bus.OnAll(func(_ context.Context, env events.Envelope) error {
		writeSSEEvent(w, env)
		flusher.Flush()
		if env.Type == events.TaskComplete {
			select {
			case <-done:
			default:
				close(done)
			}
		}
		return nil
	})
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	select {
	case <-r.Context().Done():
	case <-done:
	}
}

func writeSSEEvent(w http.ResponseWriter, env events.Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Type, payload)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamWS is the WebSocket alternative to streamSSE, for clients (browser
// extensions, desktop shells) that prefer a persistent bidirectional socket
// over one-way SSE.
func (s *Server) streamWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	bus, ok := s.liveBus(id)
	if !ok {
		conn.WriteJSON(map[string]string{"error": "run not live"})
		return
	}

	var writeMu sync.Mutex
	subs := bus.OnAll(func(_ context.Context, env events.Envelope) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(env)
	})
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	// Block until the client disconnects; webagent run events are one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
