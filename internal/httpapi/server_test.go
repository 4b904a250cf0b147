package httpapi

import (
	"bufio"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nebolabs/webagent/internal/events"
	"github.com/nebolabs/webagent/internal/runstore"
)

func newTestServer(t *testing.T) (*Server, *runstore.Store) {
	t.Helper()
	store, err := runstore.Open(runstore.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewServer(Config{}, store, logger), store
}

func TestGetRunReturns404ForUnknownRun(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/runs/does-not-exist", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRunReturnsPersistedRun(t *testing.T) {
	server, store := newTestServer(t)
	require.NoError(t, store.CreateRun(context.Background(), "run-1", "find alan turing"))

	req := httptest.NewRequest(http.MethodGet, "/runs/run-1", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "find alan turing")
}

func TestStreamSSEReplaysHistoryThenClosesForFinishedRun(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRun(ctx, "run-1", "task"))
	require.NoError(t, store.AppendEvent(ctx, "run-1", events.Envelope{
		Type: events.TaskStart, Timestamp: 1, Data: events.TaskStartData{Task: "task"},
	}))
	require.NoError(t, store.AppendEvent(ctx, "run-1", events.Envelope{
		Type: events.TaskComplete, Timestamp: 2, Data: events.TaskCompleteData{FinalAnswer: "done"},
	}))

	req := httptest.NewRequest(http.MethodGet, "/runs/run-1/events", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var eventLines []string
	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			eventLines = append(eventLines, strings.TrimPrefix(line, "event: "))
		}
	}
	require.Equal(t, []string{string(events.TaskStart), string(events.TaskComplete)}, eventLines)
}

func TestStreamSSEStreamsLiveEventsUntilTaskComplete(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRun(ctx, "run-1", "task"))

	bus := events.NewBus(nil)
	defer bus.Close()
	server.RegisterLive("run-1", bus)
	defer server.UnregisterLive("run-1")

	req := httptest.NewRequest(http.MethodGet, "/runs/run-1/events", nil)
	reqCtx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()
	req = req.WithContext(reqCtx)

	done := make(chan struct{})
	rec := httptest.NewRecorder()
	go func() {
		server.Router().ServeHTTP(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, bus.Emit(events.TaskComplete, events.TaskCompleteData{FinalAnswer: "done"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after task:complete")
	}
	require.Contains(t, rec.Body.String(), string(events.TaskComplete))
}
