package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/sumobit/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer() (*Server, *store.MemoryStore) {
	st := store.NewMemoryStore(10)
	return NewServer(st, 0, testLogger()), st
}

func TestHandleTelemetry(t *testing.T) {
	srv, st := newTestServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/telemetry", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status before first snapshot = %d, want 503", rec.Code)
	}

	st.SetTelemetry(store.Telemetry{Battery: 7.42, Mode: 3})

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/telemetry", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var got store.Telemetry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Battery != 7.42 || got.Mode != 3 {
		t.Errorf("telemetry = %+v", got)
	}
}

func TestHandleEvents(t *testing.T) {
	srv, st := newTestServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("empty events body = %q, want []", body)
	}

	st.RecordEvent(store.Event{Family: "motor-current", Code: 1, Name: "right stall"})
	st.RecordEvent(store.Event{Family: "mode", Code: 1, Name: "mode 3"})

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	var got []store.Event
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Name != "right stall" || got[1].Name != "mode 3" {
		t.Errorf("events = %+v", got)
	}
}

func TestHandleWatches(t *testing.T) {
	srv, st := newTestServer()
	st.SetWatches([]store.Watch{{Family: "battery", Code: 1, Name: "battery < 6.5", Last: true}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/watches", nil))

	var got []store.Watch
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || !got[0].Last || got[0].Family != "battery" {
		t.Errorf("watches = %+v", got)
	}
}

func TestJSONHandlers_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer()

	for _, path := range []string{"/api/telemetry", "/api/events", "/api/watches"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s status = %d, want 405", path, rec.Code)
		}
	}
}

func TestHandleSSE_Backlog(t *testing.T) {
	srv, st := newTestServer()
	st.SetTelemetry(store.Telemetry{Mode: 4})
	st.RecordEvent(store.Event{Name: "mode 4"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.handleSSE(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "event: telemetry\n") {
		t.Errorf("backlog missing telemetry: %s", body)
	}
	if !strings.Contains(body, "event: event\n") || !strings.Contains(body, "mode 4") {
		t.Errorf("backlog missing event: %s", body)
	}
	if strings.Index(body, "event: telemetry") > strings.Index(body, "event: event") {
		t.Errorf("telemetry should precede events in backlog: %s", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
}

func TestHandleSSE_ClientDisconnect(t *testing.T) {
	srv, _ := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("handler did not exit after client disconnect")
	}
}

// nonFlusher is a ResponseWriter without http.Flusher.
type nonFlusher struct {
	header http.Header
	code   int
}

func (n *nonFlusher) Header() http.Header         { return n.header }
func (n *nonFlusher) Write(b []byte) (int, error) { return len(b), nil }
func (n *nonFlusher) WriteHeader(code int)        { n.code = code }

func TestHandleSSE_SSENotSupported(t *testing.T) {
	srv, _ := newTestServer()

	w := &nonFlusher{header: make(http.Header)}
	srv.handleSSE(w, httptest.NewRequest(http.MethodGet, "/api/sse", nil))

	if w.code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.code)
	}
}

func TestServer_SSEStreamsLiveUpdates(t *testing.T) {
	srv, st := newTestServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sse", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/sse: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// the handler subscribes before writing headers, so once the response
	// arrives updates are guaranteed to be delivered
	st.RecordEvent(store.Event{Family: "edge", Code: 2, Name: "edge-left < 300"})

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var u store.Update
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &u); err != nil {
			t.Fatalf("invalid JSON in SSE data: %v", err)
		}
		if u.Kind != store.KindEvent || u.Event == nil {
			t.Fatalf("update = %+v, want event", u)
		}
		if u.Event.Name != "edge-left < 300" || u.Event.Code != 2 {
			t.Errorf("event = %+v", u.Event)
		}
		return
	}
	t.Fatalf("stream ended without an event: %v", scanner.Err())
}

func TestStart_AvailablePort_ReturnsNil(t *testing.T) {
	srv, _ := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Errorf("Start() on available port returned error: %v", err)
	}
}

func TestStart_PortInUse_ReturnsError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()

	port := ln.Addr().(*net.TCPAddr).Port
	srv := NewServer(store.NewMemoryStore(0), port, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = srv.Start(ctx)
	if err == nil {
		t.Fatal("Start() on occupied port should return error")
	}
	if !strings.Contains(err.Error(), "failed to bind") {
		t.Errorf("expected bind error, got: %v", err)
	}
}
