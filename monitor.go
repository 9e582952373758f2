package sumobit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/sumobit/internal/server"
	"github.com/jpalmerr/sumobit/internal/store"
)

const (
	defaultTelemetryInterval = time.Second
	defaultPort              = 8080
)

// monitorConfig holds mutable state during Monitor construction.
type monitorConfig struct {
	title    string
	port     int
	interval time.Duration
	history  int
}

// MonitorOption configures a [Monitor] during construction.
type MonitorOption func(*monitorConfig) error

// WithPort sets the HTTP port of the API. Defaults to 8080.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) MonitorOption {
	return func(cfg *monitorConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTelemetryInterval sets how often every sensor is sampled into the
// telemetry snapshot. Defaults to 1 second.
//
// Returns an error if the duration is zero or negative.
func WithTelemetryInterval(d time.Duration) MonitorOption {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("telemetry interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithHistory sets how many fired events the API retains. Defaults to 100.
func WithHistory(n int) MonitorOption {
	return func(cfg *monitorConfig) error {
		if n <= 0 {
			return errors.New("history must be positive")
		}
		cfg.history = n
		return nil
	}
}

// WithTitle names the robot in log output.
func WithTitle(title string) MonitorOption {
	return func(cfg *monitorConfig) error {
		cfg.title = title
		return nil
	}
}

// Monitor samples a [Board] periodically, records every fired watch event
// and serves both over an HTTP JSON API with a Server-Sent Events stream.
//
// The typical lifecycle is:
//
//	mon, err := sumobit.NewMonitor(board, sumobit.WithPort(8080))
//	if err != nil {
//	    slog.Error("failed to create monitor", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	mon.Start(ctx) // blocks until context cancelled
type Monitor struct {
	board    *Board
	title    string
	port     int
	interval time.Duration
	logger   *slog.Logger
	store    *store.MemoryStore
}

// NewMonitor creates a [Monitor] for board.
func NewMonitor(board *Board, opts ...MonitorOption) (*Monitor, error) {
	if board == nil {
		return nil, errors.New("board cannot be nil")
	}

	cfg := &monitorConfig{
		title:    "SUMO:BIT",
		port:     defaultPort,
		interval: defaultTelemetryInterval,
		history:  store.DefaultHistory,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return &Monitor{
		board:    board,
		title:    cfg.title,
		port:     cfg.port,
		interval: cfg.interval,
		logger:   board.logger,
		store:    store.NewMemoryStore(cfg.history),
	}, nil
}

// Port returns the configured HTTP port.
func (m *Monitor) Port() int {
	return m.port
}

// Start samples telemetry, records events and serves the API until ctx is
// cancelled.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("monitor starting", "title", m.title, "board_address", fmt.Sprintf("%#02x", m.board.Address()))
	m.logger.Info("telemetry configured", "interval", m.interval.String())
	m.logger.Info("api available", "url", fmt.Sprintf("http://localhost:%d/api/telemetry", m.port))

	if ctx.Err() != nil {
		return nil
	}

	// events fired before Start are not recorded
	removeObserver := m.board.addObserver(m.recordEvent)

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.sampleLoop(runCtx)
	}()

	cleanup := func() {
		cancel()
		wg.Wait()
		removeObserver()
	}

	srv := server.NewServer(m.store, m.port, m.logger)
	if err := srv.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	m.logger.Info("monitor stopped")
	return nil
}

// sampleLoop snapshots the board immediately and then on every tick.
func (m *Monitor) sampleLoop(ctx context.Context) {
	m.sample(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

func (m *Monitor) sample(ctx context.Context) {
	t, err := m.board.Snapshot(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		m.logger.Warn("telemetry incomplete", "error", err)
	} else {
		m.logger.Debug("telemetry sampled", "battery", t.Battery, "mode", t.Mode)
	}

	m.store.SetTelemetry(toStoreTelemetry(t))
	m.store.SetWatches(toStoreWatches(m.board.Watches()))
}

func (m *Monitor) recordEvent(ev Event) {
	m.logger.Info("watch fired",
		"family", ev.Family,
		"code", ev.Code,
		"name", ev.Name,
		"sweep", ev.Sweep,
	)
	m.store.RecordEvent(store.Event{
		ID:     uuid.NewString(),
		Family: string(ev.Family),
		Code:   ev.Code,
		Name:   ev.Name,
		Sweep:  ev.Sweep,
		At:     ev.At,
	})
}

func toStoreTelemetry(t Telemetry) store.Telemetry {
	return store.Telemetry{
		At:             t.At,
		Battery:        t.Battery,
		CurrentRight:   t.CurrentRight,
		CurrentLeft:    t.CurrentLeft,
		Mode:           t.Mode,
		EdgeRight:      t.EdgeRight,
		EdgeLeft:       t.EdgeLeft,
		Opponents:      append([]int(nil), t.Opponents...),
		EdgeThresholds: append([]float64(nil), t.EdgeThresholds...),
		Errors:         append([]string(nil), t.Errors...),
	}
}

func toStoreWatches(ws []WatchState) []store.Watch {
	out := make([]store.Watch, len(ws))
	for i, w := range ws {
		out[i] = store.Watch{
			Family:       string(w.Family),
			Code:         w.Code,
			Name:         w.Name,
			Last:         w.Last,
			Fired:        w.Fired,
			Failures:     w.Failures,
			RegisteredAt: w.RegisteredAt,
		}
	}
	return out
}
