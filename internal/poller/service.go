package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNilCondition is returned when registering a watch without a condition.
	ErrNilCondition = errors.New("poller: condition must not be nil")

	// ErrNilHandler is returned when registering a watch without a handler.
	ErrNilHandler = errors.New("poller: handler must not be nil")

	// ErrStopped is returned when registering on a stopped service.
	ErrStopped = errors.New("poller: service stopped")
)

// DefaultPace is used when a [Config] has no positive pace.
const DefaultPace = 10 * time.Millisecond

// Family namespaces the notification codes of one group of watches.
// Codes are only unique within a family.
type Family string

// Condition reports whether a watch currently holds. A non-nil error means
// the reading could not be taken; the previous result is kept.
type Condition func(ctx context.Context) (bool, error)

// Handler receives fired events. Handlers run on their own goroutine.
type Handler func(Event)

// Sleeper pauses for d or until ctx is done, returning ctx.Err() in the
// latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// Event describes one false to true transition of a watch.
type Event struct {
	Family Family
	Code   int
	Name   string

	// Sweep is the 1-based pass over the registry in which the transition
	// was observed.
	Sweep uint64

	At time.Time
}

// WatchState is a point-in-time view of a registered watch.
type WatchState struct {
	Family       Family    `json:"family"`
	Code         int       `json:"code"`
	Name         string    `json:"name"`
	Last         bool      `json:"last"`
	Fired        uint64    `json:"fired"`
	Failures     uint64    `json:"failures"`
	RegisteredAt time.Time `json:"registered_at"`
}

type watch struct {
	code         int
	name         string
	cond         Condition
	handler      Handler
	registeredAt time.Time

	// guarded by Service.mu
	last     bool
	fired    uint64
	failures uint64
}

// Config holds the collaborators of a [Service]. Zero values are replaced
// with defaults by [NewService].
type Config struct {
	Family Family

	// Pace is the pause after every single watch evaluation. Non-positive
	// values use [DefaultPace].
	Pace time.Duration

	Logger *slog.Logger

	// Context is the parent of the polling goroutine. Defaults to
	// context.Background().
	Context context.Context

	Now   func() time.Time
	Sleep Sleeper

	// Observer, if set, sees every event after the watch's own handler.
	Observer Handler

	// OnStart, if set, is called once when the polling goroutine is spawned.
	OnStart func()
}

// Service owns an ordered, append-only registry of watches and the single
// background goroutine that re-evaluates them.
//
// The goroutine is spawned by the first successful [Service.Register] and
// runs until [Service.Stop] or until the parent context is cancelled. Each
// pass evaluates the watches that existed when the pass began, in
// registration order, pausing for the configured pace after each one.
// Watches added during a pass are first evaluated on the following pass.
//
// All methods are safe for concurrent use.
type Service struct {
	family   Family
	pace     time.Duration
	logger   *slog.Logger
	parent   context.Context
	now      func() time.Time
	sleep    Sleeper
	observer Handler
	onStart  func()

	mu       sync.Mutex
	watches  []*watch
	nextCode int
	sweeps   uint64
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewService creates a stopped [Service] for one watch family.
func NewService(cfg Config) *Service {
	s := &Service{
		family:   cfg.Family,
		pace:     cfg.Pace,
		logger:   cfg.Logger,
		parent:   cfg.Context,
		now:      cfg.Now,
		sleep:    cfg.Sleep,
		observer: cfg.Observer,
		onStart:  cfg.OnStart,
		nextCode: 1,
	}
	if s.pace <= 0 {
		s.pace = DefaultPace
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.parent == nil {
		s.parent = context.Background()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sleep == nil {
		s.sleep = Sleep
	}
	return s
}

// Family returns the family the service was created for.
func (s *Service) Family() Family {
	return s.family
}

// Register appends a watch and returns its notification code. Codes start at
// 1 and increase by one per registration. The first registration starts the
// background goroutine.
func (s *Service) Register(name string, cond Condition, h Handler) (int, error) {
	if cond == nil {
		return 0, ErrNilCondition
	}
	if h == nil {
		return 0, ErrNilHandler
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return 0, ErrStopped
	}

	w := &watch{
		code:         s.nextCode,
		name:         name,
		cond:         cond,
		handler:      h,
		registeredAt: s.now(),
	}
	s.nextCode++
	s.watches = append(s.watches, w)

	if !s.started {
		s.startLocked()
	}
	return w.code, nil
}

// startLocked spawns the polling goroutine. Caller holds s.mu.
func (s *Service) startLocked() {
	s.started = true

	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()

	s.logger.Debug("poller started", "family", s.family, "pace", s.pace)
	if s.onStart != nil {
		s.onStart()
	}
}

// Running reports whether the polling goroutine has been started and not
// stopped.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.stopped
}

// Len returns the number of registered watches.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watches)
}

// Watches returns the current state of every watch in registration order.
func (s *Service) Watches() []WatchState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]WatchState, len(s.watches))
	for i, w := range s.watches {
		out[i] = WatchState{
			Family:       s.family,
			Code:         w.code,
			Name:         w.name,
			Last:         w.last,
			Fired:        w.fired,
			Failures:     w.failures,
			RegisteredAt: w.registeredAt,
		}
	}
	return out
}

// Stop cancels the polling goroutine and waits for it and for any handlers
// still running. Stop is idempotent and safe to call before the first
// registration; later registrations fail with [ErrStopped].
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Service) run(ctx context.Context) {
	for {
		s.mu.Lock()
		n := len(s.watches)
		if n > 0 {
			s.sweeps++
		}
		sweep := s.sweeps
		s.mu.Unlock()

		if n == 0 {
			if err := s.sleep(ctx, s.pace); err != nil {
				return
			}
			continue
		}

		for i := 0; i < n; i++ {
			s.mu.Lock()
			w := s.watches[i]
			s.mu.Unlock()

			s.check(ctx, w, sweep)

			if err := s.sleep(ctx, s.pace); err != nil {
				return
			}
		}
	}
}

// check evaluates one watch and raises an event on a rising edge.
func (s *Service) check(ctx context.Context, w *watch, sweep uint64) {
	current, err := s.safeEvaluate(ctx, w)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.mu.Lock()
		w.failures++
		s.mu.Unlock()
		s.logger.Warn("watch evaluation failed",
			"family", s.family,
			"code", w.code,
			"name", w.name,
			"error", err,
		)
		return
	}

	s.mu.Lock()
	rising := current && !w.last
	w.last = current
	if rising {
		w.fired++
	}
	s.mu.Unlock()

	if !rising {
		return
	}

	ev := Event{
		Family: s.family,
		Code:   w.code,
		Name:   w.name,
		Sweep:  sweep,
		At:     s.now(),
	}
	s.logger.Debug("watch fired", "family", s.family, "code", w.code, "name", w.name, "sweep", sweep)
	s.raise(w.handler, ev)
}

// raise dispatches ev without blocking the polling loop.
func (s *Service) raise(h Handler, ev Event) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.invokeHandlerSafe(h, ev)
		if s.observer != nil {
			s.invokeHandlerSafe(s.observer, ev)
		}
	}()
}

// safeEvaluate calls the condition with panic recovery. A panic is logged
// with a correlation ID and reported as an error.
func (s *Service) safeEvaluate(ctx context.Context, w *watch) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("condition panic",
				"correlation_id", correlationID,
				"family", s.family,
				"code", w.code,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			ok = false
			err = fmt.Errorf("condition panic (correlation_id: %s)", correlationID)
		}
	}()
	return w.cond(ctx)
}

func (s *Service) invokeHandlerSafe(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic",
				"correlation_id", uuid.NewString(),
				"family", ev.Family,
				"code", ev.Code,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	h(ev)
}

// Sleep is the default [Sleeper].
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
