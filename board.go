package sumobit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"tinygo.org/x/drivers"

	"github.com/jpalmerr/sumobit/internal/poller"
	"github.com/jpalmerr/sumobit/internal/registers"
)

// Default pause after each watch evaluation, per family.
const (
	defaultCurrentPace = 10 * time.Millisecond
	defaultModePace    = 20 * time.Millisecond
	defaultEdgePace    = 10 * time.Millisecond
	defaultBatteryPace = 20 * time.Millisecond
)

// Board drives a SUMO:BIT expansion board over a register-addressed two-wire
// bus, plus the host pins wired to its edge and opponent sensors.
//
// Board is created with [NewBoard] and is safe for concurrent use. Bus
// transactions are serialized internally, so watches polling in the
// background never interleave with motor or LED writes.
//
// Watches registered through [Board.OnEvent] and its family shorthands are
// polled by one background goroutine per family. Call [Board.Close] to stop
// them.
type Board struct {
	bus    drivers.I2C
	addr   uint16
	pins   Pins
	logger *slog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	busMu sync.Mutex

	mu              sync.Mutex
	pulledUp        bool
	calibrated      bool
	rightThreshold  float64
	leftThreshold   float64
	searchDirection int
	searchAt        time.Time

	services map[Family]*poller.Service

	obsMu     sync.RWMutex
	observers map[int]func(Event)
	nextObs   int
}

// NewBoard creates a [Board] talking to the controller on bus.
//
// bus is any two-wire transport with the tinygo.org/x/drivers I2C shape:
// a periph.io bus, the serial bridge from the CLI, or a simulator in tests.
// The controller address defaults to 0x08; override it with [WithAddress].
//
// Example:
//
//	bus, _ := i2creg.Open("")
//	board, err := sumobit.NewBoard(bus,
//	    sumobit.WithPins(pins),
//	    sumobit.WithLogger(logger),
//	)
func NewBoard(bus drivers.I2C, opts ...Option) (*Board, error) {
	if bus == nil {
		return nil, errors.New("bus cannot be nil")
	}

	cfg := &boardConfig{
		address: registers.AddressDefault,
		pace: map[Family]time.Duration{
			FamilyMotorCurrent: defaultCurrentPace,
			FamilyMode:         defaultModePace,
			FamilyEdge:         defaultEdgePace,
			FamilyBattery:      defaultBatteryPace,
		},
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.now
	if now == nil {
		now = time.Now
	}
	sleep := cfg.sleep
	if sleep == nil {
		sleep = poller.Sleep
	}
	ctx := cfg.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	b := &Board{
		bus:             bus,
		addr:            cfg.address,
		pins:            cfg.pins,
		logger:          logger,
		now:             now,
		sleep:           sleep,
		searchDirection: -1,
		searchAt:        now(),
		services:        make(map[Family]*poller.Service, len(Families)),
		observers:       make(map[int]func(Event)),
	}
	for _, fn := range cfg.observers {
		b.addObserver(fn)
	}

	for _, f := range Families {
		b.services[f] = poller.NewService(poller.Config{
			Family:   poller.Family(f),
			Pace:     cfg.pace[f],
			Logger:   logger,
			Context:  ctx,
			Now:      now,
			Sleep:    sleep,
			Observer: b.notifyObservers,
		})
	}

	return b, nil
}

// Address returns the bus address of the board controller.
func (b *Board) Address() uint16 {
	return b.addr
}

// Close stops every background poller and waits for running handlers.
// The bus itself is owned by the caller and is left open.
func (b *Board) Close() error {
	for _, f := range Families {
		b.services[f].Stop()
	}
	return nil
}

// addObserver subscribes fn to every fired event and returns a function
// that removes it.
func (b *Board) addObserver(fn func(Event)) (remove func()) {
	b.obsMu.Lock()
	id := b.nextObs
	b.nextObs++
	b.observers[id] = fn
	b.obsMu.Unlock()

	return func() {
		b.obsMu.Lock()
		delete(b.observers, id)
		b.obsMu.Unlock()
	}
}

func (b *Board) notifyObservers(ev poller.Event) {
	b.obsMu.RLock()
	if len(b.observers) == 0 {
		b.obsMu.RUnlock()
		return
	}
	ids := make([]int, 0, len(b.observers))
	for id := range b.observers {
		ids = append(ids, id)
	}
	fns := make([]func(Event), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, b.observers[id])
	}
	b.obsMu.RUnlock()

	pub := toEvent(ev)
	for _, fn := range fns {
		fn(pub)
	}
}

// readRegister reads one controller register.
func (b *Board) readRegister(reg byte) (byte, error) {
	var buf [1]byte

	b.busMu.Lock()
	err := b.bus.Tx(b.addr, []byte{reg}, buf[:])
	b.busMu.Unlock()

	if err != nil {
		return 0, fmt.Errorf("%w: register %#02x: %w", ErrHardwareRead, reg, err)
	}
	return buf[0], nil
}

// readPair reads a HIGH/LOW register pair as a hundredths readout.
func (b *Board) readPair(p registers.Pair) (float64, error) {
	high, err := b.readRegister(p.High)
	if err != nil {
		return 0, err
	}
	low, err := b.readRegister(p.Low)
	if err != nil {
		return 0, err
	}
	return registers.Hundredths(registers.Word(high, low)), nil
}

// writeRegisters writes each (register, value) pair in order, stopping at
// the first failure.
func (b *Board) writeRegisters(kv ...byte) error {
	b.busMu.Lock()
	defer b.busMu.Unlock()

	for i := 0; i+1 < len(kv); i += 2 {
		if err := b.bus.Tx(b.addr, []byte{kv[i], kv[i+1]}, nil); err != nil {
			return fmt.Errorf("%w: register %#02x: %w", ErrHardwareWrite, kv[i], err)
		}
	}
	return nil
}
