// Package sim provides a simulated SUMO:BIT board.
//
// The simulator keeps a register file addressed the same way as the real
// controller and a set of scripted pin levels. It satisfies the I2C shape from
// tinygo.org/x/drivers, so the SDK talks to it exactly as it would talk to the
// hardware. Tests use it to script sensor readings; the CLI uses it for
// `bus: sim` dry runs.
package sim

import (
	"errors"
	"fmt"
	"sync"

	"tinygo.org/x/drivers"

	"github.com/jpalmerr/sumobit/internal/registers"
)

// ErrInjected is returned by transactions while a fault is injected.
var ErrInjected = errors.New("sim: injected bus fault")

var _ drivers.I2C = (*Board)(nil)

// Board is a simulated expansion board. It is safe for concurrent use.
type Board struct {
	addr uint16

	mu      sync.Mutex
	regs    [256]byte
	analog  map[int]int
	digital map[int]int
	pullUps map[int]bool
	writes  []Write
	fault   error
	txCount int
}

// Write records one register write seen by the simulator.
type Write struct {
	Reg   byte
	Value byte
}

// New creates a simulated board answering on addr. Opponent sensor inputs
// idle high (nothing detected) once pulled up, matching the real board.
func New(addr uint16) *Board {
	return &Board{
		addr:    addr,
		analog:  make(map[int]int),
		digital: make(map[int]int),
		pullUps: make(map[int]bool),
	}
}

// Tx implements drivers.I2C. A one-byte write followed by a read returns
// consecutive registers; a longer write stores the payload starting at the
// register in w[0].
func (b *Board) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.txCount++
	if b.fault != nil {
		return b.fault
	}
	if addr != b.addr {
		return fmt.Errorf("sim: no device at address %#x", addr)
	}
	if len(w) == 0 {
		return errors.New("sim: empty write buffer")
	}

	reg := w[0]
	for i, v := range w[1:] {
		at := reg + byte(i)
		b.regs[at] = v
		b.writes = append(b.writes, Write{Reg: at, Value: v})
	}
	for i := range r {
		r[i] = b.regs[reg+byte(i)]
	}
	return nil
}

// Register returns the current value of a register.
func (b *Board) Register(reg byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs[reg]
}

// SetRegister stores a raw register value without recording it as a write.
func (b *Board) SetRegister(reg, v byte) {
	b.mu.Lock()
	b.regs[reg] = v
	b.mu.Unlock()
}

// Writes returns a copy of the register writes seen so far.
func (b *Board) Writes() []Write {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Write(nil), b.writes...)
}

// ResetWrites clears the write log.
func (b *Board) ResetWrites() {
	b.mu.Lock()
	b.writes = nil
	b.mu.Unlock()
}

// TxCount returns the number of transactions attempted.
func (b *Board) TxCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txCount
}

// InjectFault makes every following transaction and pin read fail with err.
// Pass nil to clear the fault.
func (b *Board) InjectFault(err error) {
	b.mu.Lock()
	b.fault = err
	b.mu.Unlock()
}

func (b *Board) setPair(p registers.Pair, v float64) {
	h, l := registers.Split(registers.FromHundredths(v))
	b.mu.Lock()
	b.regs[p.High] = h
	b.regs[p.Low] = l
	b.mu.Unlock()
}

// SetBattery sets the battery voltage readout in volts.
func (b *Board) SetBattery(volts float64) { b.setPair(registers.Battery, volts) }

// SetCurrent sets both motor current readouts in amps.
func (b *Board) SetCurrent(right, left float64) {
	b.setPair(registers.CurrentRight, right)
	b.setPair(registers.CurrentLeft, left)
}

// SetMode sets the mode dial position.
func (b *Board) SetMode(mode int) {
	b.SetRegister(registers.DIP, byte(registers.Clamp(mode, 0, 15)))
}
