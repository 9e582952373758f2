package sim

import "fmt"

// SetAnalog scripts the 10-bit reading of an analog pin.
func (b *Board) SetAnalog(pin, value int) {
	b.mu.Lock()
	b.analog[pin] = value
	b.mu.Unlock()
}

// SetDigital scripts the level of a digital pin.
func (b *Board) SetDigital(pin, level int) {
	b.mu.Lock()
	b.digital[pin] = level
	b.mu.Unlock()
}

// PulledUp reports whether PullUp was called for pin.
func (b *Board) PulledUp(pin int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pullUps[pin]
}

// ReadAnalog returns the scripted reading for pin, 0 if none was set.
func (b *Board) ReadAnalog(pin int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fault != nil {
		return 0, b.fault
	}
	return b.analog[pin], nil
}

// ReadDigital returns the scripted level for pin. Unscripted pins read high
// when pulled up and low otherwise.
func (b *Board) ReadDigital(pin int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fault != nil {
		return 0, b.fault
	}
	if v, ok := b.digital[pin]; ok {
		return v, nil
	}
	if b.pullUps[pin] {
		return 1, nil
	}
	return 0, nil
}

// PullUp enables the simulated pull-up resistor on pin.
func (b *Board) PullUp(pin int) error {
	if pin < 0 {
		return fmt.Errorf("sim: invalid pin %d", pin)
	}
	b.mu.Lock()
	b.pullUps[pin] = true
	b.mu.Unlock()
	return nil
}
