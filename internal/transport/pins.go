package transport

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// adcMax is the full scale of the readings HostPins reports.
const adcMax = 1023

// PinsOption configures [HostPins].
type PinsOption func(*HostPins) error

// WithADCBits sets the resolution of the ADC samples so they can be scaled
// to 10 bits. Defaults to 10.
func WithADCBits(bits int) PinsOption {
	return func(p *HostPins) error {
		if bits < 1 || bits > 31 {
			return fmt.Errorf("adc bits must be between 1 and 31, got %d", bits)
		}
		p.adcBits = bits
		return nil
	}
}

// HostPins reads sensors wired straight to host pins. Digital pins are
// looked up by name in the periph.io GPIO registry; analog pins are
// supplied by the caller since periph.io has no ADC registry.
type HostPins struct {
	digital map[int]gpio.PinIO
	analog  map[int]analog.PinADC
	adcBits int

	mu sync.Mutex
}

// NewHostPins resolves names (logical pin number to GPIO name) and wraps
// adcs (logical pin number to ADC channel). Call host.Init, or [OpenI2C],
// before resolving GPIO names.
func NewHostPins(names map[int]string, adcs map[int]analog.PinADC, opts ...PinsOption) (*HostPins, error) {
	p := &HostPins{
		digital: make(map[int]gpio.PinIO, len(names)),
		analog:  make(map[int]analog.PinADC, len(adcs)),
		adcBits: 10,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	for pin, name := range names {
		io := gpioreg.ByName(name)
		if io == nil {
			return nil, fmt.Errorf("pin P%d: no gpio named %q", pin, name)
		}
		p.digital[pin] = io
	}
	for pin, adc := range adcs {
		if adc == nil {
			return nil, fmt.Errorf("pin P%d: nil adc", pin)
		}
		p.analog[pin] = adc
	}
	return p, nil
}

// ReadAnalog returns the sample of an ADC pin scaled to 0-1023.
func (p *HostPins) ReadAnalog(pin int) (int, error) {
	adc, ok := p.analog[pin]
	if !ok {
		return 0, fmt.Errorf("pin P%d: not an analog input", pin)
	}
	s, err := adc.Read()
	if err != nil {
		return 0, fmt.Errorf("pin P%d: %w", pin, err)
	}
	return scaleRaw(s.Raw, p.adcBits), nil
}

// ReadDigital returns 1 for a high level and 0 for a low one.
func (p *HostPins) ReadDigital(pin int) (int, error) {
	io, ok := p.digital[pin]
	if !ok {
		return 0, fmt.Errorf("pin P%d: not a digital input", pin)
	}
	if io.Read() == gpio.High {
		return 1, nil
	}
	return 0, nil
}

// PullUp configures pin as an input with its pull-up resistor enabled.
func (p *HostPins) PullUp(pin int) error {
	io, ok := p.digital[pin]
	if !ok {
		return fmt.Errorf("pin P%d: not a digital input", pin)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := io.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return fmt.Errorf("pin P%d: %w", pin, err)
	}
	return nil
}

// scaleRaw converts a bits-wide sample to the 10-bit range, saturating.
func scaleRaw(raw int32, bits int) int {
	v := int64(raw)
	switch {
	case bits > 10:
		v >>= uint(bits - 10)
	case bits < 10:
		v <<= uint(10 - bits)
	}
	if v < 0 {
		return 0
	}
	if v > adcMax {
		return adcMax
	}
	return int(v)
}
