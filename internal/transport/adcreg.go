package transport

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/analog"
)

var (
	adcMu     sync.RWMutex
	adcByName = make(map[string]analog.PinADC)
)

// RegisterADC makes adc available to [ADCByName] under name. ADC drivers
// (an ADS1x15 channel, a board's built-in converter) register their
// channels here so configurations can refer to them by name, the same way
// GPIOs are found through gpioreg.
func RegisterADC(name string, adc analog.PinADC) error {
	if name == "" {
		return errors.New("adc name is required")
	}
	if adc == nil {
		return fmt.Errorf("adc %q: nil pin", name)
	}

	adcMu.Lock()
	defer adcMu.Unlock()
	if _, ok := adcByName[name]; ok {
		return fmt.Errorf("adc %q: already registered", name)
	}
	adcByName[name] = adc
	return nil
}

// UnregisterADC removes a channel registered with [RegisterADC].
func UnregisterADC(name string) error {
	adcMu.Lock()
	defer adcMu.Unlock()
	if _, ok := adcByName[name]; !ok {
		return fmt.Errorf("adc %q: not registered", name)
	}
	delete(adcByName, name)
	return nil
}

// ADCByName returns the channel registered under name, or nil.
func ADCByName(name string) analog.PinADC {
	adcMu.RLock()
	defer adcMu.RUnlock()
	return adcByName[name]
}
