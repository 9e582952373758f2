// Package transport opens the buses and pins a sumobit.Board runs on.
//
// [OpenI2C] returns a Linux I2C bus through periph.io. [OpenSerialBridge]
// tunnels I2C transactions over a USB serial adapter for development hosts
// without an I2C controller. [HostPins] reads the edge and opponent sensors
// through periph.io GPIO and ADC pins.
package transport
