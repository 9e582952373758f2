package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"
	"tinygo.org/x/drivers"
)

const (
	frameSync = 0x7E

	// maxPayload bounds the write and read lengths of one transaction.
	maxPayload = 0xFF

	// DefaultBaud is the bridge firmware's default line rate.
	DefaultBaud = 115200

	// DefaultTimeout bounds a whole response.
	DefaultTimeout = 100 * time.Millisecond
)

var (
	// ErrFrameCRC is returned when a response fails its checksum.
	ErrFrameCRC = errors.New("transport: response crc mismatch")

	// ErrBridgeTimeout is returned when the bridge does not answer in time.
	ErrBridgeTimeout = errors.New("transport: bridge response timeout")

	// ErrPayloadTooLarge is returned for transactions over 255 bytes each way.
	ErrPayloadTooLarge = errors.New("transport: payload too large")
)

// BridgeError is a non-zero status reported by the bridge, typically a NACK
// from the addressed device.
type BridgeError struct {
	Addr   uint16
	Status byte
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("transport: bridge status %#02x for device %#02x", e.Status, e.Addr)
}

var _ drivers.I2C = (*SerialBridge)(nil)

// SerialBridge runs I2C transactions through a USB serial adapter.
//
// Each transaction is one request frame
//
//	0x7E | addr | wlen | w... | rlen | crc16
//
// answered by one response frame
//
//	status | r... | crc16
//
// with both checksums big-endian and covering every preceding byte of the
// frame. Transactions are serialized.
type SerialBridge struct {
	mu      sync.Mutex
	rw      io.ReadWriter
	closer  io.Closer
	timeout time.Duration
}

// OpenSerialBridge opens device at baud. timeout bounds each response; zero
// selects [DefaultTimeout].
func OpenSerialBridge(device string, baud int, timeout time.Duration) (*SerialBridge, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}

	b := NewSerialBridge(port, timeout)
	b.closer = port
	return b, nil
}

// NewSerialBridge runs the bridge protocol over an already open stream.
func NewSerialBridge(rw io.ReadWriter, timeout time.Duration) *SerialBridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SerialBridge{rw: rw, timeout: timeout}
}

// Tx writes w to the device at addr and then reads len(r) bytes into r.
func (b *SerialBridge) Tx(addr uint16, w, r []byte) error {
	req, err := encodeRequest(addr, w, len(r))
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.rw.Write(req); err != nil {
		return fmt.Errorf("transport: write request: %w", err)
	}

	resp := make([]byte, 1+len(r)+2)
	if err := b.readFull(resp); err != nil {
		return err
	}
	return decodeResponse(addr, resp, r)
}

// Close closes the serial port if the bridge opened it.
func (b *SerialBridge) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// readFull fills buf, treating empty reads as the port's read timeout
// elapsing.
func (b *SerialBridge) readFull(buf []byte) error {
	deadline := time.Now().Add(b.timeout)
	for n := 0; n < len(buf); {
		m, err := b.rw.Read(buf[n:])
		n += m
		if n == len(buf) {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("transport: read response: %w", err)
		}
		if time.Now().After(deadline) {
			return ErrBridgeTimeout
		}
		if m == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	return nil
}

func encodeRequest(addr uint16, w []byte, rlen int) ([]byte, error) {
	if addr > 0x7F {
		return nil, fmt.Errorf("transport: address %#x is not 7-bit", addr)
	}
	if len(w) > maxPayload || rlen > maxPayload {
		return nil, ErrPayloadTooLarge
	}

	frame := make([]byte, 0, 4+len(w)+2)
	frame = append(frame, frameSync, byte(addr), byte(len(w)))
	frame = append(frame, w...)
	frame = append(frame, byte(rlen))
	crc := crc16(frame)
	return append(frame, byte(crc>>8), byte(crc)), nil
}

func decodeResponse(addr uint16, resp, r []byte) error {
	body := resp[:len(resp)-2]
	got := uint16(resp[len(resp)-2])<<8 | uint16(resp[len(resp)-1])
	if crc16(body) != got {
		return ErrFrameCRC
	}
	if body[0] != 0 {
		return &BridgeError{Addr: addr, Status: body[0]}
	}
	copy(r, body[1:])
	return nil
}
