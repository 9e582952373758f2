// Package registers holds the SUMO:BIT register map and the codecs for the
// values the board exposes as high/low byte pairs.
//
// Every register is a single byte. Sixteen-bit readouts (battery voltage and
// the two motor current channels) are split across a HIGH and a LOW register
// and carry hundredths of the physical unit.
package registers

// AddressDefault is the 7-bit I2C address of the board controller.
const AddressDefault = 0x08

// Register sub-addresses.
const (
	// Motor 1 (right) drive.
	PWM1   byte = 0x00 // R/W speed 0-255
	DIR1   byte = 0x01 // R/W 0 forward, 1 backward
	ACCEL1 byte = 0x02 // R/W acceleration factor 1-9

	// Motor 2 (left) drive.
	PWM2   byte = 0x03
	DIR2   byte = 0x04
	ACCEL2 byte = 0x05

	// Servos.
	SRV1Pos   byte = 0x10 // R/W degrees 0-180, 0 releases the servo
	SRV1Speed byte = 0x11 // R/W 1-5
	SRV2Pos   byte = 0x12
	SRV2Speed byte = 0x13

	// RGB pixels.
	R0 byte = 0x20
	G0 byte = 0x21
	B0 byte = 0x22
	R1 byte = 0x23
	G1 byte = 0x24
	B1 byte = 0x25

	// Readouts.
	VINHigh byte = 0x30 // R battery voltage, 0.01 V
	VINLow  byte = 0x31
	AN1High byte = 0x32 // R right motor current, 0.01 A
	AN1Low  byte = 0x33
	AN2High byte = 0x34 // R left motor current, 0.01 A
	AN2Low  byte = 0x35
	DIP     byte = 0x36 // R mode dial 0-15
)

// Direction register values.
const (
	DirForward  byte = 0
	DirBackward byte = 1
)

// Pair names the HIGH and LOW halves of a 16-bit readout.
type Pair struct {
	High byte
	Low  byte
}

var (
	// Battery is the battery voltage readout.
	Battery = Pair{High: VINHigh, Low: VINLow}
	// CurrentRight is the right motor current readout.
	CurrentRight = Pair{High: AN1High, Low: AN1Low}
	// CurrentLeft is the left motor current readout.
	CurrentLeft = Pair{High: AN2High, Low: AN2Low}
)

// Motor groups the drive registers of one motor channel.
type Motor struct {
	PWM   byte
	DIR   byte
	ACCEL byte
}

var (
	MotorRight = Motor{PWM: PWM1, DIR: DIR1, ACCEL: ACCEL1}
	MotorLeft  = Motor{PWM: PWM2, DIR: DIR2, ACCEL: ACCEL2}
)

// Servo groups the registers of one servo port.
type Servo struct {
	Pos   byte
	Speed byte
}

var (
	Servo1 = Servo{Pos: SRV1Pos, Speed: SRV1Speed}
	Servo2 = Servo{Pos: SRV2Pos, Speed: SRV2Speed}
)

// Pixel groups the colour registers of one RGB pixel.
type Pixel struct {
	R, G, B byte
}

// Pixels lists the on-board RGB pixels in index order.
var Pixels = [...]Pixel{
	{R: R0, G: G0, B: B0},
	{R: R1, G: G1, B: B1},
}
