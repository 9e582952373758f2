package sumobit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/sumobit/internal/registers"
	"github.com/jpalmerr/sumobit/internal/sim"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestBoard returns a board wired to a fresh simulator. Extra options are
// applied after the defaults.
func newTestBoard(t *testing.T, opts ...Option) (*Board, *sim.Board) {
	t.Helper()

	hw := sim.New(registers.AddressDefault)
	all := append([]Option{
		WithLogger(testLogger()),
		WithPins(hw),
		WithPace(FamilyMotorCurrent, time.Millisecond),
		WithPace(FamilyMode, time.Millisecond),
		WithPace(FamilyEdge, time.Millisecond),
		WithPace(FamilyBattery, time.Millisecond),
	}, opts...)

	b, err := NewBoard(hw, all...)
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b, hw
}

// fakeClock is a manually advanced clock whose sleep advances time instead
// of blocking.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	slept  []time.Duration
	onTick func(d time.Duration)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if d > 0 {
		c.now = c.now.Add(d)
	}
	c.slept = append(c.slept, d)
	c.mu.Unlock()
	return nil
}

func (c *fakeClock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.slept...)
}

// regs collects the register writes seen by the simulator as a map of the
// final value per register.
func regs(writes []sim.Write) map[byte]byte {
	out := make(map[byte]byte, len(writes))
	for _, w := range writes {
		out[w.Reg] = w.Value
	}
	return out
}

func TestNewBoard_NilBus(t *testing.T) {
	if _, err := NewBoard(nil); err == nil {
		t.Error("NewBoard(nil) should fail")
	}
}

func TestNewBoard_WrongAddressFailsReads(t *testing.T) {
	hw := sim.New(registers.AddressDefault)
	b, err := NewBoard(hw, WithAddress(0x10), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}
	defer func() { _ = b.Close() }()

	if b.Address() != 0x10 {
		t.Errorf("Address() = %#x, want 0x10", b.Address())
	}
	if _, err := b.ReadMode(); !errors.Is(err, ErrHardwareRead) {
		t.Errorf("ReadMode() error = %v, want ErrHardwareRead", err)
	}
}

func TestRunMotor(t *testing.T) {
	tests := []struct {
		name  string
		motor Motor
		dir   Direction
		speed int
		accel int
		want  map[byte]byte
	}{
		{
			name:  "right forward",
			motor: MotorRight, dir: Forward, speed: 128, accel: 4,
			want: map[byte]byte{registers.PWM1: 128, registers.DIR1: 0, registers.ACCEL1: 4},
		},
		{
			name:  "left backward clamps",
			motor: MotorLeft, dir: Backward, speed: 400, accel: 0,
			want: map[byte]byte{registers.PWM2: 255, registers.DIR2: 1, registers.ACCEL2: 1},
		},
		{
			name:  "all",
			motor: MotorAll, dir: Forward, speed: -5, accel: 12,
			want: map[byte]byte{
				registers.PWM1: 0, registers.DIR1: 0, registers.ACCEL1: 9,
				registers.PWM2: 0, registers.DIR2: 0, registers.ACCEL2: 9,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, hw := newTestBoard(t)
			if err := b.RunMotor(tt.motor, tt.dir, tt.speed, tt.accel); err != nil {
				t.Fatalf("RunMotor() error = %v", err)
			}
			got := regs(hw.Writes())
			if len(got) != len(tt.want) {
				t.Errorf("wrote %d registers, want %d: %v", len(got), len(tt.want), got)
			}
			for reg, v := range tt.want {
				if got[reg] != v {
					t.Errorf("register %#02x = %d, want %d", reg, got[reg], v)
				}
			}
		})
	}
}

func TestRunMotor_InvalidSelection(t *testing.T) {
	b, _ := newTestBoard(t)

	if err := b.RunMotor(Motor(7), Forward, 100, 4); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("invalid motor error = %v, want ErrInvalidSelection", err)
	}
	if err := b.RunMotor(MotorRight, Direction(3), 100, 4); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("invalid direction error = %v, want ErrInvalidSelection", err)
	}
}

func TestBrakeMotor(t *testing.T) {
	b, hw := newTestBoard(t)

	if err := b.RunMotor(MotorAll, Backward, 200, 9); err != nil {
		t.Fatal(err)
	}
	if err := b.BrakeMotor(MotorAll); err != nil {
		t.Fatalf("BrakeMotor() error = %v", err)
	}

	for _, reg := range []byte{registers.PWM1, registers.DIR1, registers.PWM2, registers.DIR2} {
		if v := hw.Register(reg); v != 0 {
			t.Errorf("register %#02x = %d after brake, want 0", reg, v)
		}
	}
	// acceleration is left as configured
	if v := hw.Register(registers.ACCEL1); v != 9 {
		t.Errorf("ACCEL1 = %d, want 9", v)
	}
}

func TestSetMotorsSpeed(t *testing.T) {
	b, hw := newTestBoard(t)

	if err := b.SetMotorsSpeed(-100, 200, 9); err != nil {
		t.Fatalf("SetMotorsSpeed() error = %v", err)
	}

	want := map[byte]byte{
		registers.PWM1: 200, registers.DIR1: registers.DirForward,
		registers.PWM2: 100, registers.DIR2: registers.DirBackward,
	}
	for reg, v := range want {
		if got := hw.Register(reg); got != v {
			t.Errorf("register %#02x = %d, want %d", reg, got, v)
		}
	}
}

func TestSetServoPosition(t *testing.T) {
	b, hw := newTestBoard(t)

	if err := b.SetServoPosition(ServoAll, 270, 9); err != nil {
		t.Fatalf("SetServoPosition() error = %v", err)
	}

	writes := hw.Writes()
	if len(writes) != 4 {
		t.Fatalf("wrote %d registers, want 4", len(writes))
	}
	// speeds go out before positions
	if writes[0].Reg != registers.SRV1Speed || writes[1].Reg != registers.SRV2Speed {
		t.Errorf("first writes = %v, want servo speeds", writes[:2])
	}
	if hw.Register(registers.SRV1Pos) != 180 || hw.Register(registers.SRV2Pos) != 180 {
		t.Error("position not clamped to 180")
	}
	if hw.Register(registers.SRV1Speed) != 5 {
		t.Errorf("speed = %d, want clamped 5", hw.Register(registers.SRV1Speed))
	}

	if err := b.DisableServo(Servo2); err != nil {
		t.Fatal(err)
	}
	if hw.Register(registers.SRV2Pos) != 0 {
		t.Error("DisableServo did not park servo 2 at 0")
	}
	if hw.Register(registers.SRV1Pos) != 180 {
		t.Error("DisableServo(Servo2) touched servo 1")
	}

	if err := b.SetServoPosition(Servo(0), 90, 5); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("invalid servo error = %v, want ErrInvalidSelection", err)
	}
}

func TestRGB(t *testing.T) {
	if got := RGB(300, -1, 0x80); got != 0xFF0080 {
		t.Errorf("RGB() = %v, want #ff0080", got)
	}

	b, hw := newTestBoard(t)

	if err := b.SetAllRGB(Indigo); err != nil {
		t.Fatal(err)
	}
	for _, p := range registers.Pixels {
		if hw.Register(p.R) != 0x4B || hw.Register(p.G) != 0x00 || hw.Register(p.B) != 0x82 {
			t.Errorf("pixel %v not set to indigo", p)
		}
	}

	if err := b.SetRGBPixel(1, Green); err != nil {
		t.Fatal(err)
	}
	if hw.Register(registers.G1) != 0xFF || hw.Register(registers.R1) != 0 {
		t.Error("pixel 1 not green")
	}
	if hw.Register(registers.R0) != 0x4B {
		t.Error("SetRGBPixel(1) touched pixel 0")
	}

	if err := b.SetRGBPixel(2, Red); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("pixel 2 error = %v, want ErrInvalidSelection", err)
	}

	if err := b.ClearRGB(); err != nil {
		t.Fatal(err)
	}
	for _, reg := range []byte{registers.R0, registers.G0, registers.B0, registers.R1, registers.G1, registers.B1} {
		if hw.Register(reg) != 0 {
			t.Errorf("register %#02x = %d after clear", reg, hw.Register(reg))
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"red", Red, false},
		{"Violet", Violet, false},
		{"#00ffff", 0x00FFFF, false},
		{"0x123456", 0x123456, false},
		{"#fff", 0, true},
		{"chartreuse", 0, true},
		{"#gggggg", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReadouts(t *testing.T) {
	b, hw := newTestBoard(t)
	hw.SetBattery(7.42)
	hw.SetCurrent(6.5, 1.25)
	hw.SetMode(9)

	if v, err := b.ReadBattery(); err != nil || v != 7.42 {
		t.Errorf("ReadBattery() = (%v, %v), want 7.42", v, err)
	}
	if v, err := b.ReadMotorCurrent(MotorRight); err != nil || v != 6.5 {
		t.Errorf("ReadMotorCurrent(right) = (%v, %v), want 6.5", v, err)
	}
	if v, err := b.ReadMotorCurrent(MotorLeft); err != nil || v != 1.25 {
		t.Errorf("ReadMotorCurrent(left) = (%v, %v), want 1.25", v, err)
	}
	if _, err := b.ReadMotorCurrent(MotorAll); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("ReadMotorCurrent(all) error = %v, want ErrInvalidSelection", err)
	}
	if v, err := b.ReadMode(); err != nil || v != 9 {
		t.Errorf("ReadMode() = (%v, %v), want 9", v, err)
	}
	if ok, _ := b.CheckMode(9); !ok {
		t.Error("CheckMode(9) = false")
	}
	if ok, _ := b.CheckMode(3); ok {
		t.Error("CheckMode(3) = true")
	}
}

func TestReadouts_HardwareFailure(t *testing.T) {
	b, hw := newTestBoard(t)
	hw.InjectFault(sim.ErrInjected)

	_, err := b.ReadBattery()
	if !errors.Is(err, ErrHardwareRead) || !errors.Is(err, sim.ErrInjected) {
		t.Errorf("ReadBattery() error = %v, want ErrHardwareRead wrapping bus error", err)
	}
	if err := b.BrakeMotor(MotorAll); !errors.Is(err, ErrHardwareWrite) {
		t.Errorf("BrakeMotor() error = %v, want ErrHardwareWrite", err)
	}
}

func TestEdge(t *testing.T) {
	b, hw := newTestBoard(t)
	hw.SetAnalog(PinEdgeRight, 800)
	hw.SetAnalog(PinEdgeLeft, 600)

	if v, err := b.ReadEdge(SideLeft); err != nil || v != 600 {
		t.Errorf("ReadEdge(left) = (%d, %v), want 600", v, err)
	}
	if _, err := b.ReadEdge(SideBoth); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("ReadEdge(both) error = %v, want ErrInvalidSelection", err)
	}

	if ok, _ := b.CompareEdge(SideBoth, MoreThan, 700); ok {
		t.Error("CompareEdge(both, >, 700) = true with left=600")
	}
	if ok, _ := b.CompareEdge(SideBoth, MoreThan, 500); !ok {
		t.Error("CompareEdge(both, >, 500) = false with 800/600")
	}
	if ok, _ := b.CompareEdge(SideRight, LessThan, 900); !ok {
		t.Error("CompareEdge(right, <, 900) = false with 800")
	}

	if _, err := b.EdgeDetected(SideRight); !errors.Is(err, ErrNotCalibrated) {
		t.Errorf("EdgeDetected() before calibration error = %v, want ErrNotCalibrated", err)
	}

	if err := b.CalibrateEdgeThreshold(DefaultCalibration); err != nil {
		t.Fatal(err)
	}
	rt, lt, err := b.EdgeThresholds()
	if err != nil || rt != 400 || lt != 300 {
		t.Errorf("EdgeThresholds() = (%v, %v, %v), want (400, 300)", rt, lt, err)
	}

	if ok, _ := b.EdgeDetected(SideBoth); ok {
		t.Error("EdgeDetected(both) = true over the arena surface")
	}
	hw.SetAnalog(PinEdgeLeft, 120)
	if ok, _ := b.EdgeDetected(SideLeft); !ok {
		t.Error("EdgeDetected(left) = false over the border")
	}
	if ok, _ := b.EdgeDetected(SideBoth); ok {
		t.Error("EdgeDetected(both) = true with only left over the border")
	}
	if ok, _ := b.CompareEdge(SideBoth, LessThan, 300); ok {
		t.Error("CompareEdge(both, <, 300) = true with only left below")
	}
	hw.SetAnalog(PinEdgeRight, 100)
	if ok, _ := b.EdgeDetected(SideBoth); !ok {
		t.Error("EdgeDetected(both) = false with both sides over the border")
	}
}

func TestEdge_NoPins(t *testing.T) {
	hw := sim.New(registers.AddressDefault)
	b, err := NewBoard(hw, WithLogger(testLogger()))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = b.Close() }()

	_, err = b.ReadEdge(SideRight)
	if !errors.Is(err, ErrNoPins) || !errors.Is(err, ErrHardwareRead) {
		t.Errorf("ReadEdge() without pins error = %v", err)
	}
	if _, err := b.OpponentValue(SensorLeft); !errors.Is(err, ErrNoPins) {
		t.Errorf("OpponentValue() without pins error = %v", err)
	}
}

func TestOpponent(t *testing.T) {
	b, hw := newTestBoard(t)

	if ok, err := b.OpponentDetected(SensorNone); err != nil || !ok {
		t.Errorf("OpponentDetected(none) = (%v, %v), want true with nothing in sight", ok, err)
	}
	for _, pin := range []int{PinOppLeft, PinOppFrontLeft, PinOppFrontCenter, PinOppFrontRight, PinOppRight} {
		if !hw.PulledUp(pin) {
			t.Errorf("pin P%d not pulled up", pin)
		}
	}

	hw.SetDigital(PinOppFrontRight, 0)

	if v, _ := b.OpponentValue(SensorFrontRight); v != 0 {
		t.Errorf("OpponentValue(front-right) = %d, want 0", v)
	}
	if ok, _ := b.OpponentDetected(SensorFrontRight); !ok {
		t.Error("OpponentDetected(front-right) = false")
	}
	if ok, _ := b.OpponentDetected(SensorNone); ok {
		t.Error("OpponentDetected(none) = true with front-right detecting")
	}
	if ok, _ := b.OpponentDetected(SensorAll); ok {
		t.Error("OpponentDetected(all) = true with one sensor detecting")
	}

	if ok, _ := b.OpponentLevels([5]bool{true, true, true, false, true}); !ok {
		t.Error("OpponentLevels() did not match current levels")
	}
	if ok, _ := b.OpponentLevels([5]bool{true, true, true, true, true}); ok {
		t.Error("OpponentLevels() matched a wrong pattern")
	}

	if _, err := b.OpponentValue(SensorAll); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("OpponentValue(all) error = %v, want ErrInvalidSelection", err)
	}
}

func TestSnapshot(t *testing.T) {
	b, hw := newTestBoard(t)
	hw.SetBattery(7.8)
	hw.SetCurrent(1.5, 2.5)
	hw.SetMode(4)
	hw.SetAnalog(PinEdgeRight, 512)
	hw.SetAnalog(PinEdgeLeft, 500)

	tel, err := b.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if tel.Battery != 7.8 || tel.CurrentRight != 1.5 || tel.CurrentLeft != 2.5 || tel.Mode != 4 {
		t.Errorf("Snapshot() readouts = %+v", tel)
	}
	if tel.EdgeRight == nil || *tel.EdgeRight != 512 || tel.EdgeLeft == nil || *tel.EdgeLeft != 500 {
		t.Errorf("Snapshot() edges = %v/%v", tel.EdgeRight, tel.EdgeLeft)
	}
	if len(tel.Opponents) != 5 {
		t.Errorf("Snapshot() opponents = %v", tel.Opponents)
	}
	if len(tel.Errors) != 0 {
		t.Errorf("Snapshot() errors = %v", tel.Errors)
	}

	hw.InjectFault(sim.ErrInjected)
	tel, err = b.Snapshot(context.Background())
	if !errors.Is(err, ErrHardwareRead) {
		t.Errorf("Snapshot() with faults error = %v, want ErrHardwareRead", err)
	}
	if len(tel.Errors) == 0 {
		t.Error("Snapshot() with faults listed no errors")
	}
}
