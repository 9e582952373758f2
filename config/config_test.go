package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/sumobit"
)

func TestParse_MinimalConfig(t *testing.T) {
	cfg, err := Parse([]byte(`board: {bus: sim}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Title != "SUMO:BIT" {
		t.Errorf("Title = %q, want SUMO:BIT", cfg.Title)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.TelemetryInterval.Duration() != time.Second {
		t.Errorf("TelemetryInterval = %v, want 1s", cfg.TelemetryInterval.Duration())
	}
	if cfg.Board.Address != 0x08 {
		t.Errorf("Address = %#x, want 0x08", cfg.Board.Address)
	}
	if len(cfg.Watches) != 0 {
		t.Errorf("len(Watches) = %d, want 0", len(cfg.Watches))
	}
}

func TestParse_EmptyDefaultsToI2C(t *testing.T) {
	cfg, err := Parse([]byte(`port: 9000`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Board.Bus != BusI2C {
		t.Errorf("Bus = %q, want i2c", cfg.Board.Bus)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
title: Arena bot
port: 9090
telemetry_interval: 500ms
history: 20
calibrate: 5

board:
  bus: serial
  device: /dev/ttyUSB0
  baud: 57600
  timeout: 250ms
  address: 0x10
  pins:
    edge_right: ADC0
    opp_front_center: GPIO14

watches:
  - name: right stall
    channel: current-right
    compare: ">"
    threshold: 7.0
    action: brake
  - name: mode 3
    channel: mode
    compare: "="
    threshold: 3
    action: rgb:#00ff00
  - name: border
    channel: edge-both
    compare: "<"
    threshold: 300
    action:
      type: backoff
      turn: left
  - name: low battery
    channel: battery
    compare: lt
    threshold: 6.4
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Arena bot" || cfg.Port != 9090 || cfg.History != 20 || cfg.Calibrate != 5 {
		t.Errorf("top level = %+v", cfg)
	}
	if cfg.TelemetryInterval.Duration() != 500*time.Millisecond {
		t.Errorf("TelemetryInterval = %v, want 500ms", cfg.TelemetryInterval.Duration())
	}

	b := cfg.Board
	if b.Bus != BusSerial || b.Device != "/dev/ttyUSB0" || b.Baud != 57600 || b.Address != 0x10 {
		t.Errorf("board = %+v", b)
	}
	if b.Timeout.Duration() != 250*time.Millisecond {
		t.Errorf("Timeout = %v, want 250ms", b.Timeout.Duration())
	}
	if b.Pins["opp_front_center"] != "GPIO14" {
		t.Errorf("Pins = %v", b.Pins)
	}

	if len(cfg.Watches) != 4 {
		t.Fatalf("len(Watches) = %d, want 4", len(cfg.Watches))
	}
	want := []ActionConfig{
		{Type: ActionBrake},
		{Type: ActionRGB, Color: "#00ff00"},
		{Type: ActionBackoff, Turn: "left"},
		{Type: ActionLog},
	}
	for i, w := range want {
		if cfg.Watches[i].Action != w {
			t.Errorf("watches[%d].Action = %+v, want %+v", i, cfg.Watches[i].Action, w)
		}
	}
	if cfg.Watches[0].Threshold != 7.0 {
		t.Errorf("Threshold = %v, want 7", cfg.Watches[0].Threshold)
	}
}

func TestParse_ActionShorthand(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		want    ActionConfig
		wantErr string
	}{
		{"log", "log", ActionConfig{Type: ActionLog}, ""},
		{"brake", "brake", ActionConfig{Type: ActionBrake}, ""},
		{"rgb name", "rgb:violet", ActionConfig{Type: ActionRGB, Color: "violet"}, ""},
		{"backoff", "backoff:right", ActionConfig{Type: ActionBackoff, Turn: "right"}, ""},
		{"servo", "servo:all:90", ActionConfig{Type: ActionServo, Servo: "all", Position: 90}, ""},
		{"brake with arg", "brake:now", ActionConfig{}, "takes no argument"},
		{"servo missing position", "servo:1", ActionConfig{}, "expected servo"},
		{"servo bad position", "servo:1:up", ActionConfig{}, "invalid position"},
		{"unknown", "explode", ActionConfig{}, "unknown action"},
		{"bad color", "rgb:mauve", ActionConfig{}, "invalid selection"},
		{"bad turn", "backoff:up", ActionConfig{}, "invalid selection"},
		{"bad servo", "servo:3:90", ActionConfig{}, "invalid selection"},
		{"servo out of range", "servo:1:200", ActionConfig{}, "between 0 and 180"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaml := `
board: {bus: sim}
watches:
  - name: w
    channel: mode
    compare: "="
    threshold: 1
    action: "` + tt.action + `"
`
			cfg, err := Parse([]byte(yaml))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Parse() expected error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := cfg.Watches[0].Action; got != tt.want {
				t.Errorf("Action = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"port range", "port: 70000", "port must be between"},
		{"telemetry too fast", "telemetry_interval: 10ms", "telemetry_interval must be at least"},
		{"negative history", "history: -1", "history cannot be negative"},
		{"calibrate range", "calibrate: 12", "calibrate must be between"},
		{"unknown bus", "board: {bus: spi}", "bus must be"},
		{"serial needs device", "board: {bus: serial}", "device is required"},
		{"address range", "board: {bus: sim, address: 0x80}", "address must be between"},
		{"unknown pin", "board: {bus: sim, pins: {opp_back: GPIO4}}", `unknown pin "opp_back"`},
		{"empty pin", `board: {bus: sim, pins: {opp_left: ""}}`, "host pin name is required"},
		{"watch name", "board: {bus: sim}\nwatches: [{channel: mode, compare: '='}]", "name is required"},
		{"watch channel", "board: {bus: sim}\nwatches: [{name: w, channel: lidar, compare: '='}]", "invalid channel"},
		{"watch compare", "board: {bus: sim}\nwatches: [{name: w, channel: mode, compare: '>='}]", "invalid comparator"},
		{"action object type", "board: {bus: sim}\nwatches: [{name: w, channel: mode, compare: '=', action: {type: honk}}]", "unknown action type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("Parse() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("SUMOBIT_TEST_DEVICE", "/dev/ttyACM1")
	t.Setenv("SUMOBIT_TEST_PIN", "GPIO21")

	yaml := `
board:
  bus: serial
  device: ${SUMOBIT_TEST_DEVICE}
  pins:
    opp_left: ${SUMOBIT_TEST_PIN}
    opp_right: ${SUMOBIT_TEST_UNSET:-GPIO20}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Board.Device != "/dev/ttyACM1" {
		t.Errorf("Device = %q, want /dev/ttyACM1", cfg.Board.Device)
	}
	if cfg.Board.Pins["opp_left"] != "GPIO21" || cfg.Board.Pins["opp_right"] != "GPIO20" {
		t.Errorf("Pins = %v", cfg.Board.Pins)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	_, err := Parse([]byte("board: {bus: serial, device: '${SUMOBIT_TEST_MISSING}'}"))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var")
	}
	if !strings.Contains(err.Error(), "SUMOBIT_TEST_MISSING") {
		t.Errorf("error should name the variable, got: %v", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("port: [")); err == nil {
		t.Error("Parse() expected error for invalid YAML")
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte("telemetry_interval: soon"))
	if err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("Parse() error = %v, want invalid duration", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SUMOBIT_TEST_A", "alpha")

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "plain", false},
		{"${SUMOBIT_TEST_A}", "alpha", false},
		{"x-${SUMOBIT_TEST_A}-y", "x-alpha-y", false},
		{"${SUMOBIT_TEST_NOPE:-fallback}", "fallback", false},
		{"${SUMOBIT_TEST_NOPE:-}", "", false},
		{"${SUMOBIT_TEST_NOPE}", "", true},
	}
	for _, tt := range tests {
		got, err := expandEnvVars(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("expandEnvVars(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	if err := os.WriteFile(path, []byte("board: {bus: sim}\nport: 8181\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8181 {
		t.Errorf("Port = %d, want 8181", cfg.Port)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestParseServo(t *testing.T) {
	for in, want := range map[string]sumobit.Servo{"1": sumobit.Servo1, "2": sumobit.Servo2, "all": sumobit.ServoAll} {
		if got, err := parseServo(in); err != nil || got != want {
			t.Errorf("parseServo(%q) = (%v, %v), want %v", in, got, err, want)
		}
	}
}
