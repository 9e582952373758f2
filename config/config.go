// Package config provides YAML configuration parsing for the sumobit daemon.
//
// This package lets the board run as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Arena bot
//	port: 8080
//	telemetry_interval: 500ms
//
//	board:
//	  bus: i2c
//	  device: ${SUMOBIT_I2C:-/dev/i2c-1}
//	  address: 0x08
//	  pins:
//	    opp_front_center: GPIO14
//
//	watches:
//	  - name: right stall
//	    channel: current-right
//	    compare: ">"
//	    threshold: 7.0
//	    action: brake
package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/sumobit"
)

const (
	defaultPort              = 8080
	defaultTelemetryInterval = time.Second
	defaultAddress           = 0x08

	// minTelemetryInterval keeps sampling from starving the watch pollers
	// of bus time.
	minTelemetryInterval = 50 * time.Millisecond
)

// Bus names accepted in board.bus.
const (
	BusI2C    = "i2c"
	BusSerial = "serial"
	BusSim    = "sim"
)

// Action types accepted in watches[].action.
const (
	ActionLog     = "log"
	ActionBrake   = "brake"
	ActionRGB     = "rgb"
	ActionBackoff = "backoff"
	ActionServo   = "servo"
)

// pinNumbers maps the logical pin names of board.pins to edge connector
// pins.
var pinNumbers = map[string]int{
	"edge_right":       sumobit.PinEdgeRight,
	"edge_left":        sumobit.PinEdgeLeft,
	"opp_left":         sumobit.PinOppLeft,
	"opp_front_left":   sumobit.PinOppFrontLeft,
	"opp_front_center": sumobit.PinOppFrontCenter,
	"opp_front_right":  sumobit.PinOppFrontRight,
	"opp_right":        sumobit.PinOppRight,
}

// analogPins lists the logical pins read through an ADC.
var analogPins = map[string]bool{
	"edge_right": true,
	"edge_left":  true,
}

// Config is the root configuration structure for the daemon.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title names the robot in logs. Defaults to "SUMO:BIT".
	Title string `yaml:"title"`

	// Port is the HTTP API port. Defaults to 8080.
	Port int `yaml:"port"`

	// TelemetryInterval is the time between sensor snapshots.
	// Accepts duration strings like "500ms" or "2s". Defaults to 1s.
	TelemetryInterval Duration `yaml:"telemetry_interval"`

	// History is the number of fired events the API keeps. Defaults to 100.
	History int `yaml:"history"`

	// Calibrate, if set, calibrates the edge thresholds at startup with this
	// coefficient (1-9). The robot must stand on the arena surface.
	Calibrate int `yaml:"calibrate"`

	Board BoardConfig `yaml:"board"`

	Watches []WatchConfig `yaml:"watches"`
}

// BoardConfig selects the bus the board controller is reached on.
type BoardConfig struct {
	// Bus is "i2c", "serial" or "sim". Defaults to "i2c".
	Bus string `yaml:"bus"`

	// Device is the I2C bus name (empty for the first bus) or the serial
	// device path. Supports ${VAR} and ${VAR:-default}.
	Device string `yaml:"device"`

	// Baud is the serial line rate. Defaults to 115200.
	Baud int `yaml:"baud"`

	// Timeout bounds each serial bridge response. Defaults to 100ms.
	Timeout Duration `yaml:"timeout"`

	// Address is the controller's 7-bit bus address. Defaults to 0x08.
	Address int `yaml:"address"`

	// Pins maps logical sensor pins (edge_right, opp_left, ...) to host
	// pin names. Opponent pins name gpioreg pins; edge pins name ADC
	// channels registered with transport.RegisterADC. Values support
	// environment variable substitution.
	Pins map[string]string `yaml:"pins"`
}

// WatchConfig defines one edge-triggered watch and the action it runs.
type WatchConfig struct {
	// Name is the display name of the watch.
	Name string `yaml:"name"`

	// Channel is a channel name such as "current-right" or "edge-both".
	Channel string `yaml:"channel"`

	// Compare is ">", "<" or "=".
	Compare string `yaml:"compare"`

	Threshold float64 `yaml:"threshold"`

	// Action runs each time the watch fires. Defaults to "log".
	Action ActionConfig `yaml:"action"`
}

// ActionConfig is what a watch does when it fires.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	action: brake
//	action: rgb:#ff0000
//	action: backoff:left
//	action: servo:1:90
//
// Structured object:
//
//	action:
//	  type: servo
//	  servo: all
//	  position: 90
type ActionConfig struct {
	// Type is "log", "brake", "rgb", "backoff" or "servo".
	Type string

	// Color is the RGB color (for type: rgb).
	Color string

	// Turn is "left" or "right" (for type: backoff).
	Turn string

	// Servo is "1", "2" or "all" (for type: servo).
	Servo string

	// Position is the servo angle in degrees (for type: servo).
	Position int
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for ActionConfig.
func (a *ActionConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return a.parseShorthand(s)

	case yaml.MappingNode:
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type     string `yaml:"type"`
			Color    string `yaml:"color"`
			Turn     string `yaml:"turn"`
			Servo    string `yaml:"servo"`
			Position int    `yaml:"position"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*a = ActionConfig(raw)
		return nil
	}

	return fmt.Errorf("action must be a string or object, got %v", node.Kind)
}

// parseShorthand parses action shorthand syntax.
//
// Supported formats:
//   - "log", "brake"
//   - "rgb:<color>" where color is a name or #rrggbb
//   - "backoff:<left|right>"
//   - "servo:<1|2|all>:<degrees>"
func (a *ActionConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	kind, arg, hasArg := strings.Cut(s, ":")
	a.Type = kind

	switch kind {
	case ActionLog, ActionBrake:
		if hasArg {
			return fmt.Errorf("action %q takes no argument", kind)
		}
	case ActionRGB:
		a.Color = arg
	case ActionBackoff:
		a.Turn = arg
	case ActionServo:
		servo, pos, ok := strings.Cut(arg, ":")
		if !ok {
			return fmt.Errorf("action %q: expected servo:<1|2|all>:<degrees>", s)
		}
		deg, err := strconv.Atoi(pos)
		if err != nil {
			return fmt.Errorf("action %q: invalid position: %w", s, err)
		}
		a.Servo = servo
		a.Position = deg
	default:
		return fmt.Errorf("unknown action %q (expected 'log', 'brake', 'rgb:<color>', 'backoff:<turn>' or 'servo:<n>:<deg>')", s)
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part, present when a default was given
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		sub := envVarPattern.FindStringSubmatch(match)
		name := sub[1]
		hasDefault := sub[2] != ""

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return sub[3]
		}
		firstErr = fmt.Errorf("environment variable %q is not set", name)
		return match
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the board device and pin names.
// Defaults are applied before validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "SUMO:BIT"
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.TelemetryInterval == 0 {
		c.TelemetryInterval = Duration(defaultTelemetryInterval)
	}
	if c.Board.Bus == "" {
		c.Board.Bus = BusI2C
	}
	if c.Board.Address == 0 {
		c.Board.Address = defaultAddress
	}
	for i := range c.Watches {
		if c.Watches[i].Action.Type == "" {
			c.Watches[i].Action.Type = ActionLog
		}
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.TelemetryInterval.Duration() < minTelemetryInterval {
		return fmt.Errorf("telemetry_interval must be at least %s, got %s",
			minTelemetryInterval, c.TelemetryInterval.Duration())
	}
	if c.History < 0 {
		return fmt.Errorf("history cannot be negative, got %d", c.History)
	}
	if c.Calibrate < 0 || c.Calibrate > 9 {
		return fmt.Errorf("calibrate must be between 1 and 9, got %d", c.Calibrate)
	}

	if err := c.Board.expandAndValidate(); err != nil {
		return fmt.Errorf("board: %w", err)
	}

	for i := range c.Watches {
		w := &c.Watches[i]
		if w.Name == "" {
			return fmt.Errorf("watches[%d]: name is required", i)
		}
		if _, err := sumobit.ParseChannel(w.Channel); err != nil {
			return fmt.Errorf("watches[%d] (%s): channel: %w", i, w.Name, err)
		}
		if _, err := sumobit.ParseComparator(w.Compare); err != nil {
			return fmt.Errorf("watches[%d] (%s): compare: %w", i, w.Name, err)
		}
		if err := w.Action.validate(); err != nil {
			return fmt.Errorf("watches[%d] (%s): action: %w", i, w.Name, err)
		}
	}
	return nil
}

func (b *BoardConfig) expandAndValidate() error {
	switch b.Bus {
	case BusI2C, BusSim:
	case BusSerial:
		if b.Device == "" {
			return fmt.Errorf("device is required for bus %q", b.Bus)
		}
	default:
		return fmt.Errorf("bus must be %q, %q or %q, got %q", BusI2C, BusSerial, BusSim, b.Bus)
	}

	expanded, err := expandEnvVars(b.Device)
	if err != nil {
		return fmt.Errorf("device: %w", err)
	}
	b.Device = expanded

	if b.Baud < 0 {
		return fmt.Errorf("baud cannot be negative, got %d", b.Baud)
	}
	if b.Timeout.Duration() < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", b.Timeout.Duration())
	}
	if b.Address < 0x03 || b.Address > 0x77 {
		return fmt.Errorf("address must be between 0x03 and 0x77, got %#x", b.Address)
	}

	for _, name := range sortedKeys(b.Pins) {
		if _, ok := pinNumbers[name]; !ok {
			return fmt.Errorf("pins: unknown pin %q", name)
		}
		expanded, err := expandEnvVars(b.Pins[name])
		if err != nil {
			return fmt.Errorf("pins[%s]: %w", name, err)
		}
		if expanded == "" {
			return fmt.Errorf("pins[%s]: host pin name is required", name)
		}
		b.Pins[name] = expanded
	}
	return nil
}

// validate checks the action arguments.
func (a *ActionConfig) validate() error {
	switch a.Type {
	case ActionLog, ActionBrake:
	case ActionRGB:
		if _, err := sumobit.ParseColor(a.Color); err != nil {
			return err
		}
	case ActionBackoff:
		if _, err := sumobit.ParseTurn(a.Turn); err != nil {
			return err
		}
	case ActionServo:
		if _, err := parseServo(a.Servo); err != nil {
			return err
		}
		if a.Position < 0 || a.Position > 180 {
			return fmt.Errorf("servo position must be between 0 and 180, got %d", a.Position)
		}
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

func parseServo(s string) (sumobit.Servo, error) {
	switch s {
	case "1":
		return sumobit.Servo1, nil
	case "2":
		return sumobit.Servo2, nil
	case "all":
		return sumobit.ServoAll, nil
	}
	return 0, fmt.Errorf("%w: servo %q", sumobit.ErrInvalidSelection, s)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
