package sumobit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jpalmerr/sumobit/internal/registers"
)

// Color is a 24-bit 0xRRGGBB value.
type Color uint32

// Preset colors.
const (
	Red    Color = 0xFF0000
	Orange Color = 0xFFA500
	Yellow Color = 0xFFFF00
	Green  Color = 0x00FF00
	Blue   Color = 0x0000FF
	Indigo Color = 0x4B0082
	Violet Color = 0x8A2BE2
	Purple Color = 0xFF00FF
	White  Color = 0xFFFFFF
	Black  Color = 0x000000
)

var colorNames = map[string]Color{
	"red":    Red,
	"orange": Orange,
	"yellow": Yellow,
	"green":  Green,
	"blue":   Blue,
	"indigo": Indigo,
	"violet": Violet,
	"purple": Purple,
	"white":  White,
	"black":  Black,
	"off":    Black,
}

// RGB packs components, each clamped to 0-255, into a [Color].
func RGB(r, g, b int) Color {
	return Color(registers.Clamp(r, 0, 255)<<16 |
		registers.Clamp(g, 0, 255)<<8 |
		registers.Clamp(b, 0, 255))
}

// Components splits c into red, green and blue.
func (c Color) Components() (r, g, b byte) {
	return byte(c >> 16), byte(c >> 8), byte(c)
}

func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF)
}

// ParseColor accepts a preset name ("red", "indigo", ...), "#rrggbb" or
// "0xrrggbb".
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colorNames[s]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x")
	if len(hex) != 6 {
		return 0, fmt.Errorf("%w: color %q", ErrInvalidSelection, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: color %q", ErrInvalidSelection, s)
	}
	return Color(v), nil
}

// PixelCount is the number of RGB pixels on the board.
const PixelCount = len(registers.Pixels)

// ClearRGB turns every pixel off.
func (b *Board) ClearRGB() error {
	return b.SetAllRGB(Black)
}

// SetAllRGB sets every pixel to c.
func (b *Board) SetAllRGB(c Color) error {
	r, g, bl := c.Components()
	kv := make([]byte, 0, 6*PixelCount)
	for _, p := range registers.Pixels {
		kv = append(kv, p.R, r, p.G, g, p.B, bl)
	}
	return b.writeRegisters(kv...)
}

// SetRGBPixel sets pixel 0 or 1 to c.
func (b *Board) SetRGBPixel(pixel int, c Color) error {
	if pixel < 0 || pixel >= PixelCount {
		return fmt.Errorf("%w: pixel %d", ErrInvalidSelection, pixel)
	}
	p := registers.Pixels[pixel]
	r, g, bl := c.Components()
	return b.writeRegisters(p.R, r, p.G, g, p.B, bl)
}
