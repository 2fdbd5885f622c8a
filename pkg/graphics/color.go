package graphics

import "fmt"

// Color is a 32-bit ARGB color value.
type Color uint32

// ARGB constructs a color from alpha, red, green, and blue components.
func ARGB(a, r, g, b uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGB constructs a fully opaque color from red, green, and blue components.
func RGB(r, g, b uint8) Color {
	return ARGB(0xFF, r, g, b)
}

// Alpha returns the alpha component.
func (c Color) Alpha() uint8 { return uint8(c >> 24) }

// Red returns the red component.
func (c Color) Red() uint8 { return uint8(c >> 16) }

// Green returns the green component.
func (c Color) Green() uint8 { return uint8(c >> 8) }

// Blue returns the blue component.
func (c Color) Blue() uint8 { return uint8(c) }

// WithAlpha returns the color with the alpha component replaced.
func (c Color) WithAlpha(a uint8) Color {
	return Color(uint32(c)&0x00FFFFFF | uint32(a)<<24)
}

// IsOpaque reports whether the color has full alpha.
func (c Color) IsOpaque() bool {
	return c.Alpha() == 0xFF
}

// String returns the color in #AARRGGBB form.
func (c Color) String() string {
	return fmt.Sprintf("#%08X", uint32(c))
}
