package gene

import (
	"fmt"
	"image/color"
)

// Color is the paint of one polygon. RGB channels are integers in [0,255],
// alpha is a real opacity in [0,1]. Values are immutable once constructed.
type Color struct {
	r, g, b uint8
	a       float64
}

// NewColor validates the channels and returns the color.
// Out-of-range values are rejected, never clamped.
func NewColor(r, g, b int, a float64) (Color, error) {
	if err := checkChannel("red", r); err != nil {
		return Color{}, err
	}
	if err := checkChannel("green", g); err != nil {
		return Color{}, err
	}
	if err := checkChannel("blue", b); err != nil {
		return Color{}, err
	}
	// NaN fails both comparisons and lands here too
	if !(a >= 0 && a <= 1) {
		return Color{}, &ValidationError{
			Field:  "alpha",
			Reason: fmt.Sprintf("%v out of range [0,1]", a),
		}
	}
	return Color{r: uint8(r), g: uint8(g), b: uint8(b), a: a}, nil
}

// MustColor is NewColor for values known to be valid. It panics otherwise.
func MustColor(r, g, b int, a float64) Color {
	c, err := NewColor(r, g, b, a)
	if err != nil {
		panic(err)
	}
	return c
}

func checkChannel(name string, v int) error {
	if v < 0 || v > 255 {
		return &ValidationError{
			Field:  name,
			Reason: fmt.Sprintf("%d out of range [0,255]", v),
		}
	}
	return nil
}

// Red returns the red channel.
func (c Color) Red() int { return int(c.r) }

// Green returns the green channel.
func (c Color) Green() int { return int(c.g) }

// Blue returns the blue channel.
func (c Color) Blue() int { return int(c.b) }

// Alpha returns the opacity in [0,1].
func (c Color) Alpha() float64 { return c.a }

// NRGBA converts to a non-premultiplied 8-bit color.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.r, G: c.g, B: c.b, A: uint8(c.a*255 + 0.5)}
}

// Floats returns the channels scaled to [0,1].
func (c Color) Floats() (r, g, b, a float64) {
	return float64(c.r) / 255, float64(c.g) / 255, float64(c.b) / 255, c.a
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", c.r, c.g, c.b, c.a)
}
