package ledserver

// This file contains the colour type used throughout the render pipeline and
// the linear interpolation functions used by the smooth and noise modifiers

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Color is a linear RGB triple, each channel within [0, 255]
type Color struct {
	R, G, B uint8
}

var (
	// Black is the default colour of every pixel
	Black = Color{0, 0, 0}
	// White is used by all on and as the fallback flash colour
	White = Color{0xff, 0xff, 0xff}
)

// RGB builds a Color from integer channels, clamping each into [0, 255]
func RGB(r, g, b int) Color {
	return Color{clampChannel(float64(r)), clampChannel(float64(g)), clampChannel(float64(b))}
}

func (c Color) String() string {
	return fmt.Sprintf("[%d,%d,%d]", c.R, c.G, c.B)
}

// Scale applies a brightness factor in [0, 1] to all channels
func (c Color) Scale(brightness float64) Color {
	if brightness >= 1.0 {
		return c
	}
	if brightness <= 0.0 {
		return Black
	}
	return Color{
		clampChannel(float64(c.R) * brightness),
		clampChannel(float64(c.G) * brightness),
		clampChannel(float64(c.B) * brightness),
	}
}

// clampChannel truncates v to an integer channel value within [0, 255]
func clampChannel(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// Blend returns a*(1-t) + b*t per channel. Results are clamped into [0, 255]
// and truncated so t outside of [0, 1] extrapolates safely
func Blend(a, b Color, t float64) Color {
	from := 1.0 - t
	return Color{
		clampChannel(float64(a.R)*from + float64(b.R)*t),
		clampChannel(float64(a.G)*from + float64(b.G)*t),
		clampChannel(float64(a.B)*from + float64(b.B)*t),
	}
}

// BlendSequence locates the segment of colors that t falls into and blends
// its two end stops. When cyclic is set an extra segment joins the last stop
// back to the first.  t is clamped into [0, 1].
func BlendSequence(colors []Color, t float64, cyclic bool) (c Color, err error) {
	if len(colors) < 2 {
		return c, errors.Wrapf(ErrNotEnoughStops, "%d colour(s) supplied", len(colors))
	}

	segments := len(colors) - 1
	if cyclic {
		segments = len(colors)
	}

	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t >= 1 {
		if cyclic {
			return colors[0], nil
		}
		return colors[len(colors)-1], nil
	}

	scaled := t * float64(segments)
	segment := int(math.Floor(scaled))
	if segment >= segments {
		segment = segments - 1
	}
	local := scaled - float64(segment)

	from := colors[segment]
	to := colors[(segment+1)%len(colors)]
	return Blend(from, to, local), nil
}
