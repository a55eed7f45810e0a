package ledserver

// This file contains the per pixel animation descriptor and the modifiers
// that select how a descriptor is evaluated on each frame

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Modifier selects the colour evaluation rule applied to a pixel
type Modifier int

const (
	// None steps through the colours without blending
	None Modifier = iota
	// Noise drifts through the colours driven by coherent noise
	Noise
	// Smooth cross-fades through all colours and back to the first
	Smooth
	// Random holds a randomly chosen colour for each cycle
	Random
	// Blink flashes a random non base colour for one frame per cycle
	Blink
	// Sparkle flashes a random non base colour on any frame with a fixed probability
	Sparkle
)

var modifierNames = []string{"none", "noise", "smooth", "random", "blink", "sparkle"}

func (m Modifier) String() string {
	if m < 0 || int(m) >= len(modifierNames) {
		return "unknown"
	}
	return modifierNames[m]
}

// ParseModifier converts a modifier name into a Modifier, an empty name
// being treated as none
func ParseModifier(name string) (m Modifier, err error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return None, nil
	}
	for i, known := range modifierNames {
		if known == name {
			return Modifier(i), nil
		}
	}
	return None, errors.Wrapf(ErrInvalidDescriptor, "unknown modifier %q", name)
}

// Descriptor is the animation for a single pixel.  Descriptors are replaced
// whole, the colours slice is never modified once a descriptor is stored
type Descriptor struct {
	Colors   []Color  // Stops in order, never empty
	Offset   float64  // Phase shift in cycle units
	Duration float64  // Seconds per cycle, greater than 0
	Modifier Modifier // Evaluation rule
}

// DefaultDescriptor is the descriptor every pixel starts with, and is reset to by all off
func DefaultDescriptor() Descriptor {
	return Solid(Black)
}

// Solid returns an unanimated single colour descriptor
func Solid(c Color) Descriptor {
	return Descriptor{
		Colors:   []Color{c},
		Offset:   0,
		Duration: 1,
		Modifier: None,
	}
}

// Validate checks the invariants the evaluator relies upon
func (d Descriptor) Validate() (err error) {
	if len(d.Colors) == 0 {
		return errors.Wrap(ErrInvalidDescriptor, "at least one colour is required")
	}
	if math.IsNaN(d.Duration) || math.IsInf(d.Duration, 0) || d.Duration <= 0 {
		return errors.Wrapf(ErrInvalidDescriptor, "duration %v must be greater than 0", d.Duration)
	}
	if math.IsNaN(d.Offset) || math.IsInf(d.Offset, 0) || d.Offset < 0 {
		return errors.Wrapf(ErrInvalidDescriptor, "offset %v must not be negative", d.Offset)
	}
	if d.Modifier < None || d.Modifier > Sparkle {
		return errors.Wrapf(ErrInvalidDescriptor, "unknown modifier %d", int(d.Modifier))
	}
	return nil
}

// Clone returns a copy that shares nothing with d
func (d Descriptor) Clone() Descriptor {
	cpy := d
	cpy.Colors = append([]Color(nil), d.Colors...)
	return cpy
}
