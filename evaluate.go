package ledserver

// This file contains the frame evaluator, which turns a descriptor and the
// frame counter into the colour a pixel should show on that frame

import (
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"
	"github.com/pkg/errors"
)

// boundaryEpsilon absorbs floating point error when a phase lands exactly on
// a step boundary, e.g. frame 1 of 3 producing 0.9999999 rather than 1
const boundaryEpsilon = 1e-9

// Evaluator computes pixel colours for a fixed frame rate.  It is not safe
// for concurrent use, the render loop owns a single instance
type Evaluator struct {
	fps   float64
	noise opensimplex.Noise
	rnd   *rand.Rand
}

// NewEvaluator creates an evaluator for the given frame rate.  noiseSeed
// fixes the noise field so the noise modifier is repeatable, randSeed drives
// the random, blink and sparkle modifiers
func NewEvaluator(fps float64, noiseSeed int64, randSeed int64) *Evaluator {
	return &Evaluator{
		fps:   fps,
		noise: opensimplex.New(noiseSeed),
		rnd:   rand.New(rand.NewSource(randSeed)),
	}
}

// FramesPerSecond returns the frame rate the evaluator was created with
func (ev *Evaluator) FramesPerSecond() float64 {
	return ev.fps
}

// cycleFrames is the real valued number of frames in one cycle of d
func (ev *Evaluator) cycleFrames(d *Descriptor) float64 {
	return ev.fps * d.Duration
}

// Phase returns the position of frame within the current cycle of d, in [0, 1)
func (ev *Evaluator) Phase(d *Descriptor, frame uint64) float64 {
	p := math.Mod(float64(frame)/ev.cycleFrames(d)+d.Offset, 1.0)
	if p < 0 {
		p += 1.0
	}
	return p
}

// AtCycleStart reports whether frame is the first frame of a fresh cycle once
// the offset shift is accounted for
func (ev *Evaluator) AtCycleStart(d *Descriptor, frame uint64) bool {
	c := ev.cycleFrames(d)
	m := math.Mod(float64(frame)+c-d.Offset*c, c)
	if m < 0 {
		m += c
	}
	return m < 1.0
}

// NoiseAt samples the coherent noise field used by the noise modifier, the
// result lies approximately within [-1, 1]
func (ev *Evaluator) NoiseAt(x float64) float64 {
	return ev.noise.Eval2(x, 0)
}

func (ev *Evaluator) pick(colors []Color) Color {
	return colors[ev.rnd.Intn(len(colors))]
}

// flash picks a random colour from all but the base colour, white when only
// the base exists
func (ev *Evaluator) flash(colors []Color) Color {
	if len(colors) < 2 {
		return White
	}
	return ev.pick(colors[1:])
}

// Evaluate returns the colour for d at frame.  changed is false when the
// pixel should keep whatever it showed on the previous frame
func (ev *Evaluator) Evaluate(d *Descriptor, frame uint64) (c Color, changed bool, err error) {
	switch len(d.Colors) {
	case 0:
		return Black, true, errors.Wrap(ErrInvalidDescriptor, "descriptor has no colours")
	case 1:
		return d.Colors[0], true, nil
	}
	if d.Duration <= 0 || ev.fps <= 0 {
		return Black, true, errors.Wrapf(ErrInvalidDescriptor, "duration %v at %v fps", d.Duration, ev.fps)
	}

	switch d.Modifier {
	case Noise:
		x := float64(frame)/ev.cycleFrames(d) + d.Offset
		c, err = BlendSequence(d.Colors, (ev.NoiseAt(x)+1.0)/2.0, false)
		return c, true, err

	case Smooth:
		c, err = BlendSequence(d.Colors, ev.Phase(d, frame), true)
		return c, true, err

	case Random:
		if !ev.AtCycleStart(d, frame) {
			return c, false, nil
		}
		return ev.pick(d.Colors), true, nil

	case Blink:
		if ev.AtCycleStart(d, frame) {
			return ev.flash(d.Colors), true, nil
		}
		return d.Colors[0], true, nil

	case Sparkle:
		if ev.rnd.Float64() < d.Offset {
			return ev.flash(d.Colors), true, nil
		}
		return d.Colors[0], true, nil

	case None:
		index := int(math.Floor(float64(len(d.Colors))*ev.Phase(d, frame) + boundaryEpsilon))
		if index >= len(d.Colors) {
			index = len(d.Colors) - 1
		}
		return d.Colors[index], true, nil
	}

	return Black, true, errors.Wrapf(ErrInvalidDescriptor, "unknown modifier %d", int(d.Modifier))
}
