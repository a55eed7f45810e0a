package ledserver

// This file contains the animation state for the whole strip.  The control
// surface replaces descriptors while the render loop takes a snapshot once
// per frame, a single lock around the collection guarantees that neither
// ever sees a half written descriptor

import (
	"sync"

	"github.com/pkg/errors"
)

// AnimationState holds exactly one descriptor per pixel
type AnimationState struct {
	pixels    []Descriptor
	lifecycle *Lifecycle
	sync.RWMutex
}

// NewAnimationState creates pixelCount default descriptors along with the
// lifecycle the render loop will be driven by
func NewAnimationState(pixelCount int) *AnimationState {
	if pixelCount < 0 {
		pixelCount = 0
	}
	state := &AnimationState{
		pixels:    make([]Descriptor, pixelCount),
		lifecycle: NewLifecycle(),
	}
	for i := range state.pixels {
		state.pixels[i] = DefaultDescriptor()
	}
	return state
}

// PixelCount returns the number of pixels on the strip
func (s *AnimationState) PixelCount() int {
	return len(s.pixels)
}

// Lifecycle returns the state machine of the render loop that consumes this state
func (s *AnimationState) Lifecycle() *Lifecycle {
	return s.lifecycle
}

func (s *AnimationState) checkIndex(index int) (err error) {
	if index < 0 || index >= len(s.pixels) {
		return errors.Wrapf(ErrIndexOutOfRange, "pixel %d not within [0, %d)", index, len(s.pixels))
	}
	return nil
}

// SetPixel replaces the descriptor at index
func (s *AnimationState) SetPixel(index int, d Descriptor) (err error) {
	if err = s.checkIndex(index); err != nil {
		return err
	}
	if err = d.Validate(); err != nil {
		return err
	}
	d = d.Clone()

	s.Lock()
	defer s.Unlock()
	s.pixels[index] = d
	return nil
}

// SetPixelsWithStride replaces the descriptor at every index i for which
// (i - start) mod stride == 0, returning the indexes that were updated.
// start may lie outside of the strip
func (s *AnimationState) SetPixelsWithStride(start int, stride int, d Descriptor) (updated []int, err error) {
	if stride <= 0 {
		return nil, errors.Wrapf(ErrInvalidDescriptor, "stride %d must be greater than 0", stride)
	}
	if err = d.Validate(); err != nil {
		return nil, err
	}
	d = d.Clone()

	s.Lock()
	defer s.Unlock()
	for i := range s.pixels {
		if floorMod(i-start, stride) == 0 {
			s.pixels[i] = d
			updated = append(updated, i)
		}
	}
	return updated, nil
}

// Get returns a copy of the descriptor at index
func (s *AnimationState) Get(index int) (d Descriptor, err error) {
	if err = s.checkIndex(index); err != nil {
		return d, err
	}
	s.RLock()
	defer s.RUnlock()
	return s.pixels[index].Clone(), nil
}

// strideBase returns a copy of the first descriptor a stride update starting
// at start would replace, or the default descriptor when it selects no pixel
func (s *AnimationState) strideBase(start int, stride int) (d Descriptor, err error) {
	if stride <= 0 {
		return d, errors.Wrapf(ErrInvalidDescriptor, "stride %d must be greater than 0", stride)
	}
	first := floorMod(start, stride)
	if first >= len(s.pixels) {
		return DefaultDescriptor(), nil
	}
	return s.Get(first)
}

// Snapshot returns the descriptors of all pixels.  Colour slices are shared
// with the state, they are never mutated after being stored
func (s *AnimationState) Snapshot(into []Descriptor) []Descriptor {
	s.RLock()
	defer s.RUnlock()
	return append(into[:0], s.pixels...)
}

func (s *AnimationState) fill(d Descriptor) {
	s.Lock()
	defer s.Unlock()
	for i := range s.pixels {
		s.pixels[i] = d
	}
}

// AllOff resets every pixel to black and asks the render loop to stop once it
// has flushed a final black frame
func (s *AnimationState) AllOff() {
	s.fill(DefaultDescriptor())
	s.lifecycle.RequestStop()
}

// AllOn sets every pixel to solid white without affecting the render loop
func (s *AnimationState) AllOn() {
	s.fill(Solid(White))
}

func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
