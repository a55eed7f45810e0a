package model

// This module defines the implementation neutral wire format for pixel
// animations as exchanged over the HTTP control surface and in scene files

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// RGB is a colour as three integer channels.  It is always written as an
// [r,g,b] array and may be read either as an array or as a "#rrggbb" string
type RGB [3]int

// ParseRGB parses either a "#rrggbb" or "rrggbb" hex string
func ParseRGB(hex string) (c RGB, err error) {
	hex = strings.TrimSpace(hex)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	cf, err := colorful.Hex(hex)
	if err != nil {
		return c, err
	}
	r, g, b := cf.RGB255()
	return RGB{int(r), int(g), int(b)}, nil
}

// Hex formats the colour as #rrggbb, clamping channels into range
func (c RGB) Hex() string {
	ch := [3]int{}
	for i, v := range c {
		switch {
		case v < 0:
			v = 0
		case v > 255:
			v = 255
		}
		ch[i] = v
	}
	return fmt.Sprintf("#%02x%02x%02x", ch[0], ch[1], ch[2])
}

func (c *RGB) fromTriple(vals []float64) error {
	if len(vals) != 3 {
		return fmt.Errorf("colour needs exactly 3 channels, got %d", len(vals))
	}
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("colour channel %d is not a finite number", i)
		}
		c[i] = int(math.Max(0, math.Min(255, v)))
	}
	return nil
}

// UnmarshalJSON accepts [r,g,b] or "#rrggbb"
func (c *RGB) UnmarshalJSON(b []byte) (err error) {
	hex := ""
	if err = json.Unmarshal(b, &hex); err == nil {
		*c, err = ParseRGB(hex)
		return err
	}
	vals := []float64{}
	if err = json.Unmarshal(b, &vals); err != nil {
		return fmt.Errorf("colour must be [r,g,b] or \"#rrggbb\": %s", string(b))
	}
	return c.fromTriple(vals)
}

// UnmarshalYAML accepts [r,g,b] or "#rrggbb"
func (c *RGB) UnmarshalYAML(value *yaml.Node) (err error) {
	if value.Kind == yaml.ScalarNode {
		*c, err = ParseRGB(value.Value)
		return err
	}
	vals := []float64{}
	if err = value.Decode(&vals); err != nil {
		return fmt.Errorf("line %d: colour must be [r,g,b] or \"#rrggbb\"", value.Line)
	}
	return c.fromTriple(vals)
}

// Pixel is the complete animation for one pixel
type Pixel struct {
	Colours  []RGB   `json:"colours" yaml:"colours"`
	Offset   float64 `json:"offset" yaml:"offset"`
	Duration float64 `json:"duration" yaml:"duration"`
	Modifier string  `json:"modifier" yaml:"modifier"`
}

// PixelPatch carries any subset of the pixel fields, absent fields keep
// their current values when the patch is applied
type PixelPatch struct {
	Colours  []RGB    `json:"colours,omitempty" yaml:"colours,omitempty"`
	Offset   *float64 `json:"offset,omitempty" yaml:"offset,omitempty"`
	Duration *float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
	Modifier *string  `json:"modifier,omitempty" yaml:"modifier,omitempty"`
}

// Apply merges the patch over base
func (patch *PixelPatch) Apply(base Pixel) (merged Pixel) {
	merged = base
	if patch.Colours != nil {
		merged.Colours = append([]RGB{}, patch.Colours...)
	}
	if patch.Offset != nil {
		merged.Offset = *patch.Offset
	}
	if patch.Duration != nil {
		merged.Duration = *patch.Duration
	}
	if patch.Modifier != nil {
		merged.Modifier = *patch.Modifier
	}
	return merged
}

// Full returns the patch that replaces every field with those of p
func (p *Pixel) Full() PixelPatch {
	offset, duration, modifier := p.Offset, p.Duration, p.Modifier
	return PixelPatch{
		Colours:  append([]RGB{}, p.Colours...),
		Offset:   &offset,
		Duration: &duration,
		Modifier: &modifier,
	}
}

// Leds maps string encoded pixel indexes to their animations
type Leds map[string]Pixel

// LedPatches maps string encoded pixel indexes to partial animations
type LedPatches map[string]PixelPatch

// Status describes the strip geometry and the render loop
type Status struct {
	PixelCount      int     `json:"pixel_count"`
	FramesPerSecond float64 `json:"frames_per_second"`
	Frame           uint64  `json:"frame"`
	State           string  `json:"state"`
	Running         bool    `json:"running"`
	Brightness      float64 `json:"brightness"`
	MeasuredFPS     float64 `json:"fps"`
	Overruns        int64   `json:"overruns"`
}

// Brightness is the body used to change the strip brightness
type Brightness struct {
	Brightness float64 `json:"brightness"`
}
