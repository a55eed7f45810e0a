package ledserver

import (
	"github.com/pkg/errors"

	"github.com/TeamNorCal/ledserver/model"
)

// DescriptorFromPixel converts a wire level pixel into a validated descriptor.
// Channels outside of [0, 255] are clamped
func DescriptorFromPixel(p model.Pixel) (d Descriptor, err error) {
	modifier, err := ParseModifier(p.Modifier)
	if err != nil {
		return d, err
	}
	d = Descriptor{
		Colors:   make([]Color, 0, len(p.Colours)),
		Offset:   p.Offset,
		Duration: p.Duration,
		Modifier: modifier,
	}
	for _, c := range p.Colours {
		d.Colors = append(d.Colors, RGB(c[0], c[1], c[2]))
	}
	if err = d.Validate(); err != nil {
		return d, errors.Wrap(err, "pixel")
	}
	return d, nil
}

// PixelFromDescriptor converts a descriptor into its wire level form
func PixelFromDescriptor(d Descriptor) (p model.Pixel) {
	p = model.Pixel{
		Colours:  make([]model.RGB, 0, len(d.Colors)),
		Offset:   d.Offset,
		Duration: d.Duration,
		Modifier: d.Modifier.String(),
	}
	for _, c := range d.Colors {
		p.Colours = append(p.Colours, model.RGB{int(c.R), int(c.G), int(c.B)})
	}
	return p
}
