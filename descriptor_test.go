package ledserver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModifier(t *testing.T) {
	for _, m := range []Modifier{None, Noise, Smooth, Random, Blink, Sparkle} {
		parsed, err := ParseModifier(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	m, err := ParseModifier("")
	require.NoError(t, err)
	assert.Equal(t, None, m)

	m, err = ParseModifier(" Smooth ")
	require.NoError(t, err)
	assert.Equal(t, Smooth, m)

	_, err = ParseModifier("crossfade")
	assert.True(t, IsInvalidDescriptor(err))

	assert.Equal(t, "unknown", Modifier(42).String())
}

func TestDescriptorValidate(t *testing.T) {
	assert.NoError(t, DefaultDescriptor().Validate())

	bad := []Descriptor{
		{Duration: 1},
		{Colors: []Color{red}, Duration: 0},
		{Colors: []Color{red}, Duration: -1},
		{Colors: []Color{red}, Duration: math.NaN()},
		{Colors: []Color{red}, Duration: 1, Offset: -0.5},
		{Colors: []Color{red}, Duration: 1, Modifier: Modifier(9)},
	}
	for i, d := range bad {
		assert.True(t, IsInvalidDescriptor(d.Validate()), "descriptor %d %+v", i, d)
	}
}

func TestDescriptorClone(t *testing.T) {
	d := Descriptor{Colors: []Color{red, green}, Duration: 2, Modifier: Smooth}
	cpy := d.Clone()
	cpy.Colors[0] = blue
	assert.Equal(t, red, d.Colors[0])
	assert.Equal(t, d.Duration, cpy.Duration)
}
