package ledserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOutRelays(t *testing.T) {
	a := NewMockSink(3, nil)
	b := NewMockSink(2, nil)
	fan := NewFanOut(a, b)

	fan.SetPixel(0, red)
	fan.SetPixel(2, blue)
	require.NoError(t, fan.Show())

	assert.Equal(t, []Color{red, Black, blue}, a.Pixels())
	// Pixels beyond a member's length are ignored by that member
	assert.Equal(t, []Color{red, Black}, b.Pixels())
	assert.Equal(t, 1, a.Shows())
	assert.Equal(t, 1, b.Shows())

	require.NoError(t, fan.SetBrightness(0.25))
	assert.Equal(t, 0.25, a.Brightness())
	assert.Equal(t, 0.25, b.Brightness())
	assert.True(t, IsInvalidDescriptor(fan.SetBrightness(1.5)))

	assert.NoError(t, fan.Close())
}

func TestFanOutShowsDespiteFailures(t *testing.T) {
	broken := &failingSink{NewMockSink(1, nil)}
	ok := NewMockSink(1, nil)
	fan := NewFanOut(broken, ok)

	err := fan.Show()
	assert.True(t, IsSinkUnavailable(err), "%v", err)
	assert.Equal(t, 1, ok.Shows())

	err = NewFanOut(broken, &failingSink{NewMockSink(1, nil)}).Show()
	assert.True(t, IsSinkUnavailable(err), "%v", err)
	assert.Contains(t, err.Error(), "sink 1")
}
