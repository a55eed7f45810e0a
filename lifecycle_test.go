package ledserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleTransitions(t *testing.T) {
	lc := NewLifecycle()
	assert.Equal(t, Stopped, lc.State())

	// Stopping a loop that never ran has no effect
	assert.False(t, lc.RequestStop())
	assert.Equal(t, Stopped, lc.State())

	assert.NoError(t, lc.Start())
	assert.Equal(t, Running, lc.State())
	assert.Equal(t, ErrAlreadyRunning, lc.Start())

	select {
	case <-lc.Done():
		t.Fatal("done before stopping")
	default:
	}

	assert.True(t, lc.RequestStop())
	assert.Equal(t, Stopping, lc.State())
	assert.False(t, lc.RequestStop())
	assert.Equal(t, ErrAlreadyRunning, lc.Start())

	lc.finish()
	assert.Equal(t, Stopped, lc.State())
	<-lc.Done()

	// A stopped loop may be started again
	assert.NoError(t, lc.Start())
	assert.Equal(t, "running", lc.State().String())
}
