package ledserver

// This file contains the state machine governing the render loop.  It is
// shared between the animation state, which requests stops from all off, and
// the renderer which drives the remaining transitions

import (
	"sync"
)

// RunState is the state of the render loop
type RunState int

const (
	// Stopped means no frames are being produced
	Stopped RunState = iota
	// Running means frames are produced at the target rate
	Running
	// Stopping means a stop was requested and a final black frame is pending
	Stopping
)

func (s RunState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return "unknown"
}

// Lifecycle tracks Stopped -> Running -> Stopping -> Stopped transitions
type Lifecycle struct {
	state   RunState
	stopped chan struct{}
	sync.Mutex
}

// NewLifecycle returns a lifecycle in the Stopped state
func NewLifecycle() *Lifecycle {
	stopped := make(chan struct{})
	close(stopped)
	return &Lifecycle{
		state:   Stopped,
		stopped: stopped,
	}
}

// State returns the current state
func (lc *Lifecycle) State() RunState {
	lc.Lock()
	defer lc.Unlock()
	return lc.state
}

// Start moves from Stopped to Running
func (lc *Lifecycle) Start() (err error) {
	lc.Lock()
	defer lc.Unlock()
	if lc.state != Stopped {
		return ErrAlreadyRunning
	}
	lc.state = Running
	lc.stopped = make(chan struct{})
	return nil
}

// RequestStop moves from Running to Stopping, returning false when the loop
// was not running
func (lc *Lifecycle) RequestStop() bool {
	lc.Lock()
	defer lc.Unlock()
	if lc.state != Running {
		return false
	}
	lc.state = Stopping
	return true
}

// stopping reports whether a stop has been requested and not yet completed
func (lc *Lifecycle) stopping() bool {
	return lc.State() == Stopping
}

// finish moves to Stopped and releases anyone waiting on Done
func (lc *Lifecycle) finish() {
	lc.Lock()
	defer lc.Unlock()
	if lc.state == Stopped {
		return
	}
	lc.state = Stopped
	close(lc.stopped)
}

// Done returns a channel that is closed once the loop has reached Stopped
func (lc *Lifecycle) Done() <-chan struct{} {
	lc.Lock()
	defer lc.Unlock()
	return lc.stopped
}
