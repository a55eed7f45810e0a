package ledserver

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FanOut implements a broadcast mechanism for frames, relaying every pixel,
// show and brightness change to each of its member sinks. This allows for
// example a fadecandy strip and the terminal simulator to be driven together
type FanOut struct {
	sinks []OutputSink
}

// NewFanOut returns a sink that relays to all of the supplied sinks
func NewFanOut(sinks ...OutputSink) *FanOut {
	return &FanOut{
		sinks: append([]OutputSink{}, sinks...),
	}
}

// SetPixel relays to every member
func (fan *FanOut) SetPixel(index int, c Color) {
	for _, sink := range fan.sinks {
		sink.SetPixel(index, c)
	}
}

// Show presents the frame on every member.  A failing member does not stop
// the others from showing the frame, all failures are returned together
func (fan *FanOut) Show() (err error) {
	failures := []string{}
	for i, sink := range fan.sinks {
		if errGo := sink.Show(); errGo != nil {
			if err == nil {
				err = errGo
			}
			failures = append(failures, fmt.Sprintf("sink %d: %s", i, errGo.Error()))
		}
	}
	if len(failures) > 1 {
		return errors.Wrap(err, strings.Join(failures, "; "))
	}
	return err
}

// SetBrightness relays to every member, returning the first failure
func (fan *FanOut) SetBrightness(brightness float64) (err error) {
	for _, sink := range fan.sinks {
		if errGo := sink.SetBrightness(brightness); errGo != nil && err == nil {
			err = errGo
		}
	}
	return err
}

// Close closes every member, returning the first failure
func (fan *FanOut) Close() (err error) {
	for _, sink := range fan.sinks {
		if errGo := sink.Close(); errGo != nil && err == nil {
			err = errGo
		}
	}
	return err
}
