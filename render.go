package ledserver

// This file contains the render loop.  One goroutine ticks at the configured
// frame rate, evaluates every pixel against a snapshot of the animation state,
// pushes the buffer into the output sink and sleeps for whatever remains of
// the frame period.  Overruns are not caught up, the next frame simply starts
// immediately

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-stack/stack"
	logxi "github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"
)

const fpsReportInterval = 1000

// Renderer owns the frame buffer and frame counter for one strip
type Renderer struct {
	state   *AnimationState
	eval    *Evaluator
	sink    OutputSink
	period  time.Duration
	logger  logxi.Logger
	metrics *RenderMetrics

	frame uint64 // Accessed atomically, advanced once per rendered frame
	buf   []Color
	descs []Descriptor
}

// NewRenderer creates a renderer drawing state into sink at the evaluator's frame rate
func NewRenderer(state *AnimationState, eval *Evaluator, sink OutputSink, logger logxi.Logger) *Renderer {
	if logger == nil {
		logger = logxi.NullLog
	}
	period := time.Duration(float64(time.Second) / eval.FramesPerSecond())
	return &Renderer{
		state:   state,
		eval:    eval,
		sink:    sink,
		period:  period,
		logger:  logger,
		metrics: NewRenderMetrics(),
		buf:     make([]Color, state.PixelCount()),
		descs:   make([]Descriptor, 0, state.PixelCount()),
	}
}

// Frame returns the index of the next frame to be rendered
func (r *Renderer) Frame() uint64 {
	return atomic.LoadUint64(&r.frame)
}

// Period returns the target time between frames
func (r *Renderer) Period() time.Duration {
	return r.period
}

// Metrics returns the instrumentation for this renderer
func (r *Renderer) Metrics() *RenderMetrics {
	return r.metrics
}

// State returns the run state of the loop
func (r *Renderer) State() RunState {
	return r.state.Lifecycle().State()
}

// evaluate isolates each pixel, a failure renders that pixel black for the
// frame and leaves the others untouched
func (r *Renderer) evaluate(index int, d *Descriptor, frame uint64) (c Color, changed bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.pixelFailed()
			r.logger.Warn("pixel evaluation failed", "pixel", index, "panic", rec, "stack", stack.Trace().TrimRuntime())
			c, changed = Black, true
		}
	}()

	c, changed, err := r.eval.Evaluate(d, frame)
	if err != nil {
		r.metrics.pixelFailed()
		if r.logger.IsDebug() {
			r.logger.Debug("pixel evaluation failed", "pixel", index, "frame", frame, "error", err)
		}
		return Black, true
	}
	return c, changed
}

// Tick renders a single frame.  When a stop has been requested it instead
// flushes an all black frame, completes the transition to Stopped and returns
// false
func (r *Renderer) Tick() (more bool, err error) {
	lc := r.state.Lifecycle()
	if lc.stopping() {
		for i := range r.buf {
			r.buf[i] = Black
			r.sink.SetPixel(i, Black)
		}
		if errGo := r.sink.Show(); errGo != nil {
			err = errors.Wrap(errGo, "final frame")
		}
		lc.finish()
		return false, err
	}

	frame := r.Frame()
	r.descs = r.state.Snapshot(r.descs)
	for i := range r.descs {
		if c, changed := r.evaluate(i, &r.descs[i], frame); changed {
			r.buf[i] = c
		}
		r.sink.SetPixel(i, r.buf[i])
	}
	if errGo := r.sink.Show(); errGo != nil {
		err = errors.Wrapf(errGo, "frame %d", frame)
	}
	atomic.AddUint64(&r.frame, 1)
	return true, err
}

// Start moves the loop from Stopped to Running and renders on a dedicated
// goroutine.  Closing quitC routes through all off so the strip is left dark
func (r *Renderer) Start(errorC chan<- error, quitC <-chan struct{}) (err error) {
	if err = r.state.Lifecycle().Start(); err != nil {
		return err
	}
	go r.run(errorC, quitC)
	return nil
}

// Wait blocks until the loop has reached Stopped
func (r *Renderer) Wait() {
	<-r.state.Lifecycle().Done()
}

func (r *Renderer) run(errorC chan<- error, quitC <-chan struct{}) {
	r.logger.Info("begin LED sequence", "period", r.period, "pixels", len(r.buf))

	checkpoint := time.Now()
	wait := time.NewTimer(r.period)
	wait.Stop()

	for {
		select {
		case <-quitC:
			r.state.AllOff()
			quitC = nil
		default:
		}

		start := time.Now()
		more, err := r.Tick()
		if err != nil {
			reportError(err, errorC)
		}
		if !more {
			r.logger.Info("stopping", "frame", r.Frame())
			return
		}

		elapsed := time.Since(start)
		r.metrics.frameDone(elapsed, r.period)
		if elapsed > r.period && r.logger.IsTrace() {
			r.logger.Trace("frame overran", "elapsed", elapsed, "period", r.period)
		}

		if r.Frame()%fpsReportInterval == 0 {
			now := time.Now()
			if r.logger.IsDebug() {
				r.logger.Debug(fmt.Sprintf("avg FPS for past %d frames: %.2f", fpsReportInterval,
					float64(fpsReportInterval)/now.Sub(checkpoint).Seconds()), r.metrics.Report()...)
			}
			checkpoint = now
		}

		remaining := r.period - elapsed
		if remaining <= 0 {
			continue
		}
		wait.Reset(remaining)
		select {
		case <-wait.C:
		case <-quitC:
			wait.Stop()
		}
	}
}

// reportError hands err to the error channel, falling back to stderr when
// nobody is listening
func reportError(err error, errorC chan<- error) {
	select {
	case errorC <- err:
	case <-time.After(100 * time.Millisecond):
		fmt.Fprintln(os.Stderr, err.Error())
	}
}
