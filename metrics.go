package ledserver

// This file contains the render loop instrumentation, kept in a registry per
// renderer so that several renderers in one process do not share counters

import (
	"fmt"
	"sort"
	"time"

	"github.com/rcrowley/go-metrics"
)

// RenderMetrics records frame evaluation times, overruns and the delivered frame rate
type RenderMetrics struct {
	registry metrics.Registry
	frame    metrics.Timer
	overruns metrics.Counter
	pixelErr metrics.Counter
	shown    metrics.Meter
}

// NewRenderMetrics creates the metrics for one renderer
func NewRenderMetrics() *RenderMetrics {
	registry := metrics.NewRegistry()
	return &RenderMetrics{
		registry: registry,
		frame:    metrics.GetOrRegisterTimer("render.frame", registry),
		overruns: metrics.GetOrRegisterCounter("render.overruns", registry),
		pixelErr: metrics.GetOrRegisterCounter("render.pixel.errors", registry),
		shown:    metrics.GetOrRegisterMeter("render.shown", registry),
	}
}

// Report flattens every registered metric into logger key value pairs,
// ordered by metric name
func (m *RenderMetrics) Report() (kv []interface{}) {
	names := []string{}
	values := map[string]interface{}{}
	m.registry.Each(func(name string, metric interface{}) {
		switch metric := metric.(type) {
		case metrics.Counter:
			values[name] = metric.Count()
		case metrics.Meter:
			values[name] = fmt.Sprintf("%.2f/s", metric.Snapshot().Rate1())
		case metrics.Timer:
			values[name] = time.Duration(metric.Snapshot().Mean()).String()
		default:
			return
		}
		names = append(names, name)
	})
	sort.Strings(names)

	for _, name := range names {
		kv = append(kv, name, values[name])
	}
	return kv
}

func (m *RenderMetrics) frameDone(elapsed time.Duration, period time.Duration) {
	m.frame.Update(elapsed)
	m.shown.Mark(1)
	if elapsed > period {
		m.overruns.Inc(1)
	}
}

func (m *RenderMetrics) pixelFailed() {
	m.pixelErr.Inc(1)
}

// MetricsSnapshot is a point in time summary of the render metrics
type MetricsSnapshot struct {
	Frames      int64   `json:"frames"`
	Overruns    int64   `json:"overruns"`
	PixelErrors int64   `json:"pixel_errors"`
	MeanFrame   float64 `json:"mean_frame_ms"`
	Rate        float64 `json:"fps"`
}

// Snapshot summarises the metrics gathered so far
func (m *RenderMetrics) Snapshot() MetricsSnapshot {
	frame := m.frame.Snapshot()
	shown := m.shown.Snapshot()
	return MetricsSnapshot{
		Frames:      frame.Count(),
		Overruns:    m.overruns.Count(),
		PixelErrors: m.pixelErr.Count(),
		MeanFrame:   frame.Mean() / float64(time.Millisecond),
		Rate:        shown.RateMean(),
	}
}

// Stop releases the background tickers behind the meters
func (m *RenderMetrics) Stop() {
	m.shown.Stop()
	m.frame.Stop()
}
