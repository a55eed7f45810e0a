package ledserver

// This file contains the HTTP control surface.  Requests are decoded into
// whole descriptor replacements against the animation state, partial
// descriptors are merged with the current values before being applied

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-stack/stack"
	logxi "github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"

	"github.com/TeamNorCal/ledserver/model"
)

const maxBodyBytes = 1 << 20

// Gateway exposes the animation state over HTTP
type Gateway struct {
	state      *AnimationState
	renderer   *Renderer
	sink       OutputSink
	logger     logxi.Logger
	brightness float64
	mux        *http.ServeMux
	sync.Mutex
}

// NewGateway creates the control surface for state.  renderer is used for
// status reporting and may be nil, brightness changes are forwarded to sink
func NewGateway(state *AnimationState, renderer *Renderer, sink OutputSink, brightness float64, logger logxi.Logger) (gw *Gateway) {
	if logger == nil {
		logger = logxi.NullLog
	}
	gw = &Gateway{
		state:      state,
		renderer:   renderer,
		sink:       sink,
		logger:     logger,
		brightness: brightness,
		mux:        http.NewServeMux(),
	}

	gw.mux.HandleFunc("GET /hello", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Hello world")
	})
	gw.mux.HandleFunc("GET /status", gw.getStatus)
	gw.mux.HandleFunc("GET /leds", gw.getLeds)
	gw.mux.HandleFunc("PUT /leds", gw.putLeds)
	gw.mux.HandleFunc("POST /leds", gw.putLeds)
	gw.mux.HandleFunc("GET /leds/{index}", gw.getLed)
	gw.mux.HandleFunc("PUT /leds/{index}", gw.putLed)
	gw.mux.HandleFunc("POST /leds/{index}", gw.putLed)
	for _, method := range []string{"GET", "PUT", "POST"} {
		gw.mux.HandleFunc(method+" /leds/off", gw.ledsOff)
		gw.mux.HandleFunc(method+" /leds/on", gw.ledsOn)
	}
	gw.mux.HandleFunc("GET /brightness", gw.getBrightness)
	gw.mux.HandleFunc("PUT /brightness", gw.putBrightness)
	gw.mux.HandleFunc("POST /brightness", gw.putBrightness)

	return gw
}

// ServeHTTP dispatches to the control surface routes
func (gw *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gw.mux.ServeHTTP(w, r)
}

// Start serves the control surface on address until quitC is closed
func (gw *Gateway) Start(address string, errorC chan<- error, quitC <-chan struct{}) (srv *http.Server) {
	srv = &http.Server{
		Addr:              address,
		Handler:           gw,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		gw.logger.Info("control surface listening", "address", address)
		if errGo := srv.ListenAndServe(); errGo != nil && errGo != http.ErrServerClosed {
			reportError(errors.Wrapf(errGo, "control surface %s", address), errorC)
		}
	}()

	go func() {
		<-quitC
		srv.Close()
	}()

	return srv
}

func (gw *Gateway) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if errGo := json.NewEncoder(w).Encode(body); errGo != nil {
		gw.logger.Warn("response not written", "error", errGo, "stack", stack.Trace().TrimRuntime())
	}
}

func (gw *Gateway) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case IsIndexOutOfRange(err):
		status = http.StatusNotFound
	case IsInvalidDescriptor(err):
		status = http.StatusBadRequest
	}
	gw.logger.Debug("request rejected", "status", status, "error", err)
	http.Error(w, err.Error(), status)
}

func (gw *Gateway) decode(r *http.Request, into interface{}) (err error) {
	body, errGo := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if errGo != nil {
		return errors.Wrap(ErrInvalidDescriptor, errGo.Error())
	}
	if errGo = json.Unmarshal(body, into); errGo != nil {
		return errors.Wrap(ErrInvalidDescriptor, errGo.Error())
	}
	return nil
}

func parseIndex(text string) (index int, err error) {
	index, errGo := strconv.Atoi(text)
	if errGo != nil {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "pixel %q is not an integer", text)
	}
	return index, nil
}

// merge applies patch over the current descriptor at index and returns the
// validated result, without mutating any state
func (gw *Gateway) merge(index int, patch *model.PixelPatch) (d Descriptor, err error) {
	current, err := gw.state.Get(index)
	if err != nil {
		return d, err
	}
	base := PixelFromDescriptor(current)
	return DescriptorFromPixel(patch.Apply(base))
}

// mergeStride applies patch over the first descriptor a stride update would
// replace, the start index itself may lie beyond the strip
func (gw *Gateway) mergeStride(start int, stride int, patch *model.PixelPatch) (d Descriptor, err error) {
	current, err := gw.state.strideBase(start, stride)
	if err != nil {
		return d, err
	}
	return DescriptorFromPixel(patch.Apply(PixelFromDescriptor(current)))
}

func (gw *Gateway) getStatus(w http.ResponseWriter, r *http.Request) {
	gw.Lock()
	status := model.Status{
		PixelCount: gw.state.PixelCount(),
		State:      gw.state.Lifecycle().State().String(),
		Running:    gw.state.Lifecycle().State() == Running,
		Brightness: gw.brightness,
	}
	gw.Unlock()

	if gw.renderer != nil {
		snap := gw.renderer.Metrics().Snapshot()
		status.FramesPerSecond = gw.renderer.eval.FramesPerSecond()
		status.Frame = gw.renderer.Frame()
		status.MeasuredFPS = snap.Rate
		status.Overruns = snap.Overruns
	}
	gw.writeJSON(w, http.StatusOK, status)
}

func (gw *Gateway) leds() (leds model.Leds) {
	leds = model.Leds{}
	for i, d := range gw.state.Snapshot(nil) {
		leds[strconv.Itoa(i)] = PixelFromDescriptor(d)
	}
	return leds
}

func (gw *Gateway) getLeds(w http.ResponseWriter, r *http.Request) {
	gw.writeJSON(w, http.StatusOK, gw.leds())
}

func (gw *Gateway) getLed(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r.PathValue("index"))
	if err != nil {
		gw.fail(w, err)
		return
	}
	d, err := gw.state.Get(index)
	if err != nil {
		gw.fail(w, err)
		return
	}
	gw.writeJSON(w, http.StatusOK, PixelFromDescriptor(d))
}

// putLeds applies a bulk update.  Every entry is validated before any pixel
// is changed so a bad entry, or two keys naming the same pixel, rejects the
// whole request
func (gw *Gateway) putLeds(w http.ResponseWriter, r *http.Request) {
	patches := model.LedPatches{}
	if err := gw.decode(r, &patches); err != nil {
		gw.fail(w, err)
		return
	}

	indexes := make([]int, 0, len(patches))
	updates := map[int]Descriptor{}
	for key, patch := range patches {
		index, err := parseIndex(key)
		if err != nil {
			gw.fail(w, err)
			return
		}
		if _, isPresent := updates[index]; isPresent {
			gw.fail(w, errors.Wrapf(ErrInvalidDescriptor, "pixel %d appears more than once", index))
			return
		}
		d, err := gw.merge(index, &patch)
		if err != nil {
			gw.fail(w, errors.Wrapf(err, "pixel %d", index))
			return
		}
		indexes = append(indexes, index)
		updates[index] = d
	}
	sort.Ints(indexes)

	output := model.Leds{}
	for _, index := range indexes {
		d := updates[index]
		gw.logger.Info("setting led", "pixel", index, "modifier", d.Modifier.String(), "colours", len(d.Colors))
		if err := gw.state.SetPixel(index, d); err != nil {
			gw.fail(w, err)
			return
		}
		output[strconv.Itoa(index)] = PixelFromDescriptor(d)
	}
	gw.writeJSON(w, http.StatusOK, output)
}

// putLed updates a single pixel, or with ?repeat=N every Nth pixel counting
// from the given index
func (gw *Gateway) putLed(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r.PathValue("index"))
	if err != nil {
		gw.fail(w, err)
		return
	}

	repeat := 0
	if text := r.URL.Query().Get("repeat"); text != "" {
		if repeat, err = strconv.Atoi(text); err != nil || repeat <= 0 {
			gw.fail(w, errors.Wrapf(ErrInvalidDescriptor, "repeat %q must be a positive integer", text))
			return
		}
	}

	patch := model.PixelPatch{}
	if err = gw.decode(r, &patch); err != nil {
		gw.fail(w, err)
		return
	}
	var d Descriptor
	if repeat == 0 {
		d, err = gw.merge(index, &patch)
	} else {
		d, err = gw.mergeStride(index, repeat, &patch)
	}
	if err != nil {
		gw.fail(w, err)
		return
	}

	if repeat == 0 {
		gw.logger.Info("setting led", "pixel", index, "modifier", d.Modifier.String(), "colours", len(d.Colors))
		if err = gw.state.SetPixel(index, d); err != nil {
			gw.fail(w, err)
			return
		}
		gw.writeJSON(w, http.StatusOK, PixelFromDescriptor(d))
		return
	}

	gw.logger.Info("setting leds", "start", index, "repeat", repeat, "modifier", d.Modifier.String())
	updated, err := gw.state.SetPixelsWithStride(index, repeat, d)
	if err != nil {
		gw.fail(w, err)
		return
	}
	output := model.Leds{}
	for _, i := range updated {
		output[strconv.Itoa(i)] = PixelFromDescriptor(d)
	}
	gw.writeJSON(w, http.StatusOK, output)
}

func (gw *Gateway) ledsOff(w http.ResponseWriter, r *http.Request) {
	gw.logger.Info("all off")
	gw.state.AllOff()
	gw.writeJSON(w, http.StatusOK, gw.leds())
}

func (gw *Gateway) ledsOn(w http.ResponseWriter, r *http.Request) {
	gw.logger.Info("all on")
	gw.state.AllOn()
	gw.writeJSON(w, http.StatusOK, gw.leds())
}

func (gw *Gateway) getBrightness(w http.ResponseWriter, r *http.Request) {
	gw.Lock()
	defer gw.Unlock()
	gw.writeJSON(w, http.StatusOK, model.Brightness{Brightness: gw.brightness})
}

func (gw *Gateway) putBrightness(w http.ResponseWriter, r *http.Request) {
	body := model.Brightness{}
	if err := gw.decode(r, &body); err != nil {
		gw.fail(w, err)
		return
	}

	if err := checkBrightness(body.Brightness); err != nil {
		gw.fail(w, err)
		return
	}

	gw.Lock()
	defer gw.Unlock()
	if gw.sink != nil {
		if err := gw.sink.SetBrightness(body.Brightness); err != nil {
			gw.fail(w, err)
			return
		}
	}
	gw.brightness = body.Brightness
	gw.logger.Info("brightness", "value", body.Brightness)
	gw.writeJSON(w, http.StatusOK, body)
}
