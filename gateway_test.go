package ledserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeamNorCal/ledserver/model"
)

type gatewayFixture struct {
	state    *AnimationState
	sink     *MockSink
	renderer *Renderer
	gw       *Gateway
}

func newGatewayFixture(pixels int) *gatewayFixture {
	state := NewAnimationState(pixels)
	sink := NewMockSink(pixels, nil)
	renderer := NewRenderer(state, NewEvaluator(25, 0, 0), sink, nil)
	return &gatewayFixture{
		state:    state,
		sink:     sink,
		renderer: renderer,
		gw:       NewGateway(state, renderer, sink, 0.1, nil),
	}
}

func (fix *gatewayFixture) do(t *testing.T, method string, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	fix.gw.ServeHTTP(rec, req)
	return rec
}

func TestGatewayStatus(t *testing.T) {
	fix := newGatewayFixture(10)
	_, err := fix.renderer.Tick()
	require.NoError(t, err)

	rec := fix.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	status := model.Status{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 10, status.PixelCount)
	assert.Equal(t, 25.0, status.FramesPerSecond)
	assert.Equal(t, uint64(1), status.Frame)
	assert.Equal(t, "stopped", status.State)
	assert.False(t, status.Running)
	assert.Equal(t, 0.1, status.Brightness)

	rec = fix.do(t, http.MethodGet, "/hello", "")
	assert.Equal(t, "Hello world", rec.Body.String())
}

func TestGatewaySetPixel(t *testing.T) {
	fix := newGatewayFixture(10)

	rec := fix.do(t, http.MethodPut, "/leds/2", `{"colours":[[255,0,0],"#00ff00"],"duration":1,"modifier":"smooth"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"colours":[[255,0,0],[0,255,0]],"offset":0,"duration":1,"modifier":"smooth"}`, rec.Body.String())

	d, err := fix.state.Get(2)
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Colors: []Color{red, green}, Duration: 1, Modifier: Smooth}, d)

	// Fields left out keep their current values
	rec = fix.do(t, http.MethodPost, "/leds/2", `{"offset":0.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d, _ = fix.state.Get(2)
	assert.Equal(t, Descriptor{Colors: []Color{red, green}, Offset: 0.5, Duration: 1, Modifier: Smooth}, d)

	rec = fix.do(t, http.MethodGet, "/leds/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"colours":[[255,0,0],[0,255,0]],"offset":0.5,"duration":1,"modifier":"smooth"}`, rec.Body.String())
}

func TestGatewayRejections(t *testing.T) {
	fix := newGatewayFixture(10)
	require.NoError(t, fix.state.SetPixel(3, Solid(blue)))

	cases := []struct {
		method string
		target string
		body   string
		code   int
	}{
		{http.MethodPut, "/leds/10", `{"colours":[[1,2,3]]}`, http.StatusNotFound},
		{http.MethodPut, "/leds/-1", `{"colours":[[1,2,3]]}`, http.StatusNotFound},
		{http.MethodPut, "/leds/abc", `{"colours":[[1,2,3]]}`, http.StatusNotFound},
		{http.MethodGet, "/leds/99", "", http.StatusNotFound},
		{http.MethodPut, "/leds/3", `{"colours":[]}`, http.StatusBadRequest},
		{http.MethodPut, "/leds/3", `{"colours":[[1,2]]}`, http.StatusBadRequest},
		{http.MethodPut, "/leds/3", `{"modifier":"crossfade"}`, http.StatusBadRequest},
		{http.MethodPut, "/leds/3", `{"duration":0}`, http.StatusBadRequest},
		{http.MethodPut, "/leds/3", `{"offset":-1}`, http.StatusBadRequest},
		{http.MethodPut, "/leds/3", `not json`, http.StatusBadRequest},
		{http.MethodPut, "/leds/3?repeat=0", `{"colours":[[1,2,3]]}`, http.StatusBadRequest},
		{http.MethodPut, "/leds", `{"1":{"colours":[[1,2,3]]},"30":{"colours":[[1,2,3]]}}`, http.StatusNotFound},
		{http.MethodPut, "/leds", `{"1":{"colours":[[1,2,3]]},"3":{"duration":-2}}`, http.StatusBadRequest},
		{http.MethodPut, "/leds", `{"1":{"colours":[[255,0,0]]},"01":{"colours":[[0,0,255]]}}`, http.StatusBadRequest},
		{http.MethodPut, "/brightness", `{"brightness":2}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := fix.do(t, tc.method, tc.target, tc.body)
		assert.Equal(t, tc.code, rec.Code, "%s %s %s", tc.method, tc.target, tc.body)
	}

	// None of the rejected requests changed anything
	for i, d := range fix.state.Snapshot(nil) {
		if i == 3 {
			assert.Equal(t, Solid(blue), d)
			continue
		}
		assert.Equal(t, DefaultDescriptor(), d, "pixel %d", i)
	}
	assert.Equal(t, 1.0, fix.sink.Brightness())
}

func TestGatewayBulkAndRepeat(t *testing.T) {
	fix := newGatewayFixture(10)

	rec := fix.do(t, http.MethodPut, "/leds", `{"1":{"colours":[[255,0,255],[255,255,0]],"duration":2,"offset":0},"2":{"colours":[[0,0,255],[0,255,255]]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	leds := model.Leds{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leds))
	assert.Len(t, leds, 2)
	assert.Equal(t, 2.0, leds["1"].Duration)

	d, _ := fix.state.Get(2)
	assert.Equal(t, []Color{blue, {0, 255, 255}}, d.Colors)
	assert.Equal(t, 1.0, d.Duration)

	rec = fix.do(t, http.MethodPut, "/leds/0?repeat=5", `{"colours":["#00ff00"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	leds = model.Leds{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leds))
	assert.Len(t, leds, 2)
	assert.Contains(t, leds, "0")
	assert.Contains(t, leds, "5")

	snap := fix.state.Snapshot(nil)
	assert.Equal(t, Solid(green), snap[0])
	assert.Equal(t, Solid(green), snap[5])
	assert.Equal(t, DefaultDescriptor(), snap[4])

	rec = fix.do(t, http.MethodGet, "/leds", "")
	require.Equal(t, http.StatusOK, rec.Code)
	leds = model.Leds{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leds))
	assert.Len(t, leds, 10)
}

func TestGatewayOnOff(t *testing.T) {
	fix := newGatewayFixture(4)
	require.NoError(t, fix.state.Lifecycle().Start())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPost} {
		rec := fix.do(t, method, "/leds/on", "")
		require.Equal(t, http.StatusOK, rec.Code)
		for _, d := range fix.state.Snapshot(nil) {
			assert.Equal(t, Solid(White), d)
		}
		assert.Equal(t, Running, fix.state.Lifecycle().State())
	}

	rec := fix.do(t, http.MethodPut, "/leds/off", "")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, d := range fix.state.Snapshot(nil) {
		assert.Equal(t, DefaultDescriptor(), d)
	}
	assert.Equal(t, Stopping, fix.state.Lifecycle().State())

	more, err := fix.renderer.Tick()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, Stopped, fix.state.Lifecycle().State())
}

func TestGatewayBrightness(t *testing.T) {
	fix := newGatewayFixture(2)

	rec := fix.do(t, http.MethodPut, "/brightness", `{"brightness":0.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0.5, fix.sink.Brightness())

	rec = fix.do(t, http.MethodGet, "/brightness", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"brightness":0.5}`, rec.Body.String())
}

func TestGatewayBrightnessWithoutSink(t *testing.T) {
	state := NewAnimationState(2)
	gw := NewGateway(state, nil, nil, 0.5, nil)

	for _, body := range []string{`{"brightness":7}`, `{"brightness":-0.1}`} {
		rec := httptest.NewRecorder()
		gw.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/brightness", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brightness", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"brightness":0.5}`, rec.Body.String())

	rec = httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/brightness", strings.NewReader(`{"brightness":1}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"brightness":1}`, rec.Body.String())
}

func TestGatewayRepeatFromBeyondStrip(t *testing.T) {
	fix := newGatewayFixture(10)

	rec := fix.do(t, http.MethodPut, "/leds/12?repeat=5", `{"colours":[[255,255,255]]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	leds := model.Leds{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leds))
	assert.Len(t, leds, 2)
	assert.Contains(t, leds, "2")
	assert.Contains(t, leds, "7")

	snap := fix.state.Snapshot(nil)
	assert.Equal(t, Solid(White), snap[2])
	assert.Equal(t, Solid(White), snap[7])
	assert.Equal(t, DefaultDescriptor(), snap[3])

	// A single pixel update still has to name a pixel on the strip
	rec = fix.do(t, http.MethodPut, "/leds/12", `{"colours":[[255,255,255]]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
