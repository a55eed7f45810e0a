// Package client drives a ledserver over its HTTP control surface
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	logxi "github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"

	"github.com/TeamNorCal/ledserver"
	"github.com/TeamNorCal/ledserver/model"
)

// DefaultPixelCount is assumed when the remote server cannot report its size
const DefaultPixelCount = 50

// Remote is a proxy for the strip held by another ledserver
type Remote struct {
	baseURL    string
	http       *http.Client
	logger     logxi.Logger
	pixelCount int
}

// NewRemote queries baseURL for the strip size.  When the server cannot be
// reached a warning is logged and DefaultPixelCount is used, calls made later
// will fail with ErrSinkUnavailable until the server appears
func NewRemote(ctx context.Context, baseURL string, logger logxi.Logger) (remote *Remote) {
	if logger == nil {
		logger = logxi.NullLog
	}
	remote = &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
		pixelCount: DefaultPixelCount,
	}

	status, err := remote.Status(ctx)
	if err != nil {
		logger.Warn("failed to connect to LEDs", "url", remote.baseURL, "error", err)
		logger.Warn("setting default pixel count", "pixel_count", DefaultPixelCount)
		return remote
	}
	remote.pixelCount = status.PixelCount
	logger.Info("setting pixel count", "pixel_count", remote.pixelCount)
	return remote
}

// PixelCount returns the number of pixels on the remote strip
func (remote *Remote) PixelCount() int {
	return remote.pixelCount
}

func (remote *Remote) do(ctx context.Context, method string, path string, body interface{}, result interface{}) (err error) {
	var reader io.Reader
	if body != nil {
		buf, errGo := json.Marshal(body)
		if errGo != nil {
			return errors.Wrap(ledserver.ErrInvalidDescriptor, errGo.Error())
		}
		reader = bytes.NewReader(buf)
	}

	req, errGo := http.NewRequestWithContext(ctx, method, remote.baseURL+path, reader)
	if errGo != nil {
		return errors.Wrapf(errGo, "%s %s", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, errGo := remote.http.Do(req)
	if errGo != nil {
		return errors.Wrapf(ledserver.ErrSinkUnavailable, "%s %s: %s", method, remote.baseURL+path, errGo.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		detail := fmt.Sprintf("%s %s: %d %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
		switch resp.StatusCode {
		case http.StatusNotFound:
			return errors.Wrap(ledserver.ErrIndexOutOfRange, detail)
		case http.StatusBadRequest:
			return errors.Wrap(ledserver.ErrInvalidDescriptor, detail)
		}
		return errors.Wrap(ledserver.ErrSinkUnavailable, detail)
	}

	if result == nil {
		return nil
	}
	if errGo = json.NewDecoder(resp.Body).Decode(result); errGo != nil {
		return errors.Wrapf(errGo, "%s %s response", method, path)
	}
	return nil
}

// Status fetches the strip geometry and render loop state
func (remote *Remote) Status(ctx context.Context) (status *model.Status, err error) {
	status = &model.Status{}
	if err = remote.do(ctx, http.MethodGet, "/status", nil, status); err != nil {
		return nil, err
	}
	return status, nil
}

// Leds fetches every pixel animation
func (remote *Remote) Leds(ctx context.Context) (leds model.Leds, err error) {
	leds = model.Leds{}
	if err = remote.do(ctx, http.MethodGet, "/leds", nil, &leds); err != nil {
		return nil, err
	}
	return leds, nil
}

// SetPixel replaces the animation at index.  When repeat is greater than zero
// every pixel i with (i - index) mod repeat == 0 is set in a single bulk update
func (remote *Remote) SetPixel(ctx context.Context, index int, pixel model.Pixel, repeat int) (err error) {
	if pixel.Modifier == "" {
		pixel.Modifier = ledserver.None.String()
	}
	if repeat <= 0 {
		return remote.do(ctx, http.MethodPut, "/leds/"+strconv.Itoa(index), pixel.Full(), nil)
	}

	patches := model.LedPatches{}
	for i := 0; i < remote.pixelCount; i++ {
		if ((i-index)%repeat+repeat)%repeat == 0 {
			patches[strconv.Itoa(i)] = pixel.Full()
		}
	}
	return remote.SetPixels(ctx, patches)
}

// SetPixels applies a bulk update
func (remote *Remote) SetPixels(ctx context.Context, patches model.LedPatches) (err error) {
	return remote.do(ctx, http.MethodPut, "/leds", patches, nil)
}

// AllOff blanks the strip and stops the remote render loop
func (remote *Remote) AllOff(ctx context.Context) (err error) {
	return remote.do(ctx, http.MethodPut, "/leds/off", nil, nil)
}

// AllOn sets every pixel to solid white
func (remote *Remote) AllOn(ctx context.Context) (err error) {
	return remote.do(ctx, http.MethodPut, "/leds/on", nil, nil)
}

// SetBrightness changes the brightness of the remote strip
func (remote *Remote) SetBrightness(ctx context.Context, brightness float64) (err error) {
	return remote.do(ctx, http.MethodPut, "/brightness", model.Brightness{Brightness: brightness}, nil)
}

// Demo puts every pixel into noise over green, red and blue, each pixel
// offset from its neighbour so the colours appear to travel along the strip
func (remote *Remote) Demo(ctx context.Context) (err error) {
	patches := model.LedPatches{}
	for i := 0; i < remote.pixelCount; i++ {
		pixel := DemoPixel(i)
		patches[strconv.Itoa(i)] = pixel.Full()
	}
	return remote.SetPixels(ctx, patches)
}

// DemoPixel is the demo animation for pixel i
func DemoPixel(i int) model.Pixel {
	return model.Pixel{
		Colours:  []model.RGB{{0, 255, 0}, {255, 0, 0}, {0, 0, 255}},
		Offset:   float64(i) * 1.4,
		Duration: 1,
		Modifier: ledserver.Noise.String(),
	}
}
