// Package simulator draws a strip of pixels as true colour blocks on a
// terminal so that animations can be watched without any hardware attached
package simulator

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/go-stack/stack"
	"github.com/pkg/errors"

	"github.com/TeamNorCal/ledserver"
)

const (
	headerRows = 1
	gapCells   = 1
)

// Strip is an output sink that renders each pixel as a block ledSize cells
// wide, wrapping onto further rows when the terminal is too narrow
type Strip struct {
	*ledserver.PixelBuffer
	screen  tcell.Screen
	ledSize int
	title   string
	frames  uint64
	sync.Mutex
}

// NewStrip takes ownership of an initialised screen
func NewStrip(screen tcell.Screen, pixelCount int, ledSize int, title string) (strip *Strip) {
	if ledSize < 1 {
		ledSize = 1
	}
	screen.HideCursor()
	return &Strip{
		PixelBuffer: ledserver.NewPixelBuffer(pixelCount),
		screen:      screen,
		ledSize:     ledSize,
		title:       title,
	}
}

// NewTerminalStrip opens the controlling terminal for drawing
func NewTerminalStrip(pixelCount int, ledSize int, title string) (strip *Strip, err error) {
	screen, errGo := tcell.NewScreen()
	if errGo != nil {
		return nil, errors.Wrap(errGo, stack.Trace().TrimRuntime().String())
	}
	if errGo = screen.Init(); errGo != nil {
		return nil, errors.Wrap(errGo, stack.Trace().TrimRuntime().String())
	}
	return NewStrip(screen, pixelCount, ledSize, title), nil
}

// Screen returns the terminal being drawn upon
func (strip *Strip) Screen() tcell.Screen {
	return strip.screen
}

// CellColor converts a pixel colour into the terminal colour used to draw it
func CellColor(c ledserver.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Position returns the top left cell of the block for pixel index
func (strip *Strip) Position(index int) (x int, y int) {
	width, _ := strip.screen.Size()
	perRow := (width + gapCells) / (strip.ledSize + gapCells)
	if perRow < 1 {
		perRow = 1
	}
	return (index % perRow) * (strip.ledSize + gapCells), headerRows + index/perRow
}

// Show draws the brightness scaled buffer
func (strip *Strip) Show() (err error) {
	return strip.Draw(strip.Scaled())
}

// Draw paints pixels, independent of the buffer held by the strip
func (strip *Strip) Draw(pixels []ledserver.Color) (err error) {
	strip.Lock()
	defer strip.Unlock()

	strip.frames++
	strip.screen.Clear()

	header := fmt.Sprintf("%s  %d pixels  frame %d  brightness %.2f", strip.title, len(pixels), strip.frames, strip.Brightness())
	for i, r := range header {
		strip.screen.SetContent(i, 0, r, nil, tcell.StyleDefault)
	}

	for i, c := range pixels {
		x, y := strip.Position(i)
		style := tcell.StyleDefault.Background(CellColor(c))
		for cell := 0; cell < strip.ledSize; cell++ {
			strip.screen.SetContent(x+cell, y, ' ', nil, style)
		}
	}
	strip.screen.Show()
	return nil
}

// Close restores the terminal
func (strip *Strip) Close() error {
	strip.Lock()
	defer strip.Unlock()
	strip.screen.Fini()
	return nil
}

// Watch closes the returned channel once the user asks to quit with Escape,
// Ctrl-C or q.  Resizes are redrawn from the current buffer
func (strip *Strip) Watch() (quitC <-chan struct{}) {
	c := make(chan struct{})
	go func() {
		defer close(c)
		for {
			switch ev := strip.screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventResize:
				strip.screen.Sync()
				strip.Show()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return
				}
			}
		}
	}()
	return c
}
