package ledserver

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// opcListener accepts a single client and relays every message it sends
func opcListener(t *testing.T) (addr string, msgC <-chan *OPCMessage) {
	listener, errGo := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, errGo)
	t.Cleanup(func() { listener.Close() })

	c := make(chan *OPCMessage, 16)
	go func() {
		conn, errGo := listener.Accept()
		if errGo != nil {
			return
		}
		defer conn.Close()
		for {
			msg, err := ReadOPCMessage(conn)
			if err != nil {
				return
			}
			c <- msg
		}
	}()
	return listener.Addr().String(), c
}

func TestFadeCandySendsFrames(t *testing.T) {
	addr, msgC := opcListener(t)

	fc := NewFadeCandy(addr, 3, 4, nil)
	require.NoError(t, fc.Connect())
	defer fc.Close()

	fc.SetPixel(1, red)
	require.NoError(t, fc.Show())

	select {
	case msg := <-msgC:
		assert.Equal(t, uint8(3), msg.Channel)
		assert.Equal(t, 4, msg.PixelCount())
		assert.Equal(t, red, msg.PixelColor(1))
		assert.Equal(t, Black, msg.PixelColor(0))
	case <-time.After(5 * time.Second):
		t.Fatal("no frame received")
	}

	// Identical frames are not resent
	require.NoError(t, fc.Show())
	select {
	case msg := <-msgC:
		t.Fatalf("unexpected frame %v", msg.Data)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, fc.SetBrightness(0.5))
	require.NoError(t, fc.Show())
	select {
	case msg := <-msgC:
		assert.Equal(t, Color{127, 0, 0}, msg.PixelColor(1))
	case <-time.After(5 * time.Second):
		t.Fatal("no frame received after brightness change")
	}
}

func TestFadeCandyUnavailable(t *testing.T) {
	listener, errGo := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, errGo)
	addr := listener.Addr().String()
	listener.Close()

	fc := NewFadeCandy(addr, 0, 2, nil)
	assert.True(t, IsSinkUnavailable(fc.Connect()))

	// Frames are dropped quietly until the retry interval has passed
	assert.NoError(t, fc.Show())

	fc.retryAt = time.Time{}
	assert.True(t, IsSinkUnavailable(fc.Show()))
	assert.NoError(t, fc.Close())
}
