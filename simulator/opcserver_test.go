package simulator

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeamNorCal/ledserver"
)

func TestServerPresent(t *testing.T) {
	sink := ledserver.NewMockSink(3, nil)
	srv := NewServer(sink, 2, nil)

	msg := ledserver.NewOPCMessage(2, 3)
	msg.SetPixelColor(0, ledserver.White)
	require.NoError(t, srv.Present(msg))
	assert.Equal(t, ledserver.White, sink.Pixels()[0])
	assert.Equal(t, uint64(1), srv.Frames())

	// Other channels are ignored, channel 0 is a broadcast
	other := ledserver.NewOPCMessage(5, 3)
	other.SetPixelColor(1, ledserver.White)
	require.NoError(t, srv.Present(other))
	assert.Equal(t, ledserver.Black, sink.Pixels()[1])

	broadcast := ledserver.NewOPCMessage(0, 3)
	broadcast.SetPixelColor(1, ledserver.White)
	require.NoError(t, srv.Present(broadcast))
	assert.Equal(t, ledserver.White, sink.Pixels()[1])

	unknown := &ledserver.OPCMessage{Channel: 2, Command: 0xff, Data: []byte{1, 2, 3}}
	require.NoError(t, srv.Present(unknown))
	assert.Equal(t, uint64(2), srv.Frames())
}

func TestServerWithFadeCandy(t *testing.T) {
	listener, errGo := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, errGo)

	sink := ledserver.NewMockSink(4, nil)
	srv := NewServer(sink, 0, nil)
	errorC := make(chan error, 1)
	quitC := make(chan struct{})
	defer close(quitC)
	go srv.Serve(listener, errorC, quitC)

	fc := ledserver.NewFadeCandy(listener.Addr().String(), 0, 4, nil)
	require.NoError(t, fc.Connect())
	defer fc.Close()

	fc.SetPixel(3, ledserver.Color{R: 10, G: 20, B: 30})
	require.NoError(t, fc.Show())

	assert.Eventually(t, func() bool { return srv.Frames() == 1 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, ledserver.Color{R: 10, G: 20, B: 30}, sink.Pixels()[3])
}
