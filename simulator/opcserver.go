package simulator

// This file contains a minimal Open Pixel Control server.  Every set pixel
// colours message addressed to the configured channel, or broadcast on
// channel 0, is copied into an output sink and shown

import (
	"io"
	"net"
	"sync"

	"github.com/go-stack/stack"
	logxi "github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"

	"github.com/TeamNorCal/ledserver"
)

// Server receives OPC frames and presents them on a sink
type Server struct {
	sink    ledserver.OutputSink
	channel uint8
	logger  logxi.Logger

	frames uint64
	sync.Mutex
}

// NewServer creates a server presenting frames for channel on sink
func NewServer(sink ledserver.OutputSink, channel uint8, logger logxi.Logger) *Server {
	if logger == nil {
		logger = logxi.NullLog
	}
	return &Server{
		sink:    sink,
		channel: channel,
		logger:  logger,
	}
}

// Frames returns the number of frames shown so far
func (srv *Server) Frames() uint64 {
	srv.Lock()
	defer srv.Unlock()
	return srv.frames
}

// Serve accepts connections until quitC is closed or the listener fails
func (srv *Server) Serve(listener net.Listener, errorC chan<- error, quitC <-chan struct{}) {
	go func() {
		<-quitC
		listener.Close()
	}()

	for {
		conn, errGo := listener.Accept()
		if errGo != nil {
			select {
			case <-quitC:
			default:
				select {
				case errorC <- errors.Wrap(errGo, stack.Trace().TrimRuntime().String()):
				case <-quitC:
				}
			}
			return
		}
		go srv.handle(conn, quitC)
	}
}

func (srv *Server) handle(conn net.Conn, quitC <-chan struct{}) {
	defer conn.Close()
	srv.logger.Debug("opc client connected", "remote", conn.RemoteAddr().String())

	go func() {
		<-quitC
		conn.Close()
	}()

	for {
		msg, err := ledserver.ReadOPCMessage(conn)
		if err != nil {
			if errors.Cause(err) != io.EOF {
				srv.logger.Debug("opc client dropped", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}
		if err = srv.Present(msg); err != nil {
			srv.logger.Warn("frame not shown", "error", err)
		}
	}
}

// Present shows a single message when it is addressed to this server
func (srv *Server) Present(msg *ledserver.OPCMessage) (err error) {
	if msg.Command != ledserver.OPCSetPixelColors {
		srv.logger.Trace("opc command ignored", "command", msg.Command)
		return nil
	}
	if msg.Channel != 0 && msg.Channel != srv.channel {
		return nil
	}

	srv.Lock()
	defer srv.Unlock()

	for i := 0; i < msg.PixelCount(); i++ {
		srv.sink.SetPixel(i, msg.PixelColor(i))
	}
	srv.frames++
	return srv.sink.Show()
}
