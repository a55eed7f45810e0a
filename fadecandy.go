package ledserver

// This file contains an output sink that forwards frames to a fadecandy
// server using Open Pixel Control over TCP.  When the server cannot be
// reached frames are dropped and a reconnect is attempted periodically, the
// render loop keeps running regardless

import (
	"bytes"
	"net"
	"sync"
	"time"

	"github.com/cnf/structhash"
	"github.com/go-stack/stack"
	logxi "github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"
)

const (
	fadeCandyWriteTimeout = 200 * time.Millisecond
	fadeCandyDialTimeout  = 2 * time.Second
	fadeCandyRetry        = 2 * time.Second
)

type dialFunc func(network, address string, timeout time.Duration) (net.Conn, error)

// fcFrame is what gets hashed to decide whether a frame differs from the last one sent
type fcFrame struct {
	Channel uint8
	Pixels  []Color
}

// FadeCandy is an output sink driving one OPC channel of a fadecandy server
type FadeCandy struct {
	*PixelBuffer

	server  string
	channel uint8
	dial    dialFunc
	logger  logxi.Logger

	conn    net.Conn
	last    []byte
	retryAt time.Time
	mu      sync.Mutex
}

// NewFadeCandy creates a sink for the OPC server at address (host:port).  No
// connection is made until Connect or the first Show
func NewFadeCandy(server string, channel uint8, pixelCount int, logger logxi.Logger) *FadeCandy {
	if logger == nil {
		logger = logxi.NullLog
	}
	return &FadeCandy{
		PixelBuffer: NewPixelBuffer(pixelCount),
		server:      server,
		channel:     channel,
		dial:        net.DialTimeout,
		logger:      logger,
	}
}

// Connect dials the OPC server
func (fc *FadeCandy) Connect() (err error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.connect()
}

func (fc *FadeCandy) connect() (err error) {
	if fc.conn != nil {
		return nil
	}
	conn, errGo := fc.dial("tcp", fc.server, fadeCandyDialTimeout)
	if errGo != nil {
		fc.retryAt = time.Now().Add(fadeCandyRetry)
		return errors.Wrapf(ErrSinkUnavailable, "opc server %s: %s", fc.server, errGo.Error())
	}
	fc.conn = conn
	fc.last = nil
	fc.logger.Info("connected to opc server", "server", fc.server, "channel", fc.channel)
	return nil
}

func (fc *FadeCandy) disconnect() {
	if fc.conn == nil {
		return
	}
	fc.conn.Close()
	fc.conn = nil
	fc.last = nil
	fc.retryAt = time.Now().Add(fadeCandyRetry)
}

// Show sends the buffer, with brightness applied, unless it is identical to
// the previously sent frame
func (fc *FadeCandy) Show() (err error) {
	frame := fcFrame{Channel: fc.channel, Pixels: fc.Scaled()}
	hash := structhash.Md5(frame, 1)

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.conn == nil {
		if time.Now().Before(fc.retryAt) {
			return nil
		}
		if err = fc.connect(); err != nil {
			return err
		}
	}

	if bytes.Equal(hash, fc.last) {
		return nil
	}

	msg := NewOPCMessage(fc.channel, len(frame.Pixels))
	for i, c := range frame.Pixels {
		msg.SetPixelColor(i, c)
	}

	fc.conn.SetWriteDeadline(time.Now().Add(fadeCandyWriteTimeout))
	if _, errGo := fc.conn.Write(msg.Bytes()); errGo != nil {
		fc.disconnect()
		fc.logger.Warn("opc send failed", "server", fc.server, "error", errGo, "stack", stack.Trace().TrimRuntime())
		return errors.Wrapf(ErrSinkUnavailable, "opc server %s: %s", fc.server, errGo.Error())
	}
	fc.last = hash
	return nil
}

// Close drops the connection to the OPC server
func (fc *FadeCandy) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.disconnect()
	return nil
}
