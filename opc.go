package ledserver

// This file contains the Open Pixel Control framing used to talk to a
// fadecandy server, see http://openpixelcontrol.org/.  Each message carries a
// channel, a command and a big endian payload length followed by the payload

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	// OPCSetPixelColors is the command carrying 8 bit RGB triples
	OPCSetPixelColors = uint8(0)

	opcHeaderLen  = 4
	opcMaxPayload = 0xffff
)

// OPCMessage is a single Open Pixel Control message
type OPCMessage struct {
	Channel uint8
	Command uint8
	Data    []byte
}

// NewOPCMessage creates a set pixel colours message sized for pixelCount pixels
func NewOPCMessage(channel uint8, pixelCount int) *OPCMessage {
	if pixelCount*3 > opcMaxPayload {
		pixelCount = opcMaxPayload / 3
	}
	return &OPCMessage{
		Channel: channel,
		Command: OPCSetPixelColors,
		Data:    make([]byte, pixelCount*3),
	}
}

// PixelCount returns the number of RGB triples in the payload
func (m *OPCMessage) PixelCount() int {
	return len(m.Data) / 3
}

// SetPixelColor stores c for pixel i, ignoring pixels beyond the payload
func (m *OPCMessage) SetPixelColor(i int, c Color) {
	if i < 0 || i*3+2 >= len(m.Data) {
		return
	}
	m.Data[i*3] = c.R
	m.Data[i*3+1] = c.G
	m.Data[i*3+2] = c.B
}

// PixelColor returns the colour of pixel i
func (m *OPCMessage) PixelColor(i int) Color {
	if i < 0 || i*3+2 >= len(m.Data) {
		return Black
	}
	return Color{m.Data[i*3], m.Data[i*3+1], m.Data[i*3+2]}
}

// Bytes returns the wire encoding of the message
func (m *OPCMessage) Bytes() []byte {
	out := make([]byte, opcHeaderLen+len(m.Data))
	out[0] = m.Channel
	out[1] = m.Command
	binary.BigEndian.PutUint16(out[2:4], uint16(len(m.Data)))
	copy(out[opcHeaderLen:], m.Data)
	return out
}

// ReadOPCMessage reads the next message from r
func ReadOPCMessage(r io.Reader) (m *OPCMessage, err error) {
	header := make([]byte, opcHeaderLen)
	if _, errGo := io.ReadFull(r, header); errGo != nil {
		if errGo == io.EOF {
			return nil, errGo
		}
		return nil, errors.Wrap(errGo, "opc header")
	}
	m = &OPCMessage{
		Channel: header[0],
		Command: header[1],
		Data:    make([]byte, binary.BigEndian.Uint16(header[2:4])),
	}
	if _, errGo := io.ReadFull(r, m.Data); errGo != nil {
		return nil, errors.Wrap(errGo, "opc payload")
	}
	return m, nil
}
