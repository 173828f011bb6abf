package dlts

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Protocol framing constants, per DLTS protocol version 190425.
const (
	CommandHeaderLength  = 3
	ResponseHeaderLength = 3

	ResponseAck  = "ack"
	ResponseErr  = "err"
	ResponseData = "dat"

	LineTerminator = "\r\n"

	// AutoFocusResponseLength is the payload size following the
	// autofocus action's "dat" header.
	AutoFocusResponseLength = 10
)

// FirmwareError is returned when the device answers a command
// with an "err" response.
type FirmwareError struct {
	Command string
	Message string
}

func (e *FirmwareError) Error() string {
	return fmt.Sprintf("dlts: firmware error %q in response to %q", e.Message, e.Command)
}

// ProtocolError is returned when the device answers with an
// unexpected response header.
type ProtocolError struct {
	Command string
	Header  string
	Want    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("dlts: got response %q to command %q, want %q", e.Header, e.Command, e.Want)
}

// Conn implements the DLTS command protocol on top of a raw
// byte stream (serial port or bridge connection).
//
// All methods are safe for use by a single commanding goroutine;
// the mutex serializes writes against concurrent realtime use.
type Conn struct {
	rw io.ReadWriter

	mx sync.Mutex
}

// NewConn creates a new Conn using the provided ReadWriter for data.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw}
}

// Close will close the underlying ReadWriter, if it implements io.Closer.
func (c *Conn) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Conn) Write(p []byte) (int, error) {
	c.mx.Lock()
	n, err := c.rw.Write(p)
	c.mx.Unlock()
	return n, err
}

// ReadFull blocks until exactly n bytes have been read.
//
// A stream that ends or times out before n bytes arrive is an error.
func (c *Conn) ReadFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(c.rw, buf)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

// SkipUntil discards incoming bytes until token has been observed or
// maxAttempts single-byte reads have been spent. It reports whether the
// token was seen.
//
// The device keeps flushing in-flight sample data after a scan stop
// command; this bounded drain is how the trailing bytes are consumed
// without blocking forever.
func (c *Conn) SkipUntil(token []byte, maxAttempts int) (bool, error) {
	if len(token) == 0 {
		return true, nil
	}
	window := make([]byte, 0, len(token))
	one := make([]byte, 1)
	for i := 0; i < maxAttempts; i++ {
		_, err := io.ReadFull(c.rw, one)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return false, err
		}
		if len(window) == len(token) {
			copy(window, window[1:])
			window[len(window)-1] = one[0]
		} else {
			window = append(window, one[0])
		}
		if bytes.Equal(window, token) {
			return true, nil
		}
	}
	return false, nil
}

// Command sends cmd and awaits the expected response header, reading
// and returning dataSize bytes of payload afterwards.
//
// An "err" response is reported as *FirmwareError, any other
// unexpected header as *ProtocolError.
func (c *Conn) Command(cmd []byte, wantHeader string, dataSize int) ([]byte, error) {
	_, err := c.Write(cmd)
	if err != nil {
		return nil, err
	}

	header, err := c.ReadFull(ResponseHeaderLength)
	if err != nil {
		return nil, err
	}

	name := commandName(cmd)
	switch {
	case string(header) == wantHeader:
	case string(header) == ResponseErr:
		msg, err := c.readLine()
		if err != nil {
			return nil, err
		}
		return nil, &FirmwareError{Command: name, Message: msg}
	default:
		return nil, &ProtocolError{Command: name, Header: string(header), Want: wantHeader}
	}

	if dataSize == 0 {
		return nil, nil
	}
	return c.ReadFull(dataSize)
}

// CommandSet sends a SET command and awaits its acknowledgment.
func (c *Conn) CommandSet(cmd []byte) error {
	_, err := c.Command(cmd, ResponseAck, 0)
	return err
}

// CommandGet sends a GET command and returns the received payload of
// the specified size.
func (c *Conn) CommandGet(cmd []byte, dataSize int) ([]byte, error) {
	return c.Command(cmd, ResponseData, dataSize)
}

// CommandGetUint16 sends a GET command and returns the two byte
// big-endian unsigned integer it is answered with.
func (c *Conn) CommandGetUint16(cmd []byte) (uint16, error) {
	data, err := c.CommandGet(cmd, 2)
	if err != nil {
		return 0, err
	}
	return uint16(data[0])<<8 | uint16(data[1]), nil
}

// readLine reads up to the protocol line terminator, returning the
// line without it.
func (c *Conn) readLine() (string, error) {
	var line []byte
	one := make([]byte, 1)
	for !bytes.HasSuffix(line, []byte(LineTerminator)) {
		_, err := io.ReadFull(c.rw, one)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
		line = append(line, one[0])
	}
	return string(line[:len(line)-len(LineTerminator)]), nil
}

func commandName(cmd []byte) string {
	if len(cmd) > CommandHeaderLength {
		cmd = cmd[:CommandHeaderLength]
	}
	return string(cmd)
}
