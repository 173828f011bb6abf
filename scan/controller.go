package scan

import (
	"errors"
	"fmt"
)

// Connection is the byte-level contract the acquisition loop requires
// from a transport. A *dlts.Conn satisfies it.
type Connection interface {
	Write(p []byte) (int, error)
	// ReadFull blocks until exactly n bytes are available and fails
	// if the connection closes or times out first.
	ReadFull(n int) ([]byte, error)
	// SkipUntil discards bytes until token is seen or maxAttempts
	// reads have been spent, reporting whether it was seen.
	SkipUntil(token []byte, maxAttempts int) (bool, error)
}

// TransportError wraps a connection failure that is fatal to the
// current scan.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("scan: transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrAbortTimeout is returned by Abort when the acknowledge token was
// not observed within the attempt budget. The scan still counts as
// aborted, but the connection may have unread bytes in flight.
var ErrAbortTimeout = errors.New("scan: abort acknowledge not seen within attempt budget")

// State of a scan controller. Completed, Aborted and Failed are
// terminal; a new scan requires a new controller.
type State int

const (
	Idle State = iota
	Starting
	Acquiring
	Completed
	Aborted
	Failed
)

var stateNames = [...]string{"Idle", "Starting", "Acquiring", "Completed", "Aborted", "Failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == Completed || s == Aborted || s == Failed
}

// Controller drives one scan acquisition over one connection: start
// command, record read loop, abort command with bounded drain. It
// accumulates the ordered record sequence as it goes.
//
// A controller is single-use and not safe for concurrent use; the
// owning scan serializes access.
type Controller struct {
	proto Protocol
	geom  Geometry

	state   State
	records []Record
}

// NewController creates an idle controller for one scan of the given
// geometry. The geometry is validated up front so the cell-count math
// is safe for every later call.
func NewController(proto Protocol, geom Geometry) (*Controller, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	return &Controller{proto: proto, geom: geom}, nil
}

// State returns the current controller state.
func (c *Controller) State() State { return c.state }

// Records returns a copy of the records accumulated so far, in
// acquisition order.
func (c *Controller) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Remaining returns how many records are still expected.
func (c *Controller) Remaining() int {
	return c.geom.CellCount() - len(c.records)
}

// Start sends the scan start command. The write is fire-and-forget: a
// device that rejects the command shows up as a failure on the first
// subsequent ReadNext.
func (c *Controller) Start(conn Connection) error {
	if c.state != Idle {
		return fmt.Errorf("scan: cannot start from state %v", c.state)
	}
	c.state = Starting
	_, err := conn.Write(c.proto.StartCommand)
	if err != nil {
		c.state = Failed
		return &TransportError{Op: "start", Err: err}
	}
	c.state = Acquiring
	return nil
}

// ReadNext blocks until the next full record has arrived, decodes it
// and appends it to the accumulated sequence.
func (c *Controller) ReadNext(conn Connection) (Record, error) {
	if c.state != Acquiring {
		return nil, fmt.Errorf("scan: cannot read from state %v", c.state)
	}
	buf, err := conn.ReadFull(c.proto.RecordSize)
	if err != nil {
		c.state = Failed
		return nil, &TransportError{Op: "read", Err: err}
	}
	rec, err := DecodeRecord(buf, c.proto.RecordSize)
	if err != nil {
		c.state = Failed
		return nil, err
	}
	c.records = append(c.records, rec)
	return rec, nil
}

// Abort sends the abort command and drains the connection until the
// acknowledge token is seen or the attempt budget runs out. The
// controller ends up Aborted either way; ErrAbortTimeout flags the
// budget case since the connection's usability is then uncertain.
func (c *Controller) Abort(conn Connection) error {
	if c.state != Acquiring {
		return fmt.Errorf("scan: cannot abort from state %v", c.state)
	}
	_, err := conn.Write(c.proto.AbortCommand)
	if err != nil {
		c.state = Failed
		return &TransportError{Op: "abort", Err: err}
	}
	found, err := conn.SkipUntil(c.proto.AbortAck, c.proto.AbortAttempts)
	if err != nil {
		c.state = Failed
		return &TransportError{Op: "abort drain", Err: err}
	}
	c.state = Aborted
	if !found {
		return ErrAbortTimeout
	}
	return nil
}

// Complete marks the scan finished once every grid cell has been read.
func (c *Controller) Complete() error {
	if c.state != Acquiring {
		return fmt.Errorf("scan: cannot complete from state %v", c.state)
	}
	if c.Remaining() > 0 {
		return fmt.Errorf("scan: %d records still expected", c.Remaining())
	}
	c.state = Completed
	return nil
}
