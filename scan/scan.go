package scan

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dltscontrol/dltscan/dlts"
)

// defaultAbortAttempts bounds the post-abort drain. The device flushes
// at most a handful of in-flight records after a stop command.
const defaultAbortAttempts = 256

// Protocol parameterizes how one scan modality starts, aborts and
// what it streams, replacing per-modality subclassing with data.
type Protocol struct {
	Name string

	// StartCommand is the fixed 3-byte ASCII start token.
	StartCommand []byte

	// AbortCommand is written to stop the scan; the device answers
	// with AbortAck somewhere in the trailing byte stream.
	AbortCommand []byte
	AbortAck     []byte

	// AbortAttempts bounds the skip-until drain after AbortCommand.
	AbortAttempts int

	// RecordSize is the wire width of one streamed record in bytes.
	RecordSize int

	// Channels of the record stream, in the order images are produced.
	Channels []Channel
}

// The scan modalities the device firmware provides.
var (
	// Parallel samples latch-up current, reflection intensity and
	// latch-up voltage in a single pass of 6-byte records.
	Parallel = Protocol{
		Name:          "parallel",
		StartCommand:  []byte("asm"),
		AbortCommand:  dlts.ActionScanStop(),
		AbortAck:      []byte(dlts.ResponseAck),
		AbortAttempts: defaultAbortAttempts,
		RecordSize:    RecordByteCount,
		Channels:      []Channel{ChannelLatchUpCurrent, ChannelReflection, ChannelLatchUpVoltage},
	}

	// Current is the older current-scan modality: same 6-byte record
	// layout, but the last field carries the base current.
	Current = Protocol{
		Name:          "current",
		StartCommand:  []byte("asc"),
		AbortCommand:  dlts.ActionScanStop(),
		AbortAck:      []byte(dlts.ResponseAck),
		AbortAttempts: defaultAbortAttempts,
		RecordSize:    RecordByteCount,
		Channels:      []Channel{ChannelLatchUpCurrent, ChannelReflection, ChannelBaseCurrent},
	}

	// LatchUp streams one 2-byte latch-up current per cell.
	LatchUp = Protocol{
		Name:          "latchup",
		StartCommand:  dlts.ActionScanLatchUp(),
		AbortCommand:  dlts.ActionScanStop(),
		AbortAck:      []byte(dlts.ResponseAck),
		AbortAttempts: defaultAbortAttempts,
		RecordSize:    2,
		Channels:      []Channel{ChannelLatchUpEvents},
	}

	// Reflection is the laser-microscope modality: a single
	// reflection intensity byte per cell.
	Reflection = Protocol{
		Name:          "reflection",
		StartCommand:  dlts.ActionScanArea(),
		AbortCommand:  dlts.ActionScanStop(),
		AbortAck:      []byte(dlts.ResponseAck),
		AbortAttempts: defaultAbortAttempts,
		RecordSize:    1,
		Channels:      []Channel{ChannelLaserReflection},
	}
)

// CommandConn is the connection contract a full scan run requires:
// the raw acquisition stream plus the acknowledged command layer used
// for parameter setup and teardown. A *dlts.Conn satisfies it.
type CommandConn interface {
	Connection

	Command(cmd []byte, wantHeader string, dataSize int) ([]byte, error)
	CommandSet(cmd []byte) error
	CommandGetUint16(cmd []byte) (uint16, error)
}

// Options carry the scan-specific scalars applied before acquisition.
// Nil override fields keep the device's current values.
type Options struct {
	// PositioningDelay is how long to wait after moving to the scan
	// origin before starting.
	PositioningDelay time.Duration

	LaserIntensity *uint16
	ZPosition      *uint16
	XTilt          *uint16

	// LatchUpTurnOffDelay is sent to the device when non-nil,
	// in milliseconds.
	LatchUpTurnOffDelay *uint16

	// AutoFocus runs the device autofocus routine before the scan.
	AutoFocus bool
}

// Progress is a snapshot of a running scan.
type Progress struct {
	State   State `json:"state"`
	Scanned int   `json:"scanned"`
	Total   int   `json:"total"`
}

// Scan is a single runnable acquisition: it owns its controller and
// geometry, drives the connection end to end and keeps the resulting
// record sequence for image assembly.
//
// A Scan runs once. Run blocks for the scan's duration; Abort may be
// called from another goroutine.
type Scan struct {
	proto Protocol
	opts  Options

	mx   sync.Mutex
	geom Geometry
	ctrl *Controller

	abortRequested bool
	started        bool

	progress chan Progress
}

// New creates a ready-to-run scan from a geometry and scan-specific
// scalars.
func New(proto Protocol, geom Geometry, opts Options) (*Scan, error) {
	ctrl, err := NewController(proto, geom)
	if err != nil {
		return nil, err
	}
	return &Scan{
		proto:    proto,
		opts:     opts,
		geom:     geom,
		ctrl:     ctrl,
		progress: make(chan Progress, 1),
	}, nil
}

// Progress returns a channel that receives snapshots while the scan
// runs. Snapshots are dropped, not queued, when the receiver lags.
func (s *Scan) Progress() <-chan Progress { return s.progress }

// State returns the controller state.
func (s *Scan) State() State {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.ctrl.State()
}

// Records returns a copy of the acquired record sequence.
func (s *Scan) Records() []Record {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.ctrl.Records()
}

// Geometry returns the scan geometry, stamped with start time and
// duration once the scan has run.
func (s *Scan) Geometry() Geometry {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.geom
}

// Abort requests a cooperative abort. The read loop issues the abort
// command after the record currently in flight.
func (s *Scan) Abort() {
	s.mx.Lock()
	s.abortRequested = true
	s.mx.Unlock()
}

// Images assembles one image per protocol channel from the completed
// scan. Aborted or failed scans yield an IncompleteScanError.
func (s *Scan) Images() ([]ChannelImage, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if !s.ctrl.State().Terminal() {
		return nil, fmt.Errorf("scan: no images before the scan has finished (state %v)", s.ctrl.State())
	}
	return AssembleImages(s.ctrl.Records(), s.geom, s.proto.Channels)
}

// Run performs the whole acquisition on conn: capture the device's
// scalar parameters, apply overrides, configure the area, move to the
// origin, start the stream and read until complete or aborted. The
// captured parameters are restored on every exit path.
func (s *Scan) Run(conn CommandConn) error {
	s.mx.Lock()
	if s.started {
		s.mx.Unlock()
		return fmt.Errorf("scan: already ran")
	}
	s.started = true
	s.geom.StartTime = time.Now()
	s.mx.Unlock()

	defer close(s.progress)
	defer func() {
		s.mx.Lock()
		s.geom.Duration = time.Since(s.geom.StartTime)
		s.mx.Unlock()
	}()

	restore, err := s.setup(conn)
	if restore != nil {
		defer restore()
	}
	if err != nil {
		s.failSetup()
		return err
	}

	return s.acquire(conn)
}

// setup captures and applies the scalar device parameters and
// configures the scan area. The returned restore func puts the
// captured values back and is non-nil as soon as anything was read.
func (s *Scan) setup(conn CommandConn) (restore func(), err error) {
	prevTilt, err := conn.CommandGetUint16(dlts.GetXTilt())
	if err != nil {
		return nil, err
	}
	prevZ, err := conn.CommandGetUint16(dlts.GetZPosition())
	if err != nil {
		return nil, err
	}
	prevIntensity, err := conn.CommandGetUint16(dlts.GetLaserIntensity())
	if err != nil {
		return nil, err
	}

	restore = func() {
		for _, cmd := range [][]byte{
			dlts.SetXTilt(prevTilt),
			dlts.SetZPosition(prevZ),
			dlts.SetLaserIntensity(prevIntensity),
		} {
			if err := conn.CommandSet(cmd); err != nil {
				log.Printf("ERROR: restore scan parameter: %v", err)
				return
			}
		}
	}

	tilt, z, intensity := prevTilt, prevZ, prevIntensity
	if s.opts.XTilt != nil {
		tilt = *s.opts.XTilt
	}
	if s.opts.ZPosition != nil {
		z = *s.opts.ZPosition
	}
	if s.opts.LaserIntensity != nil {
		intensity = *s.opts.LaserIntensity
	}

	s.mx.Lock()
	s.geom.XTilt = tilt
	s.geom.ZPosition = z
	s.geom.LaserIntensity = intensity
	geom := s.geom
	s.mx.Unlock()

	setCmds := [][]byte{
		dlts.SetXTilt(tilt),
		dlts.SetZPosition(z),
		dlts.SetLaserIntensity(intensity),
	}
	if s.opts.LatchUpTurnOffDelay != nil {
		setCmds = append(setCmds, dlts.SetLatchUpTurnOffDelayMillis(*s.opts.LatchUpTurnOffDelay))
	}
	for _, cmd := range setCmds {
		if err := conn.CommandSet(cmd); err != nil {
			return restore, err
		}
	}

	if err := geom.Configure(conn); err != nil {
		return restore, err
	}

	// move to the scan origin and give the stage time to settle
	if err := conn.CommandSet(dlts.SetXPosition(geom.XLow)); err != nil {
		return restore, err
	}
	if err := conn.CommandSet(dlts.SetYPosition(geom.YLow)); err != nil {
		return restore, err
	}
	time.Sleep(s.opts.PositioningDelay)

	if s.opts.AutoFocus {
		_, err := conn.Command(dlts.ActionScanAutoFocus(), dlts.ResponseData, dlts.AutoFocusResponseLength)
		if err != nil {
			return restore, err
		}
	}

	return restore, nil
}

// acquire runs the start command and the read loop until the grid is
// full or an abort was requested.
func (s *Scan) acquire(conn CommandConn) error {
	s.mx.Lock()
	err := s.ctrl.Start(conn)
	s.mx.Unlock()
	if err != nil {
		return err
	}
	s.emitProgress()

	for {
		s.mx.Lock()
		_, err := s.ctrl.ReadNext(conn)
		s.mx.Unlock()
		if err != nil {
			return err
		}
		s.emitProgress()

		s.mx.Lock()
		abort := s.abortRequested
		done := s.ctrl.Remaining() == 0
		s.mx.Unlock()

		if abort {
			s.mx.Lock()
			err = s.ctrl.Abort(conn)
			s.mx.Unlock()
			s.emitProgress()
			return err
		}
		if done {
			s.mx.Lock()
			err = s.ctrl.Complete()
			s.mx.Unlock()
			s.emitProgress()
			return err
		}
	}
}

func (s *Scan) emitProgress() {
	s.mx.Lock()
	p := Progress{
		State:   s.ctrl.State(),
		Scanned: len(s.ctrl.records),
		Total:   s.geom.CellCount(),
	}
	s.mx.Unlock()
	select {
	case s.progress <- p:
	default:
	}
}

// failSetup moves the controller to Failed when setup dies before the
// acquisition ever started, so terminal-state checks hold.
func (s *Scan) failSetup() {
	s.mx.Lock()
	if !s.ctrl.State().Terminal() {
		s.ctrl.state = Failed
	}
	s.mx.Unlock()
}
