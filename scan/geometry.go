package scan

import (
	"errors"
	"time"

	"github.com/dltscontrol/dltscan/dlts"
)

// Geometry is an immutable description of a sampled area: the scan
// bounds and step sizes in device coordinates, the per-step delays,
// and the acquisition conditions the resulting images are stamped
// with.
//
// The device walks the area in raster order, one sample per grid
// cell, so Columns×Rows is the exact number of records a complete
// scan yields.
type Geometry struct {
	XLow, XHigh uint16
	YLow, YHigh uint16

	XStep, YStep uint16

	// Per-pixel / per-line positioning delays, milliseconds.
	XDelay, YDelay uint16

	LaserIntensity uint16
	ZPosition      uint16
	XTilt          uint16

	StartTime time.Time
	Duration  time.Duration
}

// Validate reports whether the geometry describes a scannable grid.
func (g Geometry) Validate() error {
	if g.XStep == 0 || g.YStep == 0 {
		return errors.New("scan: step size must be positive")
	}
	if g.XHigh < g.XLow || g.YHigh < g.YLow {
		return errors.New("scan: high bound must not be below low bound")
	}
	return nil
}

// Columns is the number of sampled positions along the x axis.
func (g Geometry) Columns() int {
	return int(g.XHigh-g.XLow)/int(g.XStep) + 1
}

// Rows is the number of sampled positions along the y axis.
func (g Geometry) Rows() int {
	return int(g.YHigh-g.YLow)/int(g.YStep) + 1
}

// CellCount is the number of grid cells a complete scan fills.
func (g Geometry) CellCount() int {
	return g.Columns() * g.Rows()
}

// Origin is the lowest position of the area, the top-left image corner.
func (g Geometry) Origin() (x, y uint16) {
	return g.XLow, g.YLow
}

// Size is the total extent the grid covers in device coordinates.
func (g Geometry) Size() (w, h int) {
	return g.Columns() * int(g.XStep), g.Rows() * int(g.YStep)
}

// Configure sends the area bounds, step sizes and delays to the
// device. Each set command is individually acknowledged.
func (g Geometry) Configure(conn CommandConn) error {
	cmds := [][]byte{
		dlts.SetScanXLowBound(g.XLow),
		dlts.SetScanXHighBound(g.XHigh),
		dlts.SetScanYLowBound(g.YLow),
		dlts.SetScanYHighBound(g.YHigh),
		dlts.SetScanXStepSize(g.XStep),
		dlts.SetScanYStepSize(g.YStep),
		dlts.SetScanXDelay(g.XDelay),
		dlts.SetScanYDelay(g.YDelay),
	}
	for _, cmd := range cmds {
		if err := conn.CommandSet(cmd); err != nil {
			return err
		}
	}
	return nil
}
