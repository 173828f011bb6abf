package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeometry_Grid(t *testing.T) {
	g := Geometry{
		XLow: 100, XHigh: 130,
		YLow: 200, YHigh: 220,
		XStep: 10, YStep: 10,
	}

	assert.NoError(t, g.Validate())
	assert.Equal(t, 4, g.Columns())
	assert.Equal(t, 3, g.Rows())
	assert.Equal(t, 12, g.CellCount())

	x, y := g.Origin()
	assert.Equal(t, uint16(100), x)
	assert.Equal(t, uint16(200), y)

	w, h := g.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)
}

func TestGeometry_UnevenStep(t *testing.T) {
	// a step that does not divide the span evenly rounds down
	g := Geometry{XLow: 0, XHigh: 25, YLow: 0, YHigh: 0, XStep: 10, YStep: 1}
	assert.Equal(t, 3, g.Columns())
	assert.Equal(t, 1, g.Rows())
}

func TestGeometry_PointScan(t *testing.T) {
	g := Geometry{XLow: 50, XHigh: 50, YLow: 70, YHigh: 70, XStep: 1, YStep: 1}
	assert.Equal(t, 1, g.CellCount())
}

func TestGeometry_Validate(t *testing.T) {
	assert.Error(t, Geometry{XStep: 0, YStep: 1}.Validate())
	assert.Error(t, Geometry{XStep: 1, YStep: 0}.Validate())
	assert.Error(t, Geometry{XLow: 10, XHigh: 5, XStep: 1, YStep: 1}.Validate())
	assert.Error(t, Geometry{YLow: 10, YHigh: 5, XStep: 1, YStep: 1}.Validate())
	assert.NoError(t, Geometry{XHigh: 5, YHigh: 5, XStep: 1, YStep: 1}.Validate())
}

func TestGeometry_Configure(t *testing.T) {
	g := Geometry{
		XLow: 1, XHigh: 2,
		YLow: 3, YHigh: 4,
		XStep: 5, YStep: 6,
		XDelay: 7, YDelay: 8,
	}

	conn := &mockConn{}
	assert.NoError(t, g.Configure(conn))

	assert.Equal(t, []string{
		"sxl\x00\x01",
		"sxh\x00\x02",
		"syl\x00\x03",
		"syh\x00\x04",
		"ssx\x00\x05",
		"ssy\x00\x06",
		"sdp\x00\x07",
		"sdl\x00\x08",
	}, conn.setCmds)
}
