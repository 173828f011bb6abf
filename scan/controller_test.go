package scan

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeometry2x2() Geometry {
	return Geometry{XLow: 0, XHigh: 10, YLow: 0, YHigh: 10, XStep: 10, YStep: 10}
}

func testController(t *testing.T, proto Protocol, geom Geometry) *Controller {
	t.Helper()
	c, err := NewController(proto, geom)
	require.NoError(t, err)
	return c
}

func TestNewController_InvalidGeometry(t *testing.T) {
	// a zero step size would make the cell-count math divide by zero
	_, err := NewController(Parallel, Geometry{XLow: 0, XHigh: 10, YLow: 0, YHigh: 10})
	assert.Error(t, err)
}

func TestController_CompleteScan(t *testing.T) {
	conn := &mockConn{}
	for i := 0; i < 4; i++ {
		conn.readData = append(conn.readData, recordBytes(uint16(i), uint16(i*2), uint16(i*3))...)
	}

	c := testController(t, Parallel, testGeometry2x2())
	assert.Equal(t, Idle, c.State())

	assert.NoError(t, c.Start(conn))
	assert.Equal(t, Acquiring, c.State())
	assert.Equal(t, []byte("asm"), conn.written)

	for i := 0; i < 4; i++ {
		rec, err := c.ReadNext(conn)
		assert.NoError(t, err)
		assert.Equal(t, uint16(i), rec.ReflectionValue())
	}

	assert.Equal(t, 0, c.Remaining())
	assert.NoError(t, c.Complete())
	assert.Equal(t, Completed, c.State())
	assert.True(t, c.State().Terminal())
	assert.Len(t, c.Records(), 4)
}

func TestController_LatchUpRecords(t *testing.T) {
	conn := &mockConn{}
	for i := 0; i < 4; i++ {
		conn.readData = append(conn.readData, 0x00, byte(i))
	}

	c := testController(t, LatchUp, testGeometry2x2())
	assert.NoError(t, c.Start(conn))
	assert.Equal(t, []byte("asu"), conn.written)

	for i := 0; i < 4; i++ {
		rec, err := c.ReadNext(conn)
		assert.NoError(t, err)
		assert.Len(t, []byte(rec), 2)
		assert.Equal(t, uint16(i), ChannelLatchUpEvents.Extract(rec))
	}
	assert.NoError(t, c.Complete())
}

func TestController_ReflectionRecords(t *testing.T) {
	conn := &mockConn{readData: []byte{10, 20, 30, 40}}

	c := testController(t, Reflection, testGeometry2x2())
	assert.NoError(t, c.Start(conn))
	assert.Equal(t, []byte("asa"), conn.written)

	for i := 0; i < 4; i++ {
		rec, err := c.ReadNext(conn)
		assert.NoError(t, err)
		assert.Len(t, []byte(rec), 1)
		assert.Equal(t, uint16(10*(i+1)), ChannelLaserReflection.Extract(rec))
	}
	assert.NoError(t, c.Complete())
}

func TestController_StartTwice(t *testing.T) {
	conn := &mockConn{}
	c := testController(t, Parallel, testGeometry2x2())
	assert.NoError(t, c.Start(conn))
	assert.Error(t, c.Start(conn))
}

func TestController_ReadFailure(t *testing.T) {
	conn := &mockConn{readData: recordBytes(1, 2, 3)[:4]}

	c := testController(t, Parallel, testGeometry2x2())
	assert.NoError(t, c.Start(conn))

	_, err := c.ReadNext(conn)
	assert.Error(t, err)

	var te *TransportError
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, io.ErrUnexpectedEOF, te.Err)
	assert.Equal(t, Failed, c.State())

	// terminal state is one-way
	_, err = c.ReadNext(conn)
	assert.Error(t, err)
	assert.Error(t, c.Complete())
	assert.Equal(t, Failed, c.State())
}

func TestController_Abort(t *testing.T) {
	conn := &mockConn{}
	conn.readData = append(conn.readData, recordBytes(1, 2, 3)...)
	// two trailing in-flight records, then the acknowledge token
	conn.readData = append(conn.readData, recordBytes(4, 5, 6)...)
	conn.readData = append(conn.readData, recordBytes(7, 8, 9)...)
	conn.readData = append(conn.readData, []byte("ack")...)

	c := testController(t, Parallel, testGeometry2x2())
	assert.NoError(t, c.Start(conn))

	_, err := c.ReadNext(conn)
	assert.NoError(t, err)

	assert.NoError(t, c.Abort(conn))
	assert.Equal(t, Aborted, c.State())
	assert.Equal(t, []byte("asmass"), conn.written)
	assert.Len(t, c.Records(), 1)
}

func TestController_AbortTimeout(t *testing.T) {
	proto := Parallel
	proto.AbortAttempts = 8

	conn := &mockConn{}
	conn.readData = append(conn.readData, recordBytes(1, 2, 3)...)
	// plenty of trailing bytes, no acknowledge within the budget
	conn.readData = append(conn.readData, make([]byte, 64)...)

	c := testController(t, proto, testGeometry2x2())
	assert.NoError(t, c.Start(conn))

	_, err := c.ReadNext(conn)
	assert.NoError(t, err)

	err = c.Abort(conn)
	assert.Equal(t, ErrAbortTimeout, err)
	// budget exhaustion still counts as aborted
	assert.Equal(t, Aborted, c.State())
}

func TestController_CompleteEarly(t *testing.T) {
	conn := &mockConn{readData: recordBytes(1, 2, 3)}

	c := testController(t, Parallel, testGeometry2x2())
	assert.NoError(t, c.Start(conn))

	_, err := c.ReadNext(conn)
	assert.NoError(t, err)

	assert.Error(t, c.Complete())
	assert.Equal(t, Acquiring, c.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Idle", Idle.String())
	assert.Equal(t, "Acquiring", Acquiring.String())
	assert.Equal(t, "Failed", Failed.String())
	assert.False(t, Acquiring.Terminal())
	assert.True(t, Aborted.Terminal())
}
