package dlts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetCommands(t *testing.T) {
	assert.Equal(t, []byte{'s', 'p', 'x', 0x00, 0x2a}, SetXPosition(42))
	assert.Equal(t, []byte{'s', 'p', 'y', 0xff, 0xff}, SetYPosition(0xffff))
	assert.Equal(t, []byte{'s', 'p', 'z', 0x01, 0x00}, SetZPosition(256))
	assert.Equal(t, []byte{'s', 'p', 't', 0x00, 0x07}, SetXTilt(7))

	assert.Equal(t, []byte{'s', 'x', 'l', 0x00, 0x01}, SetScanXLowBound(1))
	assert.Equal(t, []byte{'s', 'x', 'h', 0x00, 0x02}, SetScanXHighBound(2))
	assert.Equal(t, []byte{'s', 'y', 'l', 0x00, 0x03}, SetScanYLowBound(3))
	assert.Equal(t, []byte{'s', 'y', 'h', 0x00, 0x04}, SetScanYHighBound(4))

	assert.Equal(t, []byte{'s', 's', 'x', 0x00, 0x05}, SetScanXStepSize(5))
	assert.Equal(t, []byte{'s', 's', 'y', 0x00, 0x06}, SetScanYStepSize(6))

	assert.Equal(t, []byte{'s', 'd', 'p', 0x00, 0x07}, SetScanXDelay(7))
	assert.Equal(t, []byte{'s', 'd', 'l', 0x00, 0x08}, SetScanYDelay(8))
	assert.Equal(t, []byte{'s', 'd', 'm', 0x00, 0x09}, SetLatchUpTurnOffDelayMillis(9))

	assert.Equal(t, []byte{'s', 'l', 'i', 0x03, 0xe8}, SetLaserIntensity(1000))
}

func TestGetCommands(t *testing.T) {
	assert.Equal(t, []byte("gpx"), GetXPosition())
	assert.Equal(t, []byte("gpy"), GetYPosition())
	assert.Equal(t, []byte("gpz"), GetZPosition())
	assert.Equal(t, []byte("gpt"), GetXTilt())
	assert.Equal(t, []byte("gli"), GetLaserIntensity())
}

func TestActionCommands(t *testing.T) {
	assert.Equal(t, []byte("asa"), ActionScanArea())
	assert.Equal(t, []byte("asu"), ActionScanLatchUp())
	assert.Equal(t, []byte("asn"), ActionScanMulti())
	assert.Equal(t, []byte("asJ"), ActionScanAutoFocus())
	assert.Equal(t, []byte("ass"), ActionScanStop())
	assert.Equal(t, []byte("alp"), ActionLaserPulse())
}
