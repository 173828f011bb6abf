package dlts

// Command builders for the DLTS wire protocol. Every command starts
// with a 3-byte ASCII header; set commands carry a big-endian uint16
// value behind it.

// command types
const (
	cmdSet    = 's'
	cmdGet    = 'g'
	cmdAction = 'a'
)

// command subjects
const (
	subPosition = 'p'
	subStepSize = 's'
	subDelay    = 'd'
	subLaser    = 'l'
	subScan     = 's'
)

// subject parameters
const (
	axisX    = 'x'
	axisY    = 'y'
	axisZ    = 'z'
	axisTilt = 't'

	boundLow  = 'l'
	boundHigh = 'h'

	laserIntensity      = 'i'
	laserPulseIntensity = 'p'
	laserPulseFrequency = 'f'

	delayPixel          = 'p'
	delayLine           = 'l'
	delayLatchUpOffMicr = 'u'
	delayLatchUpOffMill = 'm'

	scanPoint     = 'p'
	scanLine      = 'l'
	scanArea      = 'a'
	scanLatchUp   = 'u'
	scanMulti     = 'n'
	scanAutoFocus = 'J'
	scanStop      = 's'

	laserPulse = 'p'
)

func setUint16(subject, param byte, value uint16) []byte {
	return []byte{cmdSet, subject, param, byte(value >> 8), byte(value)}
}

func get(subject, param byte) []byte {
	return []byte{cmdGet, subject, param}
}

func action(subject, param byte) []byte {
	return []byte{cmdAction, subject, param}
}

// set commands

func SetXPosition(pos uint16) []byte { return setUint16(subPosition, axisX, pos) }
func SetYPosition(pos uint16) []byte { return setUint16(subPosition, axisY, pos) }
func SetZPosition(pos uint16) []byte { return setUint16(subPosition, axisZ, pos) }
func SetXTilt(pos uint16) []byte     { return setUint16(subPosition, axisTilt, pos) }

// SetScanBound sets one end of the scan range on the x or y axis.
func SetScanBound(axis, end byte, bound uint16) []byte {
	return setUint16(axis, end, bound)
}

func SetScanXLowBound(b uint16) []byte  { return SetScanBound(axisX, boundLow, b) }
func SetScanXHighBound(b uint16) []byte { return SetScanBound(axisX, boundHigh, b) }
func SetScanYLowBound(b uint16) []byte  { return SetScanBound(axisY, boundLow, b) }
func SetScanYHighBound(b uint16) []byte { return SetScanBound(axisY, boundHigh, b) }

func SetScanXStepSize(step uint16) []byte { return setUint16(subStepSize, axisX, step) }
func SetScanYStepSize(step uint16) []byte { return setUint16(subStepSize, axisY, step) }

// SetScanXDelay sets the per-pixel positioning delay in milliseconds.
func SetScanXDelay(ms uint16) []byte { return setUint16(subDelay, delayPixel, ms) }

// SetScanYDelay sets the per-line positioning delay in milliseconds.
func SetScanYDelay(ms uint16) []byte { return setUint16(subDelay, delayLine, ms) }

func SetLatchUpTurnOffDelayMicros(us uint16) []byte {
	return setUint16(subDelay, delayLatchUpOffMicr, us)
}
func SetLatchUpTurnOffDelayMillis(ms uint16) []byte {
	return setUint16(subDelay, delayLatchUpOffMill, ms)
}

func SetLaserIntensity(v uint16) []byte      { return setUint16(subLaser, laserIntensity, v) }
func SetLaserPulseIntensity(v uint16) []byte { return setUint16(subLaser, laserPulseIntensity, v) }
func SetLaserPulseFrequency(v uint16) []byte { return setUint16(subLaser, laserPulseFrequency, v) }

// get commands

func GetXPosition() []byte { return get(subPosition, axisX) }
func GetYPosition() []byte { return get(subPosition, axisY) }
func GetZPosition() []byte { return get(subPosition, axisZ) }
func GetXTilt() []byte     { return get(subPosition, axisTilt) }

func GetLaserIntensity() []byte { return get(subLaser, laserIntensity) }

// action commands

func ActionScanPoint() []byte     { return action(subScan, scanPoint) }
func ActionScanLine() []byte      { return action(subScan, scanLine) }
func ActionScanArea() []byte      { return action(subScan, scanArea) }
func ActionScanLatchUp() []byte   { return action(subScan, scanLatchUp) }
func ActionScanMulti() []byte     { return action(subScan, scanMulti) }
func ActionScanAutoFocus() []byte { return action(subScan, scanAutoFocus) }
func ActionScanStop() []byte      { return action(subScan, scanStop) }

func ActionLaserPulse() []byte { return action(subLaser, laserPulse) }
