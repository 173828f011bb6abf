package scan

import (
	"io"
)

// mockConn scripts a device for controller and scan tests: a byte
// stream for the acquisition side and canned answers for the
// acknowledged command layer.
type mockConn struct {
	readData []byte
	written  []byte

	writeErr error
	readErr  error

	// command layer
	getValues map[string]uint16
	setCmds   []string
	cmdErr    error
}

func (m *mockConn) Write(p []byte) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.written = append(m.written, p...)
	return len(p), nil
}

func (m *mockConn) ReadFull(n int) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	if len(m.readData) < n {
		return nil, io.ErrUnexpectedEOF
	}
	buf := m.readData[:n]
	m.readData = m.readData[n:]
	return buf, nil
}

func (m *mockConn) SkipUntil(token []byte, maxAttempts int) (bool, error) {
	var window []byte
	for i := 0; i < maxAttempts; i++ {
		if len(m.readData) == 0 {
			return false, io.ErrUnexpectedEOF
		}
		window = append(window, m.readData[0])
		m.readData = m.readData[1:]
		if len(window) > len(token) {
			window = window[1:]
		}
		if string(window) == string(token) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockConn) Command(cmd []byte, wantHeader string, dataSize int) ([]byte, error) {
	if m.cmdErr != nil {
		return nil, m.cmdErr
	}
	m.setCmds = append(m.setCmds, string(cmd))
	return make([]byte, dataSize), nil
}

func (m *mockConn) CommandSet(cmd []byte) error {
	if m.cmdErr != nil {
		return m.cmdErr
	}
	m.setCmds = append(m.setCmds, string(cmd))
	return nil
}

func (m *mockConn) CommandGetUint16(cmd []byte) (uint16, error) {
	if m.cmdErr != nil {
		return 0, m.cmdErr
	}
	return m.getValues[string(cmd)], nil
}

// recordBytes builds a raw wire record from its three field values.
func recordBytes(reflection, current, voltage uint16) []byte {
	return []byte{
		byte(reflection >> 8), byte(reflection),
		byte(current >> 8), byte(current),
		byte(voltage >> 8), byte(voltage),
	}
}
