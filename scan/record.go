package scan

import (
	"encoding/binary"
	"fmt"
)

// RecordByteCount is the wire size of the 6-byte record streamed by
// the parallel and current scan modalities. The latch-up and
// reflection modalities stream narrower records; see the Protocol
// variants for their sizes.
const RecordByteCount = 6

// MalformedRecordError is returned when a buffer of the wrong length
// is decoded. It indicates a protocol violation, not a transient
// condition, and is never retried.
type MalformedRecordError struct {
	Length int
	Want   int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("scan: record must be %d bytes, got %d", e.Want, e.Length)
}

// Record is a single sample as read from the device. Its width is
// fixed per scan modality (Protocol.RecordSize); multi-byte fields are
// big-endian. The protocol documentation describes the fields as full
// width even though current firmware only ever populates the low byte
// of each.
type Record []byte

// DecodeRecord validates and copies a raw buffer into a Record of the
// given wire size.
func DecodeRecord(buf []byte, size int) (Record, error) {
	if len(buf) != size {
		return nil, &MalformedRecordError{Length: len(buf), Want: size}
	}
	r := make(Record, size)
	copy(r, buf)
	return r, nil
}

// The three fields of a 6-byte parallel record.

// ReflectionValue returns the reflected laser intensity at the
// sampled position.
func (r Record) ReflectionValue() uint16 { return ChannelReflection.Extract(r) }

// LatchUpCurrent returns the latch-up current at the sampled position.
func (r Record) LatchUpCurrent() uint16 { return ChannelLatchUpCurrent.Extract(r) }

// LatchUpVoltage returns the latch-up voltage at the sampled position.
func (r Record) LatchUpVoltage() uint16 { return ChannelLatchUpVoltage.Extract(r) }

// Channel identifies one physical quantity at a fixed position within
// a Record. Which channels a record actually carries depends on the
// scan modality that produced it.
type Channel int

const (
	ChannelLatchUpCurrent Channel = iota
	ChannelReflection
	ChannelLatchUpVoltage

	// ChannelBaseCurrent replaces the voltage field in current-scan
	// records.
	ChannelBaseCurrent

	// ChannelLatchUpEvents is the single field of a 2-byte latch-up
	// record.
	ChannelLatchUpEvents

	// ChannelLaserReflection is the single byte of a reflection
	// (laser microscope) record.
	ChannelLaserReflection
)

// channelFields maps each channel to its byte position within a Record.
var channelFields = [...]struct {
	name   string
	offset int
	width  int
}{
	ChannelLatchUpCurrent:  {"Latch-Up Current Image", 2, 2},
	ChannelReflection:      {"Reflection Scan Image", 0, 2},
	ChannelLatchUpVoltage:  {"Voltage Scan Image", 4, 2},
	ChannelBaseCurrent:     {"Base Current Image", 4, 2},
	ChannelLatchUpEvents:   {"Single Event Latch-Ups", 0, 2},
	ChannelLaserReflection: {"Laser Scanning Microscope", 0, 1},
}

// Name returns the display name of the channel's image.
func (c Channel) Name() string {
	if c < 0 || int(c) >= len(channelFields) {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelFields[c].name
}

// Extract projects a record to the channel's scalar value. The record
// must come from a modality that carries the channel.
func (c Channel) Extract(r Record) uint16 {
	f := channelFields[c]
	if f.width == 1 {
		return uint16(r[f.offset])
	}
	return binary.BigEndian.Uint16(r[f.offset : f.offset+2])
}
