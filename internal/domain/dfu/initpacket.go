package dfu

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	// InitPacketSize is the fixed length of the .dat record.
	InitPacketSize = 16

	// DatExtension is appended to the firmware stem to name the init packet file.
	DatExtension = ".dat"

	crcOffset      = 4
	reservedOffset = 8
)

// Magic opens every init packet. Flashing tools reject records without it.
//
//nolint:gochecknoglobals // Fixed wire constant, arrays cannot be const.
var Magic = [4]byte{0x33, 0x44, 0x55, 0x66}

// ErrInvalidRecord is returned when bytes do not form a valid init packet.
var ErrInvalidRecord = errors.New("invalid init packet")

// InitPacket is the 16-byte metadata record shipped next to the firmware binary:
// magic, CRC-32 of the binary in little-endian order, eight reserved zero bytes.
type InitPacket struct {
	// CRC is the CRC-32 of the firmware binary.
	CRC uint32
}

// NewInitPacket builds the record for a firmware image with the given checksum.
func NewInitPacket(crc uint32) InitPacket {
	return InitPacket{CRC: crc}
}

// Bytes returns the 16-byte wire form.
func (p InitPacket) Bytes() []byte {
	out := make([]byte, InitPacketSize)
	copy(out, Magic[:])
	binary.LittleEndian.PutUint32(out[crcOffset:reservedOffset], p.CRC)

	return out
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p InitPacket) MarshalBinary() ([]byte, error) {
	return p.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *InitPacket) UnmarshalBinary(data []byte) error {
	parsed, err := ParseInitPacket(data)
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}

// ParseInitPacket decodes a record produced by Bytes. Reserved bytes are ignored.
func ParseInitPacket(data []byte) (InitPacket, error) {
	if len(data) != InitPacketSize {
		return InitPacket{}, fmt.Errorf("%w: length %d, want %d", ErrInvalidRecord, len(data), InitPacketSize)
	}

	if !bytes.Equal(data[:crcOffset], Magic[:]) {
		return InitPacket{}, fmt.Errorf("%w: magic % x", ErrInvalidRecord, data[:crcOffset])
	}

	return InitPacket{CRC: binary.LittleEndian.Uint32(data[crcOffset:reservedOffset])}, nil
}

// String renders the record as a list of hex bytes, e.g. "0x33, 0x44, ...".
func (p InitPacket) String() string {
	raw := p.Bytes()
	parts := make([]string, len(raw))

	for i, b := range raw {
		parts[i] = fmt.Sprintf("%#x", b)
	}

	return strings.Join(parts, ", ")
}
