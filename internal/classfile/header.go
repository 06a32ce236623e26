// Package classfile decodes the fixed 8-byte header of a compiled class file.
//
// Layout, big-endian:
//
//	offset 0  u4  magic          0xCAFEBABE
//	offset 4  u2  minor_version
//	offset 6  u2  major_version
package classfile

import (
	"errors"
	"fmt"
)

const (
	// Magic is the signature every class file starts with.
	Magic uint32 = 0xCAFEBABE

	// HeaderSize is the number of leading bytes Parse consumes.
	HeaderSize = 8
)

// ErrInvalidMagicNumber matches any *InvalidMagicNumberError via errors.Is.
var ErrInvalidMagicNumber = errors.New("invalid magic number")

// InvalidMagicNumberError is returned when the first four bytes are not Magic.
type InvalidMagicNumberError struct {
	Found uint32
}

func (e *InvalidMagicNumberError) Error() string {
	return fmt.Sprintf("magic number does not match 0x%X: found 0x%X", Magic, e.Found)
}

func (e *InvalidMagicNumberError) Is(target error) bool {
	return target == ErrInvalidMagicNumber
}

// Header is a validated class file header. The zero value is not a valid
// header; obtain one through Parse.
type Header struct {
	magic    uint32
	minor    uint16
	major    MajorVersion
	rawMajor uint16
}

// Parse decodes b. It fails only when the magic number is wrong; unknown
// major versions and any minor version are accepted.
func Parse(b [HeaderSize]byte) (Header, error) {
	magic := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	if magic != Magic {
		return Header{}, &InvalidMagicNumberError{Found: magic}
	}

	minor := uint16(b[4])<<8 | uint16(b[5])
	major := uint16(b[6])<<8 | uint16(b[7])

	return Header{
		magic:    magic,
		minor:    minor,
		major:    ResolveMajorVersion(major),
		rawMajor: major,
	}, nil
}

// Magic returns the magic number, always 0xCAFEBABE for a parsed header.
func (h Header) Magic() uint32 { return h.magic }

// Minor returns the raw minor_version field.
func (h Header) Minor() uint16 { return h.minor }

// Major returns the resolved release.
func (h Header) Major() MajorVersion { return h.major }

// RawMajor returns the major_version field as read, before resolution.
// Unlike Major().Raw() it keeps distinct values that all resolve to Unknown.
func (h Header) RawMajor() uint16 { return h.rawMajor }

// String renders the header one field per line.
func (h Header) String() string {
	return fmt.Sprintf("Magic Number: 0x%X\nMajor Version: %s\nMinor Version: %d",
		h.magic, h.major, h.minor)
}
