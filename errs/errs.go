// Package errs defines the flat sentinel error taxonomy shared by every
// e57 package. Callers compare against the sentinels with errors.Is and,
// where a sentinel has a structured variant below, extract fields with
// errors.As.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHeader is returned when the physical header's signature,
	// version, or offsets are inconsistent with the file length.
	ErrInvalidHeader = errors.New("e57: invalid physical header")

	// ErrChecksumMismatch is returned when a page's trailing CRC-32C does
	// not match its payload. See ChecksumMismatch for the page index.
	ErrChecksumMismatch = errors.New("e57: page checksum mismatch")

	// ErrXmlMalformed is returned when the XML section is not well-formed.
	ErrXmlMalformed = errors.New("e57: malformed xml section")

	// ErrXmlSchemaViolation is returned when the XML section is well-formed
	// but violates the required e57Root structure. See XmlSchemaViolation
	// for the offending element.
	ErrXmlSchemaViolation = errors.New("e57: xml schema violation")

	// ErrPrototypeInvalid is returned when a field descriptor's min/max/
	// scale/offset combination cannot be resolved to a valid encoding.
	// See PrototypeInvalid for the offending field and reason.
	ErrPrototypeInvalid = errors.New("e57: invalid prototype field")

	// ErrTruncatedPacket is returned when a compressed-vector packet ends
	// before its declared length, or a bytestream's bit accumulator is not
	// bit-aligned to zero at end-of-stream.
	ErrTruncatedPacket = errors.New("e57: truncated packet")

	// ErrUnknownPacketType is returned for a packet type byte outside
	// {0x00, 0x01, 0x02}. See UnknownPacketType for the offending value.
	ErrUnknownPacketType = errors.New("e57: unknown packet type")

	// ErrDomainOverflow is returned when a decoded raw integer exceeds its
	// field's declared [0, max-min] range. See DomainOverflow for the field.
	ErrDomainOverflow = errors.New("e57: decoded value exceeds field domain")

	// ErrOutOfRange is returned by a strict-mode encoder when the caller
	// supplies a value outside a field's declared [min, max] range. See
	// OutOfRange for the field.
	ErrOutOfRange = errors.New("e57: value out of field range")

	// ErrBlobTruncated is returned when a blob section's declared length
	// exceeds the bytes actually available.
	ErrBlobTruncated = errors.New("e57: truncated blob section")

	// ErrBlobChecksum is returned when a blob read through the paged
	// stream fails page-level CRC validation partway through.
	ErrBlobChecksum = errors.New("e57: blob checksum failure")

	// ErrIo wraps a failure from the underlying byte medium (short read,
	// short write, seek past end, closed handle).
	ErrIo = errors.New("e57: i/o failure")
)

// ChecksumMismatch reports the logical page index whose trailing CRC-32C
// did not match its payload.
type ChecksumMismatch struct {
	PageIndex int64
}

func (e *ChecksumMismatch) Error() string {
	return fmt.Sprintf("e57: checksum mismatch on page %d", e.PageIndex)
}

func (e *ChecksumMismatch) Unwrap() error { return ErrChecksumMismatch }

// XmlSchemaViolation reports the element name that violated the required
// e57Root structure (a missing required child, or a child in the wrong
// position).
type XmlSchemaViolation struct {
	Element string
}

func (e *XmlSchemaViolation) Error() string {
	return fmt.Sprintf("e57: xml schema violation at element %q", e.Element)
}

func (e *XmlSchemaViolation) Unwrap() error { return ErrXmlSchemaViolation }

// PrototypeInvalid reports the field name and a human-readable reason a
// field descriptor could not be resolved.
type PrototypeInvalid struct {
	Field  string
	Reason string
}

func (e *PrototypeInvalid) Error() string {
	return fmt.Sprintf("e57: invalid prototype field %q: %s", e.Field, e.Reason)
}

func (e *PrototypeInvalid) Unwrap() error { return ErrPrototypeInvalid }

// UnknownPacketType reports the packet type byte that was not recognized.
type UnknownPacketType struct {
	Type byte
}

func (e *UnknownPacketType) Error() string {
	return fmt.Sprintf("e57: unknown packet type 0x%02x", e.Type)
}

func (e *UnknownPacketType) Unwrap() error { return ErrUnknownPacketType }

// DomainOverflow reports the field name whose decoded raw value exceeded
// its declared domain.
type DomainOverflow struct {
	Field string
}

func (e *DomainOverflow) Error() string {
	return fmt.Sprintf("e57: domain overflow decoding field %q", e.Field)
}

func (e *DomainOverflow) Unwrap() error { return ErrDomainOverflow }

// OutOfRange reports the field name an encoder was given a value outside
// the declared [min, max] range for, in strict mode.
type OutOfRange struct {
	Field string
}

func (e *OutOfRange) Error() string {
	return fmt.Sprintf("e57: value out of range for field %q", e.Field)
}

func (e *OutOfRange) Unwrap() error { return ErrOutOfRange }
