// Package envelope implements the 48-byte physical header that anchors
// every E57 file (spec §4.6): signature, version, file length, the XML
// section's byte range, and the page size every other section is laid out
// under. It provides the header encoding the writer facade uses for its
// "write placeholder header, stream the body, patch the header last"
// sequence (the sequencing itself lives in writer.Create and
// writer.Writer.Close), and the header validation the reader facade
// depends on before it trusts anything else in the file.
//
// envelope also writes and parses the compressed-vector section header
// (32 bytes, spec §6) since that header brackets exactly one
// packet.Writer/packet.Reader pair the same way the physical header
// brackets the whole file.
package envelope

import (
	"encoding/binary"

	"github.com/cry-inc/e57/errs"
	"github.com/cry-inc/e57/pageio"
)

// Signature is the fixed 8-byte ASCII magic every E57 file begins with.
const Signature = "ASTM-E57"

// HeaderSize is the size of the physical header in bytes.
const HeaderSize = 48

// Header is the physical file header (spec §4.6).
type Header struct {
	VersionMajor uint32
	VersionMinor uint32
	FileLength   uint64
	XMLOffset    uint64
	XMLLength    uint64
	PageSize     uint64
}

// Encode serializes h into a 48-byte buffer, little-endian throughout.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:8], Signature)
	binary.LittleEndian.PutUint32(buf[8:12], h.VersionMajor)
	binary.LittleEndian.PutUint32(buf[12:16], h.VersionMinor)
	binary.LittleEndian.PutUint64(buf[16:24], h.FileLength)
	binary.LittleEndian.PutUint64(buf[24:32], h.XMLOffset)
	binary.LittleEndian.PutUint64(buf[32:40], h.XMLLength)
	binary.LittleEndian.PutUint64(buf[40:48], h.PageSize)

	return buf
}

// Decode parses a 48-byte buffer into a Header and validates it: signature,
// page size a power of two no smaller than pageio.MinPageSize, and
// xml_offset+xml_length within file_length.
func Decode(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errs.ErrInvalidHeader
	}
	if string(buf[0:8]) != Signature {
		return Header{}, errs.ErrInvalidHeader
	}

	h := Header{
		VersionMajor: binary.LittleEndian.Uint32(buf[8:12]),
		VersionMinor: binary.LittleEndian.Uint32(buf[12:16]),
		FileLength:   binary.LittleEndian.Uint64(buf[16:24]),
		XMLOffset:    binary.LittleEndian.Uint64(buf[24:32]),
		XMLLength:    binary.LittleEndian.Uint64(buf[32:40]),
		PageSize:     binary.LittleEndian.Uint64(buf[40:48]),
	}

	if err := h.Validate(); err != nil {
		return Header{}, err
	}

	return h, nil
}

// Validate checks the header invariants from spec §4.6.
func (h Header) Validate() error {
	if h.PageSize < pageio.MinPageSize || h.PageSize&(h.PageSize-1) != 0 {
		return errs.ErrInvalidHeader
	}
	if h.XMLOffset+h.XMLLength > h.FileLength {
		return errs.ErrInvalidHeader
	}

	return nil
}

// CVSectionID is the section_id byte for a compressed-vector section
// header (spec §6; 0x00 is reserved for blob sections, see blobsection).
const CVSectionID = 0x01

// CVHeaderSize is the size of the compressed-vector section header.
const CVHeaderSize = 32

// CVHeader is the 32-byte compressed-vector section header.
type CVHeader struct {
	SectionLength     uint64
	DataPacketOffset  uint64
	IndexPacketOffset uint64
}

// Encode serializes h into a 32-byte buffer.
func (h CVHeader) Encode() []byte {
	buf := make([]byte, CVHeaderSize)
	buf[0] = CVSectionID
	binary.LittleEndian.PutUint64(buf[8:16], h.SectionLength)
	binary.LittleEndian.PutUint64(buf[16:24], h.DataPacketOffset)
	binary.LittleEndian.PutUint64(buf[24:32], h.IndexPacketOffset)

	return buf
}

// DecodeCVHeader parses a 32-byte compressed-vector section header.
func DecodeCVHeader(buf []byte) (CVHeader, error) {
	if len(buf) < CVHeaderSize {
		return CVHeader{}, errs.ErrInvalidHeader
	}
	if buf[0] != CVSectionID {
		return CVHeader{}, &errs.PrototypeInvalid{Field: "cvSection", Reason: "unexpected section_id"}
	}

	return CVHeader{
		SectionLength:     binary.LittleEndian.Uint64(buf[8:16]),
		DataPacketOffset:  binary.LittleEndian.Uint64(buf[16:24]),
		IndexPacketOffset: binary.LittleEndian.Uint64(buf[24:32]),
	}, nil
}

// WriteCVHeader appends a compressed-vector section header to w and
// returns the logical offset it begins at (the section's fileOffset, as
// recorded in the XML <points> element).
func WriteCVHeader(w *pageio.Writer, h CVHeader) (int64, error) {
	return w.Append(h.Encode())
}

// ReadCVHeader reads a compressed-vector section header at the given
// logical offset.
func ReadCVHeader(r *pageio.Reader, offset int64) (CVHeader, error) {
	buf := make([]byte, CVHeaderSize)
	if err := r.ReadAt(offset, buf); err != nil {
		return CVHeader{}, err
	}

	return DecodeCVHeader(buf)
}

// offsetReadMedium shifts every ReadAt by a fixed physical byte offset.
type offsetReadMedium struct {
	inner  pageio.ReadMedium
	offset int64
}

func (m *offsetReadMedium) ReadAt(p []byte, off int64) (int, error) {
	return m.inner.ReadAt(p, off+m.offset)
}

// offsetWriteMedium shifts every WriteAt by a fixed physical byte offset.
type offsetWriteMedium struct {
	inner  pageio.WriteMedium
	offset int64
}

func (m *offsetWriteMedium) WriteAt(p []byte, off int64) (int, error) {
	return m.inner.WriteAt(p, off+m.offset)
}

// BodyReadMedium wraps medium so that logical offset 0 begins right after
// the physical header, letting the paged stream be built without any
// special-casing for the header's HeaderSize bytes at the front of the
// file.
func BodyReadMedium(medium pageio.ReadMedium) pageio.ReadMedium {
	return &offsetReadMedium{inner: medium, offset: HeaderSize}
}

// BodyWriteMedium is BodyReadMedium's write-side counterpart.
func BodyWriteMedium(medium pageio.WriteMedium) pageio.WriteMedium {
	return &offsetWriteMedium{inner: medium, offset: HeaderSize}
}
