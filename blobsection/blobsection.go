// Package blobsection implements the 16-byte blob section framing used to
// store opaque payloads — JPEG/PNG/raw Image2D pixel data — inside the
// paged stream (spec §4, line 49 and §6). Layout mirrors the
// compressed-vector section header in envelope.go: a small fixed header
// followed by payload, both addressed through pageio's logical offsets.
//
// Compression here is an optional extension beyond stock E57 files: a
// caller may ask WriteCompressed to run the payload through a compress.Codec
// before it lands in the section, provided the caller also records which
// codec was used (typically as XML extension data) since nothing in the
// section header itself names it.
package blobsection

import (
	"encoding/binary"

	"github.com/cry-inc/e57/compress"
	"github.com/cry-inc/e57/errs"
	"github.com/cry-inc/e57/pageio"
)

// SectionID identifies a blob section in the section_id byte shared with
// the compressed-vector header (spec §6: 0x00 for blob, 0x01 for CV).
const SectionID = 0x00

// HeaderSize is the fixed size of a blob section header in bytes.
const HeaderSize = 16

// Header is the 16-byte blob section header: {section_id, reserved(1),
// reserved[6], length(8)}.
type Header struct {
	Length uint64
}

func encodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = SectionID
	binary.LittleEndian.PutUint64(buf[8:16], h.Length)

	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errs.ErrBlobTruncated
	}
	if buf[0] != SectionID {
		return Header{}, &errs.PrototypeInvalid{Field: "blobSection", Reason: "unexpected section_id"}
	}

	return Header{Length: binary.LittleEndian.Uint64(buf[8:16])}, nil
}

// Write appends a blob section (header + raw payload) to the logical
// stream and returns the logical offset its header begins at.
func Write(w *pageio.Writer, payload []byte) (int64, error) {
	start := w.LogicalLen()

	header := encodeHeader(Header{Length: uint64(len(payload))})
	if _, err := w.Append(header); err != nil {
		return start, err
	}
	if _, err := w.Append(payload); err != nil {
		return start, err
	}

	return start, nil
}

// WriteCompressed runs payload through codec before writing it, returning
// the section's logical offset and the compressed length actually stored.
// The caller is responsible for recording which codec was used, since the
// blob section itself carries no compression tag.
func WriteCompressed(w *pageio.Writer, payload []byte, codec compress.Codec) (offset int64, storedLength int64, err error) {
	compressed, err := codec.Compress(payload)
	if err != nil {
		return 0, 0, err
	}

	offset, err = Write(w, compressed)
	if err != nil {
		return offset, 0, err
	}

	return offset, int64(len(compressed)), nil
}

// Read reads the blob section starting at the given logical offset and
// returns its raw payload bytes.
func Read(r *pageio.Reader, offset int64) ([]byte, error) {
	headerBuf := make([]byte, HeaderSize)
	if err := r.ReadAt(offset, headerBuf); err != nil {
		return nil, err
	}

	header, err := decodeHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, header.Length)
	if err := r.ReadAt(offset+HeaderSize, payload); err != nil {
		return nil, errs.ErrBlobChecksum
	}

	return payload, nil
}

// ReadCompressed reads a blob section written with WriteCompressed and
// decompresses it with codec.
func ReadCompressed(r *pageio.Reader, offset int64, codec compress.Codec) ([]byte, error) {
	raw, err := Read(r, offset)
	if err != nil {
		return nil, err
	}

	return codec.Decompress(raw)
}

// ReadBlob streams a blob's payload to sink, validating page checksums
// along the way (spec's read_blob operation, §4 line 108).
func ReadBlob(r *pageio.Reader, offset int64, sink func([]byte) error) error {
	payload, err := Read(r, offset)
	if err != nil {
		return err
	}

	return sink(payload)
}
