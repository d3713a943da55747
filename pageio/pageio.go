// Package pageio implements the paged, checksum-protected byte stream E57
// layers the XML section and compressed-vector/blob sections on top of
// (spec §4.1). Every fixed-size page stores a payload followed by a
// trailing CRC-32C of that payload; callers address the stream through a
// logical, CRC-free byte offset and pageio hides the page boundaries.
//
// Logical-to-physical offset translation is centralized here (spec §9:
// "Implementations should centralize page-aware offset computation in one
// helper and route all writes through it") rather than re-derived at each
// call site, which is exactly where the format's two historical bugs were
// introduced: a section header landing on one page and its first packet
// on the next, and a writer forgetting to pad a final partial page.
package pageio

import (
	"io"

	"github.com/cry-inc/e57/crc"
	"github.com/cry-inc/e57/errs"
)

const crcSize = 4

// MinPageSize is the smallest page size the envelope will accept (spec §4.6).
const MinPageSize = 1024

// ReadMedium is the random-access byte source a Reader is built on.
type ReadMedium interface {
	io.ReaderAt
}

// WriteMedium is the byte sink a Writer appends full pages to.
type WriteMedium interface {
	io.WriterAt
}

// Reader presents a contiguous, CRC-validated logical byte stream over a
// medium laid out in fixed-size pages.
type Reader struct {
	medium      ReadMedium
	pageSize    int64
	payloadSize int64
}

// NewReader creates a Reader. pageSize must already be validated by the
// caller (power of two, >= MinPageSize); pageio does not re-validate it so
// that envelope.go's header validation remains the single source of truth.
func NewReader(medium ReadMedium, pageSize int64) *Reader {
	return &Reader{
		medium:      medium,
		pageSize:    pageSize,
		payloadSize: pageSize - crcSize,
	}
}

// PayloadSize returns the number of logical bytes carried per physical page.
func (r *Reader) PayloadSize() int64 {
	return r.payloadSize
}

// PhysicalOffset translates a logical, CRC-free offset into the physical
// byte offset of the same byte on the underlying medium.
func (r *Reader) PhysicalOffset(logical int64) int64 {
	page := logical / r.payloadSize
	within := logical % r.payloadSize

	return page*r.pageSize + within
}

// ReadAt fills buf starting at the given logical offset, validating the
// CRC-32C of every page it touches. It returns ChecksumMismatch{page_index}
// on the first page whose payload fails to verify.
func (r *Reader) ReadAt(logical int64, buf []byte) error {
	remaining := buf
	pos := logical

	for len(remaining) > 0 {
		pageIndex := pos / r.payloadSize
		within := pos % r.payloadSize

		payload, err := r.readPagePayload(pageIndex)
		if err != nil {
			return err
		}

		n := copy(remaining, payload[within:])
		if n == 0 {
			return errs.ErrIo
		}

		remaining = remaining[n:]
		pos += int64(n)
	}

	return nil
}

// ValidateAllPages verifies the CRC-32C of every page in [0, physicalLen),
// returning the first ChecksumMismatch encountered, or nil if every page
// verifies (spec §8 "page CRC invariant").
func (r *Reader) ValidateAllPages(physicalLen int64) error {
	pageCount := (physicalLen + r.pageSize - 1) / r.pageSize
	for i := int64(0); i < pageCount; i++ {
		if _, err := r.readPagePayload(i); err != nil {
			return err
		}
	}

	return nil
}

func (r *Reader) readPagePayload(pageIndex int64) ([]byte, error) {
	page := make([]byte, r.pageSize)
	n, err := r.medium.ReadAt(page, pageIndex*r.pageSize)
	if err != nil && !(err == io.EOF && int64(n) == r.pageSize) {
		return nil, errs.ErrIo
	}

	payload := page[:r.payloadSize]
	trailer := page[r.payloadSize:r.pageSize]
	want := uint32(trailer[0]) | uint32(trailer[1])<<8 | uint32(trailer[2])<<16 | uint32(trailer[3])<<24

	if !crc.Verify32C(payload, want) {
		return nil, &errs.ChecksumMismatch{PageIndex: pageIndex}
	}

	return payload, nil
}

// Writer appends a logical byte stream to a medium, emitting full,
// CRC-terminated pages as they fill. Writer is append-only: E57 files are
// never edited in place (spec §1 non-goals), so there is no random-access
// write path to support.
type Writer struct {
	medium      WriteMedium
	pageSize    int64
	payloadSize int64
	pageIndex   int64
	partial     []byte // buffered bytes of the page currently being filled
	logicalLen  int64
}

// NewWriter creates a Writer that will begin appending at physical offset 0
// of medium (callers wrap the medium, e.g. with envelope.BodyWriteMedium,
// to place the body after the physical header).
func NewWriter(medium WriteMedium, pageSize int64) *Writer {
	return &Writer{
		medium:      medium,
		pageSize:    pageSize,
		payloadSize: pageSize - crcSize,
		partial:     make([]byte, 0, pageSize-crcSize),
	}
}

// LogicalLen returns the number of logical bytes appended (and flushed or
// buffered) so far.
func (w *Writer) LogicalLen() int64 {
	return w.logicalLen
}

// Append writes data to the logical stream, flushing any page that fills
// up along the way, and returns the logical offset at which data begins.
func (w *Writer) Append(data []byte) (int64, error) {
	start := w.logicalLen

	for len(data) > 0 {
		space := int(w.payloadSize) - len(w.partial)
		n := len(data)
		if n > space {
			n = space
		}

		w.partial = append(w.partial, data[:n]...)
		data = data[n:]
		w.logicalLen += int64(n)

		if len(w.partial) == int(w.payloadSize) {
			if err := w.flushPage(); err != nil {
				return start, err
			}
		}
	}

	return start, nil
}

// flushPage writes out the current payload buffer (padding with zero
// bytes if it is a short final page) followed by its CRC-32C, and resets
// the buffer for the next page.
func (w *Writer) flushPage() error {
	payload := w.partial
	if len(payload) < int(w.payloadSize) {
		padded := make([]byte, w.payloadSize)
		copy(padded, payload)
		payload = padded
	}

	page := make([]byte, w.pageSize)
	copy(page, payload)

	sum := crc.Checksum32C(payload)
	trailer := page[w.payloadSize:]
	trailer[0] = byte(sum)
	trailer[1] = byte(sum >> 8)
	trailer[2] = byte(sum >> 16)
	trailer[3] = byte(sum >> 24)

	if _, err := w.medium.WriteAt(page, w.pageIndex*w.pageSize); err != nil {
		return errs.ErrIo
	}

	w.pageIndex++
	w.partial = w.partial[:0]

	return nil
}

// Flush finalizes the current partial page (if any), zero-padding it to a
// full page and writing its CRC. It must never leave a partially-written
// page invisible bytes dangling on disk: a short final page is still
// always written out whole (spec §4.1 edge case (b)). Flush may only be
// called once no further Append calls will follow.
func (w *Writer) Flush() error {
	if len(w.partial) == 0 {
		return nil
	}

	return w.flushPage()
}
