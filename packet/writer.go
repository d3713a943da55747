package packet

import (
	"github.com/cry-inc/e57/bitio"
	"github.com/cry-inc/e57/codec"
	"github.com/cry-inc/e57/internal/pool"
	"github.com/cry-inc/e57/pageio"
)

// flushThreshold is how close to MaxPacketPayload the writer lets an
// estimated packet grow before flushing, leaving headroom for one more
// record so a single WriteRecord call never needs to split a field's bits
// across two packets.
const flushThreshold = MaxPacketPayload - 256

// Writer encodes records into a sequence of data packets terminated by an
// end-of-stream packet (spec §4.3 writer protocol). It buffers one bit
// accumulator per field and flushes a data packet once the estimated
// payload approaches the per-packet limit.
type Writer struct {
	dst        *pageio.Writer
	fields     []*codec.Field
	bits       []*bitio.Writer
	strict     bool
	pointCount int64
}

// NewWriter creates a Writer appending data packets to dst. strict
// controls whether Encode rejects out-of-domain values (true) or clamps
// them (false).
func NewWriter(dst *pageio.Writer, fields []*codec.Field, strict bool) *Writer {
	bits := make([]*bitio.Writer, len(fields))
	for i := range bits {
		bits[i] = bitio.NewWriter()
	}

	return &Writer{dst: dst, fields: fields, bits: bits, strict: strict}
}

// WriteRecord encodes one record's values, one per field, flushing a data
// packet first if the previous records have filled the current one close
// to its limit.
func (w *Writer) WriteRecord(values []codec.Value) error {
	for i, f := range w.fields {
		if err := f.Encode(w.bits[i], values[i], w.strict); err != nil {
			return err
		}
	}

	w.pointCount++

	if w.estimatedPacketLen() >= flushThreshold {
		return w.flushDataPacket()
	}

	return nil
}

func (w *Writer) estimatedPacketLen() int {
	total := commonPrefixSize + dataHeaderSize + 2*len(w.fields)
	for _, b := range w.bits {
		total += (b.BitLen() + 7) / 8
	}

	return alignTo4(total)
}

func (w *Writer) hasPendingBits() bool {
	for _, b := range w.bits {
		if b.BitLen() > 0 {
			return true
		}
	}

	return false
}

// flushDataPacket copies each field's pending bit accumulator into a
// pooled buffer (rather than a fresh allocation per field per flush,
// since a large point cloud flushes many times) before handing the
// copies to EncodeData.
func (w *Writer) flushDataPacket() error {
	buffers := make([]*pool.ByteBuffer, len(w.bits))
	streams := make([][]byte, len(w.bits))

	for i, b := range w.bits {
		b.Flush()

		buf := pool.GetPacketBuffer()
		buf.Write(b.Bytes())
		buffers[i] = buf
		streams[i] = buf.Bytes()

		b.Reset()
	}

	pkt, err := EncodeData(streams)

	for _, buf := range buffers {
		pool.PutPacketBuffer(buf)
	}

	if err != nil {
		return err
	}

	_, err = w.dst.Append(pkt)

	return err
}

// Finish flushes any remaining bits (padded, per spec §4.3) and writes
// the end-of-stream packet. It returns the number of records written.
// The writer must not be used afterward.
func (w *Writer) Finish() (int64, error) {
	if w.hasPendingBits() {
		if err := w.flushDataPacket(); err != nil {
			return 0, err
		}
	}

	if _, err := w.dst.Append(EncodeEndOfStream()); err != nil {
		return 0, err
	}

	for _, b := range w.bits {
		b.Release()
	}

	return w.pointCount, nil
}
