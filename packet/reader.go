package packet

import (
	"github.com/cry-inc/e57/bitio"
	"github.com/cry-inc/e57/codec"
	"github.com/cry-inc/e57/errs"
	"github.com/cry-inc/e57/pageio"
)

// Reader decodes records from a compressed-vector section: it sequences
// through data packets, feeding each one's bytestreams into a per-field
// bit accumulator, and yields complete records once every field has
// enough buffered bits to decode one (spec §4.3).
type Reader struct {
	src    *pageio.Reader
	pos    int64
	fields []*codec.Field
	accum  []*bitio.Reader
	done   bool
}

// NewReader creates a Reader that will read data packets starting at the
// logical offset start, decoding one value per field in fields for every
// record.
func NewReader(src *pageio.Reader, start int64, fields []*codec.Field) *Reader {
	accum := make([]*bitio.Reader, len(fields))
	for i := range accum {
		accum[i] = bitio.NewReader(nil)
	}

	return &Reader{src: src, pos: start, fields: fields, accum: accum}
}

// Next decodes the next record into values, which must have length
// len(fields). It returns false, nil at a clean end-of-stream. A non-nil
// error always means the section is malformed.
func (r *Reader) Next(values []codec.Value) (bool, error) {
	if len(values) != len(r.fields) {
		return false, &errs.PrototypeInvalid{Field: "", Reason: "value slice length does not match field count"}
	}

	if err := r.fill(); err != nil {
		return false, err
	}

	if !r.hasFullRecord() {
		return false, r.checkDrained()
	}

	for i, f := range r.fields {
		v, err := f.Decode(r.accum[i])
		if err != nil {
			return false, err
		}

		values[i] = v
	}

	for _, acc := range r.accum {
		acc.Compact()
	}

	return true, nil
}

// fill reads packets until either a full record is buffered for every
// field or the end-of-stream packet has been consumed.
func (r *Reader) fill() error {
	for !r.done && !r.hasFullRecord() {
		if err := r.consumeOnePacket(); err != nil {
			return err
		}
	}

	return nil
}

func (r *Reader) hasFullRecord() bool {
	for i, f := range r.fields {
		if r.accum[i].BitsRemaining() < f.BitWidth() {
			return false
		}
	}

	return true
}

func (r *Reader) consumeOnePacket() error {
	prefix := make([]byte, commonPrefixSize)
	if err := r.src.ReadAt(r.pos, prefix); err != nil {
		return err
	}

	packetType, totalLen, err := PeekHeader(prefix)
	if err != nil {
		return err
	}

	switch packetType {
	case TypeEndOfStream:
		r.pos += int64(totalLen)
		r.done = true

		return nil

	case TypeIndex:
		r.pos += int64(totalLen) // advisory, skipped per spec §4.3

		return nil

	case TypeData:
		full := make([]byte, totalLen)
		if err := r.src.ReadAt(r.pos, full); err != nil {
			return err
		}

		dp, err := ParseData(full)
		if err != nil {
			return err
		}
		if len(dp.BytestreamLengths) != len(r.fields) {
			return errs.ErrTruncatedPacket
		}

		offset := 0
		for i, l := range dp.BytestreamLengths {
			// Every data packet's bytestream for a field begins a fresh
			// byte-aligned run, mirroring the writer's per-flush
			// Flush+Reset of its bit accumulator (packet/writer.go). Any
			// bits still unread at this point are the zero padding that
			// flush inserted, not real data, so they must be dropped
			// rather than merged with the next packet's bytes.
			r.accum[i].AlignToByte()
			r.accum[i].Extend(dp.Payload[offset : offset+l])
			offset += l
		}

		r.pos += int64(totalLen)

		return nil

	default:
		return &errs.UnknownPacketType{Type: packetType}
	}
}

// checkDrained is called once the end-of-stream packet has been consumed
// and no further full record is available. Per spec §4.3 every
// accumulator must be drained at that point: the only unread bits allowed
// are the zero padding of its final partial byte (fewer than 8 bits).
func (r *Reader) checkDrained() error {
	for _, acc := range r.accum {
		remaining := acc.BitsRemaining()
		if remaining == 0 {
			continue
		}
		if remaining >= 8 || !acc.TrailingBitsZero() {
			return errs.ErrTruncatedPacket
		}
	}

	return nil
}
