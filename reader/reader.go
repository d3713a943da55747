// Package reader implements the Reader facade (spec §4.7): open a file,
// validate its header, parse its XML section, and hand back point-cloud
// and image handles plus iterator factories. It is the one place that
// wires envelope, e57xml, prototype, codec, packet, and pageio together
// for reading, mirroring how the teacher's top-level package composes its
// section/blob/encoding packages behind a small public surface.
package reader

import (
	"os"

	"github.com/cry-inc/e57/codec"
	"github.com/cry-inc/e57/e57xml"
	"github.com/cry-inc/e57/envelope"
	"github.com/cry-inc/e57/errs"
	"github.com/cry-inc/e57/internal/options"
	"github.com/cry-inc/e57/packet"
	"github.com/cry-inc/e57/pageio"
)

type config struct {
	strictPointCount bool
}

// Option configures a Reader at Open time.
type Option = options.Option[*config]

// WithStrictPointCount makes every RawIterator/SimpleIterator return
// ErrTruncatedPacket if a point cloud's compressed-vector section yields
// fewer records than its XML-declared recordCount, instead of silently
// stopping at whatever the section actually contains.
func WithStrictPointCount() Option {
	return options.NoError(func(c *config) { c.strictPointCount = true })
}

// Reader is an open handle on an E57 file. It owns the medium's header and
// parsed XML for its lifetime; iterators it returns borrow from it and
// become invalid once the Reader is discarded (spec §5 ownership rules).
type Reader struct {
	medium pageio.ReadMedium
	header envelope.Header
	xml    []byte
	doc    *e57xml.Document
	pages  *pageio.Reader
	cfg    config

	file *os.File // non-nil only when opened via OpenFile
}

// Open validates the physical header, then parses the XML section it
// points at.
func Open(medium pageio.ReadMedium, opts ...Option) (*Reader, error) {
	var cfg config
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	headerBuf := make([]byte, envelope.HeaderSize)
	if _, err := medium.ReadAt(headerBuf, 0); err != nil {
		return nil, errs.ErrIo
	}

	header, err := envelope.Decode(headerBuf)
	if err != nil {
		return nil, err
	}

	pages := pageio.NewReader(envelope.BodyReadMedium(medium), int64(header.PageSize))

	xmlBuf := make([]byte, header.XMLLength)
	if err := pages.ReadAt(int64(header.XMLOffset), xmlBuf); err != nil {
		return nil, err
	}

	doc, err := e57xml.Parse(xmlBuf)
	if err != nil {
		return nil, err
	}

	return &Reader{medium: medium, header: header, xml: xmlBuf, doc: doc, pages: pages, cfg: cfg}, nil
}

// OpenFile opens the file at path and parses it as an E57 file. The
// returned Reader owns the file handle; callers must call Close.
func OpenFile(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.ErrIo
	}

	r, err := Open(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}

	r.file = f

	return r, nil
}

// Close releases the underlying file, if this Reader was opened via
// OpenFile. It is a no-op otherwise.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}

	if err := r.file.Close(); err != nil {
		return errs.ErrIo
	}

	return nil
}

// PointClouds returns every Data3D record declared in the file's XML.
func (r *Reader) PointClouds() []e57xml.Data3D {
	return r.doc.Data3D
}

// Images returns every Image2D record declared in the file's XML.
func (r *Reader) Images() []e57xml.Image2D {
	return r.doc.Images2D
}

// ExtractXML returns the raw bytes of the file's XML section.
func (r *Reader) ExtractXML() []byte {
	return r.xml
}

// Header returns the file's physical header.
func (r *Reader) Header() envelope.Header {
	return r.header
}

// ValidatePages verifies the CRC-32C of every page in the file's body,
// returning the first ChecksumMismatch encountered (spec §8 "page CRC
// invariant").
func (r *Reader) ValidatePages() error {
	bodyLen := int64(r.header.FileLength) - envelope.HeaderSize
	return r.pages.ValidateAllPages(bodyLen)
}

// ReadBlob streams length bytes starting at offset (both file-relative,
// logical offsets as recorded in an Image2D blob reference) to sink,
// validating page checksums along the way.
func (r *Reader) ReadBlob(offset, length int64, sink func([]byte) error) error {
	buf := make([]byte, length)
	if err := r.pages.ReadAt(offset, buf); err != nil {
		return err
	}

	return sink(buf)
}

// RawRecord is a mapping from prototype field name to its decoded value
// (spec §4.7).
type RawRecord map[string]codec.Value

// RawIterator yields RawRecords for one point cloud's compressed-vector
// section, in prototype field order.
type RawIterator struct {
	fieldNames    []string
	pkt           *packet.Reader
	declaredCount uint64
	strict        bool
	seen          uint64
}

// IterRaw returns a RawIterator over pc's compressed-vector section. The
// prototype is built from pc's XML-declared field list.
func (r *Reader) IterRaw(pc e57xml.Data3D) (*RawIterator, error) {
	proto, err := pc.Points.Prototype.ToPrototype()
	if err != nil {
		return nil, err
	}

	fields := make([]*codec.Field, len(proto.Fields))
	names := make([]string, len(proto.Fields))
	for i, f := range proto.Fields {
		cf, err := codec.New(f)
		if err != nil {
			return nil, err
		}

		fields[i] = cf
		names[i] = f.Name
	}

	cvHeader, err := envelope.ReadCVHeader(r.pages, int64(pc.Points.FileOffset))
	if err != nil {
		return nil, err
	}

	pkt := packet.NewReader(r.pages, int64(cvHeader.DataPacketOffset), fields)

	return &RawIterator{
		fieldNames:    names,
		pkt:           pkt,
		declaredCount: pc.Points.RecordCount,
		strict:        r.cfg.strictPointCount,
	}, nil
}

// Next decodes the next record, returning (nil, false, nil) at a clean
// end-of-stream. In strict-point-count mode (reader.WithStrictPointCount),
// an end-of-stream that yielded fewer records than the point cloud's
// declared recordCount returns ErrTruncatedPacket instead.
func (it *RawIterator) Next() (RawRecord, bool, error) {
	values := make([]codec.Value, len(it.fieldNames))

	ok, err := it.pkt.Next(values)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		if it.strict && it.seen < it.declaredCount {
			return nil, false, errs.ErrTruncatedPacket
		}

		return nil, false, nil
	}

	it.seen++

	rec := make(RawRecord, len(values))
	for i, name := range it.fieldNames {
		rec[name] = values[i]
	}

	return rec, true, nil
}
