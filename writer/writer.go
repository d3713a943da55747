// Package writer implements the Writer facade (spec §4.8): assemble a new
// file by streaming points into the codec, writing each image blob as its
// own blob section as it is added, then emitting XML and patching the
// header. It mirrors reader's wiring of
// envelope, e57xml, prototype, codec, packet, blobsection, and pageio, and
// reuses the teacher's generic functional-options pattern
// (internal/options) for its small set of construction-time knobs.
package writer

import (
	"os"

	"github.com/cry-inc/e57/blobsection"
	"github.com/cry-inc/e57/codec"
	"github.com/cry-inc/e57/e57xml"
	"github.com/cry-inc/e57/envelope"
	"github.com/cry-inc/e57/errs"
	"github.com/cry-inc/e57/internal/options"
	"github.com/cry-inc/e57/packet"
	"github.com/cry-inc/e57/pageio"
	"github.com/cry-inc/e57/prototype"
)

type config struct {
	pageSize     uint64
	strict       bool
	formatName   string
	guid         string
	versionMajor uint32
	versionMinor uint32
}

// Option configures a Writer at construction time.
type Option = options.Option[*config]

// WithPageSize overrides the default 1024-byte page size. Must be a power
// of two no smaller than pageio.MinPageSize.
func WithPageSize(n uint64) Option {
	return options.NoError(func(c *config) { c.pageSize = n })
}

// WithStrict makes every PointCloudWriter reject out-of-domain values
// instead of clamping them.
func WithStrict(strict bool) Option {
	return options.NoError(func(c *config) { c.strict = strict })
}

// WithGUID sets the file's top-level GUID (random per spec convention;
// callers supply their own generator since this package does not import
// one).
func WithGUID(guid string) Option {
	return options.NoError(func(c *config) { c.guid = guid })
}

// Writer assembles a new E57 file. Sections are streamed in as they are
// added; the XML section and the final header are only written by Close,
// once every byte offset they reference is known.
type Writer struct {
	medium pageio.WriteMedium
	cfg    config
	pages  *pageio.Writer
	doc    e57xml.Document
	closed bool

	file *os.File // non-nil only when created via CreateFile
}

// Create begins a new file on medium. It writes a placeholder physical
// header immediately so the paged body can be appended right after it.
func Create(medium pageio.WriteMedium, opts ...Option) (*Writer, error) {
	cfg := config{
		pageSize:     1024,
		formatName:   "ASTM E57 3D Imaging Data File",
		versionMajor: 1,
		versionMinor: 0,
	}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.pageSize < pageio.MinPageSize || cfg.pageSize&(cfg.pageSize-1) != 0 {
		return nil, errs.ErrInvalidHeader
	}

	placeholder := make([]byte, envelope.HeaderSize)
	if _, err := medium.WriteAt(placeholder, 0); err != nil {
		return nil, errs.ErrIo
	}

	pages := pageio.NewWriter(envelope.BodyWriteMedium(medium), int64(cfg.pageSize))

	doc := e57xml.Document{
		FormatName:   cfg.formatName,
		GUID:         cfg.guid,
		VersionMajor: int(cfg.versionMajor),
		VersionMinor: int(cfg.versionMinor),
	}

	return &Writer{medium: medium, cfg: cfg, pages: pages, doc: doc}, nil
}

// CreateFile creates (or truncates) the file at path and begins a new E57
// file on it. The returned Writer owns the file handle; Close both
// finalizes the E57 file and closes it.
func CreateFile(path string, opts ...Option) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.ErrIo
	}

	w, err := Create(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}

	w.file = f

	return w, nil
}

// PointCloudWriter streams records for one Data3D entry into its own
// compressed-vector section.
type PointCloudWriter struct {
	writer *Writer
	idx    int
	names  []string
	pkt    *packet.Writer
}

// AddPointCloud writes meta's point cloud metadata and prototype, opens a
// new compressed-vector section for it, and returns a streaming writer.
// meta.Points is overwritten with the section's own file offset and
// prototype; callers only need to fill in the rest of meta.
func (w *Writer) AddPointCloud(meta e57xml.Data3D, proto prototype.Prototype) (*PointCloudWriter, error) {
	if err := proto.Validate(); err != nil {
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

	headerOffset := w.pages.LogicalLen()
	dataOffset := headerOffset + envelope.CVHeaderSize

	// SectionLength is left at 0: this writer never patches it back in
	// after the fact (the header precedes an unknown amount of packet
	// data, and retroactively patching a header byte range inside an
	// already-flushed, CRC-protected page is not worth the complexity for
	// a field this reader itself never consults). IndexPacketOffset stays
	// 0 too, since this writer never emits index packets.
	cvHeader := envelope.CVHeader{DataPacketOffset: uint64(dataOffset)}
	if _, err := envelope.WriteCVHeader(w.pages, cvHeader); err != nil {
		return nil, err
	}

	pkt := packet.NewWriter(w.pages, fields, w.cfg.strict)

	meta.Points = e57xml.Points{
		FileOffset: uint64(headerOffset),
		Prototype:  e57xml.FromPrototype(proto),
	}

	idx := len(w.doc.Data3D)
	w.doc.Data3D = append(w.doc.Data3D, meta)

	return &PointCloudWriter{writer: w, idx: idx, names: names, pkt: pkt}, nil
}

// WriteRecord appends one record, values keyed by field name.
func (pw *PointCloudWriter) WriteRecord(values map[string]codec.Value) error {
	ordered := make([]codec.Value, len(pw.names))
	for i, name := range pw.names {
		ordered[i] = values[name]
	}

	return pw.pkt.WriteRecord(ordered)
}

// Finish closes this point cloud's compressed-vector section and records
// its final point count into the owning Writer's XML document.
func (pw *PointCloudWriter) Finish() error {
	count, err := pw.pkt.Finish()
	if err != nil {
		return err
	}

	pw.writer.doc.Data3D[pw.idx].Points.RecordCount = uint64(count)

	return nil
}

// AddImage writes blobBytes as a new blob section and fills the single
// blob reference slot the caller left non-nil in meta's chosen
// representation (exactly one of {JPEGImage, PNGImage, RawImage} on
// whichever of {Visual, Pinhole, Spherical, Cylindrical} is set).
func (w *Writer) AddImage(meta e57xml.Image2D, blobBytes []byte) (e57xml.Image2D, error) {
	offset, err := blobsection.Write(w.pages, blobBytes)
	if err != nil {
		return meta, err
	}

	ref := &e57xml.BlobRef{
		FileOffset: uint64(offset) + blobsection.HeaderSize,
		Length:     uint64(len(blobBytes)),
	}

	var filled bool
	switch {
	case meta.Visual != nil:
		filled = fillBlobRef(&meta.Visual.JPEGImage, &meta.Visual.PNGImage, &meta.Visual.RawImage, ref)
	case meta.Pinhole != nil:
		filled = fillBlobRef(&meta.Pinhole.JPEGImage, &meta.Pinhole.PNGImage, &meta.Pinhole.RawImage, ref)
	case meta.Spherical != nil:
		filled = fillBlobRef(&meta.Spherical.JPEGImage, &meta.Spherical.PNGImage, &meta.Spherical.RawImage, ref)
	case meta.Cylindrical != nil:
		filled = fillBlobRef(&meta.Cylindrical.JPEGImage, &meta.Cylindrical.PNGImage, &meta.Cylindrical.RawImage, ref)
	}

	if !filled {
		return meta, &errs.PrototypeInvalid{Field: meta.GUID, Reason: "no image representation/blob slot selected"}
	}

	w.doc.Images2D = append(w.doc.Images2D, meta)

	return meta, nil
}

// fillBlobRef writes ref into whichever of the three blob-slot pointers
// was left non-nil as a placeholder by the caller.
func fillBlobRef(jpeg, png, raw **e57xml.BlobRef, ref *e57xml.BlobRef) bool {
	switch {
	case *jpeg != nil:
		*jpeg = ref
	case *png != nil:
		*png = ref
	case *raw != nil:
		*raw = ref
	default:
		return false
	}

	return true
}

// Close emits the XML section, patches the physical header with its final
// offsets and file length, and flushes all pending pages. The Writer must
// not be used afterward.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	xmlBytes, err := e57xml.Serialize(&w.doc)
	if err != nil {
		return err
	}

	xmlOffset, err := w.pages.Append(xmlBytes)
	if err != nil {
		return err
	}

	if err := w.pages.Flush(); err != nil {
		return err
	}

	payloadSize := int64(w.cfg.pageSize) - 4
	bodyPages := (w.pages.LogicalLen() + payloadSize - 1) / payloadSize
	fileLength := uint64(envelope.HeaderSize) + uint64(bodyPages)*w.cfg.pageSize

	header := envelope.Header{
		VersionMajor: w.cfg.versionMajor,
		VersionMinor: w.cfg.versionMinor,
		FileLength:   fileLength,
		XMLOffset:    uint64(xmlOffset),
		XMLLength:    uint64(len(xmlBytes)),
		PageSize:     w.cfg.pageSize,
	}

	if _, err := w.medium.WriteAt(header.Encode(), 0); err != nil {
		return errs.ErrIo
	}

	w.closed = true

	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return errs.ErrIo
		}
	}

	return nil
}
