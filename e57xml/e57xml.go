// Package e57xml parses and serializes the XML section addressed by the
// physical header's xml_offset/xml_length (spec §4.5). It is the one place
// in this module reaching for encoding/xml rather than a hand-rolled
// parser: no third-party XML library appears anywhere in the example
// corpus, so encoding/xml, driven the way
// SimonWaldherr-tinySQL/internal/importer/kml.go drives it (struct-tagged
// Decode/Encode over a small tree of nested structs), is the corpus's own
// answer to "how do we parse XML" here.
//
// The one piece encoding/xml's static struct tags cannot express directly
// is the prototype: its child elements are named after arbitrary,
// caller-declared field names (cartesianX, intensity, a namespaced
// extension field, ...), not a fixed schema vocabulary. ProtoFieldList
// implements xml.Marshaler/xml.Unmarshaler by hand to walk those elements
// token by token instead.
package e57xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/cry-inc/e57/errs"
	"github.com/cry-inc/e57/prototype"
)

// Namespace is the fixed namespace URI every e57Root document declares.
const Namespace = "http://www.astm.org/COMMIT/E57/2010-e57-v1.0"

// Document is the root <e57Root> element (spec §4.5).
type Document struct {
	XMLName            xml.Name   `xml:"e57Root"`
	Xmlns              string     `xml:"xmlns,attr"`
	FormatName         string     `xml:"formatName"`
	GUID               string     `xml:"guid"`
	VersionMajor       int        `xml:"versionMajor"`
	VersionMinor       int        `xml:"versionMinor"`
	CreationDateTime   string     `xml:"creationDateTime,omitempty"`
	CoordinateMetadata string     `xml:"coordinateMetadata,omitempty"`
	Data3D             []Data3D   `xml:"data3D>vectorChild,omitempty"`
	Images2D           []Image2D  `xml:"images2D>vectorChild,omitempty"`
}

// Pose is a rigid transform: a unit quaternion plus a translation.
type Pose struct {
	RotationX    float64 `xml:"rotation>x"`
	RotationY    float64 `xml:"rotation>y"`
	RotationZ    float64 `xml:"rotation>z"`
	RotationW    float64 `xml:"rotation>w"`
	TranslationX float64 `xml:"translation>x"`
	TranslationY float64 `xml:"translation>y"`
	TranslationZ float64 `xml:"translation>z"`
}

// CartesianBounds bounds a point cloud's Cartesian extent.
type CartesianBounds struct {
	XMinimum float64 `xml:"xMinimum"`
	XMaximum float64 `xml:"xMaximum"`
	YMinimum float64 `xml:"yMinimum"`
	YMaximum float64 `xml:"yMaximum"`
	ZMinimum float64 `xml:"zMinimum"`
	ZMaximum float64 `xml:"zMaximum"`
}

// SphericalBounds bounds a point cloud's spherical extent.
type SphericalBounds struct {
	RangeMinimum     float64 `xml:"rangeMinimum"`
	RangeMaximum     float64 `xml:"rangeMaximum"`
	AzimuthMinimum   float64 `xml:"azimuthMinimum"`
	AzimuthMaximum   float64 `xml:"azimuthMaximum"`
	ElevationMinimum float64 `xml:"elevationMinimum"`
	ElevationMaximum float64 `xml:"elevationMaximum"`
}

// IntensityLimits bounds the raw intensity domain, used by the simple
// iterator to normalize intensity into [0,1].
type IntensityLimits struct {
	Minimum float64 `xml:"intensityMinimum"`
	Maximum float64 `xml:"intensityMaximum"`
}

// ColorLimits bounds each raw color channel's domain.
type ColorLimits struct {
	RedMinimum      float64 `xml:"colorRedMinimum"`
	RedMaximum      float64 `xml:"colorRedMaximum"`
	GreenMinimum    float64 `xml:"colorGreenMinimum"`
	GreenMaximum    float64 `xml:"colorGreenMaximum"`
	BlueMinimum     float64 `xml:"colorBlueMinimum"`
	BlueMaximum     float64 `xml:"colorBlueMaximum"`
}

// Points points at the compressed-vector section backing one point cloud.
type Points struct {
	FileOffset  uint64         `xml:"fileOffset,attr"`
	RecordCount uint64         `xml:"recordCount,attr"`
	Prototype   ProtoFieldList `xml:"prototype"`
}

// Data3D is one <data3D> vector element (spec §3 "Point cloud record").
type Data3D struct {
	GUID               string           `xml:"guid"`
	Name               string           `xml:"name,omitempty"`
	Description        string           `xml:"description,omitempty"`
	OriginalGUIDs       []string        `xml:"originalGUIDs>vectorChild,omitempty"`
	SensorVendor       string           `xml:"sensorVendor,omitempty"`
	SensorModel        string           `xml:"sensorModel,omitempty"`
	SensorSerialNumber string           `xml:"sensorSerialNumber,omitempty"`
	SensorFirmware     string           `xml:"sensorFirmwareVersion,omitempty"`
	SensorHardware     string           `xml:"sensorHardwareVersion,omitempty"`
	AcquisitionStart   string           `xml:"acquisitionStart,omitempty"`
	AcquisitionEnd     string           `xml:"acquisitionEnd,omitempty"`
	Temperature        float64          `xml:"temperature,omitempty"`
	Humidity           float64          `xml:"relativeHumidity,omitempty"`
	AtmosphericPressure float64         `xml:"atmosphericPressure,omitempty"`
	Pose               *Pose            `xml:"pose,omitempty"`
	CartesianBounds    *CartesianBounds `xml:"cartesianBounds,omitempty"`
	SphericalBounds    *SphericalBounds `xml:"sphericalBounds,omitempty"`
	IntensityLimits    *IntensityLimits `xml:"intensityLimits,omitempty"`
	ColorLimits        *ColorLimits     `xml:"colorLimits,omitempty"`
	Points             Points           `xml:"points"`
}

// BlobRef points at one blob section's byte range.
type BlobRef struct {
	FileOffset uint64 `xml:"fileOffset,attr"`
	Length     uint64 `xml:"length,attr"`
}

// blobImage is the shared shape of the {jpegImage, pngImage, binaryImage}
// children every representation variant below may carry.
type blobImage struct {
	JPEGImage *BlobRef `xml:"jpegImage,omitempty"`
	PNGImage  *BlobRef `xml:"pngImage,omitempty"`
	RawImage  *BlobRef `xml:"binaryImage,omitempty"`
}

// VisualRepresentation is a plain photographic image, no projection model.
type VisualRepresentation struct {
	blobImage
	Width       int     `xml:"imageWidth"`
	Height      int     `xml:"imageHeight"`
	PixelWidth  float64 `xml:"pixelWidth,omitempty"`
	PixelHeight float64 `xml:"pixelHeight,omitempty"`
}

// PinholeRepresentation is a perspective camera projection.
type PinholeRepresentation struct {
	blobImage
	Width           int     `xml:"imageWidth"`
	Height          int     `xml:"imageHeight"`
	FocalLength     float64 `xml:"focalLength"`
	PrincipalPointX float64 `xml:"principalPointX"`
	PrincipalPointY float64 `xml:"principalPointY"`
	PixelWidth      float64 `xml:"pixelWidth,omitempty"`
	PixelHeight     float64 `xml:"pixelHeight,omitempty"`
}

// SphericalRepresentation is a full spherical panorama projection.
type SphericalRepresentation struct {
	blobImage
	Width       int     `xml:"imageWidth"`
	Height      int     `xml:"imageHeight"`
	PixelWidth  float64 `xml:"pixelWidth,omitempty"`
	PixelHeight float64 `xml:"pixelHeight,omitempty"`
}

// CylindricalRepresentation is a cylindrical panorama projection.
type CylindricalRepresentation struct {
	blobImage
	Width          int     `xml:"imageWidth"`
	Height         int     `xml:"imageHeight"`
	Radius         float64 `xml:"radius,omitempty"`
	PrincipalPoint float64 `xml:"principalPointY,omitempty"`
	PixelWidth     float64 `xml:"pixelWidth,omitempty"`
	PixelHeight    float64 `xml:"pixelHeight,omitempty"`
}

// Image2D is one <images2D> vector element (spec §3 "2D image record").
// Exactly one representation pointer should be non-nil.
type Image2D struct {
	GUID             string                     `xml:"guid"`
	Name             string                     `xml:"name,omitempty"`
	Description      string                     `xml:"description,omitempty"`
	AssociatedData3D string                     `xml:"associatedData3DGuid,omitempty"`
	Pose             *Pose                      `xml:"pose,omitempty"`
	AcquisitionTime  string                     `xml:"acquisitionDateTime,omitempty"`
	Visual           *VisualRepresentation      `xml:"visualReference,omitempty"`
	Pinhole          *PinholeRepresentation     `xml:"pinholeRepresentation,omitempty"`
	Spherical        *SphericalRepresentation   `xml:"sphericalRepresentation,omitempty"`
	Cylindrical      *CylindricalRepresentation `xml:"cylindricalRepresentation,omitempty"`
}

// Parse decodes a complete XML section into a Document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrXmlMalformed, err)
	}

	if doc.FormatName == "" {
		return nil, &errs.XmlSchemaViolation{Element: "formatName"}
	}
	if doc.GUID == "" {
		return nil, &errs.XmlSchemaViolation{Element: "guid"}
	}

	return &doc, nil
}

// Serialize writes doc as strict, UTF-8-without-BOM XML (spec §4.5 writer
// invariants: deterministic numeric literals, fixed element ordering via
// the struct field order above).
func Serialize(doc *Document) ([]byte, error) {
	if doc.Xmlns == "" {
		doc.Xmlns = Namespace
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrXmlMalformed, err)
	}

	return buf.Bytes(), nil
}

// ProtoFieldList is the ordered prototype field list, whose child element
// names ARE the field names (spec §4.5: "children declare the prototype
// as typed element nodes"). encoding/xml cannot bind a dynamic element
// name to a struct field, so this type drives the xml.Decoder/xml.Encoder
// token streams directly.
type ProtoFieldList struct {
	Fields []ProtoField
}

// ProtoField is one prototype member as it appears in XML: its element
// name is the field name, its "type" attribute selects the Kind, and the
// remaining attributes carry the domain (spec §4.5).
type ProtoField struct {
	Name      string
	Namespace string
	TypeAttr  string // "Integer", "ScaledInteger", "Float" (precision="single"/"double")
	Precision string
	Minimum   *int64
	Maximum   *int64
	Scale     *float64
	Offset    *float64
}

func attrValue(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}

	return "", false
}

// UnmarshalXML reads <prototype><cartesianX type="Float" precision="single"/>...</prototype>.
func (p *ProtoFieldList) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return fmt.Errorf("%w: %w", errs.ErrXmlMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			field := ProtoField{Name: t.Name.Local, Namespace: t.Name.Space}
			if v, ok := attrValue(t.Attr, "type"); ok {
				field.TypeAttr = v
			}
			if v, ok := attrValue(t.Attr, "precision"); ok {
				field.Precision = v
			}
			if v, ok := attrValue(t.Attr, "minimum"); ok {
				n, perr := strconv.ParseInt(v, 10, 64)
				if perr != nil {
					return &errs.XmlSchemaViolation{Element: field.Name}
				}
				field.Minimum = &n
			}
			if v, ok := attrValue(t.Attr, "maximum"); ok {
				n, perr := strconv.ParseInt(v, 10, 64)
				if perr != nil {
					return &errs.XmlSchemaViolation{Element: field.Name}
				}
				field.Maximum = &n
			}
			if v, ok := attrValue(t.Attr, "scale"); ok {
				n, perr := strconv.ParseFloat(v, 64)
				if perr != nil {
					return &errs.XmlSchemaViolation{Element: field.Name}
				}
				field.Scale = &n
			}
			if v, ok := attrValue(t.Attr, "offset"); ok {
				n, perr := strconv.ParseFloat(v, 64)
				if perr != nil {
					return &errs.XmlSchemaViolation{Element: field.Name}
				}
				field.Offset = &n
			}

			if err := d.Skip(); err != nil {
				return err
			}

			p.Fields = append(p.Fields, field)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// MarshalXML writes the prototype back out, one self-closing element per
// field, named after the field itself.
func (p ProtoFieldList) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = nil
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	for _, f := range p.Fields {
		name := xml.Name{Local: f.Name, Space: f.Namespace}
		attrs := []xml.Attr{{Name: xml.Name{Local: "type"}, Value: f.TypeAttr}}
		if f.Precision != "" {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "precision"}, Value: f.Precision})
		}
		if f.Minimum != nil {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "minimum"}, Value: strconv.FormatInt(*f.Minimum, 10)})
		}
		if f.Maximum != nil {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "maximum"}, Value: strconv.FormatInt(*f.Maximum, 10)})
		}
		if f.Scale != nil {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "scale"}, Value: strconv.FormatFloat(*f.Scale, 'g', -1, 64)})
		}
		if f.Offset != nil {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "offset"}, Value: strconv.FormatFloat(*f.Offset, 'g', -1, 64)})
		}

		elemStart := xml.StartElement{Name: name, Attr: attrs}
		if err := e.EncodeToken(elemStart); err != nil {
			return err
		}
		if err := e.EncodeToken(xml.EndElement{Name: name}); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// ToPrototype converts an XML-parsed field list into the codec-facing
// prototype model, rejecting any field whose type attribute it does not
// recognize.
func (p ProtoFieldList) ToPrototype() (prototype.Prototype, error) {
	fields := make([]prototype.Field, 0, len(p.Fields))

	for _, xf := range p.Fields {
		f := prototype.Field{Name: xf.Name, Namespace: xf.Namespace}

		switch xf.TypeAttr {
		case "Integer":
			f.Kind = prototype.Integer
		case "ScaledInteger":
			f.Kind = prototype.ScaledInteger
		case "Float":
			if xf.Precision == "double" {
				f.Kind = prototype.Float64
			} else {
				f.Kind = prototype.Float32
			}
		default:
			return prototype.Prototype{}, &errs.PrototypeInvalid{Field: xf.Name, Reason: "unrecognized type attribute"}
		}

		if xf.Minimum != nil {
			f.Min = *xf.Minimum
		}
		if xf.Maximum != nil {
			f.Max = *xf.Maximum
		}
		if xf.Scale != nil {
			f.Scale = *xf.Scale
		}
		if xf.Offset != nil {
			f.Offset = *xf.Offset
		}

		fields = append(fields, f)
	}

	proto := prototype.Prototype{Fields: fields}

	return proto, proto.Validate()
}

// FromPrototype converts a codec-facing prototype back into its XML form.
func FromPrototype(proto prototype.Prototype) ProtoFieldList {
	list := ProtoFieldList{Fields: make([]ProtoField, 0, len(proto.Fields))}

	for _, f := range proto.Fields {
		xf := ProtoField{Name: f.Name, Namespace: f.Namespace}

		switch f.Kind {
		case prototype.Integer:
			xf.TypeAttr = "Integer"
			minV, maxV := f.Min, f.Max
			xf.Minimum, xf.Maximum = &minV, &maxV
		case prototype.ScaledInteger:
			xf.TypeAttr = "ScaledInteger"
			minV, maxV, scale, offset := f.Min, f.Max, f.Scale, f.Offset
			xf.Minimum, xf.Maximum, xf.Scale, xf.Offset = &minV, &maxV, &scale, &offset
		case prototype.Float32:
			xf.TypeAttr = "Float"
			xf.Precision = "single"
		case prototype.Float64:
			xf.TypeAttr = "Float"
			xf.Precision = "double"
		}

		list.Fields = append(list.Fields, xf)
	}

	return list
}
