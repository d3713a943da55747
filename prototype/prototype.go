// Package prototype models the XML-declared record schema that drives the
// codec: an ordered list of field descriptors, each a closed variant of
// {Integer, ScaledInteger, Float32, Float64} (spec §3, §4.4, §9
// "Prototype polymorphism" — dispatch via tagged union, decoders are
// stateless functions parameterized by the field descriptor).
package prototype

import (
	"math/bits"

	"github.com/cry-inc/e57/errs"
)

// Kind is the closed set of field value encodings E57 supports.
type Kind uint8

const (
	Integer Kind = iota
	ScaledInteger
	Float32
	Float64
)

// SemanticType is the user-visible numeric type a raw decoded value widens
// to, independent of how it was packed on disk.
type SemanticType uint8

const (
	SignedInt SemanticType = iota
	UnsignedInt
	Double
)

// Well-known field names recognized for convenience mapping by the simple
// iterator (spec §4.4). The codec itself does not privilege any of these.
const (
	NameCartesianX          = "cartesianX"
	NameCartesianY          = "cartesianY"
	NameCartesianZ          = "cartesianZ"
	NameSphericalRange      = "sphericalRange"
	NameSphericalAzimuth    = "sphericalAzimuth"
	NameSphericalElevation  = "sphericalElevation"
	NameCartesianInvalid    = "cartesianInvalidState"
	NameSphericalInvalid    = "sphericalInvalidState"
	NameIntensity           = "intensity"
	NameColorRed            = "colorRed"
	NameColorGreen          = "colorGreen"
	NameColorBlue           = "colorBlue"
	NameRowIndex            = "rowIndex"
	NameColumnIndex         = "columnIndex"
	NameReturnIndex         = "returnIndex"
	NameReturnCount         = "returnCount"
	NameTimeStamp           = "timeStamp"
	NameNormalX             = "normalX"
	NameNormalY             = "normalY"
	NameNormalZ             = "normalZ"
)

// Field describes one prototype member: its name, its value encoding, and
// (for integer kinds) the declared domain and optional scale/offset.
type Field struct {
	Name      string
	Namespace string // extension namespace URI; empty for standard E57 fields

	Kind Kind

	// Min/Max bound the raw integer stored on disk for Integer and
	// ScaledInteger kinds. Unused for Float32/Float64.
	Min, Max int64

	// Scale and Offset apply only to ScaledInteger: user value = (raw +
	// min)*Scale + Offset. Left at their zero value (0, 0) they would
	// collapse every decoded value to Offset, so ScaledInteger fields must
	// set Scale explicitly; Validate rejects a zero Scale.
	Scale, Offset float64
}

// BitWidth returns the number of bits needed to store this field's raw
// integer, for Integer and ScaledInteger kinds. Per spec §9, (max-min) is
// computed in the unsigned 64-bit domain so that min/max pairs near the
// 63-bit magnitude limit do not overflow a signed subtraction.
func (f Field) BitWidth() (int, error) {
	switch f.Kind {
	case Integer, ScaledInteger:
	case Float32, Float64:
		return 0, nil
	default:
		return 0, &errs.PrototypeInvalid{Field: f.Name, Reason: "unknown field kind"}
	}

	if f.Min > f.Max {
		return 0, &errs.PrototypeInvalid{Field: f.Name, Reason: "min must be <= max"}
	}

	diff := uint64(f.Max) - uint64(f.Min) // correct mod-2^64 unsigned diff even near int64 limits
	width := bits.Len64(diff)
	if width == 0 {
		width = 1 // min == max: fixed value, the single stored bit is ignored on decode
	}

	return width, nil
}

// SemanticType reports the user-visible numeric type this field widens to.
func (f Field) SemanticType() SemanticType {
	switch f.Kind {
	case Float32, Float64:
		return Double
	case ScaledInteger:
		return Double
	default:
		if f.Min < 0 {
			return SignedInt
		}

		return UnsignedInt
	}
}

// EncodedBitWidth returns the number of bits this field occupies per
// record in a bytestream: BitWidth() for integer kinds, 32 for Float32,
// 64 for Float64.
func (f Field) EncodedBitWidth() (int, error) {
	switch f.Kind {
	case Float32:
		return 32, nil
	case Float64:
		return 64, nil
	default:
		return f.BitWidth()
	}
}

// Validate checks that a field's declared domain and encoding are
// self-consistent.
func (f Field) Validate() error {
	switch f.Kind {
	case Integer:
		if f.Min > f.Max {
			return &errs.PrototypeInvalid{Field: f.Name, Reason: "min must be <= max"}
		}
	case ScaledInteger:
		if f.Min > f.Max {
			return &errs.PrototypeInvalid{Field: f.Name, Reason: "min must be <= max"}
		}
		if f.Scale == 0 {
			return &errs.PrototypeInvalid{Field: f.Name, Reason: "scale must be non-zero"}
		}
	case Float32, Float64:
		// no domain to validate
	default:
		return &errs.PrototypeInvalid{Field: f.Name, Reason: "unknown field kind"}
	}

	return nil
}

// Prototype is the ordered field list declared for one point cloud. Field
// order is significant: it is the order bytestreams appear in every data
// packet (spec §4.3).
type Prototype struct {
	Fields []Field
}

// IndexOf returns the position of the named field (un-namespaced match),
// or -1 if absent.
func (p *Prototype) IndexOf(name string) int {
	for i, f := range p.Fields {
		if f.Name == name && f.Namespace == "" {
			return i
		}
	}

	return -1
}

// Validate validates every field in declaration order, returning the
// first error encountered.
func (p *Prototype) Validate() error {
	seen := make(map[string]struct{}, len(p.Fields))
	for _, f := range p.Fields {
		if err := f.Validate(); err != nil {
			return err
		}

		key := f.Namespace + "\x00" + f.Name
		if _, dup := seen[key]; dup {
			return &errs.PrototypeInvalid{Field: f.Name, Reason: "duplicate field name"}
		}
		seen[key] = struct{}{}
	}

	return nil
}
