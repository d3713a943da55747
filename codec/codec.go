// Package codec implements the per-field encoder/decoder pairs the
// prototype drives (spec §4.4). Decoders are stateless functions
// parameterized by a prototype.Field, matching the teacher corpus's
// closed-variant dispatch style (internal/encoding's ColumnarEncoder /
// ColumnarDecoder pair-per-kind, here specialized to the four E57 field
// kinds instead of mebo's {Raw, Delta, Gorilla} time-series encodings).
package codec

import (
	"math"

	"github.com/cry-inc/e57/bitio"
	"github.com/cry-inc/e57/errs"
	"github.com/cry-inc/e57/prototype"
)

// Value is a tagged scalar decoded from, or to be encoded into, one field
// of one record (spec §4.7's RawRecord entry: "a mapping from field name
// to a tagged scalar").
type Value struct {
	Type prototype.SemanticType
	I    int64   // valid when Type == SignedInt or UnsignedInt
	F    float64 // valid when Type == Double
}

// Int returns v as an int64, usable for both SignedInt and UnsignedInt
// (callers needing the true unsigned magnitude should use Uint).
func (v Value) Int() int64 { return v.I }

// Uint returns v reinterpreted as a uint64, for UnsignedInt values.
func (v Value) Uint() uint64 { return uint64(v.I) }

// Float returns v as a float64 regardless of its tag, widening integers.
func (v Value) Float() float64 {
	if v.Type == prototype.Double {
		return v.F
	}

	return float64(v.I)
}

// IntValue builds a signed or unsigned integer Value.
func IntValue(i int64, semantic prototype.SemanticType) Value {
	return Value{Type: semantic, I: i}
}

// FloatValue builds a double-precision Value.
func FloatValue(f float64) Value {
	return Value{Type: prototype.Double, F: f}
}

// Field is a ready-to-use encoder/decoder for one prototype field.
type Field struct {
	desc     prototype.Field
	bitWidth int
}

// New validates f and returns a Field codec for it.
func New(f prototype.Field) (*Field, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	bw, err := f.EncodedBitWidth()
	if err != nil {
		return nil, err
	}

	return &Field{desc: f, bitWidth: bw}, nil
}

// BitWidth returns the number of bits this field occupies per record.
func (c *Field) BitWidth() int { return c.bitWidth }

// Descriptor returns the prototype field this codec was built from.
func (c *Field) Descriptor() prototype.Field { return c.desc }

// Decode reads one record's worth of bits for this field from r.
func (c *Field) Decode(r *bitio.Reader) (Value, error) {
	switch c.desc.Kind {
	case prototype.Float32:
		bits, ok := r.ReadBits(32)
		if !ok {
			return Value{}, errs.ErrTruncatedPacket
		}

		return FloatValue(float64(math.Float32frombits(uint32(bits)))), nil

	case prototype.Float64:
		bits, ok := r.ReadBits(64)
		if !ok {
			return Value{}, errs.ErrTruncatedPacket
		}

		return FloatValue(math.Float64frombits(bits)), nil

	case prototype.Integer:
		raw, ok := r.ReadBits(c.bitWidth)
		if !ok {
			return Value{}, errs.ErrTruncatedPacket
		}

		domain := uint64(c.desc.Max) - uint64(c.desc.Min)
		if c.desc.Min != c.desc.Max && raw > domain {
			return Value{}, &errs.DomainOverflow{Field: c.desc.Name}
		}
		if c.desc.Min == c.desc.Max {
			raw = 0 // the single stored bit is ignored on decode, value is fixed to min
		}

		semantic := int64(uint64(c.desc.Min) + raw) //nolint: gosec -- wraps correctly per two's complement

		return IntValue(semantic, c.desc.SemanticType()), nil

	case prototype.ScaledInteger:
		raw, ok := r.ReadBits(c.bitWidth)
		if !ok {
			return Value{}, errs.ErrTruncatedPacket
		}

		domain := uint64(c.desc.Max) - uint64(c.desc.Min)
		if c.desc.Min != c.desc.Max && raw > domain {
			return Value{}, &errs.DomainOverflow{Field: c.desc.Name}
		}
		if c.desc.Min == c.desc.Max {
			raw = 0
		}

		semantic := int64(uint64(c.desc.Min) + raw) //nolint: gosec
		user := float64(semantic)*c.desc.Scale + c.desc.Offset

		return FloatValue(user), nil

	default:
		return Value{}, &errs.PrototypeInvalid{Field: c.desc.Name, Reason: "unknown field kind"}
	}
}

// Encode writes one record's worth of bits for this field's value to w.
// In strict mode, a value outside the field's declared domain returns
// OutOfRange instead of being clamped.
func (c *Field) Encode(w *bitio.Writer, value Value, strict bool) error {
	switch c.desc.Kind {
	case prototype.Float32:
		w.WriteBits(uint64(math.Float32bits(float32(value.Float()))), 32)

		return nil

	case prototype.Float64:
		w.WriteBits(math.Float64bits(value.Float()), 64)

		return nil

	case prototype.Integer:
		semantic := value.Int()
		raw, err := c.rawFromSemantic(semantic, strict)
		if err != nil {
			return err
		}

		w.WriteBits(raw, c.bitWidth)

		return nil

	case prototype.ScaledInteger:
		semantic := int64(math.Round((value.Float() - c.desc.Offset) / c.desc.Scale))
		raw, err := c.rawFromSemantic(semantic, strict)
		if err != nil {
			return err
		}

		w.WriteBits(raw, c.bitWidth)

		return nil

	default:
		return &errs.PrototypeInvalid{Field: c.desc.Name, Reason: "unknown field kind"}
	}
}

// rawFromSemantic converts a user-space semantic integer into the raw
// bit-packed offset from Min, clamping or rejecting out-of-range input.
func (c *Field) rawFromSemantic(semantic int64, strict bool) (uint64, error) {
	if semantic < c.desc.Min || semantic > c.desc.Max {
		if strict {
			return 0, &errs.OutOfRange{Field: c.desc.Name}
		}
		if semantic < c.desc.Min {
			semantic = c.desc.Min
		} else {
			semantic = c.desc.Max
		}
	}

	if c.desc.Min == c.desc.Max {
		return 0, nil
	}

	return uint64(semantic) - uint64(c.desc.Min), nil
}
