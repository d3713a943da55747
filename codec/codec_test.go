package codec

import (
	"math"
	"testing"

	"github.com/cry-inc/e57/bitio"
	"github.com/cry-inc/e57/errs"
	"github.com/cry-inc/e57/prototype"
)

func roundTrip(t *testing.T, c *Field, in Value) Value {
	t.Helper()

	w := bitio.NewWriter()
	defer w.Release()

	if err := c.Encode(w, in, true); err != nil {
		t.Fatalf("encode: %v", err)
	}
	w.Flush()

	r := bitio.NewReader(w.Bytes())

	out, err := c.Decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	return out
}

func TestRoundTripUnsignedInteger(t *testing.T) {
	c, err := New(prototype.Field{Name: "intensity", Kind: prototype.Integer, Min: 0, Max: 2047})
	if err != nil {
		t.Fatal(err)
	}

	out := roundTrip(t, c, IntValue(1500, prototype.UnsignedInt))
	if out.Int() != 1500 {
		t.Fatalf("got %d, want 1500", out.Int())
	}
}

func TestRoundTripSignedInteger(t *testing.T) {
	c, err := New(prototype.Field{Name: "rowIndex", Kind: prototype.Integer, Min: -100, Max: 100})
	if err != nil {
		t.Fatal(err)
	}

	out := roundTrip(t, c, IntValue(-42, prototype.SignedInt))
	if out.Int() != -42 {
		t.Fatalf("got %d, want -42", out.Int())
	}
}

func TestRoundTripScaledInteger(t *testing.T) {
	c, err := New(prototype.Field{
		Name: "cartesianX", Kind: prototype.ScaledInteger,
		Min: -100000, Max: 100000, Scale: 0.0001,
	})
	if err != nil {
		t.Fatal(err)
	}

	out := roundTrip(t, c, FloatValue(1.2345))
	if math.Abs(out.Float()-1.2345) > 1e-9 {
		t.Fatalf("got %v, want 1.2345", out.Float())
	}
}

func TestRoundTripFloat32(t *testing.T) {
	c, err := New(prototype.Field{Name: "cartesianX", Kind: prototype.Float32})
	if err != nil {
		t.Fatal(err)
	}

	out := roundTrip(t, c, FloatValue(3.5))
	if out.Float() != 3.5 {
		t.Fatalf("got %v, want 3.5", out.Float())
	}
}

func TestRoundTripFloat64(t *testing.T) {
	c, err := New(prototype.Field{Name: "cartesianX", Kind: prototype.Float64})
	if err != nil {
		t.Fatal(err)
	}

	out := roundTrip(t, c, FloatValue(math.Pi))
	if out.Float() != math.Pi {
		t.Fatalf("got %v, want %v", out.Float(), math.Pi)
	}
}

func TestRoundTripFixedValue(t *testing.T) {
	c, err := New(prototype.Field{Name: "flag", Kind: prototype.Integer, Min: 7, Max: 7})
	if err != nil {
		t.Fatal(err)
	}

	out := roundTrip(t, c, IntValue(7, prototype.UnsignedInt))
	if out.Int() != 7 {
		t.Fatalf("got %d, want 7", out.Int())
	}
}

func TestDecodeDomainOverflow(t *testing.T) {
	c, err := New(prototype.Field{Name: "intensity", Kind: prototype.Integer, Min: 0, Max: 5})
	if err != nil {
		t.Fatal(err)
	}

	w := bitio.NewWriter()
	defer w.Release()
	w.WriteBits(7, c.BitWidth()) // 7 > max-min (5), out of declared domain
	w.Flush()

	r := bitio.NewReader(w.Bytes())
	if _, err := c.Decode(r); !errorIs(err, errs.ErrDomainOverflow) {
		t.Fatalf("expected ErrDomainOverflow, got %v", err)
	}
}

func TestEncodeStrictRejectsOutOfRange(t *testing.T) {
	c, err := New(prototype.Field{Name: "intensity", Kind: prototype.Integer, Min: 0, Max: 100})
	if err != nil {
		t.Fatal(err)
	}

	w := bitio.NewWriter()
	defer w.Release()

	err = c.Encode(w, IntValue(500, prototype.UnsignedInt), true)
	if !errorIs(err, errs.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestEncodeNonStrictClamps(t *testing.T) {
	c, err := New(prototype.Field{Name: "intensity", Kind: prototype.Integer, Min: 0, Max: 100})
	if err != nil {
		t.Fatal(err)
	}

	w := bitio.NewWriter()
	defer w.Release()

	if err := c.Encode(w, IntValue(500, prototype.UnsignedInt), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Flush()

	r := bitio.NewReader(w.Bytes())

	out, err := c.Decode(r)
	if err != nil {
		t.Fatal(err)
	}
	if out.Int() != 100 {
		t.Fatalf("expected clamp to 100, got %d", out.Int())
	}
}

func errorIs(err, target error) bool {
	for err != nil {
		if err == target { //nolint:errorlint // sentinel identity check is sufficient here
			return true
		}

		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}

		err = u.Unwrap()
	}

	return false
}
