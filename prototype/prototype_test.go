package prototype

import "testing"

func TestBitWidthIntensity(t *testing.T) {
	f := Field{Name: "intensity", Kind: Integer, Min: 0, Max: 2047}
	w, err := f.BitWidth()
	if err != nil {
		t.Fatal(err)
	}
	if w != 11 {
		t.Fatalf("expected 11 bits for [0,2047], got %d", w)
	}
}

func TestBitWidthFixedValue(t *testing.T) {
	f := Field{Name: "flag", Kind: Integer, Min: 3, Max: 3}
	w, err := f.BitWidth()
	if err != nil {
		t.Fatal(err)
	}
	if w != 1 {
		t.Fatalf("expected 1 bit when min == max, got %d", w)
	}
}

func TestBitWidthNearInt64Limits(t *testing.T) {
	f := Field{Name: "wide", Kind: Integer, Min: -1 << 62, Max: (1 << 62) - 1}
	w, err := f.BitWidth()
	if err != nil {
		t.Fatal(err)
	}
	if w != 63 {
		t.Fatalf("expected 63 bits, got %d", w)
	}
}

func TestBitWidthRejectsMinGreaterThanMax(t *testing.T) {
	f := Field{Name: "bad", Kind: Integer, Min: 5, Max: 1}
	if _, err := f.BitWidth(); err == nil {
		t.Fatal("expected error for min > max")
	}
}

func TestScaledIntegerRejectsZeroScale(t *testing.T) {
	f := Field{Name: "scaled", Kind: ScaledInteger, Min: 0, Max: 100, Scale: 0}
	if err := f.Validate(); err == nil {
		t.Fatal("expected error for zero scale")
	}
}

func TestPrototypeValidateRejectsDuplicateFields(t *testing.T) {
	p := &Prototype{Fields: []Field{
		{Name: "cartesianX", Kind: Float64},
		{Name: "cartesianX", Kind: Float64},
	}}
	if err := p.Validate(); err == nil {
		t.Fatal("expected duplicate field error")
	}
}

func TestPrototypeIndexOf(t *testing.T) {
	p := &Prototype{Fields: []Field{
		{Name: "cartesianX", Kind: Float64},
		{Name: "cartesianY", Kind: Float64},
	}}
	if idx := p.IndexOf("cartesianY"); idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if idx := p.IndexOf("missing"); idx != -1 {
		t.Fatalf("expected -1 for missing field, got %d", idx)
	}
}

func TestEncodedBitWidthFloats(t *testing.T) {
	f32 := Field{Name: "a", Kind: Float32}
	f64 := Field{Name: "b", Kind: Float64}

	w32, _ := f32.EncodedBitWidth()
	w64, _ := f64.EncodedBitWidth()
	if w32 != 32 || w64 != 64 {
		t.Fatalf("got %d/%d, want 32/64", w32, w64)
	}
}
