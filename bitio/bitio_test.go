package bitio

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	w := NewWriter()
	defer w.Release()

	values := []struct {
		v     uint64
		width int
	}{
		{0, 1},
		{1, 1},
		{5, 3},
		{2047, 11},
		{0xFFFFFFFF, 32},
		{0x1FFFFFFFFFFFFF, 53},
		{1, 1},
	}

	for _, tc := range values {
		w.WriteBits(tc.v, tc.width)
	}
	w.Flush()

	r := NewReader(w.Bytes())
	for _, tc := range values {
		got, ok := r.ReadBits(tc.width)
		if !ok {
			t.Fatalf("unexpected exhaustion reading width %d", tc.width)
		}
		want := tc.v
		if tc.width < 64 {
			want &= (uint64(1) << uint(tc.width)) - 1
		}
		if got != want {
			t.Fatalf("width %d: got %d, want %d", tc.width, got, want)
		}
	}
}

func TestReadBitsExhaustion(t *testing.T) {
	w := NewWriter()
	defer w.Release()
	w.WriteBits(3, 2)
	w.Flush()

	r := NewReader(w.Bytes())
	if _, ok := r.ReadBits(100); ok {
		t.Fatal("expected exhaustion reading past the buffer")
	}
}

func TestTrailingBitsZero(t *testing.T) {
	w := NewWriter()
	defer w.Release()
	w.WriteBits(0b101, 3)
	w.Flush()

	r := NewReader(w.Bytes())
	if _, ok := r.ReadBits(3); !ok {
		t.Fatal("read failed")
	}
	if !r.TrailingBitsZero() {
		t.Fatal("expected zero-padded trailing bits")
	}
}

func TestBitsRemaining(t *testing.T) {
	w := NewWriter()
	defer w.Release()
	w.WriteBits(1, 1)
	w.WriteBits(1, 1)
	w.Flush()

	r := NewReader(w.Bytes())
	if r.BitsRemaining() != 8 {
		t.Fatalf("expected 8 bits remaining, got %d", r.BitsRemaining())
	}
	r.ReadBits(2)
	if r.BitsRemaining() != 6 {
		t.Fatalf("expected 6 bits remaining, got %d", r.BitsRemaining())
	}
}

func TestExtendAndCompact(t *testing.T) {
	w1 := NewWriter()
	w1.WriteBits(0b101, 3)
	w1.Flush()
	first := append([]byte(nil), w1.Bytes()...)
	w1.Release()

	w2 := NewWriter()
	w2.WriteBits(0b11, 2)
	w2.Flush()
	second := append([]byte(nil), w2.Bytes()...)
	w2.Release()

	r := NewReader(first)
	if _, ok := r.ReadBits(3); !ok {
		t.Fatal("read failed")
	}

	r.AlignToByte()
	r.Extend(second)
	r.Compact()

	got, ok := r.ReadBits(2)
	if !ok {
		t.Fatal("read after extend failed")
	}
	if got != 0b11 {
		t.Fatalf("got %b, want 11", got)
	}
}

func TestBitLenTracksUnflushedBits(t *testing.T) {
	w := NewWriter()
	defer w.Release()
	w.WriteBits(1, 5)
	if w.BitLen() != 5 {
		t.Fatalf("expected BitLen 5, got %d", w.BitLen())
	}
}
