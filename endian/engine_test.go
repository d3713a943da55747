package endian

import "testing"

func TestLERoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	LE.PutUint64(buf, 0x0102030405060708)

	got := LE.Uint64(buf)
	if got != 0x0102030405060708 {
		t.Fatalf("got %x, want %x", got, uint64(0x0102030405060708))
	}

	if buf[0] != 0x08 || buf[7] != 0x01 {
		t.Fatalf("expected little-endian byte layout, got %v", buf)
	}
}
