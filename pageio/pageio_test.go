package pageio

import (
	"bytes"
	"testing"

	"github.com/cry-inc/e57/errs"
)

// memMedium is a growable in-memory ReadMedium/WriteMedium for tests.
type memMedium struct {
	buf []byte
}

func (m *memMedium) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.buf)) {
		return 0, nil
	}

	n := copy(p, m.buf[off:])

	return n, nil
}

func (m *memMedium) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}

	copy(m.buf[off:], p)

	return len(p), nil
}

func TestWriteReadRoundTripAcrossPages(t *testing.T) {
	med := &memMedium{}
	const pageSize = 64

	w := NewWriter(med, pageSize)

	payload := bytes.Repeat([]byte("0123456789abcdef"), 20) // 320 bytes, several pages at 60B payload/page
	if _, err := w.Append(payload); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	r := NewReader(med, pageSize)
	got := make([]byte, len(payload))
	if err := r.ReadAt(0, got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch")
	}
}

func TestFlushPadsShortFinalPage(t *testing.T) {
	med := &memMedium{}
	const pageSize = 64

	w := NewWriter(med, pageSize)
	if _, err := w.Append([]byte("short")); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	if len(med.buf) != pageSize {
		t.Fatalf("expected one full padded page of %d bytes, got %d", pageSize, len(med.buf))
	}

	r := NewReader(med, pageSize)
	got := make([]byte, 5)
	if err := r.ReadAt(0, got); err != nil {
		t.Fatal(err)
	}
	if string(got) != "short" {
		t.Fatalf("got %q", got)
	}
}

func TestFlushIsNoOpWithNoPendingData(t *testing.T) {
	med := &memMedium{}
	w := NewWriter(med, 64)

	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(med.buf) != 0 {
		t.Fatalf("expected no bytes written, got %d", len(med.buf))
	}
}

func TestReadDetectsChecksumMismatch(t *testing.T) {
	med := &memMedium{}
	const pageSize = 64

	w := NewWriter(med, pageSize)
	if _, err := w.Append(bytes.Repeat([]byte{0x42}, int(pageSize-4))); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	med.buf[0] ^= 0xFF // corrupt a payload byte after the page was written

	r := NewReader(med, pageSize)
	got := make([]byte, 1)

	err := r.ReadAt(0, got)
	if err == nil {
		t.Fatal("expected checksum mismatch error")
	}

	var mismatch *errs.ChecksumMismatch
	if !asChecksumMismatch(err, &mismatch) {
		t.Fatalf("expected *errs.ChecksumMismatch, got %T: %v", err, err)
	}
	if mismatch.PageIndex != 0 {
		t.Fatalf("expected page index 0, got %d", mismatch.PageIndex)
	}
}

func TestPhysicalOffsetSkipsTrailers(t *testing.T) {
	r := NewReader(&memMedium{}, 64)

	if off := r.PhysicalOffset(0); off != 0 {
		t.Fatalf("expected 0, got %d", off)
	}

	// payload size is 60 bytes/page; logical byte 60 is the first byte of page 1
	if off := r.PhysicalOffset(60); off != 64 {
		t.Fatalf("expected 64, got %d", off)
	}
}

func asChecksumMismatch(err error, target **errs.ChecksumMismatch) bool {
	for err != nil {
		if cm, ok := err.(*errs.ChecksumMismatch); ok {
			*target = cm

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
