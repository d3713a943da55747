package packet

import (
	"testing"

	"github.com/cry-inc/e57/codec"
	"github.com/cry-inc/e57/pageio"
	"github.com/cry-inc/e57/prototype"
)

// memMedium is a growable in-memory pageio.ReadMedium/WriteMedium for tests.
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

func buildCodecs(t *testing.T) []*codec.Field {
	t.Helper()

	fields := []prototype.Field{
		{Name: prototype.NameCartesianX, Kind: prototype.Float64},
		{Name: prototype.NameIntensity, Kind: prototype.Integer, Min: 0, Max: 2047},
		{Name: prototype.NameCartesianInvalid, Kind: prototype.Integer, Min: 0, Max: 1},
	}

	codecs := make([]*codec.Field, len(fields))
	for i, f := range fields {
		c, err := codec.New(f)
		if err != nil {
			t.Fatal(err)
		}

		codecs[i] = c
	}

	return codecs
}

func TestWriteReadManyRecordsSpanningPages(t *testing.T) {
	codecs := buildCodecs(t)
	med := &memMedium{}
	const pageSize = 256

	pw := pageio.NewWriter(med, pageSize)
	w := NewWriter(pw, codecs, true)

	const n = 500
	for i := 0; i < n; i++ {
		values := []codec.Value{
			codec.FloatValue(float64(i) * 0.5),
			codec.IntValue(int64(i%2048), prototype.UnsignedInt),
			codec.IntValue(int64(i % 2), prototype.UnsignedInt),
		}
		if err := w.WriteRecord(values); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	count, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if count != n {
		t.Fatalf("expected %d records written, got %d", n, count)
	}
	if err := pw.Flush(); err != nil {
		t.Fatal(err)
	}

	pr := pageio.NewReader(med, pageSize)
	r := NewReader(pr, 0, codecs)

	for i := 0; i < n; i++ {
		values := make([]codec.Value, len(codecs))

		ok, err := r.Next(values)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("unexpected end of stream at record %d", i)
		}

		if got := values[0].Float(); got != float64(i)*0.5 {
			t.Fatalf("record %d cartesianX: got %v, want %v", i, got, float64(i)*0.5)
		}
		if got := values[1].Int(); got != int64(i%2048) {
			t.Fatalf("record %d intensity: got %d, want %d", i, got, i%2048)
		}
		if got := values[2].Int(); got != int64(i%2) {
			t.Fatalf("record %d invalid flag: got %d, want %d", i, got, i%2)
		}
	}

	values := make([]codec.Value, len(codecs))

	ok, err := r.Next(values)
	if err != nil {
		t.Fatalf("unexpected error at stream end: %v", err)
	}
	if ok {
		t.Fatal("expected end of stream")
	}
}

func TestWriteReadCrossesMultipleDataPackets(t *testing.T) {
	wide := prototype.Field{Name: "wide", Kind: prototype.Integer, Min: 0, Max: (1 << 62) - 1} // 62 bits

	c, err := codec.New(wide)
	if err != nil {
		t.Fatal(err)
	}
	codecs := []*codec.Field{c, c, c, c, c} // ~310 bits (~39 bytes) per record

	med := &memMedium{}
	const pageSize = 512

	pw := pageio.NewWriter(med, pageSize)
	w := NewWriter(pw, codecs, true)

	const n = 2000 // well past one flushThreshold-sized packet at ~39 bytes/record
	for i := 0; i < n; i++ {
		v := int64(i) % ((1 << 62) - 1)
		values := []codec.Value{
			codec.IntValue(v, prototype.UnsignedInt),
			codec.IntValue(v, prototype.UnsignedInt),
			codec.IntValue(v, prototype.UnsignedInt),
			codec.IntValue(v, prototype.UnsignedInt),
			codec.IntValue(v, prototype.UnsignedInt),
		}
		if err := w.WriteRecord(values); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	count, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if count != n {
		t.Fatalf("expected %d records, got %d", n, count)
	}
	if err := pw.Flush(); err != nil {
		t.Fatal(err)
	}

	pr := pageio.NewReader(med, pageSize)
	r := NewReader(pr, 0, codecs)

	for i := 0; i < n; i++ {
		values := make([]codec.Value, len(codecs))

		ok, err := r.Next(values)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("unexpected end of stream at record %d", i)
		}

		want := int64(i) % ((1 << 62) - 1)
		for f, v := range values {
			if v.Int() != want {
				t.Fatalf("record %d field %d: got %d, want %d", i, f, v.Int(), want)
			}
		}
	}
}

func TestWriteReadEmptyStream(t *testing.T) {
	codecs := buildCodecs(t)
	med := &memMedium{}
	const pageSize = 256

	pw := pageio.NewWriter(med, pageSize)
	w := NewWriter(pw, codecs, true)

	count, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected 0 records, got %d", count)
	}
	if err := pw.Flush(); err != nil {
		t.Fatal(err)
	}

	pr := pageio.NewReader(med, pageSize)
	r := NewReader(pr, 0, codecs)

	values := make([]codec.Value, len(codecs))

	ok, err := r.Next(values)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected immediate end of stream")
	}
}
