package compress

import (
	"fmt"
	"testing"
)

// generateBenchmarkData produces payloads approximating a point cloud's
// bit-packed Cartesian/intensity streams at varying compressibility.
func generateBenchmarkData(size int, compressible bool) []byte {
	data := make([]byte, size)
	if compressible {
		pattern := []byte("cartesianX cartesianY cartesianZ intensity 0.123456")
		for i := range data {
			data[i] = pattern[i%len(pattern)]
		}

		return data
	}

	for i := range data {
		data[i] = byte((i*31 + i*i*7) % 256)
	}

	return data
}

func BenchmarkAllCodecs_RoundTrip(b *testing.B) {
	sizes := []int{4096, 65536, 1048576} // one data packet, max data packet, a full blob

	codecs := getAllCodecs()

	for name, codec := range codecs {
		b.Run(name, func(b *testing.B) {
			for _, size := range sizes {
				b.Run(fmt.Sprintf("%dKB", size/1024), func(b *testing.B) {
					data := generateBenchmarkData(size, true)

					b.ReportAllocs()
					b.SetBytes(int64(size))
					b.ResetTimer()

					for b.Loop() {
						compressed, err := codec.Compress(data)
						if err != nil {
							b.Fatal(err)
						}
						if _, err := codec.Decompress(compressed); err != nil {
							b.Fatal(err)
						}
					}
				})
			}
		})
	}
}
