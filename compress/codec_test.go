package compress

import (
	"testing"

	"github.com/cry-inc/e57/format"
	"github.com/stretchr/testify/require"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"Zstd": NewZstdCompressor(),
		"S2":   NewS2Compressor(),
		"LZ4":  NewLZ4Compressor(),
	}
}

func samplePayload(n int) []byte {
	pattern := []byte("cartesianX cartesianY cartesianZ intensity 0.123456")
	data := make([]byte, n)
	for i := range data {
		data[i] = pattern[i%len(pattern)]
	}

	return data
}

func TestCompressionTypeString(t *testing.T) {
	require.Equal(t, "None", format.CompressionNone.String())
	require.Equal(t, "Zstd", format.CompressionZstd.String())
	require.Equal(t, "S2", format.CompressionS2.String())
	require.Equal(t, "LZ4", format.CompressionLZ4.String())
	require.Equal(t, "Unknown", format.CompressionType(0xFF).String())
}

func TestAllCodecsRoundTrip(t *testing.T) {
	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			data := samplePayload(8192)

			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, data, decompressed)
		})
	}
}

func TestNoOpCompressorIsIdentity(t *testing.T) {
	c := NewNoOpCompressor()
	data := []byte("arbitrary blob bytes")

	compressed, err := c.Compress(data)
	require.NoError(t, err)
	require.Equal(t, data, compressed)
}

func TestCreateCodecUnknownType(t *testing.T) {
	_, err := CreateCodec(format.CompressionType(0xFF), "blob")
	require.Error(t, err)
}

func TestGetCodecKnownTypes(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	} {
		c, err := GetCodec(ct)
		require.NoError(t, err)
		require.NotNil(t, c)
	}
}

func TestCompressionStatsCalculations(t *testing.T) {
	stats := CompressionStats{OriginalSize: 1000, CompressedSize: 300}
	require.InDelta(t, 0.3, stats.CompressionRatio(), 0.0001)
	require.InDelta(t, 70.0, stats.SpaceSavings(), 0.0001)

	zero := CompressionStats{OriginalSize: 0, CompressedSize: 100}
	require.Equal(t, 0.0, zero.CompressionRatio())
}
