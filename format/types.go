// Package format defines small shared enumerations used by the optional
// compression layer (blob payload compression, the LAZ-like export tool).
package format

// CompressionType identifies a general-purpose byte compressor applied on
// top of an already bit-packed payload.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x1 // CompressionNone applies no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd applies Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 applies S2 (Snappy-family) compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 applies LZ4 compression.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
