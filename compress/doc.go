// Package compress provides optional general-purpose compression codecs
// layered on top of the format's own bit-packing.
//
// E57 itself never compresses the compressed-vector section further — its
// "compression" is the bit-packing the codec package already does. This
// package exists for two consumers outside that core path:
//
//   - blobsection, which can optionally compress a blob's payload bytes
//     before writing them (an extension beyond what stock E57 files do,
//     useful for large raw image blobs) and must decompress on read.
//   - cmd/e57laz, which exports a point cloud's Cartesian/intensity
//     streams into a columnar, LAZ-like compressed container for
//     interchange with tools that do not read E57 directly.
//
// Four algorithms are available: None (passthrough), Zstd (best ratio),
// S2 (balanced), and LZ4 (fastest decompression). CreateCodec and GetCodec
// select one by format.CompressionType.
package compress
