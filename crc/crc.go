// Package crc computes the CRC-32C (Castagnoli, polynomial 0x1EDC6F41,
// reflected) checksum that trails every E57 page.
//
// No third-party CRC-32C implementation appears anywhere in the example
// corpus (the closest candidates, klauspost/compress and pierrec/lz4,
// expose general-purpose block compressors, not a standalone CRC). The
// standard library's hash/crc32 already carries a hardware-accelerated
// (SSE4.2/ARM64) implementation of the Castagnoli polynomial reachable
// through crc32.MakeTable(crc32.Castagnoli) — this is exactly the "optional
// faster codepath that doesn't change the polynomial" the format note
// describes, so there is no case for shipping a second implementation.
package crc

import "hash/crc32"

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// Checksum32C returns the CRC-32C of data.
func Checksum32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoliTable)
}

// Verify32C reports whether data's CRC-32C matches the given checksum.
func Verify32C(data []byte, checksum uint32) bool {
	return Checksum32C(data) == checksum
}
