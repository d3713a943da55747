// Package endian provides the byte-order engine used to read and write the
// E57 binary body.
//
// E57 fixes little-endian throughout the binary body (header, section
// headers, packets, bytestreams); unlike a general-purpose serialization
// library this package does not need to support big-endian target files,
// only little-endian encoding/decoding of the fixed-width integers that
// frame pages, sections, and packets.
package endian

import "encoding/binary"

// Engine combines ByteOrder and AppendByteOrder from encoding/binary into a
// single interface, letting callers both read/write fixed buffers and
// append to growing ones without a second import.
type Engine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// LE is the little-endian engine mandated by the E57 binary body.
var LE Engine = binary.LittleEndian
