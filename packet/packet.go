// Package packet implements compressed-vector packet framing (spec §4.3):
// data packets multiplexing one bytestream per prototype field, the
// advisory index packet, and the end-of-stream sentinel. It also hosts
// the record-level Reader/Writer that drive the codec and bitio layers
// packet-by-packet, grounded on the teacher corpus's fixed-size
// header-then-payload framing style (section/numeric_header.go,
// blob/numeric_blob.go) generalized from one metric blob to many
// per-field bytestreams multiplexed into a single packet.
package packet

import (
	"encoding/binary"

	"github.com/cry-inc/e57/errs"
)

// Packet type tags (spec §4.3).
const (
	TypeIndex       byte = 0x00
	TypeData        byte = 0x01
	TypeEndOfStream byte = 0x02
)

// commonPrefixSize is the 4-byte {type, reserved, length_minus_one} prefix
// shared by every packet.
const commonPrefixSize = 4

// dataHeaderSize is the fixed portion of a data packet's header, after the
// common prefix: bytestream_count (2 bytes) + reserved (2 bytes).
const dataHeaderSize = 4

// MaxPacketPayload is the largest payload (header included) a single data
// packet may declare (spec §4.3, §5 memory bound).
const MaxPacketPayload = 65536

// alignTo4 rounds n up to the next multiple of 4.
func alignTo4(n int) int {
	return (n + 3) &^ 3
}

// PeekHeader reads the 4-byte common prefix and returns the packet's type
// and its total on-wire length (header included). It does not validate
// that data is long enough to hold the full packet.
func PeekHeader(data []byte) (packetType byte, totalLen int, err error) {
	if len(data) < commonPrefixSize {
		return 0, 0, errs.ErrTruncatedPacket
	}

	packetType = data[0]
	lengthMinusOne := binary.LittleEndian.Uint16(data[2:4])
	totalLen = int(lengthMinusOne) + 1

	switch packetType {
	case TypeIndex, TypeData, TypeEndOfStream:
	default:
		return 0, 0, &errs.UnknownPacketType{Type: packetType}
	}

	return packetType, totalLen, nil
}

// DataPacket is a parsed 0x01 packet: the per-bytestream length table and
// the concatenated, possibly zero-padded, payload bytes.
type DataPacket struct {
	BytestreamLengths []int
	Payload           []byte
}

// ParseData parses a data packet from data, which must contain at least
// the packet's full declared length starting at offset 0.
func ParseData(data []byte) (*DataPacket, error) {
	packetType, totalLen, err := PeekHeader(data)
	if err != nil {
		return nil, err
	}
	if packetType != TypeData {
		return nil, &errs.UnknownPacketType{Type: packetType}
	}
	if len(data) < totalLen {
		return nil, errs.ErrTruncatedPacket
	}

	if totalLen < commonPrefixSize+dataHeaderSize {
		return nil, errs.ErrTruncatedPacket
	}

	count := int(binary.LittleEndian.Uint16(data[4:6]))
	// data[6:8] is reserved

	tableStart := commonPrefixSize + dataHeaderSize
	tableEnd := tableStart + 2*count
	if tableEnd > totalLen {
		return nil, errs.ErrTruncatedPacket
	}

	lengths := make([]int, count)
	payloadLen := 0
	for i := range count {
		l := int(binary.LittleEndian.Uint16(data[tableStart+2*i : tableStart+2*i+2]))
		lengths[i] = l
		payloadLen += l
	}

	payloadStart := tableEnd
	if payloadStart+payloadLen > totalLen {
		return nil, errs.ErrTruncatedPacket
	}

	payload := make([]byte, payloadLen)
	copy(payload, data[payloadStart:payloadStart+payloadLen])

	return &DataPacket{BytestreamLengths: lengths, Payload: payload}, nil
}

// EncodeData builds a single 0x01 data packet carrying one bytestream per
// prototype field, in declaration order, zero-padded so the total length
// is a multiple of 4 (spec §4.3).
func EncodeData(bytestreams [][]byte) ([]byte, error) {
	count := len(bytestreams)
	headerLen := commonPrefixSize + dataHeaderSize + 2*count

	payloadLen := 0
	for _, bs := range bytestreams {
		payloadLen += len(bs)
	}

	rawLen := headerLen + payloadLen
	totalLen := alignTo4(rawLen)
	if totalLen > MaxPacketPayload {
		return nil, errs.ErrTruncatedPacket
	}

	buf := make([]byte, totalLen)
	buf[0] = TypeData
	buf[1] = 0
	binary.LittleEndian.PutUint16(buf[2:4], uint16(totalLen-1)) //nolint:gosec // bounded by MaxPacketPayload
	binary.LittleEndian.PutUint16(buf[4:6], uint16(count))      //nolint:gosec // bytestream count is always small
	binary.LittleEndian.PutUint16(buf[6:8], 0)

	tableStart := commonPrefixSize + dataHeaderSize
	pos := headerLen
	for i, bs := range bytestreams {
		binary.LittleEndian.PutUint16(buf[tableStart+2*i:tableStart+2*i+2], uint16(len(bs))) //nolint:gosec
		copy(buf[pos:], bs)
		pos += len(bs)
	}
	// remaining bytes, if any, are the zero-padding already present in buf

	return buf, nil
}

// EncodeEndOfStream builds the 4-byte 0x02 sentinel packet terminating a
// compressed-vector section.
func EncodeEndOfStream() []byte {
	buf := make([]byte, commonPrefixSize)
	buf[0] = TypeEndOfStream
	binary.LittleEndian.PutUint16(buf[2:4], commonPrefixSize-1)

	return buf
}
